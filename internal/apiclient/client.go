// Package apiclient - HTTP-клиент публичного API сервиса рецептов.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/maynagashev/receitas/models"
)

const defaultTimeout = 30 * time.Second

// Client определяет интерфейс для взаимодействия с API сервиса рецептов.
type Client interface {
	// SignIn аутентифицирует пользователя и сохраняет полученный токен.
	SignIn(ctx context.Context, usernameOrEmail, password string) (*models.SignInResponse, error)
	// Me возвращает данные текущего пользователя.
	Me(ctx context.Context) (*models.UserIdentity, error)
	ListRecipes(ctx context.Context) ([]models.Recipe, error)
	GetRecipe(ctx context.Context, id int64) (*models.Recipe, error)
	CreateRecipe(ctx context.Context, input models.RecipeInput) (*models.Recipe, error)
	// UploadImage загружает изображение и возвращает его URL.
	UploadImage(ctx context.Context, filename string, data io.Reader) (string, error)
	// SetAuthToken устанавливает токен для аутентифицированных запросов.
	SetAuthToken(token string)
}

// httpClient реализует интерфейс Client по HTTP.
type httpClient struct {
	baseURL    string       // Базовый URL сервера, например "http://localhost:8080"
	httpClient *http.Client // HTTP клиент для выполнения запросов
	authToken  string
}

// NewHTTPClient создает новый экземпляр API клиента.
func NewHTTPClient(baseURL string) Client {
	return &httpClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// SignIn отправляет запрос на вход и сохраняет токен.
func (c *httpClient) SignIn(ctx context.Context, usernameOrEmail, password string) (*models.SignInResponse, error) {
	var resp models.SignInResponse
	body := models.SignInRequest{Username: usernameOrEmail, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/sign-in", body, false, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, errors.New("сервер вернул пустой токен")
	}
	c.authToken = resp.Token
	return &resp, nil
}

// Me запрашивает данные текущего пользователя.
func (c *httpClient) Me(ctx context.Context) (*models.UserIdentity, error) {
	var user models.UserIdentity
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, true, http.StatusOK, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListRecipes получает все рецепты.
func (c *httpClient) ListRecipes(ctx context.Context) ([]models.Recipe, error) {
	var recipes []models.Recipe
	if err := c.doJSON(ctx, http.MethodGet, "/receitas", nil, false, http.StatusOK, &recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// GetRecipe получает рецепт по ID.
func (c *httpClient) GetRecipe(ctx context.Context, id int64) (*models.Recipe, error) {
	var recipe models.Recipe
	path := "/receitas/" + strconv.FormatInt(id, 10)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, false, http.StatusOK, &recipe); err != nil {
		return nil, err
	}
	return &recipe, nil
}

// CreateRecipe создает рецепт от имени текущего пользователя.
func (c *httpClient) CreateRecipe(ctx context.Context, input models.RecipeInput) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := c.doJSON(ctx, http.MethodPost, "/receitas", input, true, http.StatusCreated, &recipe); err != nil {
		return nil, err
	}
	return &recipe, nil
}

// UploadImage отправляет файл в поле "imagem" multipart-формы.
func (c *httpClient) UploadImage(ctx context.Context, filename string, data io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("imagem", filename)
	if err != nil {
		return "", fmt.Errorf("ошибка формирования multipart-запроса: %w", err)
	}
	if _, err = io.Copy(part, data); err != nil {
		return "", fmt.Errorf("ошибка чтения файла для загрузки: %w", err)
	}
	if err = mw.Close(); err != nil {
		return "", fmt.Errorf("ошибка формирования multipart-запроса: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/receitas/imagem", &buf, true)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var imageURL string
	if err = c.do(req, http.StatusOK, &imageURL); err != nil {
		return "", err
	}
	return imageURL, nil
}

// SetAuthToken устанавливает токен аутентификации для клиента.
func (c *httpClient) SetAuthToken(token string) {
	c.authToken = token
}

func (c *httpClient) doJSON(
	ctx context.Context,
	method, path string,
	payload any,
	auth bool,
	wantStatus int,
	out any,
) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("ошибка кодирования запроса: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, body, auth)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, wantStatus, out)
}

func (c *httpClient) newRequest(
	ctx context.Context,
	method, path string,
	body io.Reader,
	auth bool,
) (*http.Request, error) {
	endpoint, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return nil, fmt.Errorf("ошибка формирования URL: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	if auth {
		if c.authToken == "" {
			return nil, fmt.Errorf("%w: токен аутентификации отсутствует", ErrAuthorization)
		}
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	return req, nil
}

// do выполняет запрос и декодирует ответ при ожидаемом статусе.
func (c *httpClient) do(req *http.Request, wantStatus int, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка выполнения запроса %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ошибка декодирования ответа: %w", err)
	}
	return nil
}

// Максимум текста ошибки, который читается из тела ответа.
const maxErrorBody = 1024

func statusError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	text := strings.TrimSpace(string(msg))

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrAuthorization, text)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, text)
	default:
		return &StatusError{Code: resp.StatusCode, Message: text}
	}
}

// StatusError - неожиданный статус ответа сервера.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("сервер вернул статус %d: %s", e.Code, e.Message)
}

var (
	// ErrAuthorization сигнализирует об ошибке авторизации (401).
	ErrAuthorization = errors.New("ошибка авторизации")
	// ErrNotFound - запрошенный ресурс не найден (404).
	ErrNotFound = errors.New("не найдено")
)
