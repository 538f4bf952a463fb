package apiclient_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/maynagashev/receitas/internal/apiclient"
	"github.com/maynagashev/receitas/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "test-jwt-token"

func TestHTTPClient_SignIn(t *testing.T) {
	tests := []struct {
		name          string
		serverHandler http.HandlerFunc
		expectedErrIs error
		expectedErr   bool
	}{
		{
			name: "Успех",
			serverHandler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/auth/sign-in", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var req models.SignInRequest
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "maria", req.Username)
				assert.Equal(t, "senha-forte", req.Password)

				_ = json.NewEncoder(w).Encode(models.SignInResponse{ID: 7, Username: "maria", Token: testToken})
			},
		},
		{
			name: "Неверные учетные данные (401)",
			serverHandler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "Неверные учетные данные", http.StatusUnauthorized)
			},
			expectedErr:   true,
			expectedErrIs: apiclient.ErrAuthorization,
		},
		{
			name: "Пустой токен в ответе",
			serverHandler: func(w http.ResponseWriter, _ *http.Request) {
				_ = json.NewEncoder(w).Encode(models.SignInResponse{ID: 7})
			},
			expectedErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.serverHandler)
			defer server.Close()

			client := apiclient.NewHTTPClient(server.URL)
			resp, err := client.SignIn(context.Background(), "maria", "senha-forte")

			if tt.expectedErr {
				require.Error(t, err)
				if tt.expectedErrIs != nil {
					require.ErrorIs(t, err, tt.expectedErrIs)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testToken, resp.Token)
		})
	}
}

func TestHTTPClient_TokenIsReused(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/sign-in", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(models.SignInResponse{ID: 7, Token: testToken})
	})
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			http.Error(w, "Невалидный токен", http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(models.UserIdentity{ID: 7, Username: "maria"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := apiclient.NewHTTPClient(server.URL)

	_, err := client.Me(context.Background())
	require.ErrorIs(t, err, apiclient.ErrAuthorization, "без токена запрос не отправляется")

	_, err = client.SignIn(context.Background(), "maria", "senha-forte")
	require.NoError(t, err)

	user, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "maria", user.Username)

	client.SetAuthToken("outro")
	_, err = client.Me(context.Background())
	require.ErrorIs(t, err, apiclient.ErrAuthorization)
}

func TestHTTPClient_Recipes(t *testing.T) {
	recipe := models.Recipe{ID: 3, Name: "Pão de queijo", Kind: "Salgado"}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /receitas", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]models.Recipe{recipe})
	})
	mux.HandleFunc("GET /receitas/3", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(recipe)
	})
	mux.HandleFunc("GET /receitas/404", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Рецепт не найден", http.StatusNotFound)
	})
	mux.HandleFunc("POST /receitas", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
		var input models.RecipeInput
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&input))
		if input.Name == "" {
			http.Error(w, "некорректные данные: nome: required", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(models.Recipe{ID: 4, Name: input.Name})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := apiclient.NewHTTPClient(server.URL + "/")
	ctx := context.Background()

	t.Run("Список рецептов", func(t *testing.T) {
		list, err := client.ListRecipes(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, recipe.Name, list[0].Name)
	})

	t.Run("Рецепт по ID", func(t *testing.T) {
		got, err := client.GetRecipe(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, recipe, *got)
	})

	t.Run("Рецепт не найден", func(t *testing.T) {
		_, err := client.GetRecipe(ctx, 404)
		require.ErrorIs(t, err, apiclient.ErrNotFound)
	})

	t.Run("Создание рецепта", func(t *testing.T) {
		client.SetAuthToken(testToken)
		got, err := client.CreateRecipe(ctx, models.RecipeInput{Name: "Bolo"})
		require.NoError(t, err)
		assert.Equal(t, int64(4), got.ID)
	})

	t.Run("Ошибка валидации", func(t *testing.T) {
		_, err := client.CreateRecipe(ctx, models.RecipeInput{})
		require.Error(t, err)

		var statusErr *apiclient.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusBadRequest, statusErr.Code)
		assert.Contains(t, statusErr.Message, "nome: required")
	})
}

func TestHTTPClient_UploadImage(t *testing.T) {
	const imageURL = "http://localhost:8080/imagens-receitas/abc.png"
	content := "\x89PNG\r\n\x1a\nconteudo"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/receitas/imagem", r.URL.Path)
		assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))

		file, header, err := r.FormFile("imagem")
		if !assert.NoError(t, err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, content, string(data))
		assert.Equal(t, "bolo.png", header.Filename)

		_ = json.NewEncoder(w).Encode(imageURL)
	}))
	defer server.Close()

	client := apiclient.NewHTTPClient(server.URL)
	client.SetAuthToken(testToken)

	got, err := client.UploadImage(context.Background(), "bolo.png", strings.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, imageURL, got)
}
