package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/maynagashev/receitas/internal/handlers"
	"github.com/maynagashev/receitas/internal/middleware"
	"github.com/maynagashev/receitas/internal/services"
	"github.com/maynagashev/receitas/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewAuthHandler(t *testing.T) {
	mockService := new(MockAuthService)
	h := handlers.NewAuthHandler(mockService)
	assert.NotNil(t, h)
}

// Вспомогательная функция для создания роутера с обработчиком.
func setupAuthRouter(h *handlers.AuthHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/auth/register", h.Register)
	r.Post("/auth/sign-in", h.SignIn)
	return r
}

func TestAuthHandler_Register(t *testing.T) {
	validReq := models.CreateUserRequest{
		Name:     "Maria Silva",
		Username: "maria",
		Email:    "maria@example.com",
		Password: "senha-forte",
	}

	tests := []struct {
		name            string
		body            string
		callService     bool
		mockReturnUser  *models.User
		mockReturnError error
		expectedStatus  int
		expectedBody    string // Проверяем подстроку в теле ответа
	}{
		{
			name:        "Успешная регистрация",
			body:        `{"name":"Maria Silva","username":"maria","email":"maria@example.com","password":"senha-forte"}`,
			callService: true,
			mockReturnUser: &models.User{
				ID: 7, Name: "Maria Silva", Username: "maria", Email: "maria@example.com",
				PasswordHash: "segredo",
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"username":"maria"`,
		},
		{
			name:           "Невалидный JSON",
			body:           `{"username": "maria"`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Неверный формат запроса",
		},
		{
			name:            "Ошибка валидации",
			body:            `{"name":"Maria Silva","username":"maria","email":"maria@example.com","password":"senha-forte"}`,
			callService:     true,
			mockReturnError: fmt.Errorf("%w: password: min=8", services.ErrValidation),
			expectedStatus:  http.StatusBadRequest,
			expectedBody:    "password: min=8",
		},
		{
			name:            "Пользователь уже существует",
			body:            `{"name":"Maria Silva","username":"maria","email":"maria@example.com","password":"senha-forte"}`,
			callService:     true,
			mockReturnError: services.ErrUserAlreadyExists,
			expectedStatus:  http.StatusConflict,
			expectedBody:    "уже существует",
		},
		{
			name:            "Внутренняя ошибка сервиса",
			body:            `{"name":"Maria Silva","username":"maria","email":"maria@example.com","password":"senha-forte"}`,
			callService:     true,
			mockReturnError: errors.New("db down"),
			expectedStatus:  http.StatusInternalServerError,
			expectedBody:    "Внутренняя ошибка сервера",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockAuthService)
			router := setupAuthRouter(handlers.NewAuthHandler(mockService))

			if tt.callService {
				mockService.On("Register", mock.Anything, validReq).
					Return(tt.mockReturnUser, tt.mockReturnError).Once()
			}

			req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
			// Хеш пароля никогда не попадает в ответ
			assert.NotContains(t, rr.Body.String(), "segredo")
			mockService.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_SignIn(t *testing.T) {
	tests := []struct {
		name            string
		body            string
		mockUsername    string
		mockPassword    string
		mockReturnResp  *models.SignInResponse
		mockReturnError error
		expectedStatus  int
		expectedBody    string
	}{
		{
			name:         "Успешный вход",
			body:         `{"username": "maria", "password": "senha-forte"}`,
			mockUsername: "maria",
			mockPassword: "senha-forte",
			mockReturnResp: &models.SignInResponse{
				ID: 7, Name: "Maria Silva", Token: "jwt.token.here", Username: "maria",
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"token":"jwt.token.here"`,
		},
		{
			name:           "Невалидный JSON",
			body:           `{"username": "maria"`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Неверный формат запроса",
		},
		{
			name:           "Пустой пароль",
			body:           `{"username": "maria", "password": ""}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "не могут быть пустыми",
		},
		{
			name:            "Неверные учетные данные",
			body:            `{"username": "maria@example.com", "password": "errada"}`,
			mockUsername:    "maria@example.com",
			mockPassword:    "errada",
			mockReturnError: services.ErrCredentialsNotMatch,
			expectedStatus:  http.StatusUnauthorized,
			expectedBody:    "Неверные учетные данные",
		},
		{
			name:            "Внутренняя ошибка",
			body:            `{"username": "maria", "password": "senha-forte"}`,
			mockUsername:    "maria",
			mockPassword:    "senha-forte",
			mockReturnError: errors.New("db down"),
			expectedStatus:  http.StatusInternalServerError,
			expectedBody:    "Внутренняя ошибка сервера",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockAuthService)
			router := setupAuthRouter(handlers.NewAuthHandler(mockService))

			if tt.mockUsername != "" {
				mockService.On("SignIn", mock.Anything, tt.mockUsername, tt.mockPassword).
					Return(tt.mockReturnResp, tt.mockReturnError).Once()
			}

			req := httptest.NewRequest(http.MethodPost, "/auth/sign-in", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
			if tt.expectedStatus == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", rr.Header().Get("WWW-Authenticate"))
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_Me(t *testing.T) {
	h := handlers.NewAuthHandler(new(MockAuthService))

	t.Run("Пользователь в контексте", func(t *testing.T) {
		user := &models.UserIdentity{ID: 7, Name: "Maria Silva", Username: "maria", Email: "maria@example.com"}
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req = req.WithContext(middleware.WithUser(req.Context(), user))
		rr := httptest.NewRecorder()

		h.Me(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var got models.UserIdentity
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
		assert.Equal(t, *user, got)
	})

	t.Run("Нет пользователя в контексте", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil).WithContext(context.Background())
		rr := httptest.NewRecorder()

		h.Me(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}
