package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/maynagashev/receitas/internal/services"
	"github.com/maynagashev/receitas/models"
)

// Тип для ключа контекста.
type contextKey string

// Ключ для хранения данных пользователя в контексте.
const UserKey contextKey = "user"

// IdentityResolver определяет владельца токена.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, token string) (*models.UserIdentity, error)
}

// Authenticator проверяет bearer-токен и кладет данные пользователя в контекст запроса.
// Истекший и невалидный токены дают 401 с разными сообщениями.
func Authenticator(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				log.Println("[AuthMiddleware] Заголовок Authorization отсутствует")
				unauthorized(w, "Требуется аутентификация")
				return
			}

			// Проверяем формат "Bearer token"
			scheme, token, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
				log.Println("[AuthMiddleware] Неверный формат заголовка Authorization")
				unauthorized(w, "Неверный формат токена")
				return
			}

			user, err := resolver.ResolveIdentity(r.Context(), strings.TrimSpace(token))
			switch {
			case err == nil:
			case errors.Is(err, services.ErrTokenExpired):
				log.Println("[AuthMiddleware] Срок действия токена истек")
				unauthorized(w, "Срок действия токена истек")
				return
			case errors.Is(err, services.ErrInvalidToken):
				log.Printf("[AuthMiddleware] Невалидный токен: %v", err)
				unauthorized(w, "Невалидный токен")
				return
			default:
				log.Printf("[AuthMiddleware] Ошибка проверки токена: %v", err)
				http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
				return
			}

			log.Printf("[AuthMiddleware] Пользователь %d успешно аутентифицирован", user.ID)
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	http.Error(w, msg, http.StatusUnauthorized)
}

// WithUser возвращает контекст с данными пользователя.
func WithUser(ctx context.Context, user *models.UserIdentity) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// GetUserFromContext извлекает данные пользователя из контекста запроса.
func GetUserFromContext(ctx context.Context) (*models.UserIdentity, bool) {
	user, ok := ctx.Value(UserKey).(*models.UserIdentity)
	return user, ok && user != nil
}

// GetUserIDFromContext извлекает ID пользователя из контекста запроса.
// Возвращает ID пользователя и true, если ID найден, иначе 0 и false.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	user, ok := GetUserFromContext(ctx)
	if !ok {
		return 0, false
	}
	return user.ID, true
}
