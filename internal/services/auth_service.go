package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/maynagashev/receitas/internal/repository"
	"github.com/maynagashev/receitas/internal/security"
	"github.com/maynagashev/receitas/models"
)

// AuthService определяет интерфейс для сервиса аутентификации.
type AuthService interface {
	SignIn(ctx context.Context, usernameOrEmail, password string) (*models.SignInResponse, error)
	ResolveIdentity(ctx context.Context, token string) (*models.UserIdentity, error)
	Register(ctx context.Context, req models.CreateUserRequest) (*models.User, error)
}

// PasswordHasher хеширует и проверяет пароли.
type PasswordHasher interface {
	Hash(password string) string
	Verify(plaintext, storedHash string) bool
}

// TokenCodec выпускает и проверяет токены доступа.
type TokenCodec interface {
	Issue(userID int64, name string) (string, error)
	Validate(token string) (*security.Claims, error)
}

// Убедимся, что authService удовлетворяет интерфейсу AuthService.
var _ AuthService = (*authService)(nil)

type authService struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	tokens   TokenCodec
}

// NewAuthService создает новый экземпляр сервиса аутентификации.
func NewAuthService(userRepo repository.UserRepository, hasher PasswordHasher, tokens TokenCodec) AuthService {
	return &authService{userRepo: userRepo, hasher: hasher, tokens: tokens}
}

// SignIn проверяет учетные данные и выпускает токен.
// Отсутствующий пользователь и неверный пароль дают одну и ту же ошибку.
func (s *authService) SignIn(ctx context.Context, usernameOrEmail, password string) (*models.SignInResponse, error) {
	user, err := s.userRepo.GetActiveUserByEmailOrUsername(ctx, usernameOrEmail)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Время ответа не зависит от того, существует ли пользователь
			s.hasher.Verify(password, "")
			log.Printf("[AuthService] Попытка входа несуществующего пользователя: %s", usernameOrEmail)
			return nil, ErrCredentialsNotMatch
		}
		log.Printf("[AuthService] Ошибка репозитория при поиске '%s': %v", usernameOrEmail, err)
		return nil, fmt.Errorf("ошибка поиска пользователя: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		log.Printf("[AuthService] Неверный пароль для пользователя: %s", usernameOrEmail)
		return nil, ErrCredentialsNotMatch
	}

	token, err := s.tokens.Issue(user.ID, user.Name)
	if err != nil {
		log.Printf("[AuthService] Ошибка выпуска токена для '%s': %v", user.Username, err)
		return nil, fmt.Errorf("ошибка выпуска токена: %w", err)
	}

	log.Printf("[AuthService] Пользователь '%s' успешно аутентифицирован", user.Username)
	identity := user.Identity()
	return &models.SignInResponse{
		ID:        identity.ID,
		Name:      identity.Name,
		Token:     token,
		Username:  identity.Username,
		Email:     identity.Email,
		CreatedAt: identity.CreatedAt,
	}, nil
}

// ResolveIdentity проверяет токен и возвращает публичные данные его владельца.
// Токен пользователя, который удален или деактивирован, считается невалидным.
func (s *authService) ResolveIdentity(ctx context.Context, token string) (*models.UserIdentity, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetActiveUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			log.Printf("[AuthService] Владелец токена (ID: %d) не найден", claims.UserID)
			return nil, ErrInvalidToken
		}
		log.Printf("[AuthService] Ошибка репозитория при поиске ID %d: %v", claims.UserID, err)
		return nil, fmt.Errorf("ошибка поиска пользователя: %w", err)
	}

	return user.Identity(), nil
}

// Register проверяет данные, хеширует пароль и создает активного пользователя.
func (s *authService) Register(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	if err := validateStruct(req); err != nil {
		log.Printf("[AuthService] Некорректные данные регистрации '%s': %v", req.Username, err)
		return nil, err
	}

	created, err := s.userRepo.CreateUser(ctx, &models.User{
		Name:         req.Name,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: s.hasher.Hash(req.Password),
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			log.Printf("[AuthService] Попытка регистрации с занятым именем или email: %s", req.Username)
			return nil, ErrUserAlreadyExists
		}
		log.Printf("[AuthService] Непредвиденная ошибка репозитория при регистрации '%s': %v", req.Username, err)
		return nil, fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	log.Printf("[AuthService] Пользователь '%s' успешно зарегистрирован", created.Username)
	return created, nil
}

// Кастомные ошибки сервиса.
var (
	ErrCredentialsNotMatch = errors.New("неверные учетные данные")
	ErrUserAlreadyExists   = errors.New("пользователь с таким именем или email уже существует")
	ErrValidation          = errors.New("некорректные данные")

	ErrInvalidToken = security.ErrInvalidToken
	ErrTokenExpired = security.ErrTokenExpired
)
