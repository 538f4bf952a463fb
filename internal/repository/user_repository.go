package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/maynagashev/receitas/models"
)

// Коды ошибок PostgreSQL.
const (
	pgUniqueViolationCode = "23505"
)

const userColumns = `id, name, username, email, password_hash, is_active, created_at`

// UserRepository определяет методы для работы с данными пользователей в хранилище.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetActiveUserByEmailOrUsername(ctx context.Context, key string) (*models.User, error)
	GetActiveUserByID(ctx context.Context, id int64) (*models.User, error)
}

// postgresUserRepository реализует UserRepository для PostgreSQL.
type postgresUserRepository struct {
	db *sqlx.DB
}

// NewPostgresUserRepository создает новый экземпляр репозитория пользователей для PostgreSQL.
func NewPostgresUserRepository(db *sqlx.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

// CreateUser создает активного пользователя и возвращает его с ID и датой создания.
func (r *postgresUserRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	query := `INSERT INTO users (name, username, email, password_hash, is_active)
		VALUES ($1, $2, $3, $4, TRUE) RETURNING ` + userColumns
	var created models.User

	err := r.db.QueryRowxContext(ctx, query,
		user.Name, user.Username, user.Email, user.PasswordHash,
	).StructScan(&created)
	if err != nil {
		// Проверяем на ошибку нарушения уникальности (duplicate key)
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			log.Printf("[Repo] Ошибка создания пользователя: '%s' или '%s' уже заняты", user.Username, user.Email)
			return nil, ErrUserAlreadyExists
		}
		log.Printf("[Repo] Непредвиденная ошибка при создании пользователя '%s': %v", user.Username, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на создание пользователя: %w", err)
	}

	log.Printf("[Repo] Пользователь '%s' успешно создан с ID %d", created.Username, created.ID)
	return &created, nil
}

// GetActiveUserByEmailOrUsername ищет активного пользователя по точному совпадению
// имени пользователя или email.
func (r *postgresUserRepository) GetActiveUserByEmailOrUsername(
	ctx context.Context,
	key string,
) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE (username = $1 OR email = $1) AND is_active = TRUE LIMIT 1`
	return r.getUser(ctx, query, key)
}

// GetActiveUserByID ищет активного пользователя по ID.
func (r *postgresUserRepository) GetActiveUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND is_active = TRUE`
	return r.getUser(ctx, query, id)
}

func (r *postgresUserRepository) getUser(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User

	err := r.db.GetContext(ctx, &user, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("[Repo] Пользователь '%v' не найден", arg)
			return nil, ErrUserNotFound
		}
		log.Printf("[Repo] Ошибка при поиске пользователя '%v': %v", arg, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение пользователя: %w", err)
	}

	return &user, nil
}

// Кастомные ошибки репозитория.
var (
	ErrUserNotFound      = errors.New("пользователь не найден")
	ErrUserAlreadyExists = errors.New("пользователь с таким именем или email уже существует")
)
