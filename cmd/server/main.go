package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // Драйвер PostgreSQL
	"github.com/maynagashev/receitas/internal/config"
	"github.com/maynagashev/receitas/internal/handlers"
	"github.com/maynagashev/receitas/internal/images"
	appmiddleware "github.com/maynagashev/receitas/internal/middleware"
	"github.com/maynagashev/receitas/internal/repository"
	"github.com/maynagashev/receitas/internal/security"
	"github.com/maynagashev/receitas/internal/services"
	"github.com/maynagashev/receitas/internal/storage"
)

const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 60 * time.Second // Загрузка изображений в S3 может быть долгой
	defaultIdleTimeout     = 30 * time.Second
	defaultShutdownTimeout = 15 * time.Second
)

// Точки подмены для тестов.
var (
	newPostgresDB = repository.NewPostgresDB
	runMigrations = repository.RunMigrations
)

// Структура для хранения инициализированных зависимостей.
type dependencies struct {
	db             *sqlx.DB
	imageStorage   storage.ImageStorage
	authService    services.AuthService
	authHandler    *handlers.AuthHandler
	recipeHandler  *handlers.RecipeHandler
	imageHandler   *handlers.ImageHandler
	healthHandler  *handlers.HealthHandler
	serveLocalFile bool // Изображения раздает сам сервис
}

// main - точка входа. Вызывает run и обрабатывает ошибку.
func main() {
	if err := run(); err != nil {
		log.Printf("Ошибка выполнения сервера: %v", err)
		os.Exit(1)
	}
}

// run содержит основную логику запуска сервера и возвращает ошибку.
func run() error {
	log.Println("Запуск сервера receitas...")

	cfg, err := config.Load(os.Args[0], os.Args[1:])
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := setupDependencies(ctx, cfg)
	if err != nil {
		return fmt.Errorf("ошибка инициализации зависимостей: %w", err)
	}
	// Отложенное закрытие соединения с БД
	defer func() {
		if closeErr := deps.db.Close(); closeErr != nil {
			log.Printf("Ошибка закрытия соединения с БД: %v", closeErr)
		}
	}()

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      setupRouter(deps, cfg.CORSAllowedOrigins),
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		if cfg.TLSEnabled() {
			log.Printf("Запуск HTTPS-сервера на порту %s...", cfg.ServerPort)
			log.Printf("Используется сертификат: %s", cfg.CertFile)
			serveErr <- server.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
			return
		}
		log.Printf("Запуск HTTP-сервера на порту %s...", cfg.ServerPort)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err = <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ошибка запуска сервера: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Println("Получен сигнал завершения, останавливаем сервер...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err = server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ошибка остановки сервера: %w", err)
	}
	log.Println("Сервер остановлен.")
	return nil
}

// setupDependencies инициализирует и возвращает все необходимые зависимости сервера.
func setupDependencies(ctx context.Context, cfg *config.Config) (*dependencies, error) {
	deps := &dependencies{}
	var err error

	// 1. Подключение к БД и миграции
	deps.db, err = newPostgresDB(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации БД: %w", err)
	}
	log.Println("Соединение с БД успешно установлено.")

	fail := func(err error) (*dependencies, error) {
		if dbCloseErr := deps.db.Close(); dbCloseErr != nil {
			log.Printf("Ошибка закрытия соединения с БД: %v", dbCloseErr)
		}
		return nil, err
	}

	if err = runMigrations(deps.db); err != nil {
		return fail(fmt.Errorf("ошибка применения миграций: %w", err))
	}

	// 2. Хранилище изображений, один клиент на весь процесс
	deps.imageStorage, err = storage.New(ctx, cfg)
	if err != nil {
		return fail(fmt.Errorf("ошибка инициализации хранилища: %w", err))
	}
	resolver, isLocal := deps.imageStorage.(storage.Resolver)
	deps.serveLocalFile = isLocal

	// 3. Безопасность
	hasher, err := security.NewPasswordHasher(cfg.PBKDF2Salt, cfg.PBKDF2Rounds)
	if err != nil {
		return fail(err)
	}
	tokens, err := security.NewTokenCodec(security.TokenConfig{
		Secret:    cfg.JWTSecret,
		Algorithm: cfg.JWTAlgorithm,
		TTL:       cfg.JWTTTL(),
		Issuer:    cfg.JWTIssuer,
		Audience:  cfg.JWTAudience,
	})
	if err != nil {
		return fail(err)
	}

	// 4. Репозитории
	userRepo := repository.NewPostgresUserRepository(deps.db)
	recipeRepo := repository.NewPostgresRecipeRepository(deps.db)

	// 5. Сервисы
	deps.authService = services.NewAuthService(userRepo, hasher, tokens)
	recipeService := services.NewRecipeService(recipeRepo)
	mediaService := services.NewMediaService(images.NewValidator(), deps.imageStorage, cfg.StorageTimeout)

	// 6. Обработчики
	deps.authHandler = handlers.NewAuthHandler(deps.authService)
	deps.recipeHandler = handlers.NewRecipeHandler(recipeService)
	deps.imageHandler = handlers.NewImageHandler(mediaService, resolver)
	deps.healthHandler = handlers.NewHealthHandler(deps.db)

	return deps, nil
}

// setupRouter настраивает и возвращает роутер chi.
func setupRouter(deps *dependencies, corsOrigins []string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appmiddleware.CORS(corsOrigins))

	// --- Маршруты --- //
	r.Get("/health", deps.healthHandler.Check)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", deps.authHandler.Register)
		r.Post("/sign-in", deps.authHandler.SignIn)
		r.With(appmiddleware.Authenticator(deps.authService)).Get("/me", deps.authHandler.Me)
	})

	r.Route("/receitas", func(r chi.Router) {
		// Публичные маршруты
		r.Get("/", deps.recipeHandler.List)
		r.Get("/{id}", deps.recipeHandler.Get)

		// Приватные маршруты (требуют аутентификации)
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Authenticator(deps.authService))
			r.Post("/", deps.recipeHandler.Create)
			r.Post("/imagem", deps.imageHandler.Upload)
			r.Put("/{id}", deps.recipeHandler.Update)
			r.Delete("/{id}", deps.recipeHandler.Delete)
		})
	})

	if deps.serveLocalFile {
		r.Get("/"+services.ImageKeyPrefix+"/{name}", deps.imageHandler.Serve)
	}
	return r
}
