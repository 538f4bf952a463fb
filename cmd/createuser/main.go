// Команда createuser создает пользователя напрямую в базе данных.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	_ "github.com/lib/pq" // Драйвер PostgreSQL
	"github.com/maynagashev/receitas/internal/config"
	"github.com/maynagashev/receitas/internal/repository"
	"github.com/maynagashev/receitas/internal/security"
	"github.com/maynagashev/receitas/internal/services"
	"github.com/maynagashev/receitas/models"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

// registrar регистрирует пользователя.
type registrar interface {
	Register(ctx context.Context, req models.CreateUserRequest) (*models.User, error)
}

// Точки подмены для тестов.
var (
	readPassword = func() ([]byte, error) {
		return term.ReadPassword(int(os.Stdin.Fd()))
	}
	newRegistrar = buildRegistrar
)

func main() {
	if err := newApp(os.Stdin, os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(in io.Reader, out io.Writer) *cli.App {
	return &cli.App{
		Name:      "createuser",
		Usage:     "создает пользователя сервиса рецептов",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "имя пользователя"},
			&cli.StringFlag{Name: "username", Usage: "логин (строчные буквы, не короче 4 символов)"},
			&cli.StringFlag{Name: "email", Usage: "адрес электронной почты"},
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "путь к файлу .env"},
		},
		Action: func(c *cli.Context) error {
			return createUser(c, bufio.NewReader(in), out)
		},
	}
}

func createUser(c *cli.Context, in *bufio.Reader, out io.Writer) error {
	req := models.CreateUserRequest{}
	var err error

	if req.Name, err = valueOrPrompt(c.String("name"), "Имя: ", in, out); err != nil {
		return err
	}
	if req.Username, err = valueOrPrompt(c.String("username"), "Логин: ", in, out); err != nil {
		return err
	}
	if req.Email, err = valueOrPrompt(c.String("email"), "Email: ", in, out); err != nil {
		return err
	}

	fmt.Fprint(out, "Пароль: ")
	password, err := readPassword()
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("ошибка чтения пароля: %w", err)
	}
	req.Password = string(password)

	cfg, err := config.Load(c.App.Name, []string{"-env-file", c.String("env-file")})
	if err != nil {
		return err
	}
	reg, closeFn, err := newRegistrar(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	user, err := reg.Register(c.Context, req)
	switch {
	case errors.Is(err, services.ErrUserAlreadyExists), errors.Is(err, services.ErrValidation):
		return err
	case err != nil:
		return fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	fmt.Fprintf(out, "Пользователь создан! ID: %d\n", user.ID)
	return nil
}

func valueOrPrompt(value, prompt string, in *bufio.Reader, out io.Writer) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprint(out, prompt)
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("ошибка чтения ввода: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// buildRegistrar подключается к БД и собирает сервис регистрации.
func buildRegistrar(cfg *config.Config) (registrar, func(), error) {
	db, err := repository.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() { _ = db.Close() }

	if err = repository.RunMigrations(db); err != nil {
		closeFn()
		return nil, nil, err
	}
	hasher, err := security.NewPasswordHasher(cfg.PBKDF2Salt, cfg.PBKDF2Rounds)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	tokens, err := security.NewTokenCodec(security.TokenConfig{
		Secret:    cfg.JWTSecret,
		Algorithm: cfg.JWTAlgorithm,
		TTL:       cfg.JWTTTL(),
		Issuer:    cfg.JWTIssuer,
		Audience:  cfg.JWTAudience,
	})
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	userRepo := repository.NewPostgresUserRepository(db)
	return services.NewAuthService(userRepo, hasher, tokens), closeFn, nil
}
