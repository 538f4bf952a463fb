// Package config загружает конфигурацию сервиса один раз при старте.
// Источники в порядке приоритета: флаги командной строки, переменные окружения,
// файл .env, значения по умолчанию.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
)

// Поддерживаемые бэкенды хранения изображений.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

const (
	defaultEnvFile          = ".env"
	defaultServerPort       = "8080"
	defaultAPIURL           = "http://localhost:8080"
	defaultStoragePath      = "./storage"
	defaultStorageTimeout   = 30 * time.Second
	defaultPBKDF2Rounds     = 50000
	defaultJWTExpireSeconds = 3600
	defaultJWTIssuer        = "receitas-api"
	defaultJWTAudience      = "receitas-app"
	defaultJWTAlgorithm     = "HS256"
	defaultCORSOrigins      = "*"

	// Переменные окружения.
	envServerPort       = "SERVER_PORT"
	envTLSCertFile      = "TLS_CERT_FILE"
	envTLSKeyFile       = "TLS_KEY_FILE"
	envDatabaseURL      = "DATABASE_URL"
	envAPIURL           = "API_URL"
	envStorageBackend   = "STORAGE_BACKEND"
	envStoragePath      = "STORAGE_PATH"
	envStorageTimeout   = "STORAGE_TIMEOUT"
	envS3AccessKey      = "S3_ACCESS_KEY"
	envS3SecretKey      = "S3_SECRET_KEY" //nolint:gosec // Это имя переменной окружения
	envS3Bucket         = "S3_BUCKET"
	envS3Region         = "S3_REGION"
	envS3Endpoint       = "S3_ENDPOINT"
	envS3CDNURL         = "S3_CDN_URL"
	envS3Public         = "S3_PUBLIC"
	envPBKDF2Salt       = "PBKDF2_SALT"
	envPBKDF2Rounds     = "PBKDF2_ROUNDS"
	envJWTSecret        = "JWT_SECRET" //nolint:gosec // Это имя переменной окружения
	envJWTExpireSeconds = "JWT_EXPIRE_SECONDS"
	envJWTIssuer        = "JWT_ISSUER"
	envJWTAudience      = "JWT_AUDIENCE"
	envJWTAlgorithm     = "JWT_ALGORITHM"
	envCORSOrigins      = "CORS_ALLOWED_ORIGINS"
)

// S3Config - параметры S3-совместимого объектного хранилища.
type S3Config struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Endpoint  string // URL ("https://s3.example.com") или host:port
	CDNURL    string // Базовый URL, по которому объекты доступны клиентам
	Public    bool   // public-read или private ACL для загружаемых объектов
}

// Config хранит всю конфигурацию сервиса. После Load только читается.
type Config struct {
	ServerPort string
	CertFile   string
	KeyFile    string

	DatabaseURL string
	APIURL      string

	StorageBackend string
	StoragePath    string
	StorageTimeout time.Duration
	S3             S3Config

	PBKDF2Salt   string
	PBKDF2Rounds int

	JWTSecret        string
	JWTExpireSeconds int
	JWTIssuer        string
	JWTAudience      string
	JWTAlgorithm     string

	CORSAllowedOrigins []string
}

// JWTTTL возвращает время жизни токена.
func (c *Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTExpireSeconds) * time.Second
}

// TLSEnabled сообщает, заданы ли оба файла для HTTPS.
func (c *Config) TLSEnabled() bool {
	return c.CertFile != "" && c.KeyFile != ""
}

// Load разбирает флаги и переменные окружения, возвращает проверенный Config.
// args - аргументы командной строки без имени программы.
func Load(name string, args []string) (*Config, error) {
	cfg := &Config{}
	var envFile string

	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.StringVar(&envFile, "env-file", defaultEnvFile, "Путь к файлу .env")
	flags.StringVar(&cfg.ServerPort, "port", "",
		fmt.Sprintf("Порт HTTP-сервера (env: %s, default: %s)", envServerPort, defaultServerPort))
	flags.StringVar(&cfg.CertFile, "cert-file", "",
		fmt.Sprintf("Путь к файлу TLS-сертификата (env: %s)", envTLSCertFile))
	flags.StringVar(&cfg.KeyFile, "key-file", "",
		fmt.Sprintf("Путь к файлу TLS-ключа (env: %s)", envTLSKeyFile))
	flags.StringVar(&cfg.DatabaseURL, "database-url", "",
		fmt.Sprintf("Строка подключения к базе данных (env: %s)", envDatabaseURL))

	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: ошибка разбора флагов: %w", ErrInvalidConfig, err)
	}

	// Файл .env не перезаписывает уже заданные переменные окружения
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: ошибка чтения %s: %w", ErrInvalidConfig, envFile, err)
		}
		log.Printf("[Config] Файл %s не найден, используются только переменные окружения", envFile)
	}

	var errs []error
	cfg.ServerPort = firstNonEmpty(cfg.ServerPort, getEnv(envServerPort, defaultServerPort))
	cfg.CertFile = firstNonEmpty(cfg.CertFile, getEnv(envTLSCertFile, ""))
	cfg.KeyFile = firstNonEmpty(cfg.KeyFile, getEnv(envTLSKeyFile, ""))
	cfg.DatabaseURL = firstNonEmpty(cfg.DatabaseURL, getEnv(envDatabaseURL, ""))
	cfg.APIURL = strings.TrimRight(getEnv(envAPIURL, defaultAPIURL), "/")

	cfg.StorageBackend = strings.ToLower(getEnv(envStorageBackend, StorageLocal))
	cfg.StoragePath = getEnv(envStoragePath, defaultStoragePath)
	cfg.StorageTimeout = getDuration(envStorageTimeout, defaultStorageTimeout, &errs)
	cfg.S3 = S3Config{
		AccessKey: getEnv(envS3AccessKey, ""),
		SecretKey: getEnv(envS3SecretKey, ""),
		Bucket:    getEnv(envS3Bucket, ""),
		Region:    getEnv(envS3Region, ""),
		Endpoint:  getEnv(envS3Endpoint, ""),
		CDNURL:    strings.TrimRight(getEnv(envS3CDNURL, ""), "/"),
		Public:    getBool(envS3Public, true, &errs),
	}

	cfg.PBKDF2Salt = getEnv(envPBKDF2Salt, "")
	cfg.PBKDF2Rounds = getInt(envPBKDF2Rounds, defaultPBKDF2Rounds, &errs)

	cfg.JWTSecret = getEnv(envJWTSecret, "")
	cfg.JWTExpireSeconds = getInt(envJWTExpireSeconds, defaultJWTExpireSeconds, &errs)
	cfg.JWTIssuer = getEnv(envJWTIssuer, defaultJWTIssuer)
	cfg.JWTAudience = getEnv(envJWTAudience, defaultJWTAudience)
	cfg.JWTAlgorithm = getEnv(envJWTAlgorithm, defaultJWTAlgorithm)

	cfg.CORSAllowedOrigins = splitList(getEnv(envCORSOrigins, defaultCORSOrigins))

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет обязательные параметры и их согласованность.
func (c *Config) Validate() error {
	var problems []string

	if c.DatabaseURL == "" {
		problems = append(problems, "не указана строка подключения к БД (--database-url или "+envDatabaseURL+")")
	}
	if c.JWTSecret == "" {
		problems = append(problems, "не указан секрет для подписи токенов ("+envJWTSecret+")")
	}
	if c.PBKDF2Salt == "" {
		problems = append(problems, "не указана соль для хеширования паролей ("+envPBKDF2Salt+")")
	}
	if c.PBKDF2Rounds <= 0 {
		problems = append(problems, envPBKDF2Rounds+" должно быть положительным")
	}
	if c.JWTExpireSeconds <= 0 {
		problems = append(problems, envJWTExpireSeconds+" должно быть положительным")
	}
	if _, ok := jwt.GetSigningMethod(c.JWTAlgorithm).(*jwt.SigningMethodHMAC); !ok {
		problems = append(problems, "неподдерживаемый алгоритм подписи: "+c.JWTAlgorithm)
	}
	if c.StorageTimeout <= 0 {
		problems = append(problems, envStorageTimeout+" должно быть положительным")
	}
	if (c.CertFile == "") != (c.KeyFile == "") {
		problems = append(problems, "для HTTPS нужны оба файла: "+envTLSCertFile+" и "+envTLSKeyFile)
	}

	switch c.StorageBackend {
	case StorageLocal:
		if c.StoragePath == "" {
			problems = append(problems, "не указан каталог хранения ("+envStoragePath+")")
		}
	case StorageS3:
		if c.S3.Bucket == "" || c.S3.Endpoint == "" || c.S3.CDNURL == "" {
			problems = append(problems, "для S3 обязательны "+envS3Bucket+", "+envS3Endpoint+" и "+envS3CDNURL)
		}
	default:
		problems = append(problems, "неизвестный бэкенд хранения: "+c.StorageBackend)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getInt(key string, fallback int, errs *[]error) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: ожидается целое число, получено %q", key, value))
		return fallback
	}
	return n
}

func getBool(key string, fallback bool, errs *[]error) bool {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: ожидается true/false, получено %q", key, value))
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: ожидается длительность (например, 30s), получено %q", key, value))
		return fallback
	}
	return d
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ErrInvalidConfig - ошибка конфигурации. Сервис с такой ошибкой не запускается.
var ErrInvalidConfig = errors.New("некорректная конфигурация")
