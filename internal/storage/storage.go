// Package storage сохраняет проверенные файлы изображений под логическим ключом
// и возвращает URL для их получения. Бэкенд выбирается при запуске.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/maynagashev/receitas/internal/config"
)

const defaultContentType = "application/octet-stream"

// ImageStorage определяет интерфейс для сохранения файлов.
// Обе реализации взаимозаменяемы.
type ImageStorage interface {
	// Store сохраняет содержимое reader под ключом objectKey и возвращает URL.
	// size может быть -1, если размер неизвестен.
	Store(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (string, error)
}

// Resolver реализуют бэкенды, которые сами отдают сохраненные файлы.
type Resolver interface {
	Resolve(objectKey string) (string, error)
}

// New создает бэкенд, указанный в конфигурации.
func New(ctx context.Context, cfg *config.Config) (ImageStorage, error) {
	switch cfg.StorageBackend {
	case config.StorageLocal:
		local, err := NewLocalStorage(cfg.StoragePath, cfg.APIURL)
		if err != nil {
			return nil, err
		}
		return local, nil
	case config.StorageS3:
		s3, err := NewMinioClient(ctx, MinioConfig{
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKey,
			SecretAccessKey: cfg.S3.SecretKey,
			BucketName:      cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			CDNURL:          cfg.S3.CDNURL,
			Public:          cfg.S3.Public,
		})
		if err != nil {
			return nil, err
		}
		return s3, nil
	default:
		return nil, fmt.Errorf("неизвестный бэкенд хранения: %q", cfg.StorageBackend)
	}
}

// cleanKey нормализует ключ и отклоняет абсолютные пути и выход за корень.
func cleanKey(objectKey string) (string, error) {
	if objectKey == "" || strings.HasPrefix(objectKey, "/") || strings.Contains(objectKey, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, objectKey)
	}
	cleaned := path.Clean(objectKey)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, objectKey)
	}
	return cleaned, nil
}

// joinURL склеивает базовый URL и ключ объекта.
func joinURL(base, objectKey string) string {
	return strings.TrimRight(base, "/") + "/" + objectKey
}

// Ошибки хранилища.
var (
	// ErrStorage оборачивает любые сбои ввода-вывода бэкенда.
	ErrStorage        = errors.New("ошибка хранилища")
	ErrObjectNotFound = errors.New("объект не найден в хранилище")
	ErrInvalidKey     = errors.New("недопустимый ключ объекта")
)
