package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/maynagashev/receitas/internal/images"
	"github.com/maynagashev/receitas/internal/storage"
	"github.com/maynagashev/receitas/models"
)

// ImageKeyPrefix - логический каталог изображений рецептов.
const ImageKeyPrefix = "imagens-receitas"

// MediaService превращает загруженный файл в сохраненное изображение с URL.
type MediaService interface {
	ValidateImage(r io.ReadSeeker) bool
	SaveImage(ctx context.Context, upload models.ImageUpload) (string, error)
}

// ImageValidator проверяет содержимое загружаемых изображений.
type ImageValidator interface {
	IsValid(r io.ReadSeeker) bool
}

var _ MediaService = (*mediaService)(nil)

type mediaService struct {
	validator ImageValidator
	store     storage.ImageStorage
	timeout   time.Duration
}

// NewMediaService создает сервис изображений. timeout ограничивает время записи в хранилище.
func NewMediaService(validator ImageValidator, store storage.ImageStorage, timeout time.Duration) MediaService {
	return &mediaService{validator: validator, store: store, timeout: timeout}
}

// ValidateImage проверяет формат и размер изображения по содержимому.
func (s *mediaService) ValidateImage(r io.ReadSeeker) bool {
	return s.validator.IsValid(r)
}

// SaveImage сохраняет файл под новым ключом и возвращает URL от хранилища без изменений.
// Содержимое здесь повторно не проверяется, это делает вызывающая сторона.
func (s *mediaService) SaveImage(ctx context.Context, upload models.ImageUpload) (string, error) {
	key := NewImageKey(upload.Filename)

	// После проверки поток обычно стоит в конце
	if _, err := upload.Reader.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("%w: ошибка перемотки файла: %w", storage.ErrStorage, err)
	}
	contentType, err := images.Sniff(upload.Reader)
	if err != nil && !errors.Is(err, images.ErrEmptyStream) {
		return "", fmt.Errorf("%w: ошибка чтения файла: %w", storage.ErrStorage, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	url, err := s.store.Store(ctx, key, upload.Reader, upload.Size, contentType)
	if err != nil {
		log.Printf("[MediaService] Ошибка сохранения изображения '%s': %v", key, err)
		return "", fmt.Errorf("%w: ошибка сохранения изображения: %w", storage.ErrStorage, err)
	}

	log.Printf("[MediaService] Изображение '%s' сохранено: %s", upload.Filename, url)
	return url, nil
}

// NewImageKey возвращает ключ вида imagens-receitas/<uuid>.<ext>.
// Расширение берется из заявленного имени файла после последней точки.
func NewImageKey(declaredFilename string) string {
	name := uuid.NewString()
	if i := strings.LastIndex(declaredFilename, "."); i >= 0 {
		name += "." + declaredFilename[i+1:]
	}
	// Расширение не нормализуется: префикс сохраняется при любом имени файла
	return ImageKeyPrefix + "/" + name
}
