package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/maynagashev/receitas/internal/images"
	"github.com/maynagashev/receitas/internal/services"
	"github.com/maynagashev/receitas/internal/storage"
	"github.com/maynagashev/receitas/models"
)

const (
	// ImageFormField - имя поля multipart-формы с файлом.
	ImageFormField = "imagem"
	// Запас на заголовки multipart поверх максимального размера изображения.
	multipartOverhead = 1 << 20
	maxUploadBody     = images.MaxImageSize + multipartOverhead
)

// MediaService проверяет и сохраняет изображения.
type MediaService interface {
	ValidateImage(r io.ReadSeeker) bool
	SaveImage(ctx context.Context, upload models.ImageUpload) (string, error)
}

// ImageHandler обрабатывает загрузку изображений и раздачу локально сохраненных файлов.
type ImageHandler struct {
	media    MediaService
	resolver storage.Resolver // nil, если файлы раздает внешнее хранилище
}

// NewImageHandler создает новый экземпляр ImageHandler.
func NewImageHandler(media MediaService, resolver storage.Resolver) *ImageHandler {
	return &ImageHandler{media: media, resolver: resolver}
}

// Upload принимает файл из поля "imagem", проверяет его и возвращает URL строкой JSON.
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)

	file, header, err := r.FormFile(ImageFormField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			log.Printf("[ImageHandler] Превышен размер запроса: %d байт", maxErr.Limit)
			http.Error(w, "Недопустимое изображение", http.StatusBadRequest)
			return
		}
		log.Printf("[ImageHandler] Ошибка чтения файла из формы: %v", err)
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Printf("[ImageHandler] Ошибка закрытия файла: %v", closeErr)
		}
	}()

	if !h.media.ValidateImage(file) {
		log.Printf("[ImageHandler] Файл '%s' не прошел проверку", header.Filename)
		http.Error(w, "Недопустимое изображение", http.StatusBadRequest)
		return
	}

	url, err := h.media.SaveImage(r.Context(), models.ImageUpload{
		Reader:   file,
		Filename: header.Filename,
		Size:     header.Size,
	})
	if err != nil {
		log.Printf("[ImageHandler] Ошибка сохранения файла '%s': %v", header.Filename, err)
		http.Error(w, "Внутренняя ошибка сервера при сохранении файла", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, url)
}

// Serve отдает сохраненное на диске изображение.
func (h *ImageHandler) Serve(w http.ResponseWriter, r *http.Request) {
	if h.resolver == nil {
		http.NotFound(w, r)
		return
	}

	path, err := h.resolver.Resolve(services.ImageKeyPrefix + "/" + chi.URLParam(r, "name"))
	if err != nil {
		if !errors.Is(err, storage.ErrObjectNotFound) {
			log.Printf("[ImageHandler] Ошибка доступа к файлу: %v", err)
		}
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path)
}
