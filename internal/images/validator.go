// Package images проверяет загружаемые изображения по содержимому файла,
// не доверяя расширению и заявленному Content-Type.
package images

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/gabriel-vasile/mimetype"
)

const (
	// SniffLen - сколько байт с начала потока нужно для определения формата.
	SniffLen = 261
	// ChunkSize - размер блока при потоковом подсчете размера.
	ChunkSize = 4096
	// MaxImageSize - максимальный допустимый размер изображения (2 МиБ).
	MaxImageSize int64 = 2 * 1024 * 1024
)

// AllowedMimeTypes - форматы, которые принимаются для изображений рецептов.
var AllowedMimeTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
}

// Reason - причина отклонения изображения.
type Reason string

// Причины отклонения.
const (
	ReasonNone             Reason = ""
	ReasonEmpty            Reason = "empty"
	ReasonUnknownFormat    Reason = "unknown_format"
	ReasonFormatNotAllowed Reason = "format_not_allowed"
	ReasonTooLarge         Reason = "too_large"
	ReasonReadFailed       Reason = "read_failed"
)

// CheckResult - результат проверки изображения.
// Size заполняется только при успешной проверке.
type CheckResult struct {
	Valid  bool
	MIME   string
	Size   int64
	Reason Reason
}

// Validator проверяет формат и размер изображений.
type Validator struct {
	maxSize int64
}

// NewValidator создает валидатор с ограничением размера MaxImageSize.
func NewValidator() *Validator {
	return &Validator{maxSize: MaxImageSize}
}

// IsValid сообщает, является ли поток допустимым изображением.
func (v *Validator) IsValid(r io.ReadSeeker) bool {
	return v.Check(r).Valid
}

// Check определяет формат по первым байтам, затем перечитывает поток
// блоками и прекращает чтение, как только размер превысил лимит.
// Поток целиком в память не загружается.
func (v *Validator) Check(r io.ReadSeeker) CheckResult {
	mime, err := Sniff(r)
	if err != nil {
		if errors.Is(err, ErrEmptyStream) {
			return CheckResult{Reason: ReasonEmpty}
		}
		log.Printf("[ImageValidator] Ошибка чтения заголовка файла: %v", err)
		return CheckResult{Reason: ReasonReadFailed}
	}
	if mime == "" {
		return CheckResult{Reason: ReasonUnknownFormat}
	}
	if !AllowedMimeTypes[mime] {
		return CheckResult{MIME: mime, Reason: ReasonFormatNotAllowed}
	}

	var total int64
	buf := make([]byte, ChunkSize)
	for {
		n, readErr := r.Read(buf)
		total += int64(n)
		if total > v.maxSize {
			return CheckResult{MIME: mime, Reason: ReasonTooLarge}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			log.Printf("[ImageValidator] Ошибка чтения файла: %v", readErr)
			return CheckResult{MIME: mime, Reason: ReasonReadFailed}
		}
	}

	return CheckResult{Valid: true, MIME: mime, Size: total}
}

// Sniff определяет MIME-тип по первым SniffLen байтам и возвращает поток
// в начало. Пустая строка означает, что формат не распознан.
func Sniff(r io.ReadSeeker) (string, error) {
	header := make([]byte, SniffLen)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		if errors.Is(err, io.EOF) {
			return "", ErrEmptyStream
		}
		return "", fmt.Errorf("ошибка чтения заголовка: %w", err)
	}
	if _, err = r.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("ошибка перемотки потока: %w", err)
	}

	detected := mimetype.Detect(header[:n])
	// Нераспознанное содержимое mimetype возвращает как octet-stream
	if detected.Is("application/octet-stream") {
		return "", nil
	}
	return detected.String(), nil
}

// ErrEmptyStream - в потоке нет ни одного байта.
var ErrEmptyStream = errors.New("пустой файл")
