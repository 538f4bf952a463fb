package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// LocalStorage хранит файлы в каталоге на диске. Файлы отдает сам сервис.
type LocalStorage struct {
	root   string
	apiURL string
}

// NewLocalStorage создает хранилище в каталоге root, создавая его при необходимости.
func NewLocalStorage(root, apiURL string) (*LocalStorage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: некорректный каталог хранения %q: %w", ErrStorage, root, err)
	}
	if err = os.MkdirAll(abs, dirPerm); err != nil {
		return nil, fmt.Errorf("%w: не удалось создать каталог %q: %w", ErrStorage, abs, err)
	}
	log.Printf("[LocalStorage] Файлы сохраняются в %s", abs)
	return &LocalStorage{root: abs, apiURL: apiURL}, nil
}

// Store записывает файл в root/objectKey и возвращает URL вида apiURL/objectKey.
// Родительские каталоги создаются автоматически.
func (s *LocalStorage) Store(
	ctx context.Context,
	objectKey string,
	reader io.Reader,
	_ int64,
	_ string,
) (string, error) {
	key, err := cleanKey(objectKey)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if err = ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrStorage, err)
	}

	dst := filepath.Join(s.root, filepath.FromSlash(key))
	if err = os.MkdirAll(filepath.Dir(dst), dirPerm); err != nil {
		return "", fmt.Errorf("%w: не удалось создать каталог для '%s': %w", ErrStorage, key, err)
	}

	f, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return "", fmt.Errorf("%w: не удалось создать файл '%s': %w", ErrStorage, key, err)
	}

	written, err := io.Copy(f, reader)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dst)
		log.Printf("[LocalStorage] Ошибка записи файла '%s': %v", key, err)
		return "", fmt.Errorf("%w: ошибка записи файла '%s': %w", ErrStorage, key, err)
	}

	log.Printf("[LocalStorage] Файл '%s' сохранен, размер: %d", key, written)
	return joinURL(s.apiURL, key), nil
}

// Resolve возвращает путь к сохраненному файлу.
// Если файла нет, это не обычный файл или его нельзя прочитать, возвращается ErrObjectNotFound.
func (s *LocalStorage) Resolve(objectKey string) (string, error) {
	key, err := cleanKey(objectKey)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrObjectNotFound, err)
	}

	p := filepath.Join(s.root, filepath.FromSlash(key))
	info, err := os.Stat(p)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrObjectNotFound, err)
	}
	if !info.Mode().IsRegular() {
		return "", ErrObjectNotFound
	}

	// Файл должен быть доступен для чтения
	f, err := os.Open(p)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrObjectNotFound, err)
	}
	_ = f.Close()
	return p, nil
}
