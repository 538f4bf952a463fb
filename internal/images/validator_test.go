package images_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/maynagashev/receitas/internal/images"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngMagic  = []byte("\x89PNG\r\n\x1a\n")
	jpegMagic = []byte{0xFF, 0xD8, 0xFF, 0xE0}
	gifMagic  = []byte("GIF89a")
)

// Создает содержимое файла заданного размера с указанной сигнатурой.
func makeImage(magic []byte, size int64) []byte {
	data := make([]byte, size)
	copy(data, magic)
	return data
}

// guardedReader завершает тест с ошибкой, если валидатор читает дальше limit.
type guardedReader struct {
	t     *testing.T
	r     *bytes.Reader
	limit int64
}

func (g *guardedReader) Read(p []byte) (int, error) {
	pos, _ := g.r.Seek(0, io.SeekCurrent)
	if pos >= g.limit {
		g.t.Errorf("чтение за пределами отметки %d (позиция %d)", g.limit, pos)
		return 0, errors.New("read past marked offset")
	}
	return g.r.Read(p)
}

func (g *guardedReader) Seek(offset int64, whence int) (int64, error) {
	return g.r.Seek(offset, whence)
}

// failingReader отдает заголовок, а затем возвращает ошибку.
type failingReader struct {
	r *bytes.Reader
}

func (f *failingReader) Read(p []byte) (int, error) {
	pos, _ := f.r.Seek(0, io.SeekCurrent)
	if pos >= int64(images.SniffLen) {
		return 0, errors.New("disk error")
	}
	return f.r.Read(p)
}

func (f *failingReader) Seek(offset int64, whence int) (int64, error) {
	return f.r.Seek(offset, whence)
}

func TestValidator_Check(t *testing.T) {
	tests := []struct {
		name       string
		data       []byte
		wantValid  bool
		wantMIME   string
		mimePrefix bool // сравнивать только начало MIME (для text/* с charset)
		wantReason images.Reason
	}{
		{
			name:      "PNG размером 2 МиБ - 1 байт",
			data:      makeImage(pngMagic, images.MaxImageSize-1),
			wantValid: true,
			wantMIME:  "image/png",
		},
		{
			name:      "JPEG ровно 2 МиБ",
			data:      makeImage(jpegMagic, images.MaxImageSize),
			wantValid: true,
			wantMIME:  "image/jpeg",
		},
		{
			name:      "Маленький PNG короче заголовка",
			data:      makeImage(pngMagic, 16),
			wantValid: true,
			wantMIME:  "image/png",
		},
		{
			name:       "PNG размером 2 МиБ + 1 байт",
			data:       makeImage(pngMagic, images.MaxImageSize+1),
			wantMIME:   "image/png",
			wantReason: images.ReasonTooLarge,
		},
		{
			name:       "GIF не разрешен",
			data:       makeImage(gifMagic, 1024),
			wantMIME:   "image/gif",
			wantReason: images.ReasonFormatNotAllowed,
		},
		{
			name:       "Текстовый файл",
			data:       []byte("isto não é uma imagem, apenas texto"),
			wantMIME:   "text/plain",
			mimePrefix: true,
			wantReason: images.ReasonFormatNotAllowed,
		},
		{
			name:       "Нераспознанные двоичные данные",
			data:       []byte{0x00, 0x01, 0x02, 0x03, 0x04},
			wantReason: images.ReasonUnknownFormat,
		},
		{
			name:       "Пустой файл",
			data:       []byte{},
			wantReason: images.ReasonEmpty,
		},
	}

	v := images.NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Check(bytes.NewReader(tt.data))

			assert.Equal(t, tt.wantValid, res.Valid)
			if tt.mimePrefix {
				assert.Contains(t, res.MIME, tt.wantMIME)
			} else {
				assert.Equal(t, tt.wantMIME, res.MIME)
			}
			assert.Equal(t, tt.wantReason, res.Reason)
			if tt.wantValid {
				assert.Equal(t, int64(len(tt.data)), res.Size)
			}
			assert.Equal(t, tt.wantValid, v.IsValid(bytes.NewReader(tt.data)))
		})
	}
}

func TestValidator_StopsReadingAfterLimit(t *testing.T) {
	data := makeImage(pngMagic, 3*images.MaxImageSize)
	r := &guardedReader{
		t:     t,
		r:     bytes.NewReader(data),
		limit: images.MaxImageSize + images.ChunkSize,
	}

	assert.False(t, images.NewValidator().IsValid(r))
}

func TestValidator_GIFWithJPEGName(t *testing.T) {
	// Имя файла не участвует в проверке: валидатор видит только байты
	upload := struct {
		name string
		data []byte
	}{name: "foto.jpg", data: makeImage(gifMagic, 2048)}

	assert.False(t, images.NewValidator().IsValid(bytes.NewReader(upload.data)))
}

func TestValidator_ReadError(t *testing.T) {
	r := &failingReader{r: bytes.NewReader(makeImage(pngMagic, 10_000))}

	res := images.NewValidator().Check(r)
	assert.False(t, res.Valid)
	assert.Equal(t, images.ReasonReadFailed, res.Reason)
}

func TestSniff_Rewinds(t *testing.T) {
	data := makeImage(jpegMagic, 1000)
	r := bytes.NewReader(data)

	mime, err := images.Sniff(r)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)

	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, data, rest)
}

func TestSniff_Empty(t *testing.T) {
	_, err := images.Sniff(bytes.NewReader(nil))
	require.ErrorIs(t, err, images.ErrEmptyStream)
}
