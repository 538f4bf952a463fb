// Package security содержит хеширование паролей и выпуск/проверку токенов доступа.
package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// Длина ключа PBKDF2 равна размеру дайджеста SHA-256 (64 hex-символа).
const pbkdf2KeyLen = sha256.Size

// PasswordHasher хеширует пароли PBKDF2-HMAC-SHA256 с общей солью.
// Результат детерминирован: одинаковый пароль дает одинаковый хеш.
type PasswordHasher struct {
	salt   []byte
	rounds int
}

// NewPasswordHasher создает хешер. Пустая соль или неположительное
// число итераций считаются ошибкой конфигурации.
func NewPasswordHasher(salt string, rounds int) (*PasswordHasher, error) {
	if salt == "" {
		return nil, fmt.Errorf("%w: пустая соль", ErrInvalidHasherConfig)
	}
	if rounds <= 0 {
		return nil, fmt.Errorf("%w: число итераций должно быть положительным, получено %d",
			ErrInvalidHasherConfig, rounds)
	}
	return &PasswordHasher{salt: []byte(salt), rounds: rounds}, nil
}

// Hash возвращает производный ключ пароля в нижнем регистре hex.
func (h *PasswordHasher) Hash(password string) string {
	key := pbkdf2.Key([]byte(password), h.salt, h.rounds, pbkdf2KeyLen, sha256.New)
	return hex.EncodeToString(key)
}

// Verify пересчитывает хеш пароля и сравнивает его с сохраненным
// за постоянное время.
func (h *PasswordHasher) Verify(plaintext, storedHash string) bool {
	computed := h.Hash(plaintext)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}

// ErrInvalidHasherConfig - некорректные параметры хеширования.
var ErrInvalidHasherConfig = errors.New("некорректная конфигурация хеширования паролей")
