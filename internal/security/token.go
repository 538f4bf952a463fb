package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims - полезная нагрузка токена доступа.
type Claims struct {
	UserID int64  `json:"id"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// TokenConfig - параметры выпуска и проверки токенов.
type TokenConfig struct {
	Secret    string
	Algorithm string // Симметричный алгоритм: HS256, HS384 или HS512
	TTL       time.Duration
	Issuer    string
	Audience  string
}

// TokenCodec выпускает и проверяет подписанные токены с ограниченным сроком жизни.
// Состояние не хранится: отозвать выданный токен можно только сменой секрета.
type TokenCodec struct {
	secret   []byte
	method   jwt.SigningMethod
	ttl      time.Duration
	issuer   string
	audience string
	now      func() time.Time
}

// TokenOption настраивает TokenCodec.
type TokenOption func(*TokenCodec)

// WithClock подменяет источник текущего времени (используется в тестах).
func WithClock(now func() time.Time) TokenOption {
	return func(c *TokenCodec) {
		c.now = now
	}
}

// NewTokenCodec проверяет конфигурацию и создает кодек токенов.
func NewTokenCodec(cfg TokenConfig, opts ...TokenOption) (*TokenCodec, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("%w: пустой секрет", ErrInvalidTokenConfig)
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("%w: время жизни токена должно быть положительным", ErrInvalidTokenConfig)
	}
	method, ok := jwt.GetSigningMethod(cfg.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%w: неподдерживаемый алгоритм %q", ErrInvalidTokenConfig, cfg.Algorithm)
	}

	c := &TokenCodec{
		secret:   []byte(cfg.Secret),
		method:   method,
		ttl:      cfg.TTL,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue создает и подписывает токен для пользователя.
func (c *TokenCodec) Issue(userID int64, name string) (string, error) {
	now := c.now()
	claims := Claims{
		UserID: userID,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
		},
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи JWT: %w", err)
	}
	return signed, nil
}

// Validate проверяет подпись, издателя, аудиторию и срок действия токена.
// ErrTokenExpired возвращается только для токена, который во всем остальном валиден.
func (c *TokenCodec) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(_ *jwt.Token) (interface{}, error) {
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if onlyExpired(err) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims, nil
}

// onlyExpired сообщает, что единственная причина отказа - истекший срок действия.
func onlyExpired(err error) bool {
	if !errors.Is(err, jwt.ErrTokenExpired) {
		return false
	}
	for _, other := range []error{
		jwt.ErrTokenMalformed,
		jwt.ErrTokenUnverifiable,
		jwt.ErrTokenSignatureInvalid,
		jwt.ErrTokenInvalidIssuer,
		jwt.ErrTokenInvalidAudience,
		jwt.ErrTokenNotValidYet,
		jwt.ErrTokenUsedBeforeIssued,
		jwt.ErrTokenRequiredClaimMissing,
	} {
		if errors.Is(err, other) {
			return false
		}
	}
	return true
}

// Ошибки токенов.
var (
	ErrInvalidToken       = errors.New("невалидный токен")
	ErrTokenExpired       = errors.New("срок действия токена истек")
	ErrInvalidTokenConfig = errors.New("некорректная конфигурация токенов")
)
