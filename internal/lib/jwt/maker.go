// Package jwt реализует выпуск и разбор JWT токенов сервиса.
//
// Токен доступа содержит uid, email и роль пользователя. Отдельный токен
// подтверждения email несёт только uid и назначение email_verification.
package jwt

import (
	"time"
)

// Maker описывает выпуск и разбор токенов.
type Maker interface {
	// GenerateToken выпускает токен доступа.
	GenerateToken(userUID, email, role string) (string, error)
	// ParseToken проверяет подпись и срок токена доступа.
	ParseToken(tokenStr string) (*CustomClaims, error)
	// GenerateVerificationToken выпускает токен для ссылки подтверждения email.
	GenerateVerificationToken(userUID string) (string, error)
	// ParseVerificationToken возвращает uid из токена подтверждения.
	ParseVerificationToken(tokenStr string) (string, error)
}

// MakerImpl подписывает токены HMAC-SHA256 общим секретом.
type MakerImpl struct {
	secretKey       string
	tokenTTL        time.Duration
	verificationTTL time.Duration
}

// NewJWTMaker создаёт MakerImpl. verificationTTL — срок жизни ссылки подтверждения.
func NewJWTMaker(secretKey string, ttl, verificationTTL time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey:       secretKey,
		tokenTTL:        ttl,
		verificationTTL: verificationTTL,
	}
}
