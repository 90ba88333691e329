package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const verificationPurpose = "email_verification"

// ErrInvalidToken возвращается, когда токен подтверждения подделан, истёк
// или выпущен для другой цели.
var ErrInvalidToken = errors.New("invalid or expired token")

// CustomClaims — данные пользователя в токене доступа.
type CustomClaims struct {
	UserUID string `json:"uid"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

type verificationClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// GenerateToken создаёт подписанный токен доступа со сроком tokenTTL.
func (j *MakerImpl) GenerateToken(userUID, email, role string) (string, error) {
	now := time.Now()
	claims := CustomClaims{
		UserUID: userUID,
		Email:   email,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userUID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

// ParseToken разбирает токен доступа и проверяет подпись и срок.
func (j *MakerImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, j.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid || claims.UserUID == "" {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	return claims, nil
}

// GenerateVerificationToken создаёт токен для ссылки подтверждения email.
func (j *MakerImpl) GenerateVerificationToken(userUID string) (string, error) {
	now := time.Now()
	claims := verificationClaims{
		Purpose: verificationPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userUID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.verificationTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(j.secretKey))
}

// ParseVerificationToken возвращает uid, если токен подтверждения валиден.
func (j *MakerImpl) ParseVerificationToken(tokenStr string) (string, error) {
	const op = "jwt.ParseVerificationToken"
	token, err := jwt.ParseWithClaims(tokenStr, &verificationClaims{}, j.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*verificationClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}
	if claims.Purpose != verificationPurpose {
		return "", fmt.Errorf("%s: %w: wrong purpose", op, ErrInvalidToken)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%s: %w: missing sub claim", op, ErrInvalidToken)
	}
	return claims.Subject, nil
}

func (j *MakerImpl) keyFunc(_ *jwt.Token) (any, error) {
	return []byte(j.secretKey), nil
}
