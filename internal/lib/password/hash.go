// Package password хеширует и проверяет пароли учётных записей через bcrypt.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxLength — предел bcrypt: байты после 72-го не участвуют в хеше.
const MaxLength = 72

// ErrTooLong возвращается для паролей длиннее MaxLength байт.
var ErrTooLong = errors.New("password is longer than 72 bytes")

// GetHash возвращает bcrypt-хеш пароля.
func GetHash(password string) (string, error) {
	const op = "password.GetHash"
	if len(password) > MaxLength {
		return "", fmt.Errorf("%s: %w", op, ErrTooLong)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashed), nil
}

// CompareHash возвращает nil, если пароль соответствует хешу.
func CompareHash(hash, password string) error {
	const op = "password.CompareHash"
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
