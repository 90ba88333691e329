// Package keygen генерирует лицензионные ключи вида XXXX-XXXX-XXXX.
//
// Алфавит исключает легко путаемые символы (I, O, 0, 1), чтобы ключ было удобно
// вводить вручную.
package keygen

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// Alphabet — допустимые символы ключа. Длина ровно 32, поэтому байт по модулю
// длины распределён равномерно.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	groups    = 3
	groupSize = 4
)

// New возвращает новый случайный ключ.
func New() (string, error) {
	const op = "keygen.New"

	buf := make([]byte, groups*groupSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var b strings.Builder
	b.Grow(groups*groupSize + groups - 1)
	for i, v := range buf {
		if i > 0 && i%groupSize == 0 {
			b.WriteByte('-')
		}
		b.WriteByte(Alphabet[int(v)%len(Alphabet)])
	}
	return b.String(), nil
}

// Batch возвращает n попарно различных ключей.
func Batch(n int) ([]string, error) {
	seen := make(map[string]struct{}, n)
	keys := make([]string, 0, n)
	for len(keys) < n {
		k, err := New()
		if err != nil {
			return nil, err
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys, nil
}

// Normalize приводит введённый пользователем ключ к каноническому виду.
func Normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Valid проверяет, что токен имеет форму XXXX-XXXX-XXXX из символов Alphabet.
func Valid(token string) bool {
	if len(token) != groups*groupSize+groups-1 {
		return false
	}
	for i := 0; i < len(token); i++ {
		c := token[i]
		if (i+1)%(groupSize+1) == 0 {
			if c != '-' {
				return false
			}
			continue
		}
		if strings.IndexByte(Alphabet, c) < 0 {
			return false
		}
	}
	return true
}
