// Package offline хранит локальное состояние клиента в JSON-файле: идентификатор
// устройства, запись последней онлайн-проверки и токен входа.
//
// Значения хранятся строками под фиксированными ключами, запись последней
// проверки сериализуется в JSON с метками времени в миллисекундах.
package offline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/17marcomoreira-hue/sportswissapp/internal/models"
)

// Ключи локального хранилища.
const (
	KeyDeviceID    = "TOURNOI_DEVICE_ID_V1"
	KeyAccessCache = "TOURNOI_ACCESS_CACHE_V1"
	KeyToken       = "token"
)

// Store — файловое хранилище ключ-значение. Безопасно для конкурентного использования.
type Store struct {
	mu   sync.Mutex
	path string
}

// Open возвращает хранилище поверх файла path. Файл создаётся при первой записи.
func Open(path string) *Store {
	return &Store{path: path}
}

// DefaultPath возвращает путь к файлу состояния в пользовательском каталоге настроек.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("offline.DefaultPath: %w", err)
	}
	return filepath.Join(dir, "sportswissapp", "state.json"), nil
}

// Path возвращает путь к файлу состояния.
func (s *Store) Path() string {
	return s.path
}

// Get возвращает значение key. ok ложно, если ключа нет.
func (s *Store) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil {
		return "", false, err
	}
	v, ok := data[key]
	return v, ok, nil
}

// Set записывает значение key.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil {
		return err
	}
	data[key] = value
	return s.write(data)
}

// Delete удаляет key. Отсутствующий ключ не считается ошибкой.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := data[key]; !ok {
		return nil
	}
	delete(data, key)
	return s.write(data)
}

// DeviceID возвращает идентификатор устройства, создавая его при первом вызове.
func (s *Store) DeviceID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil {
		return "", err
	}
	if id := data[KeyDeviceID]; id != "" {
		return id, nil
	}
	id := uuid.NewString()
	data[KeyDeviceID] = id
	if err = s.write(data); err != nil {
		return "", err
	}
	return id, nil
}

// AccessCache возвращает запись последней онлайн-проверки.
// Отсутствующая или повреждённая запись даёт nil без ошибки.
func (s *Store) AccessCache() (*models.AccessCache, error) {
	raw, ok, err := s.Get(KeyAccessCache)
	if err != nil || !ok || raw == "" {
		return nil, err
	}
	var c models.AccessCache
	if err = json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, nil
	}
	return &c, nil
}

// SaveAccessCache сохраняет запись последней онлайн-проверки.
func (s *Store) SaveAccessCache(c models.AccessCache) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("offline.SaveAccessCache: %w", err)
	}
	return s.Set(KeyAccessCache, string(raw))
}

// Token возвращает сохранённый токен входа или пустую строку.
func (s *Store) Token() (string, error) {
	v, _, err := s.Get(KeyToken)
	return v, err
}

func (s *Store) read() (map[string]string, error) {
	const op = "offline.read"

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	data := map[string]string{}
	if len(raw) == 0 {
		return data, nil
	}
	if err = json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%s: corrupted state file %s: %w", op, s.path, err)
	}
	return data, nil
}

// write атомарно заменяет файл состояния.
func (s *Store) write(data map[string]string) error {
	const op = "offline.write"

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".state-*.json")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
