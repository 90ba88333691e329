package models

import "errors"

// Ошибки доменного уровня. Обработчики HTTP сопоставляют их со статусами ответа.
var (
	ErrNotSignedIn        = errors.New("user not signed in")
	ErrAccessDenied       = errors.New("admin access denied")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrKeyNotFound        = errors.New("invalid license key")
	ErrKeyExists          = errors.New("license key already exists")
	ErrKeyRevoked         = errors.New("license key revoked")
	ErrKeyAlreadyUsed     = errors.New("license key already used")
	ErrEmptyKey           = errors.New("license key is empty")
	ErrEmptyEmail         = errors.New("email is required")
	ErrEmptyDeviceID      = errors.New("device id is required")
	ErrSnapshotNotFound   = errors.New("snapshot not found")
	ErrEmptySnapshotID    = errors.New("snapshot id is required")
	ErrInvalidSnapshot    = errors.New("snapshot data must be valid JSON")
	ErrInvalidFilter      = errors.New("invalid key filter")
	ErrInvalidAction      = errors.New("unknown action")
)
