// Package models содержит доменные структуры сервиса доступа: профиль пользователя,
// учётную запись, лицензию, лицензионные ключи, снимки и результаты проверки доступа.
package models

import "time"

// Account — учётная запись для входа (email + пароль).
// Живёт отдельно от профиля: удаление данных профиля администратором
// не удаляет учётную запись, и при следующем входе профиль создаётся заново.
type Account struct {
	UID           string
	Email         string
	PasswordHash  string
	EmailVerified bool
	CreatedAt     time.Time
}

// License — лицензионная часть профиля пользователя.
type License struct {
	Active    bool       `json:"active"`
	Key       string     `json:"key"`
	ExpiresAt *time.Time `json:"expires_at"`
	Status    string     `json:"status"` // none, active или revoked
}

// Статусы лицензии в профиле.
const (
	LicenseStatusNone    = "none"
	LicenseStatusActive  = "active"
	LicenseStatusRevoked = "revoked"
)

// ManualLicenseKey помечает лицензию, выданную администратором без ключа.
const ManualLicenseKey = "MANUAL"

// User представляет профиль пользователя.
type User struct {
	UID                     string     `json:"uid"`
	Email                   string     `json:"email"`
	EmailVerified           bool       `json:"email_verified"`
	EmailVerifiedOverride   bool       `json:"email_verified_override"`
	EmailVerifiedOverrideAt *time.Time `json:"email_verified_override_at"`
	EmailVerifiedOverrideBy string     `json:"email_verified_override_by"`
	TrialStartedAt          *time.Time `json:"trial_started_at"`
	TrialSeconds            int        `json:"trial_seconds"`
	License                 License    `json:"license"`
	LicenseActivatedAt      *time.Time `json:"license_activated_at"`
	ActiveDeviceID          string     `json:"active_device_id"`
	LastDeviceAt            *time.Time `json:"last_device_at"`
	LastValidatedAt         *time.Time `json:"last_validated_at"`
	AdminResendVerify       bool       `json:"admin_resend_verify"`
	CreatedAt               time.Time  `json:"created_at"`
	LastLoginAt             *time.Time `json:"last_login_at"`
}

// Verified возвращает true, если email подтверждён или подтверждение выставлено вручную.
func (u *User) Verified() bool {
	return u.EmailVerified || u.EmailVerifiedOverride
}

// Principal — аутентифицированный пользователь запроса.
type Principal struct {
	UID   string
	Email string
	Role  string
}

// Роли пользователя.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ExpiringLicense — запись для уведомления о скором окончании лицензии.
type ExpiringLicense struct {
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}
