package models

import "time"

// LicenseKey — лицензионный ключ. Токен ключа одновременно является первичным ключом.
type LicenseKey struct {
	Key       string     `json:"key"`
	Months    int        `json:"months"`
	Revoked   bool       `json:"revoked"`
	CreatedAt time.Time  `json:"created_at"`
	UsedBy    *string    `json:"used_by"`
	UsedEmail *string    `json:"used_email"`
	UsedAt    *time.Time `json:"used_at"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// KeyFilter — фильтр списка ключей в админке.
type KeyFilter string

// Допустимые значения KeyFilter.
const (
	KeyFilterAll       KeyFilter = "all"
	KeyFilterAvailable KeyFilter = "available"
	KeyFilterUsed      KeyFilter = "used"
	KeyFilterRevoked   KeyFilter = "revoked"
	KeyFilterExpired   KeyFilter = "expired"
)

// KeyState возвращает состояние ключа: revoked, used или available.
func (k *LicenseKey) KeyState() string {
	switch {
	case k.Revoked:
		return "revoked"
	case k.UsedBy != nil && *k.UsedBy != "":
		return "used"
	default:
		return "available"
	}
}

// Activation — результат активации лицензии ключом.
type Activation struct {
	Key          string       `json:"key"`
	ExpiresAt    time.Time    `json:"expires_at"`
	Months       int          `json:"months"`
	OfflineCache *AccessCache `json:"offline_cache"`
}
