package models

import "time"

// Типы уведомлений.
const (
	NotificationVerification    = "verification"
	NotificationLicenseExpiring = "license_expiring"
	NotificationLicenseActive   = "license_activated"
)

// Notification — сообщение, публикуемое в очередь уведомлений.
type Notification struct {
	Kind      string     `json:"kind"`
	Email     string     `json:"email"`
	Link      string     `json:"link,omitempty"`
	Key       string     `json:"key,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
