// Package access рассчитывает право пользователя на работу с приложением:
// действующая лицензия, пробный период или офлайн-доступ в пределах льготного окна.
//
// Все функции чистые: текущее время передаётся явно.
package access

import (
	"fmt"
	"strings"
	"time"

	"github.com/17marcomoreira-hue/sportswissapp/internal/models"
)

// Режимы доступа.
const (
	ModeLicense        = "license"
	ModeTrial          = "trial"
	ModeLicenseOffline = "license-offline"
)

const (
	// DefaultTrialSeconds — длительность пробного периода по умолчанию.
	DefaultTrialSeconds = 10 * 60
	// DefaultOfflineGrace — сколько можно работать без сети после последней онлайн-проверки.
	DefaultOfflineGrace = 7 * 24 * time.Hour
)

// LicenseValid сообщает, действует ли лицензия профиля в момент now.
func LicenseValid(lic models.License, now time.Time) bool {
	return lic.Active && lic.ExpiresAt != nil && lic.ExpiresAt.After(now)
}

// Compute рассчитывает доступ для профиля u в момент now.
//
// Лицензия имеет приоритет. Иначе остаток пробного периода равен
// trialSeconds минус целое число секунд, прошедших с trialStartedAt.
func Compute(u *models.User, now time.Time) models.Access {
	if u != nil && LicenseValid(u.License, now) {
		return models.Access{
			Allowed:          true,
			Mode:             ModeLicense,
			RemainingSeconds: int64(u.License.ExpiresAt.Sub(now) / time.Second),
		}
	}

	total := int64(DefaultTrialSeconds)
	var started time.Time
	if u != nil {
		if u.TrialSeconds > 0 {
			total = int64(u.TrialSeconds)
		}
		if u.TrialStartedAt != nil {
			started = *u.TrialStartedAt
		}
	}

	// Без отметки начала пробный период считается исчерпанным.
	remaining := int64(0)
	if !started.IsZero() {
		elapsed := int64(now.Sub(started) / time.Second)
		if elapsed < 0 {
			elapsed = 0
		}
		remaining = max(0, total-elapsed)
	}

	return models.Access{
		Allowed:          remaining > 0,
		Mode:             ModeTrial,
		RemainingSeconds: remaining,
	}
}

// Offline решает, можно ли работать без сети по локальной записи c.
func Offline(c *models.AccessCache, now time.Time, grace time.Duration) models.OfflineDecision {
	if c == nil {
		return models.OfflineDecision{Reason: "no recent validation found"}
	}
	if c.LastValidatedAt <= 0 {
		return models.OfflineDecision{Reason: "validation missing"}
	}

	nowMs := now.UnixMilli()
	if nowMs-c.LastValidatedAt > grace.Milliseconds() {
		return models.OfflineDecision{
			Reason: fmt.Sprintf("validation too old (> %d days)", int(grace.Hours()/24)),
		}
	}
	if c.ExpiresAt <= 0 || c.ExpiresAt <= nowMs {
		return models.OfflineDecision{Reason: "license expired"}
	}
	return models.OfflineDecision{Allowed: true, Reason: "OK (offline grace)"}
}

// NewCache формирует офлайн-запись после успешной онлайн-проверки.
func NewCache(validatedAt time.Time, expiresAt *time.Time) *models.AccessCache {
	c := &models.AccessCache{LastValidatedAt: validatedAt.UnixMilli()}
	if expiresAt != nil {
		c.ExpiresAt = expiresAt.UnixMilli()
	}
	return c
}

// Describe дополняет результат расчёта числом оставшихся дней и текстом статуса.
func Describe(a models.Access) models.Access {
	switch a.Mode {
	case ModeLicense:
		days, text := describeLicense(a.RemainingSeconds)
		a.RemainingDays = &days
		a.StatusText = text
	case ModeTrial:
		a.RemainingDays = nil
		a.StatusText = describeTrial(a.RemainingSeconds)
	case ModeLicenseOffline:
		a.RemainingDays = nil
		a.StatusText = "License: OK (offline)"
	default:
		a.RemainingDays = nil
		a.StatusText = "Access OK"
	}
	return a
}

func describeLicense(sec int64) (int, string) {
	if sec <= 0 {
		return 0, "License expired"
	}
	days := ceilDiv(sec, 86400)
	if days <= 1 {
		hours := ceilDiv(sec, 3600)
		if hours <= 1 {
			mins := max(1, ceilDiv(sec, 60))
			return 1, fmt.Sprintf("License: ~%d min remaining", mins)
		}
		return 1, fmt.Sprintf("License: ~%d h remaining", hours)
	}
	return int(days), fmt.Sprintf("License: %d days remaining", days)
}

func describeTrial(sec int64) string {
	sec = max(0, sec)
	mins := ceilDiv(sec, 60)
	if mins <= 1 {
		return fmt.Sprintf("Trial: ~%d s remaining", max(1, sec))
	}
	return fmt.Sprintf("Trial: %d min remaining", mins)
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}

// IsAdminEmail сравнивает email с адресом администратора без учёта регистра.
func IsAdminEmail(email, adminEmail string) bool {
	a := strings.ToLower(strings.TrimSpace(adminEmail))
	return a != "" && strings.ToLower(strings.TrimSpace(email)) == a
}
