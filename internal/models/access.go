package models

// Access — результат расчёта доступа.
type Access struct {
	Allowed          bool   `json:"allowed"`
	Mode             string `json:"mode"`
	RemainingSeconds int64  `json:"remaining_seconds"`
	RemainingDays    *int   `json:"remaining_days"`
	StatusText       string `json:"status_text"`
}

// AccessCache — локальная запись для работы без сети.
// Формат совпадает с JSON-блобом клиента: миллисекунды Unix.
type AccessCache struct {
	LastValidatedAt int64 `json:"lastValidatedAt"`
	ExpiresAt       int64 `json:"expiresAt"`
}

// OfflineDecision — решение о доступе без сети.
type OfflineDecision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

// DeviceResult — результат привязки устройства.
// Created ложно, если профиля ещё нет и устройство не записано.
// Replaced истинно, если вытеснено другое активное устройство.
type DeviceResult struct {
	OK       bool   `json:"ok"`
	DeviceID string `json:"device_id"`
	Created  bool   `json:"created"`
	Replaced bool   `json:"replaced"`
}

// GateResult — полный ответ онлайн-проверки доступа.
type GateResult struct {
	Access       Access       `json:"access"`
	Profile      *User        `json:"profile"`
	Device       DeviceResult `json:"device"`
	OfflineCache *AccessCache `json:"offline_cache,omitempty"`
}
