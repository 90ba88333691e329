package models

import (
	"encoding/json"
	"time"
)

// DefaultSnapshotLabel используется, когда метка снимка не передана.
const DefaultSnapshotLabel = "Snapshot"

// Snapshot — сохранённое состояние приложения пользователя.
type Snapshot struct {
	ID        string          `json:"id"`
	UserUID   string          `json:"user_uid"`
	Label     string          `json:"label"`
	Data      json.RawMessage `json:"data"`
	Deleted   bool            `json:"deleted"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SnapshotMeta — элемент списка снимков без полезной нагрузки.
type SnapshotMeta struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
