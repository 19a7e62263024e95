package redis

import (
	"encoding/json"
	"time"
)

// RoomSnapshot is the cached copy of a room kept under "room:{code}"
type RoomSnapshot struct {
	Code            string    `json:"code"`
	Name            string    `json:"name"`
	PasswordHash    string    `json:"password_hash"`
	CreatorUsername string    `json:"creator_username"`
	Members         []string  `json:"members"`
	CurrentCode     string    `json:"current_code"`
	CurrentLanguage string    `json:"current_language"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	LastActivity    time.Time `json:"last_activity"`
}

// RelayEnvelope carries a broadcast between server instances
type RelayEnvelope struct {
	Origin  string          `json:"origin"`
	Channel string          `json:"channel"`
	Payload json.RawMessage `json:"payload"`
}
