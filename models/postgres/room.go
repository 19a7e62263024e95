package postgres

import (
	"time"

	"github.com/lib/pq"
)

/*
 * 'Room' is a password-gated collaboration session. The primary key is the
 * short human-readable code handed out to participants, always stored in
 * its normalized (upper case) form.
 */
type Room struct {
	Code            string         `gorm:"primaryKey;size:6;not null" json:"roomId"`
	Name            string         `gorm:"size:100;not null" json:"name"`
	PasswordHash    string         `gorm:"size:255;not null" json:"-"`
	CreatorUsername string         `gorm:"size:50;not null;index:idx_rooms_creator" json:"creatorUsername"`
	Members         pq.StringArray `gorm:"type:text[]" json:"activeUsers"`
	CurrentCode     string         `gorm:"type:text" json:"currentCode"`
	CurrentLanguage string         `gorm:"size:30;default:javascript" json:"currentLanguage"`
	IsActive        bool           `gorm:"default:true;index:idx_rooms_active" json:"isActive"`
	CreatedAt       time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	LastActivity    time.Time      `json:"lastActivity"`
}

// Clone returns a deep copy, so callers never share the members slice
func (r *Room) Clone() *Room {
	cp := *r
	cp.Members = append(pq.StringArray(nil), r.Members...)
	return &cp
}
