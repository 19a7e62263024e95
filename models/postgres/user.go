package postgres

import (
	"time"
)

/*
 * 'User' contains the blueprint definition of a registered user
 */
type User struct {
	Username     string     `gorm:"primaryKey;size:50;not null" json:"username"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	DisplayName  string     `gorm:"size:100" json:"displayName"`
	CreatedAt    time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
}
