package model

import "time"

// Session is a visitor's conversation identity, keyed by the opaque token
// carried in the sid cookie. Sessions are never updated except for
// LastActivity and are never deleted by the engine itself.
type Session struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `gorm:"index" json:"last_activity"`
}
