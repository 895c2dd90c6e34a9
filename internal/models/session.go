package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is the Postgres fallback row for a login session. The primary
// store is Redis; this table only matters when Redis is unavailable.
type Session struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
