package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is one turn of a user's conversation with the Nexa assistant.
// FromUser distinguishes the user's prompt from the assistant's reply.
type Message struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Content   string    `json:"content"`
	FromUser  bool      `json:"from_user"`
	CreatedAt time.Time `json:"created_at"`
}
