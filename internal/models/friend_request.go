package models

import (
	"time"

	"github.com/google/uuid"
)

type FriendRequestStatus string

const (
	FriendRequestStatusPending  FriendRequestStatus = "pending"
	FriendRequestStatusAccepted FriendRequestStatus = "accepted"
)

// FriendRequest is a ledger entry. A rejected request is deleted rather
// than kept in a terminal state, so the only statuses that exist are
// pending and accepted.
type FriendRequest struct {
	ID          uuid.UUID           `json:"id"`
	SenderID    uuid.UUID           `json:"sender_id"`
	RecipientID uuid.UUID           `json:"recipient_id"`
	Status      FriendRequestStatus `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	HandledAt   *time.Time          `json:"handled_at,omitempty"`
}

// IncomingRequest is a pending request annotated with the sender's card,
// for the notifications page.
type IncomingRequest struct {
	FriendRequest
	Sender UserCard `json:"sender"`
}

// AcceptedRequest is an accepted request annotated with the recipient's
// card, shown to the sender as a "new connection".
type AcceptedRequest struct {
	FriendRequest
	Recipient UserCard `json:"recipient"`
}
