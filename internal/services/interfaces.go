package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/whatsup-app/whatsup/internal/models"
)

// UserServiceInterface defines the contract for user operations.
type UserServiceInterface interface {
	Create(ctx context.Context, params models.CreateUserParams) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Onboard(ctx context.Context, userID uuid.UUID, params models.OnboardParams) (*models.User, error)
	UpdateProfilePic(ctx context.Context, userID uuid.UUID, profilePic string) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, newPasswordHash string) error
	ListRecommended(ctx context.Context, userID uuid.UUID) ([]models.UserCard, error)
	ListFriends(ctx context.Context, userID uuid.UUID) ([]models.UserCard, error)
}

// AuthServiceInterface defines the contract for authentication operations.
type AuthServiceInterface interface {
	HashPassword(password string) (string, error)
	VerifyPassword(hash, password string) bool
	CreateSession(ctx context.Context, userID uuid.UUID) (token string, err error)
	ValidateSession(ctx context.Context, token string) (*models.User, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteAllUserSessions(ctx context.Context, userID uuid.UUID) error
	CreatePasswordResetToken(ctx context.Context, userID uuid.UUID) (string, error)
	ConsumePasswordResetToken(ctx context.Context, token string) (uuid.UUID, error)
}

// FriendLifecycleInterface defines the contract for the friend request
// flow used by handlers.
type FriendLifecycleInterface interface {
	SendRequest(ctx context.Context, senderID, recipientID uuid.UUID) (*models.FriendRequest, error)
	AcceptRequest(ctx context.Context, requestID, actingUserID uuid.UUID) (*models.FriendRequest, error)
	RejectRequest(ctx context.Context, requestID, actingUserID uuid.UUID) error
	Unfriend(ctx context.Context, userID, friendID uuid.UUID) error
	ListRequests(ctx context.Context, userID uuid.UUID) ([]models.IncomingRequest, []models.AcceptedRequest, error)
	ListOutgoing(ctx context.Context, userID uuid.UUID) ([]models.FriendRequest, error)
}

// EmailServiceInterface defines the contract for transactional email.
type EmailServiceInterface interface {
	SendWelcomeEmail(ctx context.Context, user *models.User) error
	SendFriendRequestReceived(ctx context.Context, recipient *models.User, sender *models.User) error
	SendPasswordResetEmail(ctx context.Context, email, token string) error
}

// ChatServiceInterface defines the contract for the Stream Chat broker.
type ChatServiceInterface interface {
	UpsertUser(ctx context.Context, user *models.User) error
	CreateToken(userID string) (string, error)
}

// PaymentServiceInterface defines the contract for checkout operations.
type PaymentServiceInterface interface {
	KeyID() string
	CreateOrder(ctx context.Context, userID uuid.UUID, amountRupees int64) (*models.PaymentOrder, error)
	VerifyPayment(ctx context.Context, providerOrderID, paymentID, signature string) (*models.PaymentOrder, error)
}
