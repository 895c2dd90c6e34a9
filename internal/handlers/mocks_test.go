package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/whatsup-app/whatsup/internal/models"
)

// Per-method function fields so each test plugs in only what it needs.

type mockUserService struct {
	CreateFunc           func(ctx context.Context, params models.CreateUserParams) (*models.User, error)
	GetByIDFunc          func(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmailFunc       func(ctx context.Context, email string) (*models.User, error)
	OnboardFunc          func(ctx context.Context, userID uuid.UUID, params models.OnboardParams) (*models.User, error)
	UpdateProfilePicFunc func(ctx context.Context, userID uuid.UUID, profilePic string) error
	UpdatePasswordFunc   func(ctx context.Context, userID uuid.UUID, newPasswordHash string) error
	ListRecommendedFunc  func(ctx context.Context, userID uuid.UUID) ([]models.UserCard, error)
	ListFriendsFunc      func(ctx context.Context, userID uuid.UUID) ([]models.UserCard, error)
}

func (m *mockUserService) Create(ctx context.Context, params models.CreateUserParams) (*models.User, error) {
	return m.CreateFunc(ctx, params)
}

func (m *mockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockUserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.GetByEmailFunc(ctx, email)
}

func (m *mockUserService) Onboard(ctx context.Context, userID uuid.UUID, params models.OnboardParams) (*models.User, error) {
	return m.OnboardFunc(ctx, userID, params)
}

func (m *mockUserService) UpdateProfilePic(ctx context.Context, userID uuid.UUID, profilePic string) error {
	return m.UpdateProfilePicFunc(ctx, userID, profilePic)
}

func (m *mockUserService) UpdatePassword(ctx context.Context, userID uuid.UUID, newPasswordHash string) error {
	return m.UpdatePasswordFunc(ctx, userID, newPasswordHash)
}

func (m *mockUserService) ListRecommended(ctx context.Context, userID uuid.UUID) ([]models.UserCard, error) {
	return m.ListRecommendedFunc(ctx, userID)
}

func (m *mockUserService) ListFriends(ctx context.Context, userID uuid.UUID) ([]models.UserCard, error) {
	return m.ListFriendsFunc(ctx, userID)
}

type mockAuthService struct {
	HashPasswordFunc             func(password string) (string, error)
	VerifyPasswordFunc           func(hash, password string) bool
	CreateSessionFunc            func(ctx context.Context, userID uuid.UUID) (string, error)
	ValidateSessionFunc          func(ctx context.Context, token string) (*models.User, error)
	DeleteSessionFunc            func(ctx context.Context, token string) error
	DeleteAllUserSessionsFunc    func(ctx context.Context, userID uuid.UUID) error
	CreatePasswordResetTokenFunc func(ctx context.Context, userID uuid.UUID) (string, error)
	ConsumeResetTokenFunc        func(ctx context.Context, token string) (uuid.UUID, error)
}

func (m *mockAuthService) HashPassword(password string) (string, error) {
	if m.HashPasswordFunc != nil {
		return m.HashPasswordFunc(password)
	}
	return "$2a$12$hash", nil
}

func (m *mockAuthService) VerifyPassword(hash, password string) bool {
	if m.VerifyPasswordFunc != nil {
		return m.VerifyPasswordFunc(hash, password)
	}
	return true
}

func (m *mockAuthService) CreateSession(ctx context.Context, userID uuid.UUID) (string, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, userID)
	}
	return "session-token", nil
}

func (m *mockAuthService) ValidateSession(ctx context.Context, token string) (*models.User, error) {
	return m.ValidateSessionFunc(ctx, token)
}

func (m *mockAuthService) DeleteSession(ctx context.Context, token string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, token)
	}
	return nil
}

func (m *mockAuthService) DeleteAllUserSessions(ctx context.Context, userID uuid.UUID) error {
	if m.DeleteAllUserSessionsFunc != nil {
		return m.DeleteAllUserSessionsFunc(ctx, userID)
	}
	return nil
}

func (m *mockAuthService) CreatePasswordResetToken(ctx context.Context, userID uuid.UUID) (string, error) {
	if m.CreatePasswordResetTokenFunc != nil {
		return m.CreatePasswordResetTokenFunc(ctx, userID)
	}
	return "reset-token", nil
}

func (m *mockAuthService) ConsumePasswordResetToken(ctx context.Context, token string) (uuid.UUID, error) {
	return m.ConsumeResetTokenFunc(ctx, token)
}

type mockLifecycle struct {
	SendRequestFunc   func(ctx context.Context, senderID, recipientID uuid.UUID) (*models.FriendRequest, error)
	AcceptRequestFunc func(ctx context.Context, requestID, actingUserID uuid.UUID) (*models.FriendRequest, error)
	RejectRequestFunc func(ctx context.Context, requestID, actingUserID uuid.UUID) error
	UnfriendFunc      func(ctx context.Context, userID, friendID uuid.UUID) error
	ListRequestsFunc  func(ctx context.Context, userID uuid.UUID) ([]models.IncomingRequest, []models.AcceptedRequest, error)
	ListOutgoingFunc  func(ctx context.Context, userID uuid.UUID) ([]models.FriendRequest, error)
}

func (m *mockLifecycle) SendRequest(ctx context.Context, senderID, recipientID uuid.UUID) (*models.FriendRequest, error) {
	return m.SendRequestFunc(ctx, senderID, recipientID)
}

func (m *mockLifecycle) AcceptRequest(ctx context.Context, requestID, actingUserID uuid.UUID) (*models.FriendRequest, error) {
	return m.AcceptRequestFunc(ctx, requestID, actingUserID)
}

func (m *mockLifecycle) RejectRequest(ctx context.Context, requestID, actingUserID uuid.UUID) error {
	return m.RejectRequestFunc(ctx, requestID, actingUserID)
}

func (m *mockLifecycle) Unfriend(ctx context.Context, userID, friendID uuid.UUID) error {
	return m.UnfriendFunc(ctx, userID, friendID)
}

func (m *mockLifecycle) ListRequests(ctx context.Context, userID uuid.UUID) ([]models.IncomingRequest, []models.AcceptedRequest, error) {
	return m.ListRequestsFunc(ctx, userID)
}

func (m *mockLifecycle) ListOutgoing(ctx context.Context, userID uuid.UUID) ([]models.FriendRequest, error) {
	return m.ListOutgoingFunc(ctx, userID)
}

type mockEmailService struct {
	welcomeSent int
	resetSent   int
	resetTokens []string
}

func (m *mockEmailService) SendWelcomeEmail(ctx context.Context, user *models.User) error {
	m.welcomeSent++
	return nil
}

func (m *mockEmailService) SendFriendRequestReceived(ctx context.Context, recipient, sender *models.User) error {
	return nil
}

func (m *mockEmailService) SendPasswordResetEmail(ctx context.Context, email, token string) error {
	m.resetSent++
	m.resetTokens = append(m.resetTokens, token)
	return nil
}

type mockChatService struct {
	upserted []*models.User
	tokenErr error
}

func (m *mockChatService) UpsertUser(ctx context.Context, user *models.User) error {
	m.upserted = append(m.upserted, user)
	return nil
}

func (m *mockChatService) CreateToken(userID string) (string, error) {
	if m.tokenErr != nil {
		return "", m.tokenErr
	}
	return "stream-token", nil
}

type mockPaymentService struct {
	CreateOrderFunc   func(ctx context.Context, userID uuid.UUID, amountRupees int64) (*models.PaymentOrder, error)
	VerifyPaymentFunc func(ctx context.Context, providerOrderID, paymentID, signature string) (*models.PaymentOrder, error)
}

func (m *mockPaymentService) KeyID() string {
	return "rzp_test_key"
}

func (m *mockPaymentService) CreateOrder(ctx context.Context, userID uuid.UUID, amountRupees int64) (*models.PaymentOrder, error) {
	return m.CreateOrderFunc(ctx, userID, amountRupees)
}

func (m *mockPaymentService) VerifyPayment(ctx context.Context, providerOrderID, paymentID, signature string) (*models.PaymentOrder, error) {
	return m.VerifyPaymentFunc(ctx, providerOrderID, paymentID, signature)
}

// asUser attaches an authenticated user to the request, the way the auth
// middleware does in production.
func asUser(r *http.Request, user *models.User) *http.Request {
	return r.WithContext(SetUserInContext(r.Context(), user))
}

func testUser() *models.User {
	return &models.User{
		ID:           uuid.New(),
		Email:        "ana@example.com",
		PasswordHash: "$2a$12$hash",
		FullName:     "Ana",
		IsOnboarded:  true,
	}
}
