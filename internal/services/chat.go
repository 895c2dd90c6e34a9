package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	stream "github.com/GetStream/stream-chat-go/v5"

	"github.com/whatsup-app/whatsup/internal/config"
	"github.com/whatsup-app/whatsup/internal/models"
)

var ErrChatUnavailable = errors.New("chat provider unavailable")

// streamClient is the slice of the Stream API the service uses.
type streamClient interface {
	UpsertUser(ctx context.Context, user *stream.User) (*stream.UpsertUserResponse, error)
	CreateToken(userID string, expire time.Time, issuedAt ...time.Time) (string, error)
}

// ChatService brokers access to Stream Chat, which owns message
// transport, presence and video calls. We only mirror user identity into
// Stream and mint per-user tokens; no message data lives here.
type ChatService struct {
	client streamClient
}

func NewChatService(cfg *config.StreamConfig) (*ChatService, error) {
	client, err := stream.NewClient(cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("creating stream client: %w", err)
	}
	return &ChatService{client: client}, nil
}

// SetClient swaps the Stream client. Tests use this to avoid the network.
func (s *ChatService) SetClient(c streamClient) {
	s.client = c
}

// UpsertUser mirrors the user's identity into Stream so chat and video
// show the current name and avatar. Called on signup and after profile
// changes; idempotent on the Stream side.
func (s *ChatService) UpsertUser(ctx context.Context, user *models.User) error {
	_, err := s.client.UpsertUser(ctx, &stream.User{
		ID:    user.ID.String(),
		Name:  user.FullName,
		Image: user.ProfilePic,
	})
	if err != nil {
		return fmt.Errorf("upserting stream user: %w", err)
	}
	return nil
}

// CreateToken mints the token the frontend uses to connect to Stream as
// this user. Tokens do not expire; Stream revokes on user deletion.
func (s *ChatService) CreateToken(userID string) (string, error) {
	token, err := s.client.CreateToken(userID, time.Time{})
	if err != nil {
		return "", fmt.Errorf("creating stream token: %w", err)
	}
	return token, nil
}
