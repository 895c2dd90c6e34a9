package services

import (
	"context"
	"errors"
	"testing"
	"time"

	stream "github.com/GetStream/stream-chat-go/v5"
	"github.com/google/uuid"

	"github.com/whatsup-app/whatsup/internal/models"
)

type fakeStreamClient struct {
	upserted    []*stream.User
	upsertErr   error
	tokenErr    error
	tokenUserID string
}

func (f *fakeStreamClient) UpsertUser(ctx context.Context, user *stream.User) (*stream.UpsertUserResponse, error) {
	f.upserted = append(f.upserted, user)
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	return &stream.UpsertUserResponse{}, nil
}

func (f *fakeStreamClient) CreateToken(userID string, expire time.Time, issuedAt ...time.Time) (string, error) {
	f.tokenUserID = userID
	if f.tokenErr != nil {
		return "", f.tokenErr
	}
	return "stream-token", nil
}

func TestChatService_UpsertUser(t *testing.T) {
	client := &fakeStreamClient{}
	service := &ChatService{}
	service.SetClient(client)

	user := &models.User{
		ID:         uuid.New(),
		FullName:   "Ana",
		ProfilePic: "https://avatar.iran.liara.run/public/7.png",
	}

	if err := service.UpsertUser(context.Background(), user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.upserted) != 1 {
		t.Fatalf("expected 1 upsert, got %d", len(client.upserted))
	}
	got := client.upserted[0]
	if got.ID != user.ID.String() {
		t.Errorf("expected stream id %s, got %s", user.ID, got.ID)
	}
	if got.Name != "Ana" || got.Image != user.ProfilePic {
		t.Errorf("expected name and avatar mirrored, got %+v", got)
	}
}

func TestChatService_UpsertUser_Error(t *testing.T) {
	client := &fakeStreamClient{upsertErr: errors.New("connection refused")}
	service := &ChatService{}
	service.SetClient(client)

	err := service.UpsertUser(context.Background(), &models.User{ID: uuid.New()})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestChatService_CreateToken(t *testing.T) {
	client := &fakeStreamClient{}
	service := &ChatService{}
	service.SetClient(client)

	userID := uuid.New().String()
	token, err := service.CreateToken(userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "stream-token" {
		t.Errorf("expected stream-token, got %s", token)
	}
	if client.tokenUserID != userID {
		t.Errorf("expected token for %s, got %s", userID, client.tokenUserID)
	}
}
