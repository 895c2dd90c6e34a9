package services

import (
	"context"
	"strings"
	"testing"

	"github.com/whatsup-app/whatsup/internal/config"
	"github.com/whatsup-app/whatsup/internal/models"
)

type captureProvider struct {
	sent []*Email
	err  error
}

func (p *captureProvider) Send(ctx context.Context, email *Email) error {
	p.sent = append(p.sent, email)
	return p.err
}

func newTestEmailService() (*EmailService, *captureProvider) {
	service := NewEmailService(&config.EmailConfig{
		Provider:    "console",
		FromAddress: "hello@whatsup.example",
		FromName:    "WhatsUp",
		BaseURL:     "https://whatsup.example",
	})
	provider := &captureProvider{}
	service.SetProvider(provider)
	return service, provider
}

func TestEmailService_ProviderSelection(t *testing.T) {
	tests := []struct {
		provider string
		wantType string
	}{
		{"resend", "*services.ResendProvider"},
		{"smtp", "*services.SMTPProvider"},
		{"console", "*services.ConsoleProvider"},
		{"", "*services.ConsoleProvider"},
	}

	for _, tt := range tests {
		service := NewEmailService(&config.EmailConfig{Provider: tt.provider})
		got := typeName(service.provider)
		if got != tt.wantType {
			t.Errorf("provider %q: expected %s, got %s", tt.provider, tt.wantType, got)
		}
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *ResendProvider:
		return "*services.ResendProvider"
	case *SMTPProvider:
		return "*services.SMTPProvider"
	case *ConsoleProvider:
		return "*services.ConsoleProvider"
	default:
		return "unknown"
	}
}

func TestEmailService_SendWelcomeEmail(t *testing.T) {
	service, provider := newTestEmailService()

	err := service.SendWelcomeEmail(context.Background(), &models.User{
		Email:    "ana@example.com",
		FullName: "Ana",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(provider.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(provider.sent))
	}

	email := provider.sent[0]
	if email.To != "ana@example.com" {
		t.Errorf("expected recipient ana@example.com, got %s", email.To)
	}
	if !strings.Contains(email.HTML, "Ana") {
		t.Error("expected HTML body to address the user by name")
	}
	if !strings.Contains(email.Text, "https://whatsup.example") {
		t.Error("expected text body to link the app")
	}
}

func TestEmailService_SendFriendRequestReceived(t *testing.T) {
	service, provider := newTestEmailService()

	err := service.SendFriendRequestReceived(context.Background(),
		&models.User{Email: "luis@example.com", FullName: "Luis"},
		&models.User{Email: "ana@example.com", FullName: "Ana"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(provider.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(provider.sent))
	}

	email := provider.sent[0]
	if email.To != "luis@example.com" {
		t.Errorf("expected email to the recipient, got %s", email.To)
	}
	if !strings.Contains(email.Subject, "Ana") {
		t.Errorf("expected sender named in subject, got %s", email.Subject)
	}
	if !strings.Contains(email.HTML, "/notifications") {
		t.Error("expected link to the notifications page")
	}
}

func TestEmailService_SendPasswordResetEmail(t *testing.T) {
	service, provider := newTestEmailService()

	err := service.SendPasswordResetEmail(context.Background(), "ana@example.com", "rawtoken123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(provider.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(provider.sent))
	}

	email := provider.sent[0]
	wantURL := "https://whatsup.example/reset-password?token=rawtoken123"
	if !strings.Contains(email.HTML, wantURL) {
		t.Errorf("expected reset URL in HTML body:\n%s", email.HTML)
	}
	if !strings.Contains(email.Text, wantURL) {
		t.Errorf("expected reset URL in text body:\n%s", email.Text)
	}
	if !strings.Contains(email.Text, "10 minutes") {
		t.Error("expected expiry warning in text body")
	}
}
