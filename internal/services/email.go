package services

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"

	"github.com/resend/resend-go/v2"

	"github.com/whatsup-app/whatsup/internal/config"
	"github.com/whatsup-app/whatsup/internal/logging"
	"github.com/whatsup-app/whatsup/internal/models"
)

// Email represents an email to be sent
type Email struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// EmailProvider is the interface for sending emails
type EmailProvider interface {
	Send(ctx context.Context, email *Email) error
}

// EmailService renders and dispatches transactional email. Delivery is
// best effort; features that trigger email must not fail when it does.
type EmailService struct {
	provider    EmailProvider
	fromAddress string
	fromName    string
	baseURL     string
}

// NewEmailService creates a new email service based on configuration
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	var provider EmailProvider

	switch cfg.Provider {
	case "resend":
		provider = NewResendProvider(cfg.ResendAPIKey, cfg.FromName, cfg.FromAddress)
	case "smtp":
		provider = NewSMTPProvider(cfg.SMTPHost, cfg.SMTPPort, cfg.FromName, cfg.FromAddress)
	default:
		provider = NewConsoleProvider()
	}

	return &EmailService{
		provider:    provider,
		fromAddress: cfg.FromAddress,
		fromName:    cfg.FromName,
		baseURL:     cfg.BaseURL,
	}
}

// SetProvider swaps the delivery backend. Tests use this to capture
// outgoing mail.
func (s *EmailService) SetProvider(p EmailProvider) {
	s.provider = p
}

// SendWelcomeEmail greets a freshly signed-up user.
func (s *EmailService) SendWelcomeEmail(ctx context.Context, user *models.User) error {
	html, text := s.renderWelcomeEmail(user.FullName)
	return s.provider.Send(ctx, &Email{
		To:      user.Email,
		Subject: "Welcome to WhatsUp!",
		HTML:    html,
		Text:    text,
	})
}

// SendFriendRequestReceived tells the recipient someone wants to connect.
func (s *EmailService) SendFriendRequestReceived(ctx context.Context, recipient *models.User, sender *models.User) error {
	html, text := s.renderFriendRequestEmail(recipient.FullName, sender.FullName)
	return s.provider.Send(ctx, &Email{
		To:      recipient.Email,
		Subject: fmt.Sprintf("%s sent you a friend request on WhatsUp", sender.FullName),
		HTML:    html,
		Text:    text,
	})
}

// SendPasswordResetEmail mails a one-time reset link built from token.
func (s *EmailService) SendPasswordResetEmail(ctx context.Context, email, token string) error {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, token)
	html, text := s.renderPasswordResetEmail(resetURL)
	return s.provider.Send(ctx, &Email{
		To:      email,
		Subject: "Reset your WhatsUp password",
		HTML:    html,
		Text:    text,
	})
}

// Email templates

func (s *EmailService) renderWelcomeEmail(fullName string) (html, text string) {
	html = fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #333; font-size: 24px;">Welcome to WhatsUp, %s!</h1>

  <p>Your account is ready. Finish onboarding to tell other learners which
  language you speak and which one you are learning, then start finding
  language partners.</p>

  <a href="%s"
     style="display: inline-block; background: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; margin: 20px 0;">
    Complete Your Profile
  </a>

  <hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
  <p style="color: #999; font-size: 12px;">WhatsUp - practice languages with real people</p>
</body>
</html>`, fullName, s.baseURL)

	text = fmt.Sprintf(`Welcome to WhatsUp, %s!

Your account is ready. Finish onboarding to tell other learners which
language you speak and which one you are learning:
%s

--
WhatsUp
practice languages with real people`, fullName, s.baseURL)

	return html, text
}

func (s *EmailService) renderFriendRequestEmail(recipientName, senderName string) (html, text string) {
	html = fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #333; font-size: 24px;">Hi %s,</h1>

  <p><strong>%s</strong> sent you a friend request on WhatsUp.</p>

  <a href="%s/notifications"
     style="display: inline-block; background: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; margin: 20px 0;">
    View Request
  </a>

  <p style="color: #666; font-size: 14px;">
    Accept to start chatting and practicing together.
  </p>

  <hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
  <p style="color: #999; font-size: 12px;">WhatsUp - practice languages with real people</p>
</body>
</html>`, recipientName, senderName, s.baseURL)

	text = fmt.Sprintf(`Hi %s,

%s sent you a friend request on WhatsUp.

View it here:
%s/notifications

--
WhatsUp
practice languages with real people`, recipientName, senderName, s.baseURL)

	return html, text
}

func (s *EmailService) renderPasswordResetEmail(resetURL string) (html, text string) {
	html = fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #333; font-size: 24px;">Reset Your Password</h1>

  <p>We received a request to reset your password. Click the button below to choose a new password:</p>

  <a href="%s"
     style="display: inline-block; background: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; margin: 20px 0;">
    Reset Password
  </a>

  <p style="color: #666; font-size: 14px;">
    This link expires in 10 minutes and can only be used once.
  </p>

  <p style="color: #666; font-size: 14px;">
    Or copy this link: %s
  </p>

  <p style="color: #666; font-size: 14px;">
    If you didn't request a password reset, you can safely ignore this email.
  </p>

  <hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
  <p style="color: #999; font-size: 12px;">WhatsUp - practice languages with real people</p>
</body>
</html>`, resetURL, resetURL)

	text = fmt.Sprintf(`Reset Your Password

We received a request to reset your password.

Click the link below to choose a new password:
%s

This link expires in 10 minutes and can only be used once.

If you didn't request a password reset, you can safely ignore this email.

--
WhatsUp
practice languages with real people`, resetURL)

	return html, text
}

// ResendProvider sends emails using the Resend API
type ResendProvider struct {
	client *resend.Client
	from   string
}

func NewResendProvider(apiKey, fromName, fromAddress string) *ResendProvider {
	return &ResendProvider{
		client: resend.NewClient(apiKey),
		from:   fmt.Sprintf("%s <%s>", fromName, fromAddress),
	}
}

func (p *ResendProvider) Send(ctx context.Context, email *Email) error {
	params := &resend.SendEmailRequest{
		From:    p.from,
		To:      []string{email.To},
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
	}

	_, err := p.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("sending email via Resend: %w", err)
	}

	logging.Info("Email sent via Resend", map[string]interface{}{"to": email.To, "subject": email.Subject})
	return nil
}

// SMTPProvider sends emails via SMTP (for Mailpit in local dev)
type SMTPProvider struct {
	host        string
	port        int
	fromName    string
	fromAddress string
}

func NewSMTPProvider(host string, port int, fromName, fromAddress string) *SMTPProvider {
	return &SMTPProvider{host: host, port: port, fromName: fromName, fromAddress: fromAddress}
}

func (p *SMTPProvider) Send(ctx context.Context, email *Email) error {
	addr := fmt.Sprintf("%s:%d", p.host, p.port)

	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s <%s>\r\n", p.fromName, p.fromAddress))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", email.To))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", email.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(email.HTML)

	err := smtp.SendMail(addr, nil, p.fromAddress, []string{email.To}, buf.Bytes())
	if err != nil {
		return fmt.Errorf("sending email via SMTP: %w", err)
	}

	logging.Info("Email sent via SMTP", map[string]interface{}{"to": email.To, "subject": email.Subject})
	return nil
}

// ConsoleProvider logs emails to console (for development)
type ConsoleProvider struct{}

func NewConsoleProvider() *ConsoleProvider {
	return &ConsoleProvider{}
}

func (p *ConsoleProvider) Send(ctx context.Context, email *Email) error {
	logging.Info("=== EMAIL (Console Provider) ===", map[string]interface{}{"to": email.To, "subject": email.Subject})
	fmt.Printf("\n=== EMAIL ===\n")
	fmt.Printf("To: %s\n", email.To)
	fmt.Printf("Subject: %s\n", email.Subject)
	fmt.Printf("---\n")
	fmt.Printf("%s\n", email.Text)
	fmt.Printf("=============\n\n")
	return nil
}
