package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/whatsup-app/whatsup/internal/models"
)

const (
	bcryptCost         = 12
	sessionDuration    = 30 * 24 * time.Hour // 30 days
	sessionKeyPrefix   = "session:"
	resetTokenDuration = 10 * time.Minute
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrResetTokenInvalid  = errors.New("reset token invalid or expired")
)

// AuthService issues and validates opaque session tokens. Tokens live in
// Redis for fast lookups with a Postgres sessions table as fallback, so
// a Redis outage degrades to slower auth instead of logging everyone
// out.
type AuthService struct {
	db    DBConn
	kv    KVStore
	users *UserService
}

func NewAuthService(db DBConn, kv KVStore, users *UserService) *AuthService {
	return &AuthService{db: db, kv: kv, users: users}
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

func (s *AuthService) VerifyPassword(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func (s *AuthService) GenerateSessionToken() (token string, hash string, err error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", fmt.Errorf("generating random bytes: %w", err)
	}

	token = hex.EncodeToString(bytes)
	return token, s.hashToken(token), nil
}

func (s *AuthService) hashToken(token string) string {
	hashBytes := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hashBytes[:])
}

func (s *AuthService) CreateSession(ctx context.Context, userID uuid.UUID) (token string, err error) {
	token, tokenHash, err := s.GenerateSessionToken()
	if err != nil {
		return "", err
	}

	expiresAt := time.Now().Add(sessionDuration)

	err = s.kv.Set(ctx, sessionKeyPrefix+tokenHash, userID.String(), sessionDuration)
	if err != nil {
		// Redis is down, keep the session in Postgres instead.
		_, err = s.db.Exec(ctx,
			`INSERT INTO sessions (user_id, token_hash, expires_at) VALUES ($1, $2, $3)`,
			userID, tokenHash, expiresAt,
		)
		if err != nil {
			return "", fmt.Errorf("creating session in database: %w", err)
		}
	}

	return token, nil
}

func (s *AuthService) ValidateSession(ctx context.Context, token string) (*models.User, error) {
	tokenHash := s.hashToken(token)

	redisKey := sessionKeyPrefix + tokenHash
	userIDStr, err := s.kv.Get(ctx, redisKey)
	if err == nil {
		// Sliding expiry: touching the session extends it.
		s.kv.Expire(ctx, redisKey, sessionDuration)

		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			return nil, fmt.Errorf("parsing user id: %w", err)
		}
		return s.users.GetByID(ctx, userID)
	}

	var session models.Session
	err = s.db.QueryRow(ctx,
		`SELECT id, user_id, token_hash, expires_at, created_at
		 FROM sessions WHERE token_hash = $1`,
		tokenHash,
	).Scan(&session.ID, &session.UserID, &session.TokenHash, &session.ExpiresAt, &session.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	if time.Now().After(session.ExpiresAt) {
		s.db.Exec(ctx, "DELETE FROM sessions WHERE id = $1", session.ID)
		return nil, ErrSessionExpired
	}

	return s.users.GetByID(ctx, session.UserID)
}

func (s *AuthService) DeleteSession(ctx context.Context, token string) error {
	tokenHash := s.hashToken(token)

	s.kv.Del(ctx, sessionKeyPrefix+tokenHash)

	_, err := s.db.Exec(ctx, "DELETE FROM sessions WHERE token_hash = $1", tokenHash)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func (s *AuthService) DeleteAllUserSessions(ctx context.Context, userID uuid.UUID) error {
	rows, err := s.db.Query(ctx, "SELECT token_hash FROM sessions WHERE user_id = $1", userID)
	if err != nil {
		return fmt.Errorf("querying user sessions: %w", err)
	}
	defer rows.Close()

	var tokenHashes []string
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return fmt.Errorf("scanning token hash: %w", err)
		}
		tokenHashes = append(tokenHashes, hash)
	}

	for _, hash := range tokenHashes {
		s.kv.Del(ctx, sessionKeyPrefix+hash)
	}

	_, err = s.db.Exec(ctx, "DELETE FROM sessions WHERE user_id = $1", userID)
	if err != nil {
		return fmt.Errorf("deleting user sessions: %w", err)
	}
	return nil
}

// CreatePasswordResetToken mints a one-time reset token for the account.
// Only the sha256 hash is stored; the raw token goes out by email and is
// never persisted.
func (s *AuthService) CreatePasswordResetToken(ctx context.Context, userID uuid.UUID) (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating random bytes: %w", err)
	}
	token := hex.EncodeToString(bytes)
	tokenHash := s.hashToken(token)

	_, err := s.db.Exec(ctx,
		`INSERT INTO password_reset_tokens (user_id, token_hash, expires_at) VALUES ($1, $2, $3)`,
		userID, tokenHash, time.Now().Add(resetTokenDuration),
	)
	if err != nil {
		return "", fmt.Errorf("creating reset token: %w", err)
	}
	return token, nil
}

// ConsumePasswordResetToken validates the token and burns it, returning
// the account it belongs to. Expired and already-used tokens both come
// back as ErrResetTokenInvalid.
func (s *AuthService) ConsumePasswordResetToken(ctx context.Context, token string) (uuid.UUID, error) {
	tokenHash := s.hashToken(token)

	var userID uuid.UUID
	err := s.db.QueryRow(ctx,
		`DELETE FROM password_reset_tokens
		 WHERE token_hash = $1 AND expires_at > NOW()
		 RETURNING user_id`,
		tokenHash,
	).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrResetTokenInvalid
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("consuming reset token: %w", err)
	}
	return userID, nil
}
