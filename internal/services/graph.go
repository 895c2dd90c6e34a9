package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// SocialGraphService owns the friend_edges table. An edge is stored as
// two directed rows; every mutation touches both directions in a single
// statement, so the graph is symmetric after any prefix of operations
// and partial writes cannot occur.
type SocialGraphService struct {
	db DBConn
}

func NewSocialGraphService(db DBConn) *SocialGraphService {
	return &SocialGraphService{db: db}
}

// Materialize records the friendship between a and b. Idempotent:
// replaying the same accepted request is a no-op, so retries after an
// ambiguous failure are safe.
func (s *SocialGraphService) Materialize(ctx context.Context, a, b uuid.UUID) error {
	if a == b {
		return ErrSelfRequest
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO friend_edges (user_id, friend_id)
		 VALUES ($1, $2), ($2, $1)
		 ON CONFLICT DO NOTHING`,
		a, b,
	)
	if isForeignKeyViolation(err) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("materializing friend edge: %w", err)
	}
	return nil
}

// Sever removes the friendship between a and b, both directions at once.
// Severing a non-existent edge is a no-op.
func (s *SocialGraphService) Sever(ctx context.Context, a, b uuid.UUID) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM friend_edges
		 WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)`,
		a, b,
	)
	if err != nil {
		return fmt.Errorf("severing friend edge: %w", err)
	}
	return nil
}

func (s *SocialGraphService) AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error) {
	var areFriends bool
	err := s.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM friend_edges WHERE user_id = $1 AND friend_id = $2)",
		a, b,
	).Scan(&areFriends)
	if err != nil {
		return false, fmt.Errorf("checking friendship: %w", err)
	}
	return areFriends, nil
}

func (s *SocialGraphService) CountFriends(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM friend_edges WHERE user_id = $1",
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting friends: %w", err)
	}
	return count, nil
}
