package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/whatsup-app/whatsup/internal/models"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
)

const userColumns = `id, email, password_hash, full_name, bio, profile_pic,
	 native_language, learning_language, location, is_onboarded, created_at, updated_at`

// UserService is the authoritative store for user records and friend-set
// membership. Friend edges live in the friend_edges table and are written
// in both directions by a single statement; request handling code never
// touches them directly.
type UserService struct {
	db DBConn
}

func NewUserService(db DBConn) *UserService {
	return &UserService{db: db}
}

func (s *UserService) Create(ctx context.Context, params models.CreateUserParams) (*models.User, error) {
	var exists bool
	err := s.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)", params.Email).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking email existence: %w", err)
	}
	if exists {
		return nil, ErrEmailAlreadyExists
	}

	user := &models.User{}
	err = s.db.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, full_name, profile_pic)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+userColumns,
		params.Email, params.PasswordHash, params.FullName, params.ProfilePic,
	).Scan(userDests(user)...)
	if isUniqueViolation(err) {
		// Raced with a concurrent signup for the same address.
		return nil, ErrEmailAlreadyExists
	}
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	).Scan(userDests(user)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by id: %w", err)
	}
	return user, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	).Scan(userDests(user)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return user, nil
}

// Onboard fills in the profile fields that gate recommendation visibility
// and flips is_onboarded.
func (s *UserService) Onboard(ctx context.Context, userID uuid.UUID, params models.OnboardParams) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRow(ctx,
		`UPDATE users
		 SET full_name = $2, bio = $3, native_language = $4, learning_language = $5,
		     location = $6, is_onboarded = true, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		userID, params.FullName, params.Bio, params.NativeLanguage, params.LearningLanguage, params.Location,
	).Scan(userDests(user)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("onboarding user: %w", err)
	}
	return user, nil
}

func (s *UserService) UpdateProfilePic(ctx context.Context, userID uuid.UUID, profilePic string) error {
	result, err := s.db.Exec(ctx,
		"UPDATE users SET profile_pic = $1, updated_at = NOW() WHERE id = $2",
		profilePic, userID,
	)
	if err != nil {
		return fmt.Errorf("updating profile pic: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *UserService) UpdatePassword(ctx context.Context, userID uuid.UUID, newPasswordHash string) error {
	result, err := s.db.Exec(ctx,
		"UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2",
		newPasswordHash, userID,
	)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListRecommended returns onboarded users who are neither the caller nor
// already friends with the caller.
func (s *UserService) ListRecommended(ctx context.Context, userID uuid.UUID) ([]models.UserCard, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, full_name, profile_pic, native_language, learning_language, location
		 FROM users u
		 WHERE u.id != $1
		   AND u.is_onboarded = true
		   AND NOT EXISTS (
		     SELECT 1 FROM friend_edges e WHERE e.user_id = $1 AND e.friend_id = u.id
		   )
		 ORDER BY u.created_at DESC
		 LIMIT 50`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing recommended users: %w", err)
	}
	defer rows.Close()

	return scanUserCards(rows)
}

func (s *UserService) ListFriends(ctx context.Context, userID uuid.UUID) ([]models.UserCard, error) {
	rows, err := s.db.Query(ctx,
		`SELECT u.id, u.full_name, u.profile_pic, u.native_language, u.learning_language, u.location
		 FROM friend_edges e
		 JOIN users u ON u.id = e.friend_id
		 WHERE e.user_id = $1
		 ORDER BY u.full_name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing friends: %w", err)
	}
	defer rows.Close()

	return scanUserCards(rows)
}

func userDests(u *models.User) []any {
	return []any{
		&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Bio, &u.ProfilePic,
		&u.NativeLanguage, &u.LearningLanguage, &u.Location, &u.IsOnboarded,
		&u.CreatedAt, &u.UpdatedAt,
	}
}

func scanUserCards(rows Rows) ([]models.UserCard, error) {
	var cards []models.UserCard
	for rows.Next() {
		var c models.UserCard
		if err := rows.Scan(&c.ID, &c.FullName, &c.ProfilePic, &c.NativeLanguage, &c.LearningLanguage, &c.Location); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		cards = append(cards, c)
	}
	if cards == nil {
		cards = []models.UserCard{}
	}
	return cards, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
