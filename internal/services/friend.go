package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/whatsup-app/whatsup/internal/models"
)

var (
	ErrRequestNotFound   = errors.New("friend request not found")
	ErrRequestExists     = errors.New("friend request already exists")
	ErrSelfRequest       = errors.New("cannot send friend request to yourself")
	ErrAlreadyFriends    = errors.New("users are already friends")
	ErrNotRecipient      = errors.New("only the recipient can accept or reject")
	ErrRequestNotPending = errors.New("friend request is not pending")
)

const requestColumns = "id, sender_id, recipient_id, status, created_at, handled_at"

// FriendRequestService is the ledger of friend requests. At most one
// record may exist per unordered user pair; the schema enforces this with
// a unique index over (LEAST(sender, recipient), GREATEST(sender,
// recipient)), so two raced Creates cannot both commit regardless of what
// the application-level pre-checks observed.
type FriendRequestService struct {
	db DBConn
}

func NewFriendRequestService(db DBConn) *FriendRequestService {
	return &FriendRequestService{db: db}
}

// Create inserts a pending request from sender to recipient. The
// pre-checks exist to produce precise error kinds; the unique pair index
// is what actually closes the check-then-insert window.
func (s *FriendRequestService) Create(ctx context.Context, senderID, recipientID uuid.UUID) (*models.FriendRequest, error) {
	if senderID == recipientID {
		return nil, ErrSelfRequest
	}

	var isFriend bool
	err := s.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM friend_edges WHERE user_id = $1 AND friend_id = $2)",
		senderID, recipientID,
	).Scan(&isFriend)
	if err != nil {
		return nil, fmt.Errorf("checking friendship: %w", err)
	}
	if isFriend {
		return nil, ErrAlreadyFriends
	}

	var exists bool
	err = s.db.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM friend_requests
			WHERE (sender_id = $1 AND recipient_id = $2)
			   OR (sender_id = $2 AND recipient_id = $1)
		)`,
		senderID, recipientID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking request existence: %w", err)
	}
	if exists {
		return nil, ErrRequestExists
	}

	request := &models.FriendRequest{}
	err = s.db.QueryRow(ctx,
		`INSERT INTO friend_requests (sender_id, recipient_id, status)
		 VALUES ($1, $2, 'pending')
		 RETURNING `+requestColumns,
		senderID, recipientID,
	).Scan(requestDests(request)...)
	if isUniqueViolation(err) {
		// Lost a race with a concurrent request for the same pair.
		return nil, ErrRequestExists
	}
	if isForeignKeyViolation(err) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("creating friend request: %w", err)
	}

	return request, nil
}

func (s *FriendRequestService) GetByID(ctx context.Context, requestID uuid.UUID) (*models.FriendRequest, error) {
	request := &models.FriendRequest{}
	err := s.db.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM friend_requests WHERE id = $1`,
		requestID,
	).Scan(requestDests(request)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting friend request: %w", err)
	}
	return request, nil
}

// Accept transitions a pending request to accepted. The transition is a
// conditional write on status, so of two raced accepts exactly one
// succeeds and the other observes ErrRequestNotPending.
func (s *FriendRequestService) Accept(ctx context.Context, requestID, actingUserID uuid.UUID) (*models.FriendRequest, error) {
	request, err := s.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.RecipientID != actingUserID {
		return nil, ErrNotRecipient
	}
	if request.Status != models.FriendRequestStatusPending {
		return nil, ErrRequestNotPending
	}

	updated := &models.FriendRequest{}
	err = s.db.QueryRow(ctx,
		`UPDATE friend_requests
		 SET status = 'accepted', handled_at = NOW()
		 WHERE id = $1 AND status = 'pending'
		 RETURNING `+requestColumns,
		requestID,
	).Scan(requestDests(updated)...)
	if errors.Is(err, pgx.ErrNoRows) {
		// Raced with another accept or a reject since the read above.
		return nil, s.staleRequestError(ctx, requestID)
	}
	if err != nil {
		return nil, fmt.Errorf("accepting friend request: %w", err)
	}

	return updated, nil
}

// Reject deletes a pending request. Rejection is a dismissal, not a
// cool-down: the pair may immediately send a fresh request.
func (s *FriendRequestService) Reject(ctx context.Context, requestID, actingUserID uuid.UUID) error {
	request, err := s.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if request.RecipientID != actingUserID {
		return ErrNotRecipient
	}
	if request.Status != models.FriendRequestStatusPending {
		return ErrRequestNotPending
	}

	result, err := s.db.Exec(ctx,
		"DELETE FROM friend_requests WHERE id = $1 AND status = 'pending'",
		requestID,
	)
	if err != nil {
		return fmt.Errorf("rejecting friend request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return s.staleRequestError(ctx, requestID)
	}

	return nil
}

// Reopen reverses an accepted transition back to pending. Used only as
// compensation when edge materialization could not complete.
func (s *FriendRequestService) Reopen(ctx context.Context, requestID uuid.UUID) error {
	result, err := s.db.Exec(ctx,
		`UPDATE friend_requests
		 SET status = 'pending', handled_at = NULL
		 WHERE id = $1 AND status = 'accepted'`,
		requestID,
	)
	if err != nil {
		return fmt.Errorf("reopening friend request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// ListIncoming returns pending requests addressed to the user, oldest
// first, each annotated with the sender's card.
func (s *FriendRequestService) ListIncoming(ctx context.Context, userID uuid.UUID) ([]models.IncomingRequest, error) {
	rows, err := s.db.Query(ctx,
		`SELECT r.id, r.sender_id, r.recipient_id, r.status, r.created_at, r.handled_at,
		        u.id, u.full_name, u.profile_pic, u.native_language, u.learning_language, u.location
		 FROM friend_requests r
		 JOIN users u ON u.id = r.sender_id
		 WHERE r.recipient_id = $1 AND r.status = 'pending'
		 ORDER BY r.created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing incoming requests: %w", err)
	}
	defer rows.Close()

	var requests []models.IncomingRequest
	for rows.Next() {
		var req models.IncomingRequest
		dests := append(requestDests(&req.FriendRequest),
			&req.Sender.ID, &req.Sender.FullName, &req.Sender.ProfilePic,
			&req.Sender.NativeLanguage, &req.Sender.LearningLanguage, &req.Sender.Location,
		)
		if err := rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("scanning incoming request: %w", err)
		}
		requests = append(requests, req)
	}
	if requests == nil {
		requests = []models.IncomingRequest{}
	}
	return requests, nil
}

// ListOutgoingAccepted returns requests the user sent that were accepted,
// used to render "new connections" notifications.
func (s *FriendRequestService) ListOutgoingAccepted(ctx context.Context, userID uuid.UUID) ([]models.AcceptedRequest, error) {
	rows, err := s.db.Query(ctx,
		`SELECT r.id, r.sender_id, r.recipient_id, r.status, r.created_at, r.handled_at,
		        u.id, u.full_name, u.profile_pic, u.native_language, u.learning_language, u.location
		 FROM friend_requests r
		 JOIN users u ON u.id = r.recipient_id
		 WHERE r.sender_id = $1 AND r.status = 'accepted'
		 ORDER BY r.handled_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing accepted requests: %w", err)
	}
	defer rows.Close()

	var requests []models.AcceptedRequest
	for rows.Next() {
		var req models.AcceptedRequest
		dests := append(requestDests(&req.FriendRequest),
			&req.Recipient.ID, &req.Recipient.FullName, &req.Recipient.ProfilePic,
			&req.Recipient.NativeLanguage, &req.Recipient.LearningLanguage, &req.Recipient.Location,
		)
		if err := rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("scanning accepted request: %w", err)
		}
		requests = append(requests, req)
	}
	if requests == nil {
		requests = []models.AcceptedRequest{}
	}
	return requests, nil
}

// ListOutgoingPending returns the user's own unanswered requests, so the
// frontend can mark already-requested users.
func (s *FriendRequestService) ListOutgoingPending(ctx context.Context, userID uuid.UUID) ([]models.FriendRequest, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+requestColumns+`
		 FROM friend_requests
		 WHERE sender_id = $1 AND status = 'pending'
		 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing outgoing requests: %w", err)
	}
	defer rows.Close()

	var requests []models.FriendRequest
	for rows.Next() {
		var req models.FriendRequest
		if err := rows.Scan(requestDests(&req)...); err != nil {
			return nil, fmt.Errorf("scanning outgoing request: %w", err)
		}
		requests = append(requests, req)
	}
	if requests == nil {
		requests = []models.FriendRequest{}
	}
	return requests, nil
}

// DeletePair removes whatever request record exists for the unordered
// pair, freeing the pair to exchange a fresh request after unfriending.
func (s *FriendRequestService) DeletePair(ctx context.Context, a, b uuid.UUID) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM friend_requests
		 WHERE (sender_id = $1 AND recipient_id = $2)
		    OR (sender_id = $2 AND recipient_id = $1)`,
		a, b,
	)
	if err != nil {
		return fmt.Errorf("deleting friend request pair: %w", err)
	}
	return nil
}

// staleRequestError reports why a conditional write on a request matched
// nothing: the record is gone, or it left pending in the meantime.
func (s *FriendRequestService) staleRequestError(ctx context.Context, requestID uuid.UUID) error {
	if _, err := s.GetByID(ctx, requestID); errors.Is(err, ErrRequestNotFound) {
		return ErrRequestNotFound
	}
	return ErrRequestNotPending
}

func requestDests(r *models.FriendRequest) []any {
	return []any{&r.ID, &r.SenderID, &r.RecipientID, &r.Status, &r.CreatedAt, &r.HandledAt}
}
