package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/whatsup-app/whatsup/internal/logging"
	"github.com/whatsup-app/whatsup/internal/models"
)

// ErrStorageUnavailable reports that a write could not be completed even
// after retries. Callers should map it to a retryable response.
var ErrStorageUnavailable = errors.New("storage unavailable")

const (
	materializeAttempts = 3
	materializeBackoff  = 50 * time.Millisecond
)

type requestLedger interface {
	Create(ctx context.Context, senderID, recipientID uuid.UUID) (*models.FriendRequest, error)
	GetByID(ctx context.Context, requestID uuid.UUID) (*models.FriendRequest, error)
	Accept(ctx context.Context, requestID, actingUserID uuid.UUID) (*models.FriendRequest, error)
	Reject(ctx context.Context, requestID, actingUserID uuid.UUID) error
	Reopen(ctx context.Context, requestID uuid.UUID) error
	DeletePair(ctx context.Context, a, b uuid.UUID) error
	ListIncoming(ctx context.Context, userID uuid.UUID) ([]models.IncomingRequest, error)
	ListOutgoingAccepted(ctx context.Context, userID uuid.UUID) ([]models.AcceptedRequest, error)
	ListOutgoingPending(ctx context.Context, userID uuid.UUID) ([]models.FriendRequest, error)
}

type graphMutator interface {
	Materialize(ctx context.Context, a, b uuid.UUID) error
	Sever(ctx context.Context, a, b uuid.UUID) error
}

type identityReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type requestNotifier interface {
	SendFriendRequestReceived(ctx context.Context, recipient *models.User, sender *models.User) error
}

// FriendLifecycleService drives the friend request state machine across
// the ledger and the graph. It is the only caller of graph mutations, so
// every edge in friend_edges traces back to an accepted request.
type FriendLifecycleService struct {
	ledger   requestLedger
	graph    graphMutator
	users    identityReader
	notifier requestNotifier
	async    func(fn func())
	asyncCtx context.Context
}

func NewFriendLifecycleService(ledger requestLedger, graph graphMutator, users identityReader, notifier requestNotifier) *FriendLifecycleService {
	return &FriendLifecycleService{
		ledger:   ledger,
		graph:    graph,
		users:    users,
		notifier: notifier,
		async: func(fn func()) {
			go fn()
		},
		asyncCtx: context.Background(),
	}
}

// SetAsync overrides how background work is scheduled. Tests use this to
// run notification dispatch synchronously.
func (s *FriendLifecycleService) SetAsync(fn func(fn func())) {
	s.async = fn
}

func (s *FriendLifecycleService) SetAsyncContext(ctx context.Context) {
	if ctx == nil {
		s.asyncCtx = context.Background()
		return
	}
	s.asyncCtx = ctx
}

// SendRequest creates a pending request and notifies the recipient in
// the background. Notification failures never fail the request.
func (s *FriendLifecycleService) SendRequest(ctx context.Context, senderID, recipientID uuid.UUID) (*models.FriendRequest, error) {
	if senderID == recipientID {
		return nil, ErrSelfRequest
	}

	recipient, err := s.users.GetByID(ctx, recipientID)
	if err != nil {
		return nil, err
	}

	request, err := s.ledger.Create(ctx, senderID, recipientID)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.async(func() {
			sender, err := s.users.GetByID(s.asyncCtx, senderID)
			if err != nil {
				logging.Error("loading sender for notification", map[string]interface{}{"error": err.Error()})
				return
			}
			if err := s.notifier.SendFriendRequestReceived(s.asyncCtx, recipient, sender); err != nil {
				logging.Error("sending friend request notification", map[string]interface{}{
					"error":     err.Error(),
					"recipient": recipient.ID.String(),
				})
			}
		})
	}

	return request, nil
}

// AcceptRequest flips the request to accepted, then materializes the
// edge. Materialize is retried; if it still fails the accept is reopened
// so the ledger never claims a friendship the graph does not hold.
func (s *FriendLifecycleService) AcceptRequest(ctx context.Context, requestID, actingUserID uuid.UUID) (*models.FriendRequest, error) {
	request, err := s.ledger.Accept(ctx, requestID, actingUserID)
	if err != nil {
		return nil, err
	}

	if err := s.materializeWithRetry(ctx, request.SenderID, request.RecipientID); err != nil {
		logging.Error("materializing friend edge failed, reopening request", map[string]interface{}{
			"error":      err.Error(),
			"request_id": request.ID.String(),
		})
		if reopenErr := s.ledger.Reopen(ctx, request.ID); reopenErr != nil {
			// The request stays accepted with no edge. Accepting it
			// again is idempotent on the graph side, so a later retry
			// by the user converges.
			logging.Error("reopening friend request failed", map[string]interface{}{
				"error":      reopenErr.Error(),
				"request_id": request.ID.String(),
			})
		}
		return nil, ErrStorageUnavailable
	}

	return request, nil
}

func (s *FriendLifecycleService) materializeWithRetry(ctx context.Context, a, b uuid.UUID) error {
	var err error
	for attempt := 0; attempt < materializeAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(materializeBackoff << (attempt - 1)):
			}
		}
		if err = s.graph.Materialize(ctx, a, b); err == nil {
			return nil
		}
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrSelfRequest) {
			return err
		}
	}
	return fmt.Errorf("after %d attempts: %w", materializeAttempts, err)
}

// RejectRequest dismisses a pending request addressed to the acting user.
func (s *FriendLifecycleService) RejectRequest(ctx context.Context, requestID, actingUserID uuid.UUID) error {
	return s.ledger.Reject(ctx, requestID, actingUserID)
}

// Unfriend severs the edge and clears the ledger record for the pair, so
// either side may start over with a fresh request.
func (s *FriendLifecycleService) Unfriend(ctx context.Context, userID, friendID uuid.UUID) error {
	if err := s.graph.Sever(ctx, userID, friendID); err != nil {
		return err
	}
	return s.ledger.DeletePair(ctx, userID, friendID)
}

// ListRequests returns the user's inbox view: pending requests addressed
// to them plus their own requests that were accepted.
func (s *FriendLifecycleService) ListRequests(ctx context.Context, userID uuid.UUID) ([]models.IncomingRequest, []models.AcceptedRequest, error) {
	incoming, err := s.ledger.ListIncoming(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	accepted, err := s.ledger.ListOutgoingAccepted(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return incoming, accepted, nil
}

// ListOutgoing returns the user's unanswered outgoing requests.
func (s *FriendLifecycleService) ListOutgoing(ctx context.Context, userID uuid.UUID) ([]models.FriendRequest, error) {
	return s.ledger.ListOutgoingPending(ctx, userID)
}
