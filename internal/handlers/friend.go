package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/whatsup-app/whatsup/internal/models"
	"github.com/whatsup-app/whatsup/internal/services"
)

type FriendHandler struct {
	lifecycle services.FriendLifecycleInterface
}

func NewFriendHandler(lifecycle services.FriendLifecycleInterface) *FriendHandler {
	return &FriendHandler{lifecycle: lifecycle}
}

type FriendRequestResponse struct {
	Request *models.FriendRequest `json:"request,omitempty"`
	Message string                `json:"message,omitempty"`
}

type NotificationsResponse struct {
	IncomingRequests []models.IncomingRequest `json:"incoming_requests"`
	AcceptedRequests []models.AcceptedRequest `json:"accepted_requests"`
}

type OutgoingRequestsResponse struct {
	Requests []models.FriendRequest `json:"requests"`
}

// SendRequest handles POST /api/users/{id}/friend-request.
func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	recipientID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	request, err := h.lifecycle.SendRequest(r.Context(), user.ID, recipientID)
	if errors.Is(err, services.ErrSelfRequest) {
		writeError(w, http.StatusBadRequest, "You can't send a friend request to yourself")
		return
	}
	if errors.Is(err, services.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if errors.Is(err, services.ErrAlreadyFriends) {
		writeError(w, http.StatusBadRequest, "You are already friends with this user")
		return
	}
	if errors.Is(err, services.ErrRequestExists) {
		writeError(w, http.StatusConflict, "A friend request already exists between you and this user")
		return
	}
	if err != nil {
		log.Printf("Error sending friend request: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, FriendRequestResponse{Request: request, Message: "Friend request sent"})
}

// AcceptRequest handles PUT /api/friend-requests/{id}/accept.
func (h *FriendHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	requestID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	request, err := h.lifecycle.AcceptRequest(r.Context(), requestID, user.ID)
	if errors.Is(err, services.ErrRequestNotFound) {
		writeError(w, http.StatusNotFound, "Friend request not found")
		return
	}
	if errors.Is(err, services.ErrNotRecipient) {
		writeError(w, http.StatusForbidden, "Only the recipient can accept this request")
		return
	}
	if errors.Is(err, services.ErrRequestNotPending) {
		writeError(w, http.StatusBadRequest, "Request is not pending")
		return
	}
	if errors.Is(err, services.ErrStorageUnavailable) {
		writeError(w, http.StatusServiceUnavailable, "Could not complete the request, please try again")
		return
	}
	if err != nil {
		log.Printf("Error accepting friend request: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, FriendRequestResponse{Request: request, Message: "Friend request accepted"})
}

// RejectRequest handles PUT /api/friend-requests/{id}/reject.
func (h *FriendHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	requestID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	err = h.lifecycle.RejectRequest(r.Context(), requestID, user.ID)
	if errors.Is(err, services.ErrRequestNotFound) {
		writeError(w, http.StatusNotFound, "Friend request not found")
		return
	}
	if errors.Is(err, services.ErrNotRecipient) {
		writeError(w, http.StatusForbidden, "Only the recipient can reject this request")
		return
	}
	if errors.Is(err, services.ErrRequestNotPending) {
		writeError(w, http.StatusBadRequest, "Request is not pending")
		return
	}
	if err != nil {
		log.Printf("Error rejecting friend request: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, FriendRequestResponse{Message: "Friend request rejected"})
}

// Notifications handles GET /api/friend-requests: pending requests
// addressed to the user plus their requests that were accepted.
func (h *FriendHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	incoming, accepted, err := h.lifecycle.ListRequests(r.Context(), user.ID)
	if err != nil {
		log.Printf("Error listing friend requests: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, NotificationsResponse{
		IncomingRequests: incoming,
		AcceptedRequests: accepted,
	})
}

// Outgoing handles GET /api/friend-requests/outgoing.
func (h *FriendHandler) Outgoing(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	requests, err := h.lifecycle.ListOutgoing(r.Context(), user.ID)
	if err != nil {
		log.Printf("Error listing outgoing requests: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, OutgoingRequestsResponse{Requests: requests})
}

// Unfriend handles DELETE /api/friends/{id}.
func (h *FriendHandler) Unfriend(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	friendID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := h.lifecycle.Unfriend(r.Context(), user.ID, friendID); err != nil {
		log.Printf("Error unfriending: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, FriendRequestResponse{Message: "Friend removed"})
}
