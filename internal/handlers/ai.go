package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/whatsup-app/whatsup/internal/models"
	"github.com/whatsup-app/whatsup/internal/services/ai"
)

// NexaService is the slice of the AI tutor the handler needs.
type NexaService interface {
	Ask(ctx context.Context, userID uuid.UUID, userName, message string) (string, error)
	History(ctx context.Context, userID uuid.UUID, limit int) ([]models.Message, error)
}

type AIHandler struct {
	nexa NexaService
}

func NewAIHandler(nexa NexaService) *AIHandler {
	return &AIHandler{nexa: nexa}
}

type AskNexaRequest struct {
	Message string `json:"message"`
}

type AskNexaResponse struct {
	Reply string `json:"reply"`
}

type NexaHistoryResponse struct {
	Messages []models.Message `json:"messages"`
}

// Ask handles POST /api/nexa.
func (h *AIHandler) Ask(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req AskNexaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	reply, err := h.nexa.Ask(r.Context(), user.ID, user.FullName, req.Message)
	if errors.Is(err, ai.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}
	if errors.Is(err, ai.ErrRateLimitExceeded) {
		writeError(w, http.StatusTooManyRequests, "Nexa is getting too many questions right now, try again shortly")
		return
	}
	if errors.Is(err, ai.ErrSafetyViolation) {
		writeError(w, http.StatusBadRequest, "Nexa can't answer that")
		return
	}
	if errors.Is(err, ai.ErrAINotConfigured) || errors.Is(err, ai.ErrAIProviderUnavailable) {
		writeError(w, http.StatusServiceUnavailable, "Nexa is unavailable right now")
		return
	}
	if err != nil {
		log.Printf("Error asking Nexa: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, AskNexaResponse{Reply: reply})
}

// History handles GET /api/nexa/history.
func (h *AIHandler) History(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	messages, err := h.nexa.History(r.Context(), user.ID, limit)
	if err != nil {
		log.Printf("Error loading Nexa history: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, NexaHistoryResponse{Messages: messages})
}
