package handlers

import (
	"log"
	"net/http"

	"github.com/whatsup-app/whatsup/internal/services"
)

type ChatHandler struct {
	chatService services.ChatServiceInterface
}

func NewChatHandler(chatService services.ChatServiceInterface) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

type ChatTokenResponse struct {
	Token string `json:"token"`
}

// Token handles GET /api/chat/token: the Stream credential the frontend
// uses to connect as the authenticated user.
func (h *ChatHandler) Token(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	token, err := h.chatService.CreateToken(user.ID.String())
	if err != nil {
		log.Printf("Error creating chat token: %v", err)
		writeError(w, http.StatusServiceUnavailable, "Chat service unavailable")
		return
	}

	writeJSON(w, http.StatusOK, ChatTokenResponse{Token: token})
}
