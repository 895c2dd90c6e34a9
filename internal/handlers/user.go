package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/whatsup-app/whatsup/internal/models"
	"github.com/whatsup-app/whatsup/internal/services"
)

type UserHandler struct {
	userService services.UserServiceInterface
}

func NewUserHandler(userService services.UserServiceInterface) *UserHandler {
	return &UserHandler{userService: userService}
}

type UsersResponse struct {
	Users []models.UserCard `json:"users"`
}

type FriendsResponse struct {
	Friends []models.UserCard `json:"friends"`
}

// Recommended handles GET /api/users: onboarded users who are neither
// the caller nor already their friends.
func (h *UserHandler) Recommended(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	users, err := h.userService.ListRecommended(r.Context(), user.ID)
	if err != nil {
		log.Printf("Error listing recommended users: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, UsersResponse{Users: users})
}

// Friends handles GET /api/users/friends.
func (h *UserHandler) Friends(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	friends, err := h.userService.ListFriends(r.Context(), user.ID)
	if err != nil {
		log.Printf("Error listing friends: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, FriendsResponse{Friends: friends})
}

type UpdateProfilePicRequest struct {
	ProfilePic string `json:"profile_pic"`
}

// UpdateProfilePic handles PUT /api/users/profile-pic.
func (h *UserHandler) UpdateProfilePic(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req UpdateProfilePicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	pic := strings.TrimSpace(req.ProfilePic)
	if pic == "" {
		writeError(w, http.StatusBadRequest, "profile_pic is required")
		return
	}
	if !strings.HasPrefix(pic, "http://") && !strings.HasPrefix(pic, "https://") {
		writeError(w, http.StatusBadRequest, "profile_pic must be a URL")
		return
	}

	if err := h.userService.UpdateProfilePic(r.Context(), user.ID, pic); err != nil {
		log.Printf("Error updating profile pic: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"profile_pic": pic})
}
