package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/whatsup-app/whatsup/internal/models"
	"github.com/whatsup-app/whatsup/internal/services"
)

const (
	sessionCookieName = "session_token"
	cookieMaxAge      = 30 * 24 * 60 * 60 // 30 days in seconds
)

type AuthHandler struct {
	userService  services.UserServiceInterface
	authService  services.AuthServiceInterface
	emailService services.EmailServiceInterface
	chatService  services.ChatServiceInterface
	secure       bool // Use secure cookies (HTTPS only)
}

func NewAuthHandler(userService services.UserServiceInterface, authService services.AuthServiceInterface, emailService services.EmailServiceInterface, chatService services.ChatServiceInterface, secure bool) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		authService:  authService,
		emailService: emailService,
		chatService:  chatService,
		secure:       secure,
	}
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type OnboardRequest struct {
	FullName         string `json:"full_name"`
	Bio              string `json:"bio"`
	NativeLanguage   string `json:"native_language"`
	LearningLanguage string `json:"learning_language"`
	Location         string `json:"location"`
}

type AuthResponse struct {
	User    *models.User `json:"user,omitempty"`
	Message string       `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid email address")
		return
	}

	if err := validatePassword(req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	if len(req.FullName) < 2 || len(req.FullName) > 100 {
		writeError(w, http.StatusBadRequest, "Full name must be between 2 and 100 characters")
		return
	}

	passwordHash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	user, err := h.userService.Create(r.Context(), models.CreateUserParams{
		Email:        req.Email,
		PasswordHash: passwordHash,
		FullName:     req.FullName,
		ProfilePic:   randomAvatarURL(),
	})
	if errors.Is(err, services.ErrEmailAlreadyExists) {
		writeError(w, http.StatusConflict, "Email already registered")
		return
	}
	if err != nil {
		log.Printf("Error creating user: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// Mirror identity into Stream so the user can chat right away.
	// Failure here should not block signup.
	if h.chatService != nil {
		if err := h.chatService.UpsertUser(r.Context(), user); err != nil {
			log.Printf("Error creating stream user: %v", err)
		}
	}

	token, err := h.authService.CreateSession(r.Context(), user.ID)
	if err != nil {
		log.Printf("Error creating session: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// Send welcome email in the background. The request context is
	// canceled once the response is written, so use a fresh one.
	if h.emailService != nil {
		go func() {
			if err := h.emailService.SendWelcomeEmail(context.Background(), user); err != nil {
				log.Printf("Error sending welcome email: %v", err)
			}
		}()
	}

	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusCreated, AuthResponse{User: user})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	user, err := h.userService.GetByEmail(r.Context(), req.Email)
	if errors.Is(err, services.ErrUserNotFound) {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		log.Printf("Error getting user: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if !h.authService.VerifyPassword(user.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := h.authService.CreateSession(r.Context(), user.ID)
	if err != nil {
		log.Printf("Error creating session: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, AuthResponse{User: user})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil && cookie.Value != "" {
		_ = h.authService.DeleteSession(r.Context(), cookie.Value)
	}

	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, AuthResponse{Message: "Logged out successfully"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{User: user})
}

// Onboard completes the profile with the language-exchange fields. Only
// onboarded users show up in partner recommendations.
func (h *AuthHandler) Onboard(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req OnboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	params := models.OnboardParams{
		FullName:         strings.TrimSpace(req.FullName),
		Bio:              strings.TrimSpace(req.Bio),
		NativeLanguage:   strings.TrimSpace(req.NativeLanguage),
		LearningLanguage: strings.TrimSpace(req.LearningLanguage),
		Location:         strings.TrimSpace(req.Location),
	}
	if missing := missingOnboardFields(params); len(missing) > 0 {
		writeError(w, http.StatusBadRequest, "All fields are required: "+strings.Join(missing, ", "))
		return
	}

	updated, err := h.userService.Onboard(r.Context(), user.ID, params)
	if errors.Is(err, services.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		log.Printf("Error onboarding user: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if h.chatService != nil {
		if err := h.chatService.UpsertUser(r.Context(), updated); err != nil {
			log.Printf("Error updating stream user: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, AuthResponse{User: updated})
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !h.authService.VerifyPassword(user.PasswordHash, req.CurrentPassword) {
		writeError(w, http.StatusUnauthorized, "Current password is incorrect")
		return
	}

	if err := validatePassword(req.NewPassword); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	newHash, err := h.authService.HashPassword(req.NewPassword)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.userService.UpdatePassword(r.Context(), user.ID, newHash); err != nil {
		log.Printf("Error updating password: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// Invalidate every other session, then issue a fresh one.
	if err := h.authService.DeleteAllUserSessions(r.Context(), user.ID); err != nil {
		log.Printf("Error deleting sessions: %v", err)
	}
	token, err := h.authService.CreateSession(r.Context(), user.ID)
	if err != nil {
		log.Printf("Error creating session: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, AuthResponse{Message: "Password changed successfully"})
}

// ForgotPassword always responds 200 so the endpoint cannot be used to
// probe which emails have accounts.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	response := AuthResponse{Message: "If that email has an account, a reset link is on its way"}

	user, err := h.userService.GetByEmail(r.Context(), req.Email)
	if errors.Is(err, services.ErrUserNotFound) {
		writeJSON(w, http.StatusOK, response)
		return
	}
	if err != nil {
		log.Printf("Error getting user: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	token, err := h.authService.CreatePasswordResetToken(r.Context(), user.ID)
	if err != nil {
		log.Printf("Error creating reset token: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if h.emailService != nil {
		go func() {
			if err := h.emailService.SendPasswordResetEmail(context.Background(), user.Email, token); err != nil {
				log.Printf("Error sending reset email: %v", err)
			}
		}()
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validatePassword(req.NewPassword); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID, err := h.authService.ConsumePasswordResetToken(r.Context(), req.Token)
	if errors.Is(err, services.ErrResetTokenInvalid) {
		writeError(w, http.StatusBadRequest, "Reset link is invalid or has expired")
		return
	}
	if err != nil {
		log.Printf("Error consuming reset token: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	newHash, err := h.authService.HashPassword(req.NewPassword)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.userService.UpdatePassword(r.Context(), userID, newHash); err != nil {
		log.Printf("Error updating password: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.authService.DeleteAllUserSessions(r.Context(), userID); err != nil {
		log.Printf("Error deleting sessions: %v", err)
	}

	writeJSON(w, http.StatusOK, AuthResponse{Message: "Password reset successfully"})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Unix(0, 0),
	})
}

// randomAvatarURL picks one of the hundred stock avatars every new
// account starts with.
func randomAvatarURL() string {
	return fmt.Sprintf("https://avatar.iran.liara.run/public/%d.png", rand.Intn(100)+1)
}

func missingOnboardFields(p models.OnboardParams) []string {
	var missing []string
	if p.FullName == "" {
		missing = append(missing, "full_name")
	}
	if p.Bio == "" {
		missing = append(missing, "bio")
	}
	if p.NativeLanguage == "" {
		missing = append(missing, "native_language")
	}
	if p.LearningLanguage == "" {
		missing = append(missing, "learning_language")
	}
	if p.Location == "" {
		missing = append(missing, "location")
	}
	return missing
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if len([]byte(password)) > 72 {
		return errors.New("password must be at most 72 bytes")
	}

	var hasUpper, hasLower, hasDigit bool
	for _, c := range password {
		switch {
		case unicode.IsUpper(c):
			hasUpper = true
		case unicode.IsLower(c):
			hasLower = true
		case unicode.IsDigit(c):
			hasDigit = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit {
		return errors.New("password must contain at least one uppercase letter, one lowercase letter, and one digit")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
