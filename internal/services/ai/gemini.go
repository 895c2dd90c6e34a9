package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/whatsup-app/whatsup/internal/config"
	"github.com/whatsup-app/whatsup/internal/logging"
	"github.com/whatsup-app/whatsup/internal/models"
)

const (
	geminiModel    = "gemini-1.5-flash"
	historyLimit   = 20
	maxMessageLen  = 2000
	requestTimeout = 30 * time.Second
)

var geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

const nexaSystemPrompt = `You are Nexa, a helpful AI assistant whose sole purpose is to help users learn new languages, including vocabulary, grammar, sentence structure, translation, pronunciation tips, and language practice.
You must politely decline to answer questions that are NOT related to language learning.

Examples of things you should help with:
- "How do I say 'thank you' in Japanese?"
- "What's the difference between 'ser' and 'estar' in Spanish?"
- "Can you help me practice French conversation?"

Examples of things you should NOT answer:
- "Who is the father of SRK?"
- "What's the capital of France?"
- "Tell me a joke."

Always respond clearly, encouragingly, and stay strictly within the scope of language learning.`

// Service is the Nexa language tutor. It proxies a single-user
// conversation to Gemini with the tutor persona pinned as the system
// instruction, and persists the transcript so context survives restarts.
type Service struct {
	apiKey string
	client *http.Client
	db     *pgxpool.Pool
}

func NewService(cfg *config.Config, db *pgxpool.Pool) *Service {
	return &Service{
		apiKey: cfg.AI.GeminiAPIKey,
		client: &http.Client{Timeout: requestTimeout},
		db:     db,
	}
}

// Gemini API request/response structs

type geminiRequest struct {
	Contents          []geminiContent          `json:"contents"`
	GenerationConfig  geminiGenerationConfig   `json:"generationConfig"`
	SafetySettings    []geminiSafetySetting    `json:"safetySettings"`
	SystemInstruction *geminiSystemInstruction `json:"systemInstruction,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiSystemInstruction struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature float64 `json:"temperature"`
}

type geminiSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
	Usage      geminiUsage       `json:"usageMetadata"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type geminiUsage struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// Ask sends the user's message to Nexa and returns the reply. Both sides
// of the exchange are persisted; persistence failures are logged but do
// not lose the reply.
func (s *Service) Ask(ctx context.Context, userID uuid.UUID, userName, message string) (string, error) {
	if strings.TrimSpace(s.apiKey) == "" {
		logging.Warn("Gemini API key missing; Nexa unavailable", map[string]interface{}{
			"user_id": userID.String(),
		})
		return "", ErrAINotConfigured
	}

	message = sanitizeInput(message)
	if message == "" {
		return "", fmt.Errorf("%w: empty message", ErrInvalidInput)
	}

	contents, err := s.loadHistory(ctx, userID)
	if err != nil {
		// History is a nicety; an empty context still produces a
		// usable answer.
		logging.Error("Failed to load Nexa history", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID.String(),
		})
		contents = nil
	}
	contents = append(contents, geminiContent{
		Role:  "user",
		Parts: []geminiPart{{Text: fmt.Sprintf("%s: %s", userName, message)}},
	})

	reqBody := geminiRequest{
		SystemInstruction: &geminiSystemInstruction{
			Parts: []geminiPart{{Text: nexaSystemPrompt}},
		},
		Contents: contents,
		GenerationConfig: geminiGenerationConfig{
			Temperature: 0.7,
		},
		SafetySettings: []geminiSafetySetting{
			{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
			{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
			{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
			{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: failed to marshal request", ErrAIProviderUnavailable)
	}

	logging.Info("Sending request to Gemini", map[string]interface{}{
		"user_id":        userID.String(),
		"message_length": len(message),
		"history_turns":  len(contents) - 1,
	})

	url := fmt.Sprintf("%s/%s:generateContent", geminiBaseURL, geminiModel)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAIProviderUnavailable, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: status %d", ErrRateLimitExceeded, resp.StatusCode)
		}
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		logging.Error("Gemini non-200 response", map[string]interface{}{
			"user_id": userID.String(),
			"status":  resp.StatusCode,
			"body":    string(bodyBytes),
		})
		return "", fmt.Errorf("%w: status %d", ErrAIProviderUnavailable, resp.StatusCode)
	}

	var geminiResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return "", fmt.Errorf("%w: failed to decode response", ErrAIProviderUnavailable)
	}

	if len(geminiResp.Candidates) == 0 {
		return "", ErrSafetyViolation
	}
	candidate := geminiResp.Candidates[0]
	if candidate.FinishReason == "SAFETY" {
		return "", ErrSafetyViolation
	}
	if len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty content parts", ErrAIProviderUnavailable)
	}

	reply := strings.TrimSpace(candidate.Content.Parts[0].Text)

	s.persistExchange(userID, message, reply)

	return reply, nil
}

// History returns the user's conversation with Nexa, oldest first.
func (s *Service) History(ctx context.Context, userID uuid.UUID, limit int) ([]models.Message, error) {
	if s.db == nil {
		return []models.Message{}, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, content, from_user, created_at
		FROM messages
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying message history: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.UserID, &m.Content, &m.FromUser, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}

	// Reverse into chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}

// loadHistory converts the recent transcript into Gemini content turns.
func (s *Service) loadHistory(ctx context.Context, userID uuid.UUID) ([]geminiContent, error) {
	if s.db == nil {
		return nil, nil
	}

	messages, err := s.History(ctx, userID, historyLimit)
	if err != nil {
		return nil, err
	}

	var contents []geminiContent
	for _, m := range messages {
		role := "model"
		if m.FromUser {
			role = "user"
		}
		contents = append(contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: m.Content}},
		})
	}
	return contents, nil
}

func (s *Service) persistExchange(userID uuid.UUID, message, reply string) {
	if s.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := s.db.Exec(ctx, `
		INSERT INTO messages (user_id, content, from_user)
		VALUES ($1, $2, true), ($1, $3, false)
	`, userID, message, reply)
	if err != nil {
		logging.Error("Failed to persist Nexa exchange", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID.String(),
		})
	}
}

// sanitizeInput collapses whitespace and bounds message length, rune
// aware.
func sanitizeInput(input string) string {
	input = strings.TrimSpace(input)
	input = strings.Join(strings.Fields(input), " ")

	if len([]rune(input)) > maxMessageLen {
		input = string([]rune(input)[:maxMessageLen])
	}

	return input
}
