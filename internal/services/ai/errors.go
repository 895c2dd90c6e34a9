package ai

import "errors"

var (
	ErrAINotConfigured       = errors.New("AI assistant is not configured")       // 503
	ErrAIProviderUnavailable = errors.New("AI provider is currently unavailable") // 503
	ErrSafetyViolation       = errors.New("response violated safety policies")    // 400
	ErrRateLimitExceeded     = errors.New("rate limit exceeded")                  // 429
	ErrInvalidInput          = errors.New("invalid input parameters")             // 400
)
