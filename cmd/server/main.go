package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/whatsup-app/whatsup/internal/config"
	"github.com/whatsup-app/whatsup/internal/database"
	"github.com/whatsup-app/whatsup/internal/handlers"
	"github.com/whatsup-app/whatsup/internal/logging"
	"github.com/whatsup-app/whatsup/internal/middleware"
	"github.com/whatsup-app/whatsup/internal/services"
	"github.com/whatsup-app/whatsup/internal/services/ai"
)

func main() {
	if err := run(); err != nil {
		logging.Error("Application error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

func run() error {
	// Local dev keeps credentials in .env; production sets real env vars.
	_ = godotenv.Load()

	logger := logging.New().SetLevel(logging.ParseLevel(os.Getenv("LOG_LEVEL")))
	logging.SetDefaultLevel(logging.ParseLevel(os.Getenv("LOG_LEVEL")))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Info("Starting WhatsUp server...")

	logger.Info("Connecting to PostgreSQL", map[string]interface{}{
		"host": cfg.Database.Host,
		"port": cfg.Database.Port,
	})
	db, err := database.NewPostgresDB(cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	logger.Info("Running database migrations...")
	migrator, err := database.NewMigrator(cfg.Database.DSN(), "migrations")
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		return fmt.Errorf("running migrations: %w", err)
	}
	_ = migrator.Close()
	logger.Info("Migrations completed")

	logger.Info("Connecting to Redis", map[string]interface{}{
		"addr": cfg.Redis.Addr(),
	})
	redisDB, err := database.NewRedisDB(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisDB.Close() }()
	logger.Info("Connected to Redis")

	// Initialize services
	dbAdapter := services.NewPoolAdapter(db.Pool)
	redisAdapter := services.NewRedisAdapter(redisDB.Client)

	userService := services.NewUserService(dbAdapter)
	authService := services.NewAuthService(dbAdapter, redisAdapter, userService)
	emailService := services.NewEmailService(&cfg.Email)
	ledgerService := services.NewFriendRequestService(dbAdapter)
	graphService := services.NewSocialGraphService(dbAdapter)
	lifecycleService := services.NewFriendLifecycleService(ledgerService, graphService, userService, emailService)
	chatService, err := services.NewChatService(&cfg.Stream)
	if err != nil {
		return fmt.Errorf("creating chat service: %w", err)
	}
	paymentService := services.NewPaymentService(dbAdapter, &cfg.Payment)
	aiService := ai.NewService(cfg, db.Pool)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, redisDB)
	authHandler := handlers.NewAuthHandler(userService, authService, emailService, chatService, cfg.Server.Secure)
	userHandler := handlers.NewUserHandler(userService)
	friendHandler := handlers.NewFriendHandler(lifecycleService)
	chatHandler := handlers.NewChatHandler(chatService)
	aiHandler := handlers.NewAIHandler(aiService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(authService)
	securityHeaders := middleware.NewSecurityHeaders(cfg.Server.Secure)
	csrfProtection := middleware.NewCSRF(cfg.Server.Secure)
	compress := middleware.NewCompress()
	requestLogger := middleware.NewRequestLogger(logger)
	authRateLimiter := middleware.NewAuthRateLimiter(redisDB.Client)
	apiRateLimiter := middleware.NewAPIRateLimiter(redisDB.Client)
	nexaRateLimiter := middleware.NewNexaRateLimiter(redisDB.Client)

	requireAuth := authMiddleware.RequireAuth
	requireOnboarded := authMiddleware.RequireOnboarded

	// Set up router
	mux := http.NewServeMux()

	// Health endpoint (no auth, no rate limit)
	mux.HandleFunc("GET /health", healthHandler.Health)

	// CSRF token for the frontend
	mux.HandleFunc("GET /api/csrf", csrfProtection.Token)

	// Auth endpoints
	mux.Handle("POST /api/auth/signup", authRateLimiter.Limit(http.HandlerFunc(authHandler.Signup)))
	mux.Handle("POST /api/auth/login", authRateLimiter.Limit(http.HandlerFunc(authHandler.Login)))
	mux.Handle("POST /api/auth/logout", http.HandlerFunc(authHandler.Logout))
	mux.Handle("GET /api/auth/me", requireAuth(http.HandlerFunc(authHandler.Me)))
	mux.Handle("POST /api/auth/onboarding", requireAuth(http.HandlerFunc(authHandler.Onboard)))
	mux.Handle("POST /api/auth/password", requireAuth(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/forgot-password", authRateLimiter.Limit(http.HandlerFunc(authHandler.ForgotPassword)))
	mux.Handle("POST /api/auth/reset-password", authRateLimiter.Limit(http.HandlerFunc(authHandler.ResetPassword)))

	// User endpoints
	mux.Handle("GET /api/users", requireOnboarded(http.HandlerFunc(userHandler.Recommended)))
	mux.Handle("GET /api/users/friends", requireAuth(http.HandlerFunc(userHandler.Friends)))
	mux.Handle("PUT /api/users/profile-pic", requireAuth(http.HandlerFunc(userHandler.UpdateProfilePic)))

	// Friend request endpoints
	mux.Handle("POST /api/users/{id}/friend-request", requireOnboarded(http.HandlerFunc(friendHandler.SendRequest)))
	mux.Handle("PUT /api/friend-requests/{id}/accept", requireAuth(http.HandlerFunc(friendHandler.AcceptRequest)))
	mux.Handle("PUT /api/friend-requests/{id}/reject", requireAuth(http.HandlerFunc(friendHandler.RejectRequest)))
	mux.Handle("GET /api/friend-requests", requireAuth(http.HandlerFunc(friendHandler.Notifications)))
	mux.Handle("GET /api/friend-requests/outgoing", requireAuth(http.HandlerFunc(friendHandler.Outgoing)))
	mux.Handle("DELETE /api/friends/{id}", requireAuth(http.HandlerFunc(friendHandler.Unfriend)))

	// Chat endpoint
	mux.Handle("GET /api/chat/token", requireAuth(http.HandlerFunc(chatHandler.Token)))

	// Nexa endpoints
	mux.Handle("POST /api/nexa", requireAuth(nexaRateLimiter.LimitByUser(http.HandlerFunc(aiHandler.Ask))))
	mux.Handle("GET /api/nexa/history", requireAuth(http.HandlerFunc(aiHandler.History)))

	// Payment endpoints
	mux.Handle("POST /api/payments/orders", requireAuth(http.HandlerFunc(paymentHandler.CreateOrder)))
	mux.Handle("POST /api/payments/verify", requireAuth(http.HandlerFunc(paymentHandler.VerifyPayment)))

	// Frontend build, with index.html fallback for client routes
	mux.Handle("GET /", handlers.NewSPAHandler("web/dist"))

	// Build middleware chain (order matters: outermost first)
	var handler http.Handler = mux
	handler = apiRateLimiter.Limit(handler)
	handler = authMiddleware.Authenticate(handler)
	handler = csrfProtection.Protect(handler)
	handler = securityHeaders.Apply(handler)
	handler = compress.Apply(handler)
	handler = requestLogger.Apply(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// Nexa calls can legitimately take a while; keep a higher write
		// timeout so the frontend gets a JSON error instead of a dropped
		// connection.
		WriteTimeout: 95 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("Server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Could not gracefully shutdown the server", map[string]interface{}{
				"error": err.Error(),
			})
		}
		close(done)
	}()

	logger.Info("Server listening", map[string]interface{}{
		"addr": addr,
	})
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	logger.Info("Server stopped")
	return nil
}
