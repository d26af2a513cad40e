package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"guardianai/internal/config"
	"guardianai/internal/database"
	"guardianai/internal/handlers"
	"guardianai/internal/kvstore"
	"guardianai/internal/repository"
	"guardianai/internal/security"
	"guardianai/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize storage (supports sqlite, postgres, mysql, memory)
	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer closeStore()

	log.Printf("Storage ready (type: %s)", cfg.DatabaseType)

	// Initialize repositories
	familyStore := repository.NewFamilyStore(store)
	userRepo := repository.NewUserRepository(store)
	alertRepo := repository.NewAlertRepository(store)
	reportRepo := repository.NewReportRepository(store)

	// Initialize services
	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	inviteTokens := security.NewInviteTokens(cfg.SessionSecret, cfg.InviteTokenTTL)
	authService := service.NewAuthService(userRepo, cfg.SessionDuration)
	directoryService := service.NewDirectoryService(familyStore, alertRepo, reportRepo, emailService, userRepo, inviteTokens)
	chatService := service.NewChatService(nil)

	oauthProviders := map[string]handlers.OAuthProvider{
		"google": {
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		},
	}

	// Initialize handlers
	rateLimiter := security.NewRateLimiter(10, time.Minute)
	middleware := handlers.NewMiddleware(authService, rateLimiter)
	authHandler := handlers.NewAuthHandler(authService, emailService, oauthProviders, cfg.OAuthRedirectBaseURL)
	familyHandler := handlers.NewFamilyHandler(directoryService)
	dashboardHandler := handlers.NewDashboardHandler(directoryService)
	alertHandler := handlers.NewAlertHandler(alertRepo)
	reportHandler := handlers.NewReportHandler(reportRepo)
	chatHandler := handlers.NewChatHandler(chatService)

	// Setup routes
	mux := http.NewServeMux()

	// Auth routes
	mux.HandleFunc("POST /api/auth/register", middleware.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /api/auth/login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/auth/me", middleware.RequireAuth(authHandler.Me))
	mux.HandleFunc("GET /auth/{provider}/start", authHandler.StartOAuth)
	mux.HandleFunc("GET /auth/{provider}/callback", authHandler.OAuthCallback)

	// Family routes
	mux.HandleFunc("POST /api/families", middleware.RequireAuth(familyHandler.CreateFamily))
	mux.HandleFunc("GET /api/families", middleware.RequireAuth(familyHandler.ListFamilies))
	mux.HandleFunc("GET /api/families/{id}", middleware.RequireAuth(familyHandler.GetFamily))
	mux.HandleFunc("POST /api/families/{id}/members", middleware.RequireAuth(familyHandler.AddMember))
	mux.HandleFunc("PUT /api/families/{id}/members/{memberId}", middleware.RequireAuth(familyHandler.UpdateMember))
	mux.HandleFunc("DELETE /api/families/{id}/members/{memberId}", middleware.RequireAuth(familyHandler.RemoveMember))
	mux.HandleFunc("POST /api/invitations/accept", middleware.RequireAuth(familyHandler.AcceptInvitation))

	// Dashboard routes
	mux.HandleFunc("GET /api/families/{id}/summary", middleware.RequireAuth(dashboardHandler.Summary))

	// Alert and report feeds
	mux.HandleFunc("POST /api/users/{userId}/alerts", middleware.RequireAuth(alertHandler.CreateAlert))
	mux.HandleFunc("GET /api/users/{userId}/alerts", middleware.RequireAuth(alertHandler.ListAlerts))
	mux.HandleFunc("POST /api/users/{userId}/alerts/{alertId}/resolve", middleware.RequireAuth(alertHandler.ResolveAlert))
	mux.HandleFunc("POST /api/users/{userId}/reports", middleware.RequireAuth(reportHandler.AppendReport))
	mux.HandleFunc("GET /api/users/{userId}/reports", middleware.RequireAuth(reportHandler.ListReports))

	// Chat routes
	mux.HandleFunc("POST /api/chat/messages", middleware.RequireAuth(chatHandler.PostMessage))
	mux.HandleFunc("GET /api/chat/messages", middleware.RequireAuth(chatHandler.History))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background session cleanup
	go cleanupExpiredSessions(authService)

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
}

// openStore builds the key/value store for the configured database
// type. "memory" runs without a database for local development.
func openStore(cfg *config.Config) (kvstore.Store, func(), error) {
	if strings.ToLower(cfg.DatabaseType) == "memory" {
		return kvstore.NewMemoryStore(), func() {}, nil
	}

	db, err := database.Open(cfg.DatabaseType, cfg.DatabaseURL, cfg.DatabasePath)
	if err != nil {
		return nil, nil, err
	}
	if err := db.EnsureSchema(); err != nil {
		db.Close()
		return nil, nil, err
	}
	return kvstore.NewSQLStore(db), func() { db.Close() }, nil
}

// cleanupExpiredSessions periodically removes expired sessions
func cleanupExpiredSessions(authService *service.AuthService) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if err := authService.CleanupExpiredSessions(); err != nil {
			log.Printf("Error cleaning up expired sessions: %v", err)
		} else {
			log.Println("Expired sessions cleaned up")
		}
	}
}
