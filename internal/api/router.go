package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/beforeafter/internal/api/handler"
	"github.com/mcoot/beforeafter/internal/api/middleware"
	httpmw "github.com/mcoot/beforeafter/internal/middleware"
	"github.com/mcoot/beforeafter/internal/services/auth"
	"github.com/mcoot/beforeafter/internal/services/play"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	AuthService *auth.Service
	Controller  play.ControllerInterface
	Guesses     handler.GuessLister
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.AuthService, cfg.Controller, cfg.Logger)
	sessionHandler := handler.NewSessionHandler(cfg.Controller, cfg.Guesses)
	scoreHandler := handler.NewScoreHandler(cfg.Controller)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := httpmw.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(loggingMiddleware)
	api.Use(recoveryMiddleware)

	// Registering a device is the only unauthenticated player route
	api.HandleFunc("/players/guest", playerHandler.CreateGuest).Methods(http.MethodPost)

	// Sign-in and sign-out act on the calling device
	players := api.PathPrefix("/players").Subrouter()
	players.Use(authMiddleware)
	players.HandleFunc("/register", playerHandler.Register).Methods(http.MethodPost)
	players.HandleFunc("/login", playerHandler.Login).Methods(http.MethodPost)
	players.HandleFunc("/logout", playerHandler.Logout).Methods(http.MethodPost)
	players.HandleFunc("/me", playerHandler.GetMe).Methods(http.MethodGet)

	// Session routes
	session := api.PathPrefix("/session").Subrouter()
	session.Use(authMiddleware)
	session.HandleFunc("", sessionHandler.Start).Methods(http.MethodPost)
	session.HandleFunc("", sessionHandler.Get).Methods(http.MethodGet)
	session.HandleFunc("", sessionHandler.Abandon).Methods(http.MethodDelete)
	session.HandleFunc("/guess", sessionHandler.Guess).Methods(http.MethodPost)
	session.HandleFunc("/guesses", sessionHandler.Guesses).Methods(http.MethodGet)

	// Score routes
	score := api.PathPrefix("/score").Subrouter()
	score.Use(authMiddleware)
	score.HandleFunc("", scoreHandler.Get).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
