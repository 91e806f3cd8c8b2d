package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/rpsmatch/internal/api/apierr"
	"github.com/mcoot/rpsmatch/internal/api/handler"
	"github.com/mcoot/rpsmatch/internal/api/middleware"
	"github.com/mcoot/rpsmatch/internal/api/response"
	rootmiddleware "github.com/mcoot/rpsmatch/internal/middleware"
	"github.com/mcoot/rpsmatch/internal/session"
	"github.com/mcoot/rpsmatch/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger   *slog.Logger
	Ledger   storage.Ledger
	Registry *session.Registry
	// WebSocket serves game connections at /ws (optional)
	WebSocket http.Handler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewNotFoundError())
	})

	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.Ledger)
	scoreHandler := handler.NewScoreHandler(cfg.Ledger)
	roomHandler := handler.NewRoomHandler(cfg.Registry)

	// Create middleware
	loggingMiddleware := rootmiddleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	api.HandleFunc("/rooms", roomHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{id}", roomHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/players/{id}", playerHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/scores/{a}/{b}", scoreHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/scores/{a}/{b}/matches", scoreHandler.Matches).Methods(http.MethodGet)

	// Health check endpoint
	api.HandleFunc("/health", healthHandler(cfg.Registry)).Methods(http.MethodGet)

	// The WebSocket endpoint sits outside the API middleware, whose response
	// writer wrapper cannot be hijacked
	if cfg.WebSocket != nil {
		wsRecovery := rootmiddleware.Recovery(cfg.Logger, rootmiddleware.PlainPanicHandler)
		r.Handle("/ws", wsRecovery(cfg.WebSocket)).Methods(http.MethodGet)
	}

	return r
}

// healthHandler reports liveness and the number of live rooms
func healthHandler(registry *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		health := response.Health{Status: "ok"}
		if registry != nil {
			health.Rooms = registry.Len()
		}
		response.JSON(w, http.StatusOK, health)
	}
}
