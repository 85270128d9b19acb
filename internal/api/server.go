package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Server represents the REST API server
type Server struct {
	server *http.Server
}

// NewRouter wires every route onto a mux router.
func NewRouter(handler *Handler) *mux.Router {
	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware)
	router.Use(LoggingMiddleware)

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Season
	api.HandleFunc("/season", handler.GetSeason).Methods("GET")
	api.HandleFunc("/standings", handler.GetStandings).Methods("GET")
	api.HandleFunc("/predictions", handler.GetPrediction).Methods("GET")

	// Teams
	api.HandleFunc("/teams", handler.GetTeams).Methods("GET")
	api.HandleFunc("/teams/{team}/matches", handler.GetTeamMatches).Methods("GET")

	// Bracket games
	api.HandleFunc("/games", handler.CreateGame).Methods("POST")
	api.HandleFunc("/games/{gameID}", handler.GetGame).Methods("GET")
	api.HandleFunc("/games/{gameID}", handler.DeleteGame).Methods("DELETE")
	api.HandleFunc("/games/{gameID}/bets", handler.PlaceBet).Methods("POST")
	api.HandleFunc("/games/{gameID}/advance", handler.AdvanceGame).Methods("POST")
	api.HandleFunc("/games/{gameID}/reset", handler.ResetGame).Methods("POST")

	return router
}

// NewServer creates a new REST API server
func NewServer(port int, handler *Handler, readHeaderTimeout time.Duration) *Server {
	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           NewRouter(handler),
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}
}

// Start starts the REST API server
func (s *Server) Start() error {
	slog.Info("REST API server listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// LoggingMiddleware logs one line per request.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// RecoveryMiddleware turns a handler panic into a 500.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("handler panic", "path", r.URL.Path, "panic", rec)
				respondError(w, http.StatusInternalServerError, "Internal server error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
