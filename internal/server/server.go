package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/skataria/bookingagent/internal/agent"
	"github.com/skataria/bookingagent/internal/database"
)

type Server struct {
	db      *database.DB
	agent   *agent.Agent
	httpSrv *http.Server
	port    int

	// Turns for the same session must not interleave; the per-session lock
	// serializes them while leaving different sessions concurrent.
	mu           sync.Mutex
	sessionLocks map[string]*sync.Mutex
}

type Config struct {
	DB    *database.DB
	Agent *agent.Agent
	Port  int
}

func New(cfg Config) *Server {
	s := &Server{
		db:           cfg.DB,
		agent:        cfg.Agent,
		port:         cfg.Port,
		sessionLocks: make(map[string]*sync.Mutex),
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.corsMiddleware(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealthCheck)

	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /reset", s.handleReset)

	mux.HandleFunc("GET /api/bookings", s.handleListBookings)
	mux.HandleFunc("GET /api/bookings/{id}/qr", s.handleBookingQR)
}

func (s *Server) Start() error {
	fmt.Printf("Starting HTTP server on http://localhost:%d\n", s.port)
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// Handler exposes the full middleware-wrapped handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// sessionLock returns the mutex guarding one session's turns.
func (s *Server) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.sessionLocks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.sessionLocks[sessionID] = lock
	}
	return lock
}

// corsMiddleware adds CORS headers so browser frontends can call the API
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Session-ID")

		// Handle preflight requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
