package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Park-Jeong-Gil/tap-tap-burger/db"
	"github.com/Park-Jeong-Gil/tap-tap-burger/netplay"
	"github.com/Park-Jeong-Gil/tap-tap-burger/room"
	"github.com/gorilla/mux"
)

const (
	publishQueueSize = 1024
	shutdownTimeout  = 10 * time.Second
)

// Response structure for API endpoints
type Response struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Server holds the collaborators shared by HTTP handlers and sessions.
type Server struct {
	cfg      Config
	scores   db.ScoreStore
	bus      *netplay.AsyncBus
	lobby    *room.Lobby
	finisher *room.Finisher
	watcher  *room.Watcher
}

func NewServer(cfg Config, scores db.ScoreStore, bus netplay.Bus, rooms room.Store) *Server {
	lobby := room.NewLobby(rooms, room.WithWaitingTimeout(cfg.WaitingTimeout))
	return &Server{
		cfg:      cfg,
		scores:   scores,
		bus:      netplay.NewAsyncBus(bus, publishQueueSize),
		lobby:    lobby,
		finisher: room.NewFinisher(lobby),
		watcher:  room.NewWatcher(rooms, cfg.RoomPollInterval),
	}
}

// Close waits for pending room writes, then sends queued bus messages.
func (s *Server) Close() {
	s.finisher.Wait()
	s.bus.Close()
}

// Health check endpoint
func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Response{Message: "Backend is running", Status: "healthy"})
}

// API info endpoint
func apiHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Response{Message: "Tap Tap Burger API", Status: "ready"})
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/api", apiHandler).Methods(http.MethodGet)

	r.HandleFunc("/api/auth/guest", s.handleGuestLogin).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/auth/verify", handleVerifySession).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/api/auth/logout", handleLogout).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/auth/google/login", s.handleGoogleLogin).Methods(http.MethodGet)
	r.HandleFunc("/auth/google/callback", s.handleGoogleCallback).Methods(http.MethodGet)

	rooms := r.PathPrefix("/api/rooms").Subrouter()
	rooms.HandleFunc("", s.handleCreateRoom).Methods(http.MethodPost, http.MethodOptions)
	rooms.HandleFunc("/{id}", s.handleGetRoom).Methods(http.MethodGet, http.MethodOptions)
	rooms.HandleFunc("/{id}/join", s.handleJoinRoom).Methods(http.MethodPost, http.MethodOptions)
	rooms.HandleFunc("/{id}/ready", s.handleReady).Methods(http.MethodPost, http.MethodOptions)
	rooms.HandleFunc("/{id}/start", s.handleStartRoom).Methods(http.MethodPost, http.MethodOptions)
	rooms.HandleFunc("/{id}/leave", s.handleLeaveRoom).Methods(http.MethodPost, http.MethodOptions)
	rooms.HandleFunc("/{id}/finish", s.handleFinishRoom).Methods(http.MethodPost, http.MethodOptions)

	r.HandleFunc("/api/leaderboard/{mode}", s.handleLeaderboard).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/api/scores/{mode}", s.handleMyScore).Methods(http.MethodGet, http.MethodOptions)

	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(s, w, r)
	})

	r.Use(corsMiddleware(s.cfg.FrontendURL))
	return r
}

// corsMiddleware answers preflights and tags every response for the
// frontend origin.
func corsMiddleware(frontendURL string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", frontendURL)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, reason string) {
	writeJSON(w, status, map[string]string{"error": reason})
}

func main() {
	cfg := loadConfig()
	initAuth(cfg)

	scores, err := db.Open(context.Background())
	if err != nil {
		log.Fatalf("unable to open score store: %v", err)
	}
	defer scores.Close()

	bus, rooms := initRedis(cfg)
	srv := NewServer(cfg, scores, bus, rooms)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: srv.routes(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("Server starting on port %s", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed to start: %v", err)
	}
	srv.Close()
}
