// Package api serves the dataset operations over HTTP and streams ingest
// events over a websocket.
package api

import (
	"net/http"
	"slices"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"github.com/Vodeneev/oddsarchive/internal/pkg/access"
	"github.com/Vodeneev/oddsarchive/internal/pkg/config"
	"github.com/Vodeneev/oddsarchive/internal/pkg/health/handlers"
	"github.com/Vodeneev/oddsarchive/internal/pkg/ingest"
	"github.com/Vodeneev/oddsarchive/internal/pkg/performance"
)

type Server struct {
	config   *config.APIConfig
	svc      *ingest.Service
	hub      *Hub
	gate     *access.Gate
	users    access.UserSource
	tracker  *performance.Tracker
	upgrader websocket.Upgrader
}

// Option configures a Server.
type Option func(*Server)

// WithUserSource replaces the default header-based user source.
func WithUserSource(u access.UserSource) Option {
	return func(s *Server) {
		s.users = u
	}
}

// WithGate replaces the default access gate.
func WithGate(g *access.Gate) Option {
	return func(s *Server) {
		s.gate = g
	}
}

// WithTracker serves metrics from t instead of the global tracker.
func WithTracker(t *performance.Tracker) Option {
	return func(s *Server) {
		s.tracker = t
	}
}

// NewServer builds the API and subscribes hub to svc events.
func NewServer(cfg *config.APIConfig, svc *ingest.Service, hub *Hub, opts ...Option) *Server {
	s := &Server{
		config:  cfg,
		svc:     svc,
		hub:     hub,
		gate:    &access.Gate{},
		users:   access.HeaderSource{},
		tracker: performance.GetTracker(),
	}
	for _, o := range opts {
		o(s)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	svc.Subscribe(hub.Publish)
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return slices.Contains(s.config.AllowedOrigins, "*") || slices.Contains(s.config.AllowedOrigins, origin)
}

// Handler returns the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/ping", handlers.HandlePing).Methods(http.MethodGet)
	router.HandleFunc("/health", handlers.HandleHealth(func() any { return s.svc.DatasetSummary() })).Methods(http.MethodGet)
	router.HandleFunc("/metrics", handlers.HandleMetrics(s.tracker)).Methods(http.MethodGet)
	router.HandleFunc("/ws", s.handleWebSocket)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/access", s.handleAccess).Methods(http.MethodGet)
	api.HandleFunc("/datasets/summary", s.handleSummary).Methods(http.MethodGet)
	api.HandleFunc("/datasets/active", s.protected(s.handleGetActive)).Methods(http.MethodGet)
	api.HandleFunc("/datasets/active", s.protected(s.handleSetActive)).Methods(http.MethodPut)
	api.HandleFunc("/datasets", s.managers(s.handleClear)).Methods(http.MethodDelete)
	api.HandleFunc("/datasets/{type}", s.managers(s.handleUpload)).Methods(http.MethodPost)
	api.HandleFunc("/datasets/{type}", s.managers(s.handleDelete)).Methods(http.MethodDelete)
	api.HandleFunc("/listing", s.handleListing).Methods(http.MethodPost)
	api.HandleFunc("/selection", s.protected(s.handleSaveSelection)).Methods(http.MethodPost)
	api.HandleFunc("/selection", s.protected(s.handleGetSelection)).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(router)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		return
	}

	client := newClient(s.hub, conn)
	s.hub.register(client)
	go client.writePump()
	go client.readPump()
}
