package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/systemage/systemagego/internal/ai"
	"github.com/systemage/systemagego/internal/config"
	"github.com/systemage/systemagego/internal/extraction"
	"github.com/systemage/systemagego/internal/middleware"
	"github.com/systemage/systemagego/internal/storage"
	"github.com/systemage/systemagego/internal/store"
	"github.com/systemage/systemagego/internal/websocket"
)

// Router wraps the mux router and the service's collaborators
type Router struct {
	*mux.Router
	cfg       *config.Config
	store     *store.GormStore
	blobs     storage.BlobStore
	ai        *ai.GeminiClient
	hub       *websocket.Hub
	extractor *extraction.Orchestrator
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(cfg *config.Config, st *store.GormStore) *Router {
	r := &Router{
		Router: mux.NewRouter(),
		cfg:    cfg,
		store:  st,
	}

	authRequired := middleware.AuthMiddleware(cfg.JWTSecret)

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/api/auth").Subrouter()
	auth.HandleFunc("/register", r.register).Methods("POST")
	auth.HandleFunc("/login", r.login).Methods("POST")
	auth.HandleFunc("/logout", r.logout).Methods("POST")
	auth.Handle("/me", authRequired(http.HandlerFunc(r.me))).Methods("GET")

	// Report routes (protected)
	reports := r.PathPrefix("/api/reports").Subrouter()
	reports.Use(authRequired)
	reports.HandleFunc("", r.uploadReport).Methods("POST")
	reports.HandleFunc("", r.listReports).Methods("GET")
	reports.HandleFunc("/{id}", r.getReport).Methods("GET")
	reports.HandleFunc("/{id}", r.deleteReport).Methods("DELETE")
	reports.HandleFunc("/{id}/status", r.reportStatus).Methods("GET")
	reports.HandleFunc("/{id}/extract", r.retriggerExtraction).Methods("POST")
	reports.HandleFunc("/{id}/export", r.exportReport).Methods("GET")
	reports.HandleFunc("/{id}/chat", r.chatHistory).Methods("GET")
	reports.HandleFunc("/{id}/chat", r.chatMessage).Methods("POST")

	// Marketplace routes (protected, personalized per user)
	marketplace := r.PathPrefix("/api/marketplace").Subrouter()
	marketplace.Use(authRequired)
	marketplace.HandleFunc("/products", r.listMarketplaceProducts).Methods("GET")
	marketplace.HandleFunc("/coverage", r.protocolCoverage).Methods("POST")

	// Admin routes
	admin := r.PathPrefix("/api/admin").Subrouter()
	admin.Use(authRequired, middleware.RequireAdmin)
	admin.HandleFunc("/products", r.adminListProducts).Methods("GET")
	admin.HandleFunc("/products", r.adminCreateProduct).Methods("POST")
	admin.HandleFunc("/products/{id}", r.adminUpdateProduct).Methods("PUT")
	admin.HandleFunc("/products/{id}", r.adminDeleteProduct).Methods("DELETE")
	admin.HandleFunc("/users", r.adminListUsers).Methods("GET")
	admin.HandleFunc("/users/{id}/role", r.adminUpdateUserRole).Methods("PUT")

	// Websocket status stream
	r.Handle("/ws", authRequired(http.HandlerFunc(r.serveWS))).Methods("GET")

	return r
}

// SetBlobStore injects the upload storage backend.
func (r *Router) SetBlobStore(blobs storage.BlobStore) { r.blobs = blobs }

// SetAIClient injects the Gemini client used by report chat.
func (r *Router) SetAIClient(client *ai.GeminiClient) { r.ai = client }

// SetHub injects the websocket hub.
func (r *Router) SetHub(hub *websocket.Hub) { r.hub = hub }

// SetOrchestrator injects the extraction pipeline.
func (r *Router) SetOrchestrator(o *extraction.Orchestrator) { r.extractor = o }

// ServeLocalFiles exposes a local storage directory under /files/. Only used
// when no cloud bucket is configured.
func (r *Router) ServeLocalFiles(dir string) {
	r.PathPrefix("/files/").Handler(
		http.StripPrefix("/files/", http.FileServer(http.Dir(dir))))
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func (r *Router) serveWS(w http.ResponseWriter, req *http.Request) {
	if r.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "Status stream not available")
		return
	}
	userID := middleware.UserIDFromContext(req.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	websocket.ServeWS(r.hub, w, req, userID)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
