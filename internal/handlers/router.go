// File: internal/handlers/router.go
package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iyunix/go-sage/internal/middleware"
	"github.com/iyunix/go-sage/internal/ratelimit"
	"github.com/iyunix/go-sage/internal/services"
)

type RouterConfig struct {
	Auth        *AuthHandler
	Tutor       *TutorHandler
	Chats       *ChatHandler
	Log         *LogHandler
	Identity    func(http.Handler) http.Handler
	AuthLimiter *ratelimit.MemoryRateLimiter
	Logger      services.Logger
}

func NewRouter(cfg RouterConfig) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.NewRecoverPanic(cfg.Logger))
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger))

	// --- Public Routes ---
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods("GET")
	r.HandleFunc("/api/log", cfg.Log.LogFrontendEvent).Methods("POST")

	limited := middleware.RateLimitMiddleware(cfg.AuthLimiter, "auth", cfg.Logger)
	r.Handle("/signup", limited(http.HandlerFunc(cfg.Auth.Signup))).Methods("POST")
	r.Handle("/login", limited(http.HandlerFunc(cfg.Auth.Login))).Methods("POST")
	r.HandleFunc("/logout", cfg.Auth.Logout).Methods("POST")

	// --- Identity-scoped Routes ---
	api := r.PathPrefix("/api").Subrouter()
	api.Use(cfg.Identity)

	api.Handle("/me", middleware.RequireUser(http.HandlerFunc(cfg.Auth.Me))).Methods("GET")

	api.HandleFunc("/personas/{persona}/session", cfg.Tutor.GetSession).Methods("GET")
	api.HandleFunc("/personas/{persona}/messages", cfg.Tutor.Submit).Methods("POST")
	api.HandleFunc("/personas/{persona}/chats", cfg.Tutor.NewChat).Methods("POST")
	api.HandleFunc("/personas/{persona}/chats/{id}/select", cfg.Tutor.SelectChat).Methods("POST")

	api.HandleFunc("/chats", cfg.Chats.GetUserChats).Methods("GET")
	api.HandleFunc("/chats/stats", cfg.Chats.GetStats).Methods("GET")
	api.HandleFunc("/chats/{id}/messages", cfg.Chats.GetChatMessages).Methods("GET")
	api.HandleFunc("/chats/{id}/ws", cfg.Chats.StreamMessages).Methods("GET")
	api.HandleFunc("/chats/{id}", cfg.Chats.DeleteChat).Methods("DELETE")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, "Not found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	})
	return r
}
