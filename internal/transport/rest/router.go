package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/jackyckma/baudagain/internal/cache"
	"github.com/jackyckma/baudagain/internal/door"
	"github.com/jackyckma/baudagain/internal/notify"
	"github.com/jackyckma/baudagain/internal/service"
	"github.com/jackyckma/baudagain/internal/session"
	"github.com/jackyckma/baudagain/internal/transport/rest/handler"
	"github.com/jackyckma/baudagain/internal/transport/rest/middleware"
	"github.com/jackyckma/baudagain/internal/transport/ws"
)

// Container holds all dependencies for the router.
type Container struct {
	AuthService  *service.AuthService
	BoardService *service.BoardService
	Sessions     *session.Manager
	Doors        *door.Registry
	Presence     cache.PresenceCache
	Broadcaster  *notify.Broadcaster
	WSHub        *ws.Hub
	Logger       *zap.Logger
}

// NewRouter creates the API router with all endpoints.
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	authHandler := handler.NewAuthHandler(c.AuthService, c.Sessions)
	sessionHandler := handler.NewSessionHandler(c.Sessions, c.Doors, c.Presence)
	boardHandler := handler.NewBoardHandler(c.BoardService)
	wsHandler := ws.NewHandler(c.WSHub, c.Broadcaster, c.AuthService, c.Sessions, c.Logger)

	authMW := middleware.NewAuthMiddleware(c.AuthService)

	r.Use(corsMiddleware)

	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/signup", authHandler.Signup).Methods("POST", "OPTIONS")
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	// Push channel (token in query param)
	v1.HandleFunc("/ws", wsHandler.Connect).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Authenticated routes
	userRoutes := v1.NewRoute().Subrouter()
	userRoutes.Use(authMW.RequireUser)

	userRoutes.HandleFunc("/session", sessionHandler.Get).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/session/logout", sessionHandler.Logout).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/menu", sessionHandler.Menu).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/online", sessionHandler.Online).Methods("GET", "OPTIONS")

	userRoutes.HandleFunc("/doors/{doorId}/enter", sessionHandler.EnterDoor).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/doors/{doorId}/input", sessionHandler.DoorInput).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/doors/{doorId}/exit", sessionHandler.ExitDoor).Methods("POST", "OPTIONS")

	userRoutes.HandleFunc("/boards/{board}/messages", boardHandler.List).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/boards/{board}/messages", boardHandler.Post).Methods("POST", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
