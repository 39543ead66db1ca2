package api

import (
	"net/http"

	"github.com/dom/deception-server/internal/api/handlers"
	"github.com/dom/deception-server/internal/api/middleware"
	"github.com/dom/deception-server/internal/config"
	"github.com/dom/deception-server/internal/service"
	"github.com/dom/deception-server/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func NewRouter(services *service.Services, hub *websocket.Hub, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	authHandler := handlers.NewAuthHandler(services.Auth, services.Room)
	roomHandler := handlers.NewRoomHandler(services.Room, hub)
	matchHandler := handlers.NewMatchHandler(services.Match, services.Room, hub, cfg.RedactSnapshots)
	cardHandler := handlers.NewCardHandler(services.Card)
	wsHandler := handlers.NewWebSocketHandler(hub)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(services.Auth))
				r.Get("/me", authHandler.Me)
				r.Post("/logout", authHandler.Logout)
			})
		})

		r.Route("/cards", func(r chi.Router) {
			r.Get("/", cardHandler.GetAll)
			r.Post("/sync", cardHandler.Sync) // Should be admin-only in production
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(services.Auth))

			r.Route("/rooms", func(r chi.Router) {
				r.Post("/", roomHandler.Create)
				r.Get("/{idOrCode}", roomHandler.Get)
				r.Post("/{idOrCode}/join", roomHandler.Join)
				r.Post("/{idOrCode}/leave", roomHandler.Leave)
				r.Post("/{idOrCode}/ready", roomHandler.SetReady)
			})

			r.Route("/matches", func(r chi.Router) {
				r.Post("/", matchHandler.Create)
				r.Get("/{id}", matchHandler.Get)
				r.Delete("/{id}", matchHandler.Delete)
			})
		})

		// WebSocket endpoint; the token may come as ?token=
		r.With(middleware.Auth(services.Auth)).Get("/ws", wsHandler.Handle)
	})

	return otelhttp.NewHandler(r, "deception-server",
		otelhttp.WithFilter(func(r *http.Request) bool { return r.URL.Path != "/health" }),
	)
}
