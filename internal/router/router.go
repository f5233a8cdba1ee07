package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"policymitr-client/internal/handlers"
	"policymitr-client/internal/middleware"
	"policymitr-client/internal/websocket"
)

// HealthChecker checks that the policy backend is up.
type HealthChecker interface {
	Health(ctx context.Context) error
}

func New(
	sessionAuth *middleware.SessionAuth,
	limiter *middleware.RateLimiter,
	surfaceHandler *handlers.SurfaceHandler,
	documentHandler *handlers.DocumentHandler,
	wsHub *websocket.Hub,
	backend HealthChecker,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := backend.Health(ctx); err != nil {
			w.Write([]byte(`{"status":"ok","backend":"unreachable"}`))
			return
		}
		w.Write([]byte(`{"status":"ok","backend":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Surface Routes ────
		r.Route("/surfaces", func(r chi.Router) {
			r.Use(sessionAuth.Middleware)
			r.Use(limiter.Middleware)
			r.Post("/", surfaceHandler.Create)
			r.Get("/{id}", surfaceHandler.Get)
			r.Delete("/{id}", surfaceHandler.Delete)
			r.Put("/{id}/navigation", surfaceHandler.Navigate)
			r.Put("/{id}/selection", surfaceHandler.Select)
			r.Put("/{id}/draft", surfaceHandler.SetDraft)
			r.Post("/{id}/send", surfaceHandler.Send)
			r.Post("/{id}/suggestions/{index}", surfaceHandler.ChooseSuggestion)
			r.Post("/{id}/speak", surfaceHandler.Speak)
			r.Post("/{id}/stop", surfaceHandler.Stop)
			r.Post("/{id}/translate", surfaceHandler.Translate)
		})

		// ──── Document Routes ────
		r.Route("/documents", func(r chi.Router) {
			r.Use(sessionAuth.Middleware)
			r.Use(limiter.Middleware)
			r.Get("/", documentHandler.List)
			r.Get("/{id}", documentHandler.Get)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
