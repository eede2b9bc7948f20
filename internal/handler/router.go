package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gabrieljoian/portfolio/backend/internal/handler/assistant"
	"github.com/gabrieljoian/portfolio/backend/internal/handler/persona"
	"github.com/gabrieljoian/portfolio/backend/internal/handler/stream"
	middlewarePkg "github.com/gabrieljoian/portfolio/backend/internal/middleware"
	personaModel "github.com/gabrieljoian/portfolio/backend/internal/model/persona"
	"github.com/gabrieljoian/portfolio/backend/internal/service/session"
	"github.com/gabrieljoian/portfolio/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services. A nil limiter disables
// submission rate limiting.
func NewRouter(allowedOrigins []string, personas personaModel.Store, registry *session.Registry, limiter middlewarePkg.Limiter) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	origins := middlewarePkg.NewOriginPolicy(allowedOrigins)
	r.Use(middlewarePkg.CORS(origins))

	var submitMiddleware []func(http.Handler) http.Handler
	if limiter != nil {
		submitMiddleware = append(submitMiddleware, middlewarePkg.RateLimit(limiter))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"widgets": registry.Len(),
		})
	})

	r.Route("/api", func(api chi.Router) {
		persona.New(personas).RegisterRoutes(api)
		assistant.New(registry, submitMiddleware...).RegisterRoutes(api)
		stream.New(registry).RegisterRoutes(api)
		stream.NewWebSocketHandler(registry, origins.CheckOrigin, limiter).RegisterWebSocketRoutes(api)
	})

	return r
}
