package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/homenav/internal/httpserver/deps"
	"github.com/MrSnakeDoc/homenav/internal/httpserver/handlers"
)

func init() { Register(registerHealth) }

func registerHealth(r chi.Router, d deps.Deps) {
	api(r, d).Get("/api/health", handlers.Health(d))
	r.Get("/readyz", handlers.Readyz(d))
}
