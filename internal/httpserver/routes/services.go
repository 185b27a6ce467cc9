package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/homenav/internal/httpserver/deps"
	"github.com/MrSnakeDoc/homenav/internal/httpserver/handlers"
)

func init() { Register(registerServices) }

func registerServices(r chi.Router, d deps.Deps) {
	a := api(r, d)
	a.Get("/api/services", handlers.ListServices(d))
	a.Get("/api/services/{id}", handlers.GetService(d))
	a.With(mutating(d)).Post("/api/services", handlers.CreateService(d))
	a.With(mutating(d)).Patch("/api/services/{id}", handlers.UpdateService(d))
}
