package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/homenav/internal/httpserver/deps"
	"github.com/MrSnakeDoc/homenav/internal/httpserver/handlers"
)

func init() { Register(registerExport) }

func registerExport(r chi.Router, d deps.Deps) {
	api(r, d).Get("/api/export/homepage", handlers.ExportHomepage(d))
}
