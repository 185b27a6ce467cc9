package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/homenav/internal/httpserver/deps"
	"github.com/MrSnakeDoc/homenav/internal/web"
)

func init() { Register(registerStatic) }

func registerStatic(r chi.Router, d deps.Deps) {
	r.Handle("/*", web.Handler())
}
