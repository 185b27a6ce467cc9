package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/homenav/internal/httpserver/deps"
	"github.com/MrSnakeDoc/homenav/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/homenav/internal/httpserver/mw"
)

func init() { Register(registerDiscovery) }

func registerDiscovery(r chi.Router, d deps.Deps) {
	api(r, d).Get("/api/discovery/status", handlers.DiscoveryStatus(d))

	limit := mw.RateLimit(mw.RateLimitConfig{
		Burst:        d.DiscoveryRateBurst,
		RefillPerMin: d.DiscoveryRatePerMin,
		MaxEntries:   1024,
		TrustProxy:   d.TrustProxy,
	})
	guarded := r.With(mw.EnforceHost(d.AllowedHosts, d.Logger), mutating(d), limit)

	// a full pass shells out and probes every port, so it gets its own deadline
	guarded.With(middleware.Timeout(d.DiscoveryTimeout)).Post("/api/discovery/run", handlers.RunDiscovery(d))
	guarded.With(middleware.Timeout(d.RequestTimeout)).Post("/api/discovery/trigger", handlers.TriggerDiscovery(d))
}
