package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/homenav/internal/httpserver/deps"
)

const mirrorPingTimeout = 2 * time.Second

type healthResponse struct {
	Status        string    `json:"status"`
	ServiceCount  int       `json:"service_count"`
	Now           time.Time `json:"now"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	Mirror        string    `json:"mirror"` // "disabled" | "ok" | "unreachable"
	Version       string    `json:"version,omitempty"`
	Commit        string    `json:"commit,omitempty"`
	BuildDate     string    `json:"build_date,omitempty"`
	GoVersion     string    `json:"go_version,omitempty"`
}

func Health(d deps.Deps) http.HandlerFunc {
	start := d.StartTime
	return func(w http.ResponseWriter, r *http.Request) {
		now := d.Now()
		writeJSON(w, http.StatusOK, healthResponse{
			Status:        "ok",
			ServiceCount:  d.Catalog.Count(),
			Now:           now.UTC(),
			UptimeSeconds: now.Sub(start).Seconds(),
			Mirror:        mirrorState(r.Context(), d.Mirror),
			Version:       d.Version,
			Commit:        d.Commit,
			BuildDate:     d.BuildDate,
			GoVersion:     d.GoVersion,
		})
	}
}

// mirrorState never fails the health check: the mirror is optional.
func mirrorState(ctx context.Context, m deps.Pinger) string {
	if m == nil {
		return "disabled"
	}
	ctx, cancel := context.WithTimeout(ctx, mirrorPingTimeout)
	defer cancel()
	if err := m.Ping(ctx); err != nil {
		return "unreachable"
	}
	return "ok"
}
