package handlers

import (
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/homenav/internal/domain"
	"github.com/MrSnakeDoc/homenav/internal/httpserver/deps"
	"github.com/MrSnakeDoc/homenav/internal/logger"
)

type discoveryRunResponse struct {
	Summary domain.DiscoveryStatus `json:"summary"`
}

// RunDiscovery performs a full discovery pass and answers with its summary.
func RunDiscovery(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Logger.Info("manual discovery run requested",
			logger.String("remote_ip", r.RemoteAddr))

		summary, err := d.Catalog.RunDiscovery(r.Context())
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, discoveryRunResponse{Summary: summary})
	}
}

func DiscoveryStatus(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Catalog.DiscoveryStatus())
	}
}

type triggerResponse struct {
	Queued bool   `json:"queued"`
	Detail string `json:"detail"`
}

// TriggerDiscovery queues a background run and returns immediately.
func TriggerDiscovery(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.TriggerDiscovery == nil {
			writeError(w, d.Logger, errors.New("background discovery is not running"))
			return
		}
		if d.TriggerDiscovery() {
			d.Logger.Info("background discovery triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusAccepted, triggerResponse{Queued: true, Detail: "discovery queued"})
			return
		}
		d.Logger.Warn("discovery already pending",
			logger.String("remote_ip", r.RemoteAddr))
		writeJSON(w, http.StatusTooManyRequests, triggerResponse{Queued: false, Detail: "discovery already pending, please wait"})
	}
}
