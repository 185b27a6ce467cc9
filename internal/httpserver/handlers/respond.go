package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/MrSnakeDoc/homenav/internal/catalog"
	"github.com/MrSnakeDoc/homenav/internal/logger"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code: unknown ids are 404, every other
// failure is reported as a client error carrying the message.
func writeError(w http.ResponseWriter, log logger.Logger, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, catalog.ErrNotFound) {
		status = http.StatusNotFound
	}
	log.Debug("request failed", logger.Int("status", status), logger.Error(err))
	writeJSON(w, status, errorResponse{Message: err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
