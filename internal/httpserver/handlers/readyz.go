package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/homenav/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready bool `json:"ready"`
}

// Readyz reports ready once the catalog has been loaded, which is the case
// as soon as the server is constructed.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, readyzResponse{Ready: d.Catalog != nil})
	}
}
