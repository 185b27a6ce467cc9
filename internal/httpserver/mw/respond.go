package mw

import (
	"encoding/json"
	"net/http"
)

// deny writes the same {"message"} body the handlers use for errors.
func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Message string `json:"message"`
	}{Message: msg})
}
