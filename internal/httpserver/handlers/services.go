package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/homenav/internal/domain"
	"github.com/MrSnakeDoc/homenav/internal/httpserver/deps"
	"github.com/MrSnakeDoc/homenav/internal/logger"
)

// ListServices serves GET /api/services?q=&group=&status=&include_hidden=
func ListServices(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := parseFilter(r)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, d.Catalog.List(f))
	}
}

func parseFilter(r *http.Request) (domain.Filter, error) {
	q := r.URL.Query()
	f := domain.Filter{
		Query: strings.TrimSpace(q.Get("q")),
		Group: strings.TrimSpace(q.Get("group")),
	}
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		st, err := domain.ParseStatus(raw)
		if err != nil {
			return domain.Filter{}, fmt.Errorf("invalid status filter: %w", err)
		}
		f.Status = &st
	}
	if raw := strings.TrimSpace(q.Get("include_hidden")); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return domain.Filter{}, fmt.Errorf("invalid include_hidden: %q", raw)
		}
		f.IncludeHidden = b
	}
	return f, nil
}

func CreateService(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.CreateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		entry, err := d.Catalog.Create(r.Context(), req)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, entry)
	}
}

func GetService(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, err := d.Catalog.Get(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, entry)
	}
}

func UpdateService(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req domain.UpdateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		entry, err := d.Catalog.Update(r.Context(), id, req)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		d.Logger.Debug("service patched via api",
			logger.String("id", id),
			logger.String("remote_ip", r.RemoteAddr))
		writeJSON(w, http.StatusOK, entry)
	}
}
