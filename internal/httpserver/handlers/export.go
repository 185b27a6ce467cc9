package handlers

import (
	"bytes"
	"net/http"

	"github.com/MrSnakeDoc/homenav/internal/httpserver/deps"
	"github.com/MrSnakeDoc/homenav/internal/sources/homepage"
)

// ExportHomepage renders the visible catalog as a Homepage services.yaml.
func ExportHomepage(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := homepage.Encode(&buf, homepage.FromEntries(d.Catalog.Snapshot())); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="services.yaml"`)
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(buf.Bytes())
	}
}
