package handler

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
)

// render buffers c so a failed render can still produce a clean 500.
func render(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, c templ.Component) {
	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf); err != nil {
		InternalErrorResponse(w, r, logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
