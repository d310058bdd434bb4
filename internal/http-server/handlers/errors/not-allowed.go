package errors

import (
	"log/slog"
	"net/http"

	"admitgate/lib/api/response"
	"admitgate/lib/sl"

	"github.com/go-chi/render"
)

func NotAllowed(log *slog.Logger) http.HandlerFunc {
	logger := log.With(sl.Module("http.handlers.errors"))
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("method not allowed", slog.String("method", r.Method), slog.String("path", r.URL.Path))
		render.Status(r, http.StatusMethodNotAllowed)
		render.JSON(w, r, response.Error("Method not allowed"))
	}
}
