package registration

import (
	"context"
	"log/slog"
	"net/http"

	"admitgate/entity"
	"admitgate/internal/credential"
	"admitgate/internal/registration"
	"admitgate/lib/api/cont"
	"admitgate/lib/api/response"
	"admitgate/lib/fault"
	"admitgate/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	Register(ctx context.Context, caller *entity.Caller, eventId string) (*registration.Outcome, error)
	IssueCredential(ctx context.Context, caller *entity.Caller, eventId string) (*credential.Issued, error)
}

func Register(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.registration")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req entity.RegisterRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Warn("bind request", sl.Err(err))
			response.Fail(w, r, fault.InvalidArgument("The function must be called with an eventId."))
			return
		}
		logger = logger.With(sl.Event(req.EventId))

		outcome, err := handler.Register(r.Context(), cont.GetCaller(r.Context()), req.EventId)
		if err != nil {
			logger.Warn("register", sl.Err(err))
			response.Fail(w, r, err)
			return
		}
		logger.With(slog.String("path", string(outcome.Path))).Debug("registered")

		render.JSON(w, r, response.Ok(outcome))
	}
}

func Credential(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.registration")

		eventId := chi.URLParam(r, "id")
		logger := log.With(
			mod,
			sl.Event(eventId),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		issued, err := handler.IssueCredential(r.Context(), cont.GetCaller(r.Context()), eventId)
		if err != nil {
			logger.Warn("issue credential", sl.Err(err))
			response.Fail(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(issued))
	}
}
