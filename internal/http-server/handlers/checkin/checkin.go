package checkin

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"admitgate/entity"
	"admitgate/internal/checkin"
	"admitgate/lib/api/cont"
	"admitgate/lib/api/response"
	"admitgate/lib/fault"
	"admitgate/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	VerifyCredential(ctx context.Context, caller *entity.Caller, token, eventId string) (*checkin.Verification, error)
	EventCheckIns(ctx context.Context, caller *entity.Caller, eventId string, unique bool) ([]*entity.CheckIn, error)
}

func Verify(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.checkin")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req entity.VerifyRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Warn("bind request", sl.Err(err))
			response.Fail(w, r, fault.InvalidArgument("Required parameters: encodedData, eventId"))
			return
		}
		logger = logger.With(sl.Event(req.EventId))

		result, err := handler.VerifyCredential(r.Context(), cont.GetCaller(r.Context()), req.EncodedData, req.EventId)
		if err != nil {
			logger.Warn("verify credential", sl.Err(err))
			response.Fail(w, r, err)
			return
		}
		logger.With(
			slog.Bool("valid", result.Valid),
			slog.String("reason", result.Reason),
		).Debug("credential verified")

		render.JSON(w, r, response.Ok(result))
	}
}

func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.checkin")

		eventId := chi.URLParam(r, "id")
		logger := log.With(
			mod,
			sl.Event(eventId),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		unique, _ := strconv.ParseBool(r.URL.Query().Get("unique"))
		list, err := handler.EventCheckIns(r.Context(), cont.GetCaller(r.Context()), eventId, unique)
		if err != nil {
			logger.Warn("list check-ins", sl.Err(err))
			response.Fail(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(list))
	}
}
