package approval

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"admitgate/entity"
	"admitgate/lib/api/cont"
	"admitgate/lib/api/response"
	"admitgate/lib/fault"
	"admitgate/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	RequestApproval(ctx context.Context, caller *entity.Caller, eventId string) (*entity.ApprovalRequest, bool, error)
	CancelApproval(ctx context.Context, caller *entity.Caller, requestId string) error
	DecideApproval(ctx context.Context, caller *entity.Caller, requestId string, approve bool) (*entity.ApprovalRequest, error)
	PendingApprovals(ctx context.Context, caller *entity.Caller) ([]*entity.ApprovalRequest, error)
	MyApprovals(ctx context.Context, caller *entity.Caller) ([]*entity.ApprovalRequest, error)
}

func requestLogger(log *slog.Logger, r *http.Request) *slog.Logger {
	return log.With(
		sl.Module("http.handlers.approval"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func Request(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)

		var body entity.ApprovalRequestBody
		if err := render.Bind(r, &body); err != nil {
			logger.Warn("bind request", sl.Err(err))
			response.Fail(w, r, fault.InvalidArgument(fmt.Sprintf("Invalid request: %v", err)))
			return
		}

		req, created, err := handler.RequestApproval(r.Context(), cont.GetCaller(r.Context()), body.EventId)
		if err != nil {
			logger.Warn("request approval", sl.Err(err), sl.Event(body.EventId))
			response.Fail(w, r, err)
			return
		}
		if created {
			render.Status(r, http.StatusCreated)
		}

		render.JSON(w, r, response.Ok(req))
	}
}

func Cancel(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		logger := requestLogger(log, r).With(slog.String("approval_id", id))

		if err := handler.CancelApproval(r.Context(), cont.GetCaller(r.Context()), id); err != nil {
			logger.Warn("cancel approval", sl.Err(err))
			response.Fail(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(nil))
	}
}

func Decide(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		logger := requestLogger(log, r).With(slog.String("approval_id", id))

		var body entity.DecisionRequest
		if err := render.Bind(r, &body); err != nil {
			logger.Warn("bind request", sl.Err(err))
			response.Fail(w, r, fault.InvalidArgument(fmt.Sprintf("Invalid request: %v", err)))
			return
		}

		req, err := handler.DecideApproval(r.Context(), cont.GetCaller(r.Context()), id, *body.Approve)
		if err != nil {
			logger.Warn("decide approval", sl.Err(err))
			response.Fail(w, r, err)
			return
		}
		logger.With(slog.String("status", string(req.Status))).Debug("approval decided")

		render.JSON(w, r, response.Ok(req))
	}
}

func Pending(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := handler.PendingApprovals(r.Context(), cont.GetCaller(r.Context()))
		if err != nil {
			requestLogger(log, r).Warn("list pending", sl.Err(err))
			response.Fail(w, r, err)
			return
		}
		render.JSON(w, r, response.Ok(list))
	}
}

func Mine(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := handler.MyApprovals(r.Context(), cont.GetCaller(r.Context()))
		if err != nil {
			requestLogger(log, r).Warn("list own", sl.Err(err))
			response.Fail(w, r, err)
			return
		}
		render.JSON(w, r, response.Ok(list))
	}
}
