package admin

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
	LinkGroup(ctx context.Context, caller *entity.Caller, eventId, groupId string) error
	UnlinkGroup(ctx context.Context, caller *entity.Caller, eventId, groupId string) error
	AllowUser(ctx context.Context, caller *entity.Caller, eventId, userId string) error
	DisallowUser(ctx context.Context, caller *entity.Caller, eventId, userId string) error
	AddGroupMember(ctx context.Context, caller *entity.Caller, groupId, userId string) error
	RemoveGroupMember(ctx context.Context, caller *entity.Caller, groupId, userId string) error
	SetRole(ctx context.Context, caller *entity.Caller, userId string, role entity.Role) (*entity.User, error)
}

type linkFunc func(ctx context.Context, caller *entity.Caller, id, other string) error

// link serves the POST/DELETE pairs keyed by {id} and a second path param.
func link(log *slog.Logger, op string, param string, fn linkFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		other := chi.URLParam(r, param)
		logger := log.With(
			sl.Module("http.handlers.admin"),
			slog.String("op", op),
			slog.String("id", id),
			slog.String(param, other),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if err := fn(r.Context(), cont.GetCaller(r.Context()), id, other); err != nil {
			logger.Warn("admin update", sl.Err(err))
			response.Fail(w, r, err)
			return
		}
		logger.Info("admin update applied")

		render.JSON(w, r, response.Ok(nil))
	}
}

func LinkGroup(log *slog.Logger, handler Core) http.HandlerFunc {
	return link(log, "link_group", "groupId", handler.LinkGroup)
}

func UnlinkGroup(log *slog.Logger, handler Core) http.HandlerFunc {
	return link(log, "unlink_group", "groupId", handler.UnlinkGroup)
}

func AllowUser(log *slog.Logger, handler Core) http.HandlerFunc {
	return link(log, "allow_user", "userId", handler.AllowUser)
}

func DisallowUser(log *slog.Logger, handler Core) http.HandlerFunc {
	return link(log, "disallow_user", "userId", handler.DisallowUser)
}

func AddMember(log *slog.Logger, handler Core) http.HandlerFunc {
	return link(log, "add_member", "userId", handler.AddGroupMember)
}

func RemoveMember(log *slog.Logger, handler Core) http.HandlerFunc {
	return link(log, "remove_member", "userId", handler.RemoveGroupMember)
}

func SetRole(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userId := chi.URLParam(r, "id")
		logger := log.With(
			sl.Module("http.handlers.admin"),
			sl.User(userId),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body entity.RoleRequest
		if err := render.Bind(r, &body); err != nil {
			logger.Warn("bind request", sl.Err(err))
			response.Fail(w, r, fault.InvalidArgument(fmt.Sprintf("Invalid request: %v", err)))
			return
		}

		user, err := handler.SetRole(r.Context(), cont.GetCaller(r.Context()), userId, entity.Role(body.Role))
		if err != nil {
			logger.Warn("set role", sl.Err(err))
			response.Fail(w, r, err)
			return
		}
		logger.With(slog.String("role", body.Role)).Info("role set")

		render.JSON(w, r, response.Ok(user))
	}
}
