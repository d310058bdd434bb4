// Package roles lets admins promote or demote users. Promotion to security
// also provisions the staff activity profile used by the check-in counter.
package roles

import (
	"context"
	"log/slog"
	"time"

	"admitgate/entity"
	"admitgate/internal/authz"
	"admitgate/lib/clock"
	"admitgate/lib/fault"
	"admitgate/lib/sl"
)

type Repository interface {
	GetUser(ctx context.Context, id string) (*entity.User, error)
	SetUserRole(ctx context.Context, userId string, role entity.Role) error
	EnsureSecurityStaff(ctx context.Context, user *entity.User, at time.Time) error
}

type Service struct {
	repo Repository
	now  clock.Func
	log  *slog.Logger
}

func New(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		now:  clock.UTC,
		log:  log.With(sl.Module("roles")),
	}
}

const msgFailed = "An error occurred while setting the role"

func (s *Service) SetRole(ctx context.Context, caller *entity.Caller, userId string, role entity.Role) (*entity.User, error) {
	if err := authz.Check(caller, authz.OpManageRoles); err != nil {
		return nil, err
	}
	if userId == "" {
		return nil, fault.InvalidArgument("userId is required")
	}
	if _, ok := entity.ParseRole(string(role)); !ok {
		return nil, fault.InvalidArgument("role must be one of user, admin, security")
	}
	log := s.log.With(sl.User(userId), slog.String("role", string(role)), slog.String("by", caller.UserId))

	user, err := s.repo.GetUser(ctx, userId)
	if err != nil {
		log.Error("get user", sl.Err(err))
		return nil, fault.Internal(msgFailed, err)
	}
	if user == nil {
		return nil, fault.NotFound("User not found")
	}
	if err = s.repo.SetUserRole(ctx, userId, role); err != nil {
		log.Error("set role", sl.Err(err))
		return nil, fault.Internal(msgFailed, err)
	}
	user.Role = role
	if role == entity.RoleSecurity {
		if err = s.repo.EnsureSecurityStaff(ctx, user, s.now()); err != nil {
			log.Error("create security profile", sl.Err(err))
			return nil, fault.Internal(msgFailed, err)
		}
	}
	log.Info("role updated")
	return user, nil
}
