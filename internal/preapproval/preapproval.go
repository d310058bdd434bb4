// Package preapproval manages the admin-side links that let users skip
// manual review: event/group pre-approval (kept on both documents), direct
// user pre-approval, and group membership.
package preapproval

import (
	"context"
	"log/slog"

	"admitgate/entity"
	"admitgate/internal/authz"
	"admitgate/lib/fault"
	"admitgate/lib/sl"
)

type Repository interface {
	GetEvent(ctx context.Context, id string) (*entity.Event, error)
	GetGroup(ctx context.Context, id string) (*entity.Group, error)
	GetUser(ctx context.Context, id string) (*entity.User, error)

	AddEventGroup(ctx context.Context, eventId, groupId string) error
	RemoveEventGroup(ctx context.Context, eventId, groupId string) error
	AddGroupEvent(ctx context.Context, groupId, eventId string) error
	RemoveGroupEvent(ctx context.Context, groupId, eventId string) error

	AddEventUser(ctx context.Context, eventId, userId string) error
	RemoveEventUser(ctx context.Context, eventId, userId string) error

	AddGroupMember(ctx context.Context, groupId, userId string) error
	RemoveGroupMember(ctx context.Context, groupId, userId string) error
	AddUserGroup(ctx context.Context, userId, groupId string) error
	RemoveUserGroup(ctx context.Context, userId, groupId string) error
}

type Service struct {
	repo Repository
	log  *slog.Logger
}

func New(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With(sl.Module("preapproval")),
	}
}

const msgFailed = "An error occurred while updating pre-approvals"

// LinkGroup pre-approves every member of groupId for eventId. The event side
// is written first; repeating the call completes a half-applied link.
func (s *Service) LinkGroup(ctx context.Context, caller *entity.Caller, eventId, groupId string) error {
	return s.groupLink(ctx, caller, eventId, groupId, true)
}

func (s *Service) UnlinkGroup(ctx context.Context, caller *entity.Caller, eventId, groupId string) error {
	return s.groupLink(ctx, caller, eventId, groupId, false)
}

func (s *Service) groupLink(ctx context.Context, caller *entity.Caller, eventId, groupId string, link bool) error {
	if err := s.begin(caller, eventId, groupId); err != nil {
		return err
	}
	log := s.log.With(sl.Event(eventId), slog.String("group_id", groupId), slog.Bool("link", link))
	if err := s.requireEvent(ctx, eventId); err != nil {
		return err
	}
	if err := s.requireGroup(ctx, groupId); err != nil {
		return err
	}

	eventSide, groupSide := s.repo.RemoveEventGroup, s.repo.RemoveGroupEvent
	if link {
		eventSide, groupSide = s.repo.AddEventGroup, s.repo.AddGroupEvent
	}
	if err := eventSide(ctx, eventId, groupId); err != nil {
		log.Error("update event", sl.Err(err))
		return fault.Internal(msgFailed, err)
	}
	if err := groupSide(ctx, groupId, eventId); err != nil {
		log.Error("update group; link is one-sided until retried", sl.Err(err))
		return fault.Internal(msgFailed, err)
	}
	log.Info("group pre-approval updated")
	return nil
}

// AllowUser pre-approves a single user for eventId.
func (s *Service) AllowUser(ctx context.Context, caller *entity.Caller, eventId, userId string) error {
	return s.userLink(ctx, caller, eventId, userId, true)
}

func (s *Service) DisallowUser(ctx context.Context, caller *entity.Caller, eventId, userId string) error {
	return s.userLink(ctx, caller, eventId, userId, false)
}

func (s *Service) userLink(ctx context.Context, caller *entity.Caller, eventId, userId string, allow bool) error {
	if err := s.begin(caller, eventId, userId); err != nil {
		return err
	}
	log := s.log.With(sl.Event(eventId), sl.User(userId), slog.Bool("allow", allow))
	if err := s.requireEvent(ctx, eventId); err != nil {
		return err
	}
	update := s.repo.RemoveEventUser
	if allow {
		if err := s.requireUser(ctx, userId); err != nil {
			return err
		}
		update = s.repo.AddEventUser
	}
	if err := update(ctx, eventId, userId); err != nil {
		log.Error("update event", sl.Err(err))
		return fault.Internal(msgFailed, err)
	}
	log.Info("user pre-approval updated")
	return nil
}

// AddMember adds userId to the group. Group.members is authoritative; the
// User.groups cache is updated best-effort and otherwise repaired on the
// user's next registration.
func (s *Service) AddMember(ctx context.Context, caller *entity.Caller, groupId, userId string) error {
	return s.membership(ctx, caller, groupId, userId, true)
}

func (s *Service) RemoveMember(ctx context.Context, caller *entity.Caller, groupId, userId string) error {
	return s.membership(ctx, caller, groupId, userId, false)
}

func (s *Service) membership(ctx context.Context, caller *entity.Caller, groupId, userId string, add bool) error {
	if err := s.begin(caller, groupId, userId); err != nil {
		return err
	}
	log := s.log.With(slog.String("group_id", groupId), sl.User(userId), slog.Bool("add", add))
	if err := s.requireGroup(ctx, groupId); err != nil {
		return err
	}
	if add {
		if err := s.requireUser(ctx, userId); err != nil {
			return err
		}
	}

	member, cache := s.repo.RemoveGroupMember, s.repo.RemoveUserGroup
	if add {
		member, cache = s.repo.AddGroupMember, s.repo.AddUserGroup
	}
	if err := member(ctx, groupId, userId); err != nil {
		log.Error("update group", sl.Err(err))
		return fault.Internal(msgFailed, err)
	}
	if err := cache(ctx, userId, groupId); err != nil {
		log.Warn("update user group cache", sl.Err(err))
	}
	log.Info("group membership updated")
	return nil
}

func (s *Service) begin(caller *entity.Caller, ids ...string) error {
	if err := authz.Check(caller, authz.OpManagePreApproval); err != nil {
		return err
	}
	for _, id := range ids {
		if id == "" {
			return fault.InvalidArgument("both ids are required")
		}
	}
	return nil
}

func (s *Service) requireEvent(ctx context.Context, id string) error {
	e, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		return fault.Internal(msgFailed, err)
	}
	if e == nil {
		return fault.NotFound("Event not found")
	}
	return nil
}

func (s *Service) requireGroup(ctx context.Context, id string) error {
	g, err := s.repo.GetGroup(ctx, id)
	if err != nil {
		return fault.Internal(msgFailed, err)
	}
	if g == nil {
		return fault.NotFound("Group not found")
	}
	return nil
}

func (s *Service) requireUser(ctx context.Context, id string) error {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return fault.Internal(msgFailed, err)
	}
	if u == nil {
		return fault.NotFound("User not found")
	}
	return nil
}
