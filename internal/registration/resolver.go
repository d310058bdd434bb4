// Package registration decides whether a caller may attend an event and
// records the registration. The decision order is open event, direct
// pre-approval, live group membership, then an approved request.
package registration

import (
	"context"
	"errors"
	"log/slog"

	"admitgate/entity"
	"admitgate/internal/authz"
	"admitgate/internal/notify"
	"admitgate/lib/clock"
	"admitgate/lib/fault"
	"admitgate/lib/set"
	"admitgate/lib/sl"
)

const (
	msgRegistered   = "Successfully registered for event"
	msgAlready      = "Already registered for this event"
	msgViaUser      = "Successfully registered as pre-approved user"
	msgViaGroup     = "Successfully registered as member of pre-approved group"
	msgViaRequest   = "Successfully registered with approved request"
	msgDenied       = "You do not have permission to register for this event. Please request approval first."
	msgNoEvent      = "The specified event does not exist."
	msgNoEventId    = "The function must be called with an eventId."
	msgEnrollFailed = "An error occurred while registering for the event"
)

type Path string

const (
	PathOpen    Path = "open"
	PathUser    Path = "pre_approved_user"
	PathGroup   Path = "pre_approved_group"
	PathRequest Path = "approved_request"
)

var pathMessages = map[Path]string{
	PathOpen:    msgRegistered,
	PathUser:    msgViaUser,
	PathGroup:   msgViaGroup,
	PathRequest: msgViaRequest,
}

type Repository interface {
	GetEvent(ctx context.Context, id string) (*entity.Event, error)
	AddAttendee(ctx context.Context, eventId, userId string) error
	GetUser(ctx context.Context, id string) (*entity.User, error)
	SetUserGroups(ctx context.Context, userId string, groups []string) error
	GroupIdsWithMember(ctx context.Context, userId string) ([]string, error)
	HasApprovedRequest(ctx context.Context, eventId, userId string) (bool, error)
}

type Outcome struct {
	Success           bool     `json:"success"`
	Message           string   `json:"message"`
	Path              Path     `json:"path"`
	Groups            []string `json:"groups,omitempty"`
	AlreadyRegistered bool     `json:"alreadyRegistered,omitempty"`
}

type Resolver struct {
	repo     Repository
	notifier notify.Notifier
	now      clock.Func
	log      *slog.Logger
}

func NewResolver(repo Repository, notifier notify.Notifier, log *slog.Logger) *Resolver {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Resolver{
		repo:     repo,
		notifier: notifier,
		now:      clock.UTC,
		log:      log.With(sl.Module("registration")),
	}
}

func (r *Resolver) Register(ctx context.Context, caller *entity.Caller, eventId string) (*Outcome, error) {
	if err := authz.Check(caller, authz.OpRegister); err != nil {
		return nil, err
	}
	if eventId == "" {
		return nil, fault.InvalidArgument(msgNoEventId)
	}
	log := r.log.With(sl.Event(eventId), sl.User(caller.UserId))

	event, err := r.repo.GetEvent(ctx, eventId)
	if err != nil {
		log.Error("get event", sl.Err(err))
		return nil, fault.Internal(msgEnrollFailed, err)
	}
	if event == nil {
		return nil, fault.NotFound(msgNoEvent)
	}

	outcome, err := r.resolve(ctx, log, event, caller.UserId)
	if err != nil {
		return nil, err
	}
	if outcome == nil {
		log.Info("registration denied")
		return nil, fault.PermissionDenied(msgDenied)
	}
	if event.HasAttendee(caller.UserId) {
		outcome.AlreadyRegistered = true
		if outcome.Path == PathOpen {
			outcome.Message = msgAlready
			return outcome, nil
		}
	}
	if err = r.enroll(ctx, event.Id, caller.UserId, outcome.Path, !outcome.AlreadyRegistered); err != nil {
		log.Error("add attendee", sl.Err(err))
		return nil, fault.Internal(msgEnrollFailed, err)
	}
	log.With(slog.String("path", string(outcome.Path))).Info("registered")
	return outcome, nil
}

// resolve returns nil when no authorization path is satisfied.
func (r *Resolver) resolve(ctx context.Context, log *slog.Logger, event *entity.Event, userId string) (*Outcome, error) {
	if !event.RequiresApproval {
		return granted(PathOpen), nil
	}
	if event.IsPreApprovedUser(userId) {
		return granted(PathUser), nil
	}
	if len(event.PreApprovedGroups) > 0 {
		groups, err := r.liveGroups(ctx, log, userId)
		if err != nil {
			return nil, fault.Internal(msgEnrollFailed, err)
		}
		if matching := event.MatchingGroups(groups); len(matching) > 0 {
			o := granted(PathGroup)
			o.Groups = matching
			return o, nil
		}
	}
	approved, err := r.repo.HasApprovedRequest(ctx, event.Id, userId)
	if err != nil {
		log.Error("check approved request", sl.Err(err))
		return nil, fault.Internal(msgEnrollFailed, err)
	}
	if approved {
		return granted(PathRequest), nil
	}
	return nil, nil
}

// liveGroups reads membership from the groups themselves and repairs the
// cached User.groups when it disagrees. The cache never drives the decision.
func (r *Resolver) liveGroups(ctx context.Context, log *slog.Logger, userId string) ([]string, error) {
	groups, err := r.repo.GroupIdsWithMember(ctx, userId)
	if err != nil {
		log.Error("query group membership", sl.Err(err))
		return nil, err
	}
	user, err := r.repo.GetUser(ctx, userId)
	if err != nil {
		log.Warn("load user for group cache", sl.Err(err))
		return groups, nil
	}
	if user == nil || set.Equal(user.Groups, groups) {
		return groups, nil
	}
	if err = r.repo.SetUserGroups(ctx, userId, groups); err != nil {
		log.Warn("repair group cache", sl.Err(err))
	} else {
		log.With(slog.Any("groups", groups)).Debug("group cache repaired")
	}
	return groups, nil
}

// Enroll adds userId to the event attendees. It is the mutation behind
// Register and behind an approved request.
func (r *Resolver) Enroll(ctx context.Context, eventId, userId string) error {
	return r.enroll(ctx, eventId, userId, PathRequest, true)
}

// enroll retries a failed union at most once, and only after re-reading the
// attendees shows the first attempt did not land.
func (r *Resolver) enroll(ctx context.Context, eventId, userId string, path Path, announce bool) error {
	err := r.repo.AddAttendee(ctx, eventId, userId)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return err
		}
		event, readErr := r.repo.GetEvent(ctx, eventId)
		switch {
		case readErr != nil:
			return errors.Join(err, readErr)
		case event == nil:
			return entity.ErrNotFound
		case event.HasAttendee(userId):
			err = nil
		default:
			err = r.repo.AddAttendee(ctx, eventId, userId)
		}
		if err != nil {
			return err
		}
	}
	if announce {
		r.notifier.Notify(ctx, &entity.Notice{
			Topic:   entity.TopicRegistrationRecord,
			EventId: eventId,
			UserId:  userId,
			Detail:  string(path),
			At:      r.now(),
		})
	}
	return nil
}

func granted(path Path) *Outcome {
	return &Outcome{
		Success: true,
		Message: pathMessages[path],
		Path:    path,
	}
}
