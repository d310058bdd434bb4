// Package approval runs the manual review flow for approval-gated events.
// A request is created pending and moves to approved or denied exactly once;
// approving it registers the requester through the registration resolver.
package approval

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"admitgate/entity"
	"admitgate/internal/authz"
	"admitgate/internal/notify"
	"admitgate/lib/clock"
	"admitgate/lib/fault"
	"admitgate/lib/sl"

	"github.com/google/uuid"
)

const (
	msgNoEventId    = "eventId is required"
	msgNoRequestId  = "requestId is required"
	msgNoEvent      = "Event not found"
	msgNoRequest    = "Approval request not found"
	msgAttendee     = "You are already registered for this event"
	msgOpenEvent    = "This event does not require approval"
	msgProcessed    = "This request has already been processed"
	msgNotOwner     = "You can only cancel your own requests"
	msgNotPending   = "Only pending requests can be cancelled"
	msgStoreFailed  = "An error occurred while processing the approval request"
	msgEnrollFailed = "Request approved but registration failed; the user can register again"
)

type Repository interface {
	GetEvent(ctx context.Context, id string) (*entity.Event, error)
	GetApprovalRequest(ctx context.Context, id string) (*entity.ApprovalRequest, error)
	ApprovalRequestsFor(ctx context.Context, eventId, userId string) ([]*entity.ApprovalRequest, error)
	InsertApprovalRequest(ctx context.Context, req *entity.ApprovalRequest) error
	ResolveApprovalRequest(ctx context.Context, id string, status entity.ApprovalStatus, reviewerId string, at time.Time) (bool, error)
	DeletePendingApprovalRequest(ctx context.Context, id, userId string) (bool, error)
	PendingApprovalRequests(ctx context.Context) ([]*entity.ApprovalRequest, error)
	UserApprovalRequests(ctx context.Context, userId string) ([]*entity.ApprovalRequest, error)
}

// Enroller performs the attendee union, shared with self-registration.
type Enroller interface {
	Enroll(ctx context.Context, eventId, userId string) error
}

type Service struct {
	repo     Repository
	enroller Enroller
	notifier notify.Notifier
	now      clock.Func
	newId    func() string
	log      *slog.Logger
}

func New(repo Repository, enroller Enroller, notifier notify.Notifier, log *slog.Logger) *Service {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Service{
		repo:     repo,
		enroller: enroller,
		notifier: notifier,
		now:      clock.UTC,
		newId:    uuid.NewString,
		log:      log.With(sl.Module("approval")),
	}
}

// Request files a pending request for the caller. An existing pending or
// approved request for the same event is returned instead, with created false.
func (s *Service) Request(ctx context.Context, caller *entity.Caller, eventId string) (*entity.ApprovalRequest, bool, error) {
	if err := authz.Check(caller, authz.OpRequestApproval); err != nil {
		return nil, false, err
	}
	if eventId == "" {
		return nil, false, fault.InvalidArgument(msgNoEventId)
	}
	log := s.log.With(sl.Event(eventId), sl.User(caller.UserId))

	event, err := s.repo.GetEvent(ctx, eventId)
	if err != nil {
		log.Error("get event", sl.Err(err))
		return nil, false, fault.Internal(msgStoreFailed, err)
	}
	if event == nil {
		return nil, false, fault.NotFound(msgNoEvent)
	}
	if event.HasAttendee(caller.UserId) {
		return nil, false, fault.Conflict(msgAttendee)
	}
	if !event.RequiresApproval {
		return nil, false, fault.Conflict(msgOpenEvent)
	}

	existing, err := s.current(ctx, eventId, caller.UserId)
	if err != nil {
		log.Error("list requests", sl.Err(err))
		return nil, false, fault.Internal(msgStoreFailed, err)
	}
	if existing != nil {
		return existing, false, nil
	}

	req := &entity.ApprovalRequest{
		Id:          s.newId(),
		EventId:     eventId,
		UserId:      caller.UserId,
		Status:      entity.StatusPending,
		RequestedAt: s.now(),
	}
	if err = s.repo.InsertApprovalRequest(ctx, req); err != nil {
		if errors.Is(err, entity.ErrDuplicate) {
			// a concurrent call won the partial unique index
			if existing, _ = s.current(ctx, eventId, caller.UserId); existing != nil {
				return existing, false, nil
			}
		}
		log.Error("insert request", sl.Err(err))
		return nil, false, fault.Internal(msgStoreFailed, err)
	}
	log.With(slog.String("request_id", req.Id)).Info("approval requested")
	s.notifier.Notify(ctx, &entity.Notice{
		Topic:     entity.TopicApprovalRequested,
		EventId:   eventId,
		UserId:    caller.UserId,
		RequestId: req.Id,
		Status:    string(req.Status),
		At:        req.RequestedAt,
	})
	return req, true, nil
}

// current returns the pending or approved request for the pair, if any.
// Denied requests do not count.
func (s *Service) current(ctx context.Context, eventId, userId string) (*entity.ApprovalRequest, error) {
	list, err := s.repo.ApprovalRequestsFor(ctx, eventId, userId)
	if err != nil {
		return nil, err
	}
	for _, r := range list {
		if r.Status == entity.StatusPending || r.Status == entity.StatusApproved {
			return r, nil
		}
	}
	return nil, nil
}

// Decide approves or denies a pending request. Only the call whose
// conditional update matches the pending row takes effect; any later
// decision gets Conflict.
func (s *Service) Decide(ctx context.Context, reviewer *entity.Caller, requestId string, approve bool) (*entity.ApprovalRequest, error) {
	if err := authz.Check(reviewer, authz.OpDecideRequest); err != nil {
		return nil, err
	}
	if requestId == "" {
		return nil, fault.InvalidArgument(msgNoRequestId)
	}
	log := s.log.With(slog.String("request_id", requestId), slog.String("reviewer", reviewer.UserId))

	req, err := s.repo.GetApprovalRequest(ctx, requestId)
	if err != nil {
		log.Error("get request", sl.Err(err))
		return nil, fault.Internal(msgStoreFailed, err)
	}
	if req == nil {
		return nil, fault.NotFound(msgNoRequest)
	}
	if req.Status.IsTerminal() {
		return nil, fault.Conflict(msgProcessed)
	}

	status := entity.StatusDenied
	if approve {
		status = entity.StatusApproved
	}
	at := s.now()
	ok, err := s.repo.ResolveApprovalRequest(ctx, requestId, status, reviewer.UserId, at)
	if err != nil {
		log.Error("resolve request", sl.Err(err))
		return nil, fault.Internal(msgStoreFailed, err)
	}
	if !ok {
		return nil, fault.Conflict(msgProcessed)
	}
	req.Status = status
	req.ProcessedAt = &at
	req.ProcessedBy = &reviewer.UserId

	log = log.With(sl.Event(req.EventId), sl.User(req.UserId), slog.String("status", string(status)))
	s.notifier.Notify(ctx, &entity.Notice{
		Topic:     entity.TopicApprovalDecided,
		EventId:   req.EventId,
		UserId:    req.UserId,
		ActorId:   reviewer.UserId,
		RequestId: req.Id,
		Status:    string(status),
		At:        at,
	})
	if approve {
		// the request stays approved, so a later Register takes the approved-request path
		if err = s.enroller.Enroll(ctx, req.EventId, req.UserId); err != nil {
			log.Error("enroll approved user", sl.Err(err))
			return req, fault.Internal(msgEnrollFailed, err)
		}
	}
	log.Info("approval decided")
	return req, nil
}

// Cancel withdraws the caller's own pending request.
func (s *Service) Cancel(ctx context.Context, caller *entity.Caller, requestId string) error {
	if err := authz.Check(caller, authz.OpCancelRequest); err != nil {
		return err
	}
	if requestId == "" {
		return fault.InvalidArgument(msgNoRequestId)
	}
	log := s.log.With(slog.String("request_id", requestId), sl.User(caller.UserId))

	req, err := s.repo.GetApprovalRequest(ctx, requestId)
	if err != nil {
		log.Error("get request", sl.Err(err))
		return fault.Internal(msgStoreFailed, err)
	}
	if req == nil {
		return fault.NotFound(msgNoRequest)
	}
	if req.UserId != caller.UserId {
		return fault.PermissionDenied(msgNotOwner)
	}
	if req.Status != entity.StatusPending {
		return fault.Conflict(msgNotPending)
	}
	ok, err := s.repo.DeletePendingApprovalRequest(ctx, requestId, caller.UserId)
	if err != nil {
		log.Error("delete request", sl.Err(err))
		return fault.Internal(msgStoreFailed, err)
	}
	if !ok {
		return fault.Conflict(msgNotPending)
	}
	log.Info("approval request cancelled")
	s.notifier.Notify(ctx, &entity.Notice{
		Topic:     entity.TopicApprovalCancelled,
		EventId:   req.EventId,
		UserId:    req.UserId,
		RequestId: req.Id,
		At:        s.now(),
	})
	return nil
}

// ListPending returns every pending request, oldest first.
func (s *Service) ListPending(ctx context.Context, reviewer *entity.Caller) ([]*entity.ApprovalRequest, error) {
	if err := authz.Check(reviewer, authz.OpListPending); err != nil {
		return nil, err
	}
	list, err := s.repo.PendingApprovalRequests(ctx)
	if err != nil {
		s.log.Error("list pending", sl.Err(err))
		return nil, fault.Internal(msgStoreFailed, err)
	}
	return list, nil
}

// ListMine returns the caller's requests, newest first.
func (s *Service) ListMine(ctx context.Context, caller *entity.Caller) ([]*entity.ApprovalRequest, error) {
	if err := authz.Check(caller, authz.OpListOwnRequests); err != nil {
		return nil, err
	}
	list, err := s.repo.UserApprovalRequests(ctx, caller.UserId)
	if err != nil {
		s.log.Error("list own requests", sl.Err(err), sl.User(caller.UserId))
		return nil, fault.Internal(msgStoreFailed, err)
	}
	return list, nil
}
