// Package checkin verifies credentials presented at an event checkpoint and
// keeps the append-only check-in log.
package checkin

import (
	"context"
	"log/slog"
	"time"

	"admitgate/entity"
	"admitgate/internal/authz"
	"admitgate/internal/credential"
	"admitgate/internal/notify"
	"admitgate/internal/reentry"
	"admitgate/lib/clock"
	"admitgate/lib/fault"
	"admitgate/lib/sl"

	"github.com/google/uuid"
)

const (
	ReasonFormat        = "Invalid QR code format"
	ReasonOtherEvent    = "QR code is for a different event"
	ReasonNoEvent       = "Event not found"
	ReasonNotRegistered = "User is not registered for this event"
	ReasonNoUser        = "User not found"
	ReasonUsed          = "Credential already used"

	msgVerified  = "Attendance verified successfully"
	msgArguments = "Required parameters: encodedData, eventId"
	msgFailed    = "An error occurred while verifying the QR code"
)

type Repository interface {
	GetEvent(ctx context.Context, id string) (*entity.Event, error)
	GetUser(ctx context.Context, id string) (*entity.User, error)
	InsertCheckIn(ctx context.Context, record *entity.CheckIn) error
	CheckInsForEvent(ctx context.Context, eventId string) ([]*entity.CheckIn, error)
	RecordScan(ctx context.Context, staffId string, at time.Time) error
}

type UserData struct {
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
	Email       string `json:"email"`
	UserId      string `json:"userId"`
}

type Verification struct {
	Valid     bool      `json:"valid"`
	Reason    string    `json:"reason,omitempty"`
	UserData  *UserData `json:"userData,omitempty"`
	Message   string    `json:"message,omitempty"`
	CheckInId string    `json:"checkInId,omitempty"`
}

type Verifier struct {
	repo     Repository
	codec    credential.Codec
	guard    reentry.Guard
	notifier notify.Notifier
	now      clock.Func
	newId    func() string
	log      *slog.Logger
}

func NewVerifier(repo Repository, codec credential.Codec, guard reentry.Guard, notifier notify.Notifier, log *slog.Logger) *Verifier {
	if guard == nil {
		guard = reentry.AllowAll{}
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Verifier{
		repo:     repo,
		codec:    codec,
		guard:    guard,
		notifier: notifier,
		now:      clock.UTC,
		newId:    uuid.NewString,
		log:      log.With(sl.Module("checkin")),
	}
}

func invalid(reason string) *Verification {
	return &Verification{Valid: false, Reason: reason}
}

// Verify checks a presented token against the event the checkpoint is
// guarding. Rejections come back as an invalid Verification with a reason;
// errors are kept for authorization, bad input and store failures.
func (v *Verifier) Verify(ctx context.Context, caller *entity.Caller, token, expectedEventId string) (*Verification, error) {
	if err := authz.Check(caller, authz.OpVerifyCredential); err != nil {
		return nil, err
	}
	if token == "" || expectedEventId == "" {
		return nil, fault.InvalidArgument(msgArguments)
	}
	log := v.log.With(sl.Event(expectedEventId), slog.String("staff_id", caller.UserId))

	cred, err := v.codec.Decode(token)
	if err != nil {
		log.With(sl.Secret("token", token)).Info("rejected", sl.Err(err))
		return invalid(ReasonFormat), nil
	}
	log = log.With(sl.User(cred.UserId))
	if cred.EventId != expectedEventId {
		log.With(slog.String("credential_event", cred.EventId)).Info("rejected: other event")
		return invalid(ReasonOtherEvent), nil
	}

	event, err := v.repo.GetEvent(ctx, cred.EventId)
	if err != nil {
		log.Error("get event", sl.Err(err))
		return nil, fault.Internal(msgFailed, err)
	}
	if event == nil {
		return invalid(ReasonNoEvent), nil
	}
	if !event.HasAttendee(cred.UserId) {
		log.Info("rejected: not registered")
		return invalid(ReasonNotRegistered), nil
	}
	user, err := v.repo.GetUser(ctx, cred.UserId)
	if err != nil {
		log.Error("get user", sl.Err(err))
		return nil, fault.Internal(msgFailed, err)
	}
	if user == nil {
		return invalid(ReasonNoUser), nil
	}

	admitted, err := v.guard.Admit(ctx, cred.EventId, cred.UserId, caller.UserId)
	if err != nil {
		log.Warn("re-entry guard unavailable; admitting", sl.Err(err))
		admitted = true
	}
	if !admitted {
		log.Info("rejected: repeat scan")
		return invalid(ReasonUsed), nil
	}

	record := &entity.CheckIn{
		Id:          v.newId(),
		EventId:     cred.EventId,
		UserId:      cred.UserId,
		SecurityId:  caller.UserId,
		Timestamp:   v.now(),
		DisplayName: user.NameOrDefault(),
		PhotoURL:    user.PhotoURL,
	}
	if err = v.repo.InsertCheckIn(ctx, record); err != nil {
		log.Error("insert check-in", sl.Err(err))
		// no record was written, so the slot must not count as used
		if rerr := v.guard.Release(ctx, cred.EventId, cred.UserId, caller.UserId); rerr != nil {
			log.Warn("release re-entry slot", sl.Err(rerr))
		}
		return nil, fault.Internal(msgFailed, err)
	}
	// the check-in record is authoritative; the staff counter may lag
	if err = v.repo.RecordScan(ctx, caller.UserId, record.Timestamp); err != nil {
		log.Warn("update scan count", sl.Err(err))
	}
	v.notifier.Notify(ctx, &entity.Notice{
		Topic:     entity.TopicCheckInRecorded,
		EventId:   record.EventId,
		UserId:    record.UserId,
		ActorId:   caller.UserId,
		RequestId: record.Id,
		At:        record.Timestamp,
	})
	log.Info("attendance verified")

	return &Verification{
		Valid: true,
		UserData: &UserData{
			DisplayName: record.DisplayName,
			PhotoURL:    user.PhotoURL,
			Email:       user.Email,
			UserId:      user.Id,
		},
		Message:   msgVerified,
		CheckInId: record.Id,
	}, nil
}

// ListCheckIns returns the event's check-in log, oldest first. Repeat scans
// appear as separate records.
func (v *Verifier) ListCheckIns(ctx context.Context, caller *entity.Caller, eventId string) ([]*entity.CheckIn, error) {
	if err := authz.Check(caller, authz.OpListCheckIns); err != nil {
		return nil, err
	}
	if eventId == "" {
		return nil, fault.InvalidArgument("eventId is required")
	}
	list, err := v.repo.CheckInsForEvent(ctx, eventId)
	if err != nil {
		v.log.Error("list check-ins", sl.Err(err), sl.Event(eventId))
		return nil, fault.Internal("An error occurred while loading check-ins", err)
	}
	return list, nil
}

// UniqueAttendees keeps the first check-in of each user.
func UniqueAttendees(list []*entity.CheckIn) []*entity.CheckIn {
	seen := make(map[string]struct{}, len(list))
	out := make([]*entity.CheckIn, 0, len(list))
	for _, c := range list {
		if _, ok := seen[c.UserId]; ok {
			continue
		}
		seen[c.UserId] = struct{}{}
		out = append(out, c)
	}
	return out
}
