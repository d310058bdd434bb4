package credential

import (
	"context"
	"log/slog"

	"admitgate/entity"
	"admitgate/internal/authz"
	"admitgate/lib/fault"
	"admitgate/lib/sl"
)

type EventSource interface {
	GetEvent(ctx context.Context, id string) (*entity.Event, error)
}

type Issued struct {
	Token   string `json:"token"`
	UserId  string `json:"userId"`
	EventId string `json:"eventId"`
}

// Issuer hands out credentials only to current attendees.
type Issuer struct {
	events EventSource
	codec  Codec
	log    *slog.Logger
}

func NewIssuer(events EventSource, codec Codec, log *slog.Logger) *Issuer {
	return &Issuer{
		events: events,
		codec:  codec,
		log:    log.With(sl.Module("credential.issuer")),
	}
}

func (i *Issuer) Issue(ctx context.Context, caller *entity.Caller, eventId string) (*Issued, error) {
	if err := authz.Check(caller, authz.OpIssueCredential); err != nil {
		return nil, err
	}
	if eventId == "" {
		return nil, fault.InvalidArgument("eventId is required")
	}
	event, err := i.events.GetEvent(ctx, eventId)
	if err != nil {
		return nil, fault.Internal("An error occurred while loading the event", err)
	}
	if event == nil {
		return nil, fault.NotFound("Event not found")
	}
	if !event.HasAttendee(caller.UserId) {
		return nil, fault.PermissionDenied("You are not registered for this event")
	}
	token, err := i.codec.Encode(Credential{UserId: caller.UserId, EventId: eventId})
	if err != nil {
		return nil, fault.Internal("Failed to generate QR code", err)
	}
	i.log.Debug("credential issued", sl.Event(eventId), sl.User(caller.UserId))
	return &Issued{Token: token, UserId: caller.UserId, EventId: eventId}, nil
}
