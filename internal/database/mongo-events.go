package database

import (
	"context"

	"admitgate/entity"
)

func (m *MongoDB) GetEvent(ctx context.Context, id string) (*entity.Event, error) {
	var event entity.Event
	found, err := m.findOne(ctx, collectionEvents, id, &event)
	if err != nil || !found {
		return nil, err
	}
	return &event, nil
}

// AddAttendee unions a single user id into attendees.
func (m *MongoDB) AddAttendee(ctx context.Context, eventId, userId string) error {
	return m.addToSet(ctx, collectionEvents, eventId, "attendees", userId)
}

func (m *MongoDB) AddEventGroup(ctx context.Context, eventId, groupId string) error {
	return m.addToSet(ctx, collectionEvents, eventId, "pre_approved_groups", groupId)
}

func (m *MongoDB) RemoveEventGroup(ctx context.Context, eventId, groupId string) error {
	return m.pull(ctx, collectionEvents, eventId, "pre_approved_groups", groupId)
}

func (m *MongoDB) AddEventUser(ctx context.Context, eventId, userId string) error {
	return m.addToSet(ctx, collectionEvents, eventId, "pre_approved_users", userId)
}

func (m *MongoDB) RemoveEventUser(ctx context.Context, eventId, userId string) error {
	return m.pull(ctx, collectionEvents, eventId, "pre_approved_users", userId)
}
