package database

import (
	"context"
	"fmt"

	"admitgate/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (m *MongoDB) GetGroup(ctx context.Context, id string) (*entity.Group, error) {
	var group entity.Group
	found, err := m.findOne(ctx, collectionGroups, id, &group)
	if err != nil || !found {
		return nil, err
	}
	return &group, nil
}

// GroupIdsWithMember reads membership from the groups themselves, which is
// authoritative; User.groups is only a cache of this answer.
func (m *MongoDB) GroupIdsWithMember(ctx context.Context, userId string) ([]string, error) {
	opts := options.Find().SetProjection(bson.D{{"_id", 1}})
	cursor, err := m.collection(collectionGroups).Find(ctx, bson.D{{"members", userId}}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb find: %w", err)
	}
	defer cursor.Close(ctx)

	ids := make([]string, 0)
	for cursor.Next(ctx) {
		var doc struct {
			Id string `bson:"_id"`
		}
		if err = cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongodb decode: %w", err)
		}
		ids = append(ids, doc.Id)
	}
	return ids, cursor.Err()
}

func (m *MongoDB) AddGroupMember(ctx context.Context, groupId, userId string) error {
	return m.addToSet(ctx, collectionGroups, groupId, "members", userId)
}

func (m *MongoDB) RemoveGroupMember(ctx context.Context, groupId, userId string) error {
	return m.pull(ctx, collectionGroups, groupId, "members", userId)
}

func (m *MongoDB) AddGroupEvent(ctx context.Context, groupId, eventId string) error {
	return m.addToSet(ctx, collectionGroups, groupId, "pre_approved_events", eventId)
}

func (m *MongoDB) RemoveGroupEvent(ctx context.Context, groupId, eventId string) error {
	return m.pull(ctx, collectionGroups, groupId, "pre_approved_events", eventId)
}
