package database

import (
	"context"

	"admitgate/entity"

	"go.mongodb.org/mongo-driver/bson"
)

func (m *MongoDB) GetUser(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	found, err := m.findOne(ctx, collectionUsers, id, &user)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

// SetUserGroups overwrites the cached group list. Writing the same corrected
// value twice is harmless.
func (m *MongoDB) SetUserGroups(ctx context.Context, userId string, groups []string) error {
	if groups == nil {
		groups = []string{}
	}
	update := bson.D{{"$set", bson.D{
		{"groups", groups},
		{"updated_at", m.now()},
	}}}
	return m.updateExisting(ctx, collectionUsers, userId, update)
}

func (m *MongoDB) AddUserGroup(ctx context.Context, userId, groupId string) error {
	return m.addToSet(ctx, collectionUsers, userId, "groups", groupId)
}

func (m *MongoDB) RemoveUserGroup(ctx context.Context, userId, groupId string) error {
	return m.pull(ctx, collectionUsers, userId, "groups", groupId)
}

func (m *MongoDB) SetUserRole(ctx context.Context, userId string, role entity.Role) error {
	update := bson.D{{"$set", bson.D{
		{"role", role},
		{"updated_at", m.now()},
	}}}
	return m.updateExisting(ctx, collectionUsers, userId, update)
}
