package database

import (
	"context"
	"fmt"
	"time"

	"admitgate/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (m *MongoDB) InsertCheckIn(ctx context.Context, record *entity.CheckIn) error {
	_, err := m.collection(collectionCheckIns).InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("mongodb insert: %w", err)
	}
	return nil
}

func (m *MongoDB) CheckInsForEvent(ctx context.Context, eventId string) ([]*entity.CheckIn, error) {
	filter := bson.D{{"event_id", eventId}}
	opts := options.Find().SetSort(bson.D{{"timestamp", 1}})
	return findAll[entity.CheckIn](ctx, m.collection(collectionCheckIns), filter, opts)
}

// RecordScan increments the staff scan counter in place.
func (m *MongoDB) RecordScan(ctx context.Context, staffId string, at time.Time) error {
	filter := bson.D{{"_id", staffId}}
	update := bson.D{
		{"$inc", bson.D{{"scan_count", 1}}},
		{"$set", bson.D{{"last_active", at}, {"updated_at", at}}},
		{"$setOnInsert", bson.D{{"assigned_events", bson.A{}}}},
	}
	_, err := m.collection(collectionSecurityStaff).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongodb update: %w", err)
	}
	return nil
}

func (m *MongoDB) GetSecurityStaff(ctx context.Context, id string) (*entity.SecurityStaff, error) {
	var staff entity.SecurityStaff
	found, err := m.findOne(ctx, collectionSecurityStaff, id, &staff)
	if err != nil || !found {
		return nil, err
	}
	return &staff, nil
}

// EnsureSecurityStaff creates the staff profile on promotion, keeping the
// counter and assignments of an existing one.
func (m *MongoDB) EnsureSecurityStaff(ctx context.Context, user *entity.User, at time.Time) error {
	filter := bson.D{{"_id", user.Id}}
	update := bson.D{
		{"$set", bson.D{
			{"email", user.Email},
			{"display_name", user.DisplayName},
			{"updated_at", at},
		}},
		{"$setOnInsert", bson.D{
			{"assigned_events", bson.A{}},
			{"scan_count", 0},
		}},
	}
	_, err := m.collection(collectionSecurityStaff).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongodb update: %w", err)
	}
	return nil
}
