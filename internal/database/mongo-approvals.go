package database

import (
	"context"
	"fmt"
	"time"

	"admitgate/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (m *MongoDB) GetApprovalRequest(ctx context.Context, id string) (*entity.ApprovalRequest, error) {
	var req entity.ApprovalRequest
	found, err := m.findOne(ctx, collectionApprovalRequests, id, &req)
	if err != nil || !found {
		return nil, err
	}
	return &req, nil
}

func (m *MongoDB) ApprovalRequestsFor(ctx context.Context, eventId, userId string) ([]*entity.ApprovalRequest, error) {
	filter := bson.D{{"event_id", eventId}, {"user_id", userId}}
	opts := options.Find().SetSort(bson.D{{"requested_at", -1}})
	return findAll[entity.ApprovalRequest](ctx, m.collection(collectionApprovalRequests), filter, opts)
}

func (m *MongoDB) HasApprovedRequest(ctx context.Context, eventId, userId string) (bool, error) {
	filter := bson.D{
		{"event_id", eventId},
		{"user_id", userId},
		{"status", entity.StatusApproved},
	}
	n, err := m.collection(collectionApprovalRequests).CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("mongodb count: %w", err)
	}
	return n > 0, nil
}

func (m *MongoDB) InsertApprovalRequest(ctx context.Context, req *entity.ApprovalRequest) error {
	_, err := m.collection(collectionApprovalRequests).InsertOne(ctx, req)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("mongodb insert: %w", entity.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("mongodb insert: %w", err)
	}
	return nil
}

// ResolveApprovalRequest moves a pending request to a terminal status. It
// reports false when the request is no longer pending, so only one caller
// ever wins the transition.
func (m *MongoDB) ResolveApprovalRequest(ctx context.Context, id string, status entity.ApprovalStatus, reviewerId string, at time.Time) (bool, error) {
	filter := bson.D{{"_id", id}, {"status", entity.StatusPending}}
	update := bson.D{{"$set", bson.D{
		{"status", status},
		{"processed_at", at},
		{"processed_by", reviewerId},
	}}}
	res, err := m.collection(collectionApprovalRequests).UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("mongodb update: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

func (m *MongoDB) DeletePendingApprovalRequest(ctx context.Context, id, userId string) (bool, error) {
	filter := bson.D{{"_id", id}, {"user_id", userId}, {"status", entity.StatusPending}}
	res, err := m.collection(collectionApprovalRequests).DeleteOne(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("mongodb delete: %w", err)
	}
	return res.DeletedCount == 1, nil
}

func (m *MongoDB) PendingApprovalRequests(ctx context.Context) ([]*entity.ApprovalRequest, error) {
	filter := bson.D{{"status", entity.StatusPending}}
	opts := options.Find().SetSort(bson.D{{"requested_at", 1}})
	return findAll[entity.ApprovalRequest](ctx, m.collection(collectionApprovalRequests), filter, opts)
}

func (m *MongoDB) UserApprovalRequests(ctx context.Context, userId string) ([]*entity.ApprovalRequest, error) {
	filter := bson.D{{"user_id", userId}}
	opts := options.Find().SetSort(bson.D{{"requested_at", -1}})
	return findAll[entity.ApprovalRequest](ctx, m.collection(collectionApprovalRequests), filter, opts)
}
