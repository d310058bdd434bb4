package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"admitgate/entity"
	"admitgate/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionEvents           = "events"
	collectionUsers            = "users"
	collectionGroups           = "groups"
	collectionApprovalRequests = "approval_requests"
	collectionSecurityStaff    = "security_staff"
	collectionCheckIns         = "check_ins"
)

// MongoDB is the roster store. Every mutation is a single-document atomic
// update; nothing here spans documents.
type MongoDB struct {
	client   *mongo.Client
	database string
	now      func() time.Time
}

func NewMongoClient(ctx context.Context, conf *config.Config) (*MongoDB, error) {
	if !conf.Mongo.Enabled {
		return nil, nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}
	return &MongoDB{
		client:   client,
		database: conf.Mongo.Database,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (m *MongoDB) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *MongoDB) collection(name string) *mongo.Collection {
	return m.client.Database(m.database).Collection(name)
}

// indexModels lists the indexes per collection. The partial unique index
// keeps at most one pending approval request per (event, user) and also
// serves the (event, user) lookups.
func indexModels() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		collectionGroups: {
			{Keys: bson.D{{"members", 1}}},
		},
		collectionApprovalRequests: {
			{Keys: bson.D{{"status", 1}, {"requested_at", 1}}},
			{
				Keys: bson.D{{"event_id", 1}, {"user_id", 1}},
				Options: options.Index().
					SetName("one_pending_per_user").
					SetUnique(true).
					SetPartialFilterExpression(bson.D{{"status", entity.StatusPending}}),
			},
		},
		collectionCheckIns: {
			{Keys: bson.D{{"event_id", 1}, {"timestamp", 1}}},
		},
	}
}

// EnsureIndexes creates the indexes the queries rely on.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	for name, models := range indexModels() {
		if _, err := m.collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func (m *MongoDB) findError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	return fmt.Errorf("mongodb find: %w", err)
}

// findOne decodes the document with the given id into out and reports
// whether it was found.
func (m *MongoDB) findOne(ctx context.Context, coll, id string, out interface{}) (bool, error) {
	err := m.collection(coll).FindOne(ctx, bson.D{{"_id", id}}).Decode(out)
	if err != nil {
		return false, m.findError(err)
	}
	return true, nil
}

func (m *MongoDB) addToSet(ctx context.Context, coll, id, field, value string) error {
	update := bson.D{
		{"$addToSet", bson.D{{field, value}}},
		{"$set", bson.D{{"updated_at", m.now()}}},
	}
	return m.updateExisting(ctx, coll, id, update)
}

func (m *MongoDB) pull(ctx context.Context, coll, id, field, value string) error {
	update := bson.D{
		{"$pull", bson.D{{field, value}}},
		{"$set", bson.D{{"updated_at", m.now()}}},
	}
	return m.updateExisting(ctx, coll, id, update)
}

func (m *MongoDB) updateExisting(ctx context.Context, coll, id string, update bson.D) error {
	res, err := m.collection(coll).UpdateOne(ctx, bson.D{{"_id", id}}, update)
	if err != nil {
		return fmt.Errorf("mongodb update %s: %w", coll, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("mongodb update %s/%s: %w", coll, id, entity.ErrNotFound)
	}
	return nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]*T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("mongodb find: %w", err)
	}
	defer cursor.Close(ctx)

	var items []*T
	if err = cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("mongodb decode: %w", err)
	}
	return items, nil
}
