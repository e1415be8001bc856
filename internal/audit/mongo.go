// Package audit ships audit log events to MongoDB.
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"isdn/internal/config"
	applog "isdn/internal/log"
)

// Record is the stored shape of one audit event.
type Record struct {
	ID        string    `bson:"_id,omitempty"`
	Service   string    `bson:"service"`
	Action    string    `bson:"action"`
	UserID    string    `bson:"user_id,omitempty"`
	Role      string    `bson:"role,omitempty"`
	RequestID string    `bson:"req_id,omitempty"`
	Data      bson.M    `bson:"data,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

// FromEntry converts a log audit entry into its stored form.
func FromEntry(e applog.AuditEntry) Record {
	r := Record{
		Service:   "isdn",
		Action:    e.Action,
		UserID:    e.UserID,
		Role:      e.Role,
		RequestID: e.ReqID,
		CreatedAt: e.At,
	}
	if len(e.Fields) > 0 {
		r.Data = bson.M{}
		for k, v := range e.Fields {
			r.Data[k] = v
		}
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return r
}

// MongoSink implements log.AuditSink.
type MongoSink struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewMongoSink(ctx context.Context, cfg config.MongoConfig) (*MongoSink, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return &MongoSink{client: client, coll: client.Database(cfg.Database).Collection(cfg.Collection)}, nil
}

func (m *MongoSink) Record(ctx context.Context, e applog.AuditEntry) error {
	_, err := m.coll.InsertOne(ctx, FromEntry(e))
	return err
}

// Recent returns the newest audit records for action, or for every action when it is empty.
func (m *MongoSink) Recent(ctx context.Context, action string, limit int64) ([]Record, error) {
	filter := bson.M{}
	if action != "" {
		filter["action"] = action
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cur, err := m.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Record
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *MongoSink) Close(ctx context.Context) error { return m.client.Disconnect(ctx) }
