package events

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig configures a MongoSink.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MongoSink stores each event as a document. The event id is the document
// _id, so re-delivering a batch after a partial failure is rejected by the
// server instead of duplicating entries.
type MongoSink struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoSink connects and pings the deployment.
func NewMongoSink(ctx context.Context, cfg MongoConfig) (*MongoSink, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	db, coll := cfg.Database, cfg.Collection
	if db == "" {
		db = "snaplink"
	}
	if coll == "" {
		coll = "events"
	}
	return &MongoSink{client: client, coll: client.Database(db).Collection(coll)}, nil
}

// Write inserts events in one unordered batch.
func (s *MongoSink) Write(ctx context.Context, events []Event) error {
	docs := make([]any, len(events))
	for i, e := range events {
		docs[i] = e
	}
	_, err := s.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return Retryable(err)
	}
	return err
}

// Close disconnects the client.
func (s *MongoSink) Close() error {
	return s.client.Disconnect(context.Background())
}

var _ Sink = (*MongoSink)(nil)
