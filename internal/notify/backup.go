package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/dev0xiinko/don-8-sub001/internal/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBackup mirrors records into one MongoDB collection, keyed by
// "<kind>:<id>". Without a URI it is disabled.
type MongoBackup struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoBackup connects to the backup database. An empty URI yields a
// disabled sink and no error.
func NewMongoBackup(ctx context.Context, cfg config.BackupConfig) (*MongoBackup, error) {
	if cfg.MongoURI == "" {
		return &MongoBackup{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect backup mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping backup mongo: %w", err)
	}
	return &MongoBackup{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Enabled reports whether a database is attached
func (b *MongoBackup) Enabled() bool {
	return b.collection != nil
}

// BackupRecord upserts one JSON record
func (b *MongoBackup) BackupRecord(ctx context.Context, kind, id, record string) error {
	if !b.Enabled() {
		return ErrDisabled
	}
	var doc bson.M
	if err := bson.UnmarshalExtJSON([]byte(record), false, &doc); err != nil {
		return fmt.Errorf("decode backup record %s/%s: %w", kind, id, err)
	}
	key := kind + ":" + id
	update := bson.M{"$set": bson.M{
		"kind":       kind,
		"recordId":   id,
		"record":     doc,
		"mirroredAt": time.Now().UTC(),
	}}
	_, err := b.collection.UpdateOne(ctx, bson.M{"_id": key}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert backup record %s: %w", key, err)
	}
	return nil
}

// Close disconnects from MongoDB
func (b *MongoBackup) Close(ctx context.Context) error {
	if b.client == nil {
		return nil
	}
	return b.client.Disconnect(ctx)
}
