package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spacesedan/mindtrack/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoRepository(ctx context.Context, uri, database string) (*MongoRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("[MongoDB] connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("[MongoDB] ping: %w", err)
	}

	collection := client.Database(database).Collection(TIMELINE_TABLE_NAME)
	_, err = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: 1}},
	})
	if err != nil {
		slog.Warn("[MongoDB] Could not create created_at index", slog.String("error", err.Error()))
	}

	slog.Info("[MongoDB] Connected", slog.String("database", database))
	return &MongoRepository{client: client, collection: collection}, nil
}

func (r *MongoRepository) Driver() string { return "mongo" }

func (r *MongoRepository) Save(ctx context.Context, entry models.TimelineEntry) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": entry.ID}, entry, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("[MongoDB] save %s: %w", entry.ID, err)
	}
	return nil
}

func (r *MongoRepository) SaveBatch(ctx context.Context, entries []models.TimelineEntry) error {
	if len(entries) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, 0, len(entries))
	for _, entry := range entries {
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": entry.ID}).
			SetReplacement(entry).
			SetUpsert(true))
	}

	if _, err := r.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("[MongoDB] save batch: %w", err)
	}
	return nil
}

func (r *MongoRepository) List(ctx context.Context, since time.Time) ([]models.TimelineEntry, error) {
	filter := bson.M{}
	if !since.IsZero() {
		filter["created_at"] = bson.M{"$gte": since}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("[MongoDB] list: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []models.TimelineEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("[MongoDB] decode timeline: %w", err)
	}
	for i := range entries {
		entries[i].CreatedAt = entries[i].CreatedAt.UTC()
	}
	return entries, nil
}

func (r *MongoRepository) Clear(ctx context.Context) (int, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("[MongoDB] clear: %w", err)
	}
	return int(res.DeletedCount), nil
}

func (r *MongoRepository) Prune(ctx context.Context, before time.Time) (int, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": before}})
	if err != nil {
		return 0, fmt.Errorf("[MongoDB] prune: %w", err)
	}
	return int(res.DeletedCount), nil
}

func (r *MongoRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
