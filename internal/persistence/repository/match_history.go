package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lunahex/mimic/internal/domain"
	"github.com/lunahex/mimic/internal/persistence/db"
)

type matchHistoryRepository struct {
	db *mongo.Database
}

func NewMatchHistoryRepository(db *mongo.Database) domain.MatchHistoryRepository {
	return &matchHistoryRepository{
		db: db,
	}
}

func (r *matchHistoryRepository) Record(ctx context.Context, rec *domain.MatchRecord) error {
	collection := r.db.Collection(db.MatchHistoryCollection)

	_, err := collection.InsertOne(ctx, rec)
	return err
}

func (r *matchHistoryRepository) GetByRoomCode(ctx context.Context, roomCode string, limit int) ([]domain.MatchRecord, error) {
	collection := r.db.Collection(db.MatchHistoryCollection)

	filter := bson.M{"room_code": roomCode}
	opts := options.Find().
		SetSort(bson.D{{Key: "finished_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []domain.MatchRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}

	return records, nil
}

func (r *matchHistoryRepository) DeleteOlderThan(ctx context.Context, before time.Time) error {
	collection := r.db.Collection(db.MatchHistoryCollection)

	filter := bson.M{
		"finished_at": bson.M{
			"$lt": before,
		},
	}

	_, err := collection.DeleteMany(ctx, filter)
	return err
}

func (r *matchHistoryRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(db.MatchHistoryCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "room_code", Value: 1},
				{Key: "finished_at", Value: -1},
			},
		},
		{
			Keys:    bson.D{{Key: "finished_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(7776000), // 90 days TTL
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
