package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jackyckma/baudagain/internal/model"
)

type MessageRepo interface {
	Create(ctx context.Context, msg *model.Message) error
	ListByBoard(ctx context.Context, board string, limit int64) ([]*model.Message, error)
}

type messageRepo struct {
	collection *mongo.Collection
}

func NewMessageRepo(db *mongo.Database) MessageRepo {
	return &messageRepo{
		collection: db.Collection("messages"),
	}
}

func (r *messageRepo) Create(ctx context.Context, msg *model.Message) error {
	_, err := r.collection.InsertOne(ctx, msg)
	return err
}

// ListByBoard returns messages newest first.
func (r *messageRepo) ListByBoard(ctx context.Context, board string, limit int64) ([]*model.Message, error) {
	opts := options.Find().
		SetSort(bson.M{"postedAt": -1}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{"board": board}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var msgs []*model.Message
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}
