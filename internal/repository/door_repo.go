package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jackyckma/baudagain/internal/model"
)

// DoorSessionRepo is the durable owner of door-session snapshots. One
// document per (userId, doorId); Save upserts the snapshot, the Mark*
// methods flip its status so at most one Active snapshot can exist per pair.
type DoorSessionRepo interface {
	FindActive(ctx context.Context, userID, doorID string) (*model.DoorSession, error)
	Save(ctx context.Context, ds *model.DoorSession) error
	MarkTimedOut(ctx context.Context, userID, doorID string) error
	MarkExited(ctx context.Context, userID, doorID string) error
}

type doorSessionRepo struct {
	collection *mongo.Collection
}

func NewDoorSessionRepo(db *mongo.Database) DoorSessionRepo {
	return &doorSessionRepo{
		collection: db.Collection("door_sessions"),
	}
}

func (r *doorSessionRepo) FindActive(ctx context.Context, userID, doorID string) (*model.DoorSession, error) {
	var ds model.DoorSession
	err := r.collection.FindOne(ctx, bson.M{
		"userId": userID,
		"doorId": doorID,
		"status": model.DoorActive,
	}).Decode(&ds)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &ds, nil
}

func (r *doorSessionRepo) Save(ctx context.Context, ds *model.DoorSession) error {
	filter := bson.M{"userId": ds.UserID, "doorId": ds.DoorID}
	_, err := r.collection.ReplaceOne(ctx, filter, ds, options.Replace().SetUpsert(true))
	return err
}

func (r *doorSessionRepo) MarkTimedOut(ctx context.Context, userID, doorID string) error {
	return r.setStatus(ctx, userID, doorID, model.DoorTimedOut)
}

func (r *doorSessionRepo) MarkExited(ctx context.Context, userID, doorID string) error {
	return r.setStatus(ctx, userID, doorID, model.DoorExited)
}

func (r *doorSessionRepo) setStatus(ctx context.Context, userID, doorID string, status model.DoorStatus) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"userId": userID, "doorId": doorID},
		bson.M{"$set": bson.M{"status": status}},
	)
	return err
}
