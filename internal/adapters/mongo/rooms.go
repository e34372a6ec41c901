package mongo

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/aircnc-server/internal/domain"
	"github.com/robertarktes/aircnc-server/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type RoomRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewRoomRepository(db *mongo.Database, logger observability.Logger) *RoomRepository {
	return &RoomRepository{
		coll:   db.Collection(roomsCollection),
		logger: logger,
	}
}

func (r *RoomRepository) List(ctx context.Context) ([]domain.Document, error) {
	return r.find(ctx, bson.M{})
}

// ListByHost returns rooms whose host.email equals email.
func (r *RoomRepository) ListByHost(ctx context.Context, email string) ([]domain.Document, error) {
	return r.find(ctx, bson.M{"host.email": email})
}

// Get returns nil when the room does not exist.
func (r *RoomRepository) Get(ctx context.Context, id string) (domain.Document, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc domain.Document
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		r.logger.WithError(err).WithField("room_id", id).Error("failed to get room")
		return nil, upstream(err, "get room")
	}
	return doc, nil
}

func (r *RoomRepository) Insert(ctx context.Context, doc domain.Document) (domain.InsertResult, error) {
	res, err := r.coll.InsertOne(ctx, withoutID(doc))
	if err != nil {
		r.logger.WithError(err).Error("failed to insert room")
		return domain.InsertResult{}, upstream(err, "insert room")
	}
	return domain.InsertResult{Acknowledged: true, InsertedID: hexID(res.InsertedID)}, nil
}

// Update sets the given fields on the room, creating it under id if missing.
func (r *RoomRepository) Update(ctx context.Context, id string, doc domain.Document) (domain.UpdateResult, error) {
	oid, err := objectID(id)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": withoutID(doc)},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		r.logger.WithError(err).WithField("room_id", id).Error("failed to update room")
		return domain.UpdateResult{}, upstream(err, "update room")
	}
	return updateResult(res), nil
}

// SetBooked overwrites the room's booked flag. A missing room is not created.
func (r *RoomRepository) SetBooked(ctx context.Context, id string, booked bool) (domain.UpdateResult, error) {
	oid, err := objectID(id)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"booked": booked}})
	if err != nil {
		r.logger.WithError(err).WithField("room_id", id).Error("failed to set room status")
		return domain.UpdateResult{}, upstream(err, "set room status")
	}
	return updateResult(res), nil
}

func (r *RoomRepository) Delete(ctx context.Context, id string) (domain.DeleteResult, error) {
	oid, err := objectID(id)
	if err != nil {
		return domain.DeleteResult{}, err
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		r.logger.WithError(err).WithField("room_id", id).Error("failed to delete room")
		return domain.DeleteResult{}, upstream(err, "delete room")
	}
	return domain.DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

func (r *RoomRepository) find(ctx context.Context, filter bson.M) ([]domain.Document, error) {
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		r.logger.WithError(err).Error("failed to list rooms")
		return nil, upstream(err, "list rooms")
	}
	docs, err := decodeAll(ctx, cur)
	if err != nil {
		return nil, upstream(err, "decode rooms")
	}
	return docs, nil
}
