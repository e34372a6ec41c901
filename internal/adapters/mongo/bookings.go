package mongo

import (
	"context"

	"github.com/robertarktes/aircnc-server/internal/domain"
	"github.com/robertarktes/aircnc-server/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type BookingRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewBookingRepository(db *mongo.Database, logger observability.Logger) *BookingRepository {
	return &BookingRepository{
		coll:   db.Collection(bookingsCollection),
		logger: logger,
	}
}

// InsertBooking stores b unchanged apart from the generated _id.
func (r *BookingRepository) InsertBooking(ctx context.Context, b domain.Booking) (string, error) {
	id := primitive.NewObjectID()
	b["_id"] = id
	if _, err := r.coll.InsertOne(ctx, b); err != nil {
		r.logger.WithError(err).WithField("transaction_id", b.TransactionID()).Error("failed to insert booking")
		delete(b, "_id")
		return "", upstream(err, "insert booking")
	}
	return id.Hex(), nil
}

func (r *BookingRepository) BookingsByGuest(ctx context.Context, email string) ([]domain.Booking, error) {
	return r.find(ctx, bson.M{"guest.email": email})
}

// BookingsByHost matches host stored either as an email or as {email}.
func (r *BookingRepository) BookingsByHost(ctx context.Context, email string) ([]domain.Booking, error) {
	return r.find(ctx, bson.M{"$or": bson.A{
		bson.M{"host": email},
		bson.M{"host.email": email},
	}})
}

func (r *BookingRepository) AllBookings(ctx context.Context) ([]domain.Booking, error) {
	return r.find(ctx, bson.M{})
}

func (r *BookingRepository) DeleteBooking(ctx context.Context, id string) (domain.DeleteResult, error) {
	oid, err := objectID(id)
	if err != nil {
		return domain.DeleteResult{}, err
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		r.logger.WithError(err).WithField("booking_id", id).Error("failed to delete booking")
		return domain.DeleteResult{}, upstream(err, "delete booking")
	}
	return domain.DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M) ([]domain.Booking, error) {
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		r.logger.WithError(err).Error("failed to list bookings")
		return nil, upstream(err, "list bookings")
	}
	out := []domain.Booking{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, upstream(err, "decode bookings")
	}
	return out, nil
}
