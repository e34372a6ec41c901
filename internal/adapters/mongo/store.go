package mongo

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/aircnc-server/internal/domain"
	"github.com/robertarktes/aircnc-server/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Store owns the client and the per-collection repositories of one database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database

	Users    *UserRepository
	Rooms    *RoomRepository
	Bookings *BookingRepository
	Audit    *AuditLogger
}

// Connect dials uri lazily; the driver does not contact the server until the
// first operation, so a bad deployment surfaces at call time.
func Connect(ctx context.Context, uri, database string, logger observability.Logger) (*Store, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "connect mongo")
	}
	return NewStore(client.Database(database), logger), nil
}

func NewStore(db *mongo.Database, logger observability.Logger) *Store {
	return &Store{
		client:   db.Client(),
		db:       db,
		Users:    NewUserRepository(db, logger),
		Rooms:    NewRoomRepository(db, logger),
		Bookings: NewBookingRepository(db, logger),
		Audit:    NewAuditLogger(db, logger),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection:    {{Keys: bson.D{{Key: "email", Value: 1}}}},
		roomsCollection:    {{Keys: bson.D{{Key: "host.email", Value: 1}}}},
		bookingsCollection: {{Keys: bson.D{{Key: "guest.email", Value: 1}}}, {Keys: bson.D{{Key: "host", Value: 1}}}},
	}
	for coll, models := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return upstream(err, "create indexes on "+coll)
		}
	}
	return nil
}

const (
	usersCollection    = "users"
	roomsCollection    = "rooms"
	bookingsCollection = "bookings"
	auditCollection    = "audit_logs"
)

func upstream(err error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), domain.ErrUpstream)
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, errors.Wrapf(domain.ErrInvalidInput, "invalid id %q", id)
	}
	return oid, nil
}

func hexID(v interface{}) string {
	if oid, ok := v.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return ""
}

// withoutID drops a caller-supplied _id; identifiers come from the path or
// the store.
func withoutID(doc domain.Document) bson.M {
	out := make(bson.M, len(doc))
	for k, v := range doc {
		if k == "_id" {
			continue
		}
		out[k] = v
	}
	return out
}

func updateResult(res *mongo.UpdateResult) domain.UpdateResult {
	return domain.UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
		UpsertedID:    res.UpsertedID,
	}
}

func decodeAll(ctx context.Context, cur *mongo.Cursor) ([]domain.Document, error) {
	out := []domain.Document{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
