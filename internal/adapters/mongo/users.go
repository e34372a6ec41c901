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

type UserRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewUserRepository(db *mongo.Database, logger observability.Logger) *UserRepository {
	return &UserRepository{
		coll:   db.Collection(usersCollection),
		logger: logger,
	}
}

// Upsert sets the given fields on the user keyed by email, creating it if needed.
func (u *UserRepository) Upsert(ctx context.Context, email string, doc domain.Document) (domain.UpdateResult, error) {
	res, err := u.coll.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": withoutID(doc)},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		u.logger.WithError(err).WithField("email", email).Error("failed to upsert user")
		return domain.UpdateResult{}, upstream(err, "upsert user")
	}
	return updateResult(res), nil
}

// Get returns nil when no user has the email.
func (u *UserRepository) Get(ctx context.Context, email string) (domain.Document, error) {
	var doc domain.Document
	err := u.coll.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		u.logger.WithError(err).WithField("email", email).Error("failed to get user")
		return nil, upstream(err, "get user")
	}
	return doc, nil
}

func (u *UserRepository) List(ctx context.Context) ([]domain.Document, error) {
	cur, err := u.coll.Find(ctx, bson.M{})
	if err != nil {
		u.logger.WithError(err).Error("failed to list users")
		return nil, upstream(err, "list users")
	}
	docs, err := decodeAll(ctx, cur)
	if err != nil {
		return nil, upstream(err, "decode users")
	}
	return docs, nil
}
