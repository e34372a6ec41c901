package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/aircnc-server/internal/domain"
	"github.com/robertarktes/aircnc-server/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type AuditLogger struct {
	coll   *mongo.Collection
	logger observability.Logger
	now    func() time.Time
}

func NewAuditLogger(db *mongo.Database, logger observability.Logger) *AuditLogger {
	return &AuditLogger{
		coll:   db.Collection(auditCollection),
		logger: logger,
		now:    time.Now,
	}
}

type AuditLog struct {
	ID         string    `bson:"_id"`
	Action     string    `bson:"action"`
	EventID    string    `bson:"event_id"`
	BookingID  string    `bson:"booking_id"`
	Actor      string    `bson:"actor,omitempty"`
	OccurredAt time.Time `bson:"occurred_at"`
	RecordedAt time.Time `bson:"recorded_at"`
	Data       bson.M    `bson:"data,omitempty"`
}

// LogBookingEvent stores one audit entry per event. Redelivered events with
// the same id are ignored.
func (a *AuditLogger) LogBookingEvent(ctx context.Context, ev domain.BookingEvent) error {
	id := ev.ID
	if id == "" {
		id = uuid.NewString()
	}
	entry := AuditLog{
		ID:         id,
		Action:     ev.Type,
		EventID:    ev.ID,
		BookingID:  ev.BookingID,
		Actor:      ev.GuestEmail,
		OccurredAt: ev.OccurredAt,
		RecordedAt: a.now().UTC(),
	}
	if ev.Type == domain.EventBookingCreated {
		entry.Data = bson.M{
			"transaction_id": ev.TransactionID,
			"host":           ev.Host,
			"price":          ev.Price,
		}
	}
	_, err := a.coll.InsertOne(ctx, entry)
	if mongo.IsDuplicateKeyError(err) {
		a.logger.WithField("event_id", ev.ID).Debug("audit entry already recorded")
		return nil
	}
	if err != nil {
		a.logger.WithError(err).WithField("event_id", ev.ID).Error("failed to insert audit log")
		return upstream(err, "insert audit log")
	}
	return nil
}
