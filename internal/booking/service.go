// Package booking persists reservations and notifies both parties.
package booking

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/aircnc-server/internal/domain"
	"github.com/robertarktes/aircnc-server/internal/notify"
	"github.com/robertarktes/aircnc-server/internal/observability"
	"github.com/robertarktes/aircnc-server/internal/payment"
)

const (
	GuestSubject = "Booking Successful!"
	HostSubject  = "Your Room got Booked!"
)

// Store persists bookings. InsertBooking assigns b["_id"] and returns its hex form.
type Store interface {
	InsertBooking(ctx context.Context, b domain.Booking) (string, error)
	BookingsByGuest(ctx context.Context, email string) ([]domain.Booking, error)
	BookingsByHost(ctx context.Context, email string) ([]domain.Booking, error)
	AllBookings(ctx context.Context) ([]domain.Booking, error)
	DeleteBooking(ctx context.Context, id string) (domain.DeleteResult, error)
}

type Notifier interface {
	Dispatch(ctx context.Context, msgs ...notify.Message) <-chan notify.Delivery
}

type EventPublisher interface {
	PublishJSON(ctx context.Context, routingKey string, v interface{}) error
}

// Ledger records which payment transactions already back a booking.
type Ledger interface {
	ClaimTransaction(ctx context.Context, txID, owner string) (bool, error)
	ReleaseTransaction(ctx context.Context, txID string) error
}

type IntentLookup interface {
	Lookup(ctx context.Context, id string) (payment.Intent, error)
}

type Option func(*Service)

// WithEvents publishes booking.created and booking.deleted after each change.
func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// WithVerification requires every booking to reference a succeeded payment
// for its price and refuses to reuse a transaction id.
func WithVerification(lookup IntentLookup, ledger Ledger) Option {
	return func(s *Service) {
		s.lookup = lookup
		s.ledger = ledger
	}
}

// WithHostFilter controls whether host listings are restricted to the host.
func WithHostFilter(enabled bool) Option {
	return func(s *Service) { s.hostFilter = enabled }
}

type Service struct {
	store      Store
	notifier   Notifier
	events     EventPublisher
	lookup     IntentLookup
	ledger     Ledger
	hostFilter bool
	logger     observability.Logger
	now        func() time.Time
}

func NewService(store Store, notifier Notifier, logger observability.Logger, opts ...Option) *Service {
	s := &Service{
		store:      store,
		notifier:   notifier,
		hostFilter: true,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type Created struct {
	Result   domain.InsertResult
	Notified <-chan notify.Delivery
}

// Create inserts b as sent and then notifies the guest and the host in the
// background. Delivery outcomes never change the result.
func (s *Service) Create(ctx context.Context, b domain.Booking) (Created, error) {
	if b == nil {
		return Created{}, errors.Wrap(domain.ErrInvalidInput, "booking body is required")
	}
	delete(b, "_id")

	claimed := false
	if s.ledger != nil && s.lookup != nil {
		if err := s.verify(ctx, b); err != nil {
			return Created{}, err
		}
		claimed = true
	}

	id, err := s.store.InsertBooking(ctx, b)
	if err != nil {
		if claimed {
			if rerr := s.ledger.ReleaseTransaction(context.WithoutCancel(ctx), b.TransactionID()); rerr != nil {
				s.logger.WithError(rerr).WithField("transaction_id", b.TransactionID()).Error("failed to release transaction claim")
			}
		}
		s.logger.WithError(err).Error("failed to insert booking")
		if errors.Is(err, domain.ErrUpstream) {
			return Created{}, err
		}
		return Created{}, errors.Mark(errors.Wrap(err, "insert booking"), domain.ErrUpstream)
	}
	observability.BookingsCreated.Inc()

	text := b.ConfirmationText()
	notified := s.notifier.Dispatch(context.WithoutCancel(ctx),
		notify.Message{To: b.GuestEmail(), Subject: GuestSubject, Text: text},
		notify.Message{To: b.Host(), Subject: HostSubject, Text: text},
	)

	s.publish(ctx, domain.EventBookingCreated, id, b)

	return Created{
		Result:   domain.InsertResult{Acknowledged: true, InsertedID: id},
		Notified: notified,
	}, nil
}

// verify requires a succeeded provider transaction for the booking's price.
// Unknown or malformed transaction ids are caller errors.
func (s *Service) verify(ctx context.Context, b domain.Booking) error {
	txID := b.TransactionID()
	if txID == "" {
		return errors.Wrap(domain.ErrInvalidInput, "transactionId is required")
	}
	price, err := payment.ParsePrice(b.Price())
	if err != nil {
		return err
	}
	intent, err := s.lookup.Lookup(ctx, txID)
	if errors.Is(err, domain.ErrInvalidInput) {
		return err
	}
	if err != nil {
		return errors.Mark(errors.Wrap(err, "look up transaction"), domain.ErrUpstream)
	}
	if intent.Status != payment.StatusSucceeded {
		return errors.Wrapf(domain.ErrInvalidInput, "transaction %s is %s", txID, intent.Status)
	}
	if intent.Amount != payment.ToMinorUnits(price) {
		return errors.Wrapf(domain.ErrInvalidInput, "transaction amount %d does not match price %v", intent.Amount, price)
	}

	ok, err := s.ledger.ClaimTransaction(ctx, txID, b.GuestEmail())
	if err != nil {
		return errors.Mark(errors.Wrap(err, "claim transaction"), domain.ErrUpstream)
	}
	if !ok {
		return errors.Wrapf(domain.ErrConflict, "transaction %s already backs a booking", txID)
	}
	return nil
}

func (s *Service) ListByGuest(ctx context.Context, email string) ([]domain.Booking, error) {
	if email == "" {
		return []domain.Booking{}, nil
	}
	return s.store.BookingsByGuest(ctx, email)
}

// ListForHost returns the host's bookings, or every booking when the host
// filter is disabled. An empty email always yields an empty list.
func (s *Service) ListForHost(ctx context.Context, email string) ([]domain.Booking, error) {
	if email == "" {
		return []domain.Booking{}, nil
	}
	if !s.hostFilter {
		return s.store.AllBookings(ctx)
	}
	return s.store.BookingsByHost(ctx, email)
}

func (s *Service) Delete(ctx context.Context, id string) (domain.DeleteResult, error) {
	res, err := s.store.DeleteBooking(ctx, id)
	if err != nil {
		return domain.DeleteResult{}, err
	}
	if res.DeletedCount == 0 {
		return domain.DeleteResult{}, errors.Wrapf(domain.ErrNotFound, "booking %s", id)
	}
	s.publish(ctx, domain.EventBookingDeleted, id, nil)
	return res, nil
}

func (s *Service) publish(ctx context.Context, kind, id string, b domain.Booking) {
	if s.events == nil {
		return
	}
	ev := domain.BookingEvent{
		ID:         uuid.NewString(),
		Type:       kind,
		BookingID:  id,
		OccurredAt: s.now().UTC(),
	}
	if b != nil {
		ev.TransactionID = b.TransactionID()
		ev.GuestEmail = b.GuestEmail()
		ev.Host = b.Host()
		if price, err := payment.ParsePrice(b.Price()); err == nil {
			ev.Price = price
		}
	}
	if err := s.events.PublishJSON(ctx, kind, ev); err != nil {
		observability.EventPublishFailures.Inc()
		s.logger.WithError(err).WithFields(map[string]interface{}{"event": kind, "booking_id": id}).Warn("failed to publish booking event")
	}
}
