// Package audit records booking events delivered from the message broker.
package audit

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/aircnc-server/internal/domain"
	"github.com/robertarktes/aircnc-server/internal/observability"
)

type Sink interface {
	LogBookingEvent(ctx context.Context, ev domain.BookingEvent) error
}

type Recorder struct {
	sink   Sink
	logger observability.Logger
}

func NewRecorder(sink Sink, logger observability.Logger) *Recorder {
	return &Recorder{sink: sink, logger: logger}
}

// Run handles deliveries until the channel closes or ctx is done. Messages
// that cannot be decoded are dropped; failed writes are requeued once.
func (r *Recorder) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			r.handle(ctx, d)
		}
	}
}

func (r *Recorder) handle(ctx context.Context, d amqp.Delivery) {
	log := r.logger.WithFields(map[string]interface{}{"message_id": d.MessageId, "routing_key": d.RoutingKey})

	var ev domain.BookingEvent
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		log.WithError(err).Error("dropping malformed booking event")
		d.Nack(false, false)
		return
	}
	if ev.Type == "" {
		ev.Type = d.RoutingKey
	}

	if err := r.sink.LogBookingEvent(ctx, ev); err != nil {
		log.WithError(err).Error("failed to record booking event")
		d.Nack(false, !d.Redelivered)
		return
	}
	d.Ack(false)
	log.WithField("booking_id", ev.BookingID).Debug("booking event recorded")
}
