package domain

import "time"

const (
	EventBookingCreated = "booking.created"
	EventBookingDeleted = "booking.deleted"
)

// BookingEvent is published after a booking is persisted or removed.
type BookingEvent struct {
	ID            string    `json:"id" bson:"id"`
	Type          string    `json:"type" bson:"type"`
	BookingID     string    `json:"booking_id" bson:"booking_id"`
	TransactionID string    `json:"transaction_id,omitempty" bson:"transaction_id,omitempty"`
	GuestEmail    string    `json:"guest_email,omitempty" bson:"guest_email,omitempty"`
	Host          string    `json:"host,omitempty" bson:"host,omitempty"`
	Price         float64   `json:"price,omitempty" bson:"price,omitempty"`
	OccurredAt    time.Time `json:"occurred_at" bson:"occurred_at"`
}
