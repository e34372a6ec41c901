package domain

import (
	"encoding/json"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func decode(t *testing.T, in string) Booking {
	t.Helper()
	var b Booking
	if err := json.Unmarshal([]byte(in), &b); err != nil {
		t.Fatal(err)
	}
	return b
}

func TestBooking_AcceptsAnyShape(t *testing.T) {
	b := decode(t, `{"guest":{"email":"g@x.com"},"host":{"email":"h@x.com","name":"H"},"transactionId":123,"price":"10","location":"Dhaka"}`)

	if b.GuestEmail() != "g@x.com" {
		t.Errorf("unexpected guest %q", b.GuestEmail())
	}
	if b.Host() != "h@x.com" {
		t.Errorf("unexpected host %q", b.Host())
	}
	if b.TransactionID() != "123" {
		t.Errorf("unexpected transaction id %q", b.TransactionID())
	}
	if b.Price() != "10" || b["location"] != "Dhaka" {
		t.Errorf("fields must be kept verbatim, got %v", b)
	}
}

func TestBooking_StringHostAndMissingFields(t *testing.T) {
	b := decode(t, `{"host":"h@x.com"}`)
	if b.Host() != "h@x.com" {
		t.Errorf("unexpected host %q", b.Host())
	}
	if b.GuestEmail() != "" || b.TransactionID() != "" || b.ID() != "" {
		t.Errorf("missing fields should read as empty, got %q %q %q", b.GuestEmail(), b.TransactionID(), b.ID())
	}
}

func TestBooking_ConfirmationText(t *testing.T) {
	id := primitive.NewObjectID()
	b := Booking{"_id": id, "transactionId": "pi_9"}
	want := "Booking id: " + id.Hex() + ", TransactionId: pi_9"
	if got := b.ConfirmationText(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestBooking_StoredNestedDocuments(t *testing.T) {
	b := Booking{"guest": primitive.M{"email": "g@x.com"}, "host": primitive.M{"email": "h@x.com"}}
	if b.GuestEmail() != "g@x.com" || b.Host() != "h@x.com" {
		t.Errorf("unexpected emails %q %q", b.GuestEmail(), b.Host())
	}
}

func TestBooking_MarshalUsesHexID(t *testing.T) {
	id := primitive.NewObjectID()
	data, err := json.Marshal(Booking{"_id": id, "price": 25.5})
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out["_id"] != id.Hex() || out["price"] != 25.5 {
		t.Errorf("unexpected json %s", data)
	}
}
