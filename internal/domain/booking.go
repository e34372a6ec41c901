package domain

import (
	"encoding/json"
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Booking is stored exactly as the caller sent it. The accessors read the
// few fields the workflow needs without imposing a shape on them.
type Booking map[string]interface{}

// ID returns the hex form of the store-assigned _id, or "" before insert.
func (b Booking) ID() string {
	switch v := b["_id"].(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	}
	return ""
}

func (b Booking) GuestEmail() string {
	if guest, ok := asMap(b["guest"]); ok {
		return Text(guest["email"])
	}
	return ""
}

// Host accepts either an email string or an object with an email field.
func (b Booking) Host() string {
	if host, ok := asMap(b["host"]); ok {
		return Text(host["email"])
	}
	return Text(b["host"])
}

func (b Booking) TransactionID() string {
	return Text(b["transactionId"])
}

// Price returns the raw price value for callers that parse it themselves.
func (b Booking) Price() interface{} {
	return b["price"]
}

// ConfirmationText is the body shared by the guest and host notifications.
func (b Booking) ConfirmationText() string {
	return "Booking id: " + b.ID() + ", TransactionId: " + b.TransactionID()
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case primitive.M:
		return m, true
	case Document:
		return m, true
	}
	return nil, false
}

// Text renders a scalar document value; nil and missing values are "".
func Text(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	case primitive.ObjectID:
		return x.Hex()
	}
	return fmt.Sprint(v)
}
