package stripe

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/aircnc-server/internal/domain"
	"github.com/robertarktes/aircnc-server/internal/payment"
	stripego "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// Client issues card PaymentIntents with its own API key.
type Client struct {
	api    *client.API
	hasKey bool
}

func NewClient(secretKey string) *Client {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Client{api: api, hasKey: secretKey != ""}
}

func (c *Client) Authorize(ctx context.Context, amount int64, currency string) (payment.Authorization, error) {
	if !c.hasKey {
		return payment.Authorization{}, errors.New("payment secret key is not configured")
	}
	params := &stripego.PaymentIntentParams{
		Amount:             stripego.Int64(amount),
		Currency:           stripego.String(currency),
		PaymentMethodTypes: stripego.StringSlice([]string{"card"}),
	}
	params.Context = ctx

	pi, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return payment.Authorization{}, errors.Wrap(err, "create payment intent")
	}
	return payment.Authorization{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (c *Client) Lookup(ctx context.Context, id string) (payment.Intent, error) {
	if !c.hasKey {
		return payment.Intent{}, errors.New("payment secret key is not configured")
	}
	params := &stripego.PaymentIntentParams{}
	params.Context = ctx

	pi, err := c.api.PaymentIntents.Get(id, params)
	if err != nil {
		return payment.Intent{}, classify(errors.Wrapf(err, "get payment intent %s", id))
	}
	return payment.Intent{ID: pi.ID, Status: string(pi.Status), Amount: pi.Amount}, nil
}

// classify marks provider rejections of the request itself, such as an
// unknown PaymentIntent id, as invalid input. Everything else stays an
// upstream failure for the caller to decide.
func classify(err error) error {
	var serr *stripego.Error
	if !errors.As(err, &serr) {
		return err
	}
	if serr.HTTPStatusCode == http.StatusNotFound || serr.Type == stripego.ErrorTypeInvalidRequest {
		return errors.Mark(err, domain.ErrInvalidInput)
	}
	return err
}
