// Package payment turns a booking price into a provider payment authorization.
package payment

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/aircnc-server/internal/domain"
	"github.com/robertarktes/aircnc-server/internal/observability"
)

const Currency = "usd"

type Authorization struct {
	ID           string
	ClientSecret string
}

// Intent is the provider's current view of an authorization.
type Intent struct {
	ID     string
	Status string
	Amount int64
}

const StatusSucceeded = "succeeded"

type Authorizer interface {
	Authorize(ctx context.Context, amount int64, currency string) (Authorization, error)
	Lookup(ctx context.Context, id string) (Intent, error)
}

type Service struct {
	provider Authorizer
	logger   observability.Logger
}

func NewService(provider Authorizer, logger observability.Logger) *Service {
	return &Service{provider: provider, logger: logger}
}

// CreateIntent authorizes price (major units) in USD. The price may be a
// JSON number or a numeric string.
func (s *Service) CreateIntent(ctx context.Context, price interface{}) (Authorization, error) {
	amount, err := ParsePrice(price)
	if err != nil {
		return Authorization{}, err
	}

	auth, err := s.provider.Authorize(ctx, ToMinorUnits(amount), Currency)
	if err != nil {
		observability.PaymentIntents.WithLabelValues("failed").Inc()
		s.logger.WithError(err).WithField("amount", amount).Error("payment authorization failed")
		return Authorization{}, errors.Mark(errors.Wrap(err, "authorize payment"), domain.ErrUpstream)
	}
	observability.PaymentIntents.WithLabelValues("created").Inc()
	return auth, nil
}

// ParsePrice accepts the decoded JSON value of a price field.
func ParsePrice(v interface{}) (float64, error) {
	var p float64
	switch x := v.(type) {
	case nil:
		return 0, errors.Wrap(domain.ErrInvalidInput, "price is required")
	case float64:
		p = x
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, errors.Wrapf(domain.ErrInvalidInput, "price %q is not a number", x.String())
		}
		p = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, errors.Wrapf(domain.ErrInvalidInput, "price %q is not a number", x)
		}
		p = f
	case int:
		p = float64(x)
	case int64:
		p = float64(x)
	default:
		return 0, errors.Wrapf(domain.ErrInvalidInput, "price has unsupported type %T", v)
	}
	if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
		return 0, errors.Wrapf(domain.ErrInvalidInput, "price must be positive, got %v", p)
	}
	return p, nil
}

// ToMinorUnits converts a major-unit price to cents, rounding to the nearest
// cent so that 25.5 becomes 2550.
func ToMinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}
