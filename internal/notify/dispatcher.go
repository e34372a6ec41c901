// Package notify sends single-recipient HTML mail without retries.
package notify

import (
	"context"
	"html"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/aircnc-server/internal/domain"
	"github.com/robertarktes/aircnc-server/internal/observability"
	"golang.org/x/sync/errgroup"
)

type Message struct {
	To      string
	Subject string
	Text    string
}

// HTML wraps the escaped text in a single paragraph.
func (m Message) HTML() string {
	return "<p>" + html.EscapeString(m.Text) + "</p>"
}

// Transport performs one delivery attempt.
type Transport interface {
	Deliver(ctx context.Context, msg Message) error
}

// Delivery reports the outcome for one recipient. Err is nil on success.
type Delivery struct {
	To  string
	Err error
}

type Dispatcher struct {
	transport Transport
	logger    observability.Logger
	inflight  sync.WaitGroup
}

func NewDispatcher(transport Transport, logger observability.Logger) *Dispatcher {
	return &Dispatcher{transport: transport, logger: logger}
}

// Send makes a single attempt. The error is advisory; callers are not
// expected to act on it.
func (d *Dispatcher) Send(ctx context.Context, msg Message) error {
	log := d.logger.WithFields(map[string]interface{}{"to": msg.To, "subject": msg.Subject})

	var err error
	if msg.To == "" {
		err = errors.Wrap(domain.ErrNotification, "empty recipient")
	} else if derr := d.transport.Deliver(ctx, msg); derr != nil {
		err = errors.Mark(errors.Wrapf(derr, "deliver to %s", msg.To), domain.ErrNotification)
	}

	if err != nil {
		observability.Notifications.WithLabelValues("failed").Inc()
		log.WithError(err).Error("notification failed")
		return err
	}
	observability.Notifications.WithLabelValues("sent").Inc()
	log.Info("notification sent")
	return nil
}

// Dispatch sends every message concurrently in the background. The returned
// channel yields one Delivery per message and is closed once all attempts end.
func (d *Dispatcher) Dispatch(ctx context.Context, msgs ...Message) <-chan Delivery {
	out := make(chan Delivery, len(msgs))
	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		defer close(out)

		var g errgroup.Group
		for _, msg := range msgs {
			msg := msg
			g.Go(func() error {
				out <- Delivery{To: msg.To, Err: d.Send(ctx, msg)}
				return nil
			})
		}
		_ = g.Wait()
	}()
	return out
}

// Wait blocks until background dispatches finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
