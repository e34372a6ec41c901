package smtp

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/aircnc-server/internal/notify"
	"github.com/wneessen/go-mail"
)

// Mailer delivers notify messages through an authenticated STARTTLS relay.
// The account user is also the From address.
type Mailer struct {
	host string
	port int
	user string
	pass string
}

func NewMailer(host string, port int, user, pass string) *Mailer {
	return &Mailer{host: host, port: port, user: user, pass: pass}
}

func (m *Mailer) Deliver(ctx context.Context, msg notify.Message) error {
	if m.user == "" || m.pass == "" {
		return errors.New("mail credentials are not configured")
	}

	out, err := m.message(msg)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(m.host,
		mail.WithPort(m.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.user),
		mail.WithPassword(m.pass),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return errors.Wrap(err, "smtp client")
	}
	if err := client.DialAndSendWithContext(ctx, out); err != nil {
		return errors.Wrap(err, "smtp send")
	}
	return nil
}

func (m *Mailer) message(msg notify.Message) (*mail.Msg, error) {
	out := mail.NewMsg()
	if err := out.From(m.user); err != nil {
		return nil, errors.Wrapf(err, "from address %q", m.user)
	}
	if err := out.To(msg.To); err != nil {
		return nil, errors.Wrapf(err, "recipient %q", msg.To)
	}
	out.Subject(msg.Subject)
	out.SetBodyString(mail.TypeTextHTML, msg.HTML())
	return out, nil
}
