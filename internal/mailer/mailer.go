// Package mailer sends one-shot transactional email over SMTP. Delivery is
// synchronous and unretried; failures are reported as a Result value, never
// as an error, so callers can treat notification as at-most-effort.
package mailer

import (
	"context"

	"github.com/wneessen/go-mail"

	"pinboard/config"
	"pinboard/internal/logger"
)

// Result is the outcome of one delivery attempt: Sent, or Failed with the
// transport's reason. Notification failure must never abort the flow that
// triggered it, so there is no error return anywhere in this package.
type Result struct {
	Sent   bool
	Reason string
}

func sent() Result            { return Result{Sent: true} }
func failed(err error) Result { return Result{Reason: err.Error()} }

// sender is satisfied by *mail.Client; tests swap in a fake transport.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Mailer delivers plain-text mail from the configured sender address.
type Mailer struct {
	client sender
	from   string
}

// New builds a Mailer from the mail section of the config.
func New(cfg config.MailConfig) (*Mailer, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
	)
	if err != nil {
		return nil, err
	}
	return &Mailer{client: client, from: cfg.From}, nil
}

// Send attempts one delivery on the calling goroutine and reports the
// outcome. Any transport error is absorbed into the Result.
func (m *Mailer) Send(ctx context.Context, subject, recipient, body string) Result {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return failed(err)
	}
	if err := msg.To(recipient); err != nil {
		return failed(err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		logger.Log.Warnw("mail delivery failed", "recipient", recipient, "err", err)
		return failed(err)
	}
	return sent()
}
