// Package email specifies the transactional-email collaborator. The real
// provider adapter lives behind Sender; a send failure is logged, never
// surfaced, because email is a best-effort side channel.
package email

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Options describe one outgoing email.
type Options struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers transactional email.
type Sender interface {
	Send(ctx context.Context, opts Options) error
}

// LogSender is used in local runs without provider credentials; it records
// what would have been sent.
type LogSender struct {
	From string
}

func (s *LogSender) Send(_ context.Context, opts Options) error {
	from := s.From
	if from == "" {
		from = "MarketHub <noreply@markethub.dev>"
	}
	logrus.Infof("email from %s to %s: %s", from, opts.To, opts.Subject)
	return nil
}
