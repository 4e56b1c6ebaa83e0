// Package notify delivers reminder emails through a transactional email API.
package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Message is one reminder email. Params become template variables.
type Message struct {
	To      string
	Subject string
	Params  map[string]string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer logs messages instead of sending them. Used for --dry-run.
type LogMailer struct {
	Log logrus.FieldLogger
}

func (m LogMailer) Send(_ context.Context, msg Message) error {
	log := m.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	fields := logrus.Fields{"to": msg.To, "subject": msg.Subject}
	for k, v := range msg.Params {
		fields["param."+k] = v
	}
	log.WithFields(fields).Info("dry-run reminder")
	return nil
}
