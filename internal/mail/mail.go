// Package mail delivers rendered email messages.
package mail

import (
	"context"
	"net/mail"
)

// Message is a rendered email.
type Message struct {
	To      []mail.Address
	Subject string
	Text    string
	HTML    string
}

// HasRecipients reports whether the message has somewhere to go.
func (m Message) HasRecipients() bool { return len(m.To) > 0 }

// Mailer is any service that can send emails.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
