// Package mailx delivers transactional email. A Sender owns its transport
// for its whole lifetime: construct it once, Verify it at startup, Close it
// on shutdown.
package mailx

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

var (
	ErrInvalidMessage = errors.New("mailx: invalid message")
	ErrInvalidConfig  = errors.New("mailx: invalid config")
	ErrSendFailed     = errors.New("mailx: failed to send email")
	ErrClosed         = errors.New("mailx: sender closed")
)

// Sender is a mail transport.
type Sender interface {
	// Send delivers one message.
	Send(ctx context.Context, msg Message) error
	// Verify checks the transport is reachable and authorised.
	Verify(ctx context.Context) error
	// Close releases the transport. Send fails with ErrClosed afterwards.
	Close() error
}

// Attachment is a file carried by a Message. ContentID lets an HTML body
// reference an inline attachment through a cid: URL.
type Attachment struct {
	Name        string
	ContentType string
	ContentID   string
	Content     []byte
}

// Message is a single outbound email.
type Message struct {
	To          string
	Subject     string
	Text        string
	HTML        string
	Tag         string
	Attachments []Attachment
}

// Validate checks the message carries a recipient, subject and a body.
func (m Message) Validate() error {
	if _, err := mail.ParseAddress(m.To); err != nil {
		return fmt.Errorf("%w: recipient %q", ErrInvalidMessage, m.To)
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidMessage)
	}
	if m.Text == "" && m.HTML == "" {
		return fmt.Errorf("%w: body is required", ErrInvalidMessage)
	}
	for _, a := range m.Attachments {
		if a.Name == "" || len(a.Content) == 0 {
			return fmt.Errorf("%w: attachment needs a name and content", ErrInvalidMessage)
		}
	}
	return nil
}
