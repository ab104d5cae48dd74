// Package notify sends voucher notifications over SMS and email.
// Delivery is best effort: every recipient is attempted once, failures
// are recorded per recipient, and nothing is retried.
package notify

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotConfigured is returned when a provider's credentials are
// missing.  It fails the dispatch that needed the provider and nothing else.
var ErrNotConfigured = errors.New("notification provider not configured")

// Channel selects the transport for a dispatch.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// ParseChannel validates a channel name.
func ParseChannel(s string) (Channel, error) {
	switch Channel(s) {
	case ChannelSMS, ChannelEmail:
		return Channel(s), nil
	}
	return "", fmt.Errorf("unknown channel %q", s)
}

// Message is a single outbound notification.  SMS senders use To and
// Text; email senders also use Subject and HTML.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers one message and returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// ProviderError is a non-2xx answer from a provider API.
type ProviderError struct {
	Provider string
	Status   int
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.Status, e.Message)
}
