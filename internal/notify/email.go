package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/resend/resend-go/v2"
)

// ResendSender delivers email through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender returns ErrNotConfigured when the API key or the
// sender address is empty.  httpClient bounds each request.
func NewResendSender(apiKey, from string, httpClient *http.Client) (*ResendSender, error) {
	if apiKey == "" || from == "" {
		return nil, fmt.Errorf("resend: %w", ErrNotConfigured)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ResendSender{client: resend.NewCustomClient(httpClient, apiKey), from: from}, nil
}

// Send delivers one email and returns the Resend message id.
func (s *ResendSender) Send(ctx context.Context, msg Message) (string, error) {
	if s == nil || s.client == nil {
		return "", fmt.Errorf("resend: %w", ErrNotConfigured)
	}
	sent, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return "", fmt.Errorf("resend: %w", err)
	}
	return sent.Id, nil
}
