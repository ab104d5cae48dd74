package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	twilio "github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioSender sends SMS through the Twilio Messages API.
type TwilioSender struct {
	From   string
	client *twilio.RestClient
}

// NewTwilioSender returns ErrNotConfigured when any credential is empty.
// httpClient carries the request timeout; nil uses the SDK default.
func NewTwilioSender(accountSID, authToken, from string, httpClient *http.Client) (*TwilioSender, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("twilio: %w", ErrNotConfigured)
	}
	base := &twclient.Client{
		Credentials: twclient.NewCredentials(accountSID, authToken),
		HTTPClient:  httpClient,
	}
	base.SetAccountSid(accountSID)
	return &TwilioSender{
		From:   from,
		client: twilio.NewRestClientWithParams(twilio.ClientParams{Client: base}),
	}, nil
}

// Send creates one message.  msg.To is normalised with FormatPhone.
// API errors come back as *ProviderError.
func (s *TwilioSender) Send(ctx context.Context, msg Message) (string, error) {
	if s == nil || s.client == nil {
		return "", fmt.Errorf("twilio: %w", ErrNotConfigured)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	params := &openapi.CreateMessageParams{}
	params.SetTo(FormatPhone(msg.To))
	params.SetFrom(s.From)
	params.SetBody(msg.Text)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		var rest *twclient.TwilioRestError
		if errors.As(err, &rest) {
			return "", &ProviderError{Provider: "twilio", Status: rest.Status, Message: rest.Message}
		}
		return "", fmt.Errorf("twilio: %w", err)
	}
	if resp.Sid == nil {
		return "", nil
	}
	return *resp.Sid, nil
}
