package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/iliyamo/faculty-fest/internal/eligibility"
)

// Recipient is a registrant eligible for a voucher, with the contact
// details each channel needs.
type Recipient struct {
	RegistrantID uint64
	Name         string
	Email        string
	Phone        string
	Rank         int
	Tier         eligibility.Tier
}

// Address returns the contact used on ch.
func (r Recipient) Address(ch Channel) string {
	if ch == ChannelSMS {
		return r.Phone
	}
	return r.Email
}

// SMSText is the voucher announcement sent by SMS.
func SMSText(r Recipient) string {
	return fmt.Sprintf("Congratulations %s! As visitor #%d, you're eligible for: %s. Visit the vouchers page to claim your reward!",
		r.Name, r.Rank, r.Tier.Name)
}

const emailSubject = "You're Eligible for a Complimentary Voucher!"

var emailTemplate = template.Must(template.New("voucher").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: 'Segoe UI', Tahoma, sans-serif; background: #1a1a2e; color: #f5f5dc;">
  <div style="max-width: 600px; margin: 0 auto; padding: 40px 20px;">
    <h1 style="color: #d4af37; text-align: center;">Congratulations, {{.Name}}!</h1>
    <div style="border: 1px solid #d4af37; border-radius: 16px; padding: 30px;">
      <p style="text-align: center;">As one of our first visitors, you're eligible for:</p>
      <p style="color: #d4af37; font-size: 22px; font-weight: bold; text-align: center;">{{.Tier.Name}}</p>
      <p style="text-align: center; opacity: 0.8;">Your position: #{{.Rank}}</p>
    </div>
    <p style="text-align: center; color: #888; font-size: 12px;">Please visit the vouchers page to claim your reward before the event!</p>
  </div>
</body>
</html>`))

// EmailMessage renders the voucher announcement email for r.
func EmailMessage(r Recipient) (Message, error) {
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, r); err != nil {
		return Message{}, err
	}
	return Message{
		To:      r.Email,
		Subject: emailSubject,
		Text:    SMSText(r),
		HTML:    buf.String(),
	}, nil
}
