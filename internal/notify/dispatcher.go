package notify

import (
	"context"
	"log"

	"golang.org/x/time/rate"
)

// Result is the delivery outcome for one recipient.
type Result struct {
	RegistrantID uint64 `json:"registrant_id"`
	Recipient    string `json:"recipient"`
	Success      bool   `json:"success"`
	ProviderID   string `json:"provider_id,omitempty"`
	Error        string `json:"error,omitempty"`
}

// BatchResult collects per-recipient outcomes of a dispatch.
type BatchResult struct {
	Sent    int      `json:"sent"`
	Failed  int      `json:"failed"`
	Results []Result `json:"results"`
}

func (b *BatchResult) add(r Result) {
	if r.Success {
		b.Sent++
	} else {
		b.Failed++
	}
	b.Results = append(b.Results, r)
}

// Dispatcher fans voucher announcements out to recipients.  A nil
// sender means that channel is not configured.  Limiter, when set,
// paces outbound calls.
type Dispatcher struct {
	SMS     Sender
	Email   Sender
	Limiter *rate.Limiter
}

// NewDispatcher builds a dispatcher sending at most perSecond messages
// per second.  perSecond <= 0 disables pacing.
func NewDispatcher(sms, email Sender, perSecond float64, burst int) *Dispatcher {
	d := &Dispatcher{SMS: sms, Email: email}
	if perSecond > 0 {
		if burst < 1 {
			burst = 1
		}
		d.Limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	return d
}

func (d *Dispatcher) sender(ch Channel) Sender {
	switch ch {
	case ChannelSMS:
		return d.SMS
	case ChannelEmail:
		return d.Email
	}
	return nil
}

// Dispatch sends the voucher announcement to every recipient on ch.
// Each send is independent: a failure is recorded and the loop moves
// on.  Recipients whose rank earns no tier are skipped.  The only
// error returned is ErrNotConfigured for a channel without a sender.
func (d *Dispatcher) Dispatch(ctx context.Context, ch Channel, recipients []Recipient) (BatchResult, error) {
	res := BatchResult{Results: []Result{}}
	s := d.sender(ch)
	if s == nil {
		return res, ErrNotConfigured
	}
	for _, r := range recipients {
		if r.Tier.ID == "" {
			continue
		}
		out := Result{RegistrantID: r.RegistrantID, Recipient: r.Address(ch)}
		id, err := d.sendOne(ctx, s, ch, r)
		if err != nil {
			log.Printf("notify: %s to %s failed: %v", ch, out.Recipient, err)
			out.Error = err.Error()
		} else {
			out.Success = true
			out.ProviderID = id
		}
		res.add(out)
	}
	return res, nil
}

func (d *Dispatcher) sendOne(ctx context.Context, s Sender, ch Channel, r Recipient) (string, error) {
	if d.Limiter != nil {
		if err := d.Limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	msg := Message{To: r.Phone, Text: SMSText(r)}
	if ch == ChannelEmail {
		var err error
		if msg, err = EmailMessage(r); err != nil {
			return "", err
		}
	}
	return s.Send(ctx, msg)
}

// SendManual delivers an arbitrary SMS, as used by administrators.
func (d *Dispatcher) SendManual(ctx context.Context, phone, text string) (string, error) {
	if d.SMS == nil {
		return "", ErrNotConfigured
	}
	if d.Limiter != nil {
		if err := d.Limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	return d.SMS.Send(ctx, Message{To: phone, Text: text})
}
