package service

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/faculty-fest/internal/model"
	"github.com/iliyamo/faculty-fest/internal/notify"
	"github.com/iliyamo/faculty-fest/internal/queue"
	"github.com/iliyamo/faculty-fest/internal/repository"
)

type stubLister struct {
	regs []model.Registrant
}

func (s stubLister) ListEligibleUnclaimed(_ context.Context, maxRank int) ([]model.Registrant, error) {
	var out []model.Registrant
	for _, r := range s.regs {
		if r.Rank != nil && *r.Rank <= maxRank {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s stubLister) GetByID(_ context.Context, id uint64) (model.Registrant, error) {
	for _, r := range s.regs {
		if r.ID == id {
			return r, nil
		}
	}
	return model.Registrant{}, repository.ErrNotFound
}

type scriptedSender struct {
	failTo map[string]bool
	sent   []notify.Message
}

func (s *scriptedSender) Send(_ context.Context, msg notify.Message) (string, error) {
	if s.failTo[msg.To] {
		return "", &notify.ProviderError{Provider: "test", Status: 400, Message: "rejected"}
	}
	s.sent = append(s.sent, msg)
	return "msg-" + msg.To, nil
}

func person(id uint64, rank int, phone string) model.Registrant {
	r := rank
	return model.Registrant{ID: id, Name: "P", Email: phone + "@x.edu", Phone: phone, Rank: &r}
}

func TestNotifyEligibleIsolatesFailures(t *testing.T) {
	sms := &scriptedSender{failTo: map[string]bool{"222": true}}
	n := NewVoucherNotifier(stubLister{regs: []model.Registrant{
		person(1, 1, "111"), person(2, 2, "222"), person(3, 3, "333"), person(4, 12, "444"),
	}}, notify.NewDispatcher(sms, nil, 0, 0))

	res, err := n.NotifyEligible(context.Background(), notify.ChannelSMS)
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if res.Sent != 2 || res.Failed != 1 || len(res.Results) != 3 {
		t.Fatalf("result = %+v", res)
	}
	if res.Results[1].Success || res.Results[1].RegistrantID != 2 {
		t.Fatalf("failure not attributed: %+v", res.Results[1])
	}
}

func TestNotifyEligibleUnconfigured(t *testing.T) {
	n := NewVoucherNotifier(stubLister{regs: []model.Registrant{person(1, 1, "111")}}, notify.NewDispatcher(nil, nil, 0, 0))
	if _, err := n.NotifyEligible(context.Background(), notify.ChannelEmail); !errors.Is(err, notify.ErrNotConfigured) {
		t.Fatalf("err = %v", err)
	}
}

func TestNotifyOne(t *testing.T) {
	sms := &scriptedSender{}
	n := NewVoucherNotifier(stubLister{regs: []model.Registrant{person(1, 1, "111"), person(2, 40, "222")}},
		notify.NewDispatcher(sms, nil, 0, 0))
	ctx := context.Background()

	res, err := n.NotifyOne(ctx, 1, notify.ChannelSMS)
	if err != nil || res.Sent != 1 {
		t.Fatalf("notify one = %+v, %v", res, err)
	}
	res, err = n.NotifyOne(ctx, 2, notify.ChannelSMS)
	if err != nil || res.Sent != 0 || res.Failed != 0 {
		t.Fatalf("ineligible = %+v, %v", res, err)
	}
	if _, err := n.NotifyOne(ctx, 99, notify.ChannelSMS); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("missing = %v", err)
	}
}

func TestHandleRankAssigned(t *testing.T) {
	sms := &scriptedSender{}
	n := NewVoucherNotifier(stubLister{}, notify.NewDispatcher(sms, nil, 0, 0), notify.ChannelSMS, notify.ChannelEmail)
	ctx := context.Background()

	ev := queue.RankAssignedEvent{RegistrantID: 1, Name: "P", Phone: "111", Email: "p@x.edu", Rank: 4}
	if err := n.HandleRankAssigned(ctx, ev); err != nil {
		t.Fatalf("sms delivered, email unconfigured: %v", err)
	}
	if len(sms.sent) != 1 {
		t.Fatalf("sent %d", len(sms.sent))
	}

	failing := NewVoucherNotifier(stubLister{}, notify.NewDispatcher(nil, nil, 0, 0), notify.ChannelSMS)
	if err := failing.HandleRankAssigned(ctx, ev); !errors.Is(err, notify.ErrNotConfigured) {
		t.Fatalf("nothing delivered: %v", err)
	}
	ev.Rank = 11
	if err := failing.HandleRankAssigned(ctx, ev); err != nil {
		t.Fatalf("ineligible rank: %v", err)
	}
}
