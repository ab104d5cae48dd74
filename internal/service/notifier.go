package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/iliyamo/faculty-fest/internal/eligibility"
	"github.com/iliyamo/faculty-fest/internal/model"
	"github.com/iliyamo/faculty-fest/internal/notify"
	"github.com/iliyamo/faculty-fest/internal/queue"
)

// EligibleLister lists registrants due a voucher announcement.
type EligibleLister interface {
	ListEligibleUnclaimed(ctx context.Context, maxRank int) ([]model.Registrant, error)
	GetByID(ctx context.Context, id uint64) (model.Registrant, error)
}

// VoucherNotifier turns ranks into voucher announcements.
type VoucherNotifier struct {
	Registrants EligibleLister
	Dispatcher  *notify.Dispatcher
	Channels    []notify.Channel // used for rank-assigned events
}

func NewVoucherNotifier(reg EligibleLister, d *notify.Dispatcher, channels ...notify.Channel) *VoucherNotifier {
	return &VoucherNotifier{Registrants: reg, Dispatcher: d, Channels: channels}
}

func toRecipient(reg model.Registrant) (notify.Recipient, bool) {
	tier, ok := eligibility.Resolve(reg.Rank)
	if !ok {
		return notify.Recipient{}, false
	}
	return notify.Recipient{
		RegistrantID: reg.ID,
		Name:         reg.Name,
		Email:        reg.Email,
		Phone:        reg.Phone,
		Rank:         *reg.Rank,
		Tier:         tier,
	}, true
}

// NotifyEligible announces vouchers to every eligible registrant that
// has not claimed yet.  One recipient's failure never stops the others.
func (n *VoucherNotifier) NotifyEligible(ctx context.Context, ch notify.Channel) (notify.BatchResult, error) {
	regs, err := n.Registrants.ListEligibleUnclaimed(ctx, eligibility.MaxEligibleRank)
	if err != nil {
		return notify.BatchResult{}, fmt.Errorf("list eligible registrants: %w", err)
	}
	recipients := make([]notify.Recipient, 0, len(regs))
	for _, reg := range regs {
		if r, ok := toRecipient(reg); ok {
			recipients = append(recipients, r)
		}
	}
	log.Printf("notify: %d eligible registrants without claims on %s", len(recipients), ch)
	return n.Dispatcher.Dispatch(ctx, ch, recipients)
}

// NotifyOne announces the voucher to a single registrant.  An
// ineligible registrant yields an empty result.
func (n *VoucherNotifier) NotifyOne(ctx context.Context, registrantID uint64, ch notify.Channel) (notify.BatchResult, error) {
	reg, err := n.Registrants.GetByID(ctx, registrantID)
	if err != nil {
		return notify.BatchResult{}, err
	}
	r, ok := toRecipient(reg)
	if !ok {
		return notify.BatchResult{Results: []notify.Result{}}, nil
	}
	return n.Dispatcher.Dispatch(ctx, ch, []notify.Recipient{r})
}

// HandleRankAssigned dispatches a rank-assigned event on every
// configured channel.  It fails only when no channel delivered.
func (n *VoucherNotifier) HandleRankAssigned(ctx context.Context, ev queue.RankAssignedEvent) error {
	tier, ok := eligibility.ResolveRank(ev.Rank)
	if !ok {
		log.Printf("notify: registrant %d at rank %d is not eligible", ev.RegistrantID, ev.Rank)
		return nil
	}
	r := notify.Recipient{
		RegistrantID: ev.RegistrantID,
		Name:         ev.Name,
		Email:        ev.Email,
		Phone:        ev.Phone,
		Rank:         ev.Rank,
		Tier:         tier,
	}
	var errs []error
	delivered := 0
	for _, ch := range n.Channels {
		res, err := n.Dispatcher.Dispatch(ctx, ch, []notify.Recipient{r})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ch, err))
			continue
		}
		delivered += res.Sent
		for _, out := range res.Results {
			if !out.Success {
				errs = append(errs, fmt.Errorf("%s: %s", ch, out.Error))
			}
		}
	}
	if delivered == 0 && len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
