// Package scheduler runs the periodic voucher reminder sweep.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/iliyamo/faculty-fest/internal/notify"
)

// Sweeper is the batch notification the reminder job calls.
type Sweeper interface {
	NotifyEligible(ctx context.Context, ch notify.Channel) (notify.BatchResult, error)
}

// StartReminders schedules NotifyEligible on ch every interval.  Runs
// never overlap.  The returned scheduler must be shut down by the caller.
func StartReminders(s Sweeper, ch notify.Channel, interval, timeout time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { runReminder(s, ch, timeout) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("voucher-reminders"),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}
	sched.Start()
	log.Printf("[Scheduler] voucher reminders on %s every %s", ch, interval)
	return sched, nil
}

func runReminder(s Sweeper, ch notify.Channel, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	res, err := s.NotifyEligible(ctx, ch)
	if err != nil {
		log.Printf("[Scheduler] reminder sweep failed: %v", err)
		return
	}
	log.Printf("[Scheduler] reminder sweep: %d sent, %d failed", res.Sent, res.Failed)
}
