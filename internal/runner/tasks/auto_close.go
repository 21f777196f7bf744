package tasks

import (
	"context"
	"log"
	"time"
)

// TicketCloser is the slice of the ticket repository the task needs.
type TicketCloser interface {
	AutoCloseResolved(ctx context.Context, olderThan time.Duration) (int64, error)
}

// AutoCloseTask closes tickets that have sat in resolved longer than the
// configured window, so the resolved column does not accumulate forever.
type AutoCloseTask struct {
	tickets  TicketCloser
	after    time.Duration
	schedule string
}

func NewAutoCloseTask(tickets TicketCloser, after time.Duration, schedule string) *AutoCloseTask {
	if after <= 0 {
		after = 7 * 24 * time.Hour
	}
	if schedule == "" {
		schedule = "0 * * * *"
	}
	return &AutoCloseTask{tickets: tickets, after: after, schedule: schedule}
}

func (t *AutoCloseTask) Name() string           { return "auto_close_resolved" }
func (t *AutoCloseTask) Schedule() string       { return t.schedule }
func (t *AutoCloseTask) Timeout() time.Duration { return time.Minute }

func (t *AutoCloseTask) Run(ctx context.Context) error {
	n, err := t.tickets.AutoCloseResolved(ctx, t.after)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("auto-close moved %d resolved tickets to closed", n)
	}
	return nil
}
