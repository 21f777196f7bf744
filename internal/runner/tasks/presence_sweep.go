package tasks

import (
	"context"
	"log"
	"time"
)

// PresenceSweeper is the slice of the presence service the task needs.
type PresenceSweeper interface {
	SweepStale(ctx context.Context) (int64, error)
}

// PresenceSweepTask flips is_online off for users whose heartbeat went
// quiet. Without it a closed laptop stays "online" forever.
type PresenceSweepTask struct {
	presence PresenceSweeper
	schedule string
}

func NewPresenceSweepTask(presence PresenceSweeper, schedule string) *PresenceSweepTask {
	if schedule == "" {
		schedule = "* * * * *"
	}
	return &PresenceSweepTask{presence: presence, schedule: schedule}
}

func (t *PresenceSweepTask) Name() string           { return "presence_sweep" }
func (t *PresenceSweepTask) Schedule() string       { return t.schedule }
func (t *PresenceSweepTask) Timeout() time.Duration { return 30 * time.Second }

func (t *PresenceSweepTask) Run(ctx context.Context) error {
	n, err := t.presence.SweepStale(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("presence sweep marked %d users offline", n)
	}
	return nil
}
