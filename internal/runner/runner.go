package runner

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Runner executes the registered maintenance tasks on their cron
// schedules. It runs alongside the HTTP server and is stopped from the
// same shutdown path.
type Runner struct {
	cron     *cron.Cron
	registry *TaskRegistry
	logger   *log.Logger
	wg       sync.WaitGroup
}

func NewRunner(registry *TaskRegistry) *Runner {
	return &Runner{
		cron:     cron.New(),
		registry: registry,
		logger:   log.New(os.Stdout, "[RUNNER] ", log.LstdFlags),
	}
}

// Start schedules every registered task and launches the cron loop. It
// returns immediately; Stop drains in-flight runs.
func (r *Runner) Start(ctx context.Context) error {
	for name, task := range r.registry.All() {
		task := task
		r.logger.Printf("Registering task: %s with schedule: %s", name, task.Schedule())

		_, err := r.cron.AddFunc(task.Schedule(), func() {
			r.executeTask(ctx, task)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule task %s: %w", name, err)
		}
	}

	r.cron.Start()
	r.logger.Println("Task runner started")
	return nil
}

func (r *Runner) executeTask(ctx context.Context, task Task) {
	r.wg.Add(1)
	defer r.wg.Done()

	taskCtx, cancel := context.WithTimeout(ctx, task.Timeout())
	defer cancel()

	start := time.Now()
	err := task.Run(taskCtx)
	duration := time.Since(start)

	if err != nil {
		r.logger.Printf("Task %s failed after %v: %v", task.Name(), duration, err)
	} else {
		r.logger.Printf("Task %s completed in %v", task.Name(), duration)
	}
}

// Stop halts scheduling and waits for running tasks to finish.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	r.wg.Wait()
	<-ctx.Done()
	r.logger.Println("Task runner stopped")
}
