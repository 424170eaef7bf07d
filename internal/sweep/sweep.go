// Package sweep runs the overdue-escalation sweep on a cron schedule and
// fans out notices for tasks the sweep escalated.
package sweep

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/callboard/callboard/internal/models"
	"github.com/callboard/callboard/internal/notify"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Escalator runs one overdue sweep and reports how many tasks it flipped.
type Escalator interface {
	EscalateOverdueTasks() (int64, error)
}

// Sweeper drives scheduled sweeps.
type Sweeper struct {
	DB        *gorm.DB
	Escalator Escalator
	Notifiers notify.Fanout
	Out       io.Writer
}

// nextCronDuration parses a 5-field cron expression and returns the duration
// until the next fire time.
func nextCronDuration(expr string) (time.Duration, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0, fmt.Errorf("sweep: parse schedule %q: %w", expr, err)
	}
	d := time.Until(sched.Next(time.Now()))
	if d < 0 {
		d = 0
	}
	return d, nil
}

// RunOnce executes a single sweep and notifies for tasks escalated since
// since. Returns the number of tasks the sweep escalated.
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	// MySQL DATETIME truncates escalated_at to the second; a sub-second
	// since would skip tasks escalated within the same second.
	since := time.Now().Truncate(time.Second)
	n, err := s.Escalator.EscalateOverdueTasks()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.notifyEscalated(ctx, since)
	}
	return n, nil
}

// notifyEscalated fans out notices for sweep-escalated tasks. Best-effort:
// a failed read logs and skips notification rather than failing the sweep.
func (s *Sweeper) notifyEscalated(ctx context.Context, since time.Time) {
	if len(s.Notifiers) == 0 {
		return
	}

	var tasks []models.Task
	err := s.DB.Preload("Project").
		Where("status = ? AND is_manually_escalated = ? AND escalated_at >= ?",
			models.StatusEscalated, false, since).
		Find(&tasks).Error
	if err != nil {
		log.Printf("sweep: load escalated tasks: %v", err)
		return
	}

	for _, tk := range tasks {
		s.Notifiers.NotifyAll(ctx, notify.FromTask(tk))
	}
}

// Run sweeps on the given 5-field cron schedule until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context, schedule string) error {
	if _, err := nextCronDuration(schedule); err != nil {
		return err
	}

	for {
		d, err := nextCronDuration(schedule)
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(d):
		}

		n, err := s.RunOnce(ctx)
		if err != nil {
			log.Printf("sweep: %v", err)
			continue
		}
		if s.Out != nil && n > 0 {
			fmt.Fprintf(s.Out, "Escalated %d overdue task(s)\n", n)
		}
	}
}
