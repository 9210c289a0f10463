// Package scheduler runs the periodic cleanup of the serve command.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const taskTimeout = 2 * time.Minute

// Sweep deletes rows older than a cutoff and reports how many went.
type Sweep func(ctx context.Context, olderThan time.Time) (int64, error)

// Task is a sweep run on a cron schedule (six fields, seconds first).
type Task struct {
	Name     string
	Schedule string
	MaxAge   time.Duration
	Sweep    Sweep
}

// Store is what Housekeeping sweeps. storage.Store implements it.
type Store interface {
	PurgePriceCache(ctx context.Context, olderThan time.Time) (int64, error)
	PruneSearchHistory(ctx context.Context, olderThan time.Time) (int64, error)
}

// Housekeeping is the hourly price cache purge and the nightly search
// history prune.
func Housekeeping(store Store, cacheTTL, retention time.Duration) []Task {
	return []Task{
		{Name: "purge_price_cache", Schedule: "0 0 * * * *", MaxAge: cacheTTL, Sweep: store.PurgePriceCache},
		{Name: "prune_search_history", Schedule: "0 30 3 * * *", MaxAge: retention, Sweep: store.PruneSearchHistory},
	}
}

type Scheduler struct {
	cron *cron.Cron
	now  func() time.Time
	log  zerolog.Logger
}

func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		now: time.Now,
		log: log.With().Str("component", "scheduler").Logger(),
	}
}

func (s *Scheduler) Add(t Task) error {
	if _, err := s.cron.AddFunc(t.Schedule, func() { _ = s.Run(t) }); err != nil {
		return fmt.Errorf("schedule %s: %w", t.Name, err)
	}
	s.log.Info().Str("task", t.Name).Str("schedule", t.Schedule).Msg("task scheduled")
	return nil
}

// Run sweeps once, outside the schedule.
func (s *Scheduler) Run(t Task) error {
	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()

	n, err := t.Sweep(ctx, s.now().Add(-t.MaxAge))
	if err != nil {
		s.log.Error().Err(err).Str("task", t.Name).Msg("task failed")
		return err
	}
	s.log.Info().Str("task", t.Name).Int64("removed", n).Msg("task done")
	return nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop blocks until running tasks return.
func (s *Scheduler) Stop() { <-s.cron.Stop().Done() }

func (s *Scheduler) Len() int { return len(s.cron.Entries()) }
