// Package retention prunes timeline entries older than the configured
// number of days on a cron schedule.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spacesedan/mindtrack/internal/db"
)

const DefaultSchedule = "0 3 * * *"

type Pruner struct {
	repo db.Repository
	days int
	cron *cron.Cron
	now  func() time.Time
}

// New validates schedule as a five-field cron expression.
func New(repo db.Repository, days int, schedule string) (*Pruner, error) {
	if days <= 0 {
		return nil, fmt.Errorf("retention days must be positive, got %d", days)
	}
	if schedule == "" {
		schedule = DefaultSchedule
	}

	p := &Pruner{
		repo: repo,
		days: days,
		cron: cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
		now:  time.Now,
	}
	if _, err := p.cron.AddFunc(schedule, func() { p.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", schedule, err)
	}
	return p, nil
}

// Cutoff is the creation time before which entries are removed.
func (p *Pruner) Cutoff() time.Time {
	return p.now().UTC().AddDate(0, 0, -p.days)
}

func (p *Pruner) RunOnce(ctx context.Context) (int, error) {
	cutoff := p.Cutoff()
	n, err := p.repo.Prune(ctx, cutoff)
	if err != nil {
		slog.Error("[Retention] Prune failed", slog.String("error", err.Error()))
		return 0, err
	}
	slog.Info("[Retention] Pruned timeline",
		slog.Int("deleted", n),
		slog.String("cutoff", cutoff.Format(time.RFC3339)))
	return n, nil
}

// Start runs the schedule in the background until Stop.
func (p *Pruner) Start() {
	slog.Info("[Retention] Scheduler started", slog.Int("days", p.days))
	p.cron.Start()
}

// Stop waits for a running prune to finish.
func (p *Pruner) Stop() {
	<-p.cron.Stop().Done()
}
