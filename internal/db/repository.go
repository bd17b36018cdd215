// Package db persists the analysis timeline.
package db

import (
	"context"
	"errors"
	"time"

	"github.com/spacesedan/mindtrack/internal/metrics"
	"github.com/spacesedan/mindtrack/internal/models"
)

const TIMELINE_TABLE_NAME = "emotion_analyses"

var ErrNotConfigured = errors.New("timeline repository not configured")

// Repository stores timeline entries. List returns entries created at or
// after since, oldest first.
type Repository interface {
	Driver() string
	Save(ctx context.Context, entry models.TimelineEntry) error
	SaveBatch(ctx context.Context, entries []models.TimelineEntry) error
	List(ctx context.Context, since time.Time) ([]models.TimelineEntry, error)
	Clear(ctx context.Context) (int, error)
	Prune(ctx context.Context, before time.Time) (int, error)
	Close(ctx context.Context) error
}

// Stats computes the label distribution over every stored entry.
func Stats(ctx context.Context, repo Repository) (models.TimelineStats, error) {
	entries, err := repo.List(ctx, time.Time{})
	if err != nil {
		return models.TimelineStats{}, err
	}
	return models.BuildStats(entries), nil
}

type instrumented struct {
	Repository
}

// Instrument counts every repository operation by driver and outcome.
func Instrument(repo Repository) Repository {
	return instrumented{Repository: repo}
}

func (r instrumented) observe(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.TimelineOperationsTotal.WithLabelValues(operation, r.Driver(), status).Inc()
}

func (r instrumented) Save(ctx context.Context, entry models.TimelineEntry) error {
	err := r.Repository.Save(ctx, entry)
	r.observe("save", err)
	return err
}

func (r instrumented) SaveBatch(ctx context.Context, entries []models.TimelineEntry) error {
	err := r.Repository.SaveBatch(ctx, entries)
	r.observe("save_batch", err)
	return err
}

func (r instrumented) List(ctx context.Context, since time.Time) ([]models.TimelineEntry, error) {
	entries, err := r.Repository.List(ctx, since)
	r.observe("list", err)
	return entries, err
}

func (r instrumented) Clear(ctx context.Context) (int, error) {
	n, err := r.Repository.Clear(ctx)
	r.observe("clear", err)
	return n, err
}

func (r instrumented) Prune(ctx context.Context, before time.Time) (int, error) {
	n, err := r.Repository.Prune(ctx, before)
	r.observe("prune", err)
	return n, err
}
