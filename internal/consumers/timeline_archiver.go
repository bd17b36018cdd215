// Package consumers archives analysis events into the timeline repository.
package consumers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spacesedan/mindtrack/internal/db"
	"github.com/spacesedan/mindtrack/internal/events"
	"github.com/spacesedan/mindtrack/internal/models"
	"github.com/spacesedan/mindtrack/internal/utils"
)

const (
	WRITE_RETRIES = 3
	// MAX_PENDING_BATCHES bounds how many batches of failed writes are held
	// for retry while the repository is unavailable.
	MAX_PENDING_BATCHES = 4
)

type pending struct {
	entry    models.TimelineEntry
	delivery *Delivery
}

// Archiver batches events from a Source into a Repository. Deliveries are
// committed only after their batch is stored.
type Archiver struct {
	source       Source
	repo         db.Repository
	buffer       *utils.BatchBuffer[pending]
	interval     time.Duration
	retryBackoff time.Duration
	maxPending   int
}

func NewArchiver(source Source, repo db.Repository, batchSize int, interval time.Duration) *Archiver {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if batchSize <= 0 {
		batchSize = utils.DEFAULT_BATCH_SIZE
	}
	return &Archiver{
		source:       source,
		repo:         repo,
		buffer:       utils.NewBatchBuffer[pending](batchSize),
		interval:     interval,
		retryBackoff: 500 * time.Millisecond,
		maxPending:   batchSize * MAX_PENDING_BATCHES,
	}
}

// Run consumes until ctx is done or the source closes. Buffered entries are
// flushed before returning.
func (a *Archiver) Run(ctx context.Context) error {
	slog.Info("[TimelineArchiver] Listening for analysis events...",
		slog.String("driver", a.repo.Driver()))

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Warn("[TimelineArchiver] Stopping archiver...")
			a.flush(context.WithoutCancel(ctx))
			return nil
		case <-ticker.C:
			a.flush(ctx)
		default:
			delivery, err := a.source.Next(ctx)
			if err != nil {
				if errors.Is(err, ErrSourceClosed) {
					slog.Error("[TimelineArchiver] Event source closed", slog.String("error", err.Error()))
					a.flush(context.WithoutCancel(ctx))
					return err
				}
				if ctx.Err() == nil {
					slog.Error("[TimelineArchiver] Consumer error", slog.String("error", err.Error()))
				}
				continue
			}
			if delivery == nil {
				continue
			}

			event, err := events.Decode(delivery.Value)
			if err != nil || event.Entry.ID == "" {
				slog.Warn("[TimelineArchiver] Skipping undecodable event",
					slog.Int("bytes", len(delivery.Value)))
				a.commit(delivery)
				continue
			}

			if a.buffer.Add(pending{entry: event.Entry, delivery: delivery}) {
				a.flush(ctx)
			}
		}
	}
}

func (a *Archiver) flush(ctx context.Context) {
	batch := a.buffer.GetAndClear()
	if len(batch) == 0 {
		return
	}

	entries := make([]models.TimelineEntry, 0, len(batch))
	for _, p := range batch {
		entries = append(entries, p.entry)
	}

	var err error
	backoff := a.retryBackoff
	for i := 0; i < WRITE_RETRIES; i++ {
		if err = a.repo.SaveBatch(ctx, entries); err == nil {
			break
		}
		slog.Error("[TimelineArchiver] Failed to write entries to DB",
			slog.String("error", err.Error()),
			slog.Int("attempt", i+1))
		time.Sleep(backoff)
		backoff *= 2
	}
	if err != nil {
		a.requeue(batch)
		return
	}

	for _, p := range batch {
		a.commit(p.delivery)
	}
	slog.Info("[TimelineArchiver] Archived batch", slog.Int("batch_size", len(batch)))
}

// requeue keeps a failed batch uncommitted for the next flush. The oldest
// entries are dropped once more than maxPending are held; their deliveries
// stay uncommitted so the broker can redeliver them.
func (a *Archiver) requeue(batch []pending) {
	if over := a.buffer.Size() + len(batch) - a.maxPending; over > 0 {
		if over > len(batch) {
			over = len(batch)
		}
		slog.Warn("[TimelineArchiver] Pending buffer full, dropping oldest entries",
			slog.Int("dropped", over),
			slog.Int("max_pending", a.maxPending))
		batch = batch[over:]
	}
	for _, p := range batch {
		a.buffer.Add(p)
	}
}

func (a *Archiver) commit(d *Delivery) {
	if d.Commit == nil {
		return
	}
	if err := d.Commit(); err != nil {
		slog.Warn("[TimelineArchiver] Failed to commit offset",
			slog.String("error", err.Error()))
	}
}
