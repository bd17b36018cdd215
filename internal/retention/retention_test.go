package retention

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spacesedan/mindtrack/internal/db"
	"github.com/spacesedan/mindtrack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(nil, 0, "")
	assert.Error(t, err)

	_, err = New(nil, 30, "every day at noon")
	assert.Error(t, err)

	_, err = New(nil, 30, "0 0 3 * * *")
	assert.Error(t, err, "six-field expressions are not accepted")
}

func TestRunOncePrunesOldEntries(t *testing.T) {
	repo, err := db.NewSQLiteRepository(filepath.Join(t.TempDir(), "retention.db"))
	require.NoError(t, err)
	defer repo.Close(context.Background())

	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()
	require.NoError(t, repo.SaveBatch(ctx, []models.TimelineEntry{
		{ID: "old", Text: "old", Label: models.LabelNormal, CreatedAt: now.AddDate(0, 0, -31)},
		{ID: "edge", Text: "edge", Label: models.LabelNormal, CreatedAt: now.AddDate(0, 0, -30)},
		{ID: "new", Text: "new", Label: models.LabelNormal, CreatedAt: now.AddDate(0, 0, -1)},
	}))

	p, err := New(repo, 30, "")
	require.NoError(t, err)
	p.now = func() time.Time { return now }

	assert.Equal(t, now.AddDate(0, 0, -30), p.Cutoff())

	deleted, err := p.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	remaining, err := repo.List(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	assert.Equal(t, "edge", remaining[0].ID)
}

func TestStartStop(t *testing.T) {
	repo, err := db.NewSQLiteRepository(filepath.Join(t.TempDir(), "retention.db"))
	require.NoError(t, err)
	defer repo.Close(context.Background())

	p, err := New(repo, 7, "*/5 * * * *")
	require.NoError(t, err)
	p.Start()
	p.Stop()
}
