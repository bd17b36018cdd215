package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spacesedan/mindtrack/internal/models"
)

type SQLiteRepository struct {
	db *sql.DB
}

// InitDB opens the SQLite database at path and creates the timeline schema.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// SQLite has a single writer and :memory: databases live on one connection.
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS emotion_analyses (
		id                TEXT PRIMARY KEY,
		input_text        TEXT NOT NULL,
		label             TEXT NOT NULL,
		confidence        REAL NOT NULL,
		probabilities     TEXT NOT NULL DEFAULT '{}',
		emotions          TEXT NOT NULL DEFAULT '[]',
		prediction_source TEXT DEFAULT '',
		model_version     TEXT DEFAULT '',
		created_at        INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_emotion_analyses_created_at ON emotion_analyses(created_at);
	CREATE INDEX IF NOT EXISTS idx_emotion_analyses_label ON emotion_analyses(label);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	db, err := InitDB(path)
	if err != nil {
		return nil, fmt.Errorf("[SQLite] init %s: %w", path, err)
	}
	slog.Info("[SQLite] Timeline database ready", slog.String("path", path))
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Driver() string { return "sqlite" }

const insertEntry = `INSERT OR REPLACE INTO emotion_analyses
	(id, input_text, label, confidence, probabilities, emotions, prediction_source, model_version, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insert(ctx context.Context, ex execer, entry models.TimelineEntry) error {
	probabilities, err := json.Marshal(entry.Probabilities)
	if err != nil {
		return err
	}
	emotions := entry.Emotions
	if emotions == nil {
		emotions = []string{}
	}
	emotionsJSON, err := json.Marshal(emotions)
	if err != nil {
		return err
	}

	_, err = ex.ExecContext(ctx, insertEntry,
		entry.ID, entry.Text, entry.Label, entry.Confidence, string(probabilities),
		string(emotionsJSON), entry.PredictionSource, entry.ModelVersion, entry.CreatedAt.UnixMilli(),
	)
	return err
}

func (r *SQLiteRepository) Save(ctx context.Context, entry models.TimelineEntry) error {
	if err := insert(ctx, r.db, entry); err != nil {
		return fmt.Errorf("[SQLite] save %s: %w", entry.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) SaveBatch(ctx context.Context, entries []models.TimelineEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, entry := range entries {
		if err := insert(ctx, tx, entry); err != nil {
			return fmt.Errorf("[SQLite] save batch entry %s: %w", entry.ID, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRepository) List(ctx context.Context, since time.Time) ([]models.TimelineEntry, error) {
	var sinceMillis int64
	if !since.IsZero() {
		sinceMillis = since.UnixMilli()
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, input_text, label, confidence, probabilities, emotions, prediction_source, model_version, created_at
		FROM emotion_analyses
		WHERE created_at >= ?
		ORDER BY created_at ASC, id ASC`, sinceMillis)
	if err != nil {
		return nil, fmt.Errorf("[SQLite] list: %w", err)
	}
	defer rows.Close()

	entries := []models.TimelineEntry{}
	for rows.Next() {
		var (
			e             models.TimelineEntry
			probabilities string
			emotions      string
			createdAt     int64
		)
		if err := rows.Scan(&e.ID, &e.Text, &e.Label, &e.Confidence, &probabilities, &emotions,
			&e.PredictionSource, &e.ModelVersion, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(probabilities), &e.Probabilities); err != nil {
			return nil, fmt.Errorf("[SQLite] decode probabilities of %s: %w", e.ID, err)
		}
		if err := json.Unmarshal([]byte(emotions), &e.Emotions); err != nil {
			return nil, fmt.Errorf("[SQLite] decode emotions of %s: %w", e.ID, err)
		}
		e.CreatedAt = time.UnixMilli(createdAt).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *SQLiteRepository) Clear(ctx context.Context) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM emotion_analyses`)
	if err != nil {
		return 0, fmt.Errorf("[SQLite] clear: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *SQLiteRepository) Prune(ctx context.Context, before time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM emotion_analyses WHERE created_at < ?`, before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("[SQLite] prune: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *SQLiteRepository) Close(context.Context) error {
	return r.db.Close()
}
