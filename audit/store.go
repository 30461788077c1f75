package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/enquirybot/automation"

	_ "modernc.org/sqlite"
)

// FieldRecord is the stored outcome of one form field.
type FieldRecord struct {
	Field    string `json:"field"`
	Strategy string `json:"strategy,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Fill is one persisted form fill attempt.
type Fill struct {
	ID           string
	Conversation string
	Outcome      string
	URL          string
	Screenshot   string
	Error        string
	Fields       []FieldRecord
	Log          []automation.Entry
	Transcript   []*schema.Message
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Store keeps an audit trail of fills in SQLite.
type Store struct {
	db *sql.DB
}

func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping audit db: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS fills (
		id TEXT PRIMARY KEY,
		conversation TEXT NOT NULL,
		outcome TEXT NOT NULL,
		url TEXT NOT NULL DEFAULT '',
		screenshot TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		fields JSON,
		log JSON,
		transcript JSON,
		started_at DATETIME,
		finished_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS fills_conversation ON fills (conversation, started_at);`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to migrate audit db: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SaveFill(ctx context.Context, conversation string, res *automation.Result, transcript []*schema.Message) error {
	if res == nil {
		return nil
	}
	fields := make([]FieldRecord, 0, len(res.Fields))
	for _, f := range res.Fields {
		rec := FieldRecord{Field: string(f.Field), Strategy: f.Strategy}
		if f.Err != nil {
			rec.Error = f.Err.Error()
		}
		fields = append(fields, rec)
	}
	var entries []automation.Entry
	if res.Log != nil {
		entries = res.Log.Entries()
	}
	fieldsJSON, err := sonic.MarshalString(fields)
	if err != nil {
		return fmt.Errorf("failed to encode fields: %w", err)
	}
	logJSON, err := sonic.MarshalString(entries)
	if err != nil {
		return fmt.Errorf("failed to encode log: %w", err)
	}
	transcriptJSON, err := sonic.MarshalString(transcript)
	if err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}
	var errText string
	if res.Err != nil {
		errText = res.Err.Error()
	}

	query := `INSERT INTO fills (
		id, conversation, outcome, url, screenshot, error, fields, log, transcript, started_at, finished_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		res.ID, conversation, res.Outcome(), res.URL, res.Screenshot, errText,
		fieldsJSON, logJSON, transcriptJSON,
		res.StartedAt.UTC().Format(time.RFC3339Nano), res.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert fill: %w", err)
	}
	return nil
}

// ListFills returns the most recent fills of a conversation, newest first.
func (s *Store) ListFills(ctx context.Context, conversation string, limit int) ([]Fill, error) {
	query := `
		SELECT id, conversation, outcome, url, screenshot, error, fields, log, transcript, started_at, finished_at
		FROM fills
		WHERE conversation = ?
		ORDER BY started_at DESC
		LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, conversation, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query fills: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var fills []Fill
	for rows.Next() {
		var (
			f                       Fill
			fields, log, transcript sql.NullString
			startedAt, finishedAt   string
		)
		if err := rows.Scan(&f.ID, &f.Conversation, &f.Outcome, &f.URL, &f.Screenshot, &f.Error,
			&fields, &log, &transcript, &startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fill: %w", err)
		}
		if err := decode(fields, &f.Fields); err != nil {
			return nil, err
		}
		if err := decode(log, &f.Log); err != nil {
			return nil, err
		}
		if err := decode(transcript, &f.Transcript); err != nil {
			return nil, err
		}
		f.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		f.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedAt)
		fills = append(fills, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return fills, nil
}

func decode(col sql.NullString, v any) error {
	if !col.Valid || col.String == "" || col.String == "null" {
		return nil
	}
	if err := sonic.UnmarshalString(col.String, v); err != nil {
		return fmt.Errorf("failed to decode column: %w", err)
	}
	return nil
}
