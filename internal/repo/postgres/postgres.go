package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/staffbot/internal/domain"
	"github.com/hamed0406/staffbot/internal/repo"
)

var _ repo.Journal = (*Store)(nil)

// Schema is applied by EnsureSchema; statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS shift_events (
  id          BIGSERIAL PRIMARY KEY,
  phone       TEXT NOT NULL,
  status      TEXT NOT NULL,
  start_at    TIMESTAMPTZ NULL,
  end_at      TIMESTAMPTZ NULL,
  recorded_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS reports (
  id         TEXT PRIMARY KEY,
  phone      TEXT NOT NULL,
  text       TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_shift_events_phone_time ON shift_events (phone, recorded_at DESC);
CREATE INDEX IF NOT EXISTS idx_reports_created_at      ON reports (created_at DESC);
`

// Store journals shift events and reports. The in-memory store stays the
// source of truth; this is an audit trail.
type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) RecordShift(ctx context.Context, rec domain.ShiftRecord, at time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO shift_events (phone, status, start_at, end_at, recorded_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		rec.Phone, string(rec.Status), rec.StartAt, rec.EndAt, at,
	)
	if err != nil {
		return fmt.Errorf("insert shift event: %w", err)
	}
	return nil
}

func (s *Store) RecordReport(ctx context.Context, r domain.Report) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO reports (id, phone, text, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO NOTHING`,
		r.ID, r.Phone, r.Text, r.At,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// ReportsSince counts journaled reports created at or after since.
func (s *Store) ReportsSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM reports WHERE created_at >= $1`, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}
	return n, nil
}

// LastShift returns the most recent journaled event for phone, or nil.
func (s *Store) LastShift(ctx context.Context, phone string) (*domain.ShiftRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT status, start_at, end_at
		   FROM shift_events
		  WHERE phone = $1
		  ORDER BY recorded_at DESC, id DESC
		  LIMIT 1`, phone)
	var (
		status  string
		startAt *time.Time
		endAt   *time.Time
	)
	if err := row.Scan(&status, &startAt, &endAt); err != nil {
		return nil, nil // no events yet
	}
	return &domain.ShiftRecord{
		Phone:   phone,
		Status:  domain.ShiftStatus(status),
		StartAt: startAt,
		EndAt:   endAt,
	}, nil
}
