package deliveries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"whatsapp-notifier/db"
	"whatsapp-notifier/internal/outbox"
)

var ErrNotFound = errors.New("delivery not found")

const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

type Delivery struct {
	ID          string         `db:"id"`
	BatchID     sql.NullString `db:"batch_id"`
	Kind        string         `db:"kind"`
	Phone       string         `db:"phone"`
	ChatID      string         `db:"chat_id"`
	Body        string         `db:"body"`
	Status      string         `db:"status"`
	Error       sql.NullString `db:"error"`
	CreatedAtMs int64          `db:"created_at_ms"`
	UpdatedAtMs int64          `db:"updated_at_ms"`
}

// Store is the delivery audit log. With a nil database every write is a
// no-op and every read returns db.ErrStoreDisabled.
type Store struct {
	db     *sqlx.DB
	logger *zap.SugaredLogger
}

type NewStoreParams struct {
	fx.In

	DB     *sqlx.DB `optional:"true"`
	Logger *zap.SugaredLogger
}

func NewStore(p NewStoreParams) *Store {
	return &Store{db: p.DB, logger: p.Logger}
}

func (s *Store) Enabled() bool { return s != nil && s.db != nil }

func (s *Store) Record(ctx context.Context, a outbox.Attempt) error {
	if !s.Enabled() {
		return nil
	}

	status := StatusSent
	errCol := sql.NullString{}
	if a.Err != nil {
		status = StatusFailed
		errCol = sql.NullString{String: a.Err.Error(), Valid: true}
	}
	batchCol := sql.NullString{String: a.BatchID, Valid: a.BatchID != ""}
	ms := a.At.UnixMilli()

	q := s.db.Rebind(`
INSERT INTO deliveries (
  id,
  batch_id,
  kind,
  phone,
  chat_id,
  body,
  status,
  error,
  created_at_ms,
  updated_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  status = excluded.status,
  error = excluded.error,
  updated_at_ms = excluded.updated_at_ms
`)
	if _, err := s.db.ExecContext(ctx, q,
		a.ID, batchCol, string(a.Kind), a.Phone, a.ChatID, a.Body, status, errCol, ms, ms,
	); err != nil {
		return fmt.Errorf("insert delivery %s: %w", a.ID, err)
	}

	s.logger.Debugw("delivery_recorded", "id", a.ID, "status", status)
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (Delivery, error) {
	if !s.Enabled() {
		return Delivery{}, db.ErrStoreDisabled
	}

	var d Delivery
	err := s.db.GetContext(ctx, &d, s.db.Rebind(`SELECT * FROM deliveries WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return Delivery{}, ErrNotFound
	}
	if err != nil {
		return Delivery{}, fmt.Errorf("get delivery %s: %w", id, err)
	}
	return d, nil
}

func (s *Store) ListByBatch(ctx context.Context, batchID string) ([]Delivery, error) {
	if !s.Enabled() {
		return nil, db.ErrStoreDisabled
	}

	var out []Delivery
	q := s.db.Rebind(`SELECT * FROM deliveries WHERE batch_id = ? ORDER BY created_at_ms, id`)
	if err := s.db.SelectContext(ctx, &out, q, batchID); err != nil {
		return nil, fmt.Errorf("list batch %s: %w", batchID, err)
	}
	return out, nil
}

var _ outbox.Recorder = (*Store)(nil)
