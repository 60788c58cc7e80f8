package reminders

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/nikmy/remindbot/pkg/errors"
	"github.com/nikmy/remindbot/pkg/logger"
)

type SQLiteConfig struct {
	Path        string        `yaml:"path"`
	BusyTimeout time.Duration `yaml:"busyTimeout"`
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS reminders (
	id           TEXT    NOT NULL,
	owner_id     TEXT    NOT NULL,
	message      TEXT    NOT NULL,
	next_fire_at INTEGER NOT NULL,
	recurring    INTEGER NOT NULL DEFAULT 0,
	rule         TEXT    NOT NULL DEFAULT '',
	created_by   TEXT    NOT NULL DEFAULT '',
	created_at   INTEGER NOT NULL,
	PRIMARY KEY (owner_id, id)
);
CREATE INDEX IF NOT EXISTS reminders_next_fire_at ON reminders(next_fire_at);
`

func newSQLite(cfg SQLiteConfig, log logger.Logger) (*sqliteRepo, error) {
	if cfg.Path == "" {
		return nil, errors.Error("sqlite path is required")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, errors.WrapFail(err, "create sqlite dir")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, errors.WrapFail(err, "open sqlite db")
	}

	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, errors.WrapFail(err, "apply sqlite schema")
	}

	return &sqliteRepo{
		db:  db,
		log: log.With("sqlite_reminders"),
	}, nil
}

type sqliteRepo struct {
	db  *sql.DB
	log logger.Logger
}

func (s *sqliteRepo) Create(ctx context.Context, r Reminder) (string, error) {
	r.ID = uuid.NewString()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reminders(id, owner_id, message, next_fire_at, recurring, rule, created_by, created_at)
		 VALUES(?,?,?,?,?,?,?,?)`,
		r.ID, r.OwnerID, r.Message, fireKey(r.NextFireAt), r.Recurring, r.Rule, r.CreatedBy, r.CreatedAt.Unix(),
	)
	if err != nil {
		return "", errors.WrapFail(err, "insert reminder")
	}

	return r.ID, nil
}

func (s *sqliteRepo) FindDue(ctx context.Context, at time.Time) ([]Reminder, error) {
	due, err := s.selectMany(ctx,
		`SELECT id, owner_id, message, next_fire_at, recurring, rule, created_by, created_at
		 FROM reminders WHERE next_fire_at = ?`,
		fireKey(at),
	)
	return due, errors.WrapFail(err, "select due reminders")
}

func (s *sqliteRepo) Update(ctx context.Context, owner, id string, nextFireAt time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET next_fire_at = ? WHERE owner_id = ? AND id = ?`,
		fireKey(nextFireAt), owner, id,
	)
	if err != nil {
		return errors.WrapFail(err, "update reminder fire time")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.WrapFail(err, "count updated rows")
	}

	if affected == 0 {
		return errors.Errorf("no reminder %s/%s", owner, id)
	}

	return nil
}

func (s *sqliteRepo) Delete(ctx context.Context, owner, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM reminders WHERE owner_id = ? AND id = ?`,
		owner, id,
	)
	if err != nil {
		return false, errors.WrapFail(err, "delete reminder")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, errors.WrapFail(err, "count deleted rows")
	}

	return affected == 1, nil
}

func (s *sqliteRepo) ListByOwner(ctx context.Context, owner string) ([]Reminder, error) {
	owned, err := s.selectMany(ctx,
		`SELECT id, owner_id, message, next_fire_at, recurring, rule, created_by, created_at
		 FROM reminders WHERE owner_id = ?`,
		owner,
	)
	return owned, errors.WrapFail(err, "select reminders by owner")
}

func (s *sqliteRepo) Close(context.Context) error {
	return errors.WrapFail(s.db.Close(), "close sqlite db")
}

func (s *sqliteRepo) selectMany(ctx context.Context, query string, args ...any) ([]Reminder, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := rows.Close(); err != nil {
			s.log.Warn(errors.WrapFail(err, "close rows"))
		}
	}()

	var selected []Reminder

	for rows.Next() {
		var (
			r         Reminder
			fireAt    int64
			createdAt int64
		)

		err := rows.Scan(&r.ID, &r.OwnerID, &r.Message, &fireAt, &r.Recurring, &r.Rule, &r.CreatedBy, &createdAt)
		if err != nil {
			return nil, err
		}

		r.NextFireAt = time.Unix(fireAt, 0).UTC()
		r.CreatedAt = time.Unix(createdAt, 0).UTC()
		selected = append(selected, r)
	}

	return selected, rows.Err()
}

// fireKey is the store's due-comparison key: the minute-truncated UTC instant.
func fireKey(at time.Time) int64 {
	return at.UTC().Truncate(time.Minute).Unix()
}
