package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Action names a lifecycle operation performed from this machine.
type Action string

const (
	ActionCreated   Action = "created"
	ActionArchived  Action = "archived"
	ActionDestroyed Action = "destroyed"
)

// Entry is one recorded operation.
type Entry struct {
	ID            int64     `json:"id" yaml:"id"`
	Action        Action    `json:"action" yaml:"action"`
	MaskedEmailID string    `json:"maskedEmailId,omitempty" yaml:"masked_email_id,omitempty"`
	Email         string    `json:"email" yaml:"email"`
	ForDomain     string    `json:"forDomain,omitempty" yaml:"for_domain,omitempty"`
	Description   string    `json:"description,omitempty" yaml:"description,omitempty"`
	AccountID     string    `json:"accountId,omitempty" yaml:"account_id,omitempty"`
	RecordedAt    time.Time `json:"recordedAt" yaml:"recorded_at"`
}

// Store persists entries in SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open initializes or connects to the journal database at path and applies
// migrations.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("journal path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends entry. RecordedAt defaults to the current time.
func (s *Store) Record(ctx context.Context, entry Entry) (Entry, error) {
	if entry.Action == "" || entry.Email == "" {
		return Entry{}, errors.New("journal entry requires action and email")
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = s.now()
	}
	entry.RecordedAt = entry.RecordedAt.UTC()

	res, err := s.db.ExecContext(ctx, `INSERT INTO activity
		(action, masked_email_id, email, for_domain, description, account_id, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(entry.Action), entry.MaskedEmailID, entry.Email, entry.ForDomain,
		entry.Description, entry.AccountID, entry.RecordedAt.Format(timeLayout))
	if err != nil {
		return Entry{}, fmt.Errorf("insert journal entry: %w", err)
	}
	if entry.ID, err = res.LastInsertId(); err != nil {
		return Entry{}, fmt.Errorf("journal entry id: %w", err)
	}
	return entry, nil
}

// Recent returns up to limit entries, newest first. A non-positive limit
// returns everything.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := selectColumns + " ORDER BY recorded_at DESC, id DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.query(ctx, query, args...)
}

// ForEmail returns every entry for address, newest first.
func (s *Store) ForEmail(ctx context.Context, address string) ([]Entry, error) {
	return s.query(ctx, selectColumns+" WHERE email = ? ORDER BY recorded_at DESC, id DESC", address)
}

// timeLayout is fixed width so text ordering matches chronological ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const selectColumns = `SELECT id, action, masked_email_id, email, for_domain, description, account_id, recorded_at FROM activity`

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry      Entry
			action     string
			recordedAt string
		)
		if err := rows.Scan(&entry.ID, &action, &entry.MaskedEmailID, &entry.Email, &entry.ForDomain,
			&entry.Description, &entry.AccountID, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		entry.Action = Action(action)
		if entry.RecordedAt, err = time.Parse(timeLayout, recordedAt); err != nil {
			return nil, fmt.Errorf("parse journal timestamp %q: %w", recordedAt, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return entries, nil
}
