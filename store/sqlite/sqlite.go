// Package sqlite is a core.RecordStore backed by an embedded SQLite database.
// Each record is one row holding its fields as a JSON document.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hupe1980/agriconnect/core"
	"github.com/hupe1980/agriconnect/store"
)

// Options configures a Store.
type Options struct {
	Now   func() time.Time
	NewID func() string
}

// Store implements core.RecordStore on SQLite.
type Store struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

// New opens (creating if needed) the database at path and migrates it.
func New(path string, optFns ...func(o *Options)) (*Store, error) {
	opts := Options{Now: time.Now, NewID: uuid.NewString}
	for _, fn := range optFns {
		fn(&opts)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite has a single writer; one connection serializes the
	// read-merge-write transactions of Update.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// WAL for concurrent readers; the busy timeout makes writers wait
	// instead of failing with SQLITE_BUSY.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %s: %w", p, err)
		}
	}

	s := &Store{db: db, now: opts.Now, newID: opts.NewID}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id              TEXT PRIMARY KEY,
			data            TEXT NOT NULL,
			created_at      TEXT NOT NULL,
			last_updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_created ON trades(created_at)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// Create implements core.RecordStore.
func (s *Store) Create(ctx context.Context, fields map[string]any) (string, error) {
	doc, err := store.Normalize(fields)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	id := s.newID()
	now := formatTime(s.now())
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO trades (id, data, created_at, last_updated_at) VALUES (?, ?, ?, ?)`,
		id, string(data), now, now)
	if err != nil {
		return "", unavailable("create trade", err)
	}
	return id, nil
}

// Update implements core.RecordStore. The read-merge-write runs in one
// transaction so concurrent partial updates do not lose fields.
func (s *Store) Update(ctx context.Context, id string, partial map[string]any) error {
	patch, err := store.Normalize(partial)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin update", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var raw string
	err = tx.QueryRowContext(ctx, `SELECT data FROM trades WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update %q: %w", id, core.ErrTradeNotFound)
	}
	if err != nil {
		return unavailable("load trade", err)
	}

	doc := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return fmt.Errorf("decode trade %q: %w", id, err)
	}
	store.Merge(doc, patch)
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE trades SET data = ?, last_updated_at = ? WHERE id = ?`,
		string(data), formatTime(s.now()), id); err != nil {
		return unavailable("update trade", err)
	}
	if err := tx.Commit(); err != nil {
		return unavailable("commit update", err)
	}
	return nil
}

// Get implements core.RecordStore.
func (s *Store) Get(ctx context.Context, id string) (core.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, data, created_at, last_updated_at FROM trades WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, fmt.Errorf("get %q: %w", id, core.ErrTradeNotFound)
	}
	if err != nil {
		return core.Record{}, unavailable("get trade", err)
	}
	return rec, nil
}

// Query implements core.RecordStore. Filters are compared against the JSON
// document with json_extract; results are in creation order.
func (s *Store) Query(ctx context.Context, filters map[string]any) ([]core.Record, error) {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		if err := store.ValidateField(k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var (
		where []string
		args  []any
	)
	for _, k := range keys {
		v, err := json.Marshal(filters[k])
		if err != nil {
			return nil, fmt.Errorf("encode filter %q: %w", k, err)
		}
		where = append(where, `json_extract(data, ?) = json_extract(?, '$')`)
		args = append(args, `$."`+k+`"`, string(v))
	}

	q := `SELECT id, data, created_at, last_updated_at FROM trades`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, ` AND `)
	}
	q += ` ORDER BY created_at, rowid`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, unavailable("query trades", err)
	}
	defer rows.Close()

	out := []core.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, unavailable("scan trade", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("query trades", err)
	}
	return out, nil
}

func scanRecord(scanner interface {
	Scan(dest ...any) error
}) (core.Record, error) {
	var (
		rec              core.Record
		raw              string
		created, updated string
	)
	if err := scanner.Scan(&rec.ID, &raw, &created, &updated); err != nil {
		return core.Record{}, err
	}
	rec.Fields = map[string]any{}
	if err := json.Unmarshal([]byte(raw), &rec.Fields); err != nil {
		return core.Record{}, fmt.Errorf("decode trade %q: %w", rec.ID, err)
	}
	var err error
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return core.Record{}, err
	}
	if rec.LastUpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return core.Record{}, err
	}
	return rec, nil
}

// timeLayout is fixed width so created_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, core.ErrStoreUnavailable, err)
}
