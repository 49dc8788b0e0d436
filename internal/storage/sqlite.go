package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/NikBulygin/financeTracker/internal/log"
	"github.com/NikBulygin/financeTracker/internal/table"
)

const (
	keyTable     = "table"
	keyDriveFile = "drive_file"
)

// SQLiteStore implements TableStore on a local SQLite database.
type SQLiteStore struct {
	db      *sql.DB
	version string
	agent   string
	logger  *log.Logger
	now     func() time.Time
}

var _ TableStore = (*SQLiteStore)(nil)

// Open opens (creating if needed) the SQLite database at dbPath and runs
// migrations. version and agent are recorded in the metadata row of newly
// created tables.
func Open(dbPath, version, agent string, logger *log.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{
		db:      db,
		version: version,
		agent:   agent,
		logger:  logger.WithComponent(log.ComponentStorage),
		now:     time.Now,
	}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ready panics when the store is used before Open. Storage access without a
// live database is a precondition violation, not a recoverable error.
func (s *SQLiteStore) ready() {
	if s == nil || s.db == nil {
		panic("storage: SQLiteStore used before Open")
	}
}

func (s *SQLiteStore) Get(ctx context.Context, identity string, defaultHeaders []string) (table.Table, error) {
	s.ready()

	text, err := s.get(ctx, identity, keyTable)
	if errors.Is(err, sql.ErrNoRows) {
		t := table.New(identity, s.version, s.agent, defaultHeaders, s.now())
		if err := s.Save(ctx, identity, t); err != nil {
			return table.Table{}, fmt.Errorf("create table for %s: %w", identity, err)
		}
		s.logger.InfoContext(ctx, "created table",
			log.FieldIdentity, identity, log.FieldRowCount, 0)
		return t, nil
	}
	if err != nil {
		return table.Table{}, fmt.Errorf("load table for %s: %w", identity, err)
	}

	t, err := table.Unmarshal(text)
	if err != nil {
		return table.Table{}, fmt.Errorf("parse table for %s: %w", identity, err)
	}
	if t.EnsureHeaders(defaultHeaders) {
		if err := s.Save(ctx, identity, t); err != nil {
			return table.Table{}, fmt.Errorf("migrate headers for %s: %w", identity, err)
		}
		s.logger.InfoContext(ctx, "migrated table headers",
			log.FieldIdentity, identity)
	}
	return t, nil
}

func (s *SQLiteStore) Save(ctx context.Context, identity string, t table.Table) error {
	s.ready()
	return s.put(ctx, identity, keyTable, t.Marshal())
}

func (s *SQLiteStore) RemoteFileID(ctx context.Context, identity string) (string, error) {
	s.ready()
	id, err := s.get(ctx, identity, keyDriveFile)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return id, err
}

func (s *SQLiteStore) SetRemoteFileID(ctx context.Context, identity, fileID string) error {
	s.ready()
	return s.put(ctx, identity, keyDriveFile, fileID)
}

func (s *SQLiteStore) get(ctx context.Context, identity, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE identity = ? AND key = ?`,
		identity, key).Scan(&value)
	return value, err
}

func (s *SQLiteStore) put(ctx context.Context, identity, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (identity, key, value, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (identity, key) DO UPDATE SET
		   value = excluded.value,
		   updated_at = excluded.updated_at`,
		identity, key, value, s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", identity, key, err)
	}
	return nil
}
