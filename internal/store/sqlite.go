package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"FlowSentinel/internal/logger"
	"FlowSentinel/internal/model"
)

// SQLiteStore persists snapshots in a SQLite database, one row per subscriber.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		subscriber TEXT PRIMARY KEY,
		timestamp  INTEGER NOT NULL,
		date       TEXT NOT NULL,
		payload    TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.L().Infof("sqlite snapshot store opened: %s", dbPath)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, subscriber string) (*model.Snapshot, error) {
	if err := checkSubscriber(subscriber); err != nil {
		return nil, err
	}
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM snapshots WHERE subscriber = ?`, subscriber).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", subscriber, err)
	}
	var snap model.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", subscriber, err)
	}
	return normalize(&snap), nil
}

func (s *SQLiteStore) Save(ctx context.Context, subscriber string, snap *model.Snapshot) error {
	if err := checkSubscriber(subscriber); err != nil {
		return err
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `INSERT INTO snapshots (subscriber, timestamp, date, payload)
		VALUES (?,?,?,?)
		ON CONFLICT(subscriber) DO UPDATE SET
			timestamp = excluded.timestamp,
			date = excluded.date,
			payload = excluded.payload`,
		subscriber, snap.Timestamp.Unix(), snap.Date, string(payload),
	)
	return err
}

func (s *SQLiteStore) Close() error {
	logger.L().Info("closing sqlite snapshot store")
	return s.db.Close()
}

// sqliteDSN applies the pragmas to every pooled connection. The busy timeout
// lets writers sharing the database file wait for each other instead of
// failing with SQLITE_BUSY.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}
