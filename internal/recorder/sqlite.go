package recorder

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"FlowSentinel/internal/logger"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	r := &SQLiteRecorder{db: db, now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.L().Infof("sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS flow_runs (
			id                     INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp              INTEGER NOT NULL,
			subscriber             TEXT NOT NULL,
			regime                 TEXT,
			all_common_used        REAL,
			all_common_incremental REAL,
			all_common_today       REAL,
			all_traffic_used       REAL,
			fired                  INTEGER,
			reason                 TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_sub_ts ON flow_runs(subscriber, timestamp)`,

		`CREATE TABLE IF NOT EXISTS notifications (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			subscriber TEXT NOT NULL,
			channel    TEXT,
			title      TEXT,
			delivered  INTEGER,
			detail     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notify_sub_ts ON notifications(subscriber, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(evt *RunEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO flow_runs
		(timestamp, subscriber, regime, all_common_used, all_common_incremental,
		 all_common_today, all_traffic_used, fired, reason)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		r.now().Unix(), evt.Subscriber, evt.Regime,
		evt.AllCommonUsed, evt.AllCommonIncremental, evt.AllCommonToday,
		evt.AllTrafficUsed, evt.Fired, evt.Reason,
	)
	return err
}

func (r *SQLiteRecorder) RecordNotify(evt *NotifyEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO notifications
		(timestamp, subscriber, channel, title, delivered, detail)
		VALUES (?,?,?,?,?,?)`,
		r.now().Unix(), evt.Subscriber, evt.Channel, evt.Title, evt.Delivered, evt.Detail,
	)
	return err
}

// CountRuns returns the number of recorded runs of a subscriber.
func (r *SQLiteRecorder) CountRuns(subscriber string) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM flow_runs WHERE subscriber = ?`, subscriber).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	logger.L().Info("closing sqlite recorder")
	return r.db.Close()
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
