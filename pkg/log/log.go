// Package log provides a zerolog-based logger. By default it writes
// human-readable console output; Init switches it to a JSON sink backed by
// an SQLite database, from which past entries can be queried back (used by
// the `lanwake logs` subcommand and the web UI's log view).
package log

import (
	"database/sql"
	"errors"
	"fmt"
	stdlog "log"
	"os"
	"path"
	"sync"
	"time"

	"lanwake-go/pkg/appdir"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

var (
	pkgLogger        = zerolog.Nop()
	dbWriterInstance *sqliteWriter
	dbHandle         *sql.DB
	mu               sync.RWMutex

	// ErrNotInitialized is returned by the retrieval functions before Init.
	ErrNotInitialized = errors.New("log: logger not initialized, call log.Init() first")
)

const timeFieldFormat = time.RFC3339Nano

type sqliteWriter struct {
	db   *sql.DB
	stmt *sql.Stmt
	mu   sync.Mutex
}

func newSQLiteWriter(dbPath string) (*sqliteWriter, *sql.DB, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode=wal&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open sqlite db %s: %w", dbPath, err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping sqlite db %s: %w", dbPath, err)
	}

	createTableSQL := `
    CREATE TABLE IF NOT EXISTS logs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        inserted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP NOT NULL,
        log_data TEXT NOT NULL
    );`
	if _, err = db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create logs table: %w", err)
	}

	createIndexSQL := `CREATE INDEX IF NOT EXISTS idx_logs_json_time ON logs (json_extract(log_data, '$.time'));`
	if _, err = db.Exec(createIndexSQL); err != nil {
		stdlog.Printf("Warning: failed to create JSON time index: %v\n", err)
	}

	stmt, err := db.Prepare(`INSERT INTO logs (log_data) VALUES (?)`)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}

	return &sqliteWriter{db: db, stmt: stmt}, db, nil
}

func (w *sqliteWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err = w.stmt.Exec(string(p)); err != nil {
		stdlog.Printf("ERROR writing log to SQLite: %v\n", err)
		return 0, err
	}
	return len(p), nil
}

func (w *sqliteWriter) close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var firstErr error
	if w.stmt != nil {
		if err := w.stmt.Close(); err != nil {
			firstErr = fmt.Errorf("error closing statement: %w", err)
		}
		w.stmt = nil
	}
	if w.db != nil {
		if err := w.db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("error closing db: %w", err)
		}
		w.db = nil
	}
	return firstErr
}

// SetStd points the package logger at a console writer on stdout.
func SetStd() {
	pkgLogger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
}

// Init switches the package logger to the SQLite sink, teeing events to a
// console writer on stdout. dbFile is relative to the app directory.
func Init(dbFile string) error {
	if dbFile == "" {
		return fmt.Errorf("logger needs an explicit dbFile")
	}
	dbPath := path.Join(appdir.AppDir(), dbFile)

	mu.Lock()
	defer mu.Unlock()

	if dbWriterInstance != nil {
		return fmt.Errorf("logger already initialized")
	}

	writer, db, err := newSQLiteWriter(dbPath)
	if err != nil {
		return fmt.Errorf("failed to create SQLite writer: %w", err)
	}
	dbWriterInstance = writer
	dbHandle = db

	zerolog.TimeFieldFormat = timeFieldFormat
	console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	pkgLogger = zerolog.New(zerolog.MultiLevelWriter(dbWriterInstance, console)).With().Timestamp().Logger()
	return nil
}

// Close tears down the SQLite sink. Safe to call when not initialized.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if dbWriterInstance == nil {
		return nil
	}
	dbHandle = nil
	dbWriter := dbWriterInstance
	dbWriterInstance = nil
	pkgLogger = zerolog.Nop()

	if err := dbWriter.close(); err != nil {
		return fmt.Errorf("error closing SQLite logger: %w", err)
	}
	return nil
}

func Debug() *zerolog.Event { return pkgLogger.Debug() }
func Info() *zerolog.Event  { return pkgLogger.Info() }
func Warn() *zerolog.Event  { return pkgLogger.Warn() }
func Error() *zerolog.Event { return pkgLogger.Error() }
func Fatal() *zerolog.Event { return pkgLogger.Fatal() }

// Printf sends an info-level event. Arguments are handled in the manner
// of fmt.Printf.
func Printf(format string, v ...interface{}) {
	pkgLogger.Info().CallerSkipFrame(1).Msgf(format, v...)
}

func Fatalf(format string, v ...any) {
	pkgLogger.Fatal().Msgf(format, v...)
}

// --- Log retrieval ---

type LogEntry struct {
	ID         int64
	InsertedAt time.Time
	LogData    string // raw JSON
}

const DefaultLimit = 100

func getHandle() (*sql.DB, error) {
	mu.RLock()
	defer mu.RUnlock()
	if dbHandle == nil {
		return nil, ErrNotInitialized
	}
	return dbHandle, nil
}

// parseDBTimestamp tries common SQLite timestamp formats.
func parseDBTimestamp(ts string) time.Time {
	formats := []string{
		"2006-01-02 15:04:05",
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999",
	}
	for _, format := range formats {
		t, err := time.Parse(format, ts)
		if err == nil {
			return t
		}
	}
	return time.Time{}
}

func scanLogs(rows *sql.Rows) ([]LogEntry, error) {
	var logs []LogEntry
	for rows.Next() {
		var entry LogEntry
		var insertedAtStr string
		if err := rows.Scan(&entry.ID, &insertedAtStr, &entry.LogData); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		entry.InsertedAt = parseDBTimestamp(insertedAtStr)
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating log rows: %w", err)
	}
	return logs, nil
}

// GetLastNLogs retrieves the most recent n log entries in chronological
// order (oldest of the n first).
func GetLastNLogs(n int) ([]LogEntry, error) {
	handle, err := getHandle()
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return []LogEntry{}, nil
	}

	rows, err := handle.Query(`SELECT id, inserted_at, log_data FROM logs ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query last %d logs: %w", n, err)
	}
	defer rows.Close()

	logs, err := scanLogs(rows)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(logs)-1; i < j; i, j = i+1, j-1 {
		logs[i], logs[j] = logs[j], logs[i]
	}
	return logs, nil
}

// GetLogsBetween retrieves entries whose event time falls within [start,
// end], in chronological order. A limit <= 0 means DefaultLimit.
func GetLogsBetween(start, end time.Time, limit int) ([]LogEntry, error) {
	handle, err := getHandle()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := `
        SELECT id, inserted_at, log_data
        FROM logs
        WHERE json_extract(log_data, '$.time') >= ? AND json_extract(log_data, '$.time') <= ?
        ORDER BY json_extract(log_data, '$.time') ASC, id ASC
        LIMIT ?`

	rows, err := handle.Query(query, start.Format(timeFieldFormat), end.Format(timeFieldFormat), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query logs between %s and %s: %w",
			start.Format(timeFieldFormat), end.Format(timeFieldFormat), err)
	}
	defer rows.Close()

	return scanLogs(rows)
}

// GetLogsSince retrieves entries from start up to now.
func GetLogsSince(start time.Time, limit int) ([]LogEntry, error) {
	return GetLogsBetween(start, time.Now(), limit)
}
