package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/harun/agentq/internal/observability"
	"github.com/harun/agentq/internal/tracing"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

// QueryLimit caps the number of records returned by Query
const QueryLimit = 5

// ErrClosed is returned when the log is used after Close
var ErrClosed = errors.New("memory log is closed")

// Record is one persisted exchange
type Record struct {
	ID         int64     `json:"id"`
	Agent      string    `json:"agent"`
	UserInput  string    `json:"user_input"`
	AIResponse string    `json:"ai_response"`
	Timestamp  time.Time `json:"timestamp"`
}

// Config holds memory log configuration
type Config struct {
	DBPath string
	Logger zerolog.Logger
}

// Log appends and queries exchange records
type Log struct {
	db     *sql.DB
	logger zerolog.Logger
	mu     sync.RWMutex
	closed bool
}

// Open opens (or creates) the database and ensures the schema exists
func Open(cfg Config) (*Log, error) {
	observability.EnsureRegistered()

	if cfg.DBPath == "" {
		return nil, errors.New("database path is required")
	}

	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ids and WAL state consistent.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	l := &Log{
		db:     db,
		logger: cfg.Logger.With().Str("component", "memory").Logger(),
	}

	if err := l.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	l.logger.Info().Str("path", cfg.DBPath).Msg("Memory log opened")
	return l, nil
}

func (l *Log) initSchema() error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS memory (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			agent TEXT,
			user_input TEXT,
			ai_response TEXT,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}

// Save appends one exchange and returns its id
func (l *Log) Save(ctx context.Context, agent, input, response string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "agentq.memory", "memory.save",
		attribute.String("agent", agent),
	)
	defer span.End()

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return 0, ErrClosed
	}

	start := time.Now()
	res, err := l.db.ExecContext(ctx,
		"INSERT INTO memory (agent, user_input, ai_response) VALUES (?, ?, ?)",
		agent, input, response,
	)
	if err != nil {
		tracing.RecordError(span, err)
		observability.RecordMemoryWrite(time.Since(start), false)
		return 0, fmt.Errorf("failed to save record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		tracing.RecordError(span, err)
		observability.RecordMemoryWrite(time.Since(start), false)
		return 0, fmt.Errorf("failed to read record id: %w", err)
	}

	observability.RecordMemoryWrite(time.Since(start), true)
	span.SetAttributes(attribute.Int64("record_id", id))
	l.logger.Debug().Int64("id", id).Str("agent", agent).Msg("Record saved")
	return id, nil
}

// Query returns up to QueryLimit records whose input contains substring, newest first
func (l *Log) Query(ctx context.Context, substring string) ([]Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return nil, ErrClosed
	}

	start := time.Now()
	defer func() { observability.RecordMemoryQuery(time.Since(start)) }()

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, agent, user_input, ai_response, timestamp
		FROM memory
		WHERE user_input LIKE ? ESCAPE '\'
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, "%"+escapeLike(substring)+"%", QueryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var agent, input, response sql.NullString
		if err := rows.Scan(&r.ID, &agent, &input, &response, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		r.Agent = agent.String
		r.UserInput = input.String
		r.AIResponse = response.String
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}

	return records, nil
}

// Count returns the number of stored records
func (l *Log) Count(ctx context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return 0, ErrClosed
	}

	var n int
	if err := l.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM memory").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

// Close closes the database. Calling Close twice is a no-op.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	l.logger.Info().Msg("Memory log closed")
	return l.db.Close()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
