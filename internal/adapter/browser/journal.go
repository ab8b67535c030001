package browser

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"webrelay/internal/domain"
)

// Journal records every executed command to a local SQLite database.
// Writes are best-effort: a journal failure is logged and never fails
// the command it describes.
type Journal struct {
	db      *sql.DB
	session string
	seq     atomic.Int64
	logger  *slog.Logger
}

// TraceEntry is one journaled command as stored.
type TraceEntry struct {
	ID      int64
	Session string
	Seq     int64
	TS      time.Time
	Kind    string
	Payload string
	OK      bool
	Detail  string
}

// OpenJournal opens (or creates) the trace database at dbPath and runs
// the schema migration. session labels every row written through this
// journal.
func OpenJournal(dbPath, session string, logger *slog.Logger) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrTraceStore, dbPath, err)
	}
	// WAL mode for better concurrent reads; a single writer connection
	// keeps modernc's file locking out of the picture.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: set WAL mode: %v", domain.ErrTraceStore, err)
	}
	db.SetMaxOpenConns(1)
	if err := migrateJournal(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrate: %v", domain.ErrTraceStore, err)
	}
	return &Journal{db: db, session: session, logger: logger}, nil
}

func migrateJournal(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS trace (
			id      INTEGER PRIMARY KEY,
			session TEXT NOT NULL,
			seq     INTEGER NOT NULL,
			ts      TEXT NOT NULL,
			kind    TEXT NOT NULL,
			payload TEXT NOT NULL DEFAULT '',
			ok      INTEGER NOT NULL,
			detail  TEXT NOT NULL DEFAULT ''
		)
	`)
	return err
}

// Record journals one executed command. kind is the route name, payload
// the raw request body, ok the command outcome, detail the error or
// refusal text when not ok.
func (j *Journal) Record(kind, payload string, ok bool, detail string) {
	seq := j.seq.Add(1)
	okInt := 0
	if ok {
		okInt = 1
	}
	_, err := j.db.Exec(
		"INSERT INTO trace (session, seq, ts, kind, payload, ok, detail) VALUES (?, ?, ?, ?, ?, ?, ?)",
		j.session, seq, time.Now().UTC().Format(time.RFC3339Nano),
		kind, payload, okInt, detail,
	)
	if err != nil {
		j.logger.Warn("trace journal write failed", "kind", kind, "error", err)
	}
}

// Recent returns up to n most recent entries, newest first.
func (j *Journal) Recent(n int) ([]TraceEntry, error) {
	rows, err := j.db.Query(
		"SELECT id, session, seq, ts, kind, payload, ok, detail FROM trace ORDER BY seq DESC LIMIT ?", n,
	)
	if err != nil {
		return nil, fmt.Errorf("query trace: %w", err)
	}
	defer rows.Close()

	var out []TraceEntry
	for rows.Next() {
		var e TraceEntry
		var ts string
		var ok int
		if err := rows.Scan(&e.ID, &e.Session, &e.Seq, &ts, &e.Kind, &e.Payload, &ok, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan trace row: %w", err)
		}
		e.TS, _ = time.Parse(time.RFC3339Nano, ts)
		e.OK = ok == 1
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}
