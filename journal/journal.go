// Package journal keeps an optional SQLite record of scrape runs.
//
// Each run gets one row in runs (source, store, completeness signal, rows
// written, final state, error) and, through Run.Append, one row in entries
// per record appended to the CSV store. The CSV stays the primary output;
// the journal only makes reruns and aborted runs visible afterwards.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/lexscrape/dbopen"
	"github.com/hazyhaar/lexscrape/idgen"
	"github.com/hazyhaar/lexscrape/persist"
	"github.com/hazyhaar/lexscrape/pipeline"
	"github.com/hazyhaar/lexscrape/source"
	"github.com/hazyhaar/lexscrape/vocab"
)

// Schema is applied on open.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	source_url  TEXT NOT NULL,
	slug        TEXT NOT NULL,
	store       TEXT NOT NULL DEFAULT '',
	observed    INTEGER NOT NULL DEFAULT 0,
	advertised  INTEGER NOT NULL DEFAULT 0,
	status      TEXT NOT NULL DEFAULT '',
	written     INTEGER NOT NULL DEFAULT 0,
	state       TEXT NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	started_at  INTEGER NOT NULL,
	finished_at INTEGER
);
CREATE TABLE IF NOT EXISTS entries (
	run_id     TEXT NOT NULL REFERENCES runs(id),
	position   INTEGER NOT NULL,
	store      TEXT NOT NULL,
	phonetic   TEXT NOT NULL,
	definition TEXT NOT NULL,
	category   TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	PRIMARY KEY (run_id, position)
);
CREATE INDEX IF NOT EXISTS idx_entries_store ON entries(store);
`

// Journal records runs.
type Journal struct {
	db          *sql.DB
	newID       idgen.Generator
	now         func() time.Time
	logger      *slog.Logger
	busyTimeout time.Duration
}

// Option configures a Journal.
type Option func(*Journal)

// WithIDGenerator sets the run ID generator. Default: idgen.Run.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(j *Journal) { j.newID = gen }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(j *Journal) { j.now = now }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(j *Journal) { j.logger = l }
}

// WithBusyTimeout sets how long SQLite waits on a journal locked by
// another run. Only Open applies it. Default: dbopen's 10s.
func WithBusyTimeout(d time.Duration) Option {
	return func(j *Journal) { j.busyTimeout = d }
}

// Open opens (or creates) the journal database at path.
func Open(path string, opts ...Option) (*Journal, error) {
	j := New(nil, opts...)
	dbOpts := []dbopen.Option{dbopen.WithMkdirAll(), dbopen.WithSchema(Schema)}
	if j.busyTimeout > 0 {
		dbOpts = append(dbOpts, dbopen.WithBusyTimeout(int(j.busyTimeout.Milliseconds())))
	}
	db, err := dbopen.Open(path, dbOpts...)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	// Pragmas are per connection; one connection keeps them all applied.
	db.SetMaxOpenConns(1)
	j.db = db
	return j, nil
}

// New wraps an open database. The schema must already be applied.
func New(db *sql.DB, opts ...Option) *Journal {
	j := &Journal{
		db:     db,
		newID:  idgen.Run,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(j)
	}
	return j
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Begin records the start of a run for src.
func (j *Journal) Begin(ctx context.Context, src source.Pair) (*Run, error) {
	id := j.newID()
	_, err := dbopen.Exec(ctx, j.db,
		`INSERT INTO runs (id, source_url, slug, state, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, src.URL, src.Slug(), pipeline.Idle.String(), j.now().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("journal: begin: %w", err)
	}
	j.logger.Debug("journal: run started", "run", id, "source", src.Slug())
	return &Run{ID: id, j: j}, nil
}

// Run is one journaled run. It implements persist.Persister so it can sit
// behind the CSV store in a persist.Router.
type Run struct {
	ID       string
	j        *Journal
	position int
}

// Append mirrors one appended record. A failure is not retried: it aborts
// the run like a CSV failure would.
func (r *Run) Append(ctx context.Context, rec vocab.CleanRecord, storeID string) error {
	_, err := r.j.db.ExecContext(ctx,
		`INSERT INTO entries (run_id, position, store, phonetic, definition, category, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.position+1, storeID, rec.PhoneticSpelling, rec.Definition, rec.Category, r.j.now().UnixMilli())
	if err != nil {
		return &persist.PersistenceError{Store: "journal:" + storeID, Op: "mirror", Err: err}
	}
	r.position++
	return nil
}

// Finish stores the run's outcome. runErr is the error Run returned, if any.
func (r *Run) Finish(ctx context.Context, rep pipeline.Report, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	_, err := dbopen.Exec(ctx, r.j.db,
		`UPDATE runs SET store = ?, observed = ?, advertised = ?, status = ?, written = ?,
		        state = ?, error = ?, finished_at = ?
		 WHERE id = ?`,
		rep.StoreID, rep.Signal.Observed, rep.Signal.Advertised, statusText(rep),
		rep.Written, rep.State.String(), msg, r.j.now().UnixMilli(), r.ID)
	if err != nil {
		return fmt.Errorf("journal: finish %s: %w", r.ID, err)
	}
	return nil
}

// statusText leaves the status empty when the run aborted before the
// signal was computed.
func statusText(rep pipeline.Report) string {
	if rep.StoreID == "" {
		return ""
	}
	return rep.Signal.Status.String()
}

// RunRecord is a row of the runs table.
type RunRecord struct {
	ID         string
	SourceURL  string
	Slug       string
	Store      string
	Observed   int
	Advertised int
	Status     string
	Written    int
	State      string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time // zero while running or after a crash
}

// Recent returns the latest runs, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, source_url, slug, store, observed, advertised, status, written,
		        state, error, started_at, finished_at
		 FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: recent: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rr RunRecord
		var started int64
		var finished sql.NullInt64
		if err := rows.Scan(&rr.ID, &rr.SourceURL, &rr.Slug, &rr.Store, &rr.Observed,
			&rr.Advertised, &rr.Status, &rr.Written, &rr.State, &rr.Error, &started, &finished); err != nil {
			return nil, fmt.Errorf("journal: scan run: %w", err)
		}
		rr.StartedAt = time.UnixMilli(started)
		if finished.Valid {
			rr.FinishedAt = time.UnixMilli(finished.Int64)
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}

// Entries returns the mirrored records of a run in page order.
func (j *Journal) Entries(ctx context.Context, runID string) ([]vocab.CleanRecord, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT phonetic, definition, category FROM entries WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("journal: entries: %w", err)
	}
	defer rows.Close()

	var out []vocab.CleanRecord
	for rows.Next() {
		var rec vocab.CleanRecord
		if err := rows.Scan(&rec.PhoneticSpelling, &rec.Definition, &rec.Category); err != nil {
			return nil, fmt.Errorf("journal: scan entry: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
