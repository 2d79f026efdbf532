// Package persistence provides SQLite-based storage for simulation runs.
package persistence

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/pthm-cable/psyche/agent"
	"github.com/pthm-cable/psyche/telemetry"
)

// DefaultBatchSize is the number of observation rows written per transaction.
const DefaultBatchSize = 5000

// DB wraps a SQLite connection for run storage.
type DB struct {
	conn      *sqlx.DB
	batchSize int
}

// Run describes one stored simulation run.
type Run struct {
	ID        string  `db:"id"`
	Seed      int64   `db:"seed"`
	Agents    int     `db:"agents"`
	DT        float64 `db:"dt"`
	StartedAt int64   `db:"started_at"` // unix seconds
	Ticks     int64   `db:"ticks"`      // ticks completed, updated by FinishRun
	Config    string  `db:"config"`     // YAML
}

// Started returns the run's start time.
func (r Run) Started() time.Time {
	return time.Unix(r.StartedAt, 0)
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn, batchSize: DefaultBatchSize}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// SetBatchSize sets the number of observation rows per transaction.
func (db *DB) SetBatchSize(n int) {
	if n < 1 {
		n = DefaultBatchSize
	}
	db.batchSize = n
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		agents INTEGER NOT NULL,
		dt REAL NOT NULL,
		started_at INTEGER NOT NULL,
		ticks INTEGER NOT NULL DEFAULT 0,
		config TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS observations (
		run_id TEXT NOT NULL REFERENCES runs(id),
		agent_id INTEGER NOT NULL,
		step INTEGER NOT NULL,
		time REAL NOT NULL,
		type TEXT NOT NULL,
		state TEXT NOT NULL,
		stress REAL NOT NULL,
		aversive_internal_state REAL NOT NULL,
		urge_to_escape REAL NOT NULL,
		suicidal_thought REAL NOT NULL,
		escape_behavior REAL NOT NULL,
		external_strategy REAL NOT NULL,
		internal_strategy REAL NOT NULL,
		PRIMARY KEY (run_id, agent_id, step)
	);

	CREATE TABLE IF NOT EXISTS bookmarks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		type TEXT NOT NULL,
		tick INTEGER NOT NULL,
		time REAL NOT NULL,
		description TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_observations_step ON observations(run_id, step);
	CREATE INDEX IF NOT EXISTS idx_bookmarks_run ON bookmarks(run_id, tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// CreateRun records the start of a run and returns it with a fresh id.
func (db *DB) CreateRun(seed uint64, agents int, dt float64, configYAML []byte) (Run, error) {
	run := Run{
		ID:        uuid.NewString(),
		Seed:      int64(seed),
		Agents:    agents,
		DT:        dt,
		StartedAt: time.Now().Unix(),
		Config:    string(configYAML),
	}
	_, err := db.conn.NamedExec(`INSERT INTO runs (id, seed, agents, dt, started_at, ticks, config)
		VALUES (:id, :seed, :agents, :dt, :started_at, :ticks, :config)`, run)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// FinishRun records the number of ticks a run completed.
func (db *DB) FinishRun(runID string, ticks int64) error {
	res, err := db.conn.Exec("UPDATE runs SET ticks = ? WHERE id = ?", ticks, runID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// Runs returns all stored runs, oldest first.
func (db *DB) Runs() ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs,
		"SELECT id, seed, agents, dt, started_at, ticks, config FROM runs ORDER BY started_at, rowid")
	return runs, err
}

// SaveObservations appends observations for a run, committing every batch.
func (db *DB) SaveObservations(runID string, obs []agent.Observation) error {
	for start := 0; start < len(obs); start += db.batchSize {
		end := min(start+db.batchSize, len(obs))
		if err := db.saveObservationBatch(runID, obs[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) saveObservationBatch(runID string, obs []agent.Observation) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO observations
		(run_id, agent_id, step, time, type, state, stress, aversive_internal_state,
		 urge_to_escape, suicidal_thought, escape_behavior, external_strategy, internal_strategy)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, o := range obs {
		_, err := stmt.Exec(
			runID, o.AgentID, o.Step, o.Time, o.Type, o.State,
			o.Stress, o.AversiveInternalState, o.UrgeToEscape,
			o.SuicidalThought, o.EscapeBehavior, o.ExternalStrategy, o.InternalStrategy,
		)
		if err != nil {
			return fmt.Errorf("insert observation %d@%d: %w", o.AgentID, o.Step, err)
		}
	}

	return tx.Commit()
}

// LoadObservations returns a run's observations ordered by step, then agent.
func (db *DB) LoadObservations(runID string) ([]agent.Observation, error) {
	var obs []agent.Observation
	err := db.conn.Select(&obs, `SELECT agent_id, step, time, type, state, stress,
		aversive_internal_state, urge_to_escape, suicidal_thought, escape_behavior,
		external_strategy, internal_strategy
		FROM observations WHERE run_id = ? ORDER BY step, agent_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("load observations: %w", err)
	}
	return obs, nil
}

// SaveBookmarks appends bookmarks for a run.
func (db *DB) SaveBookmarks(runID string, bookmarks []telemetry.Bookmark) error {
	if len(bookmarks) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, b := range bookmarks {
		_, err := tx.Exec("INSERT INTO bookmarks (run_id, type, tick, time, description) VALUES (?, ?, ?, ?, ?)",
			runID, string(b.Type), b.Tick, b.Time, b.Description)
		if err != nil {
			return fmt.Errorf("insert bookmark: %w", err)
		}
	}

	return tx.Commit()
}

// LoadBookmarks returns a run's bookmarks in tick order.
func (db *DB) LoadBookmarks(runID string) ([]telemetry.Bookmark, error) {
	var bookmarks []telemetry.Bookmark
	err := db.conn.Select(&bookmarks,
		"SELECT type, tick, time, description FROM bookmarks WHERE run_id = ? ORDER BY tick, id", runID)
	if err != nil {
		return nil, fmt.Errorf("load bookmarks: %w", err)
	}
	return bookmarks, nil
}
