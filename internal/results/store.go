package results

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	kind          TEXT NOT NULL,
	args_json     TEXT,
	started_at    TEXT NOT NULL,
	finished_at   TEXT
);

CREATE TABLE IF NOT EXISTS demo_outcomes (
	id             TEXT PRIMARY KEY,
	run_id         TEXT NOT NULL,
	demo           TEXT NOT NULL,
	failed         BOOLEAN NOT NULL,
	failure_reason TEXT,
	output_path    TEXT,
	stats_json     TEXT,
	created_at     TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE INDEX IF NOT EXISTS idx_demo_outcomes_run ON demo_outcomes(run_id);
`

// Fixed-width so timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// #endregion schema

// #region store-struct
// Store records batch runs and per-demo outcomes in SQLite or Postgres.
type Store struct {
	db     *sql.DB
	driver string
}

// #endregion store-struct

// #region constructor
// NewStore opens the database for driver ("sqlite" or "postgres") and runs
// migrations.
func NewStore(driver, dsn string) (*Store, error) {
	var sqlDriver string
	switch driver {
	case "sqlite", "":
		driver, sqlDriver = "sqlite", "sqlite"
	case "postgres":
		sqlDriver = "postgres"
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if driver == "sqlite" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma: %w", err)
		}
		if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma fk: %w", err)
		}
	} else if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, driver: driver}, nil
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion close

// #region runs
// CreateRun starts a run of the given kind.
func (s *Store) CreateRun(kind string, args map[string]any) (Run, error) {
	run := Run{
		RunID:     uuid.New().String(),
		Kind:      kind,
		Args:      args,
		StartedAt: time.Now().UTC(),
	}
	argsJSON, err := marshalMap(args)
	if err != nil {
		return Run{}, fmt.Errorf("marshal args: %w", err)
	}
	_, err = s.db.Exec(s.rebind(
		`INSERT INTO runs (run_id, kind, args_json, started_at) VALUES (?, ?, ?, ?)`),
		run.RunID, kind, argsJSON, run.StartedAt.Format(timeLayout),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// FinishRun stamps the run's finish time.
func (s *Store) FinishRun(runID string) error {
	res, err := s.db.Exec(s.rebind(`UPDATE runs SET finished_at = ? WHERE run_id = ?`),
		time.Now().UTC().Format(timeLayout), runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 returns all.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	q := `SELECT run_id, kind, args_json, started_at, finished_at FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.Query(s.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r             Run
			argsJSON, fin sql.NullString
			started       string
		)
		if err := rows.Scan(&r.RunID, &r.Kind, &argsJSON, &started, &fin); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.Args, err = unmarshalMap(argsJSON); err != nil {
			return nil, fmt.Errorf("run %s args: %w", r.RunID, err)
		}
		if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("run %s started_at: %w", r.RunID, err)
		}
		if fin.Valid {
			t, err := time.Parse(timeLayout, fin.String)
			if err != nil {
				return nil, fmt.Errorf("run %s finished_at: %w", r.RunID, err)
			}
			r.FinishedAt = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// #endregion runs

// #region outcomes
// RecordOutcome stores one demo outcome. ID and CreatedAt are filled in when
// empty.
func (s *Store) RecordOutcome(o Outcome) (Outcome, error) {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	statsJSON, err := marshalMap(o.Stats)
	if err != nil {
		return Outcome{}, fmt.Errorf("marshal stats: %w", err)
	}
	_, err = s.db.Exec(s.rebind(
		`INSERT INTO demo_outcomes (id, run_id, demo, failed, failure_reason, output_path, stats_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		o.ID, o.RunID, o.Demo, o.Failed,
		nullIfEmpty(o.FailureReason), nullIfEmpty(o.OutputPath), statsJSON,
		o.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return Outcome{}, fmt.Errorf("insert outcome: %w", err)
	}
	return o, nil
}

// ListOutcomes returns a run's outcomes in insertion order.
func (s *Store) ListOutcomes(runID string) ([]Outcome, error) {
	rows, err := s.db.Query(s.rebind(
		`SELECT id, run_id, demo, failed, failure_reason, output_path, stats_json, created_at
		 FROM demo_outcomes WHERE run_id = ? ORDER BY created_at ASC, demo ASC`), runID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var out []Outcome
	for rows.Next() {
		var (
			o                   Outcome
			reason, path, stats sql.NullString
			created             string
		)
		if err := rows.Scan(&o.ID, &o.RunID, &o.Demo, &o.Failed, &reason, &path, &stats, &created); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.FailureReason = reason.String
		o.OutputPath = path.String
		if o.Stats, err = unmarshalMap(stats); err != nil {
			return nil, fmt.Errorf("outcome %s stats: %w", o.ID, err)
		}
		if o.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("outcome %s created_at: %w", o.ID, err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Stats counts a run's outcomes.
func (s *Store) Stats(runID string) (RunStats, error) {
	var st RunStats
	err := s.db.QueryRow(s.rebind(
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN failed THEN 1 ELSE 0 END), 0) FROM demo_outcomes WHERE run_id = ?`),
		runID).Scan(&st.Total, &st.Failed)
	if err != nil {
		return RunStats{}, fmt.Errorf("run stats: %w", err)
	}
	return st, nil
}

// #endregion outcomes

// #region helpers
// rebind rewrites ? placeholders to $n for postgres.
func (s *Store) rebind(q string) string {
	if s.driver != "postgres" {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func marshalMap(m map[string]any) (any, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func unmarshalMap(s sql.NullString) (map[string]any, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s.String), &m); err != nil {
		return nil, err
	}
	return m, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
