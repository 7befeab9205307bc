// Package checkpoint persists converged solutions and transient time
// series in SQLite.
package checkpoint

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/notargets/gomoc/checkpoint/migrations"
	"github.com/notargets/gomoc/output"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a run has no stored checkpoint.
var ErrNotFound = errors.New("checkpoint not found")

// Run identifies one solver execution.
type Run struct {
	ID        string
	CreatedAt time.Time
	Solver    string
	NumDOFs   int
}

// Checkpoint is a stored solver state with the eigenvalue it was
// computed at.
type Checkpoint struct {
	RunID    string
	K        float64
	Solution []float64
	CellFlux []float64
}

// Store is the SQLite-backed checkpoint store.
type Store struct {
	sqlDB  *sql.DB
	tracer trace.Tracer
}

// Open opens the database at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, tracer: otel.Tracer("github.com/notargets/gomoc/checkpoint")}, nil
}

// Close releases the connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// NewRun registers a run and returns it with a fresh id.
func (s *Store) NewRun(ctx context.Context, solverType string, numDOFs int) (Run, error) {
	r := Run{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Solver:    solverType,
		NumDOFs:   numDOFs,
	}
	_, err := s.sqlDB.ExecContext(ctx,
		"INSERT INTO runs (id, created_at, solver, num_dofs) VALUES (?, ?, ?, ?)",
		r.ID, r.CreatedAt.UnixMilli(), r.Solver, r.NumDOFs)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return r, nil
}

// GetRun looks up a run by id.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	var (
		r       Run
		created int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT id, created_at, solver, num_dofs FROM runs WHERE id = ?", id).
		Scan(&r.ID, &created, &r.Solver, &r.NumDOFs)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	r.CreatedAt = time.UnixMilli(created).UTC()
	return r, nil
}

// SaveCheckpoint stores or replaces the solution of a run.
func (s *Store) SaveCheckpoint(ctx context.Context, c Checkpoint) error {
	ctx, span := s.tracer.Start(ctx, "checkpoint.Save")
	defer span.End()
	span.SetAttributes(attribute.String("run", c.RunID), attribute.Int("dofs", len(c.Solution)))

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO checkpoints (run_id, k, solution, cell_flux, saved_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(run_id) DO UPDATE SET
	k = excluded.k,
	solution = excluded.solution,
	cell_flux = excluded.cell_flux,
	saved_at = excluded.saved_at
`, c.RunID, c.K, encode(c.Solution), encode(c.CellFlux), time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	log.WithFields(log.Fields{"run": c.RunID, "dofs": len(c.Solution), "k": c.K}).Info("checkpoint saved")
	return nil
}

// LoadCheckpoint returns the stored solution of a run.
func (s *Store) LoadCheckpoint(ctx context.Context, runID string) (Checkpoint, error) {
	c := Checkpoint{RunID: runID}
	var sol, flux []byte
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT k, solution, cell_flux FROM checkpoints WHERE run_id = ?", runID).Scan(&c.K, &sol, &flux)
	if errors.Is(err, sql.ErrNoRows) {
		return Checkpoint{}, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return Checkpoint{}, fmt.Errorf("load checkpoint: %w", err)
	}
	if c.Solution, err = decode(sol); err != nil {
		return Checkpoint{}, fmt.Errorf("load checkpoint %s: %w", runID, err)
	}
	if c.CellFlux, err = decode(flux); err != nil {
		return Checkpoint{}, fmt.Errorf("load checkpoint %s: %w", runID, err)
	}
	return c, nil
}

// AppendPoint adds one sample to the time series of a run.
func (s *Store) AppendPoint(ctx context.Context, runID string, p output.Point) error {
	_, err := s.sqlDB.ExecContext(ctx,
		"INSERT INTO timeseries (run_id, step, t, value, dt) VALUES (?, ?, ?, ?, ?)",
		runID, p.Step, p.T, p.Value, p.Dt)
	if err != nil {
		return fmt.Errorf("append point: %w", err)
	}
	return nil
}

// Observer appends every observed point to the series of runID.
func (s *Store) Observer(runID string) output.Observer {
	return output.ObserverFunc(func(ctx context.Context, p output.Point) error {
		return s.AppendPoint(ctx, runID, p)
	})
}

// Series returns the time series of a run ordered by step.
func (s *Store) Series(ctx context.Context, runID string) ([]output.Point, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT step, t, value, dt FROM timeseries WHERE run_id = ? ORDER BY step", runID)
	if err != nil {
		return nil, fmt.Errorf("query series: %w", err)
	}
	defer rows.Close()
	var points []output.Point
	for rows.Next() {
		var p output.Point
		if err := rows.Scan(&p.Step, &p.T, &p.Value, &p.Dt); err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func encode(v []float64) []byte {
	buf := make([]byte, 8*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(x))
	}
	return buf
}

func decode(buf []byte) ([]float64, error) {
	if len(buf)%8 != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of 8", len(buf))
	}
	v := make([]float64, len(buf)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:]))
	}
	return v, nil
}
