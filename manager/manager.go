// Package manager runs solvers as fixed-source or transient calculations
// and takes care of their output and checkpoints.
package manager

import (
	"context"
	"errors"

	"github.com/notargets/gomoc/checkpoint"
	"github.com/notargets/gomoc/output"
	"github.com/notargets/gomoc/solver"
	"go.opentelemetry.io/otel"
)

var (
	// ErrNoFixedSource is returned by FixedSource when the problem has
	// neither an external nor a boundary source.
	ErrNoFixedSource = errors.New("problem has no fixed source")
	// ErrDOFMismatch is returned when a stored initial condition does not
	// fit the solver.
	ErrDOFMismatch = errors.New("initial condition has the wrong number of DOFs")
)

var tracer = otel.Tracer("github.com/notargets/gomoc/manager")

// Checkpoints is the persistence a manager needs.
type Checkpoints interface {
	NewRun(ctx context.Context, solverType string, numDOFs int) (checkpoint.Run, error)
	SaveCheckpoint(ctx context.Context, c checkpoint.Checkpoint) error
	LoadCheckpoint(ctx context.Context, runID string) (checkpoint.Checkpoint, error)
}

var _ Checkpoints = (*checkpoint.Store)(nil)

// seriesRecorder is a store that also keeps time series.
type seriesRecorder interface {
	Observer(runID string) output.Observer
}

// Output collects where a manager writes results. Any field may be nil.
type Output struct {
	Sink        output.Sink
	Checkpoints Checkpoints
	Observers   []output.Observer
	// SolverType labels the run in the checkpoint store.
	SolverType string
}

// saveState writes the solution and scalar flux to the sink and, with a
// store, a checkpoint for runID.
func (o Output) saveState(ctx context.Context, s solver.Solver, runID string, k float64) error {
	if o.Sink != nil {
		if err := s.WriteSolution(o.Sink); err != nil {
			return err
		}
		if err := s.WriteScalarFlux(o.Sink); err != nil {
			return err
		}
	}
	if o.Checkpoints == nil {
		return nil
	}
	return o.Checkpoints.SaveCheckpoint(ctx, checkpoint.Checkpoint{
		RunID:    runID,
		K:        k,
		Solution: s.CopySolution(),
		CellFlux: append([]float64(nil), s.CellFlux()...),
	})
}

// withSeries adds the store's time series for runID to the observers when
// the store keeps series.
func (o Output) withSeries(runID string) Output {
	if sr, ok := o.Checkpoints.(seriesRecorder); ok {
		o.Observers = append(append([]output.Observer(nil), o.Observers...), sr.Observer(runID))
	}
	return o
}

func (o Output) observe(ctx context.Context, p output.Point) error {
	for _, obs := range o.Observers {
		if err := obs.Observe(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// newRun registers a run in the store, or makes a free-standing id.
func (o Output) newRun(ctx context.Context, s solver.Solver) (string, error) {
	if o.Checkpoints == nil {
		return newRunID(), nil
	}
	r, err := o.Checkpoints.NewRun(ctx, o.SolverType, s.NumDOFs())
	if err != nil {
		return "", err
	}
	return r.ID, nil
}
