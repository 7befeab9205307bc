package manager

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/notargets/gomoc/solver"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

func newRunID() string { return uuid.NewString() }

// FixedSource solves a problem driven by an external or boundary source.
type FixedSource struct {
	Solver solver.Solver
	Output Output

	// RunID is set by Run.
	RunID string
}

func NewFixedSource(s solver.Solver, out Output) *FixedSource {
	return &FixedSource{Solver: s, Output: out}
}

func hasFixedSource(s solver.Solver) bool {
	p := s.Problem()
	if p.ExternalSource != nil {
		return true
	}
	for _, b := range p.BoundarySources {
		if b.Value > 0 {
			return true
		}
	}
	return false
}

// Run solves once and saves the state.
func (f *FixedSource) Run(ctx context.Context) (solver.Report, error) {
	if !hasFixedSource(f.Solver) {
		log.Error("fixed source run without a fixed source")
		return solver.Report{}, ErrNoFixedSource
	}
	ctx, span := tracer.Start(ctx, "manager.FixedSource")
	defer span.End()

	var err error
	if f.RunID, err = f.Output.newRun(ctx, f.Solver); err != nil {
		return solver.Report{}, fmt.Errorf("register run: %w", err)
	}
	span.SetAttributes(attribute.String("run", f.RunID))

	f.Solver.SetExternalSource(true)
	rep := f.Solver.Solve(ctx)
	log.WithFields(log.Fields{
		"run":       f.RunID,
		"inner":     rep.InnerIters,
		"converged": rep.Converged,
	}).Info("fixed source solved")

	k := f.Solver.Options().CriticalEigenvalue
	if err := f.Output.saveState(ctx, f.Solver, f.RunID, k); err != nil {
		return rep, fmt.Errorf("save state: %w", err)
	}
	return rep, nil
}
