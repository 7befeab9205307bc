package manager

import (
	"context"
	"fmt"
	"math"

	"github.com/notargets/gomoc/material"
	"github.com/notargets/gomoc/output"
	"github.com/notargets/gomoc/solver"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// betaCutoff is the delayed fraction below which a precursor group is
// ignored.
const betaCutoff = 1.0e-10

// TransientOptions configures a Transient.
type TransientOptions struct {
	MaxTime float64
	Dt      float64
	// InitialCondition is "zero" or the run id of a stored checkpoint.
	InitialCondition string
	// K is the critical eigenvalue; a checkpoint initial condition
	// replaces it with the stored one.
	K float64
}

// Transient marches the solver in time with implicit Euler steps,
// tracking delayed neutron precursors per cell.
type Transient struct {
	Solver  solver.Solver
	Stepper Stepper
	Output  Output
	Options TransientOptions

	// RunID is set by Run.
	RunID string

	k          float64
	precursors [][]float64 // per cell, per delayed group
	history    History
}

// Summary describes a finished transient.
type Summary struct {
	Steps      int
	Time       float64
	Production float64
	// Unconverged counts steps whose solve hit the iteration limit.
	Unconverged int
}

func NewTransient(s solver.Solver, st Stepper, out Output, opts TransientOptions) (*Transient, error) {
	if opts.MaxTime <= 0 || opts.Dt <= 0 {
		return nil, fmt.Errorf("transient needs positive maxTime and dt, got %g and %g", opts.MaxTime, opts.Dt)
	}
	if st == nil {
		st = UTS{}
	}
	if opts.K <= 0 {
		opts.K = 1
	}
	return &Transient{Solver: s, Stepper: st, Output: out, Options: opts, k: opts.K}, nil
}

// initialize loads the initial condition and sets the solver up for
// time stepping.
func (tr *Transient) initialize(ctx context.Context) error {
	s := tr.Solver
	switch ic := tr.Options.InitialCondition; ic {
	case "", "zero":
		s.ZeroSolution()
		if err := s.SetCellFlux(make([]float64, len(s.CellFlux()))); err != nil {
			return err
		}
	default:
		if tr.Output.Checkpoints == nil {
			return fmt.Errorf("initial condition %q needs a checkpoint store", ic)
		}
		c, err := tr.Output.Checkpoints.LoadCheckpoint(ctx, ic)
		if err != nil {
			return fmt.Errorf("initial condition: %w", err)
		}
		if len(c.Solution) != s.NumDOFs() || len(c.CellFlux) != len(s.CellFlux()) {
			log.WithFields(log.Fields{"run": ic, "dofs": len(c.Solution), "want": s.NumDOFs()}).
				Error("initial condition does not fit the solver")
			return fmt.Errorf("%w: run %s has %d, solver has %d", ErrDOFMismatch, ic, len(c.Solution), s.NumDOFs())
		}
		if c.K > 0 {
			tr.k = c.K
		}
		if err := s.SetSolution(c.Solution); err != nil {
			return err
		}
		if err := s.SetCellFlux(c.CellFlux); err != nil {
			return err
		}
		s.NormalizeSolution(tr.k)
		log.WithFields(log.Fields{"run": ic, "k": tr.k}).Info("initial condition loaded")
	}

	if s.Problem().ExternalSource != nil {
		log.Warn("fixed source in input is ignored by the transient")
	}
	s.SetExternalSource(false)
	s.SetFissionSource(true)
	// the 1/k factor rides on the material fission scaling
	s.SetCriticalEigenvalue(1)

	tr.equilibriumPrecursors()
	return nil
}

func (tr *Transient) materials() []*material.Material {
	return tr.Solver.Problem().Materials.All()
}

func (tr *Transient) equilibriumPrecursors() {
	p := tr.Solver.Problem()
	K := p.Mesh.NumElements()
	tr.precursors = make([][]float64, K)
	for i := 0; i < K; i++ {
		mat := p.Material(i)
		rate := tr.Solver.NeutronProduction(i) / tr.k
		c := make([]float64, mat.NumDelayedGroups())
		for d := range c {
			if beta := mat.Beta(d + 1); beta >= betaCutoff {
				c[d] = beta / mat.Lambda(d+1) * rate
			}
		}
		tr.precursors[i] = c
	}
}

func (tr *Transient) updatePrecursors(dt float64) {
	p := tr.Solver.Problem()
	for i, c := range tr.precursors {
		mat := p.Material(i)
		rate := tr.Solver.NeutronProduction(i) / tr.k
		for d := range c {
			beta, lambda := mat.Beta(d+1), mat.Lambda(d+1)
			if beta > betaCutoff {
				c[d] = (c[d] + dt*beta*rate) / (1 + dt*lambda)
			}
		}
	}
}

// modifyMaterials sets the implicit Euler absorption adder and the prompt
// plus delayed fission scaling for step size dt.
func (tr *Transient) modifyMaterials(dt float64) {
	for _, mat := range tr.materials() {
		var delayed float64
		for d := 1; d <= mat.NumDelayedGroups(); d++ {
			beta, lambda := mat.Beta(d), mat.Lambda(d)
			if beta < betaCutoff {
				break
			}
			delayed += dt * lambda * beta / (1 + dt*lambda)
		}
		for g := 1; g <= mat.NumGroups; g++ {
			mat.SetSigmaTAdder(g, 1/(dt*mat.Speed(g)))
		}
		mat.SetNuSigmaFScaling((1 - mat.BetaEff() + delayed) / tr.k)
	}
}

// transientSource is chi_g * sum_j lambda_j/(1+dt lambda_j) C_j / 4pi
// plus psi / (dt v_g), per cell, ordinate and group.
func (tr *Transient) transientSource(dt float64) []float64 {
	s := tr.Solver
	p := s.Problem()
	layout := s.AngularLayout()
	src := make([]float64, layout.Size())
	Q := p.Quadrature.NumAngles()
	for i, c := range tr.precursors {
		mat := p.Material(i)
		var delayed float64
		for d := range c {
			lambda := mat.Lambda(d + 1)
			if mat.Beta(d+1) > betaCutoff {
				delayed += lambda / (1 + dt*lambda) * c[d]
			}
		}
		delayed /= 4 * math.Pi
		for g := 0; g < p.NumGroups; g++ {
			chi, v := mat.Chi(g+1), mat.Speed(g+1)
			for n := 0; n < Q; n++ {
				src[layout.Index(i, n, g, 0)] = chi*delayed + s.CellAngularFlux(i, n, g)/(dt*v)
			}
		}
	}
	return src
}

// production is the total neutron production divided by k.
func (tr *Transient) production() float64 {
	return tr.Solver.TotalNeutronProduction() / tr.k
}

// Run marches from t = 0 to MaxTime. Material transient modifications
// are cleared on return.
func (tr *Transient) Run(ctx context.Context) (Summary, error) {
	ctx, span := tracer.Start(ctx, "manager.Transient")
	defer span.End()

	var err error
	if tr.RunID, err = tr.Output.newRun(ctx, tr.Solver); err != nil {
		return Summary{}, fmt.Errorf("register run: %w", err)
	}
	if err := tr.initialize(ctx); err != nil {
		return Summary{}, err
	}
	out := tr.Output.withSeries(tr.RunID)
	defer func() {
		for _, mat := range tr.materials() {
			mat.ResetTransient()
		}
		_ = tr.Solver.SetTransientSource(nil)
	}()
	span.SetAttributes(attribute.String("run", tr.RunID), attribute.String("stepper", tr.Stepper.Name()))

	sum := Summary{Production: tr.production()}
	h := &tr.history
	*h = History{Dt: tr.Options.Dt}
	h.push(tr.Solver, sum.Production)
	if err := out.observe(ctx, output.Point{T: 0, Value: sum.Production, Dt: h.Dt}); err != nil {
		return sum, err
	}

	const timeTolerance = 1.0e-12
	t, tMax := 0.0, tr.Options.MaxTime
	for t < tMax*(1-timeTolerance) {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		dt := math.Min(h.Dt, tMax-t)
		h.Dt = dt
		t += dt

		stepCtx, step := tracer.Start(ctx, "manager.step")
		tr.modifyMaterials(dt)
		if err := tr.Solver.SetTransientSource(tr.transientSource(dt)); err != nil {
			step.End()
			return sum, err
		}
		tr.Stepper.Predict(tr.Solver, h)
		rep := tr.Solver.Solve(stepCtx)
		if !rep.Converged {
			sum.Unconverged++
		}
		tr.updatePrecursors(dt)
		rec := tr.Stepper.Recommend(tr.Solver, h)

		sum.Steps++
		h.Step = sum.Steps
		sum.Production = tr.production()
		sum.Time = t
		h.push(tr.Solver, sum.Production)
		step.SetAttributes(attribute.Float64("t", t), attribute.Float64("dt", dt), attribute.Float64("power", sum.Production))
		step.End()

		log.WithFields(log.Fields{"step": sum.Steps, "t": t, "dt": dt, "power": sum.Production}).Info("transient step")
		if err := out.observe(ctx, output.Point{Step: sum.Steps, T: t, Value: sum.Production, Dt: rec}); err != nil {
			return sum, err
		}
		h.Dt = tr.Stepper.Next(h, rec)
	}

	if err := tr.Output.saveState(ctx, tr.Solver, tr.RunID, tr.k); err != nil {
		return sum, fmt.Errorf("save state: %w", err)
	}
	return sum, nil
}
