package manager

import (
	"math"

	"github.com/notargets/gomoc/solver"
	log "github.com/sirupsen/logrus"
)

// History is the state a Stepper sees between steps.
type History struct {
	Step   int
	Dt     float64
	DtPrev float64
	// Prev and PrevPrev are the solutions of the last two steps.
	Prev, PrevPrev []float64
	// Production and ProductionPrev are the normalized total productions
	// of the last two steps.
	Production, ProductionPrev float64
}

// push records the solution of a finished step.
func (h *History) push(s solver.Solver, production float64) {
	h.PrevPrev, h.Prev = h.Prev, s.CopySolution()
	h.ProductionPrev, h.Production = h.Production, production
	h.DtPrev = h.Dt
}

// Stepper controls the time step of a transient.
type Stepper interface {
	Name() string
	// Predict sets the initial guess of the coming step.
	Predict(s solver.Solver, h *History)
	// Recommend is the step size suggested by the step just solved.
	Recommend(s solver.Solver, h *History) float64
	// Next picks the step size to use from the recommendation.
	Next(h *History, recommended float64) float64
}

// UTS is a uniform time step.
type UTS struct{}

func (UTS) Name() string { return "uts" }

func (UTS) Predict(solver.Solver, *History) {}

func (UTS) Recommend(_ solver.Solver, h *History) float64 { return h.Dt }

func (UTS) Next(h *History, _ float64) float64 { return h.Dt }

// NDAdaptive adapts the step to a local truncation error estimate from
// the second time derivative of the solution.
type NDAdaptive struct {
	DtMin, DtMax float64
	// LTETol is the truncation error tolerance.
	LTETol float64
	// RelChange bounds the growth of dt per step.
	RelChange float64
	// Warmup is the number of steps run at the initial dt.
	Warmup int
}

// NewNDAdaptive returns the controller with dtMin 1e-5, dtMax 0.1, LTE
// tolerance 1e-4, 5% growth and a 10 step warmup.
func NewNDAdaptive() *NDAdaptive {
	return &NDAdaptive{DtMin: 1.0e-5, DtMax: 0.1, LTETol: 1.0e-4, RelChange: 0.05, Warmup: 10}
}

func (a *NDAdaptive) Name() string { return "ndadaptive" }

// Predict scales the solution by the last production ratio.
func (a *NDAdaptive) Predict(s solver.Solver, h *History) {
	if h.ProductionPrev <= 0 || h.Production <= 0 {
		return
	}
	s.ExtrapolateSolution(math.Log(h.Production/h.ProductionPrev), nil)
}

// Recommend is min over DOFs of sqrt(2 tol |psi / d2psi|), with d2psi the
// second time derivative.
func (a *NDAdaptive) Recommend(s solver.Solver, h *History) float64 {
	sol := s.Solution()
	rec := math.Inf(1)
	if h.Prev == nil || h.PrevPrev == nil || h.DtPrev <= 0 {
		return a.DtMax
	}
	dt, dtp := h.Dt, h.DtPrev
	for i, psi := range sol {
		// three point second derivative on a non-uniform grid
		d2 := 2 / (dt + dtp) * ((psi-h.Prev[i])/dt - (h.Prev[i]-h.PrevPrev[i])/dtp)
		if d2 == 0 {
			continue
		}
		r := math.Sqrt(2 * a.LTETol * math.Abs(psi/d2))
		if r < rec {
			rec = r
		}
	}
	if math.IsInf(rec, 1) {
		return a.DtMax
	}
	return rec
}

// Next limits growth to RelChange, clamps to [DtMin, DtMax] and keeps
// the current dt during the warmup.
func (a *NDAdaptive) Next(h *History, recommended float64) float64 {
	next := recommended
	if rel := (next - h.Dt) / h.Dt; rel > a.RelChange {
		next = h.Dt * (1 + a.RelChange)
	}
	next = math.Min(math.Max(next, a.DtMin), a.DtMax)
	if h.Step <= a.Warmup {
		return h.Dt
	}
	if next != h.Dt {
		log.WithFields(log.Fields{"step": h.Step, "dt": h.Dt, "next": next}).Debug("time step changed")
	}
	return next
}
