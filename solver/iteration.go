package solver

import (
	"context"

	"github.com/notargets/gomoc/dof"
	"github.com/notargets/gomoc/integrator"
	"github.com/notargets/gomoc/partitions"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Solve runs fission iterations around scatter iterations until both
// converge or hit Options.MaxIters. Non-convergence is reported, not
// returned as an error.
func (b *Base) Solve(ctx context.Context) Report {
	ctx, span := b.tracer.Start(ctx, "solver.Solve")
	defer span.End()

	var (
		rep      Report
		fissSnap []float64
		norm     = 1.0e10
	)
	fallbacks := integrator.FallbackCount()

	for outer := 0; outer < b.opts.MaxIters; outer++ {
		rep.OuterIters = outer + 1
		if b.opts.FissionSource {
			fissSnap = b.CopySolution()
			b.updateFissionSource()
		} else {
			fissSnap = b.solution
		}

		innerConverged := false
		var inner int
		for inner = 0; inner < b.opts.MaxIters; inner++ {
			norm = b.scatterIteration(ctx, inner)
			rep.InnerIters++
			rep.InnerNorms = append(rep.InnerNorms, norm)
			if norm < b.opts.Tolerance {
				innerConverged = true
				break
			}
		}
		log.WithFields(log.Fields{
			"iter": inner,
			"err":  norm,
			"tol":  b.opts.Tolerance,
		}).Info("scatter")

		norm = b.RInfNorm(fissSnap)
		if b.opts.FissionSource {
			log.WithFields(log.Fields{
				"iter": outer,
				"err":  norm,
				"tol":  b.opts.Tolerance,
			}).Info("fission")
		}
		if norm < b.opts.Tolerance {
			rep.Converged = innerConverged
			break
		}
	}

	span.SetAttributes(
		attribute.Int("inner", rep.InnerIters),
		attribute.Int("outer", rep.OuterIters),
		attribute.Bool("converged", rep.Converged),
	)
	if !rep.Converged {
		log.WithFields(log.Fields{
			"inner": rep.InnerIters,
			"outer": rep.OuterIters,
			"err":   norm,
		}).Warn("transport iteration did not converge")
	}
	if n := integrator.FallbackCount() - fallbacks; n > 0 {
		log.WithField("cells", n).Info("zero-order fallback used")
	}
	return rep
}

func (b *Base) scatterIteration(ctx context.Context, iter int) float64 {
	_, span := b.tracer.Start(ctx, "solver.scatter", trace.WithAttributes(attribute.Int("iter", iter)))
	defer span.End()

	copy(b.solutionPrev, b.solution)
	b.calcSource()
	bdry := b.scheme.applyBoundary()
	b.sweepAll(bdry)
	norm := b.RInfNorm(b.solutionPrev)
	log.WithFields(log.Fields{"iter": iter, "err": norm}).Debug("scatter iteration")
	return norm
}

// sweepAll sweeps every ordinate; ordinates run in parallel, each one
// sequentially in sweep order.
func (b *Base) sweepAll(bdry dof.Values) {
	b.directions.Run(func(p partitions.Partition) {
		for _, n := range p.Items {
			b.scheme.sweep(n, bdry)
		}
	})
}
