package solver

import "github.com/notargets/gomoc/partitions"

// calcSource rebuilds the source array: external source, isotropic
// scattering from the current cell flux, fission and transient terms.
func (b *Base) calcSource() {
	Q, G := b.cells.NumAngles, b.cells.NumGroups
	subs := b.cells.NumSub
	ext := b.prob.ExternalSource

	// the scattering term reads cellFlux, so it is summed per cell before
	// anything is written
	b.cellShards.Run(func(p partitions.Partition) {
		scat := make([]float64, G*subs)
		for _, i := range p.Items {
			mat := b.prob.Material(i)
			for k := range scat {
				scat[k] = 0
			}
			for gp := 0; gp < G; gp++ {
				for sub := 0; sub < subs; sub++ {
					phi := b.subCellScalarFlux(i, gp, sub)
					for g := 0; g < G; g++ {
						scat[g*subs+sub] += phi * mat.SigmaS(gp+1, g+1)
					}
				}
			}
			for n := 0; n < Q; n++ {
				for g := 0; g < G; g++ {
					var base float64
					if b.hasExternal {
						base = ext.Value(i, n, g) * b.opts.SourceScaling
					}
					if b.opts.FissionSource {
						base += b.fission[i*G+g]
					}
					if b.transient != nil {
						base += b.transient[b.angles.Index(i, n, g, 0)]
					}
					for sub := 0; sub < subs; sub++ {
						b.source[b.cells.Index(i, n, g, sub)] = base + scat[g*subs+sub]
					}
				}
			}
		}
	})
}

// updateFissionSource evaluates chi_g * sum nuSigmaF * phi / k from the
// current scalar flux, with the transient fission scaling applied.
func (b *Base) updateFissionSource() {
	G := b.prob.NumGroups
	k := b.opts.CriticalEigenvalue
	b.cellShards.ForEach(func(i int) {
		mat := b.prob.Material(i)
		var production float64
		for gp := 0; gp < G; gp++ {
			production += mat.ScaledNuSigmaF(gp+1) * b.ScalarFlux(i, gp)
		}
		for g := 0; g < G; g++ {
			b.fission[i*G+g] = mat.Chi(g+1) * production / k
		}
	})
}
