package solver

import (
	"fmt"
	"math"

	"github.com/notargets/gomoc/output"
	"gonum.org/v1/gonum/floats"
)

// L2Norm is the Euclidean distance between the solution and other.
func (b *Base) L2Norm(other []float64) float64 {
	return floats.Distance(b.solution, other, 2)
}

// LInfNorm is the largest absolute difference to other.
func (b *Base) LInfNorm(other []float64) float64 {
	return floats.Distance(b.solution, other, math.Inf(1))
}

// RInfNorm is the largest relative difference to other over the positive
// entries of the solution.
func (b *Base) RInfNorm(other []float64) float64 {
	return rInf(b.solution, other)
}

func rInf(sol, other []float64) float64 {
	var maxDiff float64
	for i, v := range sol {
		if v > 0 {
			maxDiff = math.Max(maxDiff, math.Abs((v-other[i])/v))
		}
	}
	return maxDiff
}

// SetReference stores a reference solution for L2Error and RInfError.
func (b *Base) SetReference(ref []float64) error {
	if len(ref) != len(b.reference) {
		return fmt.Errorf("reference has %d values, want %d", len(ref), len(b.reference))
	}
	copy(b.reference, ref)
	return nil
}

// L2Error is L2Norm against the reference solution.
func (b *Base) L2Error() float64 { return b.L2Norm(b.reference) }

// RInfError is RInfNorm against the reference solution.
func (b *Base) RInfError() float64 { return b.RInfNorm(b.reference) }

// SetSolution overwrites the solution vector.
func (b *Base) SetSolution(solution []float64) error {
	if len(solution) != len(b.solution) {
		return fmt.Errorf("solution has %d values, want %d", len(solution), len(b.solution))
	}
	copy(b.solution, solution)
	return nil
}

// CellFlux is the live cell flux vector.
func (b *Base) CellFlux() []float64 { return b.cellFlux }

// SetCellFlux copies flux into the cell flux vector.
func (b *Base) SetCellFlux(flux []float64) error {
	if len(flux) != len(b.cellFlux) {
		return fmt.Errorf("cell flux has %d values, want %d", len(flux), len(b.cellFlux))
	}
	copy(b.cellFlux, flux)
	return nil
}

// CopySolution returns a copy of the solution vector.
func (b *Base) CopySolution() []float64 {
	return append([]float64(nil), b.solution...)
}

// ZeroSolution clears the solution vector.
func (b *Base) ZeroSolution() {
	for i := range b.solution {
		b.solution[i] = 0
	}
}

// NormalizeSolution scales the solution and cell flux so that the total
// neutron production equals totalProduction.
func (b *Base) NormalizeSolution(totalProduction float64) {
	current := b.TotalNeutronProduction()
	if current == 0 {
		return
	}
	norm := totalProduction / current
	floats.Scale(norm, b.solution)
	floats.Scale(norm, b.cellFlux)
}

// ExtrapolateSolution sets the solution to base*exp(factor), or scales the
// current solution when base is nil.
func (b *Base) ExtrapolateSolution(factor float64, base []float64) {
	if base == nil {
		base = b.solution
	}
	floats.ScaleTo(b.solution, math.Exp(factor), base)
}

// NeutronProduction is sum_g nuSigmaF(g) * phi(cell, g) * 4pi.
func (b *Base) NeutronProduction(cell int) float64 {
	mat := b.prob.Material(cell)
	var rate float64
	for g := 0; g < b.prob.NumGroups; g++ {
		rate += mat.NuSigmaF(g+1) * b.ScalarFlux(cell, g) * 4 * math.Pi
	}
	return rate
}

// TotalNeutronProduction is the volume integral of NeutronProduction.
func (b *Base) TotalNeutronProduction() float64 {
	var total float64
	for i := 0; i < b.mesh.NumElements(); i++ {
		total += b.NeutronProduction(i) * b.mesh.Volume(i)
	}
	return total
}

// WriteSolution hands the DOF count and solution vector to sink.
func (b *Base) WriteSolution(sink output.Sink) error {
	if err := sink.WriteData("numDOFs", []float64{float64(len(b.solution))}); err != nil {
		return err
	}
	return sink.WriteData("solution", b.solution)
}

// WriteScalarFlux writes one scalarFlux_<g> array per group, g 1-based.
func (b *Base) WriteScalarFlux(sink output.Sink) error {
	K := b.mesh.NumElements()
	for g := 0; g < b.prob.NumGroups; g++ {
		phi := make([]float64, K)
		for i := range phi {
			phi[i] = b.ScalarFlux(i, g)
		}
		if err := sink.WriteData(fmt.Sprintf("scalarFlux_%d", g+1), phi); err != nil {
			return err
		}
	}
	return nil
}
