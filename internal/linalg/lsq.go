// Package linalg implements the scoped least-squares workspace of
// spec.md §6/§9: init/add_observation/solve, plus a damping scalar read
// at solve time, passed explicitly rather than through a process-wide
// global. Built on github.com/gonum/matrix/mat64, the exact linear-
// algebra package the teacher uses throughout (orbit.go's PQW2ECI,
// rotation.go, estimate.go's STM algebra).
package linalg

import (
	"fmt"

	"github.com/gonum/matrix/mat64"
)

// Workspace accumulates weighted observations (residual, weight,
// partial-derivative row) and solves the corresponding damped normal
// equations for a correction vector. It owns exactly one set of
// mat64.Dense buffers, sized at Init and released by the caller
// discarding the value; there is no pooling or package-level state, so
// concurrent windows never share a Workspace (spec.md §5).
type Workspace struct {
	nParams int
	ata     *mat64.Dense // AᵀA, accumulated
	atb     *mat64.Dense // Aᵀb, accumulated (as a column)
}

// Init allocates a workspace sized for nParams unknowns.
func Init(nParams int) *Workspace {
	return &Workspace{
		nParams: nParams,
		ata:     mat64.NewDense(nParams, nParams, nil),
		atb:     mat64.NewDense(nParams, 1, nil),
	}
}

// AddObservation folds one scalar observation (its residual, weight, and
// the row of partial derivatives ∂residual/∂paramᵢ) into the normal
// equations: AᵀA += w·rowᵀ·row, Aᵀb += w·rowᵀ·residual.
func (w *Workspace) AddObservation(residual, weight float64, partials []float64) error {
	if len(partials) != w.nParams {
		return fmt.Errorf("linalg: expected %d partials, got %d", w.nParams, len(partials))
	}
	for i := 0; i < w.nParams; i++ {
		w.atb.Set(i, 0, w.atb.At(i, 0)+weight*partials[i]*residual)
		for j := 0; j < w.nParams; j++ {
			w.ata.Set(i, j, w.ata.At(i, j)+weight*partials[i]*partials[j])
		}
	}
	return nil
}

// Solve solves the damped normal equations (AᵀA + λ·diag(AᵀA))·Δ = Aᵀb
// for the correction vector Δ, using Marquardt's scaling of the damping
// term by the diagonal of AᵀA. lambda is an explicit scalar (spec.md's
// design note: no implicit global). Returns an error, mirroring
// SolveFailed, if the damped system is singular.
func (w *Workspace) Solve(lambda float64, outDeltas []float64) error {
	if len(outDeltas) != w.nParams {
		return fmt.Errorf("linalg: expected output length %d, got %d", w.nParams, len(outDeltas))
	}
	damped := mat64.NewDense(w.nParams, w.nParams, nil)
	damped.Clone(w.ata)
	for i := 0; i < w.nParams; i++ {
		damped.Set(i, i, damped.At(i, i)*(1+lambda))
	}

	var soln mat64.Dense
	if err := soln.Solve(damped, w.atb); err != nil {
		return fmt.Errorf("linalg: singular normal-equations system: %w", err)
	}
	for i := 0; i < w.nParams; i++ {
		outDeltas[i] = soln.At(i, 0)
	}
	return nil
}
