// Package leastsquares implements the Levenberg–Marquardt refiner of
// spec.md §4.5: numerically differentiating the propagated position with
// respect to each working parameter, folding the resulting rows into a
// damped normal-equations solve, and iterating a fixed number of times.
// Grounded directly in vec2tle.cpp's per-iteration loop (slopes / state0 /
// lsquare_add_observation / lsquare_solve).
package leastsquares

import (
	"math"

	"github.com/skywave-labs/tlefit/internal/fiterrors"
	"github.com/skywave-labs/tlefit/internal/linalg"
	"github.com/skywave-labs/tlefit/internal/paramspace"
	"github.com/skywave-labs/tlefit/internal/propagator"
	"github.com/skywave-labs/tlefit/internal/statevec"
	"github.com/skywave-labs/tlefit/internal/tle"
)

// Options configures one least-squares run.
type Options struct {
	// NParams is 6 (equinoctial elements only) or 7 (elements + bstar).
	NParams int
	// HighPrecision selects the six raw state-vector components as the
	// working parameters instead of equinoctial elements, and uses the
	// original's coarser high-precision step sizes.
	HighPrecision bool
	// Iterations is the fixed number of Gauss-Newton passes to run
	// (vec2tle.cpp's n_iterations, default 15).
	Iterations int
	// Lambda0 is the initial Levenberg-Marquardt damping factor.
	Lambda0 float64
	// DampedIterations is the number of leading iterations that use
	// Lambda0; damping drops to zero from that iteration on, matching
	// the original's n_damped switch.
	DampedIterations int
}

// Window is the fixed input to a refinement run, identical in shape to
// simplex.Window: state vectors sampled at tⱼ relative to the fit epoch.
type Window struct {
	States      []statevec.State
	StepMinutes float64
}

func (w Window) sampleTime(j int) float64 {
	return float64(j-len(w.States)/2) * w.StepMinutes
}

// Result is the fitted TLE plus the worst per-window position residual
// seen on the iteration that produced it, in kilometers, mirroring
// vec2tle.cpp's this_worst_resid / worst_resid bookkeeping.
type Result struct {
	TLE          tle.TLE
	WorstResidKm float64
}

// stepSize returns the central-difference step for parameter index i,
// matching vec2tle.cpp: 1e-5 for the bstar slot (index 6), 1e-4
// otherwise; in high-precision mode, one meter for the three position
// components and 1e-4 m/s for the three velocity components.
func stepSize(i int, highPrecision bool) float64 {
	if highPrecision {
		if i >= 3 {
			return 1e-4
		}
		return 1.0
	}
	if i == 6 {
		return 1e-5
	}
	return 1e-4
}

func paramsToTLE(base tle.TLE, params paramspace.Params, nParams int, highPrecision bool) tle.TLE {
	out := base
	if highPrecision {
		out.High = paramspace.FromParamsHighPrecision(params)
		return out
	}
	el := paramspace.FromParams(params)
	if nParams >= 7 {
		el.BStar = params[6]
	} else {
		el.BStar = base.BStar
	}
	out.Elements = el
	return out
}

func tleToParams(t tle.TLE, nParams int, highPrecision bool) paramspace.Params {
	if highPrecision {
		return paramspace.ToParamsHighPrecision(t.High)
	}
	p := paramspace.ToParams(t.Elements)
	if nParams >= 7 {
		p[6] = t.BStar
	}
	return p
}

// Refine runs Options.Iterations Gauss-Newton passes starting from
// start, returning the TLE from whichever iteration produced the lowest
// worst-case position residual (vec2tle.cpp keeps "our best TLE yet"
// rather than simply the final iterate).
func Refine(prop propagator.Propagator, start tle.TLE, w Window, opts Options) (Result, error) {
	nParams := opts.NParams
	if nParams == 0 {
		nParams = 6
	}
	if opts.HighPrecision {
		nParams = 6
	}

	tleIter := start
	best := Result{TLE: start, WorstResidKm: math.Inf(1)}
	mjd := start.Epoch - 2400000.5

	for iter := 0; iter < opts.Iterations; iter++ {
		lambda := 0.0
		if iter < opts.DampedIterations {
			lambda = opts.Lambda0
		}

		params := tleToParams(tleIter, nParams, opts.HighPrecision)
		ws := linalg.Init(nParams)

		var thisWorstResid2 float64
		for j, want := range w.States {
			tsince := w.sampleTime(j)

			slopes := make([][3]float64, nParams)
			for i := 0; i < nParams; i++ {
				delta := stepSize(i, opts.HighPrecision)

				lo := params
				lo[i] -= delta
				stateLo, err := prop.Propagate(paramsToTLE(tleIter, lo, nParams, opts.HighPrecision), tsince)
				if err != nil {
					return best, &fiterrors.SolveFailed{Iteration: iter, ModifiedJulianDate: mjd}
				}

				hi := params
				hi[i] += delta
				stateHi, err := prop.Propagate(paramsToTLE(tleIter, hi, nParams, opts.HighPrecision), tsince)
				if err != nil {
					return best, &fiterrors.SolveFailed{Iteration: iter, ModifiedJulianDate: mjd}
				}

				for k := 0; k < 3; k++ {
					slopes[i][k] = (stateHi[k] - stateLo[k]) / (2 * delta)
				}
			}

			state0, err := prop.Propagate(paramsToTLE(tleIter, params, nParams, opts.HighPrecision), tsince)
			if err != nil {
				return best, &fiterrors.SolveFailed{Iteration: iter, ModifiedJulianDate: mjd}
			}

			var resid2 float64
			for i := 0; i < 3; i++ {
				residual := want[i] - state0[i]
				resid2 += residual * residual
				row := make([]float64, nParams)
				for pi := 0; pi < nParams; pi++ {
					row[pi] = slopes[pi][i]
				}
				if err := ws.AddObservation(residual, 1.0, row); err != nil {
					return best, &fiterrors.SolveFailed{Iteration: iter, ModifiedJulianDate: mjd}
				}
			}
			if resid2 > thisWorstResid2 {
				thisWorstResid2 = resid2
			}
		}

		deltas := make([]float64, nParams)
		if err := ws.Solve(lambda, deltas); err != nil {
			return best, &fiterrors.SolveFailed{Iteration: iter, ModifiedJulianDate: mjd}
		}
		for i := 0; i < nParams; i++ {
			params[i] += deltas[i]
		}
		tleIter = paramsToTLE(tleIter, params, nParams, opts.HighPrecision)

		thisWorstResidKm := math.Sqrt(thisWorstResid2) * statevec.AUKm
		if iter == 0 || thisWorstResidKm < best.WorstResidKm {
			best = Result{TLE: tleIter, WorstResidKm: thisWorstResidKm}
		}
	}

	return best, nil
}
