// Package bootstrap implements the single-vector fixed-point iteration
// of spec.md §4.3: converting one state vector into an approximate TLE
// by iterating the Keplerian-to-TLE mapping against the propagator
// until it reproduces the input state at epoch.
package bootstrap

import (
	"math"

	"github.com/skywave-labs/tlefit/internal/keplerian"
	"github.com/skywave-labs/tlefit/internal/propagator"
	"github.com/skywave-labs/tlefit/internal/statevec"
	"github.com/skywave-labs/tlefit/internal/tle"
)

const (
	// MaxIterations is exported for fitdriver to report in
	// fiterrors.BootstrapDiverged when this cap is hit without
	// convergence.
	MaxIterations              = 70
	maxIterationsNoImprovement = 5
	maxAcceptedDeltaSquared    = 0.2
	minutesPerDay              = 1440.0
)

// Options configures optional bootstrap behavior.
type Options struct {
	// AdjustToApogee shifts the candidate's epoch so the mean anomaly
	// becomes π before every propagate-back-to-epoch step, per spec.md
	// §4.3 step 3.
	AdjustToApogee bool
}

// Result is the bootstrap's output: the best TLE found and whether the
// iteration ever produced a usable candidate.
type Result struct {
	TLE      tle.TLE
	Diverged bool
}

// Run executes the algorithm of spec.md §4.3: iterate the Keplerian
// solver against prop, correcting the trial state vector by the
// propagate-at-epoch residual, retaining the best TLE seen from
// iteration 4 onward, and stopping after five consecutive
// non-improving successful iterations or 70 total.
func Run(prop propagator.Propagator, v statevec.State, epochJD float64, opts Options) Result {
	trial := v
	damping := 1.0
	bestDelta := math.Inf(1)
	var best tle.TLE
	noImprove := 0

	for iter := 1; iter <= MaxIterations && noImprove < maxIterationsNoImprovement; iter++ {
		candidate, err := keplerian.StateToTLE(trial, epochJD)
		if err != nil {
			trial = v
			damping *= 0.9
			continue
		}

		if opts.AdjustToApogee {
			applyApogeeAdjustment(&candidate)
		}

		tsince := (epochJD - candidate.Epoch) * minutesPerDay
		vOut, err := prop.Propagate(candidate, tsince)
		if err != nil {
			trial = v
			damping *= 0.9
			continue
		}

		delta := vOut.Sub(v)
		deltaSq := delta.SquaredNorm()

		scale := 1.0
		if deltaSq > maxAcceptedDeltaSquared {
			scale = math.Sqrt(maxAcceptedDeltaSquared / deltaSq)
		}
		trial = trial.Sub(delta.Scale(scale * damping))

		if iter >= 4 && bestDelta > deltaSq {
			bestDelta = deltaSq
			best = candidate
			noImprove = 0
		} else {
			noImprove++
		}
	}

	return Result{TLE: best, Diverged: math.IsInf(bestDelta, 1)}
}

// applyApogeeAdjustment places the candidate TLE at apogee: mean anomaly
// π, epoch shifted forward or backward by the time-to-apogee implied by
// the candidate's own mean motion.
func applyApogeeAdjustment(t *tle.TLE) {
	if t.MeanAnomaly > math.Pi {
		t.MeanAnomaly -= 2 * math.Pi
	}
	periodFraction := t.MeanMotion * minutesPerDay
	if t.MeanAnomaly > 0 {
		t.Epoch += (math.Pi - t.MeanAnomaly) / periodFraction
	} else {
		t.Epoch -= (math.Pi + t.MeanAnomaly) / periodFraction
	}
	t.MeanAnomaly = math.Pi
}
