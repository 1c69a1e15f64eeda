// Package fitdriver implements the fit driver (D) of spec.md §4.6: for
// each contiguous window of input state vectors, running the bootstrap,
// simplex, and least-squares refiners in sequence and accumulating
// run-wide diagnostics, exactly as vec2tle.cpp's main loop does.
package fitdriver

import (
	kitlog "github.com/go-kit/kit/log"

	"github.com/skywave-labs/tlefit/internal/bootstrap"
	"github.com/skywave-labs/tlefit/internal/config"
	"github.com/skywave-labs/tlefit/internal/ephemeris"
	"github.com/skywave-labs/tlefit/internal/fiterrors"
	"github.com/skywave-labs/tlefit/internal/leastsquares"
	"github.com/skywave-labs/tlefit/internal/obslog"
	"github.com/skywave-labs/tlefit/internal/paramspace"
	"github.com/skywave-labs/tlefit/internal/propagator"
	"github.com/skywave-labs/tlefit/internal/simplex"
	"github.com/skywave-labs/tlefit/internal/tle"
)

// histoDivs mirrors ephemeris.histoDivs; kept as an independent copy
// since Stats is the driver's own accumulator, not the file writer's.
var histoDivs = [10]int{1, 3, 10, 30, 100, 300, 1000, 3000, 10000, 30000}

// Stats accumulates run-wide diagnostics across every window processed,
// per spec.md §4.6 step 5.
type Stats struct {
	WorstResidKm float64
	WorstMJD     float64
	HistoCounts  [10]int
}

func (s *Stats) record(worstResidKm, mjd float64) {
	if worstResidKm > s.WorstResidKm {
		s.WorstResidKm = worstResidKm
		s.WorstMJD = mjd
	}
	idx := 0
	for idx < len(histoDivs)-1 && worstResidKm > float64(histoDivs[idx]) {
		idx++
	}
	s.HistoCounts[idx]++
}

// WindowResult is what FitWindow returns for one window: the best TLE
// found (zero value if the bootstrap never converged), its worst
// residual in kilometers, and whether it failed outright.
type WindowResult struct {
	TLE          tle.TLE
	WorstResidKm float64
	Failed       bool
}

// Driver orchestrates the B → S → L pipeline over successive windows.
// It carries no state between windows beyond the running Stats, matching
// spec.md §5's "no shared mutable state across windows except the
// driver-owned running statistics."
type Driver struct {
	Prop   propagator.Propagator
	Run    config.Run
	Logger kitlog.Logger
	Stats  Stats
}

// New builds a driver reading identity, precision, and iteration
// switches from run.
func New(prop propagator.Propagator, run config.Run, logger kitlog.Logger) *Driver {
	if logger == nil {
		logger = obslog.New("tlefit")
	}
	return &Driver{Prop: prop, Run: run, Logger: logger}
}

// FitWindow runs the bootstrap, simplex, and least-squares refiners over
// one window, in the order spec.md §4.6 step 4 mandates, and folds the
// window's worst residual into the driver's running Stats.
func (d *Driver) FitWindow(w ephemeris.Window, ids tle.Identifiers) WindowResult {
	log := obslog.Window(d.Logger, 0)
	states := w.States()
	centralIdx := len(states) / 2
	centralEpoch := w.CentralEpochJDUTC()

	if d.Run.HighPrecision {
		t := tle.TLE{
			Identifiers: ids,
			Epoch:       centralEpoch,
			Type:        tle.HighPrecision,
		}
		posM, velMS := auToMeters(states[centralIdx])
		t.High = tle.HighPrecisionState{PositionM: posM, VelocityM: velMS}
		d.Stats.record(0, centralEpoch-2400000.5)
		return WindowResult{TLE: t, WorstResidKm: 0}
	}

	bootOpts := bootstrap.Options{AdjustToApogee: d.Run.AdjustToApogee}
	bootResult := bootstrap.Run(d.Prop, states[centralIdx], centralEpoch, bootOpts)
	if bootResult.Diverged {
		err := &fiterrors.BootstrapDiverged{Iterations: bootstrap.MaxIterations}
		log.Log("event", "bootstrap_diverged", "err", err)
		return WindowResult{Failed: true}
	}

	seed := bootResult.TLE
	seed.Identifiers = ids
	if d.Run.ForceSGP4 {
		seed.Type = tle.SGP4
	}

	ephemModel := propagator.SelectEphemeris(seed)
	if seed.Type == tle.SGP4 {
		ephemModel = 0
	}
	log.Log("event", "ephemeris_selected", "model", ephemModel)

	stepMinutes := w.StepMinutes
	p0 := paramspace.ToParams(seed.Elements)
	simplexWindow := simplex.Window{States: states, StepMinutes: stepMinutes}
	toTLE := func(p paramspace.Params) tle.TLE {
		out := seed
		out.Elements = paramspace.FromParams(p)
		out.BStar = seed.BStar
		return out
	}
	refinedParams := simplex.Refine(d.Prop, toTLE, p0, simplexWindow)
	refined := toTLE(refinedParams)

	lsqOpts := leastsquares.Options{
		NParams:          d.Run.ParamCount,
		Iterations:       d.Run.Iterations,
		Lambda0:          d.Run.Lambda0,
		DampedIterations: d.Run.DampedIterations,
	}
	lsqWindow := leastsquares.Window{States: states, StepMinutes: stepMinutes}
	result, err := leastsquares.Refine(d.Prop, refined, lsqWindow, lsqOpts)
	if err != nil {
		// Refine already returns the best-so-far TLE and its finite
		// worst residual alongside the error; retain it rather than
		// discarding the completed iterations.
		log.Log("event", "solve_failed", "err", err)
	}

	mjd := centralEpoch - 2400000.5
	d.Stats.record(result.WorstResidKm, mjd)
	return WindowResult{TLE: result.TLE, WorstResidKm: result.WorstResidKm}
}

func auToMeters(s [6]float64) (pos, vel [3]float64) {
	const auInMeters = 1.495978707e11
	for i := 0; i < 3; i++ {
		pos[i] = s[i] * auInMeters
		vel[i] = s[i+3] * auInMeters / 86400.0
	}
	return
}
