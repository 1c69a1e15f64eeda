package fitdriver

import (
	"fmt"
	"math"
	"testing"

	"github.com/skywave-labs/tlefit/internal/config"
	"github.com/skywave-labs/tlefit/internal/ephemeris"
	"github.com/skywave-labs/tlefit/internal/statevec"
	"github.com/skywave-labs/tlefit/internal/tle"
)

const muEarthKm3S2 = 398600.4418

// twoBodyProp is an exact two-body Keplerian propagator over all six
// mean elements, giving FitWindow a model with a closed-form optimum to
// converge toward. Every equinoctial working parameter moves its
// output, so the least-squares normal equations are not singular.
type twoBodyProp struct{}

func (twoBodyProp) Propagate(t tle.TLE, tSinceMin float64) (statevec.State, error) {
	n := t.MeanMotion // rad/min
	e := t.Eccentricity
	M := t.MeanAnomaly + n*tSinceMin
	E := M
	for i := 0; i < 50; i++ {
		E -= (E - e*math.Sin(E) - M) / (1 - e*math.Cos(E))
	}
	nu := 2 * math.Atan2(math.Sqrt(1+e)*math.Sin(E/2), math.Sqrt(1-e)*math.Cos(E/2))

	a := math.Cbrt(muEarthKm3S2 / (n * n / 3600))
	r := a * (1 - e*math.Cos(E))
	h := math.Sqrt(muEarthKm3S2 * a * (1 - e*e))
	vRadial := muEarthKm3S2 / h * e * math.Sin(nu)
	vTransverse := h / r

	sinO, cosO := math.Sincos(t.RAAN)
	sinI, cosI := math.Sincos(t.Inclination)
	sinU, cosU := math.Sincos(t.ArgPerigee + nu)
	radial := [3]float64{cosO*cosU - sinO*sinU*cosI, sinO*cosU + cosO*sinU*cosI, sinU * sinI}
	transverse := [3]float64{-cosO*sinU - sinO*cosU*cosI, -sinO*sinU + cosO*cosU*cosI, cosU * sinI}

	var posKm, velKmS [3]float64
	for i := 0; i < 3; i++ {
		posKm[i] = r * radial[i]
		velKmS[i] = vRadial*radial[i] + vTransverse*transverse[i]
	}
	return statevec.FromKm(posKm, velKmS), nil
}

func TestFitWindowConvergesOnSelfConsistentOrbit(t *testing.T) {
	truth := tle.Elements{MeanMotion: 0.06, MeanAnomaly: 0.4}
	prop := twoBodyProp{}

	step := 2.0
	lines := make([]ephemeris.DataLine, 5)
	for j := range lines {
		tsince := float64(j-len(lines)/2) * step
		state, _ := prop.Propagate(tle.TLE{Elements: truth}, tsince)
		lines[j] = ephemeris.DataLine{JDTDT: 2451545.0, JDUTC: 2451545.0, State: state}
	}
	window := ephemeris.Window{Lines: lines, StepMinutes: step}

	run := config.Defaults()
	run.Iterations = 8
	driver := New(prop, run, nil)

	result := driver.FitWindow(window, tle.Identifiers{NoradNumber: 12345})
	if result.Failed {
		t.Fatal("FitWindow reported failure on a self-consistent orbit")
	}
	if result.WorstResidKm > 1.0 {
		t.Errorf("worst residual = %.6f km, want < 1 km", result.WorstResidKm)
	}
	if driver.Stats.HistoCounts == ([10]int{}) {
		t.Error("expected Stats.HistoCounts to record this window")
	}
}

// failAfterProp wraps twoBodyProp but starts failing every call once a
// fixed number of successful calls have been made, simulating a solve
// that goes singular partway through a least-squares run rather than
// diverging during bootstrap or simplex.
type failAfterProp struct {
	failAfter int
	calls     int
}

func (p *failAfterProp) Propagate(t tle.TLE, tSinceMin float64) (statevec.State, error) {
	p.calls++
	if p.calls > p.failAfter {
		return statevec.State{}, fmt.Errorf("failAfterProp: forced failure at call %d", p.calls)
	}
	return twoBodyProp{}.Propagate(t, tSinceMin)
}

// TestFitWindowRetainsBestSoFarOnLeastSquaresFailure checks spec.md §7's
// SolveFailed contract: the current best-so-far TLE and its finite
// worst residual are retained, not replaced by a fresh, un-refined TLE
// with an infinite residual.
func TestFitWindowRetainsBestSoFarOnLeastSquaresFailure(t *testing.T) {
	truth := tle.Elements{MeanMotion: 0.06, MeanAnomaly: 0.4}
	step := 2.0
	lines := make([]ephemeris.DataLine, 5)
	for j := range lines {
		tsince := float64(j-len(lines)/2) * step
		state, _ := (twoBodyProp{}).Propagate(tle.TLE{Elements: truth}, tsince)
		lines[j] = ephemeris.DataLine{JDTDT: 2451545.0, JDUTC: 2451545.0, State: state}
	}
	window := ephemeris.Window{Lines: lines, StepMinutes: step}

	// 200 successful calls comfortably covers bootstrap (capped at 70
	// calls total) and the initial 7-vertex simplex construction (35
	// calls for a 5-state window, which also converges on the first
	// convergence check since the seed already matches truth), so the
	// forced failure lands inside leastsquares.Refine's iteration loop
	// rather than before it.
	prop := &failAfterProp{failAfter: 200}

	run := config.Defaults()
	run.Iterations = 8
	driver := New(prop, run, nil)

	result := driver.FitWindow(window, tle.Identifiers{NoradNumber: 12345})
	if result.Failed {
		t.Fatal("a least-squares solve failure should not set WindowResult.Failed")
	}
	if math.IsInf(result.WorstResidKm, 1) {
		t.Error("FitWindow discarded the best-so-far result on solve failure and reported an infinite residual")
	}
	if result.TLE.MeanMotion <= 0 {
		t.Error("expected a valid best-so-far TLE to be retained on solve failure")
	}
}
