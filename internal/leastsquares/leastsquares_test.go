package leastsquares

import (
	"math"
	"testing"

	"github.com/skywave-labs/tlefit/internal/statevec"
	"github.com/skywave-labs/tlefit/internal/tle"
)

const muEarthKm3S2 = 398600.4418

// twoBodyProp is an exact two-body Keplerian propagator over all six mean
// elements. Every equinoctial working parameter moves its output, so the
// normal equations Refine builds from it are not singular.
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

func TestRefineConvergesFromNearbyStart(t *testing.T) {
	truth := tle.Elements{MeanMotion: 0.06, MeanAnomaly: 0.4}
	prop := twoBodyProp{}

	step := 2.0
	w := Window{StepMinutes: step, States: make([]statevec.State, 5)}
	for j := range w.States {
		tsince := float64(j-len(w.States)/2) * step
		state, _ := prop.Propagate(tle.TLE{Elements: truth}, tsince)
		w.States[j] = state
	}

	start := tle.TLE{Elements: truth}
	start.MeanAnomaly += 0.001
	start.MeanMotion += 0.00002

	result, err := Refine(prop, start, w, Options{NParams: 6, Iterations: 8, Lambda0: 0, DampedIterations: 0})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if result.WorstResidKm > 1.0 {
		t.Errorf("worst residual = %.6f km, want < 1 km after refinement", result.WorstResidKm)
	}
}
