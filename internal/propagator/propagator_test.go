package propagator

import (
	"math"
	"testing"

	"github.com/skywave-labs/tlefit/internal/statevec"
	"github.com/skywave-labs/tlefit/internal/tle"
)

func TestSelectEphemerisNearEarthVsDeepSpace(t *testing.T) {
	leo := tle.TLE{Elements: tle.Elements{MeanMotion: 2 * math.Pi / 95, Eccentricity: 0.001}} // ~95 min period
	if got := SelectEphemeris(leo); got != 0 {
		t.Errorf("near-Earth orbit selected model %d, want 0", got)
	}

	geo := tle.TLE{Elements: tle.Elements{MeanMotion: 2 * math.Pi / 1436, Eccentricity: 0.0001}} // ~24h period
	if got := SelectEphemeris(geo); got != 1 {
		t.Errorf("deep-space orbit selected model %d, want 1", got)
	}
}

func TestHighPrecisionPropagateRejectsWrongType(t *testing.T) {
	t2 := tle.TLE{Type: tle.SGP4}
	if _, err := (HighPrecision{}).Propagate(t2, 0); err == nil {
		t.Fatal("expected error when Type != HighPrecision")
	}
}

// TestAdapterPropagateRoundTripsThroughGoSatellite exercises the real
// external collaborator, not a fake: it drives a TLE through
// tleio.Format exactly as Adapter.Propagate does, then through
// go-satellite's own TLEToSat/Propagate. A misaligned fixed-column field
// (see DESIGN.md) makes go-satellite's parser panic on a malformed
// float, which this test would catch since it never substitutes a test
// double for that leg of the call.
func TestAdapterPropagateRoundTripsThroughGoSatellite(t *testing.T) {
	leo := tle.TLE{
		Elements: tle.Elements{
			Inclination:  51.6 * math.Pi / 180,
			RAAN:         247.4 * math.Pi / 180,
			Eccentricity: 0.0006703,
			ArgPerigee:   130.5 * math.Pi / 180,
			MeanAnomaly:  325.0 * math.Pi / 180,
			MeanMotion:   2 * math.Pi / 92.68, // ~92.68 min period, in rad/min
			BStar:        0.000021,
		},
		Epoch: 2451545.0,
		Identifiers: tle.Identifiers{
			NoradNumber:    25544,
			IntlDesignator: "98067A",
			Classification: 'U',
		},
		Type: tle.SGP4,
	}

	adapter := Adapter{}
	state, err := adapter.Propagate(leo, 0)
	if err != nil {
		t.Fatalf("Propagate returned error on a well-formed LEO TLE: %s", err)
	}

	mag := state.PositionNormKm()
	if mag < 6200.0 || mag > 8000.0 {
		t.Errorf("propagated position magnitude = %.1f km, want a LEO altitude in [6200, 8000]", mag)
	}
}

func TestHighPrecisionPropagateIsIdentity(t *testing.T) {
	t1 := tle.TLE{
		Type: tle.HighPrecision,
		High: tle.HighPrecisionState{
			PositionM: [3]float64{1.5e11, 0, 0},
			VelocityM: [3]float64{0, 3e4, 0},
		},
	}
	state, err := (HighPrecision{}).Propagate(t1, 123.0)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if want := 1.5e11 / (statevec.AUKm * 1000.0); math.Abs(state[0]-want) > 1e-12*want {
		t.Errorf("x component = %.12f AU, want the stored 1.5e11 m = %.12f AU", state[0], want)
	}
}
