package paramspace

import (
	"math"
	"testing"

	"github.com/gonum/floats"

	"github.com/skywave-labs/tlefit/internal/tle"
)

func TestRoundTrip(t *testing.T) {
	cases := []tle.Elements{
		{Inclination: 0.9, RAAN: 1.2, Eccentricity: 0.001, ArgPerigee: 3.4, MeanAnomaly: 0.2, MeanMotion: 0.0611},
		{Inclination: 0, RAAN: 0, Eccentricity: 0, ArgPerigee: 0, MeanAnomaly: 0, MeanMotion: 0.001},
		{Inclination: math.Pi, RAAN: 5.9, Eccentricity: 0.9, ArgPerigee: 0.01, MeanAnomaly: 6.2, MeanMotion: 0.02},
		{Inclination: 1.6, RAAN: 0.0001, Eccentricity: 0.5, ArgPerigee: 6.28, MeanAnomaly: 3.1, MeanMotion: 0.045},
	}
	for i, c := range cases {
		got := FromParams(ToParams(c))
		if !floats.EqualWithinAbs(got.Inclination, c.Inclination, 1e-12) {
			t.Errorf("case %d: inclination got %.15f want %.15f", i, got.Inclination, c.Inclination)
		}
		if !floats.EqualWithinAbs(got.Eccentricity, c.Eccentricity, 1e-12) {
			t.Errorf("case %d: eccentricity got %.15f want %.15f", i, got.Eccentricity, c.Eccentricity)
		}
		if !floats.EqualWithinAbs(got.MeanMotion, c.MeanMotion, 1e-12) {
			t.Errorf("case %d: mean motion got %.15f want %.15f", i, got.MeanMotion, c.MeanMotion)
		}
		if !anglesEqual(got.RAAN, c.RAAN) {
			t.Errorf("case %d: RAAN got %.15f want %.15f", i, got.RAAN, c.RAAN)
		}
		if !anglesEqual(got.ArgPerigee, c.ArgPerigee) {
			t.Errorf("case %d: arg perigee got %.15f want %.15f", i, got.ArgPerigee, c.ArgPerigee)
		}
		if !anglesEqual(got.MeanAnomaly, c.MeanAnomaly) {
			t.Errorf("case %d: mean anomaly got %.15f want %.15f", i, got.MeanAnomaly, c.MeanAnomaly)
		}
	}
}

func anglesEqual(a, b float64) bool {
	a = tleZeroToTwoPi(a)
	b = tleZeroToTwoPi(b)
	return floats.EqualWithinAbs(a, b, 1e-12) || floats.EqualWithinAbs(a, b+2*math.Pi, 1e-12) || floats.EqualWithinAbs(a+2*math.Pi, b, 1e-12)
}

func tleZeroToTwoPi(v float64) float64 {
	v = math.Mod(v, 2*math.Pi)
	if v < 0 {
		v += 2 * math.Pi
	}
	return v
}

func TestNoNaNForLargeParams(t *testing.T) {
	for _, p := range []Params{
		{1e6, -1e6, 1e6, 1e6, -1e9, 20},
		{0, 0, 0, 0, 0, -50},
		{-1e3, 1e3, -1e3, 1e3, 1e12, 5},
	} {
		el := FromParams(p)
		for _, v := range []float64{el.RAAN, el.ArgPerigee, el.MeanAnomaly} {
			if math.IsNaN(v) || v < 0 || v >= 2*math.Pi {
				t.Fatalf("angle %.6f out of [0,2π) or NaN for params %v", v, p)
			}
		}
		if el.Eccentricity < 0 || el.Eccentricity >= 1 {
			t.Fatalf("eccentricity %.6f not in [0,1) for params %v", el.Eccentricity, p)
		}
		if el.MeanMotion <= 0 {
			t.Fatalf("mean motion %.6f not > 0 for params %v", el.MeanMotion, p)
		}
	}
}
