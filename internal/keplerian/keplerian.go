// Package keplerian implements the "Keplerian solver" external
// collaborator of spec.md §6 (state_to_tle): computing osculating
// two-body elements from a single Cartesian state vector, for use as the
// bootstrap's starting guess. Grounded in the teacher's
// NewOrbitFromRV (orbit.go), itself Vallado's RV2COE algorithm.
package keplerian

import (
	"fmt"
	"math"

	"github.com/gonum/matrix/mat64"

	"github.com/skywave-labs/tlefit/internal/statevec"
	"github.com/skywave-labs/tlefit/internal/tle"
)

// muEarthKm3S2 is the Earth gravitational parameter, km^3/s^2.
const muEarthKm3S2 = 398600.4418

// StateToTLE computes osculating Keplerian elements from a state vector
// (AU/AU-day convention) and packages them as a TLE at the given epoch
// (Julian Date UTC). It fails (mirroring the original's
// "hyperbolic/invalid" branch) for parabolic/hyperbolic osculating
// orbits, which a TLE cannot represent.
func StateToTLE(state statevec.State, epochJD float64) (tle.TLE, error) {
	posKm, velKmS := state.ToKm()
	R := posKm
	V := velKmS

	h := cross(R, V)
	n := cross([3]float64{0, 0, 1}, h)
	v := norm(V)
	r := norm(R)
	xi := (v*v)/2 - muEarthKm3S2/r
	if xi >= 0 {
		return tle.TLE{}, fmt.Errorf("keplerian: parabolic/hyperbolic osculating orbit (energy=%.6g)", xi)
	}
	a := -muEarthKm3S2 / (2 * xi)

	var eVec [3]float64
	for i := 0; i < 3; i++ {
		eVec[i] = ((v*v-muEarthKm3S2/r)*R[i] - dot(R, V)*V[i]) / muEarthKm3S2
	}
	e := norm(eVec)
	if e >= 1 {
		return tle.TLE{}, fmt.Errorf("keplerian: eccentricity %.6f >= 1, cannot represent as TLE", e)
	}

	incl := math.Acos(clamp(h[2] / norm(h)))

	var argp float64
	nNorm := norm(n)
	if nNorm > 0 && e > 1e-12 {
		argp = math.Acos(clamp(dot(n, eVec) / (nNorm * e)))
		if math.IsNaN(argp) {
			argp = 0
		}
		if eVec[2] < 0 {
			argp = 2*math.Pi - argp
		}
	} else if e > 1e-12 {
		// Equatorial orbit: RAAN is 0, so the argument of perigee is the
		// longitude of perigee measured from the x axis.
		argp = math.Atan2(eVec[1], eVec[0])
		if h[2] < 0 {
			argp = -argp
		}
	}

	var raan float64
	if nNorm > 0 {
		raan = math.Acos(clamp(n[0] / nNorm))
		if n[1] < 0 {
			raan = 2*math.Pi - raan
		}
	}

	var nu float64
	if e > 1e-12 {
		cosNu := dot(eVec, R) / (e * r)
		if abs := math.Abs(cosNu); abs > 1 {
			cosNu = sign(cosNu)
		}
		nu = math.Acos(cosNu)
		if dot(R, V) < 0 {
			nu = 2*math.Pi - nu
		}
	} else {
		// Circular orbit: use argument of latitude as true anomaly proxy,
		// matching the teacher's ArgLatitudeU fallback in orbit.go. An
		// equatorial circular orbit has no node, so the true longitude
		// from the x axis stands in instead.
		if nNorm > 0 {
			nu = math.Acos(clamp(dot(n, R) / (nNorm * r)))
			if R[2] < 0 {
				nu = 2*math.Pi - nu
			}
		} else {
			nu = math.Atan2(R[1], R[0])
			if h[2] < 0 {
				nu = -nu
			}
		}
	}

	meanAnomaly := trueToMeanAnomaly(nu, e)
	meanMotionRadPerSec := math.Sqrt(muEarthKm3S2 / (a * a * a))

	out := tle.TLE{
		Elements: tle.Elements{
			Inclination:  math.Mod(incl, 2*math.Pi),
			RAAN:         tle.ZeroToTwoPi(raan),
			Eccentricity: e,
			ArgPerigee:   tle.ZeroToTwoPi(argp),
			MeanAnomaly:  tle.ZeroToTwoPi(meanAnomaly),
			MeanMotion:   meanMotionRadPerSec * 60, // rad/min
		},
		Epoch: epochJD,
	}
	return out, nil
}

// trueToMeanAnomaly converts true anomaly to mean anomaly via the
// standard two steps: true -> eccentric -> mean (Kepler's equation).
func trueToMeanAnomaly(nu, e float64) float64 {
	sinE := math.Sqrt(1-e*e) * math.Sin(nu) / (1 + e*math.Cos(nu))
	cosE := (e + math.Cos(nu)) / (1 + e*math.Cos(nu))
	E := math.Atan2(sinE, cosE)
	M := E - e*math.Sin(E)
	return M
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// dot performs the inner product via mat64/BLAS, the same route the
// teacher's math.go takes for this operation.
func dot(a, b [3]float64) float64 {
	return mat64.Dot(mat64.NewVector(3, a[:]), mat64.NewVector(3, b[:]))
}

func norm(a [3]float64) float64 {
	return math.Sqrt(dot(a, a))
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
