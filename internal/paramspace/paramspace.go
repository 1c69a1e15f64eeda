// Package paramspace implements the nonsingular equinoctial-style
// parameterization of spec.md §3/§4.2: a bijection between {closed TLE
// orbits with e<1, n>0} and ℝ⁶ that removes the singularities at i=0 and
// e=0, so any real six-vector maps to a valid closed orbit.
package paramspace

import (
	"math"

	"github.com/skywave-labs/tlefit/internal/tle"
)

// N is the dimension of the base equinoctial working parameter vector
// that the bootstrap and simplex refiners operate on.
const N = 6

// MaxN is the array capacity backing Params. Least-squares refinement
// optionally adds a seventh working parameter, bstar (spec.md §6
// "parameter count"), so Params is sized to hold it even though N
// stays 6 for the bootstrap/simplex fit.
const MaxN = 7

// Params is the working variable of spec.md §3: (h, k, p, q, λ, ν),
// plus an optional seventh slot for bstar when least-squares refinement
// is configured for 7 parameters.
type Params [MaxN]float64

const (
	h = iota
	k
	p
	q
	lambda
	nu
)

// ToParams maps a TLE's mean elements to the working parameter vector,
// applying the formulas of spec.md §3 directly:
//
//	h = (e/(1-e))·sin(ϖ),  k = (e/(1-e))·cos(ϖ),  ϖ = ω + Ω
//	p = tan(i/2)·sin(Ω),   q = tan(i/2)·cos(Ω)
//	λ = ϖ + M
//	ν = ln(n)
func ToParams(t tle.Elements) Params {
	longPerih := t.ArgPerigee + t.RAAN
	meanLon := longPerih + t.MeanAnomaly
	r := t.Eccentricity / (1 - t.Eccentricity)
	tanHalfIncl := math.Tan(t.Inclination * 0.5)

	sinLP, cosLP := math.Sincos(longPerih)
	sinRAAN, cosRAAN := math.Sincos(t.RAAN)

	var out Params
	out[h] = r * sinLP
	out[k] = r * cosLP
	out[p] = tanHalfIncl * sinRAAN
	out[q] = tanHalfIncl * cosRAAN
	out[lambda] = meanLon
	out[nu] = math.Log(t.MeanMotion)
	return out
}

// FromParams is the inverse of ToParams: it computes
//
//	r = √(h²+k²), ϖ = atan2(h,k), e = r/(1+r)
//	τ = √(p²+q²), i = 2·atan(τ), Ω = atan2(p,q)
//	ω = ϖ - Ω, M = λ - ϖ, n = exp(ν)
//
// and normalizes M, Ω, ω into [0, 2π) with a modulo that returns a
// nonnegative residue, so no NaN or negative residue ever escapes even
// for large-magnitude inputs.
func FromParams(params Params) tle.Elements {
	r := math.Hypot(params[h], params[k])
	longPerih := math.Atan2(params[h], params[k])
	tanHalfIncl := math.Hypot(params[p], params[q])

	el := tle.Elements{
		Inclination:  2 * math.Atan(tanHalfIncl),
		RAAN:         math.Atan2(params[p], params[q]),
		Eccentricity: r / (1 + r),
		MeanMotion:   math.Exp(params[nu]),
	}
	el.ArgPerigee = tle.ZeroToTwoPi(longPerih - el.RAAN)
	el.MeanAnomaly = tle.ZeroToTwoPi(params[lambda] - longPerih)
	el.RAAN = tle.ZeroToTwoPi(el.RAAN)
	return el
}

// Perturb returns a copy of p with component i incremented by delta.
func (params Params) Perturb(i int, delta float64) Params {
	out := params
	out[i] += delta
	return out
}

// ToParamsHighPrecision maps a high-precision TLE's raw state vector
// directly onto the six working components (x, y, z, vx, vy, vz in
// meters and m/s): the "type h" mode of spec.md §4.1 has no orbital
// elements to speak of, so the identity is the only sound
// parameterization, matching the original's EPHEM_TYPE_HIGH branch of
// set_transform_vector.
func ToParamsHighPrecision(s tle.HighPrecisionState) Params {
	return Params{
		s.PositionM[0], s.PositionM[1], s.PositionM[2],
		s.VelocityM[0], s.VelocityM[1], s.VelocityM[2],
	}
}

// FromParamsHighPrecision is the inverse of ToParamsHighPrecision.
func FromParamsHighPrecision(params Params) tle.HighPrecisionState {
	return tle.HighPrecisionState{
		PositionM: [3]float64{params[0], params[1], params[2]},
		VelocityM: [3]float64{params[3], params[4], params[5]},
	}
}
