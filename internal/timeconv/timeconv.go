// Package timeconv implements the two time/frame collaborators spec.md
// §6 asks for: TDT↔UTC conversion via a tabulated/polynomial ΔT, and
// precession of a J2000 state vector to the mean equator of date.
//
// Neither is exposed by any example in the pack as a raw
// matrix-times-Cartesian-vector primitive: soniakeys/meeus's own
// "precess" package precesses spherical star coordinates, and its
// "deltat" package targets the Meeus-book interpolation tables rather
// than the closed-form Espenak & Meeus polynomials used here. Julian
// Date handling, however, is exactly the teacher's own
// github.com/soniakeys/meeus/julian usage (cmd/od/load.go,
// celestial.go, export.go). See DESIGN.md for the full justification.
package timeconv

import (
	"math"
	"time"

	"github.com/gonum/matrix/mat64"
	"github.com/soniakeys/meeus/julian"

	"github.com/skywave-labs/tlefit/internal/rotation"
)

// TimeToJD converts a UTC time.Time to a Julian Date.
func TimeToJD(t time.Time) float64 {
	return julian.TimeToJD(t)
}

// JDToTime converts a Julian Date (UTC) to a time.Time.
func JDToTime(jd float64) time.Time {
	return julian.JDToTime(jd)
}

const secondsPerDay = 86400.0

// TDMinusUTC returns TDT-UTC, in seconds, for a Julian Date expressed in
// TDT, following the Espenak & Meeus (2006) polynomial approximations to
// ΔT = TT - UT. It covers the historically validated propagator range of
// spec.md (1956-2050); outside that the caller has already rejected the
// ephemeris via EphemerisOutOfRange.
func TDMinusUTC(jdTDT float64) float64 {
	t := JDToTime(jdTDT)
	y := float64(t.Year()) + (float64(t.Month())-0.5)/12.0

	switch {
	case y < 1961:
		u := y - 1950
		return 29.07 + 0.407*u - u*u/233.0 + u*u*u/2547.0
	case y < 1986:
		u := y - 1975
		return 45.45 + 1.067*u - u*u/260.0 - u*u*u/718.0
	case y < 2005:
		u := y - 2000
		return 63.86 + 0.3345*u - 0.060374*u*u + 0.0017275*u*u*u +
			0.000651814*u*u*u*u + 0.00002373599*u*u*u*u*u
	default:
		u := y - 2000
		return 62.92 + 0.32217*u + 0.005589*u*u
	}
}

// JDTDTToUTC converts a Julian Date expressed in TDT to the corresponding
// Julian Date in UTC.
func JDTDTToUTC(jdTDT float64) float64 {
	return jdTDT - TDMinusUTC(jdTDT)/secondsPerDay
}

// PrecessionMatrix builds the IAU 1976 (Lieske) precession rotation
// matrix that maps a mean-equator-and-equinox-of-epochFromYear vector to
// mean-equator-and-equinox-of-epochToYear, following Meeus, chapter 21.
// Years are given as decimal Julian years (e.g. 2000.0 for J2000.0).
func PrecessionMatrix(epochFromYear, epochToYear float64) *mat64.Dense {
	const arcsecToRad = math.Pi / (180.0 * 3600.0)

	t1 := (epochFromYear - 2000.0) / 100.0 // centuries, J2000 to epochFrom
	t := (epochToYear - epochFromYear) / 100.0 // centuries, epochFrom to epochTo

	zeta := (2306.2181+1.39656*t1-0.000139*t1*t1)*t +
		(0.30188-0.000344*t1)*t*t + 0.017998*t*t*t
	z := (2306.2181+1.39656*t1-0.000139*t1*t1)*t +
		(1.09468+0.000066*t1)*t*t + 0.018203*t*t*t
	theta := (2004.3109-0.85330*t1-0.000217*t1*t1)*t -
		(0.42665+0.000217*t1)*t*t - 0.041833*t*t*t

	zeta *= arcsecToRad
	z *= arcsecToRad
	theta *= arcsecToRad

	// P = R3(-z) . R2(theta) . R3(-zeta), applied to a column vector at
	// epochFrom yields the vector at epochTo.
	return rotation.Mul(rotation.Mul(rotation.R3(-z), rotation.R2(theta)), rotation.R3(-zeta))
}

// PrecessVector applies a precession matrix built by PrecessionMatrix to
// a Cartesian 3-vector.
func PrecessVector(m *mat64.Dense, in [3]float64) [3]float64 {
	return rotation.MxV33(m, in)
}
