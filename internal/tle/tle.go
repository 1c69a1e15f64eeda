// Package tle defines the mean-element TLE data model of the fitting
// pipeline: the element set itself, its identifiers, and the ephemeris-
// type tag that selects a propagator variant.
package tle

import (
	"fmt"
	"math"
)

// EphemerisType is the small enumerated set of propagator variants a TLE
// can be tagged with. It is a tagged variant rather than the raw TLE
// character field so the "high precision passthrough" tag can
// short-circuit both propagator selection and numeric-partial step
// sizes without callers inspecting a character constant.
type EphemerisType uint8

const (
	// Default lets the propagator adapter decide near-Earth vs deep-space
	// via SelectEphemeris.
	Default EphemerisType = iota
	SGP
	SGP4
	SDP4
	SGP8
	SDP8
	// HighPrecision is the "type h" passthrough mode of spec.md §4.1: the
	// TLE's reserved fields carry a raw state vector in meters/(m/s) and
	// propagation is the identity at epoch.
	HighPrecision
)

// Digit returns the classic single-digit TLE ephemeris-type field value.
// High-precision passthrough has no standard digit; it is rendered as 0
// since such TLEs are never meant to round-trip through real ground
// systems.
func (e EphemerisType) Digit() int {
	switch e {
	case SGP:
		return 1
	case SGP4:
		return 2
	case SDP4:
		return 3
	case SGP8:
		return 4
	case SDP8:
		return 5
	default:
		return 0
	}
}

func (e EphemerisType) String() string {
	switch e {
	case Default:
		return "default"
	case SGP:
		return "sgp"
	case SGP4:
		return "sgp4"
	case SDP4:
		return "sdp4"
	case SGP8:
		return "sgp8"
	case SDP8:
		return "sdp8"
	case HighPrecision:
		return "high"
	default:
		return "unknown"
	}
}

// Elements are the mean orbital elements a TLE carries, in the units the
// propagator expects: radians for angles, radians/minute for mean
// motion, Julian Date UTC for epoch.
type Elements struct {
	Inclination float64 // [0, π]
	RAAN        float64 // [0, 2π)
	Eccentricity float64 // [0, 1)
	ArgPerigee  float64 // [0, 2π)
	MeanAnomaly float64 // [0, 2π)
	MeanMotion  float64 // > 0, radians/minute
	BStar       float64 // drag term
}

// Identifiers are the bookkeeping fields carried alongside the mean
// elements; none of them participate in propagation.
type Identifiers struct {
	NoradNumber    int
	IntlDesignator string
	Classification byte // 'U' unclassified, etc.
}

// HighPrecisionState carries a raw state vector, in meters and m/s, used
// only when Type == HighPrecision. It occupies the TLE's otherwise-unused
// fields per spec.md §4.1.
type HighPrecisionState struct {
	PositionM [3]float64
	VelocityM [3]float64
}

// TLE is the full mean-element set consumed by the propagator, plus its
// epoch, identifiers, and ephemeris-type tag.
type TLE struct {
	Elements
	Epoch float64 // Julian Date, UTC
	Identifiers
	Type EphemerisType
	High HighPrecisionState // only meaningful when Type == HighPrecision
}

// Valid reports whether the element set satisfies the invariant any
// emitted TLE must satisfy: 0 ≤ eccentricity < 1 and mean_motion > 0.
// High-precision passthrough TLEs are exempt, matching the original's
// get_sxpx guard (`tle->ephemeris_type != EPHEM_TYPE_HIGH`).
func (t TLE) Valid() bool {
	if t.Type == HighPrecision {
		return true
	}
	return t.Eccentricity >= 0 && t.Eccentricity < 1 && t.MeanMotion > 0
}

// NormalizeAngles reduces RAAN, ArgPerigee and MeanAnomaly into [0, 2π)
// using a modulo that returns a nonnegative residue, matching
// zero_to_two_pi in the original.
func (t *TLE) NormalizeAngles() {
	t.RAAN = ZeroToTwoPi(t.RAAN)
	t.ArgPerigee = ZeroToTwoPi(t.ArgPerigee)
	t.MeanAnomaly = ZeroToTwoPi(t.MeanAnomaly)
}

// ZeroToTwoPi reduces any real value into [0, 2π), matching the
// original's zero_to_two_pi: fmod followed by an if-negative correction,
// which never produces NaN because the caller controls the divisor.
func ZeroToTwoPi(v float64) float64 {
	const twoPi = 2 * math.Pi
	v = math.Mod(v, twoPi)
	if v < 0 {
		v += twoPi
	}
	return v
}

// String renders a short human-readable summary, not the two-line
// format (see internal/tleio for that).
func (t TLE) String() string {
	return fmt.Sprintf("TLE{norad=%d epoch=%.6f i=%.4f Ω=%.4f e=%.6f ω=%.4f M=%.4f n=%.8f type=%s}",
		t.NoradNumber, t.Epoch, t.Inclination, t.RAAN, t.Eccentricity,
		t.ArgPerigee, t.MeanAnomaly, t.MeanMotion, t.Type)
}
