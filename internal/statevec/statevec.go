// Package statevec defines the Cartesian state vector used throughout the
// fitting pipeline and the unit conversions between the km/s ephemeris
// convention and the AU/(AU per day) convention the propagator adapter
// consumes.
package statevec

import "math"

// AUKm is one astronomical unit in kilometers.
const AUKm = 1.495978707e8

// MinutesPerDay is used to convert between AU/day and AU/minute velocity
// conventions when talking to the propagator.
const MinutesPerDay = 1440.0

// State is a Cartesian position/velocity pair at a single instant.
// Components are ordered (x, y, z, vx, vy, vz).
type State [6]float64

// Position returns the first three components.
func (s State) Position() [3]float64 {
	return [3]float64{s[0], s[1], s[2]}
}

// Velocity returns the last three components.
func (s State) Velocity() [3]float64 {
	return [3]float64{s[3], s[4], s[5]}
}

// FromKm builds a State from a position in km and a velocity in km/s,
// rescaling to AU and AU/day.
func FromKm(posKm, velKmS [3]float64) State {
	var s State
	for i := 0; i < 3; i++ {
		s[i] = posKm[i] / AUKm
		s[i+3] = velKmS[i] / AUKm * 86400.0
	}
	return s
}

// ToKm returns the state's position in km and velocity in km/s.
func (s State) ToKm() (posKm, velKmS [3]float64) {
	for i := 0; i < 3; i++ {
		posKm[i] = s[i] * AUKm
		velKmS[i] = s[i+3] * AUKm / 86400.0
	}
	return
}

// Sub returns s - o componentwise.
func (s State) Sub(o State) State {
	var d State
	for i := range s {
		d[i] = s[i] - o[i]
	}
	return d
}

// SquaredNorm returns the sum of squares of all six components.
func (s State) SquaredNorm() float64 {
	var sum float64
	for _, v := range s {
		sum += v * v
	}
	return sum
}

// PositionSquaredNorm returns the sum of squares of the position
// components only.
func (s State) PositionSquaredNorm() float64 {
	return s[0]*s[0] + s[1]*s[1] + s[2]*s[2]
}

// Scale multiplies every component by k.
func (s State) Scale(k float64) State {
	var o State
	for i := range s {
		o[i] = s[i] * k
	}
	return o
}

// Add returns s + o componentwise.
func (s State) Add(o State) State {
	var r State
	for i := range s {
		r[i] = s[i] + o[i]
	}
	return r
}

// PositionNormKm returns the norm of the position components, in km,
// given a state expressed in AU.
func (s State) PositionNormKm() float64 {
	p := s.Position()
	return math.Sqrt(p[0]*p[0]+p[1]*p[1]+p[2]*p[2]) * AUKm
}
