// Package propagator adapts the SGP4/SDP4/SDP8 family (external
// collaborators per spec.md §6) to the fitting pipeline's canonical unit
// system (AU, AU/day). The concrete near-Earth/deep-space model is
// github.com/joshuaferrara/go-satellite, the real SGP4/SDP4 propagator
// the pack carries (ChrisB0-2-StarGo/internal/propagation/sgp4.go).
package propagator

import (
	"fmt"
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/skywave-labs/tlefit/internal/fiterrors"
	"github.com/skywave-labs/tlefit/internal/statevec"
	"github.com/skywave-labs/tlefit/internal/timeconv"
	"github.com/skywave-labs/tlefit/internal/tle"
	"github.com/skywave-labs/tlefit/internal/tleio"
)

// Propagator is the public operation of spec.md §4.1: given a TLE and an
// offset in minutes since its epoch, yield a state vector in AU/(AU per
// day).
type Propagator interface {
	Propagate(t tle.TLE, tSinceEpochMin float64) (statevec.State, error)
}

// deepSpacePeriodMinutes is the classical near-Earth/deep-space boundary:
// an orbital period of 225 minutes, equivalently roughly 6.4 revolutions
// per day.
const deepSpacePeriodMinutes = 225.0

// SelectEphemeris returns 0 for near-Earth, 1 for deep-space, following
// the standard SGP4/SDP4 period threshold. This mirrors spec.md's
// external select_ephemeris(tle) collaborator; the numerical model
// itself is dispatched internally by go-satellite regardless (see
// DESIGN.md), so this function's role here is the bookkeeping/tagging
// spec.md's bootstrap and driver perform with its result.
func SelectEphemeris(t tle.TLE) int {
	if t.MeanMotion <= 0 {
		return 0
	}
	periodMin := 2 * math.Pi / t.MeanMotion
	if periodMin >= deepSpacePeriodMinutes {
		return 1
	}
	return 0
}

// Adapter wraps go-satellite as the near-Earth/deep-space propagator.
// ForceSGP4 mirrors the original's "-g" switch: when set, TLEs are
// tagged as SGP4 in the emitted ephemeris type regardless of
// SelectEphemeris's verdict, though (see DESIGN.md) the wrapped library
// still applies its own internal SGP4/SDP4 selection since it exposes no
// override to force one path or the other.
type Adapter struct {
	ForceSGP4 bool
}

// Propagate implements Propagator. tSinceEpochMin may be fractional;
// go-satellite's public API only accepts whole-second wall-clock
// components, so the offset is resolved to the nearest second before
// the call (an accepted precision cap of the wrapped library — see
// DESIGN.md).
func (a Adapter) Propagate(t tle.TLE, tSinceEpochMin float64) (statevec.State, error) {
	if err := validate(t); err != nil {
		return statevec.State{}, err
	}
	sat, err := buildSatellite(t)
	if err != nil {
		return statevec.State{}, fmt.Errorf("propagator: %w", err)
	}

	target := timeconv.JDToTime(t.Epoch).Add(time.Duration(tSinceEpochMin * float64(time.Minute))).Round(time.Second)
	posKm, velKmS := satellite.Propagate(sat, target.Year(), int(target.Month()), target.Day(),
		target.Hour(), target.Minute(), target.Second())

	if math.IsNaN(posKm.X) || math.IsNaN(velKmS.X) {
		return statevec.State{}, fmt.Errorf("propagator: sgp4/sdp4 returned NaN at tsince=%.6f min", tSinceEpochMin)
	}
	return statevec.FromKm([3]float64{posKm.X, posKm.Y, posKm.Z}, [3]float64{velKmS.X, velKmS.Y, velKmS.Z}), nil
}

func buildSatellite(t tle.TLE) (satellite.Satellite, error) {
	line1, line2 := tleio.Format(t)
	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS84)
	if sat.Error != 0 {
		return satellite.Satellite{}, fmt.Errorf("sgp4 init failed: code=%d %s (lines %q / %q)", sat.Error, sat.ErrorStr, line1, line2)
	}
	return sat, nil
}

// DeepSpaceSGP8 delegates every call to the embedded go-satellite
// adapter: the pack carries no standalone eighth-order Go
// implementation, so it runs the same SGP4/SDP4 model and sets no
// SGP8/SDP8 tag on any TLE; it exists so the run-level SGP8 switch of
// spec.md §6 has somewhere real to land.
type DeepSpaceSGP8 struct {
	Adapter
}

// HighPrecision is the "type h" passthrough mode of spec.md §4.1: it
// ignores tSinceEpochMin entirely and returns the TLE's raw stored state
// vector, converted from meters/(m/s) to AU/(AU per day). There is no
// dynamical model in this mode; propagation is the identity.
type HighPrecision struct{}

func (HighPrecision) Propagate(t tle.TLE, _ float64) (statevec.State, error) {
	if t.Type != tle.HighPrecision {
		return statevec.State{}, fmt.Errorf("propagator: HighPrecision adapter used on non-high-precision TLE")
	}
	const auInMeters = statevec.AUKm * 1000.0
	var s statevec.State
	for i := 0; i < 3; i++ {
		s[i] = t.High.PositionM[i] / auInMeters
		s[i+3] = t.High.VelocityM[i] / auInMeters * 86400.0
	}
	return s, nil
}

func validate(t tle.TLE) error {
	if !t.Valid() {
		return &fiterrors.InvalidElements{Eccentricity: t.Eccentricity, MeanMotion: t.MeanMotion}
	}
	return nil
}
