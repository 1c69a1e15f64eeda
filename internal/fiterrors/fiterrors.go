// Package fiterrors defines the error kinds of spec.md §7. It follows the
// teacher's plain-stdlib error style (no third-party error library
// appears anywhere in the teacher or the rest of the pack, so none is
// introduced here).
package fiterrors

import "fmt"

// InvalidElements is returned by the propagator adapter when a TLE fails
// its precondition: eccentricity outside [0,1) or non-positive mean
// motion.
type InvalidElements struct {
	Eccentricity float64
	MeanMotion   float64
}

func (e *InvalidElements) Error() string {
	return fmt.Sprintf("invalid elements: eccentricity=%.6f mean_motion=%.9f", e.Eccentricity, e.MeanMotion)
}

// BootstrapDiverged is returned when the bootstrap ran its full 70
// iterations without ever producing a valid candidate.
type BootstrapDiverged struct {
	Iterations int
}

func (e *BootstrapDiverged) Error() string {
	return fmt.Sprintf("bootstrap diverged after %d iterations", e.Iterations)
}

// SolveFailed is returned when the least-squares linear-algebra
// collaborator reports a singular system.
type SolveFailed struct {
	ModifiedJulianDate float64
	Iteration          int
}

func (e *SolveFailed) Error() string {
	return fmt.Sprintf("solve failed at iteration %d: MJD %.4f", e.Iteration, e.ModifiedJulianDate)
}

// EphemerisOutOfRange is fatal to the entire run: an input Julian Date
// fell outside the historically validated [1956, 2050] range.
type EphemerisOutOfRange struct {
	JulianDate float64
}

func (e *EphemerisOutOfRange) Error() string {
	return fmt.Sprintf("ephemeris JD %.4f outside supported range [1956, 2050]", e.JulianDate)
}

// InputParseError is fatal to the entire run: a malformed ephemeris line.
type InputParseError struct {
	Line int
	Raw  string
	Err  error
}

func (e *InputParseError) Error() string {
	return fmt.Sprintf("parse error on line %d (%q): %v", e.Line, e.Raw, e.Err)
}

func (e *InputParseError) Unwrap() error { return e.Err }
