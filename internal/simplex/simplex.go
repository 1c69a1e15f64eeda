// Package simplex implements the downhill (Nelder–Mead) simplex refiner
// of spec.md §4.4: minimizing the sum-of-squares residual between a
// propagated trajectory and a window of input state vectors, operating
// entirely in the equinoctial parameter space of internal/paramspace.
package simplex

import (
	"math"

	"github.com/skywave-labs/tlefit/internal/paramspace"
	"github.com/skywave-labs/tlefit/internal/propagator"
	"github.com/skywave-labs/tlefit/internal/statevec"
	"github.com/skywave-labs/tlefit/internal/tle"
)

const (
	maxIterations    = 3000
	convergenceRatio = 1.00001
	minScore         = 1e-22
	nudge            = 0.1
)

// vertex is one of the 7 points of the simplex in ℝ⁶, plus its score in
// the 7th slot (mirroring the original's simp[7][7] layout).
type vertex struct {
	params paramspace.Params
	score  float64
}

// Window is the fixed input to a refinement run: the state vectors
// sampled at tⱼ = (j - ⌊N/2⌋)·stepMinutes relative to the fit epoch.
type Window struct {
	States      []statevec.State
	StepMinutes float64
}

func (w Window) sampleTime(j int) float64 {
	return float64(j-len(w.States)/2) * w.StepMinutes
}

// score converts params to a TLE via the caller-supplied conversion,
// propagates at every sample time, and sums squared componentwise
// differences from the input state. With a single-vector window all six
// components are used; otherwise position only, per spec.md §4.4.
func score(prop propagator.Propagator, toTLE func(paramspace.Params) tle.TLE, params paramspace.Params, w Window) float64 {
	t := toTLE(params)
	var err2 float64
	nComponents := 3
	if len(w.States) == 1 {
		nComponents = 6
	}
	for j, want := range w.States {
		out, err := prop.Propagate(t, w.sampleTime(j))
		if err != nil {
			return math.Inf(1)
		}
		for i := 0; i < nComponents; i++ {
			d := out[i] - want[i]
			err2 += d * d
		}
	}
	return err2
}

func buildVertex(prop propagator.Propagator, toTLE func(paramspace.Params) tle.TLE, params paramspace.Params, w Window) vertex {
	return vertex{params: params, score: score(prop, toTLE, params, w)}
}

// Refine runs the 7-vertex simplex search of spec.md §4.4, starting from
// p0, and returns the best parameter vector found.
func Refine(prop propagator.Propagator, toTLE func(paramspace.Params) tle.TLE, p0 paramspace.Params, w Window) paramspace.Params {
	var simp [7]vertex
	simp[0] = buildVertex(prop, toTLE, p0, w)
	for i := 1; i <= 6; i++ {
		params := p0
		idx := i - 1
		if i == 1 || i == 2 {
			// Eccentricity-related coordinates (h, k): nudge toward
			// lower eccentricity before the additive perturbation.
			params[idx] *= 1 - nudge
		}
		params[idx] += nudge
		simp[i] = buildVertex(prop, toTLE, params, w)
	}

	for iter := 0; iter < maxIterations; iter++ {
		sortVertices(&simp)
		origScore := simp[6].score
		if origScore/simp[0].score < convergenceRatio || simp[0].score < minScore {
			break
		}

		newScore := tryExtrapolate(prop, toTLE, &simp, w, -1.0)
		if newScore < simp[0].score {
			tryExtrapolate(prop, toTLE, &simp, w, 2.0)
		} else if newScore >= simp[5].score {
			fraction := -0.5
			if newScore < origScore {
				fraction = 0.5
			}
			if tryExtrapolate(prop, toTLE, &simp, w, fraction) > simp[5].score {
				shrinkTowardBest(prop, toTLE, &simp, w)
			}
		}
	}

	sortVertices(&simp)
	return simp[0].params
}

// tryExtrapolate constructs a new point n = α·x₆ + ((1-α)/6)·Σᵢ₌₀..₅xᵢ; if
// it beats the current worst vertex it replaces it. Returns the new
// point's score either way.
func tryExtrapolate(prop propagator.Propagator, toTLE func(paramspace.Params) tle.TLE, simp *[7]vertex, w Window, alpha float64) float64 {
	frac := (1 - alpha) / 6
	var newParams paramspace.Params
	for i := 0; i < paramspace.N; i++ {
		newParams[i] = alpha * simp[6].params[i]
	}
	for j := 0; j < 6; j++ {
		for i := 0; i < paramspace.N; i++ {
			newParams[i] += frac * simp[j].params[i]
		}
	}
	newVertex := buildVertex(prop, toTLE, newParams, w)
	if newVertex.score < simp[6].score {
		simp[6] = newVertex
	}
	return newVertex.score
}

func shrinkTowardBest(prop propagator.Propagator, toTLE func(paramspace.Params) tle.TLE, simp *[7]vertex, w Window) {
	for i := 1; i <= 6; i++ {
		var params paramspace.Params
		for k := 0; k < paramspace.N; k++ {
			params[k] = (simp[i].params[k] + simp[0].params[k]) / 2
		}
		simp[i] = buildVertex(prop, toTLE, params, w)
	}
}

// sortVertices sorts ascending by score using the same "bubble from
// current position" pass as the original's sort_simplices, which is
// stable and cheap for 7 elements.
func sortVertices(simp *[7]vertex) {
	i := 0
	for i < 6 {
		if simp[i].score > simp[i+1].score {
			simp[i], simp[i+1] = simp[i+1], simp[i]
			if i > 0 {
				i--
			}
		} else {
			i++
		}
	}
}
