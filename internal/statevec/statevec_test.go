package statevec

import (
	"testing"

	"github.com/gonum/floats"
)

func TestKmRoundTrip(t *testing.T) {
	posKm := [3]float64{7000, -1200, 300}
	velKmS := [3]float64{-1.1, 6.9, 0.4}
	s := FromKm(posKm, velKmS)
	gotPos, gotVel := s.ToKm()
	for i := 0; i < 3; i++ {
		if !floats.EqualWithinRel(gotPos[i], posKm[i], 1e-12) {
			t.Errorf("pos[%d] = %.9f, want %.9f", i, gotPos[i], posKm[i])
		}
		if !floats.EqualWithinRel(gotVel[i], velKmS[i], 1e-12) {
			t.Errorf("vel[%d] = %.9f, want %.9f", i, gotVel[i], velKmS[i])
		}
	}
}

func TestSubAndScale(t *testing.T) {
	a := State{1, 2, 3, 4, 5, 6}
	b := State{0.5, 1, 1.5, 2, 2.5, 3}
	got := a.Sub(b).Scale(2)
	want := State{1, 2, 3, 4, 5, 6}
	for i := range want {
		if !floats.EqualWithinAbs(got[i], want[i], 1e-12) {
			t.Errorf("component %d = %.9f, want %.9f", i, got[i], want[i])
		}
	}
}
