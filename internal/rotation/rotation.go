// Package rotation provides the small 3x3 rotation-matrix building
// blocks used by the precession collaborator. Adapted from the teacher's
// R1/R2/R3/MxV33 helpers (rotation.go), trimmed to the primitives the
// fitting pipeline actually needs: composing Euler rotations and
// applying a matrix to a 3-vector.
package rotation

import (
	"math"

	"github.com/gonum/matrix/mat64"
)

// R1 returns the rotation matrix about the 1st axis.
func R1(x float64) *mat64.Dense {
	s, c := math.Sincos(x)
	return mat64.NewDense(3, 3, []float64{1, 0, 0, 0, c, s, 0, -s, c})
}

// R2 returns the rotation matrix about the 2nd axis.
func R2(x float64) *mat64.Dense {
	s, c := math.Sincos(x)
	return mat64.NewDense(3, 3, []float64{c, 0, -s, 0, 1, 0, s, 0, c})
}

// R3 returns the rotation matrix about the 3rd axis.
func R3(x float64) *mat64.Dense {
	s, c := math.Sincos(x)
	return mat64.NewDense(3, 3, []float64{c, s, 0, -s, c, 0, 0, 0, 1})
}

// Mul multiplies two 3x3 matrices, a·b.
func Mul(a, b *mat64.Dense) *mat64.Dense {
	var out mat64.Dense
	out.Mul(a, b)
	return &out
}

// MxV33 multiplies a 3x3 matrix with a 3-vector. There is no dimension
// check, matching the teacher's own helper of the same name.
func MxV33(m *mat64.Dense, v [3]float64) [3]float64 {
	vVec := mat64.NewVector(3, v[:])
	var rVec mat64.Vector
	rVec.MulVec(m, vVec)
	return [3]float64{rVec.At(0, 0), rVec.At(1, 0), rVec.At(2, 0)}
}
