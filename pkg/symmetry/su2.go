package symmetry

import "math"

// SU2 is a 2x2 complex matrix representing the spinor part of a symmetry
// operation, i.e. the SU(2) lift of its proper rotation.
//
// Spinor signs are never tracked by adding rotation angles, which is
// ambiguous modulo 4π. The lift is stored explicitly and composed by
// matrix multiplication, so the double cover's sign bookkeeping is exact
// up to floating-point roundoff well below the comparison tolerance.
type SU2 [2][2]complex128

// su2Tolerance bounds the entry-wise roundoff accepted when matching a
// composed spinor matrix against a stored one. Matrices of distinct
// double-group elements differ by entries of order 1.
const su2Tolerance = 1e-8

// SU2Identity is the spinor part of the unbarred identity.
var SU2Identity = SU2{{1, 0}, {0, 1}}

// Mul returns the matrix product a·b.
func (a SU2) Mul(b SU2) SU2 {
	var p SU2
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			p[i][j] = a[i][0]*b[0][j] + a[i][1]*b[1][j]
		}
	}
	return p
}

// Adjoint returns the conjugate transpose, which is the inverse for a
// unitary matrix.
func (a SU2) Adjoint() SU2 {
	var t SU2
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			t[i][j] = cmplxConj(a[j][i])
		}
	}
	return t
}

// Neg returns -a, the spinor part of the barred partner.
func (a SU2) Neg() SU2 {
	return SU2{{-a[0][0], -a[0][1]}, {-a[1][0], -a[1][1]}}
}

// Equal reports entry-wise equality within the spinor tolerance.
func (a SU2) Equal(b SU2) bool {
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			d := a[i][j] - b[i][j]
			if math.Hypot(real(d), imag(d)) > su2Tolerance {
				return false
			}
		}
	}
	return true
}

func cmplxConj(c complex128) complex128 {
	return complex(real(c), -imag(c))
}

// Lift returns the canonical SU(2) lift of a proper rotation by angle
// (radians) about the Cartesian unit axis: cos(θ/2)·I − i·sin(θ/2)·(n̂·σ).
// The axis is normalized here; a zero axis is only valid for angle 0.
func Lift(axis [3]float64, angle float64) SU2 {
	n := math.Sqrt(axis[0]*axis[0] + axis[1]*axis[1] + axis[2]*axis[2])
	if n == 0 {
		return SU2{{complex(math.Cos(angle/2), 0), 0}, {0, complex(math.Cos(angle/2), 0)}}
	}
	nx, ny, nz := axis[0]/n, axis[1]/n, axis[2]/n
	c := math.Cos(angle / 2)
	s := math.Sin(angle / 2)
	return SU2{
		{complex(c, -s*nz), complex(-s*ny, -s*nx)},
		{complex(s*ny, -s*nx), complex(c, s*nz)},
	}
}
