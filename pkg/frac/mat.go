package frac

// Mat3 is a 3x3 integer matrix over the lattice basis. Rotational parts of
// crystallographic symmetry operations are always integer in this basis.
type Mat3 [3][3]int64

// Identity is the 3x3 identity matrix.
var Identity = Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// Mul returns the matrix product m·n.
func (m Mat3) Mul(n Mat3) Mat3 {
	var p Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var s int64
			for k := 0; k < 3; k++ {
				s += m[i][k] * n[k][j]
			}
			p[i][j] = s
		}
	}
	return p
}

// MulVec returns m·v for a column vector v.
func (m Mat3) MulVec(v Vec3) Vec3 {
	var r Vec3
	for i := 0; i < 3; i++ {
		s := Zero
		for j := 0; j < 3; j++ {
			s = s.Add(v[j].MulInt(m[i][j]))
		}
		r[i] = s
	}
	return r
}

// MulRow returns v·m for a row vector v. Reciprocal-space coordinates
// transform by right multiplication in this convention.
func (m Mat3) MulRow(v Vec3) Vec3 {
	var r Vec3
	for j := 0; j < 3; j++ {
		s := Zero
		for i := 0; i < 3; i++ {
			s = s.Add(v[i].MulInt(m[i][j]))
		}
		r[j] = s
	}
	return r
}

// Transpose returns the transposed matrix.
func (m Mat3) Transpose() Mat3 {
	var t Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t[j][i] = m[i][j]
		}
	}
	return t
}

// Det returns the determinant.
func (m Mat3) Det() int64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// Inverse returns the inverse of a unimodular matrix. The second return
// value is false when det(m) is not ±1, in which case m is not a valid
// crystallographic rotation.
func (m Mat3) Inverse() (Mat3, bool) {
	d := m.Det()
	if d != 1 && d != -1 {
		return Mat3{}, false
	}
	cof := func(r0, r1, c0, c1 int) int64 {
		return m[r0][c0]*m[r1][c1] - m[r0][c1]*m[r1][c0]
	}
	adj := Mat3{
		{cof(1, 2, 1, 2), -cof(0, 2, 1, 2), cof(0, 1, 1, 2)},
		{-cof(1, 2, 0, 2), cof(0, 2, 0, 2), -cof(0, 1, 0, 2)},
		{cof(1, 2, 0, 1), -cof(0, 2, 0, 1), cof(0, 1, 0, 1)},
	}
	// det is ±1, so dividing by it is the same as multiplying.
	var inv Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			inv[i][j] = adj[i][j] * d
		}
	}
	return inv, true
}

// IsIdentity reports whether m is the identity.
func (m Mat3) IsIdentity() bool {
	return m == Identity
}
