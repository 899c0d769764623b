package frac

import (
	"fmt"
	"strings"
)

// Vec3 is an exact 3-vector over the lattice (or reciprocal-lattice) basis.
type Vec3 [3]Frac

// NewVec3 builds a vector from three rationals.
func NewVec3(a, b, c Frac) Vec3 {
	return Vec3{a, b, c}
}

// IntVec returns the integer vector (a, b, c).
func IntVec(a, b, c int64) Vec3 {
	return Vec3{FromInt(a), FromInt(b), FromInt(c)}
}

// Add returns v+w.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v[0].Add(w[0]), v[1].Add(w[1]), v[2].Add(w[2])}
}

// Sub returns v-w.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{v[0].Sub(w[0]), v[1].Sub(w[1]), v[2].Sub(w[2])}
}

// Neg returns -v.
func (v Vec3) Neg() Vec3 {
	return Vec3{v[0].Neg(), v[1].Neg(), v[2].Neg()}
}

// Scale returns v multiplied component-wise by f.
func (v Vec3) Scale(f Frac) Vec3 {
	return Vec3{v[0].Mul(f), v[1].Mul(f), v[2].Mul(f)}
}

// Mod1 wraps every component into [0, 1).
func (v Vec3) Mod1() Vec3 {
	return Vec3{v[0].Mod1(), v[1].Mod1(), v[2].Mod1()}
}

// Equal reports exact component-wise equality.
func (v Vec3) Equal(w Vec3) bool {
	return v[0].Equal(w[0]) && v[1].Equal(w[1]) && v[2].Equal(w[2])
}

// EqualMod1 reports equality modulo a lattice vector.
func (v Vec3) EqualMod1(w Vec3) bool {
	return v.Sub(w).IsLattice()
}

// IsZero reports whether v is the zero vector.
func (v Vec3) IsZero() bool {
	return v[0].IsZero() && v[1].IsZero() && v[2].IsZero()
}

// IsLattice reports whether every component is an integer.
func (v Vec3) IsLattice() bool {
	return v[0].IsInt() && v[1].IsInt() && v[2].IsInt()
}

// Dot returns the exact scalar product v·w.
func (v Vec3) Dot(w Vec3) Frac {
	return v[0].Mul(w[0]).Add(v[1].Mul(w[1])).Add(v[2].Mul(w[2]))
}

// String formats v as "(a, b, c)" with rational components.
func (v Vec3) String() string {
	parts := make([]string, 3)
	for i, f := range v {
		parts[i] = f.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// ParseVec3 reads three rationals such as ["1/2", "0", "-1/4"].
func ParseVec3(s [3]string) (Vec3, error) {
	var v Vec3
	for i, c := range s {
		f, err := Parse(c)
		if err != nil {
			return Vec3{}, fmt.Errorf("frac: component %d: %w", i, err)
		}
		v[i] = f
	}
	return v, nil
}
