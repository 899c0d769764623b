// Package grouptest builds the small double groups the engine tests run
// against: cyclic and dihedral point groups, a screw-axis group, and the
// double octahedral group generated from two elements. Representations
// for the double-valued tests come from the spin-j action of the stored
// SU(2) matrices, so matrices and group composition can never disagree.
package grouptest

import (
	"math"
	"testing"

	"github.com/blochlab/dgrep/pkg/frac"
	"github.com/blochlab/dgrep/pkg/rep"
	"github.com/blochlab/dgrep/pkg/symmetry"
)

// Rotational parts over the lattice basis.
var (
	RotE     = frac.Identity
	RotC2z   = frac.Mat3{{-1, 0, 0}, {0, -1, 0}, {0, 0, 1}}
	RotC4z   = frac.Mat3{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}}
	RotC4z3  = frac.Mat3{{0, 1, 0}, {-1, 0, 0}, {0, 0, 1}}
	RotC2x   = frac.Mat3{{1, 0, 0}, {0, -1, 0}, {0, 0, -1}}
	RotC2y   = frac.Mat3{{-1, 0, 0}, {0, 1, 0}, {0, 0, -1}}
	RotC2d   = frac.Mat3{{0, 1, 0}, {1, 0, 0}, {0, 0, -1}}
	RotC2dp  = frac.Mat3{{0, -1, 0}, {-1, 0, 0}, {0, 0, -1}}
	RotC3111 = frac.Mat3{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}}
)

// Op builds an unbarred operation or fails the test.
func Op(t *testing.T, rot frac.Mat3, tr frac.Vec3, axis [3]float64, angle float64) symmetry.Operation {
	t.Helper()
	op, err := symmetry.NewOperation(symmetry.NewOperationParams{
		Rotation:    rot,
		Translation: tr,
		Axis:        axis,
		Angle:       angle,
	})
	if err != nil {
		t.Fatalf("NewOperation: %v", err)
	}
	return op
}

// Group builds a double group from unbarred operations or fails the test.
func Group(t *testing.T, id string, ops []symmetry.Operation) *symmetry.Group {
	t.Helper()
	g, err := symmetry.NewGroup(id, ops)
	if err != nil {
		t.Fatalf("NewGroup(%q): %v", id, err)
	}
	return g
}

// C1 builds the trivial double group {E, Ē}.
func C1(t *testing.T, id string) *symmetry.Group {
	t.Helper()
	return Group(t, id, []symmetry.Operation{
		Op(t, RotE, frac.Vec3{}, [3]float64{}, 0),
	})
}

// C2 builds the double group of the twofold rotation about z.
func C2(t *testing.T, id string) *symmetry.Group {
	t.Helper()
	return Group(t, id, []symmetry.Operation{
		Op(t, RotE, frac.Vec3{}, [3]float64{}, 0),
		Op(t, RotC2z, frac.Vec3{}, [3]float64{0, 0, 1}, math.Pi),
	})
}

// C4 builds the double group of the fourfold rotation about z.
func C4(t *testing.T, id string) *symmetry.Group {
	t.Helper()
	return Group(t, id, []symmetry.Operation{
		Op(t, RotE, frac.Vec3{}, [3]float64{}, 0),
		Op(t, RotC4z, frac.Vec3{}, [3]float64{0, 0, 1}, math.Pi/2),
		Op(t, RotC2z, frac.Vec3{}, [3]float64{0, 0, 1}, math.Pi),
		Op(t, RotC4z3, frac.Vec3{}, [3]float64{0, 0, 1}, 3*math.Pi/2),
	})
}

// D4 builds the double dihedral group of order 16: the fourfold axis
// about z plus the four twofold axes in the xy plane.
func D4(t *testing.T, id string) *symmetry.Group {
	t.Helper()
	return Group(t, id, []symmetry.Operation{
		Op(t, RotE, frac.Vec3{}, [3]float64{}, 0),
		Op(t, RotC4z, frac.Vec3{}, [3]float64{0, 0, 1}, math.Pi/2),
		Op(t, RotC2z, frac.Vec3{}, [3]float64{0, 0, 1}, math.Pi),
		Op(t, RotC4z3, frac.Vec3{}, [3]float64{0, 0, 1}, 3*math.Pi/2),
		Op(t, RotC2x, frac.Vec3{}, [3]float64{1, 0, 0}, math.Pi),
		Op(t, RotC2y, frac.Vec3{}, [3]float64{0, 1, 0}, math.Pi),
		Op(t, RotC2d, frac.Vec3{}, [3]float64{1, 1, 0}, math.Pi),
		Op(t, RotC2dp, frac.Vec3{}, [3]float64{1, -1, 0}, math.Pi),
	})
}

// Screw2 builds a twofold screw axis along z, the minimal nonsymmorphic
// group: {E|0} and {C2z|00½}.
func Screw2(t *testing.T, id string) *symmetry.Group {
	t.Helper()
	half := frac.NewVec3(frac.Zero, frac.Zero, frac.New(1, 2))
	return Group(t, id, []symmetry.Operation{
		Op(t, RotE, frac.Vec3{}, [3]float64{}, 0),
		Op(t, RotC2z, half, [3]float64{0, 0, 1}, math.Pi),
	})
}

// DoubleO generates the double octahedral group (order 48) from a
// fourfold axis about z and a threefold axis about (1,1,1).
func DoubleO(t *testing.T, id string) *symmetry.Group {
	t.Helper()
	gens := []symmetry.Operation{
		Op(t, RotC4z, frac.Vec3{}, [3]float64{0, 0, 1}, math.Pi/2),
		Op(t, RotC3111, frac.Vec3{}, [3]float64{1, 1, 1}, 2*math.Pi/3),
	}
	g, err := symmetry.Generate(id, gens, 100)
	if err != nil {
		t.Fatalf("Generate(%q): %v", id, err)
	}
	return g
}

// EmbedByMatch maps each unbarred operation of sub onto the operation of
// super with the same rotation, translation and spinor matrix. It fails
// the test when an operation has no image.
func EmbedByMatch(t *testing.T, super, sub *symmetry.Group) []int {
	t.Helper()
	m := make([]int, sub.Spatial())
	for i, op := range sub.Ops[:sub.Spatial()] {
		found := false
		for _, cand := range super.Ops {
			if cand.Rotation == op.Rotation &&
				cand.Translation.EqualMod1(op.Translation) &&
				cand.Spinor.Equal(op.Spinor) {
				m[i] = cand.Index
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("operation %d of %q has no image in %q", i, sub.ID, super.ID)
		}
	}
	return m
}

// SpinJ returns the (n+1)-dimensional spin-j matrix (n = 2j) of an SU(2)
// element, acting on the monomial basis u^(n-k)·v^k. The assignment
// s ↦ SpinJ(n, s) is an exact homomorphism, and SpinJ(1, s) is s itself.
func SpinJ(n int, s symmetry.SU2) [][]complex128 {
	a, b := s[0][0], s[0][1]
	c, d := s[1][0], s[1][1]
	dim := n + 1
	out := make([][]complex128, dim)
	for m := range out {
		out[m] = make([]complex128, dim)
	}
	for k := 0; k <= n; k++ {
		for i := 0; i <= n-k; i++ {
			for j := 0; j <= k; j++ {
				coef := complex(float64(binom(n-k, i)*binom(k, j)), 0)
				out[i+j][k] += coef * cpow(a, n-k-i) * cpow(c, i) * cpow(b, k-j) * cpow(d, j)
			}
		}
	}
	return out
}

// SpinJSpec builds the curated input for the spin-j representation of a
// double group, double-valued for odd n.
func SpinJSpec(g *symmetry.Group, label string, n int) rep.IrRepSpec {
	mats := make(map[int][][]complex128, g.Spatial())
	for _, op := range g.Ops[:g.Spatial()] {
		mats[op.Index] = SpinJ(n, op.Spinor)
	}
	return rep.IrRepSpec{
		Label:        label,
		Dim:          n + 1,
		DoubleValued: n%2 == 1,
		Matrices:     mats,
	}
}

// OneDimSpec builds the curated input for a one-dimensional
// representation from a character function over the unbarred operations.
func OneDimSpec(g *symmetry.Group, label string, doubleValued bool, chi func(symmetry.Operation) complex128) rep.IrRepSpec {
	mats := make(map[int][][]complex128, g.Spatial())
	for _, op := range g.Ops[:g.Spatial()] {
		mats[op.Index] = [][]complex128{{chi(op)}}
	}
	return rep.IrRepSpec{Label: label, Dim: 1, DoubleValued: doubleValued, Matrices: mats}
}

// ScaledSpec multiplies every matrix of a spec by a per-operation factor,
// the way one-dimensional representations twist a spinor representation.
func ScaledSpec(g *symmetry.Group, base rep.IrRepSpec, label string, factor func(symmetry.Operation) complex128) rep.IrRepSpec {
	mats := make(map[int][][]complex128, len(base.Matrices))
	for idx, m := range base.Matrices {
		f := factor(g.Ops[idx])
		scaled := make([][]complex128, len(m))
		for i, row := range m {
			scaled[i] = make([]complex128, len(row))
			for j, v := range row {
				scaled[i][j] = f * v
			}
		}
		mats[idx] = scaled
	}
	out := base
	out.Label = label
	out.Matrices = mats
	return out
}

func binom(n, k int) int64 {
	if k < 0 || k > n {
		return 0
	}
	r := int64(1)
	for i := 0; i < k; i++ {
		r = r * int64(n-i) / int64(i+1)
	}
	return r
}

func cpow(z complex128, n int) complex128 {
	r := complex(1, 0)
	for i := 0; i < n; i++ {
		r *= z
	}
	return r
}
