package symmetry

import (
	"fmt"

	"github.com/blochlab/dgrep/pkg/frac"
)

// Group is a double space group (or double point group): an ordered set of
// unique operations closed under composition. The first half of Ops holds
// the unbarred operations in curated order; entry i+Spatial() is the
// barred partner of entry i.
//
// Groups are immutable after construction and safe for concurrent reads.
type Group struct {
	// ID is the curated identifier: space-group number plus setting, or
	// a point-group label. Treated as an opaque key.
	ID string

	// Ops is the ordered operation list, barred partners included.
	Ops []Operation

	n       int            // spatial order, len(Ops)/2
	bySpace map[string][2]int // spatial key -> (unbarred, barred) indices
	idIdx   int
}

// NewGroup builds a double group from its unbarred operations. The barred
// partners are appended automatically with negated spinor matrices.
// Closure of the full double set is verified; a failure means the curated
// operation list is corrupt.
func NewGroup(id string, unbarred []Operation) (*Group, error) {
	if len(unbarred) == 0 {
		return nil, fmt.Errorf("%w: group %q has no operations", ErrInvalidOperation, id)
	}
	n := len(unbarred)
	g := &Group{
		ID:      id,
		Ops:     make([]Operation, 0, 2*n),
		n:       n,
		bySpace: make(map[string][2]int, n),
		idIdx:   -1,
	}
	for i, op := range unbarred {
		if op.Barred {
			return nil, fmt.Errorf("%w: group %q: operation %d is barred", ErrInvalidOperation, id, i)
		}
		op.Index = i
		op.Translation = op.Translation.Mod1()
		key := op.spatialKey()
		if _, dup := g.bySpace[key]; dup {
			return nil, fmt.Errorf("%w: group %q: duplicate operation %s", ErrInvalidOperation, id, op)
		}
		g.bySpace[key] = [2]int{i, i + n}
		if op.Rotation.IsIdentity() && op.Translation.IsZero() {
			g.idIdx = i
		}
		g.Ops = append(g.Ops, op)
	}
	if g.idIdx < 0 {
		return nil, fmt.Errorf("%w: group %q has no identity operation", ErrInvalidOperation, id)
	}
	for i := 0; i < n; i++ {
		bar := g.Ops[i]
		bar.Index = i + n
		bar.Spinor = bar.Spinor.Neg()
		bar.Barred = true
		g.Ops = append(g.Ops, bar)
	}
	for _, a := range g.Ops {
		for _, b := range g.Ops {
			if _, err := g.Compose(a, b); err != nil {
				return nil, fmt.Errorf("group %q: %w", id, err)
			}
		}
	}
	return g, nil
}

// Order returns the order of the double group (including barred elements).
func (g *Group) Order() int { return len(g.Ops) }

// Spatial returns the number of distinct spatial operations, half the
// double-group order.
func (g *Group) Spatial() int { return g.n }

// Identity returns the unbarred identity operation.
func (g *Group) Identity() Operation { return g.Ops[g.idIdx] }

// Bar returns the 2π-rotated partner of op.
func (g *Group) Bar(op Operation) Operation {
	if op.Index < g.n {
		return g.Ops[op.Index+g.n]
	}
	return g.Ops[op.Index-g.n]
}

// lookup resolves a (rotation, translation, spinor) triple to a stored
// operation. The spinor matrix disambiguates the barred pair.
func (g *Group) lookup(rot frac.Mat3, tr frac.Vec3, sp SU2) (Operation, bool) {
	probe := Operation{Rotation: rot, Translation: tr.Mod1()}
	pair, ok := g.bySpace[probe.spatialKey()]
	if !ok {
		return Operation{}, false
	}
	if g.Ops[pair[0]].Spinor.Equal(sp) {
		return g.Ops[pair[0]], true
	}
	if g.Ops[pair[1]].Spinor.Equal(sp) {
		return g.Ops[pair[1]], true
	}
	return Operation{}, false
}

// Compose returns the stored operation equal to a·b. The spatial parts
// compose as {Ra|ta}{Rb|tb} = {Ra·Rb | Ra·tb + ta} with the translation
// reduced modulo the lattice; the spinor parts compose by SU(2) matrix
// multiplication, which resolves the barred/unbarred ambiguity exactly.
func (g *Group) Compose(a, b Operation) (Operation, error) {
	rot := a.Rotation.Mul(b.Rotation)
	tr := a.Rotation.MulVec(b.Translation).Add(a.Translation)
	sp := a.Spinor.Mul(b.Spinor)
	op, ok := g.lookup(rot, tr, sp)
	if !ok {
		return Operation{}, fmt.Errorf("%w: %s · %s has no match in %q", ErrNotClosed, a, b, g.ID)
	}
	return op, nil
}

// Inverse returns the stored inverse of op.
func (g *Group) Inverse(op Operation) (Operation, error) {
	rotInv, ok := op.Rotation.Inverse()
	if !ok {
		return Operation{}, fmt.Errorf("%w: rotation of %s is not unimodular", ErrInvalidOperation, op)
	}
	trInv := rotInv.MulVec(op.Translation).Neg()
	inv, found := g.lookup(rotInv, trInv, op.Spinor.Adjoint())
	if !found {
		return Operation{}, fmt.Errorf("%w: inverse of %s has no match in %q", ErrNotClosed, op, g.ID)
	}
	return inv, nil
}

// LatticeDefect returns the lattice vector lost when the product a·b is
// reduced to the stored element c: ta + Ra·tb - tc. Representation
// validation turns it into the projective phase exp(-2πi k·Δt).
func LatticeDefect(a, b, c Operation) frac.Vec3 {
	return a.Translation.Add(a.Rotation.MulVec(b.Translation)).Sub(c.Translation)
}

// Generate builds a double group as the closure of the given unbarred
// generators. Discovery order fixes the bar convention for generated
// elements: the first spinor matrix reached for a spatial operation is
// taken as unbarred. The resulting flag is a labeling local to the
// group — it need not agree with a curated group's convention for the
// same rotation, so cross-group identification always compares the
// spinor matrices themselves. The limit caps the closure size so
// corrupted generator sets terminate with ErrNotClosed.
func Generate(id string, generators []Operation, limit int) (*Group, error) {
	if limit <= 0 {
		limit = 1536
	}
	type element struct {
		rot frac.Mat3
		tr  frac.Vec3
		sp  SU2
	}
	idElem := element{rot: frac.Identity, tr: frac.Vec3{}, sp: SU2Identity}
	elems := []element{idElem}
	spatialOrder := []string{Operation{Rotation: frac.Identity}.spatialKey()}
	firstSpinor := map[string]SU2{spatialOrder[0]: SU2Identity}

	find := func(e element) bool {
		probe := Operation{Rotation: e.rot, Translation: e.tr}
		key := probe.spatialKey()
		if _, seen := firstSpinor[key]; !seen {
			return false
		}
		for _, known := range elems {
			k := Operation{Rotation: known.rot, Translation: known.tr}
			if k.spatialKey() == key && known.sp.Equal(e.sp) {
				return true
			}
		}
		return false
	}

	gens := make([]element, 0, len(generators))
	for _, gen := range generators {
		gens = append(gens, element{rot: gen.Rotation, tr: gen.Translation.Mod1(), sp: gen.Spinor})
	}

	frontier := []element{idElem}
	for len(frontier) > 0 {
		var next []element
		for _, e := range frontier {
			for _, gen := range gens {
				prod := element{
					rot: e.rot.Mul(gen.rot),
					tr:  e.rot.MulVec(gen.tr).Add(e.tr).Mod1(),
					sp:  e.sp.Mul(gen.sp),
				}
				if find(prod) {
					continue
				}
				key := Operation{Rotation: prod.rot, Translation: prod.tr}.spatialKey()
				if _, seen := firstSpinor[key]; !seen {
					firstSpinor[key] = prod.sp
					spatialOrder = append(spatialOrder, key)
				}
				elems = append(elems, prod)
				next = append(next, prod)
				if len(elems) > limit {
					return nil, fmt.Errorf("%w: closure of %q exceeds %d elements", ErrNotClosed, id, limit)
				}
			}
		}
		frontier = next
	}

	// Collect unbarred representatives in discovery order; NewGroup
	// re-derives the barred partners and re-verifies closure.
	unbarred := make([]Operation, 0, len(spatialOrder))
	for _, key := range spatialOrder {
		for _, e := range elems {
			k := Operation{Rotation: e.rot, Translation: e.tr}
			if k.spatialKey() != key || !e.sp.Equal(firstSpinor[key]) {
				continue
			}
			unbarred = append(unbarred, Operation{
				Rotation:    e.rot,
				Translation: e.tr,
				Spinor:      e.sp,
				Improper:    e.rot.Det() == -1,
			})
			break
		}
	}
	return NewGroup(id, unbarred)
}
