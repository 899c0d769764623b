package rep

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/blochlab/dgrep/pkg/kspace"
	"github.com/blochlab/dgrep/pkg/logger"
	"github.com/blochlab/dgrep/pkg/symmetry"
)

// DefaultTolerance bounds the residual accepted when a character sum must
// land on an integer and when validating representation matrices.
const DefaultTolerance = 1e-6

// IrRepSpec is the curated input for one irreducible representation.
// Matrices are keyed by group operation index; entries for barred
// partners may be omitted and are then filled in with +M (single-valued)
// or -M (double-valued).
type IrRepSpec struct {
	Label        string
	Dim          int
	DoubleValued bool
	Matrices     map[int][][]complex128
}

// Table stores the irreducible representations of every loaded
// (group, k-vector) pair. It is populated at load time and read-only
// afterwards; lookups are safe for unlimited concurrent use.
type Table struct {
	store    *symmetry.Store
	resolver *kspace.Resolver
	tol      float64
	byGroup  map[string]map[string][]*IrRep
	kByLabel map[string]map[string]kspace.KVector
}

// NewTableParams configures a representation table.
type NewTableParams struct {
	Store    *symmetry.Store
	Resolver *kspace.Resolver

	// Tolerance for matrix and integrality checks; DefaultTolerance
	// when zero.
	Tolerance float64
}

// NewTable creates an empty representation table.
func NewTable(params NewTableParams) (*Table, error) {
	if params.Store == nil || params.Resolver == nil {
		return nil, fmt.Errorf("rep: table requires a store and a resolver")
	}
	tol := params.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	return &Table{
		store:    params.Store,
		resolver: params.Resolver,
		tol:      tol,
		byGroup:  make(map[string]map[string][]*IrRep),
		kByLabel: make(map[string]map[string]kspace.KVector),
	}, nil
}

// Tolerance returns the numeric tolerance the table validates with.
func (t *Table) Tolerance() float64 { return t.tol }

// Add validates and stores the representations of one (group, k-vector)
// pair. Validation failures leave the table unchanged for that pair and
// are fatal for the affected group only.
func (t *Table) Add(groupID string, k kspace.KVector, specs []IrRepSpec) ([]*IrRep, error) {
	g, err := t.store.Group(groupID)
	if err != nil {
		return nil, err
	}
	lg, err := t.resolver.LittleGroup(groupID, k)
	if err != nil {
		return nil, err
	}

	irreps := make([]*IrRep, 0, len(specs))
	for _, spec := range specs {
		ir, err := t.assemble(g, lg, spec)
		if err != nil {
			return nil, err
		}
		if err := t.validateHomomorphism(g, lg, ir); err != nil {
			return nil, err
		}
		irreps = append(irreps, ir)
	}
	if err := t.validateOrthogonality(irreps); err != nil {
		return nil, err
	}

	if t.byGroup[groupID] == nil {
		t.byGroup[groupID] = make(map[string][]*IrRep)
		t.kByLabel[groupID] = make(map[string]kspace.KVector)
	}
	if _, dup := t.byGroup[groupID][k.Label]; dup {
		return nil, fmt.Errorf("%w: duplicate k-vector %q for group %q",
			ErrInvalidRepresentation, k.Label, groupID)
	}
	t.byGroup[groupID][k.Label] = irreps
	t.kByLabel[groupID][k.Label] = k
	logger.Debug("[Rep] Table entry added", "group", groupID, "k", k.Label, "irreps", len(irreps))
	return irreps, nil
}

// assemble aligns the curated matrices with the little-group operation
// list, deriving barred entries from the single/double-valued flag when
// they are not supplied.
func (t *Table) assemble(g *symmetry.Group, lg *kspace.LittleGroup, spec IrRepSpec) (*IrRep, error) {
	if spec.Dim <= 0 {
		return nil, fmt.Errorf("%w: irrep %q has dimension %d",
			ErrInvalidRepresentation, spec.Label, spec.Dim)
	}
	mats := make([][][]complex128, len(lg.OpIdx))
	chars := make([]complex128, len(lg.OpIdx))
	for pos, opIdx := range lg.OpIdx {
		m, ok := spec.Matrices[opIdx]
		sign := complex(1, 0)
		if !ok {
			partner := g.Bar(g.Ops[opIdx])
			m, ok = spec.Matrices[partner.Index]
			if !ok {
				return nil, fmt.Errorf("%w: irrep %q of %q is missing a matrix for %s",
					ErrInvalidRepresentation, spec.Label, g.ID, g.Ops[opIdx])
			}
			if spec.DoubleValued {
				sign = complex(-1, 0)
			}
		}
		if len(m) != spec.Dim {
			return nil, fmt.Errorf("%w: irrep %q of %q: matrix for %s is %dx?, want %d",
				ErrInvalidRepresentation, spec.Label, g.ID, g.Ops[opIdx], len(m), spec.Dim)
		}
		scaled := make([][]complex128, spec.Dim)
		var trace complex128
		for i, row := range m {
			if len(row) != spec.Dim {
				return nil, fmt.Errorf("%w: irrep %q of %q: ragged matrix for %s",
					ErrInvalidRepresentation, spec.Label, g.ID, g.Ops[opIdx])
			}
			scaled[i] = make([]complex128, spec.Dim)
			for j, v := range row {
				scaled[i][j] = sign * v
			}
			trace += scaled[i][i]
		}
		mats[pos] = scaled
		chars[pos] = trace
	}
	return &IrRep{
		Label:        spec.Label,
		GroupID:      g.ID,
		Dim:          spec.Dim,
		DoubleValued: spec.DoubleValued,
		little:       lg,
		mats:         mats,
		chars:        chars,
	}, nil
}

// validateHomomorphism checks, for every pair (a, b) of little-group
// operations, that M(a)·M(b) = exp(-2πi k·Δt)·M(a·b), where Δt is the
// lattice vector lost when the composed translation is reduced. The
// spinor sign never appears explicitly: barred elements are distinct
// group elements and carry their own matrices.
func (t *Table) validateHomomorphism(g *symmetry.Group, lg *kspace.LittleGroup, ir *IrRep) error {
	posOf := make(map[int]int, len(lg.OpIdx))
	for p, idx := range lg.OpIdx {
		posOf[idx] = p
	}
	for pa, ia := range lg.OpIdx {
		for pb, ib := range lg.OpIdx {
			a, b := g.Ops[ia], g.Ops[ib]
			c, err := g.Compose(a, b)
			if err != nil {
				return fmt.Errorf("irrep %q of %q: %w", ir.Label, g.ID, err)
			}
			pc, ok := posOf[c.Index]
			if !ok {
				return fmt.Errorf("%w: little group of %q at %s is not closed",
					ErrInvalidRepresentation, g.ID, lg.K.Label)
			}
			defect := symmetry.LatticeDefect(a, b, c)
			if !defect.IsLattice() {
				return fmt.Errorf("%w: non-lattice composition defect %s in %q",
					ErrInvalidRepresentation, defect, g.ID)
			}
			phase := cmplx.Exp(complex(0, -2*math.Pi*lg.K.Coords.Dot(defect).Float64()))
			if err := matClose(matMul(ir.mats[pa], ir.mats[pb]), matScale(phase, ir.mats[pc]), t.tol); err != nil {
				return fmt.Errorf("%w: irrep %q of %q at %s: %s·%s: %v",
					ErrInvalidRepresentation, ir.Label, g.ID, lg.K.Label, a, b, err)
			}
		}
	}
	return nil
}

// validateOrthogonality checks the row orthogonality relations over the
// little group: each representation must be irreducible and distinct
// representations must have orthogonal characters.
func (t *Table) validateOrthogonality(irreps []*IrRep) error {
	for i, a := range irreps {
		for j, b := range irreps {
			if j < i {
				continue
			}
			var sum complex128
			for p := range a.chars {
				sum += a.chars[p] * cmplxConj(b.chars[p])
			}
			sum /= complex(float64(len(a.chars)), 0)
			want := complex(0, 0)
			if i == j {
				want = 1
			}
			if cmplx.Abs(sum-want) > math.Sqrt(t.tol) {
				return fmt.Errorf("%w: irreps %q and %q violate orthogonality (inner product %v)",
					ErrInvalidRepresentation, a.Label, b.Label, sum)
			}
		}
	}
	return nil
}

// RepsAt returns the representations curated for a (group, k-label) pair.
func (t *Table) RepsAt(groupID, kLabel string) ([]*IrRep, error) {
	if _, err := t.store.Group(groupID); err != nil {
		return nil, err
	}
	byK, ok := t.byGroup[groupID]
	if !ok {
		return nil, fmt.Errorf("%w: no representations loaded for group %q", ErrUnknownKVector, groupID)
	}
	irreps, ok := byK[kLabel]
	if !ok {
		return nil, fmt.Errorf("%w: %q in group %q", ErrUnknownKVector, kLabel, groupID)
	}
	return irreps, nil
}

// KVector resolves a curated k-vector label for a group.
func (t *Table) KVector(groupID, kLabel string) (kspace.KVector, error) {
	byK, ok := t.kByLabel[groupID]
	if !ok {
		return kspace.KVector{}, fmt.Errorf("%w: no representations loaded for group %q", ErrUnknownKVector, groupID)
	}
	k, ok := byK[kLabel]
	if !ok {
		return kspace.KVector{}, fmt.Errorf("%w: %q in group %q", ErrUnknownKVector, kLabel, groupID)
	}
	return k, nil
}

// CharacterOf returns the character of the representation on the given
// group operation, which must belong to its little group.
func (t *Table) CharacterOf(ir *IrRep, op symmetry.Operation) (complex128, error) {
	for pos, idx := range ir.little.OpIdx {
		if idx == op.Index {
			return ir.chars[pos], nil
		}
	}
	return 0, fmt.Errorf("%w: operation %s is not in the little group of %q at %s",
		ErrUnknownKVector, op, ir.GroupID, ir.little.K.Label)
}

// DropGroup discards every entry of a group. Load-time use only, for
// honoring the "fatal for the affected group" propagation policy.
func (t *Table) DropGroup(groupID string) {
	delete(t.byGroup, groupID)
	delete(t.kByLabel, groupID)
}

func matMul(a, b [][]complex128) [][]complex128 {
	n := len(a)
	out := make([][]complex128, n)
	for i := 0; i < n; i++ {
		out[i] = make([]complex128, n)
		for j := 0; j < n; j++ {
			var s complex128
			for k := 0; k < n; k++ {
				s += a[i][k] * b[k][j]
			}
			out[i][j] = s
		}
	}
	return out
}

func matScale(f complex128, m [][]complex128) [][]complex128 {
	out := make([][]complex128, len(m))
	for i, row := range m {
		out[i] = make([]complex128, len(row))
		for j, v := range row {
			out[i][j] = f * v
		}
	}
	return out
}

func matClose(a, b [][]complex128, tol float64) error {
	for i := range a {
		for j := range a[i] {
			if cmplx.Abs(a[i][j]-b[i][j]) > tol {
				return fmt.Errorf("entry (%d,%d) differs by %g", i, j, cmplx.Abs(a[i][j]-b[i][j]))
			}
		}
	}
	return nil
}

func cmplxConj(c complex128) complex128 {
	return complex(real(c), -imag(c))
}
