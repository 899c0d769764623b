package rep_test

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/blochlab/dgrep/internal/grouptest"
	"github.com/blochlab/dgrep/pkg/frac"
	"github.com/blochlab/dgrep/pkg/kspace"
	"github.com/blochlab/dgrep/pkg/rep"
	"github.com/blochlab/dgrep/pkg/symmetry"
)

func newTable(t *testing.T, groups ...*symmetry.Group) *rep.Table {
	t.Helper()
	store := symmetry.NewStore()
	for _, g := range groups {
		if err := store.AddGroup(g); err != nil {
			t.Fatalf("AddGroup(%s): %v", g.ID, err)
		}
	}
	resolver, err := kspace.NewResolver(kspace.NewResolverParams{Store: store})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	table, err := rep.NewTable(rep.NewTableParams{Store: store, Resolver: resolver})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return table
}

func gamma() kspace.KVector {
	return kspace.KVector{Label: "GM", Coords: frac.Vec3{}}
}

// c2Specs are the four irreps of the double group of C2: two
// single-valued and two double-valued one-dimensional representations.
func c2Specs(g *symmetry.Group) []rep.IrRepSpec {
	chi := func(c2 complex128) func(symmetry.Operation) complex128 {
		return func(op symmetry.Operation) complex128 {
			if op.Rotation.IsIdentity() {
				return 1
			}
			return c2
		}
	}
	return []rep.IrRepSpec{
		grouptest.OneDimSpec(g, "A", false, chi(1)),
		grouptest.OneDimSpec(g, "B", false, chi(-1)),
		grouptest.OneDimSpec(g, "1E", true, chi(complex(0, 1))),
		grouptest.OneDimSpec(g, "2E", true, chi(complex(0, -1))),
	}
}

func TestAddOneDimensional(t *testing.T) {
	g := grouptest.C2(t, "C2")
	table := newTable(t, g)

	irreps, err := table.Add("C2", gamma(), c2Specs(g))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(irreps) != 4 {
		t.Fatalf("Add returned %d irreps, want 4", len(irreps))
	}

	tests := []struct {
		label string
		want  []complex128 // E, C2, Ē, C̄2
	}{
		{label: "A", want: []complex128{1, 1, 1, 1}},
		{label: "B", want: []complex128{1, -1, 1, -1}},
		{label: "1E", want: []complex128{1, complex(0, 1), -1, complex(0, -1)}},
		{label: "2E", want: []complex128{1, complex(0, -1), -1, complex(0, 1)}},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			ir, err := findIrrep(table, "C2", "GM", tt.label)
			if err != nil {
				t.Fatal(err)
			}
			got := ir.Characters()
			for p, w := range tt.want {
				if cmplx.Abs(got[p]-w) > 1e-9 {
					t.Errorf("character at position %d = %v, want %v", p, got[p], w)
				}
			}
		})
	}

	// CharacterOf resolves group operations into little-group positions.
	oneE, err := findIrrep(table, "C2", "GM", "1E")
	if err != nil {
		t.Fatal(err)
	}
	chi, err := table.CharacterOf(oneE, g.Bar(g.Ops[1]))
	if err != nil {
		t.Fatalf("CharacterOf: %v", err)
	}
	if cmplx.Abs(chi-complex(0, -1)) > 1e-9 {
		t.Errorf("χ(C̄2) = %v, want -i", chi)
	}
}

func findIrrep(table *rep.Table, groupID, kLabel, label string) (*rep.IrRep, error) {
	irreps, err := table.RepsAt(groupID, kLabel)
	if err != nil {
		return nil, err
	}
	for _, ir := range irreps {
		if ir.Label == label {
			return ir, nil
		}
	}
	return nil, errors.New("irrep " + label + " not found")
}

func TestNonsymmorphicPhase(t *testing.T) {
	g := grouptest.Screw2(t, "P21")
	table := newTable(t, g)
	z := kspace.KVector{Label: "Z", Coords: frac.NewVec3(frac.Zero, frac.Zero, frac.New(1, 2))}

	chi := func(screw complex128) func(symmetry.Operation) complex128 {
		return func(op symmetry.Operation) complex128 {
			if op.Rotation.IsIdentity() {
				return 1
			}
			return screw
		}
	}

	// At k = (0,0,1/2) the screw squares with projective phase -1:
	// single-valued irreps carry χ(screw) = ±i, double-valued ones ±1.
	specs := []rep.IrRepSpec{
		grouptest.OneDimSpec(g, "Z1", false, chi(complex(0, 1))),
		grouptest.OneDimSpec(g, "Z2", false, chi(complex(0, -1))),
		grouptest.OneDimSpec(g, "Z3", true, chi(1)),
		grouptest.OneDimSpec(g, "Z4", true, chi(-1)),
	}
	if _, err := table.Add("P21", z, specs); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// The symmorphic sign pattern violates the projective phase here.
	bad := []rep.IrRepSpec{grouptest.OneDimSpec(g, "bad", false, chi(1))}
	table2 := newTable(t, grouptest.Screw2(t, "P21"))
	if _, err := table2.Add("P21", z, bad); !errors.Is(err, rep.ErrInvalidRepresentation) {
		t.Errorf("Add(symmorphic signs at Z) error = %v, want ErrInvalidRepresentation", err)
	}
}

func d4Specs(g *symmetry.Group) []rep.IrRepSpec {
	e12 := grouptest.SpinJSpec(g, "E1/2", 1)
	b1 := func(op symmetry.Operation) complex128 {
		switch op.Rotation {
		case grouptest.RotE, grouptest.RotC2z, grouptest.RotC2x, grouptest.RotC2y:
			return 1
		}
		return -1
	}
	e32 := grouptest.ScaledSpec(g, e12, "E3/2", b1)
	return []rep.IrRepSpec{e12, e32}
}

func TestSpinorRepresentations(t *testing.T) {
	g := grouptest.D4(t, "D4")
	table := newTable(t, g)
	if _, err := table.Add("D4", gamma(), d4Specs(g)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	e12, err := findIrrep(table, "D4", "GM", "E1/2")
	if err != nil {
		t.Fatal(err)
	}
	var c4 symmetry.Operation
	for _, op := range g.Ops[:g.Spatial()] {
		if op.Rotation == grouptest.RotC4z {
			c4 = op
		}
	}
	chi, err := table.CharacterOf(e12, c4)
	if err != nil {
		t.Fatalf("CharacterOf: %v", err)
	}
	if cmplx.Abs(chi-complex(math.Sqrt2, 0)) > 1e-9 {
		t.Errorf("χ_E1/2(C4) = %v, want √2", chi)
	}
	chiBar, err := table.CharacterOf(e12, g.Bar(c4))
	if err != nil {
		t.Fatalf("CharacterOf: %v", err)
	}
	if cmplx.Abs(chiBar+chi) > 1e-9 {
		t.Errorf("χ_E1/2(C̄4) = %v, want -χ_E1/2(C4)", chiBar)
	}
}

func TestOrthogonalityRejected(t *testing.T) {
	g := grouptest.C2(t, "C2")
	table := newTable(t, g)
	chi := func(op symmetry.Operation) complex128 { return 1 }
	specs := []rep.IrRepSpec{
		grouptest.OneDimSpec(g, "A", false, chi),
		grouptest.OneDimSpec(g, "A'", false, chi),
	}
	if _, err := table.Add("C2", gamma(), specs); !errors.Is(err, rep.ErrInvalidRepresentation) {
		t.Errorf("Add(duplicate characters) error = %v, want ErrInvalidRepresentation", err)
	}
}

func TestAddRejectsBrokenSpecs(t *testing.T) {
	g := grouptest.C2(t, "C2")

	tests := []struct {
		name string
		spec rep.IrRepSpec
	}{
		{
			name: "missing matrix",
			spec: rep.IrRepSpec{Label: "A", Dim: 1, Matrices: map[int][][]complex128{0: {{1}}}},
		},
		{
			name: "zero dimension",
			spec: rep.IrRepSpec{Label: "A", Dim: 0, Matrices: map[int][][]complex128{}},
		},
		{
			name: "dimension mismatch",
			spec: rep.IrRepSpec{Label: "A", Dim: 2, Matrices: map[int][][]complex128{
				0: {{1}}, 1: {{1}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := newTable(t, g)
			_, err := table.Add("C2", gamma(), []rep.IrRepSpec{tt.spec})
			if !errors.Is(err, rep.ErrInvalidRepresentation) {
				t.Errorf("Add() error = %v, want ErrInvalidRepresentation", err)
			}
		})
	}
}

func TestDuplicateKVectorRejected(t *testing.T) {
	g := grouptest.C2(t, "C2")
	table := newTable(t, g)
	if _, err := table.Add("C2", gamma(), c2Specs(g)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := table.Add("C2", gamma(), c2Specs(g)); !errors.Is(err, rep.ErrInvalidRepresentation) {
		t.Errorf("second Add at GM error = %v, want ErrInvalidRepresentation", err)
	}
}

func TestRepsAtUnknown(t *testing.T) {
	g := grouptest.C2(t, "C2")
	table := newTable(t, g)
	if _, err := table.RepsAt("P5", "GM"); !errors.Is(err, symmetry.ErrUnknownGroup) {
		t.Errorf("RepsAt(unknown group) error = %v, want ErrUnknownGroup", err)
	}
	if _, err := table.RepsAt("C2", "GM"); !errors.Is(err, rep.ErrUnknownKVector) {
		t.Errorf("RepsAt(unknown k) error = %v, want ErrUnknownKVector", err)
	}
	if _, err := table.KVector("C2", "GM"); !errors.Is(err, rep.ErrUnknownKVector) {
		t.Errorf("KVector(unknown k) error = %v, want ErrUnknownKVector", err)
	}
}

func TestDecomposeCharacters(t *testing.T) {
	g := grouptest.D4(t, "D4")
	table := newTable(t, g)
	irreps, err := table.Add("D4", gamma(), d4Specs(g))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	sum := make([]complex128, len(irreps[0].Characters()))
	for _, ir := range irreps {
		for p, chi := range ir.Characters() {
			sum[p] += chi
		}
	}

	terms, err := rep.DecomposeCharacters(sum, irreps, 4, rep.DefaultTolerance)
	if err != nil {
		t.Fatalf("DecomposeCharacters: %v", err)
	}
	if len(terms) != 2 || terms[0].Count != 1 || terms[1].Count != 1 {
		t.Errorf("decomposition = %+v, want one copy of each irrep", terms)
	}

	// A non-integer multiple of an irreducible character must be refused.
	scaled := make([]complex128, len(sum))
	for p, chi := range irreps[0].Characters() {
		scaled[p] = chi * complex(1.5, 0)
	}
	if _, err := rep.DecomposeCharacters(scaled, irreps, 0, rep.DefaultTolerance); !errors.Is(err, rep.ErrNonIntegerMultiplicity) {
		t.Errorf("DecomposeCharacters(1.5·χ) error = %v, want ErrNonIntegerMultiplicity", err)
	}

	// A character that cannot account for the expected dimension fails.
	if _, err := rep.DecomposeCharacters(irreps[0].Characters(), irreps, 4, rep.DefaultTolerance); !errors.Is(err, rep.ErrNonIntegerMultiplicity) {
		t.Errorf("DecomposeCharacters(short dim) error = %v, want ErrNonIntegerMultiplicity", err)
	}
}
