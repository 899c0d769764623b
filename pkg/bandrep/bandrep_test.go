package bandrep_test

import (
	"errors"
	"testing"

	"github.com/blochlab/dgrep/internal/grouptest"
	"github.com/blochlab/dgrep/pkg/bandrep"
	"github.com/blochlab/dgrep/pkg/frac"
	"github.com/blochlab/dgrep/pkg/kspace"
	"github.com/blochlab/dgrep/pkg/rep"
	"github.com/blochlab/dgrep/pkg/symmetry"
)

// newMonoclinicFixture loads the symmorphic twofold space group with its
// trivial-site companion: representations at the zone center and at
// Z = (0,0,1/2), a maximal Wyckoff position at the origin, and a
// general position of multiplicity two.
func newMonoclinicFixture(t *testing.T) *bandrep.Client {
	t.Helper()
	store := symmetry.NewStore()
	p2 := grouptest.C2(t, "P2")
	c1 := grouptest.C1(t, "C1")
	for _, g := range []*symmetry.Group{p2, c1} {
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

	oneDim := func(g *symmetry.Group, prefix string) []rep.IrRepSpec {
		chi := func(c2 complex128) func(symmetry.Operation) complex128 {
			return func(op symmetry.Operation) complex128 {
				if op.Rotation.IsIdentity() {
					return 1
				}
				return c2
			}
		}
		return []rep.IrRepSpec{
			grouptest.OneDimSpec(g, prefix+"A", false, chi(1)),
			grouptest.OneDimSpec(g, prefix+"B", false, chi(-1)),
			grouptest.OneDimSpec(g, prefix+"1E", true, chi(complex(0, 1))),
			grouptest.OneDimSpec(g, prefix+"2E", true, chi(complex(0, -1))),
		}
	}

	gm := kspace.KVector{Label: "GM", Coords: frac.Vec3{}}
	z := kspace.KVector{Label: "Z", Coords: frac.NewVec3(frac.Zero, frac.Zero, frac.New(1, 2))}
	if _, err := table.Add("P2", gm, oneDim(p2, "")); err != nil {
		t.Fatalf("Add(P2 at GM): %v", err)
	}
	if _, err := table.Add("P2", z, oneDim(p2, "Z")); err != nil {
		t.Fatalf("Add(P2 at Z): %v", err)
	}

	one := func(symmetry.Operation) complex128 { return 1 }
	c1Specs := []rep.IrRepSpec{
		grouptest.OneDimSpec(c1, "S", false, one),
		grouptest.OneDimSpec(c1, "Sb", true, one),
	}
	if _, err := table.Add("C1", gm, c1Specs); err != nil {
		t.Fatalf("Add(C1 at GM): %v", err)
	}

	client, err := bandrep.NewClient(bandrep.NewClientParams{
		Store: store, Table: table, Resolver: resolver,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if err := client.AddWyckoff(bandrep.Wyckoff{
		Label: "1a", GroupID: "P2", SiteGroupID: "P2",
		Site: frac.Vec3{}, Multiplicity: 1, Maximal: true, SiteKLabel: "GM",
	}, []int{0, 1}); err != nil {
		t.Fatalf("AddWyckoff(1a): %v", err)
	}
	if err := client.AddWyckoff(bandrep.Wyckoff{
		Label: "2c", GroupID: "P2", SiteGroupID: "C1",
		Site:         frac.NewVec3(frac.New(1, 4), frac.Zero, frac.Zero),
		Multiplicity: 2, SiteKLabel: "GM",
	}, []int{0}); err != nil {
		t.Fatalf("AddWyckoff(2c): %v", err)
	}
	return client
}

func pathKVectors() []kspace.KVector {
	return []kspace.KVector{
		{Label: "GM", Coords: frac.Vec3{}},
		{Label: "Z", Coords: frac.NewVec3(frac.Zero, frac.Zero, frac.New(1, 2))},
	}
}

func contentMap(t *testing.T, br *bandrep.BandRepresentation, kLabel string) map[string]int {
	t.Helper()
	for _, content := range br.Contents {
		if content.K.Label != kLabel {
			continue
		}
		m := make(map[string]int)
		for _, term := range content.Terms {
			m[term.Label] = term.Count
		}
		return m
	}
	t.Fatalf("no content at %s", kLabel)
	return nil
}

func TestInduce(t *testing.T) {
	client := newMonoclinicFixture(t)

	tests := []struct {
		name    string
		req     bandrep.InduceRequest
		dim     int
		double  bool
		wantGM  map[string]int
		wantZ   map[string]int
	}{
		{
			name:   "origin site trivial irrep",
			req:    bandrep.InduceRequest{GroupID: "P2", Wyckoff: "1a", SiteIrRep: "A", KVectors: pathKVectors()},
			dim:    1,
			wantGM: map[string]int{"A": 1},
			wantZ:  map[string]int{"ZA": 1},
		},
		{
			name:   "origin site spinor irrep",
			req:    bandrep.InduceRequest{GroupID: "P2", Wyckoff: "1a", SiteIrRep: "1E", KVectors: pathKVectors()},
			dim:    1,
			double: true,
			wantGM: map[string]int{"1E": 1},
			wantZ:  map[string]int{"Z1E": 1},
		},
		{
			name:   "general position scalar",
			req:    bandrep.InduceRequest{GroupID: "P2", Wyckoff: "2c", SiteIrRep: "S", KVectors: pathKVectors()},
			dim:    2,
			wantGM: map[string]int{"A": 1, "B": 1},
			wantZ:  map[string]int{"ZA": 1, "ZB": 1},
		},
		{
			name:   "general position spinor",
			req:    bandrep.InduceRequest{GroupID: "P2", Wyckoff: "2c", SiteIrRep: "Sb", KVectors: pathKVectors()},
			dim:    2,
			double: true,
			wantGM: map[string]int{"1E": 1, "2E": 1},
			wantZ:  map[string]int{"Z1E": 1, "Z2E": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			br, err := client.Induce(tt.req)
			if err != nil {
				t.Fatalf("Induce: %v", err)
			}
			if br.Dim != tt.dim {
				t.Errorf("dimension = %d, want %d", br.Dim, tt.dim)
			}
			if br.DoubleValued != tt.double {
				t.Errorf("double-valued = %v, want %v", br.DoubleValued, tt.double)
			}
			if got := contentMap(t, br, "GM"); !mapsEqual(got, tt.wantGM) {
				t.Errorf("content at GM = %v, want %v", got, tt.wantGM)
			}
			if got := contentMap(t, br, "Z"); !mapsEqual(got, tt.wantZ) {
				t.Errorf("content at Z = %v, want %v", got, tt.wantZ)
			}
		})
	}
}

func mapsEqual(a, b map[string]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

func TestInduceErrors(t *testing.T) {
	client := newMonoclinicFixture(t)

	tests := []struct {
		name string
		req  bandrep.InduceRequest
		want error
	}{
		{
			name: "unknown wyckoff",
			req:  bandrep.InduceRequest{GroupID: "P2", Wyckoff: "3d", SiteIrRep: "A", KVectors: pathKVectors()},
			want: bandrep.ErrIncompatibleSite,
		},
		{
			name: "unknown site irrep",
			req:  bandrep.InduceRequest{GroupID: "P2", Wyckoff: "1a", SiteIrRep: "Q", KVectors: pathKVectors()},
			want: bandrep.ErrIncompatibleSite,
		},
		{
			name: "dimension mismatch",
			req:  bandrep.InduceRequest{GroupID: "P2", Wyckoff: "1a", SiteIrRep: "A", Dim: 2, KVectors: pathKVectors()},
			want: bandrep.ErrIncompatibleSite,
		},
		{
			name: "unknown group",
			req:  bandrep.InduceRequest{GroupID: "P3", Wyckoff: "1a", SiteIrRep: "A", KVectors: pathKVectors()},
			want: symmetry.ErrUnknownGroup,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := client.Induce(tt.req); !errors.Is(err, tt.want) {
				t.Errorf("Induce() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAddWyckoffRejects(t *testing.T) {
	client := newMonoclinicFixture(t)

	tests := []struct {
		name      string
		w         bandrep.Wyckoff
		embedding []int
	}{
		{
			name: "site not fixed by embedded operations",
			w: bandrep.Wyckoff{Label: "x", GroupID: "P2", SiteGroupID: "P2",
				Site: frac.NewVec3(frac.New(1, 4), frac.Zero, frac.Zero), Multiplicity: 2, SiteKLabel: "GM"},
			embedding: []int{0, 1},
		},
		{
			name: "wrong multiplicity",
			w: bandrep.Wyckoff{Label: "x", GroupID: "P2", SiteGroupID: "C1",
				Site: frac.NewVec3(frac.New(1, 4), frac.Zero, frac.Zero), Multiplicity: 1, SiteKLabel: "GM"},
			embedding: []int{0},
		},
		{
			name: "short embedding",
			w: bandrep.Wyckoff{Label: "x", GroupID: "P2", SiteGroupID: "P2",
				Site: frac.Vec3{}, Multiplicity: 1, SiteKLabel: "GM"},
			embedding: []int{0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := client.AddWyckoff(tt.w, tt.embedding); !errors.Is(err, bandrep.ErrIncompatibleSite) {
				t.Errorf("AddWyckoff() error = %v, want ErrIncompatibleSite", err)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	client := newMonoclinicFixture(t)

	induce := func(wyckoff, irrep string) *bandrep.BandRepresentation {
		br, err := client.Induce(bandrep.InduceRequest{
			GroupID: "P2", Wyckoff: wyckoff, SiteIrRep: irrep, KVectors: pathKVectors(),
		})
		if err != nil {
			t.Fatalf("Induce(%s, %s): %v", wyckoff, irrep, err)
		}
		return br
	}

	basis := []*bandrep.BandRepresentation{
		induce("1a", "A"), induce("1a", "B"), induce("1a", "1E"), induce("1a", "2E"),
	}

	// The general-position scalar band representation is the sum of the
	// two scalar ones from the origin site.
	if client.Classify(induce("2c", "S"), basis) {
		t.Errorf("general-position band representation classified as elementary")
	}
	// A maximal-site band representation is not decomposable over the
	// remaining basis.
	if !client.Classify(induce("1a", "A"), basis) {
		t.Errorf("origin-site band representation classified as composite")
	}
	// Classification never mutates the cached candidate.
	if induce("1a", "A").Elementary {
		t.Errorf("Classify mutated a cached band representation")
	}
}
