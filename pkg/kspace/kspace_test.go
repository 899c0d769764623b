package kspace_test

import (
	"errors"
	"testing"

	"github.com/blochlab/dgrep/internal/grouptest"
	"github.com/blochlab/dgrep/pkg/frac"
	"github.com/blochlab/dgrep/pkg/kspace"
	"github.com/blochlab/dgrep/pkg/symmetry"
)

func newResolver(t *testing.T, groups ...*symmetry.Group) *kspace.Resolver {
	t.Helper()
	store := symmetry.NewStore()
	for _, g := range groups {
		if err := store.AddGroup(g); err != nil {
			t.Fatalf("AddGroup(%s): %v", g.ID, err)
		}
	}
	r, err := kspace.NewResolver(kspace.NewResolverParams{Store: store})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return r
}

func kv(label string, a, b, c frac.Frac) kspace.KVector {
	return kspace.KVector{Label: label, Coords: frac.NewVec3(a, b, c)}
}

func TestLittleGroup(t *testing.T) {
	half := frac.New(1, 2)
	quarter := frac.New(1, 4)
	r := newResolver(t, grouptest.C4(t, "P4"))

	tests := []struct {
		name      string
		k         kspace.KVector
		wantOrder int
	}{
		{name: "zone center", k: kv("GM", frac.Zero, frac.Zero, frac.Zero), wantOrder: 8},
		{name: "zone corner", k: kv("M", half, half, frac.Zero), wantOrder: 8},
		{name: "zone edge", k: kv("X", half, frac.Zero, frac.Zero), wantOrder: 4},
		{name: "fourfold axis", k: kv("LD", frac.Zero, frac.Zero, quarter), wantOrder: 8},
		{name: "general point", k: kv("GP", frac.Zero, quarter, frac.Zero), wantOrder: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, err := r.LittleGroup("P4", tt.k)
			if err != nil {
				t.Fatalf("LittleGroup: %v", err)
			}
			if lg.Order() != tt.wantOrder {
				t.Errorf("order = %d, want %d", lg.Order(), tt.wantOrder)
			}
			// The double group has order 8 here; every little group divides it.
			if 8%lg.Order() != 0 {
				t.Errorf("little-group order %d does not divide 8", lg.Order())
			}
			// Barred partners stand or fall together.
			for _, idx := range lg.OpIdx {
				partner := (idx + 4) % 8
				if !lg.Contains(partner) {
					t.Errorf("operation %d is in the little group but its partner %d is not", idx, partner)
				}
			}
		})
	}
}

func TestStar(t *testing.T) {
	half := frac.New(1, 2)
	quarter := frac.New(1, 4)
	r := newResolver(t, grouptest.C4(t, "P4"))

	tests := []struct {
		name     string
		k        kspace.KVector
		wantSize int
	}{
		{name: "zone center", k: kv("GM", frac.Zero, frac.Zero, frac.Zero), wantSize: 1},
		{name: "invariant corner", k: kv("M", half, half, frac.Zero), wantSize: 1},
		{name: "edge pair", k: kv("X", half, frac.Zero, frac.Zero), wantSize: 2},
		{name: "general orbit", k: kv("GP", frac.Zero, quarter, frac.Zero), wantSize: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			star, err := r.Star("P4", tt.k)
			if err != nil {
				t.Fatalf("Star: %v", err)
			}
			if len(star) != tt.wantSize {
				t.Errorf("star size = %d, want %d", len(star), tt.wantSize)
			}
			// |star| · |little group| = |G| on the spatial level.
			lg, err := r.LittleGroup("P4", tt.k)
			if err != nil {
				t.Fatalf("LittleGroup: %v", err)
			}
			if len(star)*lg.Order()/2 != 4 {
				t.Errorf("|star|·|little group| = %d, want the spatial order 4", len(star)*lg.Order()/2)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	half := frac.New(1, 2)
	quarter := frac.New(1, 4)
	r := newResolver(t, grouptest.C4(t, "P4"), grouptest.D4(t, "P422"))

	tests := []struct {
		name    string
		group   string
		from    kspace.KVector
		to      kspace.KVector
		wantErr bool
	}{
		{
			name:  "center to fourfold line",
			group: "P4",
			from:  kv("GM", frac.Zero, frac.Zero, frac.Zero),
			to:    kv("LD", frac.Zero, frac.Zero, quarter),
		},
		{
			name:  "zone-face center to fourfold line",
			group: "P4",
			from:  kv("Z", frac.Zero, frac.Zero, half),
			to:    kv("LD", frac.Zero, frac.Zero, quarter),
		},
		{
			name:  "center to twofold line",
			group: "P422",
			from:  kv("GM", frac.Zero, frac.Zero, frac.Zero),
			to:    kv("DT", frac.Zero, quarter, frac.Zero),
		},
		{
			name:    "corner straight to edge crosses lower symmetry",
			group:   "P4",
			from:    kv("M", half, half, frac.Zero),
			to:      kv("X", half, frac.Zero, frac.Zero),
			wantErr: true,
		},
		{
			name:    "low endpoint first",
			group:   "P4",
			from:    kv("GP", frac.Zero, quarter, frac.Zero),
			to:      kv("M", half, half, frac.Zero),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.ValidatePath(tt.group, tt.from, tt.to)
			if tt.wantErr {
				if !errors.Is(err, kspace.ErrDisconnectedKPath) {
					t.Errorf("ValidatePath() error = %v, want ErrDisconnectedKPath", err)
				}
				return
			}
			if err != nil {
				t.Errorf("ValidatePath() error = %v", err)
			}
		})
	}
}

func TestResolverUnknownGroup(t *testing.T) {
	r := newResolver(t, grouptest.C4(t, "P4"))
	_, err := r.LittleGroup("P5", kv("GM", frac.Zero, frac.Zero, frac.Zero))
	if !errors.Is(err, symmetry.ErrUnknownGroup) {
		t.Errorf("LittleGroup(unknown) error = %v, want ErrUnknownGroup", err)
	}
}
