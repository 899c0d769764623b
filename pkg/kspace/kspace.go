// Package kspace resolves little groups and stars of k-vectors.
//
// All membership checks compare exact rational coordinates modulo the
// reciprocal lattice; floating point never decides whether a k-vector is
// left invariant.
package kspace

import (
	"errors"
	"fmt"

	"github.com/blochlab/dgrep/pkg/frac"
	"github.com/blochlab/dgrep/pkg/symmetry"
)

// ErrDisconnectedKPath is returned when a requested k-vector pair is not
// connected by a lattice-consistent symmetry-lowering path.
var ErrDisconnectedKPath = errors.New("kspace: k-vectors are not connected by a valid path")

// KVector is a point in reciprocal space with exact rational coordinates
// over the reciprocal-lattice basis. The label is an opaque curated key
// ("GM", "X", "DT", ...).
type KVector struct {
	Label  string
	Coords frac.Vec3
}

// LittleGroup is the subset of a double group leaving a k-vector invariant
// modulo a reciprocal-lattice vector. OpIdx holds indices into the group's
// operation list, barred partners included, in group order.
type LittleGroup struct {
	GroupID string
	K       KVector
	OpIdx   []int
}

// Order returns the order of the little group.
func (lg *LittleGroup) Order() int { return len(lg.OpIdx) }

// Contains reports whether the group operation index is in the little
// group.
func (lg *LittleGroup) Contains(idx int) bool {
	for _, i := range lg.OpIdx {
		if i == idx {
			return true
		}
	}
	return false
}

// Resolver computes little groups and stars against a symmetry store.
type Resolver struct {
	store *symmetry.Store
}

// NewResolverParams configures a Resolver.
type NewResolverParams struct {
	Store *symmetry.Store
}

// NewResolver creates a resolver bound to a store.
func NewResolver(params NewResolverParams) (*Resolver, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("kspace: resolver requires a store")
	}
	return &Resolver{store: params.Store}, nil
}

// mapsKToItself reports g·k ≡ k modulo the reciprocal lattice, with k
// transforming as a row vector: (k·R)_j = Σ_i k_i R_ij.
func mapsKToItself(op symmetry.Operation, k frac.Vec3) bool {
	return op.Rotation.MulRow(k).EqualMod1(k)
}

// LittleGroup returns the little group of k in the given double group.
// Barred partners share the rotational part and are always included
// alongside their unbarred operation.
func (r *Resolver) LittleGroup(groupID string, k KVector) (*LittleGroup, error) {
	g, err := r.store.Group(groupID)
	if err != nil {
		return nil, err
	}
	lg := &LittleGroup{GroupID: groupID, K: k}
	for _, op := range g.Ops {
		if mapsKToItself(op, k.Coords) {
			lg.OpIdx = append(lg.OpIdx, op.Index)
		}
	}
	return lg, nil
}

// Star returns the orbit of k under the group's point-group action,
// deduplicated modulo the reciprocal lattice, in first-encounter order.
func (r *Resolver) Star(groupID string, k KVector) ([]frac.Vec3, error) {
	g, err := r.store.Group(groupID)
	if err != nil {
		return nil, err
	}
	var star []frac.Vec3
	seen := make(map[string]struct{})
	for _, op := range g.Ops[:g.Spatial()] {
		kk := op.Rotation.MulRow(k.Coords).Mod1()
		key := kk.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		star = append(star, kk)
	}
	return star, nil
}

// ValidatePath checks that `to` lies on a continuous symmetry-lowering
// path starting at `from`: the little group of the rational midpoint must
// equal the little group of `to`, and both must be contained in the
// little group of `from`. A high-symmetry endpoint therefore always goes
// first.
func (r *Resolver) ValidatePath(groupID string, from, to KVector) error {
	lgFrom, err := r.LittleGroup(groupID, from)
	if err != nil {
		return err
	}
	lgTo, err := r.LittleGroup(groupID, to)
	if err != nil {
		return err
	}
	mid := KVector{
		Label:  from.Label + "-" + to.Label,
		Coords: from.Coords.Add(to.Coords).Scale(frac.New(1, 2)),
	}
	lgMid, err := r.LittleGroup(groupID, mid)
	if err != nil {
		return err
	}
	if !sameIdxSet(lgMid.OpIdx, lgTo.OpIdx) {
		return fmt.Errorf("%w: interior of %s..%s has lower symmetry than %s",
			ErrDisconnectedKPath, from.Label, to.Label, to.Label)
	}
	if !subsetIdx(lgTo.OpIdx, lgFrom.OpIdx) {
		return fmt.Errorf("%w: little group of %s is not contained in that of %s",
			ErrDisconnectedKPath, to.Label, from.Label)
	}
	return nil
}

func sameIdxSet(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	return subsetIdx(a, b)
}

func subsetIdx(sub, super []int) bool {
	set := make(map[int]struct{}, len(super))
	for _, i := range super {
		set[i] = struct{}{}
	}
	for _, i := range sub {
		if _, ok := set[i]; !ok {
			return false
		}
	}
	return true
}
