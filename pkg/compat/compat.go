// Package compat computes compatibility relations: the subduction of
// little-group irreducible representations onto those of a subgroup at a
// connected k-vector.
package compat

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/blochlab/dgrep/pkg/kspace"
	"github.com/blochlab/dgrep/pkg/logger"
	"github.com/blochlab/dgrep/pkg/rep"
	"github.com/blochlab/dgrep/pkg/symmetry"
)

// Request identifies one compatibility computation. KSub must be
// connected to K by a continuous symmetry-lowering path.
//
// Embedding optionally overrides the curated embedding of SubGroup into
// SuperGroup: entry i is the supergroup operation index the i-th unbarred
// subgroup operation maps to. When more than one conjugate embedding
// exists the caller must choose; the engine never guesses. Nil selects
// the curated embedding from the store, or the identity map when both
// groups coincide.
type Request struct {
	SuperGroup string
	SubGroup   string
	K          kspace.KVector
	KSub       kspace.KVector
	Embedding  []int
}

// Relation is the decomposition of one supergroup irrep restricted to the
// subgroup's little group.
type Relation struct {
	SuperLabel string
	SuperDim   int
	Terms      []rep.Multiplicity
}

// Client computes and caches compatibility relations. Results are
// immutable; the cache admits at most one computation per key, and
// concurrent requesters share the first result.
type Client struct {
	store    *symmetry.Store
	table    *rep.Table
	resolver *kspace.Resolver
	tol      float64

	cache sync.Map
	group singleflight.Group
}

// NewClientParams configures a compatibility engine.
type NewClientParams struct {
	Store    *symmetry.Store
	Table    *rep.Table
	Resolver *kspace.Resolver

	// Tolerance for the integer-multiplicity check; the table's
	// tolerance when zero.
	Tolerance float64
}

// NewClient creates a compatibility engine.
func NewClient(params NewClientParams) (*Client, error) {
	if params.Store == nil || params.Table == nil || params.Resolver == nil {
		return nil, fmt.Errorf("compat: client requires store, table and resolver")
	}
	tol := params.Tolerance
	if tol <= 0 {
		tol = params.Table.Tolerance()
	}
	return &Client{
		store:    params.Store,
		table:    params.Table,
		resolver: params.Resolver,
		tol:      tol,
	}, nil
}

func (r Request) key() string {
	var b strings.Builder
	b.WriteString(r.SuperGroup)
	b.WriteByte('|')
	b.WriteString(r.SubGroup)
	b.WriteByte('|')
	b.WriteString(r.K.Label)
	b.WriteString(r.K.Coords.String())
	b.WriteByte('|')
	b.WriteString(r.KSub.Label)
	b.WriteString(r.KSub.Coords.String())
	for _, i := range r.Embedding {
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(i))
	}
	return b.String()
}

// Relations returns the compatibility relations for every irrep of the
// supergroup little group at K, each decomposed into irreps of the
// subgroup little group at KSub.
func (c *Client) Relations(req Request) ([]Relation, error) {
	key := req.key()
	if cached, ok := c.cache.Load(key); ok {
		return cached.([]Relation), nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		rels, err := c.compute(req)
		if err != nil {
			return nil, err
		}
		c.cache.LoadOrStore(key, rels)
		return rels, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Relation), nil
}

func (c *Client) compute(req Request) ([]Relation, error) {
	super, err := c.store.Group(req.SuperGroup)
	if err != nil {
		return nil, err
	}
	sub, err := c.store.Group(req.SubGroup)
	if err != nil {
		return nil, err
	}
	embed, err := c.embedding(req, super, sub)
	if err != nil {
		return nil, err
	}

	// The path check runs on the supergroup: KSub must sit on a
	// symmetry-lowering path out of K.
	if !req.K.Coords.EqualMod1(req.KSub.Coords) {
		kSubInSuper := kspace.KVector{Label: req.KSub.Label, Coords: req.KSub.Coords}
		if err := c.resolver.ValidatePath(req.SuperGroup, req.K, kSubInSuper); err != nil {
			return nil, err
		}
	}

	superReps, err := c.table.RepsAt(req.SuperGroup, req.K.Label)
	if err != nil {
		return nil, err
	}
	subReps, err := c.table.RepsAt(req.SubGroup, req.KSub.Label)
	if err != nil {
		return nil, err
	}
	if len(subReps) == 0 {
		return nil, fmt.Errorf("%w: no irreps at %s in %q", rep.ErrUnknownKVector, req.KSub.Label, req.SubGroup)
	}
	lgSub := subReps[0].Little()

	rels := make([]Relation, 0, len(superReps))
	for _, sup := range superReps {
		restricted := make([]complex128, lgSub.Order())
		for pos, subIdx := range lgSub.OpIdx {
			superIdx := embed.OpIndex(sub, super, subIdx)
			chi, err := c.table.CharacterOf(sup, super.Ops[superIdx])
			if err != nil {
				return nil, fmt.Errorf("%w: image of %s under the embedding leaves the little group at %s",
					kspace.ErrDisconnectedKPath, sub.Ops[subIdx], req.K.Label)
			}
			restricted[pos] = chi
		}
		terms, err := rep.DecomposeCharacters(restricted, subReps, sup.Dim, c.tol)
		if err != nil {
			return nil, fmt.Errorf("subducing %q from %s to %s: %w",
				sup.Label, req.K.Label, req.KSub.Label, err)
		}
		rels = append(rels, Relation{SuperLabel: sup.Label, SuperDim: sup.Dim, Terms: terms})
	}
	logger.Debug("[Compat] Relations computed",
		"super", req.SuperGroup, "sub", req.SubGroup,
		"k", req.K.Label, "k_sub", req.KSub.Label, "irreps", len(rels))
	return rels, nil
}

func (c *Client) embedding(req Request, super, sub *symmetry.Group) (symmetry.Embedding, error) {
	if req.Embedding != nil {
		e := symmetry.Embedding{Super: req.SuperGroup, Sub: req.SubGroup, Map: req.Embedding}
		if len(e.Map) != sub.Spatial() {
			return symmetry.Embedding{}, fmt.Errorf("%w: explicit map covers %d of %d operations",
				symmetry.ErrInvalidEmbedding, len(e.Map), sub.Spatial())
		}
		return e, nil
	}
	if req.SuperGroup == req.SubGroup {
		identity := make([]int, sub.Spatial())
		for i := range identity {
			identity[i] = i
		}
		return symmetry.Embedding{Super: req.SuperGroup, Sub: req.SubGroup, Map: identity}, nil
	}
	return c.store.Embedding(req.SuperGroup, req.SubGroup)
}
