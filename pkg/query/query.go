// Package query is the read-only façade over the representation engine.
// Reporting and CLI collaborators consume it; they never reach into the
// engine packages directly.
package query

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/blochlab/dgrep/pkg/bandrep"
	"github.com/blochlab/dgrep/pkg/compat"
	"github.com/blochlab/dgrep/pkg/frac"
	"github.com/blochlab/dgrep/pkg/kspace"
	"github.com/blochlab/dgrep/pkg/logger"
	"github.com/blochlab/dgrep/pkg/rep"
	"github.com/blochlab/dgrep/pkg/symmetry"
)

// Client exposes lookups and computed relations. All methods are
// read-only and safe for unlimited concurrent use once the underlying
// tables are loaded.
type Client struct {
	store    *symmetry.Store
	table    *rep.Table
	resolver *kspace.Resolver
	compat   *compat.Client
	bandrep  *bandrep.Client
	parallel int
}

// NewClientParams wires a query client to loaded engines.
type NewClientParams struct {
	Store    *symmetry.Store
	Table    *rep.Table
	Resolver *kspace.Resolver
	Compat   *compat.Client
	BandRep  *bandrep.Client

	// Parallel bounds concurrent derivations in WarmCompatibility;
	// defaults to 4.
	Parallel int
}

// NewClient creates the façade.
func NewClient(params NewClientParams) (*Client, error) {
	if params.Store == nil || params.Table == nil || params.Resolver == nil ||
		params.Compat == nil || params.BandRep == nil {
		return nil, fmt.Errorf("query: client requires store, table, resolver and engines")
	}
	parallel := params.Parallel
	if parallel <= 0 {
		parallel = 4
	}
	return &Client{
		store:    params.Store,
		table:    params.Table,
		resolver: params.Resolver,
		compat:   params.Compat,
		bandrep:  params.BandRep,
		parallel: parallel,
	}, nil
}

// Groups returns the identifiers of every loaded double group.
func (c *Client) Groups() []string {
	return c.store.GroupIDs()
}

// Operations returns the ordered operation list of a double group,
// barred partners included.
func (c *Client) Operations(groupID string) ([]symmetry.Operation, error) {
	g, err := c.store.Group(groupID)
	if err != nil {
		return nil, err
	}
	ops := make([]symmetry.Operation, len(g.Ops))
	copy(ops, g.Ops)
	return ops, nil
}

// Identity returns the unbarred identity operation of a group.
func (c *Client) Identity(groupID string) (symmetry.Operation, error) {
	g, err := c.store.Group(groupID)
	if err != nil {
		return symmetry.Operation{}, err
	}
	return g.Identity(), nil
}

// Compose returns the exact composition of two operations of a group,
// identified by their indices.
func (c *Client) Compose(groupID string, a, b int) (symmetry.Operation, error) {
	g, err := c.store.Group(groupID)
	if err != nil {
		return symmetry.Operation{}, err
	}
	if a < 0 || a >= g.Order() || b < 0 || b >= g.Order() {
		return symmetry.Operation{}, fmt.Errorf("%w: operation index out of range in %q",
			symmetry.ErrInvalidOperation, groupID)
	}
	return g.Compose(g.Ops[a], g.Ops[b])
}

// RepsAt returns the irreducible representations curated for a
// (group, k-label) pair.
func (c *Client) RepsAt(groupID, kLabel string) ([]*rep.IrRep, error) {
	return c.table.RepsAt(groupID, kLabel)
}

// CharacterOf returns the character of an irrep on one operation of its
// little group.
func (c *Client) CharacterOf(ir *rep.IrRep, op symmetry.Operation) (complex128, error) {
	return c.table.CharacterOf(ir, op)
}

// LittleGroup resolves the little group of k within a double group.
func (c *Client) LittleGroup(groupID string, k kspace.KVector) (*kspace.LittleGroup, error) {
	return c.resolver.LittleGroup(groupID, k)
}

// Star returns the star of k under the group's point-group action.
func (c *Client) Star(groupID string, k kspace.KVector) ([]frac.Vec3, error) {
	return c.resolver.Star(groupID, k)
}

// CharacterTable is the character of every curated irrep on every
// little-group operation at one k-vector. Rows follow the curated irrep
// order, columns the little-group operation order.
type CharacterTable struct {
	GroupID string
	K       kspace.KVector
	OpIdx   []int
	Labels  []string
	Rows    [][]complex128
}

// CharacterTable assembles the character table of a (group, k-label)
// pair.
func (c *Client) CharacterTable(groupID, kLabel string) (*CharacterTable, error) {
	irreps, err := c.table.RepsAt(groupID, kLabel)
	if err != nil {
		return nil, err
	}
	k, err := c.table.KVector(groupID, kLabel)
	if err != nil {
		return nil, err
	}
	ct := &CharacterTable{GroupID: groupID, K: k}
	if len(irreps) > 0 {
		lg := irreps[0].Little()
		ct.OpIdx = append(ct.OpIdx, lg.OpIdx...)
	}
	for _, ir := range irreps {
		ct.Labels = append(ct.Labels, ir.Label)
		ct.Rows = append(ct.Rows, ir.Characters())
	}
	return ct, nil
}

// Compatibility computes (or serves from cache) the compatibility
// relations for a request.
func (c *Client) Compatibility(req compat.Request) ([]compat.Relation, error) {
	return c.compat.Relations(req)
}

// WarmCompatibility derives a batch of compatibility relations in
// parallel. Independent keys share no state, so the only coordination is
// the insert-once cache discipline of the engine itself.
func (c *Client) WarmCompatibility(ctx context.Context, reqs []compat.Request) error {
	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(c.parallel)
	for _, req := range reqs {
		r := req
		eg.Go(func() error {
			_, err := c.compat.Relations(r)
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("failed to warm compatibility cache: %w", err)
	}
	logger.Info("[Query] Compatibility cache warmed", "requests", len(reqs))
	return nil
}

// BandRepresentation induces a band representation and classifies it
// against the band representations of the group's maximal Wyckoff
// positions. The returned value is the caller's copy with the Elementary
// flag resolved.
func (c *Client) BandRepresentation(req bandrep.InduceRequest) (*bandrep.BandRepresentation, error) {
	induced, err := c.bandrep.Induce(req)
	if err != nil {
		return nil, err
	}
	basis, err := c.maximalBasis(req)
	if err != nil {
		return nil, err
	}
	out := *induced
	out.Elementary = c.bandrep.Classify(induced, basis)
	return &out, nil
}

// maximalBasis induces the band representations of every site-symmetry
// irrep at every maximal Wyckoff position, evaluated at the same
// k-vectors as the request.
func (c *Client) maximalBasis(req bandrep.InduceRequest) ([]*bandrep.BandRepresentation, error) {
	positions, err := c.bandrep.Wyckoffs(req.GroupID)
	if err != nil {
		return nil, err
	}
	var basis []*bandrep.BandRepresentation
	for _, w := range positions {
		if !w.Maximal {
			continue
		}
		siteReps, err := c.table.RepsAt(w.SiteGroupID, w.SiteKLabel)
		if err != nil {
			return nil, err
		}
		for _, ir := range siteReps {
			br, err := c.bandrep.Induce(bandrep.InduceRequest{
				GroupID:   req.GroupID,
				Wyckoff:   w.Label,
				SiteIrRep: ir.Label,
				KVectors:  req.KVectors,
			})
			if err != nil {
				return nil, err
			}
			basis = append(basis, br)
		}
	}
	return basis, nil
}
