// Package bandrep induces band representations from Wyckoff-position
// site-symmetry representations and classifies them as elementary or
// composite.
package bandrep

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/blochlab/dgrep/pkg/frac"
	"github.com/blochlab/dgrep/pkg/kspace"
	"github.com/blochlab/dgrep/pkg/logger"
	"github.com/blochlab/dgrep/pkg/rep"
	"github.com/blochlab/dgrep/pkg/symmetry"
)

// ErrIncompatibleSite is returned when a requested site-symmetry
// representation does not match the Wyckoff position's curated tables:
// unknown labels, dimension or spinor-type mismatches, or an orbit that
// disagrees with the curated multiplicity.
var ErrIncompatibleSite = errors.New("bandrep: representation incompatible with site-symmetry group")

// Wyckoff is a curated Wyckoff position: a site in the unit cell, the
// identifier of its site-symmetry double group, and the orbit
// multiplicity per primitive cell.
type Wyckoff struct {
	Label        string
	GroupID      string
	SiteGroupID  string
	Site         frac.Vec3
	Multiplicity int

	// Maximal marks positions whose site-symmetry group is not a
	// proper subgroup of another site's. Only band representations
	// induced from maximal positions enter the elementary basis.
	Maximal bool

	// SiteKLabel is the k-label under which the site group's
	// representations are registered in the table, conventionally the
	// zone center.
	SiteKLabel string
}

type wyckoffEntry struct {
	w         Wyckoff
	embedding []int
	orbit     []orbitPoint
}

// orbitPoint is one site of the Wyckoff orbit together with the coset
// representative carrying the canonical site onto it.
type orbitPoint struct {
	point frac.Vec3
	coset symmetry.Operation
}

// InduceRequest identifies one band-representation computation.
type InduceRequest struct {
	GroupID   string
	Wyckoff   string
	SiteIrRep string

	// Dim, when non-zero, asserts the expected dimension of the site
	// representation; a mismatch returns ErrIncompatibleSite.
	Dim int

	// KVectors lists the curated star representatives the induced
	// content is evaluated at. Representations must be loaded for each.
	KVectors []kspace.KVector
}

// Content is the little-group representation content of a band
// representation at one k-vector.
type Content struct {
	K     kspace.KVector
	Terms []rep.Multiplicity
}

// BandRepresentation is the representation content induced across the
// Brillouin zone from one site-symmetry irrep at one Wyckoff position.
type BandRepresentation struct {
	Wyckoff      string
	SiteIrRep    string
	Dim          int
	DoubleValued bool

	// Elementary is set by Classify: true when the band representation
	// is not a sum of band representations from other sites.
	Elementary bool

	Contents []Content
}

// Client induces band representations against loaded tables. Derived
// results are cached with an insert-once-per-key discipline.
type Client struct {
	store    *symmetry.Store
	table    *rep.Table
	resolver *kspace.Resolver
	tol      float64

	wyckoffs map[string]map[string]*wyckoffEntry

	cache sync.Map
	group singleflight.Group
}

// NewClientParams configures a band-representation engine.
type NewClientParams struct {
	Store    *symmetry.Store
	Table    *rep.Table
	Resolver *kspace.Resolver

	// Tolerance for the induced-character decomposition; the table's
	// tolerance when zero.
	Tolerance float64
}

// NewClient creates a band-representation engine.
func NewClient(params NewClientParams) (*Client, error) {
	if params.Store == nil || params.Table == nil || params.Resolver == nil {
		return nil, fmt.Errorf("bandrep: client requires store, table and resolver")
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
		wyckoffs: make(map[string]map[string]*wyckoffEntry),
	}, nil
}

// AddWyckoff validates and registers a Wyckoff position. The embedding
// maps each unbarred site-group operation to the space-group operation it
// is; every image must fix the site modulo a lattice translation.
// Load-time use only.
func (c *Client) AddWyckoff(w Wyckoff, embedding []int) error {
	g, err := c.store.Group(w.GroupID)
	if err != nil {
		return err
	}
	site, err := c.store.Group(w.SiteGroupID)
	if err != nil {
		return err
	}
	if len(embedding) != site.Spatial() {
		return fmt.Errorf("%w: %q embedding covers %d of %d operations",
			ErrIncompatibleSite, w.Label, len(embedding), site.Spatial())
	}
	for i, idx := range embedding {
		if idx < 0 || idx >= g.Order() {
			return fmt.Errorf("%w: %q embedding index %d out of range", ErrIncompatibleSite, w.Label, idx)
		}
		img := g.Ops[idx]
		if img.Rotation != site.Ops[i].Rotation {
			return fmt.Errorf("%w: %q embedding entry %d changes the rotational part",
				ErrIncompatibleSite, w.Label, i)
		}
		moved := img.Rotation.MulVec(w.Site).Add(img.Translation)
		if !moved.EqualMod1(w.Site) {
			return fmt.Errorf("%w: operation %s does not fix site %s of %q",
				ErrIncompatibleSite, img, w.Site, w.Label)
		}
	}

	orbit := orbitOf(g, w.Site)
	if len(orbit) != w.Multiplicity {
		return fmt.Errorf("%w: orbit of %q has %d points, curated multiplicity is %d",
			ErrIncompatibleSite, w.Label, len(orbit), w.Multiplicity)
	}
	if c.wyckoffs[w.GroupID] == nil {
		c.wyckoffs[w.GroupID] = make(map[string]*wyckoffEntry)
	}
	c.wyckoffs[w.GroupID][w.Label] = &wyckoffEntry{w: w, embedding: embedding, orbit: orbit}
	return nil
}

// Wyckoffs returns the registered positions of a group.
func (c *Client) Wyckoffs(groupID string) ([]Wyckoff, error) {
	if _, err := c.store.Group(groupID); err != nil {
		return nil, err
	}
	entries := c.wyckoffs[groupID]
	out := make([]Wyckoff, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.w)
	}
	return out, nil
}

// orbitOf enumerates the Wyckoff orbit inside the unit cell, keeping the
// first space-group operation reaching each point as its coset
// representative.
func orbitOf(g *symmetry.Group, site frac.Vec3) []orbitPoint {
	var orbit []orbitPoint
	seen := make(map[string]struct{})
	for _, op := range g.Ops[:g.Spatial()] {
		p := op.Rotation.MulVec(site).Add(op.Translation).Mod1()
		key := p.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		orbit = append(orbit, orbitPoint{point: p, coset: op})
	}
	return orbit
}

func (r InduceRequest) key() string {
	var b strings.Builder
	b.WriteString(r.GroupID)
	b.WriteByte('|')
	b.WriteString(r.Wyckoff)
	b.WriteByte('|')
	b.WriteString(r.SiteIrRep)
	for _, k := range r.KVectors {
		b.WriteByte('|')
		b.WriteString(k.Label)
		b.WriteString(k.Coords.String())
	}
	return b.String()
}

// Induce computes the band representation induced from one site-symmetry
// irrep, evaluated at every requested k-vector.
func (c *Client) Induce(req InduceRequest) (*BandRepresentation, error) {
	key := req.key()
	if cached, ok := c.cache.Load(key); ok {
		return cached.(*BandRepresentation), nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		br, err := c.compute(req)
		if err != nil {
			return nil, err
		}
		actual, _ := c.cache.LoadOrStore(key, br)
		return actual, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*BandRepresentation), nil
}

func (c *Client) compute(req InduceRequest) (*BandRepresentation, error) {
	g, err := c.store.Group(req.GroupID)
	if err != nil {
		return nil, err
	}
	entries := c.wyckoffs[req.GroupID]
	entry, ok := entries[req.Wyckoff]
	if !ok {
		return nil, fmt.Errorf("%w: unknown Wyckoff position %q in %q",
			ErrIncompatibleSite, req.Wyckoff, req.GroupID)
	}
	site, err := c.store.Group(entry.w.SiteGroupID)
	if err != nil {
		return nil, err
	}
	siteRep, err := c.siteRep(entry, req.SiteIrRep)
	if err != nil {
		return nil, err
	}
	if req.Dim != 0 && req.Dim != siteRep.Dim {
		return nil, fmt.Errorf("%w: site irrep %q has dimension %d, caller expects %d",
			ErrIncompatibleSite, req.SiteIrRep, siteRep.Dim, req.Dim)
	}

	br := &BandRepresentation{
		Wyckoff:      req.Wyckoff,
		SiteIrRep:    req.SiteIrRep,
		Dim:          len(entry.orbit) * siteRep.Dim,
		DoubleValued: siteRep.DoubleValued,
	}
	for _, k := range req.KVectors {
		content, err := c.contentAt(g, site, entry, siteRep, k)
		if err != nil {
			return nil, err
		}
		br.Contents = append(br.Contents, content)
	}
	logger.Debug("[BandRep] Induced", "group", req.GroupID, "wyckoff", req.Wyckoff,
		"site_irrep", req.SiteIrRep, "dim", br.Dim, "k_vectors", len(br.Contents))
	return br, nil
}

// siteRep resolves the requested irrep of the site-symmetry group.
func (c *Client) siteRep(entry *wyckoffEntry, label string) (*rep.IrRep, error) {
	reps, err := c.table.RepsAt(entry.w.SiteGroupID, entry.w.SiteKLabel)
	if err != nil {
		return nil, fmt.Errorf("%w: site group %q has no table at %q",
			ErrIncompatibleSite, entry.w.SiteGroupID, entry.w.SiteKLabel)
	}
	for _, ir := range reps {
		if ir.Label == label {
			return ir, nil
		}
	}
	return nil, fmt.Errorf("%w: site group %q has no irrep %q",
		ErrIncompatibleSite, entry.w.SiteGroupID, label)
}

// contentAt evaluates the induced character on the little group of k and
// decomposes it into the curated little-group irreps.
//
// For a little-group element g and orbit point qα with coset
// representative gα, the point contributes iff g·qα ≡ qα modulo a
// lattice vector n, and then adds
//
//	exp(-2πi k·n) · χρ(gα⁻¹ · t₋ₙ · g · gα)
//
// where the conjugated element lies in the site-symmetry group and is
// resolved there through its rotational part and its composed SU(2)
// matrix, so spinor signs fall out of the double-cover algebra.
func (c *Client) contentAt(g, site *symmetry.Group, entry *wyckoffEntry, siteRep *rep.IrRep, k kspace.KVector) (Content, error) {
	lgReps, err := c.table.RepsAt(entry.w.GroupID, k.Label)
	if err != nil {
		return Content{}, err
	}
	if len(lgReps) == 0 {
		return Content{}, fmt.Errorf("%w: no irreps at %s in %q", rep.ErrUnknownKVector, k.Label, entry.w.GroupID)
	}
	lg := lgReps[0].Little()

	chars := make([]complex128, lg.Order())
	for pos, opIdx := range lg.OpIdx {
		op := g.Ops[opIdx]
		var chi complex128
		for _, pt := range entry.orbit {
			moved := op.Rotation.MulVec(pt.point).Add(op.Translation)
			n := moved.Sub(pt.point)
			if !n.IsLattice() {
				continue
			}
			h, err := c.conjugateIntoSite(g, site, op, pt.coset)
			if err != nil {
				return Content{}, err
			}
			chiSite, err := c.table.CharacterOf(siteRep, h)
			if err != nil {
				return Content{}, err
			}
			phase := cmplx.Exp(complex(0, -2*math.Pi*k.Coords.Dot(n).Float64()))
			chi += phase * chiSite
		}
		chars[pos] = chi
	}

	terms, err := rep.DecomposeCharacters(chars, lgReps, len(entry.orbit)*siteRep.Dim, c.tol)
	if err != nil {
		return Content{}, fmt.Errorf("band representation of %q at %s: %w", entry.w.Label, k.Label, err)
	}
	return Content{K: k, Terms: terms}, nil
}

// conjugateIntoSite resolves gα⁻¹·g·gα (up to the lattice translation
// restoring the site) inside the site-symmetry double group.
func (c *Client) conjugateIntoSite(g, site *symmetry.Group, op, coset symmetry.Operation) (symmetry.Operation, error) {
	rotInv, ok := coset.Rotation.Inverse()
	if !ok {
		return symmetry.Operation{}, fmt.Errorf("%w: coset representative %s is not unimodular",
			ErrIncompatibleSite, coset)
	}
	rot := rotInv.Mul(op.Rotation).Mul(coset.Rotation)
	spinor := coset.Spinor.Adjoint().Mul(op.Spinor).Mul(coset.Spinor)
	for _, h := range site.Ops[:site.Spatial()] {
		if h.Rotation != rot {
			continue
		}
		if h.Spinor.Equal(spinor) {
			return h, nil
		}
		bar := site.Bar(h)
		if bar.Spinor.Equal(spinor) {
			return bar, nil
		}
		return symmetry.Operation{}, fmt.Errorf("%w: spinor part of conjugated element does not match site group %q",
			ErrIncompatibleSite, site.ID)
	}
	return symmetry.Operation{}, fmt.Errorf("%w: conjugated element leaves site group %q",
		ErrIncompatibleSite, site.ID)
}
