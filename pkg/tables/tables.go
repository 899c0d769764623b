// Package tables ingests curated double-group table documents and builds
// the in-memory engine from them.
//
// The document format is a private concern of this loader; the engine
// packages never see it. Loading is a one-time initialization phase:
// validation failures are fatal for the affected group only, and every
// other group stays usable, so a single corrupted table cannot take the
// whole database down.
package tables

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/go-playground/validator"
	"golang.org/x/sync/errgroup"

	"github.com/blochlab/dgrep/pkg/bandrep"
	"github.com/blochlab/dgrep/pkg/compat"
	"github.com/blochlab/dgrep/pkg/frac"
	"github.com/blochlab/dgrep/pkg/kspace"
	"github.com/blochlab/dgrep/pkg/logger"
	"github.com/blochlab/dgrep/pkg/query"
	"github.com/blochlab/dgrep/pkg/rep"
	"github.com/blochlab/dgrep/pkg/symmetry"
)

// ErrBadDocument is returned when a table document cannot be parsed or
// fails structural validation before any group is built.
var ErrBadDocument = errors.New("tables: invalid table document")

// DocumentVersion is the supported table document version.
const DocumentVersion = 1

// Document is the top-level curated table file.
type Document struct {
	Version    int            `json:"version" validate:"required"`
	Groups     []GroupDoc     `json:"groups" validate:"required,min=1,dive"`
	Embeddings []EmbeddingDoc `json:"embeddings,omitempty" validate:"dive"`
}

// GroupDoc is one double group with its k-vectors, representations and
// Wyckoff positions. Operations list the unbarred elements only; the
// loader derives the barred partners.
type GroupDoc struct {
	ID         string         `json:"id" validate:"required"`
	Operations []OperationDoc `json:"operations" validate:"required,min=1,dive"`
	KVectors   []KVectorDoc   `json:"k_vectors,omitempty" validate:"dive"`
	IrReps     []IrRepDoc     `json:"irreps,omitempty" validate:"dive"`
	Wyckoffs   []WyckoffDoc   `json:"wyckoffs,omitempty" validate:"dive"`
}

// OperationDoc is one unbarred symmetry operation. The rotation is given
// row-major over the lattice basis; translations and the axis/angle of
// the proper part determine the canonical SU(2) lift.
type OperationDoc struct {
	Rotation    [9]int64   `json:"rotation"`
	Translation [3]string  `json:"translation"`
	Axis        [3]float64 `json:"axis"`
	AngleDeg    float64    `json:"angle_deg"`
}

// KVectorDoc is a labeled k-vector with exact rational coordinates such
// as ["1/2", "0", "0"].
type KVectorDoc struct {
	Label  string    `json:"label" validate:"required"`
	Coords [3]string `json:"coords"`
}

// IrRepDoc is one irreducible representation at one k-vector. Matrices
// cover the unbarred little-group operations; barred entries follow from
// the double-valued flag.
type IrRepDoc struct {
	Label        string         `json:"label" validate:"required"`
	KLabel       string         `json:"k_label" validate:"required"`
	Dim          int            `json:"dim" validate:"required,min=1"`
	DoubleValued bool           `json:"double_valued"`
	Matrices     []OpMatrixDoc  `json:"matrices" validate:"required,min=1,dive"`
}

// OpMatrixDoc is the representation matrix of one operation, entries as
// [real, imaginary] pairs.
type OpMatrixDoc struct {
	Op   int            `json:"op" validate:"min=0"`
	Rows [][][2]float64 `json:"rows" validate:"required,min=1"`
}

// WyckoffDoc is one curated Wyckoff position.
type WyckoffDoc struct {
	Label        string    `json:"label" validate:"required"`
	SiteGroup    string    `json:"site_group" validate:"required"`
	SiteKLabel   string    `json:"site_k_label" validate:"required"`
	Site         [3]string `json:"site"`
	Multiplicity int       `json:"multiplicity" validate:"required,min=1"`
	Maximal      bool      `json:"maximal"`
	Embedding    []int     `json:"embedding" validate:"required,min=1"`
}

// EmbeddingDoc maps the unbarred operations of a subgroup onto
// operations of a supergroup.
type EmbeddingDoc struct {
	Super string `json:"super" validate:"required"`
	Sub   string `json:"sub" validate:"required"`
	Map   []int  `json:"map" validate:"required,min=1"`
}

// Bundle is the fully built engine: the operation store, representation
// table, resolver, derivation engines and the query façade over them.
type Bundle struct {
	Store    *symmetry.Store
	Table    *rep.Table
	Resolver *kspace.Resolver
	Compat   *compat.Client
	BandRep  *bandrep.Client
	Query    *query.Client
}

// LoadParams configures a load.
type LoadParams struct {
	// Tolerance for representation validation and decomposition
	// integrality checks; rep.DefaultTolerance when zero.
	Tolerance float64

	// Parallel bounds concurrent group construction; defaults to 4.
	Parallel int
}

// Load parses, validates and builds a table document.
func Load(data []byte, params LoadParams) (*Bundle, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDocument, err)
	}
	if err := validator.New().Struct(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDocument, err)
	}
	if doc.Version != DocumentVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadDocument, doc.Version)
	}
	return build(&doc, params)
}

func build(doc *Document, params LoadParams) (*Bundle, error) {
	parallel := params.Parallel
	if parallel <= 0 {
		parallel = 4
	}

	// Groups are independent of each other until embeddings are wired,
	// so construction and closure checking run in parallel.
	var mu sync.Mutex
	built := make(map[string]*symmetry.Group, len(doc.Groups))
	var eg errgroup.Group
	eg.SetLimit(parallel)
	for _, gd := range doc.Groups {
		gd := gd
		eg.Go(func() error {
			g, err := buildGroup(gd)
			if err != nil {
				logger.Error("[Tables] Group rejected", "group", gd.ID, "error", err)
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			if _, dup := built[gd.ID]; dup {
				logger.Error("[Tables] Duplicate group ignored", "group", gd.ID)
				return nil
			}
			built[gd.ID] = g
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if len(built) == 0 {
		return nil, fmt.Errorf("%w: no group survived validation", ErrBadDocument)
	}

	store := symmetry.NewStore()
	for _, gd := range doc.Groups {
		if g, ok := built[gd.ID]; ok {
			if err := store.AddGroup(g); err != nil {
				return nil, err
			}
		}
	}

	resolver, err := kspace.NewResolver(kspace.NewResolverParams{Store: store})
	if err != nil {
		return nil, err
	}
	table, err := rep.NewTable(rep.NewTableParams{
		Store:     store,
		Resolver:  resolver,
		Tolerance: params.Tolerance,
	})
	if err != nil {
		return nil, err
	}

	for _, ed := range doc.Embeddings {
		e := symmetry.Embedding{Super: ed.Super, Sub: ed.Sub, Map: ed.Map}
		if err := store.AddEmbedding(e); err != nil {
			logger.Error("[Tables] Embedding rejected", "super", ed.Super, "sub", ed.Sub, "error", err)
		}
	}

	for _, gd := range doc.Groups {
		if _, ok := built[gd.ID]; !ok {
			continue
		}
		if err := loadReps(table, gd); err != nil {
			logger.Error("[Tables] Representations rejected, dropping group", "group", gd.ID, "error", err)
			table.DropGroup(gd.ID)
			store.DropGroup(gd.ID)
		}
	}

	compatClient, err := compat.NewClient(compat.NewClientParams{
		Store: store, Table: table, Resolver: resolver, Tolerance: params.Tolerance,
	})
	if err != nil {
		return nil, err
	}
	bandrepClient, err := bandrep.NewClient(bandrep.NewClientParams{
		Store: store, Table: table, Resolver: resolver, Tolerance: params.Tolerance,
	})
	if err != nil {
		return nil, err
	}
	for _, gd := range doc.Groups {
		for _, wd := range gd.Wyckoffs {
			if err := loadWyckoff(bandrepClient, gd.ID, wd); err != nil {
				logger.Error("[Tables] Wyckoff position rejected",
					"group", gd.ID, "wyckoff", wd.Label, "error", err)
			}
		}
	}

	queryClient, err := query.NewClient(query.NewClientParams{
		Store:    store,
		Table:    table,
		Resolver: resolver,
		Compat:   compatClient,
		BandRep:  bandrepClient,
		Parallel: parallel,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("[Tables] Load completed", "groups", len(store.GroupIDs()))
	return &Bundle{
		Store:    store,
		Table:    table,
		Resolver: resolver,
		Compat:   compatClient,
		BandRep:  bandrepClient,
		Query:    queryClient,
	}, nil
}

func buildGroup(gd GroupDoc) (*symmetry.Group, error) {
	ops := make([]symmetry.Operation, 0, len(gd.Operations))
	for i, od := range gd.Operations {
		tr, err := frac.ParseVec3(od.Translation)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		var rot frac.Mat3
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				rot[r][c] = od.Rotation[3*r+c]
			}
		}
		op, err := symmetry.NewOperation(symmetry.NewOperationParams{
			Rotation:    rot,
			Translation: tr,
			Axis:        od.Axis,
			Angle:       od.AngleDeg * math.Pi / 180,
		})
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		ops = append(ops, op)
	}
	return symmetry.NewGroup(gd.ID, ops)
}

func loadReps(table *rep.Table, gd GroupDoc) error {
	for _, kd := range gd.KVectors {
		coords, err := frac.ParseVec3(kd.Coords)
		if err != nil {
			return fmt.Errorf("k-vector %q: %w", kd.Label, err)
		}
		k := kspace.KVector{Label: kd.Label, Coords: coords}
		var specs []rep.IrRepSpec
		for _, ird := range gd.IrReps {
			if ird.KLabel != kd.Label {
				continue
			}
			spec := rep.IrRepSpec{
				Label:        ird.Label,
				Dim:          ird.Dim,
				DoubleValued: ird.DoubleValued,
				Matrices:     make(map[int][][]complex128, len(ird.Matrices)),
			}
			for _, md := range ird.Matrices {
				rows := make([][]complex128, len(md.Rows))
				for i, row := range md.Rows {
					rows[i] = make([]complex128, len(row))
					for j, entry := range row {
						rows[i][j] = complex(entry[0], entry[1])
					}
				}
				spec.Matrices[md.Op] = rows
			}
			specs = append(specs, spec)
		}
		if len(specs) == 0 {
			continue
		}
		if _, err := table.Add(gd.ID, k, specs); err != nil {
			return err
		}
	}
	return nil
}

func loadWyckoff(client *bandrep.Client, groupID string, wd WyckoffDoc) error {
	site, err := frac.ParseVec3(wd.Site)
	if err != nil {
		return err
	}
	return client.AddWyckoff(bandrep.Wyckoff{
		Label:        wd.Label,
		GroupID:      groupID,
		SiteGroupID:  wd.SiteGroup,
		Site:         site,
		Multiplicity: wd.Multiplicity,
		Maximal:      wd.Maximal,
		SiteKLabel:   wd.SiteKLabel,
	}, wd.Embedding)
}
