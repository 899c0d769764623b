package symmetry

import (
	"fmt"
	"sort"
)

// Embedding maps each unbarred operation of a subgroup to the operation of
// a supergroup it corresponds to. Embeddings are curated data: when more
// than one conjugate embedding exists, the tables decide, never the
// engine.
//
// The map covers unbarred subgroup indices only; barred partners follow by
// mapping onto the barred partner of the image.
type Embedding struct {
	Super string
	Sub   string
	Map   []int
}

// Store holds the curated double groups and their subgroup embeddings.
// It is populated once at load time and read-only afterwards, so lookups
// need no locking.
type Store struct {
	groups     map[string]*Group
	embeddings map[string]Embedding
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		groups:     make(map[string]*Group),
		embeddings: make(map[string]Embedding),
	}
}

// AddGroup registers a group. Duplicate identifiers are a curation error.
func (s *Store) AddGroup(g *Group) error {
	if _, dup := s.groups[g.ID]; dup {
		return fmt.Errorf("%w: duplicate group %q", ErrInvalidOperation, g.ID)
	}
	s.groups[g.ID] = g
	return nil
}

// Group resolves a group identifier.
func (s *Store) Group(id string) (*Group, error) {
	g, ok := s.groups[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGroup, id)
	}
	return g, nil
}

// GroupIDs returns the identifiers of all loaded groups, sorted.
func (s *Store) GroupIDs() []string {
	ids := make([]string, 0, len(s.groups))
	for id := range s.groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DropGroup removes a group and every embedding touching it. It exists so
// the loader can discard a group whose representation tables fail
// validation; the store is never mutated after loading completes.
func (s *Store) DropGroup(id string) {
	delete(s.groups, id)
	for key, e := range s.embeddings {
		if e.Super == id || e.Sub == id {
			delete(s.embeddings, key)
		}
	}
}

func embeddingKey(super, sub string) string {
	return super + "\x00" + sub
}

// AddEmbedding validates and registers a curated subgroup embedding. The
// map must send the subgroup identity to the supergroup identity and
// commute with composition on the full double groups.
func (s *Store) AddEmbedding(e Embedding) error {
	super, err := s.Group(e.Super)
	if err != nil {
		return err
	}
	sub, err := s.Group(e.Sub)
	if err != nil {
		return err
	}
	if len(e.Map) != sub.Spatial() {
		return fmt.Errorf("%w: %q into %q: map covers %d of %d operations",
			ErrInvalidEmbedding, e.Sub, e.Super, len(e.Map), sub.Spatial())
	}
	for _, idx := range e.Map {
		if idx < 0 || idx >= super.Order() {
			return fmt.Errorf("%w: %q into %q: image index %d out of range",
				ErrInvalidEmbedding, e.Sub, e.Super, idx)
		}
	}
	image := func(i int) Operation {
		if i < sub.Spatial() {
			return super.Ops[e.Map[i]]
		}
		return super.Bar(super.Ops[e.Map[i-sub.Spatial()]])
	}
	if image(sub.Identity().Index) != super.Identity() {
		return fmt.Errorf("%w: %q into %q: identity is not preserved",
			ErrInvalidEmbedding, e.Sub, e.Super)
	}
	for _, a := range sub.Ops {
		for _, b := range sub.Ops {
			c, err := sub.Compose(a, b)
			if err != nil {
				return fmt.Errorf("embedding %q into %q: %w", e.Sub, e.Super, err)
			}
			want := image(c.Index)
			got, err := super.Compose(image(a.Index), image(b.Index))
			if err != nil {
				return fmt.Errorf("embedding %q into %q: %w", e.Sub, e.Super, err)
			}
			if got.Index != want.Index {
				return fmt.Errorf("%w: %q into %q: image of %s·%s disagrees",
					ErrInvalidEmbedding, e.Sub, e.Super, a, b)
			}
		}
	}
	s.embeddings[embeddingKey(e.Super, e.Sub)] = e
	return nil
}

// Embedding resolves the curated embedding of sub into super.
func (s *Store) Embedding(super, sub string) (Embedding, error) {
	e, ok := s.embeddings[embeddingKey(super, sub)]
	if !ok {
		return Embedding{}, fmt.Errorf("%w: %q into %q", ErrUnknownEmbedding, sub, super)
	}
	return e, nil
}

// OpIndex maps a subgroup operation index (barred partners included) to
// the index of its image in the supergroup.
func (e Embedding) OpIndex(sub, super *Group, idx int) int {
	if idx < sub.Spatial() {
		return e.Map[idx]
	}
	return super.Bar(super.Ops[e.Map[idx-sub.Spatial()]]).Index
}
