package rep

import (
	"github.com/blochlab/dgrep/pkg/kspace"
)

// IrRep is one irreducible representation of the little group of a
// (group, k-vector) pair. Matrices are aligned with the little group's
// operation list; 1-D representations store 1x1 matrices whose single
// entry is the character.
//
// Labels are opaque curated keys. The engine never re-derives a canonical
// naming scheme.
type IrRep struct {
	Label        string
	GroupID      string
	Dim          int
	DoubleValued bool

	little *kspace.LittleGroup
	mats   [][][]complex128
	chars  []complex128
}

// Little returns the little group the representation belongs to.
func (ir *IrRep) Little() *kspace.LittleGroup { return ir.little }

// KLabel returns the label of the representation's k-vector.
func (ir *IrRep) KLabel() string { return ir.little.K.Label }

// MatrixAt returns the representation matrix at position pos of the
// little group's operation list.
func (ir *IrRep) MatrixAt(pos int) [][]complex128 { return ir.mats[pos] }

// CharacterAt returns the trace of the matrix at position pos. For 1-D
// representations this is the stored scalar itself.
func (ir *IrRep) CharacterAt(pos int) complex128 { return ir.chars[pos] }

// Characters returns the character on every little-group operation, in
// little-group order.
func (ir *IrRep) Characters() []complex128 {
	out := make([]complex128, len(ir.chars))
	copy(out, ir.chars)
	return out
}

// Multiplicity is one term of a decomposition: Count copies of the
// irreducible representation Label of dimension Dim.
type Multiplicity struct {
	Label string
	Dim   int
	Count int
}
