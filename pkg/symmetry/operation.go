package symmetry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/blochlab/dgrep/pkg/frac"
)

// Operation is one element of a double space group: a rotational part over
// the lattice basis, a translation reduced modulo the lattice, and the
// spinor (SU(2)) part. Operations are immutable once constructed and are
// owned by the group they belong to.
type Operation struct {
	// Index is the position of the operation inside its group's ordered
	// operation list. Representation matrices are indexed by it.
	Index int

	// Rotation is the integer rotational part over the lattice basis.
	Rotation frac.Mat3

	// Translation is the exact translation part, reduced into [0,1)^3.
	Translation frac.Vec3

	// Spinor is the SU(2) part. Barred partners carry the negated matrix.
	Spinor SU2

	// Barred reports whether this is the 2π-rotated partner of an
	// unbarred operation.
	Barred bool

	// Angle and Axis describe the proper rotation (of the proper part,
	// for improper operations) used to build the canonical lift. They
	// are curated metadata; generated elements may leave them zero.
	Angle float64
	Axis  [3]float64

	// Improper reports det(Rotation) == -1.
	Improper bool
}

// NewOperationParams describes one curated (unbarred) operation.
//
// Axis and Angle refer to the proper part of the rotation: an improper
// operation lifts to SU(2) through -Rotation, since inversion acts
// trivially on spin.
type NewOperationParams struct {
	Rotation    frac.Mat3
	Translation frac.Vec3
	Axis        [3]float64
	Angle       float64
}

// NewOperation builds an unbarred operation with its canonical SU(2) lift.
func NewOperation(params NewOperationParams) (Operation, error) {
	det := params.Rotation.Det()
	if det != 1 && det != -1 {
		return Operation{}, fmt.Errorf("%w: determinant %d", ErrInvalidOperation, det)
	}
	if params.Angle != 0 && params.Axis == [3]float64{} {
		return Operation{}, fmt.Errorf("%w: rotation angle without axis", ErrInvalidOperation)
	}
	return Operation{
		Rotation:    params.Rotation,
		Translation: params.Translation.Mod1(),
		Spinor:      Lift(params.Axis, params.Angle),
		Angle:       params.Angle,
		Axis:        params.Axis,
		Improper:    det == -1,
	}, nil
}

// SpatialEqual reports whether two operations share rotation and
// translation (modulo the lattice), ignoring the spinor part.
func (o Operation) SpatialEqual(p Operation) bool {
	return o.Rotation == p.Rotation && o.Translation.EqualMod1(p.Translation)
}

// spatialKey is a map key identifying the spatial part of an operation
// within one group.
func (o Operation) spatialKey() string {
	var b strings.Builder
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			b.WriteString(strconv.FormatInt(o.Rotation[i][j], 10))
			b.WriteByte(',')
		}
	}
	b.WriteByte('|')
	b.WriteString(o.Translation.Mod1().String())
	return b.String()
}

// String formats the operation for logs, e.g. "{R|1/2,0,0}-" for a barred
// element.
func (o Operation) String() string {
	bar := ""
	if o.Barred {
		bar = "-"
	}
	return fmt.Sprintf("{det=%d|%s}%s", o.Rotation.Det(), o.Translation.String(), bar)
}
