package rep

import "errors"

var (
	// ErrInvalidRepresentation is returned when a curated representation
	// table fails the projective-homomorphism or orthogonality checks at
	// load time. The affected group must be discarded.
	ErrInvalidRepresentation = errors.New("rep: invalid representation table")

	// ErrUnknownKVector is returned when no representations are curated
	// for a (group, k-vector) pair.
	ErrUnknownKVector = errors.New("rep: unknown k-vector")

	// ErrNonIntegerMultiplicity is returned when a character
	// decomposition does not land on non-negative integers within the
	// configured tolerance. It indicates a data error or a wrong
	// group-subgroup embedding and is never silently rounded away.
	ErrNonIntegerMultiplicity = errors.New("rep: non-integer multiplicity in decomposition")
)
