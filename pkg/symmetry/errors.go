package symmetry

import "errors"

// Sentinel errors for the operation store. Callers match them with
// errors.Is; wrapped variants carry the offending identifiers.
var (
	// ErrUnknownGroup is returned when a group identifier is not in the
	// curated table set.
	ErrUnknownGroup = errors.New("symmetry: unknown group")

	// ErrInvalidOperation is returned when an operation cannot be
	// constructed, e.g. a non-unimodular rotation or a missing axis.
	ErrInvalidOperation = errors.New("symmetry: invalid operation")

	// ErrNotClosed is returned when composing two operations of a group
	// yields an element outside the group, which indicates corrupted
	// table data.
	ErrNotClosed = errors.New("symmetry: group is not closed under composition")

	// ErrInvalidEmbedding is returned when a curated subgroup embedding
	// is not a homomorphism into the supergroup.
	ErrInvalidEmbedding = errors.New("symmetry: invalid subgroup embedding")

	// ErrUnknownEmbedding is returned when no curated embedding exists
	// for a requested group-subgroup pair.
	ErrUnknownEmbedding = errors.New("symmetry: unknown subgroup embedding")
)
