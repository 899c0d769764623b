package rep

import (
	"fmt"
	"math"
)

// DecomposeCharacters expands a character function, given on the
// operations of a little group in little-group order, into the
// irreducible representations of that little group:
//
//	m_σ = (1/|H|) Σ_h χ(h) · conj(χ_σ(h))
//
// Every multiplicity must round to a non-negative integer within tol, and
// when wantDim > 0 the decomposition must account for exactly that total
// dimension. Violations return ErrNonIntegerMultiplicity; nothing is
// rounded away silently.
func DecomposeCharacters(chars []complex128, irreps []*IrRep, wantDim int, tol float64) ([]Multiplicity, error) {
	if len(irreps) == 0 {
		return nil, fmt.Errorf("%w: no irreps to decompose against", ErrNonIntegerMultiplicity)
	}
	order := len(chars)
	if order == 0 || order != len(irreps[0].chars) {
		return nil, fmt.Errorf("%w: character list covers %d of %d operations",
			ErrNonIntegerMultiplicity, order, len(irreps[0].chars))
	}
	terms := make([]Multiplicity, 0, len(irreps))
	dimSum := 0
	for _, ir := range irreps {
		var sum complex128
		for p := 0; p < order; p++ {
			sum += chars[p] * cmplxConj(ir.chars[p])
		}
		sum /= complex(float64(order), 0)
		m := math.Round(real(sum))
		if math.Abs(real(sum)-m) > tol || math.Abs(imag(sum)) > tol {
			return nil, fmt.Errorf("%w: %q has multiplicity %v", ErrNonIntegerMultiplicity, ir.Label, sum)
		}
		if m < 0 {
			return nil, fmt.Errorf("%w: %q has negative multiplicity %v", ErrNonIntegerMultiplicity, ir.Label, sum)
		}
		count := int(m)
		if count > 0 {
			terms = append(terms, Multiplicity{Label: ir.Label, Dim: ir.Dim, Count: count})
			dimSum += count * ir.Dim
		}
	}
	if wantDim > 0 && dimSum != wantDim {
		return nil, fmt.Errorf("%w: dimensions sum to %d, want %d",
			ErrNonIntegerMultiplicity, dimSum, wantDim)
	}
	return terms, nil
}
