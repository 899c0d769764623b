// Package frac implements exact rational arithmetic for reciprocal-space
// coordinates, lattice translations and integer rotation matrices.
//
// All commensurability checks in the engine (little-group membership, star
// deduplication, lattice-vector tests) go through this package so that no
// floating-point comparison can produce a false negative.
package frac

import (
	"fmt"
	"strconv"
	"strings"
)

// Frac is an exact rational number. The zero value is 0. Values are kept
// reduced with a positive denominator.
type Frac struct {
	num int64
	den int64
}

// Zero and One are the rational constants used throughout the engine.
var (
	Zero = Frac{0, 1}
	One  = Frac{1, 1}
)

func gcd(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

// New returns the reduced rational num/den. It panics on a zero
// denominator, which is always a programmer error.
func New(num, den int64) Frac {
	if den == 0 {
		panic("frac: zero denominator")
	}
	if den < 0 {
		num, den = -num, -den
	}
	g := gcd(num, den)
	return Frac{num / g, den / g}
}

// FromInt returns n as a rational.
func FromInt(n int64) Frac {
	return Frac{n, 1}
}

// norm repairs the zero value {0,0} so that methods can treat it as 0.
func (f Frac) norm() Frac {
	if f.den == 0 {
		return Frac{0, 1}
	}
	return f
}

// Num returns the reduced numerator.
func (f Frac) Num() int64 { return f.norm().num }

// Den returns the reduced, positive denominator.
func (f Frac) Den() int64 { return f.norm().den }

// Add returns f+g.
func (f Frac) Add(g Frac) Frac {
	f, g = f.norm(), g.norm()
	return New(f.num*g.den+g.num*f.den, f.den*g.den)
}

// Sub returns f-g.
func (f Frac) Sub(g Frac) Frac {
	f, g = f.norm(), g.norm()
	return New(f.num*g.den-g.num*f.den, f.den*g.den)
}

// Mul returns f*g.
func (f Frac) Mul(g Frac) Frac {
	f, g = f.norm(), g.norm()
	return New(f.num*g.num, f.den*g.den)
}

// MulInt returns f*n.
func (f Frac) MulInt(n int64) Frac {
	f = f.norm()
	return New(f.num*n, f.den)
}

// Neg returns -f.
func (f Frac) Neg() Frac {
	f = f.norm()
	return Frac{-f.num, f.den}
}

// Equal reports whether f and g are the same rational.
func (f Frac) Equal(g Frac) bool {
	f, g = f.norm(), g.norm()
	return f.num == g.num && f.den == g.den
}

// IsZero reports whether f is 0.
func (f Frac) IsZero() bool { return f.norm().num == 0 }

// IsInt reports whether f is an integer.
func (f Frac) IsInt() bool { return f.norm().den == 1 }

// Sign returns -1, 0 or 1.
func (f Frac) Sign() int {
	switch n := f.norm().num; {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

// Mod1 wraps f into the half-open interval [0, 1).
func (f Frac) Mod1() Frac {
	f = f.norm()
	r := f.num % f.den
	if r < 0 {
		r += f.den
	}
	return Frac{r / gcd(r, f.den), f.den / gcd(r, f.den)}
}

// Float64 returns the closest float64 to f. Only used where a phase
// factor is evaluated, never for equality checks.
func (f Frac) Float64() float64 {
	f = f.norm()
	return float64(f.num) / float64(f.den)
}

// String formats f as "n" or "n/d".
func (f Frac) String() string {
	f = f.norm()
	if f.den == 1 {
		return strconv.FormatInt(f.num, 10)
	}
	return fmt.Sprintf("%d/%d", f.num, f.den)
}

// Parse reads a rational written as "n" or "n/d".
func Parse(s string) (Frac, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, fmt.Errorf("frac: empty rational")
	}
	parts := strings.SplitN(s, "/", 2)
	num, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return Zero, fmt.Errorf("frac: bad numerator in %q: %w", s, err)
	}
	if len(parts) == 1 {
		return FromInt(num), nil
	}
	den, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return Zero, fmt.Errorf("frac: bad denominator in %q: %w", s, err)
	}
	if den == 0 {
		return Zero, fmt.Errorf("frac: zero denominator in %q", s)
	}
	return New(num, den), nil
}
