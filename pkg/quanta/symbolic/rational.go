package symbolic

import (
	"math"
	"math/big"
	"strings"

	"github.com/sambeau/quanta/pkg/quanta/errors"
)

// ratOne returns a fresh rational with value 1.
func ratOne() *big.Rat {
	return big.NewRat(1, 1)
}

// ParseRational converts a string to an exact rational value. It accepts
// integers ("3"), fractions ("3/2"), decimals ("1.5"), and scientific
// notation ("2.5e-3"). An empty string yields 1, the multiplicative
// identity.
func ParseRational(s string) (*big.Rat, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ratOne(), nil
	}
	if r, ok := new(big.Rat).SetString(s); ok {
		return r, nil
	}
	return nil, errors.New("OPERAND-0003", map[string]any{"Value": s})
}

// ratPow raises x to the rational power e. Integer powers are computed
// exactly; fractional powers fall back to floating point.
func ratPow(x, e *big.Rat) *big.Rat {
	if e.IsInt() {
		return ratPowInt(x, e.Num())
	}
	xf, _ := x.Float64()
	ef, _ := e.Float64()
	r := new(big.Rat)
	if r.SetFloat64(math.Pow(xf, ef)) == nil {
		// Pow produced NaN or Inf; nothing sensible to return.
		return new(big.Rat)
	}
	return r
}

func ratPowInt(x *big.Rat, n *big.Int) *big.Rat {
	k := new(big.Int).Abs(n)
	num := new(big.Int).Exp(x.Num(), k, nil)
	den := new(big.Int).Exp(x.Denom(), k, nil)
	r := new(big.Rat)
	if n.Sign() < 0 {
		return r.SetFrac(den, num)
	}
	return r.SetFrac(num, den)
}

// ratMul returns a*b without mutating either operand.
func ratMul(a, b *big.Rat) *big.Rat {
	return new(big.Rat).Mul(a, b)
}

// ratAdd returns a+b without mutating either operand.
func ratAdd(a, b *big.Rat) *big.Rat {
	return new(big.Rat).Add(a, b)
}

// formatRat renders a rational the way it reads in a unit expression:
// integers without a denominator, everything else as "n/d".
func formatRat(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}
	return r.RatString()
}

// isOne reports whether r equals 1.
func isOne(r *big.Rat) bool {
	return r.Cmp(ratOne()) == 0
}

// orOne substitutes the multiplicative identity for a nil rational.
func orOne(r *big.Rat) *big.Rat {
	if r == nil {
		return ratOne()
	}
	return r
}
