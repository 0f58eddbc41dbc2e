package symbolic

import (
	"math/big"
	"regexp"

	"github.com/sambeau/quanta/pkg/quanta/errors"
)

// Term is a symbolic operand with an irreducible base: a coefficient, a
// base string, and an exponent. The form [c]b[^e] corresponds to a
// variable term and the form c[^e] corresponds to a constant term, whose
// base is "1".
//
// Terms are immutable. All operations return a new Term and never modify
// the receiver's rationals in place.
type Term struct {
	Coefficient *big.Rat
	Base        string
	Exponent    *big.Rat
}

var termBaseRE = regexp.MustCompile(`^(?:` + rationalPattern + `|` + basePattern + `)$`)

// NewTerm creates a variable term from a base string, with coefficient
// and exponent 1. The base must match the term grammar: letters, '#', or
// '_' followed by optional digits, or a rational constant.
func NewTerm(base string) (Term, error) {
	if !termBaseRE.MatchString(base) {
		return Term{}, errors.New("OPERAND-0002", map[string]any{"Base": base})
	}
	return Term{Coefficient: ratOne(), Base: base, Exponent: ratOne()}, nil
}

// NewConstant creates a constant term: a bare coefficient with base "1".
func NewConstant(c *big.Rat) Term {
	return Term{Coefficient: orOne(c), Base: "1", Exponent: ratOne()}
}

// NewTermWith creates a term from an explicit coefficient, base, and
// exponent. A nil coefficient or exponent defaults to 1.
func NewTermWith(c *big.Rat, base string, e *big.Rat) (Term, error) {
	if !termBaseRE.MatchString(base) {
		return Term{}, errors.New("OPERAND-0002", map[string]any{"Base": base})
	}
	return Term{Coefficient: orOne(c), Base: base, Exponent: orOne(e)}, nil
}

// Pow returns this term raised to the given power: the coefficient is
// raised to the power and the exponent is multiplied by it.
func (t Term) Pow(power *big.Rat) Term {
	return Term{
		Coefficient: ratPow(t.Coefficient, power),
		Base:        t.Base,
		Exponent:    ratMul(t.Exponent, power),
	}
}

// Scale returns this term with its coefficient multiplied by c.
func (t Term) Scale(c *big.Rat) Term {
	return Term{
		Coefficient: ratMul(t.Coefficient, c),
		Base:        t.Base,
		Exponent:    t.Exponent,
	}
}

// IsConstant reports whether this term is a bare constant.
func (t Term) IsConstant() bool {
	return t.Base == "1"
}

// Value returns the numeric value of a constant term.
func (t Term) Value() (float64, error) {
	if !t.IsConstant() {
		return 0, errors.NewSimple(errors.ClassOperand,
			"cannot convert term with base '"+t.Base+"' to a number")
	}
	f, _ := t.Coefficient.Float64()
	return f, nil
}

// Equal reports whether two terms have the same base and numerically
// equal coefficients and exponents.
func (t Term) Equal(other Term) bool {
	return t.Base == other.Base &&
		t.Exponent.Cmp(other.Exponent) == 0 &&
		t.Coefficient.Cmp(other.Coefficient) == 0
}

// key produces a stable identity for set-style operations on terms.
func (t Term) key() string {
	return t.Base + "|" + t.Exponent.RatString() + "|" + t.Coefficient.RatString()
}

// Format renders this term in the form "cb^e", eliding a unit
// coefficient or exponent. A fractional coefficient on a variable term
// is parenthesized to keep it from reading as part of the base.
func (t Term) Format() string {
	coefficient := t.formatCoefficient()
	if t.Base == "1" {
		return coefficient
	}
	return coefficient + t.Base + t.formatExponent()
}

func (t Term) formatCoefficient() string {
	if t.Base != "1" && isOne(t.Coefficient) {
		return ""
	}
	if t.Base != "1" && !t.Coefficient.IsInt() {
		return "(" + t.Coefficient.RatString() + ")"
	}
	return formatRat(t.Coefficient)
}

func (t Term) formatExponent() string {
	if t.Base == "1" || isOne(t.Exponent) {
		return ""
	}
	return "^" + formatRat(t.Exponent)
}

func (t Term) String() string {
	return t.Format()
}
