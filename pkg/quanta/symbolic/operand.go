package symbolic

import (
	"math/big"
	"regexp"
	"strings"

	"github.com/sambeau/quanta/pkg/quanta/errors"
)

// Pattern fragments for symbolic operands. The rational pattern is
// modeled on the grammar of fractions: an optional sign, then either an
// integer with an optional denominator ("3/2"), decimal part, or
// exponent, or a bare decimal fraction (".5").
const (
	rationalPattern = `[-+]?(?:\d+(?:/\d+|\.\d*(?:[eE][-+]?\d+)?|[eE][-+]?\d+)?|\.\d+(?:[eE][-+]?\d+)?)`
	basePattern     = `[a-zA-Z#_]+\d*`
)

// Operand is an operand in a symbolic expression: a coefficient, a base
// string, and an exponent. A simple operand has an irreducible base (see
// Term); a general operand's base may itself contain operators and
// groups, e.g. "a * b^2" or "(a / b^2)^3 * c".
type Operand struct {
	Coefficient *big.Rat
	Base        string
	Exponent    *big.Rat

	irreducible bool
}

// IsTerm reports whether this operand has an irreducible base.
func (o Operand) IsTerm() bool {
	return o.irreducible
}

// Term converts an irreducible operand to a Term.
func (o Operand) Term() Term {
	return Term{Coefficient: o.Coefficient, Base: o.Base, Exponent: o.Exponent}
}

// Pow returns this operand raised to the given power.
func (o Operand) Pow(power *big.Rat) Operand {
	return Operand{
		Coefficient: ratPow(o.Coefficient, power),
		Base:        o.Base,
		Exponent:    ratMul(o.Exponent, power),
		irreducible: o.irreducible,
	}
}

// Format renders this operand for printing, grouping the base when a
// coefficient or exponent applies to it.
func (o Operand) Format() string {
	if isOne(o.Coefficient) && isOne(o.Exponent) {
		return o.Base
	}
	s := "(" + o.Base + ")"
	if !isOne(o.Exponent) {
		s += "^" + formatRat(o.Exponent)
	}
	if !isOne(o.Coefficient) {
		s = formatRat(o.Coefficient) + s
	}
	return s
}

func (o Operand) String() string {
	return o.Format()
}

// Match is the result of finding an operand at the start of a string.
type Match struct {
	Operand   Operand
	Remainder string
}

// OperandFactory produces symbolic operands from strings.
type OperandFactory struct {
	variable *regexp.Regexp
	constant *regexp.Regexp
	exponent *regexp.Regexp
	opening  byte
	closing  byte
	raising  byte
}

// NewOperandFactory returns a factory using the default separators:
// '(' and ')' for grouping and '^' for exponentiation.
func NewOperandFactory() *OperandFactory {
	exponent := `\^` + rationalPattern
	return &OperandFactory{
		variable: regexp.MustCompile(`^(` + rationalPattern + `)?(` + basePattern + `)(` + exponent + `)?`),
		constant: regexp.MustCompile(`^(` + rationalPattern + `)(` + exponent + `)?`),
		exponent: regexp.MustCompile(`^` + exponent),
		opening:  '(',
		closing:  ')',
		raising:  '^',
	}
}

// Parse extracts an operand at the start of the given string. The
// returned match carries the remainder of the string past the operand.
func (f *OperandFactory) Parse(s string) (Match, bool) {
	stripped := strings.TrimSpace(s)
	operand, end, ok := f.search(stripped, false)
	if !ok {
		return Match{}, false
	}
	return Match{Operand: operand, Remainder: stripped[end:]}, true
}

// Create builds the most general operand possible from a coefficient,
// base string, and exponent. A nil coefficient or exponent defaults to
// 1; an empty base defaults to "1". It parses a simple base into its
// parts but does no more work than necessary: a general base like
// "a * b^2" stays intact for further parsing.
func (f *OperandFactory) Create(c *big.Rat, base string, e *big.Rat) (Operand, error) {
	c0 := orOne(c)
	e0 := orOne(e)
	if base == "" {
		base = "1"
	}
	if base[0] == f.raising || base[len(base)-1] == f.raising {
		return Operand{}, errors.New("OPERAND-0001", map[string]any{"Text": base})
	}
	matched, _, ok := f.search(base, true)
	if !ok {
		return Operand{Coefficient: c0, Base: base, Exponent: e0}, nil
	}
	coefficient := ratMul(c0, ratPow(matched.Coefficient, e0))
	exponent := ratMul(matched.Exponent, e0)
	if !matched.irreducible {
		interior, err := f.Create(nil, matched.Base, nil)
		if err != nil {
			return Operand{}, err
		}
		if interior.irreducible {
			coefficient = ratMul(coefficient, ratPow(interior.Coefficient, exponent))
			return Operand{
				Coefficient: coefficient,
				Base:        interior.Base,
				Exponent:    ratMul(exponent, interior.Exponent),
				irreducible: true,
			}, nil
		}
		return Operand{
			Coefficient: coefficient,
			Base:        matched.Base,
			Exponent:    exponent,
		}, nil
	}
	return Operand{
		Coefficient: coefficient,
		Base:        matched.Base,
		Exponent:    exponent,
		irreducible: true,
	}, nil
}

// search looks for an operand at the start of the string, trying the
// simple form before the complex (parenthesized) form. When full is
// true, the operand must span the entire string.
func (f *OperandFactory) search(s string, full bool) (Operand, int, bool) {
	if operand, end, ok := f.matchSimplex(s, full); ok {
		return operand, end, true
	}
	return f.matchComplex(s, full)
}

// matchSimplex attempts to find an irreducible term at the start of the
// string. The variable pattern is checked alongside the constant pattern
// because a rational like "2e3" also matches the variable pattern (with
// base "e3"): when both patterns consume the same prefix, the constant
// interpretation wins.
func (f *OperandFactory) matchSimplex(s string, full bool) (Operand, int, bool) {
	v := f.matchAt(f.variable, s, full)
	c := f.matchAt(f.constant, s, full)
	switch {
	case v == nil && c == nil:
		return Operand{}, 0, false
	case v != nil && c != nil:
		if v[1] == c[1] {
			return f.buildConstant(s, c)
		}
		return f.buildVariable(s, v)
	case v != nil:
		return f.buildVariable(s, v)
	default:
		return f.buildConstant(s, c)
	}
}

// matchAt applies an anchored pattern to the string, returning the
// submatch indices, or nil when the pattern does not match (or, when
// full is set, does not span the whole string).
func (f *OperandFactory) matchAt(re *regexp.Regexp, s string, full bool) []int {
	loc := re.FindStringSubmatchIndex(s)
	if loc == nil {
		return nil
	}
	if full && loc[1] != len(s) {
		return nil
	}
	return loc
}

func (f *OperandFactory) buildVariable(s string, loc []int) (Operand, int, bool) {
	coefficient, err := ParseRational(group(s, loc, 1))
	if err != nil {
		return Operand{}, 0, false
	}
	exponent, err := ParseRational(strings.TrimPrefix(group(s, loc, 3), "^"))
	if err != nil {
		return Operand{}, 0, false
	}
	operand := Operand{
		Coefficient: coefficient,
		Base:        group(s, loc, 2),
		Exponent:    exponent,
		irreducible: true,
	}
	return operand, loc[1], true
}

func (f *OperandFactory) buildConstant(s string, loc []int) (Operand, int, bool) {
	coefficient, err := ParseRational(group(s, loc, 1))
	if err != nil {
		return Operand{}, 0, false
	}
	exponent, err := ParseRational(strings.TrimPrefix(group(s, loc, 2), "^"))
	if err != nil {
		return Operand{}, 0, false
	}
	operand := Operand{
		Coefficient: ratPow(coefficient, exponent),
		Base:        "1",
		Exponent:    ratOne(),
		irreducible: true,
	}
	return operand, loc[1], true
}

// matchComplex attempts to match a parenthesized operand, with an
// optional leading coefficient and trailing exponent, at the start of
// the string.
func (f *OperandFactory) matchComplex(s string, full bool) (Operand, int, bool) {
	i0, end, ok := f.FindBounds(s)
	if !ok {
		return Operand{}, 0, false
	}
	base := s[i0+1 : end-1]
	coefficient := ratOne()
	if i0 > 0 {
		if prefix, n, ok := f.matchSimplex(s[:i0], true); ok && n == i0 {
			coefficient = prefix.Coefficient
			i0 = 0
		}
	}
	if !full && i0 != 0 {
		return Operand{}, 0, false
	}
	exponent := ratOne()
	if m := f.exponent.FindString(s[end:]); m != "" {
		e, err := ParseRational(strings.TrimPrefix(m, "^"))
		if err != nil {
			return Operand{}, 0, false
		}
		exponent = e
		end += len(m)
	}
	if full && (i0 != 0 || end != len(s)) {
		return Operand{}, 0, false
	}
	operand := Operand{
		Coefficient: coefficient,
		Base:        base,
		Exponent:    exponent,
	}
	return operand, end, true
}

// FindBounds finds the indices of the first bounded substring, if any.
// A bounded substring is bounded on the left by the opening separator
// and on the right by the matching closing separator. The convention is
// such that if start, end, ok := FindBounds(s), then s[start:end] is the
// bounded substring including its separators.
//
// For example: "3(a*b)^2" yields (1, 6) and "2(3(4a^4)^3)^2" yields
// (1, 12).
func (f *OperandFactory) FindBounds(s string) (int, int, bool) {
	initialized := false
	count := 0
	i0 := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case f.opening:
			count++
			if !initialized {
				i0 = i
				initialized = true
			}
		case f.closing:
			count--
		}
		if initialized && count == 0 {
			return i0, i + 1, true
		}
	}
	return 0, 0, false
}

// group extracts a capture group by number, or "" if it did not match.
func group(s string, loc []int, n int) string {
	if loc[2*n] < 0 {
		return ""
	}
	return s[loc[2*n]:loc[2*n+1]]
}
