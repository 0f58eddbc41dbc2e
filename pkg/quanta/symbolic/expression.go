package symbolic

import (
	"math/big"
	"sort"
	"strings"
	"sync"

	"github.com/sambeau/quanta/pkg/quanta/errors"
)

// Expression represents a symbolic expression as a reduced list of
// irreducible terms. Expressions are immutable: all algebraic operations
// return new instances.
type Expression struct {
	terms []Term
}

// NewExpression parses a string into an expression, ignoring
// operator-order ambiguity.
func NewExpression(input string) (*Expression, error) {
	return NewExpressionWith(input, OrderIgnore)
}

// NewExpressionWith parses a string into an expression using the given
// operator-order policy.
func NewExpressionWith(input string, order OperatorOrder) (*Expression, error) {
	terms, err := NewParserWithOrder(order).Parse(input)
	if err != nil {
		return nil, err
	}
	return FromTerms(terms), nil
}

// FromTerms builds an expression by reducing the given terms.
func FromTerms(terms []Term) *Expression {
	return &Expression{terms: Reduce(terms)}
}

// FromParts joins the given parts with '*', grouping each in
// parentheses, and parses the result. It supports building an
// expression from a list of term strings like ["a^3", "b", "c^-1"].
func FromParts(parts []string) (*Expression, error) {
	grouped := make([]string, len(parts))
	for i, part := range parts {
		grouped[i] = "(" + part + ")"
	}
	return NewExpression(strings.Join(grouped, "*"))
}

// Terms returns a copy of this expression's terms.
func (e *Expression) Terms() []Term {
	out := make([]Term, len(e.terms))
	copy(out, e.terms)
	return out
}

// Len returns the number of terms in this expression.
func (e *Expression) Len() int {
	return len(e.terms)
}

// IsEmpty reports whether this expression contains no terms.
func (e *Expression) IsEmpty() bool {
	return len(e.terms) == 0
}

// IsUnity reports whether this expression reduces to the multiplicative
// identity.
func (e *Expression) IsUnity() bool {
	return len(e.terms) == 1 &&
		e.terms[0].Base == "1" &&
		isOne(e.terms[0].Coefficient)
}

// Format joins the terms of this expression with single spaces.
func (e *Expression) Format() string {
	formatted := make([]string, len(e.terms))
	for i, term := range e.terms {
		formatted[i] = term.Format()
	}
	return strings.Join(formatted, " ")
}

func (e *Expression) String() string {
	return e.Format()
}

// Equal reports whether two expressions have the same symbolic terms,
// regardless of order. Terms are sorted by base, then exponent, then
// coefficient before comparison.
func (e *Expression) Equal(other *Expression) bool {
	if e == other {
		return true
	}
	if len(e.terms) != len(other.terms) {
		return false
	}
	a := sortedForEquality(e.terms)
	b := sortedForEquality(other.terms)
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// EqualString parses the given string and compares the result to this
// expression.
func (e *Expression) EqualString(s string) bool {
	other, err := NewExpression(s)
	if err != nil {
		return false
	}
	return e.Equal(other)
}

func sortedForEquality(terms []Term) []Term {
	out := make([]Term, len(terms))
	copy(out, terms)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Base != out[j].Base {
			return out[i].Base < out[j].Base
		}
		if c := out[i].Exponent.Cmp(out[j].Exponent); c != 0 {
			return c < 0
		}
		return out[i].Coefficient.Cmp(out[j].Coefficient) < 0
	})
	return out
}

// Multiply reduces the terms of two expressions with a common base into
// a new expression.
func (e *Expression) Multiply(other *Expression) *Expression {
	return FromTerms(Reduce(e.terms, other.terms))
}

// Divide raises all terms in the divisor to -1, then reduces terms with
// a common base.
func (e *Expression) Divide(other *Expression) *Expression {
	inverted := make([]Term, len(other.terms))
	minusOne := big.NewRat(-1, 1)
	for i, term := range other.terms {
		inverted[i] = term.Pow(minusOne)
	}
	return FromTerms(Reduce(e.terms, inverted))
}

// Pow raises all terms to the given power, then reduces terms with a
// common base. A zero exponent is rejected.
func (e *Expression) Pow(exp *big.Rat) (*Expression, error) {
	if exp.Sign() == 0 {
		return nil, errors.New("PARSE-0005", map[string]any{"Exponent": "0"})
	}
	raised := make([]Term, len(e.terms))
	for i, term := range e.terms {
		raised[i] = term.Pow(exp)
	}
	return FromTerms(raised), nil
}

// Difference returns the terms in this expression that are not in the
// other expression.
func (e *Expression) Difference(other *Expression) []Term {
	left, _ := e.SplitDifference(other)
	return left
}

// SymmetricDifference returns the terms that appear in exactly one of
// the two expressions.
func (e *Expression) SymmetricDifference(other *Expression) []Term {
	left, right := e.SplitDifference(other)
	return append(left, right...)
}

// SplitDifference returns the one-sided differences: the terms in this
// expression that are not in other, and the terms in other that are not
// in this expression.
func (e *Expression) SplitDifference(other *Expression) ([]Term, []Term) {
	mine := termSet(e.terms)
	theirs := termSet(other.terms)
	var left, right []Term
	for _, term := range e.terms {
		if _, ok := theirs[term.key()]; !ok {
			left = append(left, term)
		}
	}
	for _, term := range other.terms {
		if _, ok := mine[term.key()]; !ok {
			right = append(right, term)
		}
	}
	return left, right
}

func termSet(terms []Term) map[string]struct{} {
	set := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		set[term.key()] = struct{}{}
	}
	return set
}

// Reduce algebraically combines terms with equal bases across the given
// groups: coefficients multiply and exponents add. Terms whose exponent
// cancels to zero drop out, as does the "1" base, and the aggregate
// constant leads the result only when it differs from 1. Variable terms
// sort by descending exponent, alphabetically within equal exponents.
func Reduce(groups ...[]Term) []Term {
	type accumulated struct {
		coefficient *big.Rat
		exponent    *big.Rat
	}
	order := []string{}
	merged := map[string]*accumulated{}
	for _, group := range groups {
		for _, t := range group {
			if entry, ok := merged[t.Base]; ok {
				entry.coefficient = ratMul(entry.coefficient, t.Coefficient)
				entry.exponent = ratAdd(entry.exponent, t.Exponent)
				continue
			}
			merged[t.Base] = &accumulated{
				coefficient: t.Coefficient,
				exponent:    t.Exponent,
			}
			order = append(order, t.Base)
		}
	}
	constant := ratOne()
	var variables []Term
	for _, base := range order {
		entry := merged[base]
		constant = ratMul(constant, entry.coefficient)
		if base == "1" || entry.exponent.Sign() == 0 {
			continue
		}
		variables = append(variables, Term{
			Coefficient: ratOne(),
			Base:        base,
			Exponent:    entry.exponent,
		})
	}
	sort.SliceStable(variables, func(i, j int) bool {
		return variables[i].Base < variables[j].Base
	})
	sort.SliceStable(variables, func(i, j int) bool {
		return variables[i].Exponent.Cmp(variables[j].Exponent) > 0
	})
	if len(variables) == 0 {
		return []Term{NewConstant(constant)}
	}
	if isOne(constant) {
		return variables
	}
	return append([]Term{NewConstant(constant)}, variables...)
}

// Cache memoizes parsed expressions keyed by their input string. It is
// safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Expression
}

// NewCache returns an empty expression cache.
func NewCache() *Cache {
	return &Cache{entries: map[string]*Expression{}}
}

// Get returns the expression for the given input, parsing and storing
// it on the first request.
func (c *Cache) Get(input string) (*Expression, error) {
	c.mu.RLock()
	cached, ok := c.entries[input]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}
	parsed, err := NewExpression(input)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.entries[input] = parsed
	c.mu.Unlock()
	return parsed, nil
}
