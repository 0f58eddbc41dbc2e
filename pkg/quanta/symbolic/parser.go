package symbolic

import (
	"math/big"

	"github.com/sambeau/quanta/pkg/quanta/errors"
)

// OperatorOrder determines how the parser responds when operator order
// violates the NIST guidelines for unit expressions.
type OperatorOrder int

const (
	// OrderIgnore treats operators independently of one another.
	OrderIgnore OperatorOrder = iota
	// OrderError rejects expressions with an ambiguous order of
	// operations: multiple '/' on one level, or '*' after '/'.
	OrderError
)

// Parser resolves symbolic expressions into lists of irreducible terms.
type Parser struct {
	operands  *OperandFactory
	operators *OperatorFactory
	order     OperatorOrder
}

// NewParser returns a parser that ignores operator-order ambiguity.
func NewParser() *Parser {
	return NewParserWithOrder(OrderIgnore)
}

// NewParserWithOrder returns a parser with the given operator-order
// policy.
func NewParserWithOrder(order OperatorOrder) *Parser {
	return &Parser{
		operands:  NewOperandFactory(),
		operators: NewOperatorFactory(),
		order:     order,
	}
}

// Parse resolves the given string into individual terms.
func (p *Parser) Parse(s string) ([]Term, error) {
	root := Operand{Coefficient: ratOne(), Base: s, Exponent: ratOne()}
	return p.resolve(root)
}

// resolve separates a symbolic group into operators and operands,
// recursing into nested groups, and appends the group's own coefficient
// as a trailing constant term.
func (p *Parser) resolve(current Operand) ([]Term, error) {
	operands, err := p.parseOperand(current)
	if err != nil {
		return nil, err
	}
	var terms []Term
	for _, operand := range operands {
		if operand.IsTerm() {
			terms = append(terms, operand.Term())
			continue
		}
		nested, err := p.resolve(operand)
		if err != nil {
			return nil, err
		}
		terms = append(terms, nested...)
	}
	return append(terms, NewConstant(current.Coefficient)), nil
}

// parseOperand resolves a general operand into simpler operands. Known
// operators and operands are parsed from the front of the string while
// nested groups are preserved intact; resolve passes those groups back
// in for further parsing.
func (p *Parser) parseOperand(initial Operand) ([]Operand, error) {
	var operands []Operand
	rest := initial.Base
	previous := OpNone
	for rest != "" {
		current := OpNone
		if op, n, ok := p.operators.Parse(rest); ok {
			current = op
			if err := p.orderError(op, previous, initial.Base); err != nil {
				return nil, err
			}
			rest = rest[n:]
		}
		var operand *Operand
		if m, ok := p.operands.Parse(rest); ok {
			applied := m.Operand.Pow(initial.Exponent)
			operand = &applied
			rest = m.Remainder
		}
		next, err := p.computeOperand(operand, current, initial.Base)
		if err != nil {
			return nil, err
		}
		operands = append(operands, next)
		previous = current
	}
	return operands, nil
}

// computeOperand applies the parsed operator to the parsed operand.
func (p *Parser) computeOperand(operand *Operand, op Operator, source string) (Operand, error) {
	switch {
	case operand != nil && op != OpNone:
		return p.evaluate(op, *operand), nil
	case operand != nil:
		return *operand, nil
	case op != OpNone:
		return Operand{}, errors.New("PARSE-0002", map[string]any{"Text": source})
	default:
		return Operand{}, errors.New("PARSE-0001", map[string]any{"Text": source})
	}
}

// orderError checks for operator sequences that introduce an ambiguous
// order of operations: multiple divisions on a single level
// ("a / b / c") and multiplication after division on the same level
// ("a / b * c"). Both are only rejected under OrderError; grouping
// resolves them, e.g. "(a / b) / c" or "a / (b * c)".
func (p *Parser) orderError(current, previous Operator, source string) error {
	if p.order == OrderIgnore {
		return nil
	}
	if previous == OpDivide {
		if current == OpDivide {
			return errors.New("PARSE-0003", map[string]any{"Text": source})
		}
		if current == OpMultiply {
			return errors.New("PARSE-0004", map[string]any{"Text": source})
		}
	}
	return nil
}

// evaluate computes the effect of an operator on an operand.
func (p *Parser) evaluate(op Operator, operand Operand) Operand {
	switch op {
	case OpDivide:
		return operand.Pow(big.NewRat(-1, 1))
	case OpSqrt:
		return operand.Pow(big.NewRat(1, 2))
	default:
		// Multiplication leaves the operand unchanged.
		return operand
	}
}
