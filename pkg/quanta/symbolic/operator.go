package symbolic

import "strings"

// Operator identifies a symbolic operation between operands.
type Operator int

const (
	OpNone Operator = iota
	OpMultiply
	OpDivide
	OpSqrt
)

func (op Operator) String() string {
	switch op {
	case OpMultiply:
		return "multiply"
	case OpDivide:
		return "divide"
	case OpSqrt:
		return "sqrt"
	default:
		return "none"
	}
}

// OperatorFactory recognizes symbolic operators at the start of a
// string.
type OperatorFactory struct {
	multiply byte
	divide   byte
}

// NewOperatorFactory returns a factory using '*' for multiplication and
// '/' for division.
func NewOperatorFactory() *OperatorFactory {
	return &OperatorFactory{multiply: '*', divide: '/'}
}

// Parse extracts an operator at the start of the string, returning the
// operator and the number of bytes consumed (including surrounding
// spaces). An operator immediately followed by its mirror ("*/" or
// "/*") never splits; neither token matches, so the caller fails on the
// missing operand instead of mis-parsing.
func (f *OperatorFactory) Parse(s string) (Operator, int, bool) {
	i := skipSpaces(s, 0)
	if i < len(s) {
		switch s[i] {
		case f.multiply:
			if i+1 >= len(s) || s[i+1] != f.divide {
				return OpMultiply, skipSpaces(s, i+1), true
			}
		case f.divide:
			if i+1 >= len(s) || s[i+1] != f.multiply {
				return OpDivide, skipSpaces(s, i+1), true
			}
		}
	}
	if strings.HasPrefix(s[i:], "sqrt") {
		return OpSqrt, skipSpaces(s, i+len("sqrt")), true
	}
	return OpNone, 0, false
}

func skipSpaces(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}
