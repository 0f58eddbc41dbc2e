// Package errors provides structured error types for the quanta engine.
//
// This package defines QuantaError, a unified error type that can represent
// parsing and conversion failures with rich metadata for display and
// programmatic handling.
package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
)

// ErrorClass categorizes errors for filtering and templating.
type ErrorClass string

const (
	ClassParse      ErrorClass = "parse"      // Symbolic parsing errors
	ClassOperand    ErrorClass = "operand"    // Malformed operands
	ClassUnit       ErrorClass = "unit"       // Unit identification errors
	ClassConversion ErrorClass = "conversion" // Undefined conversions
	ClassSystem     ErrorClass = "system"     // Metric-system errors
	ClassQuantity   ErrorClass = "quantity"   // Physical-quantity errors
)

// QuantaError represents any error from parsing or conversion.
type QuantaError struct {
	Class   ErrorClass     `json:"class"`           // Error category
	Code    string         `json:"code"`            // Error code (e.g., "PARSE-0001")
	Message string         `json:"message"`         // Human-readable message
	Hints   []string       `json:"hints,omitempty"` // Suggestions for fixing
	Data    map[string]any `json:"data,omitempty"`  // Template variables
}

// Error implements the error interface.
func (e *QuantaError) Error() string {
	return e.String()
}

// String returns a formatted string representation of the error.
func (e *QuantaError) String() string {
	var sb strings.Builder

	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// PrettyString returns a multi-line formatted string for display.
func (e *QuantaError) PrettyString() string {
	var sb strings.Builder

	switch e.Class {
	case ClassParse, ClassOperand:
		sb.WriteString("Parse error")
	case ClassConversion:
		sb.WriteString("Conversion error")
	default:
		sb.WriteString("Metric error")
	}
	sb.WriteString(":\n  ")
	sb.WriteString(e.Message)

	for i, hint := range e.Hints {
		sb.WriteString("\n  ")
		if i == 0 {
			sb.WriteString("Use: ")
		} else {
			sb.WriteString(" or: ")
		}
		sb.WriteString(hint)
	}

	return sb.String()
}

// ToJSON returns the error as JSON bytes.
func (e *QuantaError) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// IsParseError returns true if this is a parse or operand error.
func (e *QuantaError) IsParseError() bool {
	return e.Class == ClassParse || e.Class == ClassOperand
}

// Is reports whether err is a QuantaError carrying the given code.
func Is(err error, code string) bool {
	var qe *QuantaError
	if ok := asQuantaError(err, &qe); ok {
		return qe.Code == code
	}
	return false
}

// ClassOf returns the class of err, or the empty string if err is not a
// QuantaError.
func ClassOf(err error) ErrorClass {
	var qe *QuantaError
	if ok := asQuantaError(err, &qe); ok {
		return qe.Class
	}
	return ""
}

func asQuantaError(err error, target **QuantaError) bool {
	for err != nil {
		if qe, ok := err.(*QuantaError); ok {
			*target = qe
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// ErrorDef defines an error in the catalog.
type ErrorDef struct {
	Class    ErrorClass // Error category
	Template string     // Message template with {{.placeholders}}
	Hints    []string   // Hint templates (may use {{.placeholders}})
}

// ErrorCatalog maps error codes to their definitions.
var ErrorCatalog = map[string]ErrorDef{
	// ========================================
	// Parse errors (PARSE-0xxx)
	// ========================================
	"PARSE-0001": {
		Class:    ClassParse,
		Template: "failed to parse '{{.Text}}'",
	},
	"PARSE-0002": {
		Class:    ClassParse,
		Template: "operator without operand in '{{.Text}}'",
	},
	"PARSE-0003": {
		Class:    ClassParse,
		Template: "the expression '{{.Text}}' contains an ambiguous '/'",
		Hints: []string{
			"group the ratio explicitly, e.g. '(a / b) / c' or 'a / (b / c)'",
			"see the NIST guidelines: https://physics.nist.gov/cuu/Units/checklist.html",
		},
	},
	"PARSE-0004": {
		Class:    ClassParse,
		Template: "the expression '{{.Text}}' contains an ambiguous '*'",
		Hints: []string{
			"group '*' in parentheses when it follows '/', e.g. 'a / (b * c)'",
		},
	},
	"PARSE-0005": {
		Class:    ClassParse,
		Template: "cannot raise an expression to the power '{{.Exponent}}'",
	},

	// ========================================
	// Operand errors (OPERAND-0xxx)
	// ========================================
	"OPERAND-0001": {
		Class:    ClassOperand,
		Template: "operand '{{.Text}}' must not begin or end with '^'",
	},
	"OPERAND-0002": {
		Class:    ClassOperand,
		Template: "invalid base for a symbolic term: '{{.Base}}'",
	},
	"OPERAND-0003": {
		Class:    ClassOperand,
		Template: "invalid rational value: '{{.Value}}'",
	},

	// ========================================
	// Unit errors (UNIT-0xxx)
	// ========================================
	"UNIT-0001": {
		Class:    ClassUnit,
		Template: "unable to identify unit '{{.Unit}}'",
		// Hint "Did you mean `X`?" added dynamically by fuzzy matching
	},
	"UNIT-0002": {
		Class:    ClassUnit,
		Template: "cannot compare '{{.U0}}' to '{{.U1}}': different base units",
	},

	// ========================================
	// Conversion errors (CONV-0xxx)
	// ========================================
	"CONV-0001": {
		Class:    ClassConversion,
		Template: "cannot convert '{{.Source}}' to '{{.Target}}'",
	},
	"CONV-0002": {
		Class:    ClassConversion,
		Template: "conversion from '{{.Source}}' to '{{.Target}}' is ambiguous without knowledge of physical quantity",
		Hints: []string{
			"pass an explicit quantity, e.g. 'velocity' or 'conductance'",
		},
	},

	// ========================================
	// System errors (SYS-0xxx)
	// ========================================
	"SYS-0001": {
		Class:    ClassSystem,
		Template: "the dimension of '{{.Unit}}' is ambiguous across metric systems",
	},
	"SYS-0002": {
		Class:    ClassSystem,
		Template: "unknown metric system '{{.System}}'",
		Hints:    []string{"known systems are 'mks' and 'cgs'"},
	},
	"SYS-0003": {
		Class:    ClassSystem,
		Template: "could not determine unit in {{.System}} from {{.Targets}}",
	},
	"SYS-0004": {
		Class:    ClassSystem,
		Template: "cannot define the dimension of '{{.Unit}}' in '{{.System}}'",
	},

	// ========================================
	// Quantity errors (QTY-0xxx)
	// ========================================
	"QTY-0001": {
		Class:    ClassQuantity,
		Template: "unknown quantity '{{.Quantity}}'",
	},
	"QTY-0002": {
		Class:    ClassQuantity,
		Template: "no properties available for '{{.Quantity}}' in '{{.System}}'",
	},
}

// New creates a QuantaError from the catalog.
// If the code is not found, creates a generic error with the message.
func New(code string, data map[string]any) *QuantaError {
	def, ok := ErrorCatalog[code]
	if !ok {
		msg := code
		if data != nil {
			if m, ok := data["message"].(string); ok {
				msg = m
			}
		}
		return &QuantaError{
			Class:   ClassParse,
			Code:    code,
			Message: msg,
			Data:    data,
		}
	}

	msg := renderTemplate(def.Template, data)

	var hints []string
	for _, hintTmpl := range def.Hints {
		rendered := renderTemplate(hintTmpl, data)
		if rendered != "" {
			hints = append(hints, rendered)
		}
	}

	return &QuantaError{
		Class:   def.Class,
		Code:    code,
		Message: msg,
		Hints:   hints,
		Data:    data,
	}
}

// NewSimple creates a simple error without using the catalog.
func NewSimple(class ErrorClass, message string) *QuantaError {
	return &QuantaError{
		Class:   class,
		Message: message,
	}
}

// renderTemplate renders a Go template with the given data.
func renderTemplate(tmplStr string, data map[string]any) string {
	if data == nil {
		return tmplStr
	}

	tmpl, err := template.New("").Parse(tmplStr)
	if err != nil {
		return tmplStr
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmplStr
	}

	return buf.String()
}

// ============================================================================
// Fuzzy Matching - "Did you mean?" suggestions
// ============================================================================

// levenshteinDistance computes the edit distance between two strings.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(a)][len(b)]
}

// FindClosestMatch finds the closest match to the given string from candidates.
// Returns the best match if the distance is within the threshold, otherwise
// empty string. The threshold scales with the length of the input.
func FindClosestMatch(input string, candidates []string) string {
	if len(input) == 0 || len(candidates) == 0 {
		return ""
	}

	var bestMatch string
	bestDistance := -1

	for _, candidate := range candidates {
		dist := levenshteinDistance(input, candidate)
		if bestDistance == -1 || dist < bestDistance {
			bestDistance = dist
			bestMatch = candidate
		}
	}

	threshold := 1
	if len(input) >= 4 && len(input) <= 6 {
		threshold = 2
	} else if len(input) >= 7 {
		threshold = 3
	}

	if bestDistance <= 0 || bestDistance > threshold {
		return ""
	}

	return bestMatch
}

// NewUnknownUnit creates a unit-identification error with optional fuzzy
// matching against the known unit symbols.
func NewUnknownUnit(unit string, knownUnits []string) *QuantaError {
	err := New("UNIT-0001", map[string]any{"Unit": unit})
	if suggestion := FindClosestMatch(unit, knownUnits); suggestion != "" {
		err.Hints = append(err.Hints, fmt.Sprintf("Did you mean `%s`?", suggestion))
	}
	return err
}
