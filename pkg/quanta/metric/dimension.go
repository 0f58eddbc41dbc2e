package metric

import (
	"sort"
	"sync"

	"github.com/sambeau/quanta/pkg/quanta/symbolic"
)

// Dimension is a symbolic expression representing a physical
// dimension, e.g. "M L^2 T^-2".
type Dimension struct {
	expr *symbolic.Expression

	mu         sync.Mutex
	quantities map[string][]string
}

// NewDimension parses a dimension expression.
func NewDimension(arg string) (*Dimension, error) {
	expr, err := exprCache.Get(arg)
	if err != nil {
		return nil, err
	}
	return &Dimension{expr: expr, quantities: map[string][]string{}}, nil
}

func newDimension(expr *symbolic.Expression) *Dimension {
	return &Dimension{expr: expr, quantities: map[string][]string{}}
}

// Expression returns the symbolic form of this dimension.
func (d *Dimension) Expression() *symbolic.Expression {
	return d.expr
}

// Len returns the number of terms in this dimension.
func (d *Dimension) Len() int {
	return d.expr.Len()
}

func (d *Dimension) Format() string {
	return d.expr.Format()
}

func (d *Dimension) String() string {
	return d.Format()
}

// Equal reports whether two dimensions are symbolically equal. A nil
// dimension only equals another nil dimension.
func (d *Dimension) Equal(other *Dimension) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.expr.Equal(other.expr)
}

// EqualString parses the given expression and compares it to this
// dimension.
func (d *Dimension) EqualString(s string) bool {
	if d == nil {
		return false
	}
	return d.expr.EqualString(s)
}

// IsUnity reports whether this dimension is dimensionless.
func (d *Dimension) IsUnity() bool {
	return d != nil && d.expr.IsUnity()
}

// Quantities returns the names of the quantities that have this
// dimension in the given metric system.
func (d *Dimension) Quantities(system string) ([]string, error) {
	d.mu.Lock()
	cached, ok := d.quantities[system]
	d.mu.Unlock()
	if ok {
		return cached, nil
	}
	var found []string
	for _, quantity := range QuantityNames() {
		canonical, err := CanonicalDimension(system, quantity)
		if err != nil {
			return nil, err
		}
		if d.expr.EqualString(canonical) {
			found = append(found, quantity)
		}
	}
	sort.Strings(found)
	d.mu.Lock()
	d.quantities[system] = found
	d.mu.Unlock()
	return found, nil
}

// Dimensions maps each metric system to the corresponding dimension of
// some unit or quantity. A nil entry means the dimension is undefined
// in that system.
type Dimensions map[string]*Dimension

// Common reports whether every system shares one dimension, and
// returns it.
func (d Dimensions) Common() (*Dimension, bool) {
	var first *Dimension
	for i, system := range Systems {
		dimension := d[system]
		if dimension == nil {
			return nil, false
		}
		if i == 0 {
			first = dimension
			continue
		}
		if !first.Equal(dimension) {
			return nil, false
		}
	}
	return first, true
}
