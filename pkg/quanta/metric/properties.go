package metric

import (
	"math/big"
	"strings"

	"github.com/sambeau/quanta/pkg/quanta/errors"
	"github.com/sambeau/quanta/pkg/quanta/symbolic"
)

// The two metric properties defined for every quantity.
const (
	propDimensions = "dimensions"
	propUnits      = "units"
)

// exprCache memoizes every unit and dimension string this package
// parses.
var exprCache = symbolic.NewCache()

// property returns the per-system values of one metric property for
// the named quantity. Quantities defined as references to other
// quantities are expanded symbolically: the property of each
// constituent quantity is raised to the constituent's exponent and the
// results are multiplied together.
func (r *reference) property(kind, quantity string) (map[string]string, error) {
	key := propertyKey{kind: kind, quantity: quantity}
	r.mu.Lock()
	cached, ok := r.properties[key]
	r.mu.Unlock()
	if ok {
		return cached, nil
	}
	computed, err := r.computeProperty(kind, quantity)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.properties[key] = computed
	r.mu.Unlock()
	return computed, nil
}

type propertyKey struct {
	kind     string
	quantity string
}

func (r *reference) computeProperty(kind, quantity string) (map[string]string, error) {
	def, ok := r.quantities[quantity]
	if !ok {
		return r.parseCompound(kind, quantity)
	}
	if def.Ref != "" {
		return r.parseCompound(kind, def.Ref)
	}
	if kind == propDimensions {
		return def.Dimensions, nil
	}
	return def.Units, nil
}

// parseCompound resolves a compound quantity like "length / time" into
// per-system property strings.
func (r *reference) parseCompound(kind, compound string) (map[string]string, error) {
	expr, err := exprCache.Get(r.underscored(compound))
	if err != nil {
		return nil, errors.New("QTY-0001", map[string]any{"Quantity": compound})
	}
	merged := map[string][]string{}
	for _, term := range expr.Terms() {
		if term.Base == "1" {
			continue
		}
		name := strings.ReplaceAll(term.Base, "_", " ")
		if _, known := r.quantities[name]; !known && name == compound {
			return nil, errors.New("QTY-0001", map[string]any{"Quantity": compound})
		}
		sub, err := r.property(kind, name)
		if err != nil {
			return nil, err
		}
		for system, value := range sub {
			merged[system] = append(merged[system], raiseGroup(value, term.Exponent))
		}
	}
	resolved := map[string]string{}
	for system, parts := range merged {
		combined, err := symbolic.FromParts(parts)
		if err != nil {
			return nil, err
		}
		resolved[system] = combined.Format()
	}
	return resolved, nil
}

// underscored rewrites multi-word quantity names so the symbolic
// parser treats each as a single base.
func (r *reference) underscored(s string) string {
	for _, name := range r.multiword {
		s = strings.ReplaceAll(s, name, strings.ReplaceAll(name, " ", "_"))
	}
	return s
}

func raiseGroup(value string, exponent *big.Rat) string {
	if exponent.Cmp(big.NewRat(1, 1)) == 0 {
		return value
	}
	return "(" + value + ")^" + exponent.RatString()
}

// CanonicalUnit returns the canonical unit of the named quantity in
// the given metric system.
func CanonicalUnit(system, quantity string) (string, error) {
	units, err := load().property(propUnits, quantity)
	if err != nil {
		return "", err
	}
	unit, ok := units[strings.ToLower(system)]
	if !ok {
		return "", errors.New("SYS-0002", map[string]any{"System": system})
	}
	return unit, nil
}

// CanonicalDimension returns the dimension of the named quantity in
// the given metric system.
func CanonicalDimension(system, quantity string) (string, error) {
	dimensions, err := load().property(propDimensions, quantity)
	if err != nil {
		return "", err
	}
	dimension, ok := dimensions[strings.ToLower(system)]
	if !ok {
		return "", errors.New("SYS-0002", map[string]any{"System": system})
	}
	return dimension, nil
}

// QuantityNames returns the names of all defined quantities, sorted.
func QuantityNames() []string {
	names := load().quantityNames
	out := make([]string, len(names))
	copy(out, names)
	return out
}
