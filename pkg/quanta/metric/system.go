package metric

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sambeau/quanta/pkg/quanta/errors"
)

// Properties holds the canonical unit and dimension of a physical
// quantity within one metric system.
type Properties struct {
	system string
	unit   *Unit

	mu        sync.Mutex
	dimension *Dimension
}

// NewProperties creates the canonical properties of a quantity from
// its system and unit.
func NewProperties(system, unit string) (*Properties, error) {
	u, err := NewUnit(unit)
	if err != nil {
		return nil, err
	}
	return &Properties{system: strings.ToLower(system), unit: u}, nil
}

// System returns the name of the metric system.
func (p *Properties) System() string {
	return p.system
}

// Unit returns the canonical unit of this quantity in this system.
func (p *Properties) Unit() *Unit {
	return p.unit
}

// Dimension returns the dimension of this quantity in this system,
// computing it from the unit on first use.
func (p *Properties) Dimension() (*Dimension, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dimension == nil {
		dimension, err := p.unit.DimensionIn(p.system)
		if err != nil {
			return nil, err
		}
		p.dimension = dimension
	}
	return p.dimension, nil
}

// Equal reports whether two property sets have equal units and
// dimensions.
func (p *Properties) Equal(other *Properties) bool {
	if !p.unit.Equal(other.unit) {
		return false
	}
	d0, err := p.Dimension()
	if err != nil {
		return false
	}
	d1, err := other.Dimension()
	if err != nil {
		return false
	}
	return d0.Equal(d1)
}

func (p *Properties) String() string {
	dimension := "undefined"
	if d, err := p.Dimension(); err == nil {
		dimension = d.Format()
	}
	return fmt.Sprintf("unit=%q, dimension=%q [%q]", p.unit.Format(), dimension, p.system)
}

// Quantity represents a physical quantity and its canonical properties
// in every metric system.
type Quantity struct {
	name string
}

var (
	quantityMu sync.Mutex
	quantities = map[string]*Quantity{}
)

// NewQuantity returns the singleton representing the named physical
// quantity. The name is not validated here; lookups report unknown
// quantities when properties are first requested.
func NewQuantity(name string) *Quantity {
	key := strings.ToLower(name)
	quantityMu.Lock()
	defer quantityMu.Unlock()
	if cached, ok := quantities[key]; ok {
		return cached
	}
	q := &Quantity{name: key}
	quantities[key] = q
	return q
}

// Name returns the name of this physical quantity.
func (q *Quantity) Name() string {
	return q.name
}

// Units returns the canonical unit of this quantity in each metric
// system.
func (q *Quantity) Units() (map[string]string, error) {
	return load().property(propUnits, q.name)
}

// Dimensions returns the dimension of this quantity in each metric
// system.
func (q *Quantity) Dimensions() (map[string]string, error) {
	return load().property(propDimensions, q.name)
}

// In returns this quantity's canonical properties in the named metric
// system.
func (q *Quantity) In(system string) (*Properties, error) {
	units, err := q.Units()
	if err != nil {
		return nil, err
	}
	unit, ok := units[strings.ToLower(system)]
	if !ok {
		return nil, errors.New("QTY-0002", map[string]any{
			"Quantity": q.name, "System": system,
		})
	}
	return NewProperties(system, unit)
}

// Convert creates a conversion handler for a unit of this quantity.
//
// Conversions are defined relative to their respective quantities,
// even though two quantities may have identical conversions (e.g.
// frequency and vorticity). The distinction matters for CGS
// electromagnetic units: 'cm / s' is the canonical CGS unit of both
// conductance and velocity, so converting it to MKS requires knowing
// which quantity it measures.
func (q *Quantity) Convert(unit string) (*Converter, error) {
	return NewConverter(unit, q.name)
}

// EquivalentTo reports whether two quantities have equal dimensions in
// every metric system. Distinct quantities can be physically
// equivalent: energy and work have identical dimensions and are linked
// through the work-energy theorem.
func (q *Quantity) EquivalentTo(other *Quantity) (bool, error) {
	for _, system := range Systems {
		p0, err := q.In(system)
		if err != nil {
			return false, err
		}
		p1, err := other.In(system)
		if err != nil {
			return false, err
		}
		d0, err := p0.Dimension()
		if err != nil {
			return false, err
		}
		d1, err := p1.Dimension()
		if err != nil {
			return false, err
		}
		if !d0.Equal(d1) {
			return false, nil
		}
	}
	return true, nil
}

func (q *Quantity) String() string {
	return q.name
}

// System represents the physical quantities of one metric system.
type System struct {
	name string

	mu         sync.Mutex
	units      map[string]string
	dimensions map[string]string
}

var (
	systemMu sync.Mutex
	systems  = map[string]*System{}
)

// NewSystem returns the singleton representing the named metric
// system.
func NewSystem(name string) (*System, error) {
	key := strings.ToLower(name)
	if !IsSystem(key) {
		return nil, errors.New("SYS-0002", map[string]any{"System": name})
	}
	systemMu.Lock()
	defer systemMu.Unlock()
	if cached, ok := systems[key]; ok {
		return cached, nil
	}
	s := &System{name: key}
	systems[key] = s
	return s, nil
}

// Name returns the name of this metric system.
func (s *System) Name() string {
	return s.name
}

func (s *System) String() string {
	return s.name
}

// Quantities returns the names of the quantities defined in this
// system, sorted.
func (s *System) Quantities() []string {
	return QuantityNames()
}

// Properties returns the canonical properties of the named quantity in
// this system.
func (s *System) Properties(quantity string) (*Properties, error) {
	return NewQuantity(quantity).In(s.name)
}

// Units returns the canonical unit of every quantity in this system.
func (s *System) Units() (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.units == nil {
		units, err := s.collect(propUnits)
		if err != nil {
			return nil, err
		}
		s.units = units
	}
	return s.units, nil
}

// Dimensions returns the dimension of every quantity in this system.
func (s *System) Dimensions() (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimensions == nil {
		dimensions, err := s.collect(propDimensions)
		if err != nil {
			return nil, err
		}
		s.dimensions = dimensions
	}
	return s.dimensions, nil
}

func (s *System) collect(kind string) (map[string]string, error) {
	r := load()
	collected := make(map[string]string, len(r.quantityNames))
	for _, quantity := range r.quantityNames {
		values, err := r.property(kind, quantity)
		if err != nil {
			return nil, err
		}
		collected[quantity] = values[s.name]
	}
	return collected, nil
}

// GetDimension computes the dimension of the given unit in this
// system.
func (s *System) GetDimension(unit string) (*Dimension, error) {
	u, err := NewUnit(unit)
	if err != nil {
		return nil, err
	}
	return u.DimensionIn(s.name)
}

// UnitSearch names the targets of a canonical-unit search. Empty
// fields are skipped.
type UnitSearch struct {
	Unit      string
	Dimension string
	Quantity  string
}

// GetUnit finds a canonical unit in this system from a given unit,
// dimension, or quantity, searched in that order. A target of '1'
// short-circuits to the unit of the identity quantity.
func (s *System) GetUnit(search UnitSearch) (*Unit, error) {
	methods := []struct {
		value  string
		lookup func(string) (*Unit, error)
	}{
		{search.Unit, s.unitFromUnit},
		{search.Dimension, s.unitFromDimension},
		{search.Quantity, s.unitFromQuantity},
	}
	for _, method := range methods {
		if method.value == "" {
			continue
		}
		if method.value == "1" {
			return s.unitFromQuantity("identity")
		}
		if found, err := method.lookup(method.value); err == nil && found != nil {
			return found, nil
		}
	}
	return nil, errors.New("SYS-0003", map[string]any{
		"System":  s.name,
		"Targets": formatSearch(search),
	})
}

func formatSearch(search UnitSearch) string {
	var parts []string
	for _, target := range []struct{ key, value string }{
		{"unit", search.Unit},
		{"dimension", search.Dimension},
		{"quantity", search.Quantity},
	} {
		if target.value != "" {
			parts = append(parts, fmt.Sprintf("%s=%q", target.key, target.value))
		}
	}
	if len(parts) == 0 {
		return "nothing"
	}
	if len(parts) < 3 {
		return strings.Join(parts, " or ")
	}
	return strings.Join(parts[:len(parts)-1], ", ") + ", or " + parts[len(parts)-1]
}

func (s *System) unitFromUnit(target string) (*Unit, error) {
	u, err := NewUnit(target)
	if err != nil {
		return nil, err
	}
	return u.Normalize(s.name, "")
}

func (s *System) unitFromDimension(target string) (*Unit, error) {
	dimensions, err := s.Dimensions()
	if err != nil {
		return nil, err
	}
	units, err := s.Units()
	if err != nil {
		return nil, err
	}
	wanted, err := NewDimension(target)
	if err != nil {
		return nil, err
	}
	for _, quantity := range QuantityNames() {
		if wanted.EqualString(dimensions[quantity]) {
			return NewUnit(units[quantity])
		}
	}
	return nil, nil
}

func (s *System) unitFromQuantity(quantity string) (*Unit, error) {
	properties, err := s.Properties(quantity)
	if err != nil {
		return nil, err
	}
	return properties.Unit(), nil
}
