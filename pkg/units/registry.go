package units

import (
	"math"
	"strings"
	"sync"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Definition describes a named unit in terms of the registry's base units.
type Definition struct {
	Name       string   // Canonical name, e.g. "newton"
	Symbol     string   // Optional short symbol, e.g. "N"
	Aliases    []string // Other accepted spellings, including irregular plurals
	Factor     float64  // Multiplier taking a value in this unit to base units
	Base       Units    // Base-unit dimension; empty for dimensionless units
	Prefixable bool     // Whether SI prefixes may be applied
}

// Resolved is the outcome of looking a single unit name up in the registry.
type Resolved struct {
	Name   string
	Factor float64
	Base   Units
}

type prefix struct {
	name   string
	symbol string
	factor float64
}

var siPrefixes = []prefix{
	{"giga", "G", 1e9},
	{"mega", "M", 1e6},
	{"kilo", "k", 1e3},
	{"centi", "c", 1e-2},
	{"milli", "m", 1e-3},
	{"micro", "µ", 1e-6},
	{"micro", "u", 1e-6},
	{"nano", "n", 1e-9},
}

// Registry resolves unit names to base units. A Registry is safe for concurrent use;
// definitions are expected to be added before it is shared.
type Registry struct {
	mu       sync.RWMutex
	defs     map[string]*Definition // canonical name -> definition
	byName   map[string]*Definition // name and aliases
	bySymbol map[string]*Definition
	parsed   *cache.Cache
}

// NewRegistry returns a registry loaded with the default SI and engineering definitions.
func NewRegistry() *Registry {
	r := NewEmptyRegistry()
	if err := r.loadDefaults(); err != nil {
		// The defaults are static; failing to load them is a programming error.
		panic(err)
	}
	return r
}

// NewEmptyRegistry returns a registry with no definitions.
func NewEmptyRegistry() *Registry {
	return &Registry{
		defs:     map[string]*Definition{},
		byName:   map[string]*Definition{},
		bySymbol: map[string]*Definition{},
		parsed:   cache.New(cache.NoExpiration, 0),
	}
}

// Define adds a unit definition. Names, aliases and symbols must not clash with existing ones.
func (r *Registry) Define(def Definition) error {
	if def.Name == "" {
		return errors.New("unit definition requires a name")
	}
	if def.Factor == 0 || math.IsNaN(def.Factor) || math.IsInf(def.Factor, 0) {
		return errors.Errorf("unit %q has invalid factor %v", def.Name, def.Factor)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	names := append([]string{def.Name}, def.Aliases...)
	for _, n := range names {
		if _, exists := r.byName[n]; exists {
			return errors.Errorf("unit name %q already defined", n)
		}
	}
	if def.Symbol != "" {
		if _, exists := r.bySymbol[def.Symbol]; exists {
			return errors.Errorf("unit symbol %q already defined", def.Symbol)
		}
	}

	d := def
	d.Base = def.Base.Merge()
	r.defs[d.Name] = &d
	for _, n := range names {
		r.byName[n] = &d
	}
	if d.Symbol != "" {
		r.bySymbol[d.Symbol] = &d
	}
	r.parsed.Flush()
	return nil
}

// DefineBase adds a base unit: one whose base-unit dimension is itself.
func (r *Registry) DefineBase(name, symbol string, aliases ...string) error {
	return r.Define(Definition{
		Name:       name,
		Symbol:     symbol,
		Aliases:    aliases,
		Factor:     1,
		Base:       Of(name, 1),
		Prefixable: true,
	})
}

// DefineDerived adds a unit equal to factor times the unit expression expr.
func (r *Registry) DefineDerived(name, symbol string, factor float64, expr string, aliases ...string) error {
	parsed, err := r.Parse(expr)
	if err != nil {
		return errors.WithMessagef(err, "defining %q", name)
	}
	f, base, err := r.BaseOf(parsed)
	if err != nil {
		return errors.WithMessagef(err, "defining %q", name)
	}
	return r.Define(Definition{
		Name:       name,
		Symbol:     symbol,
		Aliases:    aliases,
		Factor:     factor * f,
		Base:       base,
		Prefixable: true,
	})
}

// Names returns the canonical names of every defined unit, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := maps.Keys(r.defs)
	slices.Sort(names)
	return names
}

// Lookup resolves a single unit name, symbol, alias, plural or prefixed form.
func (r *Registry) Lookup(name string) (Resolved, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Resolved{}, &ErrUnsupportedUnit{Name: name, Message: "empty unit name"}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if def := r.named(name); def != nil {
		return resolve(def, "", 1), nil
	}
	if def, ok := r.bySymbol[name]; ok {
		return resolve(def, "", 1), nil
	}
	for _, p := range siPrefixes {
		if rest := strings.TrimPrefix(name, p.name); rest != name {
			if def := r.named(rest); def != nil && def.Prefixable {
				return resolve(def, p.name, p.factor), nil
			}
		}
	}
	for _, p := range siPrefixes {
		if rest := strings.TrimPrefix(name, p.symbol); rest != name {
			if def, ok := r.bySymbol[rest]; ok && def.Prefixable {
				return resolve(def, p.name, p.factor), nil
			}
		}
	}
	return Resolved{}, &ErrUnsupportedUnit{Name: name}
}

// named finds a definition by name or alias, accepting a regular plural.
func (r *Registry) named(name string) *Definition {
	if def, ok := r.byName[name]; ok {
		return def
	}
	if len(name) > 2 && strings.HasSuffix(name, "s") {
		if def, ok := r.byName[strings.TrimSuffix(name, "s")]; ok {
			return def
		}
	}
	return nil
}

func resolve(def *Definition, prefixName string, prefixFactor float64) Resolved {
	return Resolved{
		Name:   prefixName + def.Name,
		Factor: prefixFactor * def.Factor,
		Base:   append(Units(nil), def.Base...),
	}
}

// Parse resolves a unit expression such as "kg**-1 * m**-1 * s**2 * A**2" into canonical
// primitive units, one entry per distinct unit.
func (r *Registry) Parse(expr string) (Units, error) {
	key := strings.TrimSpace(expr)
	if cached, ok := r.parsed.Get(key); ok {
		return append(Units(nil), cached.(Units)...), nil
	}
	p := &parser{registry: r, input: key}
	parsed, err := p.parse()
	if err != nil {
		return nil, err
	}
	r.parsed.Set(key, parsed, cache.DefaultExpiration)
	return append(Units(nil), parsed...), nil
}

// Decompose resolves every entry of u, whose names may themselves be compound expressions,
// into canonical primitive units with exponents multiplied through and merged.
func (r *Registry) Decompose(u Units) (Units, error) {
	out := make(Units, 0, len(u))
	for _, unit := range u {
		parsed, err := r.Parse(unit.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, parsed.Pow(unit.Exponent)...)
	}
	return out.Merge(), nil
}

// BaseOf returns the factor converting a value in u to base units, and the base units themselves.
func (r *Registry) BaseOf(u Units) (float64, Units, error) {
	factor := 1.0
	base := Units{}
	for _, unit := range u {
		res, err := r.Lookup(unit.Name)
		if err != nil {
			return 0, nil, err
		}
		if unit.Exponent.IsInt() {
			factor *= math.Pow(res.Factor, float64(unit.Exponent.Num()))
		} else {
			factor *= math.Pow(res.Factor, unit.Exponent.Float64())
		}
		base = append(base, res.Base.Pow(unit.Exponent)...)
	}
	return factor, base.Merge(), nil
}
