package units

import "math"

type derived struct {
	name    string
	symbol  string
	factor  float64
	expr    string
	aliases []string
}

// Order matters: each expression may only reference units defined above it.
var defaultDerived = []derived{
	{"gram", "g", 1e-3, "kilogram", nil},
	{"minute", "min", 60, "second", nil},
	{"hour", "h", 3600, "second", nil},
	{"hertz", "Hz", 1, "1/second", nil},
	{"newton", "N", 1, "kilogram*meter/second^2", nil},
	{"pascal", "Pa", 1, "newton/meter^2", nil},
	{"bar", "", 1e5, "pascal", nil},
	{"joule", "J", 1, "newton*meter", nil},
	{"watt", "W", 1, "joule/second", nil},
	{"coulomb", "C", 1, "ampere*second", nil},
	{"volt", "V", 1, "watt/ampere", nil},
	{"ohm", "Ω", 1, "volt/ampere", []string{"Ohm"}},
	{"siemens", "S", 1, "ampere/volt", nil},
	{"farad", "F", 1, "coulomb/volt", nil},
	{"weber", "Wb", 1, "volt*second", nil},
	{"tesla", "T", 1, "weber/meter^2", nil},
	{"henry", "H", 1, "weber/ampere", nil},
	{"degree", "deg", math.Pi / 180, "radian", []string{"°"}},
	{"revolution", "rev", 2 * math.Pi, "radian", []string{"turn"}},
	{"revolutions_per_minute", "rpm", 1, "revolution/minute", nil},
	{"inch", "in", 0.0254, "meter", []string{"inches"}},
	{"foot", "ft", 0.3048, "meter", []string{"feet"}},
	{"furlong", "", 201.168, "meter", nil},
	{"liter", "l", 1e-3, "meter^3", []string{"litre", "L"}},
}

func (r *Registry) loadDefaults() error {
	bases := []struct{ name, symbol string }{
		{"meter", "m"},
		{"kilogram", "kg"},
		{"second", "s"},
		{"ampere", "A"},
		{"kelvin", "K"},
		{"mole", "mol"},
		{"candela", "cd"},
		{"radian", "rad"},
	}
	for _, b := range bases {
		if err := r.DefineBase(b.name, b.symbol); err != nil {
			return err
		}
	}
	// kilogram is already prefixed; prefixes go on gram instead
	r.defs["kilogram"].Prefixable = false

	if err := r.Define(Definition{Name: "count", Factor: 1}); err != nil {
		return err
	}
	for _, d := range defaultDerived {
		if err := r.DefineDerived(d.name, d.symbol, d.factor, d.expr, d.aliases...); err != nil {
			return err
		}
	}
	return nil
}
