package units

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	reg := NewRegistry()
	tests := map[string]struct {
		input  string
		name   string
		factor float64
		base   Units
	}{
		"base unit":          {input: "meter", name: "meter", factor: 1, base: Of("meter", 1)},
		"symbol":             {input: "s", name: "second", factor: 1, base: Of("second", 1)},
		"plural":             {input: "seconds", name: "second", factor: 1, base: Of("second", 1)},
		"irregular plural":   {input: "feet", name: "foot", factor: 0.3048, base: Of("meter", 1)},
		"prefixed name":      {input: "millimeter", name: "millimeter", factor: 1e-3, base: Of("meter", 1)},
		"prefixed symbol":    {input: "mm", name: "millimeter", factor: 1e-3, base: Of("meter", 1)},
		"micro symbol":       {input: "µs", name: "microsecond", factor: 1e-6, base: Of("second", 1)},
		"kilogram symbol":    {input: "kg", name: "kilogram", factor: 1, base: Of("kilogram", 1)},
		"prefixed gram":      {input: "mg", name: "milligram", factor: 1e-6, base: Of("kilogram", 1)},
		"derived":            {input: "N", name: "newton", factor: 1, base: Units{{"kilogram", Int(1)}, {"meter", Int(1)}, {"second", Int(-2)}}},
		"prefixed derived":   {input: "kPa", name: "kilopascal", factor: 1e3, base: Units{{"kilogram", Int(1)}, {"meter", Int(-1)}, {"second", Int(-2)}}},
		"angle":              {input: "deg", name: "degree", factor: math.Pi / 180, base: Of("radian", 1)},
		"dimensionless base": {input: "count", name: "count", factor: 1, base: Units{}},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			res, err := reg.Lookup(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.name, res.Name)
			assert.InDelta(t, tc.factor, res.Factor, tc.factor*1e-12)
			assert.True(t, tc.base.Equal(res.Base), "expected %s, got %s", tc.base, res.Base)
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"", "parsec", "mkg", "ms2"} {
		_, err := reg.Lookup(name)
		var unsupported *ErrUnsupportedUnit
		assert.True(t, errors.As(err, &unsupported), "expected ErrUnsupportedUnit for %q", name)
	}
}

func TestParse_CompoundDecomposesToPrimitives(t *testing.T) {
	reg := NewRegistry()
	tests := map[string]struct {
		expr     string
		expected Units
	}{
		"double star powers": {
			expr: "kg**-1 * m**-1 * s**2 * A**2",
			expected: Units{
				{"kilogram", Int(-1)},
				{"meter", Int(-1)},
				{"second", Int(2)},
				{"ampere", Int(2)},
			},
		},
		"division":       {expr: "V/s", expected: Units{{"volt", Int(1)}, {"second", Int(-1)}}},
		"reciprocal":     {expr: "1/s", expected: Units{{"second", Int(-1)}}},
		"juxtaposition":  {expr: "N m", expected: Units{{"newton", Int(1)}, {"meter", Int(1)}}},
		"caret power":    {expr: "mm^2", expected: Units{{"millimeter", Int(2)}}},
		"fractional":     {expr: "m^(1/2)", expected: Units{{"meter", Frac(1, 2)}}},
		"decimal":        {expr: "m**0.5", expected: Units{{"meter", Frac(1, 2)}}},
		"accumulates":    {expr: "m*s/m^2", expected: Units{{"meter", Int(-1)}, {"second", Int(1)}}},
		"cancels":        {expr: "m/m", expected: Units{}},
		"parenthesised":  {expr: "kg/(m*s^2)", expected: Units{{"kilogram", Int(1)}, {"meter", Int(-1)}, {"second", Int(-2)}}},
		"power then div": {expr: "m^2/s", expected: Units{{"meter", Int(2)}, {"second", Int(-1)}}},
		"dimensionless":  {expr: "dimensionless", expected: Units{}},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			parsed, err := reg.Parse(tc.expr)
			require.NoError(t, err)
			assert.Equal(t, len(tc.expected), len(parsed))
			assert.True(t, tc.expected.Equal(parsed), "expected %s, got %s", tc.expected, parsed)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	reg := NewRegistry()
	for _, expr := range []string{"m^", "2*m", "(m", "m)", "m^x", "bogus/s", "m % s"} {
		_, err := reg.Parse(expr)
		var unsupported *ErrUnsupportedUnit
		assert.True(t, errors.As(err, &unsupported), "expected ErrUnsupportedUnit for %q, got %v", expr, err)
	}
}

func TestParse_ResultIsNotShared(t *testing.T) {
	reg := NewRegistry()
	first, err := reg.Parse("m/s")
	require.NoError(t, err)
	first[0].Name = "changed"

	second, err := reg.Parse("m/s")
	require.NoError(t, err)
	assert.Equal(t, "meter", second[0].Name)
}

func TestDecompose(t *testing.T) {
	reg := NewRegistry()
	decomposed, err := reg.Decompose(Units{
		{Name: "N*m", Exponent: Int(1)},
		{Name: "meter", Exponent: Int(-1)},
		{Name: "s", Exponent: Int(2)},
	})
	require.NoError(t, err)
	assert.True(t, Units{{"newton", Int(1)}, {"second", Int(2)}}.Equal(decomposed), "got %s", decomposed)
}

func TestBaseOf(t *testing.T) {
	reg := NewRegistry()
	factor, base, err := reg.BaseOf(Units{{Name: "millimeter", Exponent: Int(2)}})
	require.NoError(t, err)
	assert.InDelta(t, 1e-6, factor, 1e-18)
	assert.True(t, Of("meter", 2).Equal(base))

	factor, base, err = reg.BaseOf(Units{{Name: "revolutions_per_minute", Exponent: Int(1)}})
	require.NoError(t, err)
	assert.InDelta(t, 2*math.Pi/60, factor, 1e-12)
	assert.True(t, Units{{"radian", Int(1)}, {"second", Int(-1)}}.Equal(base))
}

func TestDefine_RejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	assert.Error(t, reg.DefineBase("meter", "mtr"))
	assert.Error(t, reg.DefineBase("metre", "m"))
	assert.NoError(t, reg.DefineDerived("angstrom", "Å", 1e-10, "meter"))

	res, err := reg.Lookup("angstroms")
	require.NoError(t, err)
	assert.InDelta(t, 1e-10, res.Factor, 1e-22)
}

func TestEmptyRegistry(t *testing.T) {
	reg := NewEmptyRegistry()
	_, err := reg.Lookup("meter")
	assert.Error(t, err)
	assert.Empty(t, reg.Names())
}

func TestExponent(t *testing.T) {
	assert.Equal(t, Frac(1, 2), Frac(2, 4))
	assert.Equal(t, Frac(-1, 2), Frac(1, -2))
	assert.Equal(t, Int(0), Frac(0, 7))
	assert.Equal(t, "3/2", Frac(1, 2).Add(Int(1)).String())
	assert.Equal(t, Int(-2), Int(2).Neg())
	assert.True(t, Frac(2, 3).Mul(Frac(3, 2)).Equal(Int(1)))
	assert.Equal(t, 0.25, Frac(1, 4).Float64())
	assert.Equal(t, int64(1), Exponent{}.Den())
}

func TestExponent_JSON(t *testing.T) {
	data, err := json.Marshal([]Exponent{Int(-1), Frac(1, 2)})
	require.NoError(t, err)
	assert.JSONEq(t, `[-1, 0.5]`, string(data))

	var decoded []Exponent
	require.NoError(t, json.Unmarshal([]byte(`[2, -0.5, 1.0, 0.25]`), &decoded))
	assert.Equal(t, []Exponent{Int(2), Frac(-1, 2), Int(1), Frac(1, 4)}, decoded)

	var bad Exponent
	assert.Error(t, json.Unmarshal([]byte(`"two"`), &bad))
}

func TestExponent_JSONRecurringDecimals(t *testing.T) {
	tests := map[string]Exponent{
		"one third":        Frac(1, 3),
		"minus two thirds": Frac(-2, 3),
		"five sevenths":    Frac(5, 7),
		"large":            Frac(7, 3),
		"denominator 999":  Frac(1, 999),
	}
	for name, e := range tests {
		t.Run(name, func(t *testing.T) {
			data, err := json.Marshal(e)
			require.NoError(t, err)
			var decoded Exponent
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, e, decoded, "wire form %s", data)
		})
	}
}

func TestParseExponent_KeepsExactDecimals(t *testing.T) {
	e, err := ParseExponent("0.0001")
	require.NoError(t, err)
	assert.Equal(t, Frac(1, 10000), e)

	e, err = ParseExponent("0.125")
	require.NoError(t, err)
	assert.Equal(t, Frac(1, 8), e)
}

func TestUnitsString(t *testing.T) {
	u := Units{{"kilogram", Int(-1)}, {"meter", Int(1)}, {"second", Frac(1, 2)}}
	assert.Equal(t, "kilogram^-1*meter*second^(1/2)", u.String())
	assert.Equal(t, "dimensionless", Units{}.String())
}
