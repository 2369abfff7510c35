// Package quantity models physical quantities (a scalar or an n-dimensional array of
// values tagged with units) and converts them to and from the flat wire record used in
// job payloads.
package quantity

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"

	"github.com/tinarmengineering/ltc/pkg/units"
)

// Quantity is an immutable physical value. A quantity holding exactly one element is always a
// scalar; otherwise values are stored flattened in row-major order alongside their shape.
type Quantity struct {
	scalar float64
	values []float64
	shape  []int
	units  units.Units
}

// Scalar returns a scalar quantity.
func Scalar(value float64, u units.Units) *Quantity {
	return &Quantity{scalar: value, units: copyUnits(u)}
}

// New builds a quantity from row-major values. With no shape, several values form a
// one-dimensional array. A single value is a scalar, and may only be given a shape whose
// product is one.
func New(values []float64, u units.Units, shape ...int) (*Quantity, error) {
	if len(values) == 0 {
		return nil, &ErrInvalidQuantity{Message: "magnitude has no elements"}
	}
	for _, dim := range shape {
		if dim < 0 {
			return nil, &ErrInvalidQuantity{Message: fmt.Sprintf("negative dimension in shape %v", shape)}
		}
	}
	if len(shape) > 0 && product(shape) != len(values) {
		return nil, &ErrShapeMismatch{Shape: append([]int(nil), shape...), Elements: len(values)}
	}
	if len(values) == 1 {
		return Scalar(values[0], u), nil
	}
	if len(shape) == 0 {
		shape = []int{len(values)}
	}
	return &Quantity{
		values: append([]float64(nil), values...),
		shape:  append([]int(nil), shape...),
		units:  copyUnits(u),
	}, nil
}

// Parse builds a scalar quantity whose units are given as an expression, e.g. Parse(reg, 10, "V/s").
func Parse(reg *units.Registry, value float64, expr string) (*Quantity, error) {
	u, err := reg.Parse(expr)
	if err != nil {
		return nil, err
	}
	return Scalar(value, u), nil
}

// MustParse is like Parse but panics on error. Intended for tests and static definitions.
func MustParse(reg *units.Registry, value float64, expr string) *Quantity {
	q, err := Parse(reg, value, expr)
	if err != nil {
		panic(err)
	}
	return q
}

func (q *Quantity) IsScalar() bool {
	return q.values == nil
}

// Magnitude returns the scalar value. For arrays it returns the first element.
func (q *Quantity) Magnitude() float64 {
	if q.IsScalar() {
		return q.scalar
	}
	return q.values[0]
}

// Values returns a row-major copy of every element; a scalar yields one element.
func (q *Quantity) Values() []float64 {
	if q.IsScalar() {
		return []float64{q.scalar}
	}
	return append([]float64(nil), q.values...)
}

// Shape returns the array shape, or nil for a scalar.
func (q *Quantity) Shape() []int {
	if q.IsScalar() {
		return nil
	}
	return append([]int(nil), q.shape...)
}

func (q *Quantity) Size() int {
	if q.IsScalar() {
		return 1
	}
	return len(q.values)
}

func (q *Quantity) Units() units.Units {
	return copyUnits(q.units)
}

// At returns the element at the given row-major index.
func (q *Quantity) At(index ...int) (float64, error) {
	if q.IsScalar() {
		if len(index) != 0 {
			return 0, errors.Errorf("scalar quantity cannot be indexed by %v", index)
		}
		return q.scalar, nil
	}
	if len(index) != len(q.shape) {
		return 0, errors.Errorf("index %v does not match shape %v", index, q.shape)
	}
	offset := 0
	for i, idx := range index {
		if idx < 0 || idx >= q.shape[i] {
			return 0, errors.Errorf("index %v out of range for shape %v", index, q.shape)
		}
		offset = offset*q.shape[i] + idx
	}
	return q.values[offset], nil
}

// ToBase converts the quantity to the registry's base units.
func (q *Quantity) ToBase(reg *units.Registry) (*Quantity, error) {
	factor, base, err := reg.BaseOf(q.units)
	if err != nil {
		return nil, err
	}
	return q.scaled(factor, base), nil
}

// Convert expresses the quantity in the target units, which must share its base dimension.
func (q *Quantity) Convert(reg *units.Registry, target units.Units) (*Quantity, error) {
	fromFactor, fromBase, err := reg.BaseOf(q.units)
	if err != nil {
		return nil, err
	}
	toFactor, toBase, err := reg.BaseOf(target)
	if err != nil {
		return nil, err
	}
	if !fromBase.Equal(toBase) {
		return nil, errors.Errorf("cannot convert from %s to %s: dimensions differ (%s vs %s)", q.units, target, fromBase, toBase)
	}
	return q.scaled(fromFactor/toFactor, target), nil
}

// ApproxEqual reports whether both quantities hold the same values, within a relative
// tolerance, once expressed in base units.
func (q *Quantity) ApproxEqual(reg *units.Registry, other *Quantity, tolerance float64) (bool, error) {
	a, err := q.ToBase(reg)
	if err != nil {
		return false, err
	}
	b, err := other.ToBase(reg)
	if err != nil {
		return false, err
	}
	if !a.units.Equal(b.units) || a.IsScalar() != b.IsScalar() || !equalInts(a.shape, b.shape) {
		return false, nil
	}
	av, bv := a.Values(), b.Values()
	for i := range av {
		if !closeTo(av[i], bv[i], tolerance) {
			return false, nil
		}
	}
	return true, nil
}

func (q *Quantity) String() string {
	var sb strings.Builder
	if q.IsScalar() {
		fmt.Fprintf(&sb, "%g", q.scalar)
	} else {
		fmt.Fprintf(&sb, "%v%v", q.shape, q.values)
	}
	if len(q.units) > 0 {
		sb.WriteString(" ")
		sb.WriteString(q.units.String())
	}
	return sb.String()
}

func (q *Quantity) scaled(factor float64, u units.Units) *Quantity {
	if q.IsScalar() {
		return Scalar(q.scalar*factor, u)
	}
	values := make([]float64, len(q.values))
	for i, v := range q.values {
		values[i] = v * factor
	}
	return &Quantity{values: values, shape: append([]int(nil), q.shape...), units: copyUnits(u)}
}

func product(shape []int) int {
	p := 1
	for _, dim := range shape {
		p *= dim
	}
	return p
}

func copyUnits(u units.Units) units.Units {
	if u == nil {
		return units.Units{}
	}
	return append(units.Units{}, u...)
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func closeTo(a, b, tolerance float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= tolerance*math.Max(math.Abs(a), math.Abs(b))
}
