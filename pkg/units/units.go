package units

import (
	"strings"

	"golang.org/x/exp/slices"
)

// Unit is one named unit raised to an exponent, e.g. meter^-1.
type Unit struct {
	Name     string
	Exponent Exponent
}

// Units is an ordered product of units.
type Units []Unit

// Of returns the single-unit product name^exponent.
func Of(name string, exponent int64) Units {
	return Units{{Name: name, Exponent: Int(exponent)}}
}

// Merge accumulates the exponents of repeated names, keeping the position of the first
// occurrence and dropping entries whose exponent ends up zero.
func (u Units) Merge() Units {
	index := make(map[string]int, len(u))
	merged := make(Units, 0, len(u))
	for _, unit := range u {
		if i, ok := index[unit.Name]; ok {
			merged[i].Exponent = merged[i].Exponent.Add(unit.Exponent)
			continue
		}
		index[unit.Name] = len(merged)
		merged = append(merged, unit)
	}
	out := merged[:0]
	for _, unit := range merged {
		if !unit.Exponent.IsZero() {
			out = append(out, unit)
		}
	}
	return out
}

func (u Units) Mul(other Units) Units {
	combined := make(Units, 0, len(u)+len(other))
	combined = append(combined, u...)
	combined = append(combined, other...)
	return combined.Merge()
}

func (u Units) Pow(e Exponent) Units {
	out := make(Units, 0, len(u))
	for _, unit := range u {
		out = append(out, Unit{Name: unit.Name, Exponent: unit.Exponent.Mul(e)})
	}
	return out.Merge()
}

func (u Units) IsDimensionless() bool {
	return len(u.Merge()) == 0
}

// Equal compares two unit products as multisets of (name, exponent), ignoring order.
func (u Units) Equal(other Units) bool {
	a, b := u.Merge(), other.Merge()
	if len(a) != len(b) {
		return false
	}
	exponents := make(map[string]Exponent, len(a))
	for _, unit := range a {
		exponents[unit.Name] = unit.Exponent
	}
	for _, unit := range b {
		e, ok := exponents[unit.Name]
		if !ok || !e.Equal(unit.Exponent) {
			return false
		}
	}
	return true
}

// Sorted returns a copy ordered by name.
func (u Units) Sorted() Units {
	out := append(Units(nil), u...)
	slices.SortStableFunc(out, func(a, b Unit) bool { return a.Name < b.Name })
	return out
}

// String renders the product as name^exp terms joined by '*'. Dimensionless units render as "dimensionless".
func (u Units) String() string {
	if len(u) == 0 {
		return "dimensionless"
	}
	terms := make([]string, 0, len(u))
	for _, unit := range u {
		switch {
		case unit.Exponent.Equal(Int(1)):
			terms = append(terms, unit.Name)
		case unit.Exponent.IsInt():
			terms = append(terms, unit.Name+"^"+unit.Exponent.String())
		default:
			terms = append(terms, unit.Name+"^("+unit.Exponent.String()+")")
		}
	}
	return strings.Join(terms, "*")
}
