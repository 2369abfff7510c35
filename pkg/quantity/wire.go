package quantity

import (
	"encoding/json"

	"github.com/tinarmengineering/ltc/pkg/units"
)

// WireUnit is one primitive unit of a wire record.
type WireUnit struct {
	Name     string         `json:"name"`
	Exponent units.Exponent `json:"exponent"`
}

// WireQuantity is the transport form of a Quantity. Magnitude is always an array (length one
// for scalars) and Shape is empty for scalars.
type WireQuantity struct {
	Magnitude  []float64  `json:"magnitude"`
	Shape      []int      `json:"shape"`
	Units      []WireUnit `json:"units"`
	UnitString string     `json:"unit_string,omitempty"`
}

func (w *WireQuantity) String() string {
	if w == nil {
		return "<nil>"
	}
	data, err := json.Marshal(w)
	if err != nil {
		return "<unprintable>"
	}
	return string(data)
}

func (w *WireQuantity) units() units.Units {
	u := make(units.Units, 0, len(w.Units))
	for _, wu := range w.Units {
		u = append(u, units.Unit{Name: wu.Name, Exponent: wu.Exponent})
	}
	return u
}

func wireUnits(u units.Units) []WireUnit {
	out := make([]WireUnit, 0, len(u))
	for _, unit := range u {
		out = append(out, WireUnit{Name: unit.Name, Exponent: unit.Exponent})
	}
	return out
}
