package quantity

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/tinarmengineering/ltc/pkg/units"
)

// NamedQuantity labels an encoded quantity with the section and name it belongs to in a job
// or material payload.
type NamedQuantity struct {
	Section string        `json:"section"`
	Name    string        `json:"name"`
	Value   *WireQuantity `json:"value"`
}

func NewNamed(reg *units.Registry, section, name string, q *Quantity) (NamedQuantity, error) {
	wire, err := Encode(reg, q)
	if err != nil {
		return NamedQuantity{}, errors.WithMessagef(err, "%s.%s", section, name)
	}
	return NamedQuantity{Section: section, Name: name, Value: wire}, nil
}

func (n NamedQuantity) Decode(reg *units.Registry) (*Quantity, error) {
	q, err := Decode(reg, n.Value)
	if err != nil {
		return nil, errors.WithMessagef(err, "%s.%s", n.Section, n.Name)
	}
	return q, nil
}

// EncodeSection encodes every entry of values under section, ordered by name.
func EncodeSection(reg *units.Registry, section string, values map[string]*Quantity) ([]NamedQuantity, error) {
	names := maps.Keys(values)
	slices.Sort(names)
	out := make([]NamedQuantity, 0, len(names))
	for _, name := range names {
		named, err := NewNamed(reg, section, name, values[name])
		if err != nil {
			return nil, err
		}
		out = append(out, named)
	}
	return out, nil
}

// DecodeSection decodes the records belonging to section, ignoring records from other sections.
func DecodeSection(reg *units.Registry, section string, records []NamedQuantity) (map[string]*Quantity, error) {
	out := map[string]*Quantity{}
	for _, record := range records {
		if record.Section != section {
			continue
		}
		q, err := record.Decode(reg)
		if err != nil {
			return nil, err
		}
		out[record.Name] = q
	}
	return out, nil
}
