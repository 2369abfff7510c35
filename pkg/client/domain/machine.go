package domain

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/tinarmengineering/ltc/pkg/api"
	"github.com/tinarmengineering/ltc/pkg/quantity"
	"github.com/tinarmengineering/ltc/pkg/units"
)

const (
	SectionStator  = "stator"
	SectionRotor   = "rotor"
	SectionWinding = "winding"
)

// DefaultMaterials returns the stored material assigned to each machine part when none is given.
func DefaultMaterials() map[string]string {
	return map[string]string{
		"rotor_lamination":    "66018e5d1cd3bd0d3453646f", // M230-35A
		"rotor_magnet":        "66018e5b1cd3bd0d3453646c", // N35UH
		"rotor_air_L":         "6602fb42c4a87c305481e8a6",
		"rotor_air_R":         "6602fb42c4a87c305481e8a6",
		"rotor_banding":       "6602fb42c4a87c305481e8a6",
		"stator_lamination":   "66018e5d1cd3bd0d3453646f", // M230-35A
		"stator_slot_wedge":   "6602fb7239bfdea291a25dd7",
		"stator_slot_liner":   "6602fb5166d3c6adaa8ebe8c",
		"stator_slot_winding": "66018e5d1cd3bd0d34536470",
		"stator_slot_potting": "6602fd41b8e866414fe983ec",
	}
}

// Machine describes the electrical machine a job simulates.
type Machine struct {
	Stator    map[string]*quantity.Quantity
	Rotor     map[string]*quantity.Quantity
	Winding   map[string]*quantity.Quantity
	Materials map[string]string
}

// NewMachine builds a machine. A nil materials map selects DefaultMaterials.
func NewMachine(stator, rotor, winding map[string]*quantity.Quantity, materials map[string]string) *Machine {
	if materials == nil {
		materials = DefaultMaterials()
	}
	return &Machine{Stator: stator, Rotor: rotor, Winding: winding, Materials: materials}
}

func (m *Machine) String() string {
	return fmt.Sprintf("Machine(%v, %v, %v)", m.Stator, m.Rotor, m.Winding)
}

// ToAPI encodes the machine's stator, rotor and winding, in that order.
func (m *Machine) ToAPI(reg *units.Registry) ([]quantity.NamedQuantity, error) {
	var data []quantity.NamedQuantity
	for _, section := range []struct {
		name   string
		values map[string]*quantity.Quantity
	}{
		{SectionStator, m.Stator},
		{SectionRotor, m.Rotor},
		{SectionWinding, m.Winding},
	} {
		records, err := quantity.EncodeSection(reg, section.name, section.values)
		if err != nil {
			return nil, err
		}
		data = append(data, records...)
	}
	return data, nil
}

// MaterialsToAPI lists the part assignments ordered by part name.
func (m *Machine) MaterialsToAPI() []api.JobMaterial {
	parts := maps.Keys(m.Materials)
	slices.Sort(parts)
	out := make([]api.JobMaterial, 0, len(parts))
	for _, part := range parts {
		out = append(out, api.JobMaterial{Part: part, MaterialId: m.Materials[part]})
	}
	return out
}

// MachineFromAPI rebuilds a machine from job data and material assignments. Every section is
// decoded and all failures are reported together.
func MachineFromAPI(reg *units.Registry, data []quantity.NamedQuantity, materials []api.JobMaterial) (*Machine, error) {
	var result *multierror.Error
	decode := func(section string) map[string]*quantity.Quantity {
		values, err := quantity.DecodeSection(reg, section, data)
		if err != nil {
			result = multierror.Append(result, err)
		}
		return values
	}
	m := &Machine{
		Stator:    decode(SectionStator),
		Rotor:     decode(SectionRotor),
		Winding:   decode(SectionWinding),
		Materials: make(map[string]string, len(materials)),
	}
	for _, material := range materials {
		m.Materials[material.Part] = material.MaterialId
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return m, nil
}
