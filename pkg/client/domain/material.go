package domain

import (
	"github.com/pkg/errors"

	"github.com/tinarmengineering/ltc/pkg/api"
	"github.com/tinarmengineering/ltc/pkg/quantity"
	"github.com/tinarmengineering/ltc/pkg/units"
)

const SectionMaterialProperties = "material_properties"

// Material is a stored material and its physical properties.
type Material struct {
	Id         string
	Name       string
	Reference  string
	KeyWords   []string
	Properties map[string]*quantity.Quantity
}

type MaterialOption func(*Material)

func WithMaterialId(id string) MaterialOption {
	return func(m *Material) {
		m.Id = id
	}
}

func WithKeyWords(keyWords ...string) MaterialOption {
	return func(m *Material) {
		m.KeyWords = append(m.KeyWords, keyWords...)
	}
}

func WithProperties(properties map[string]*quantity.Quantity) MaterialOption {
	return func(m *Material) {
		for name, value := range properties {
			m.Properties[name] = value
		}
	}
}

// NewMaterial requires a name and a reference to the source of the material's data.
func NewMaterial(name string, reference string, opts ...MaterialOption) (*Material, error) {
	if name == "" {
		return nil, errors.New("material name is required")
	}
	if reference == "" {
		return nil, errors.New("material reference is required")
	}
	m := &Material{
		Name:       name,
		Reference:  reference,
		KeyWords:   []string{},
		Properties: map[string]*quantity.Quantity{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *Material) ToAPI(reg *units.Registry) (*api.Material, error) {
	data, err := quantity.EncodeSection(reg, SectionMaterialProperties, m.Properties)
	if err != nil {
		return nil, errors.WithMessagef(err, "encoding material %s", m.Name)
	}
	return &api.Material{
		Id:        m.Id,
		Name:      m.Name,
		Reference: m.Reference,
		KeyWords:  m.KeyWords,
		Data:      data,
	}, nil
}

// MaterialFromAPI rebuilds a material from a service record. Optional fields may be missing
// and data from sections other than material properties is ignored.
func MaterialFromAPI(reg *units.Registry, rec *api.Material) (*Material, error) {
	properties, err := quantity.DecodeSection(reg, SectionMaterialProperties, rec.Data)
	if err != nil {
		return nil, errors.WithMessagef(err, "decoding material %s", rec.Name)
	}
	keyWords := rec.KeyWords
	if keyWords == nil {
		keyWords = []string{}
	}
	return &Material{
		Id:         rec.Id,
		Name:       rec.Name,
		Reference:  rec.Reference,
		KeyWords:   keyWords,
		Properties: properties,
	}, nil
}
