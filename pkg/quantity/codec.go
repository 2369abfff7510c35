package quantity

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/tinarmengineering/ltc/pkg/units"
)

// Encode converts a quantity to its wire record. Every unit is decomposed through the
// registry into primitive units, so a compound unit such as kg^-1*m^-1*s^2*A^2 yields one
// entry per primitive rather than a single composite name.
func Encode(reg *units.Registry, q *Quantity) (*WireQuantity, error) {
	if q == nil {
		return nil, &ErrInvalidQuantity{Message: "nil quantity"}
	}
	primitives, err := reg.Decompose(q.units)
	if err != nil {
		return nil, errors.WithMessagef(err, "encoding %s", q)
	}
	shape := []int{}
	if !q.IsScalar() {
		shape = q.Shape()
	}
	return &WireQuantity{
		Magnitude:  q.Values(),
		Shape:      shape,
		Units:      wireUnits(primitives),
		UnitString: primitives.String(),
	}, nil
}

// Decode converts a wire record back into a quantity expressed in base units.
//
// A record with a single magnitude element always decodes to a scalar and its shape is
// ignored, even when the shape is not [1]. Consumers rely on never seeing a one-element
// array. Records with several elements are reshaped to Shape, or treated as one-dimensional
// when no shape is given.
func Decode(reg *units.Registry, rec *WireQuantity) (*Quantity, error) {
	if rec == nil {
		return nil, decodeFailed(nil, &ErrInvalidQuantity{Message: "nil record"})
	}
	if len(rec.Magnitude) == 0 {
		return nil, decodeFailed(rec, &ErrInvalidQuantity{Message: "magnitude has no elements"})
	}

	var q *Quantity
	if len(rec.Magnitude) == 1 {
		q = Scalar(rec.Magnitude[0], rec.units())
	} else {
		var err error
		q, err = New(rec.Magnitude, rec.units(), rec.Shape...)
		if err != nil {
			return nil, decodeFailed(rec, err)
		}
	}

	base, err := q.ToBase(reg)
	if err != nil {
		return nil, decodeFailed(rec, err)
	}
	log.Debugf("convert %s -> %s", rec, base)
	return base, nil
}

func decodeFailed(rec *WireQuantity, err error) error {
	log.WithField("record", rec.String()).WithError(err).Error("Error decoding quantity")
	return &ErrDecode{Record: rec, Err: err}
}
