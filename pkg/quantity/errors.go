package quantity

import (
	"fmt"
)

// ErrInvalidQuantity is returned when a quantity cannot be constructed from the given magnitude and shape.
type ErrInvalidQuantity struct {
	Message string
}

func (err *ErrInvalidQuantity) Error() string {
	return fmt.Sprintf("invalid quantity; %s", err.Message)
}

// ErrShapeMismatch is returned when the number of magnitude elements does not fill the requested shape.
type ErrShapeMismatch struct {
	Shape    []int
	Elements int
}

func (err *ErrShapeMismatch) Error() string {
	return fmt.Sprintf("cannot reshape %d elements into shape %v", err.Elements, err.Shape)
}

// ErrDecode is returned when a wire record cannot be turned back into a quantity.
// Record is the offending record as received.
type ErrDecode struct {
	Record *WireQuantity
	Err    error
}

func (err *ErrDecode) Error() string {
	return fmt.Sprintf("failed to decode quantity %s: %s", err.Record, err.Err)
}

func (err *ErrDecode) Unwrap() error {
	return err.Err
}
