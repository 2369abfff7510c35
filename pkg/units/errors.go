package units

import "fmt"

// ErrUnsupportedUnit is returned when the registry cannot resolve a unit name or expression.
type ErrUnsupportedUnit struct {
	Name    string // The unit name or expression that failed to resolve
	Message string // Optional detail, omitted from the error message if empty
}

func (err *ErrUnsupportedUnit) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("unsupported unit %q", err.Name)
	}
	return fmt.Sprintf("unsupported unit %q; %s", err.Name, err.Message)
}
