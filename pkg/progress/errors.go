package progress

import "fmt"

// ErrMalformedFrame indicates a frame body that does not carry a JSON object.
type ErrMalformedFrame struct {
	Body    string
	Message string
	Err     error
}

func (err *ErrMalformedFrame) Error() string {
	switch {
	case err.Err != nil:
		return fmt.Sprintf("malformed frame body %q: %s", err.Body, err.Err)
	case err.Message != "":
		return fmt.Sprintf("malformed frame body %q; %s", err.Body, err.Message)
	default:
		return fmt.Sprintf("malformed frame body %q", err.Body)
	}
}

func (err *ErrMalformedFrame) Unwrap() error {
	return err.Err
}

// ErrMalformedDestination indicates a destination that does not name an entity.
type ErrMalformedDestination struct {
	Destination string
	Message     string
}

func (err *ErrMalformedDestination) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("malformed destination %q", err.Destination)
	}
	return fmt.Sprintf("malformed destination %q; %s", err.Destination, err.Message)
}
