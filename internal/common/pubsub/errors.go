package pubsub

import "fmt"

type ErrInvalidDestination struct {
	Destination string
	Message     string
}

func (err *ErrInvalidDestination) Error() string {
	return fmt.Sprintf("invalid destination %q: %s", err.Destination, err.Message)
}

// ErrSubscription is returned for subscribe/unsubscribe calls the connection cannot honour.
type ErrSubscription struct {
	Id      string
	Message string
}

func (err *ErrSubscription) Error() string {
	return fmt.Sprintf("subscription %q: %s", err.Id, err.Message)
}
