package ziptz

import (
	"errors"
	"fmt"
)

// Query errors. Submit returns one of these, possibly wrapped; none is fatal.
var (
	ErrInvalidInput = errors.New("please enter a valid 5-digit ZIP code")
	ErrNotFound     = errors.New("no timezone information found for this ZIP code")
	ErrTimezoneData = errors.New("timezone data error")
)

// LookupFault is a failure of the external lookup itself, e.g. a network error.
type LookupFault struct {
	Err error
}

func (f *LookupFault) Error() string {
	return "lookup failed: " + f.Err.Error()
}

func (f *LookupFault) Unwrap() error {
	return f.Err
}

// Message returns the one-line text shown to the user for a Submit error.
func Message(err error) string {
	var fault *LookupFault
	switch {
	case err == nil:
		return ""
	case errors.As(err, &fault):
		return fault.Error()
	case errors.Is(err, ErrInvalidInput):
		return ErrInvalidInput.Error()
	case errors.Is(err, ErrNotFound):
		return ErrNotFound.Error()
	case errors.Is(err, ErrTimezoneData):
		return ErrTimezoneData.Error()
	default:
		return fmt.Sprintf("lookup failed: %v", err)
	}
}
