package query

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingParameter is matched by every *MissingParameterError.
	ErrMissingParameter = errors.New("missing parameter")

	// ErrMissingJobReference is returned when a query response carries no
	// jobReference.jobId, so no further pages can be requested.
	ErrMissingJobReference = errors.New("response has no jobReference.jobId")
)

// MissingParameterError reports a required request parameter that was not
// supplied.
type MissingParameterError struct {
	Name string
}

// Error implements the error interface.
func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing parameter %q", e.Name)
}

// Is lets errors.Is match ErrMissingParameter.
func (e *MissingParameterError) Is(target error) bool {
	return target == ErrMissingParameter
}
