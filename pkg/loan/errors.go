package loan

import (
	"errors"
)

var (
	ErrNoTapeSelected  = errors.New("select a tape to add")
	ErrTapeNotFound    = errors.New("tape not found")
	ErrDuplicateTape   = errors.New("this tape has already been added")
	ErrNoCustomer      = errors.New("select a customer")
	ErrNoItems         = errors.New("add at least one item")
	ErrInvalidDate     = errors.New("invalid date, use YYYY-MM-DD")
	ErrInvalidCustomer = errors.New("invalid customer")
	ErrUnknownField    = errors.New("unknown field")
)

// ValidationError is a local, recoverable failure. The draft is left
// unchanged and nothing has been sent to the server.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(err error) error {
	return &ValidationError{Err: err}
}

// IsValidation reports whether err is a draft validation failure.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
