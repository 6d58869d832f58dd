package fees

import "errors"

var (
	// ErrInvalidFeeInput indicates a non-positive input or output count.
	ErrInvalidFeeInput = errors.New("fees: input and output counts must be positive")
)
