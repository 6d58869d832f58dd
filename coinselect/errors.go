package coinselect

import "errors"

var (
	// ErrInsufficientFunds indicates the candidate UTXO set cannot cover the
	// requested amounts plus fee.
	ErrInsufficientFunds = errors.New("coinselect: insufficient funds")

	// ErrNoOutputs indicates selection was requested with no outputs.
	ErrNoOutputs = errors.New("coinselect: no outputs to fund")

	// ErrInvalidAmount indicates an output with a zero amount.
	ErrInvalidAmount = errors.New("coinselect: output amount must be positive")
)
