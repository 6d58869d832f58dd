package address

import "errors"

var (
	// ErrInvalidAddress indicates the string matches no supported encoding.
	ErrInvalidAddress = errors.New("address: unrecognized address format")

	// ErrUnsupportedType indicates the address decoded to a script type the
	// wallet cannot pay to (e.g. raw pubkey addresses).
	ErrUnsupportedType = errors.New("address: unsupported address type")
)
