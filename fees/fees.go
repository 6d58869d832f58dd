// Package fees computes network fees for P2PKH transactions from input and
// output counts. The sizing is pure arithmetic with no I/O.
package fees

import (
	"fmt"
	"math"
)

const (
	// TxOverheadBytes covers version, locktime, and the in/out varints.
	TxOverheadBytes = 10

	// P2PKHInputBytes is the serialized size of one signed P2PKH input:
	// outpoint (36) + script length (1) + sig script (~107) + sequence (4).
	P2PKHInputBytes = 148

	// P2PKHOutputBytes is the serialized size of one P2PKH output:
	// value (8) + script length (1) + locking script (25).
	P2PKHOutputBytes = 34

	// DefaultSatsPerByte is used when the caller passes a rate <= 0.
	DefaultSatsPerByte = 1.0
)

// Calculate returns the fee in satoshis for a transaction with the given
// input and output counts at satsPerByte. The size estimate reserves one
// extra output slot so that appending a change output later never pushes
// the transaction below the rate it was funded at:
//
//	size = 10 + 148*inputs + 34*(outputs+1)
//
// The fee is size*rate rounded to the nearest satoshi. A rate <= 0 falls
// back to DefaultSatsPerByte.
func Calculate(inputCount, outputCount int, satsPerByte float64) (uint64, error) {
	if inputCount <= 0 || outputCount <= 0 {
		return 0, fmt.Errorf("%w: got %d inputs, %d outputs",
			ErrInvalidFeeInput, inputCount, outputCount)
	}
	if satsPerByte <= 0 {
		satsPerByte = DefaultSatsPerByte
	}

	size := TxOverheadBytes +
		P2PKHInputBytes*inputCount +
		P2PKHOutputBytes*(outputCount+1)

	return uint64(math.Round(float64(size) * satsPerByte)), nil
}
