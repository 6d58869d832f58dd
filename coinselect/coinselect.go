// Package coinselect chooses a minimal-but-sufficient subset of spendable
// outputs to fund a set of payments plus the network fee, and reports the
// raw leftover amount. Whether that leftover becomes a change output is the
// transaction builder's decision, not the selector's.
package coinselect

import (
	"fmt"
	"sort"

	"github.com/cashtxorg/libcashtx-go/fees"
)

// Utxo is one spendable output as seen by the assembly engine. Identity is
// (TxID, Vout); the value is immutable once fetched. A non-empty TokenID
// marks a token-carrying UTXO, which must never be spent in a plain-value
// transaction.
type Utxo struct {
	TxID         string `json:"txid"`
	Vout         uint32 `json:"vout"`
	ValueSat     uint64 `json:"value"`
	Address      string `json:"address,omitempty"`
	ScriptPubKey string `json:"script_pubkey,omitempty"`
	TokenID      string `json:"token_id,omitempty"`
	TokenQty     uint64 `json:"token_qty,omitempty"`
}

// IsToken reports whether the UTXO carries fungible-token metadata.
func (u *Utxo) IsToken() bool { return u.TokenID != "" }

// Output is one requested payment.
type Output struct {
	Address   string `json:"address"`
	AmountSat uint64 `json:"amount_sat"`
}

// SortDirection orders UTXOs by value.
type SortDirection int

const (
	// SortAscending orders smallest value first (the default).
	SortAscending SortDirection = iota
	// SortDescending orders largest value first.
	SortDescending
)

// SortFunc replaces the default ordering entirely. The returned slice is
// consumed front to back by Select.
type SortFunc func(utxos []Utxo) []Utxo

// Options tunes selection behavior.
type Options struct {
	// SortFn, when non-nil, is used verbatim in place of the default
	// ascending-by-value ordering.
	SortFn SortFunc
}

// Result is the outcome of a successful selection. The invariant
// sum(Utxos.ValueSat) == target + FeeSat + ChangeSat always holds, where
// target is the sum of the requested output amounts.
type Result struct {
	Utxos     []Utxo
	ChangeSat uint64
	FeeSat    uint64
}

// SortBySize returns a copy of utxos stably sorted by value. Equal values
// preserve their original relative order, so selection is deterministic for
// identical inputs.
func SortBySize(utxos []Utxo, dir SortDirection) []Utxo {
	sorted := make([]Utxo, len(utxos))
	copy(sorted, utxos)
	sort.SliceStable(sorted, func(i, j int) bool {
		if dir == SortDescending {
			return sorted[i].ValueSat > sorted[j].ValueSat
		}
		return sorted[i].ValueSat < sorted[j].ValueSat
	})
	return sorted
}

// Select accumulates UTXOs from the (by default ascending-value) ordering
// until the running total covers the requested amounts plus the fee for the
// current input count. The fee is recomputed on every accepted input, since
// each input grows the transaction; the output count is taken as-is because
// the fee sizing already reserves a change slot.
//
// Token-carrying UTXOs are skipped: the plain and token pools must never
// mix in one plain-value input set. Returns ErrInsufficientFunds when the
// candidate set is exhausted without reaching coverage — never a partial
// result.
func Select(outputs []Output, utxos []Utxo, satsPerByte float64, opts *Options) (*Result, error) {
	if len(outputs) == 0 {
		return nil, ErrNoOutputs
	}

	var target uint64
	for _, out := range outputs {
		if out.AmountSat == 0 {
			return nil, fmt.Errorf("%w: output to %s", ErrInvalidAmount, out.Address)
		}
		target += out.AmountSat
	}

	var candidates []Utxo
	if opts != nil && opts.SortFn != nil {
		candidates = opts.SortFn(utxos)
	} else {
		candidates = SortBySize(utxos, SortAscending)
	}

	var (
		selected  []Utxo
		available uint64
		fee       uint64
	)
	for _, utxo := range candidates {
		if utxo.IsToken() {
			continue
		}
		selected = append(selected, utxo)
		available += utxo.ValueSat

		var err error
		fee, err = fees.Calculate(len(selected), len(outputs), satsPerByte)
		if err != nil {
			return nil, err
		}
		if available >= target+fee {
			return &Result{
				Utxos:     selected,
				ChangeSat: available - target - fee,
				FeeSat:    fee,
			}, nil
		}
	}

	return nil, fmt.Errorf("%w: need %d sat, have %d sat",
		ErrInsufficientFunds, target+fee, available)
}
