// Package backend presents one uniform interface over interchangeable
// blockchain data sources: a full-node-backed REST gateway, a caching
// consumer API, and raw node JSON-RPC. The interface kind is selected once
// at construction; switching it never changes a method's contract. Every
// call through the Router facade is wrapped in bounded retry, so transient
// network failures are invisible to callers.
package backend

import (
	"context"

	"github.com/cashtxorg/libcashtx-go/coinselect"
)

// ChainService is the capability set every backend kind implements.
type ChainService interface {
	// GetUtxos returns all unspent outputs for the given address, plain and
	// token-carrying alike.
	GetUtxos(ctx context.Context, address string) ([]*Utxo, error)

	// UtxoIsValid reports whether (TxID, Vout) still appears unspent in the
	// backend's current view. A caching backend may legitimately return a
	// stale answer; callers needing freshness configure PreferFresh rather
	// than bypassing the adapter.
	UtxoIsValid(ctx context.Context, utxo *Utxo) (bool, error)

	// SendTx broadcasts a raw transaction hex and returns its txid.
	SendTx(ctx context.Context, txHex string) (string, error)

	// GetTokenData returns the genesis metadata for a token id.
	GetTokenData(ctx context.Context, tokenID string) (*TokenData, error)

	// GetBalance returns the confirmed and unconfirmed balance of an address.
	GetBalance(ctx context.Context, address string) (*Balance, error)
}

// Utxo is an unspent output as reported by a backend.
type Utxo struct {
	TxID         string       `json:"txid"`
	Vout         uint32       `json:"vout"`
	ValueSat     uint64       `json:"value"`
	Address      string       `json:"address,omitempty"`
	ScriptPubKey string       `json:"script_pubkey,omitempty"`
	Height       int64        `json:"height,omitempty"` // 0 while unconfirmed
	Token        *TokenDetail `json:"token,omitempty"`
}

// TokenDetail is the token overlay carried by a token-carrying UTXO.
type TokenDetail struct {
	ID       string `json:"id"`
	Qty      uint64 `json:"qty"`
	Ticker   string `json:"ticker,omitempty"`
	Decimals uint8  `json:"decimals,omitempty"`
}

// TokenData is the genesis metadata of a fungible token.
type TokenData struct {
	ID          string `json:"id"`
	Ticker      string `json:"ticker"`
	Name        string `json:"name"`
	Decimals    uint8  `json:"decimals"`
	DocumentURL string `json:"document_url,omitempty"`
	InitialQty  uint64 `json:"initial_qty,omitempty"`
}

// Balance is a thin pass-through for the wallet-bootstrap layer.
type Balance struct {
	ConfirmedSat   uint64 `json:"confirmed"`
	UnconfirmedSat uint64 `json:"unconfirmed"`
}

// ToSelectable converts a backend UTXO into the form the selection engine
// consumes.
func (u *Utxo) ToSelectable() coinselect.Utxo {
	sel := coinselect.Utxo{
		TxID:         u.TxID,
		Vout:         u.Vout,
		ValueSat:     u.ValueSat,
		Address:      u.Address,
		ScriptPubKey: u.ScriptPubKey,
	}
	if u.Token != nil {
		sel.TokenID = u.Token.ID
		sel.TokenQty = u.Token.Qty
	}
	return sel
}

// ToSelectable converts a backend UTXO slice for the selection engine.
func ToSelectable(utxos []*Utxo) []coinselect.Utxo {
	out := make([]coinselect.Utxo, len(utxos))
	for i, u := range utxos {
		out[i] = u.ToSelectable()
	}
	return out
}
