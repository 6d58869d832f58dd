package txbuilder

import "errors"

var (
	// ErrEmptyUtxoSet indicates a transaction was requested with no UTXOs.
	ErrEmptyUtxoSet = errors.New("txbuilder: utxo set is empty")

	// ErrTokenInSweep indicates a sweep was requested over a set containing
	// token-carrying UTXOs, which a plain sweep would burn.
	ErrTokenInSweep = errors.New("txbuilder: sweep set contains token utxos")

	// ErrInsufficientTokens indicates the token UTXOs cannot cover the
	// requested token quantity.
	ErrInsufficientTokens = errors.New("txbuilder: insufficient token quantity")

	// ErrSigningFailed indicates input signing failed.
	ErrSigningFailed = errors.New("txbuilder: signing failed")

	// ErrScriptBuild indicates script construction failed.
	ErrScriptBuild = errors.New("txbuilder: script build failed")
)
