// Package txbuilder assembles fully signed transactions from a wallet's key
// material and a snapshot of its spendable outputs. Selection, fee, and
// change logic live here; raw script construction, signing, and txid
// derivation are delegated to the bchd script machinery. Everything in this
// package is pure computation over its arguments — network I/O happens only
// in the backend package.
package txbuilder

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/gcash/bchd/chaincfg/chainhash"
	"github.com/gcash/bchd/txscript"
	"github.com/gcash/bchd/wire"

	"github.com/cashtxorg/libcashtx-go/address"
	"github.com/cashtxorg/libcashtx-go/coinselect"
	"github.com/cashtxorg/libcashtx-go/wallet"
)

// DustLimit is the minimum economically-spendable P2PKH output value in
// satoshis. Change at or below this is absorbed into the fee instead of
// creating an unspendable output.
const DustLimit = uint64(546)

// sigHashType covers all BCH-family signatures: SIGHASH_ALL with the
// replay-protecting fork id bit.
const sigHashType = txscript.SigHashAll | txscript.SigHashForkID

// TxResult is a built, signed, broadcast-ready transaction.
type TxResult struct {
	Hex  string `json:"hex"`
	TxID string `json:"txid"`
}

// GetKeyPair resolves the wallet's key material to a signing key pair. The
// mnemonic wins when both mnemonic and WIF are present.
func GetKeyPair(km *wallet.KeyMaterial) (*wallet.Keypair, error) {
	return wallet.ResolveSigningKey(km, nil)
}

// CreateTransaction builds and signs a transaction paying outputs from the
// wallet's UTXO snapshot. Selection uses the default ascending-value order
// unless opts injects a different one. Change above DustLimit returns to
// the wallet's own address; dust change is absorbed into the fee. No
// network I/O occurs inside this call.
func CreateTransaction(outputs []coinselect.Output, km *wallet.KeyMaterial,
	utxos []coinselect.Utxo, satsPerByte float64, opts *coinselect.Options) (*TxResult, error) {

	if len(utxos) == 0 {
		return nil, ErrEmptyUtxoSet
	}

	keypair, err := GetKeyPair(km)
	if err != nil {
		return nil, err
	}

	// Normalize every output address up front so selection never runs for
	// an unpayable transaction.
	scripts := make([][]byte, len(outputs))
	for i, out := range outputs {
		scripts[i], err = address.PayScript(out.Address)
		if err != nil {
			return nil, err
		}
	}

	result, err := coinselect.Select(outputs, utxos, satsPerByte, opts)
	if err != nil {
		return nil, err
	}

	tx := wire.NewMsgTx(wire.TxVersion)

	for i, out := range outputs {
		tx.AddTxOut(wire.NewTxOut(int64(out.AmountSat), scripts[i]))
	}

	if result.ChangeSat > DustLimit {
		changeScript, err := address.PayScript(keypair.CashAddress)
		if err != nil {
			return nil, fmt.Errorf("%w: change script: %v", ErrScriptBuild, err)
		}
		tx.AddTxOut(wire.NewTxOut(int64(result.ChangeSat), changeScript))
	} else if result.ChangeSat > 0 {
		log.Debugf("absorbing %d sat dust change into fee", result.ChangeSat)
	}

	if err := addAndSignInputs(tx, result.Utxos, keypair); err != nil {
		return nil, err
	}

	return serialize(tx)
}

// addAndSignInputs appends one input per UTXO and signs each with the
// wallet key. The previous locking script comes from the UTXO when the
// backend supplied it, otherwise from the UTXO's address, otherwise from
// the wallet's own address (every input belongs to the wallet).
func addAndSignInputs(tx *wire.MsgTx, utxos []coinselect.Utxo, keypair *wallet.Keypair) error {
	prevScripts := make([][]byte, len(utxos))
	for i, utxo := range utxos {
		hash, err := chainhash.NewHashFromStr(utxo.TxID)
		if err != nil {
			return fmt.Errorf("%w: utxo %d txid: %v", ErrSigningFailed, i, err)
		}
		tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(hash, utxo.Vout), nil))

		prevScripts[i], err = prevScript(&utxo, keypair)
		if err != nil {
			return err
		}
	}

	for i, utxo := range utxos {
		sigScript, err := txscript.SignatureScript(tx, i, int64(utxo.ValueSat),
			prevScripts[i], sigHashType, keypair.PrivKey, true)
		if err != nil {
			return fmt.Errorf("%w: input %d: %v", ErrSigningFailed, i, err)
		}
		tx.TxIn[i].SignatureScript = sigScript
	}
	return nil
}

// prevScript resolves the locking script a UTXO was paid to.
func prevScript(utxo *coinselect.Utxo, keypair *wallet.Keypair) ([]byte, error) {
	if utxo.ScriptPubKey != "" {
		script, err := hex.DecodeString(utxo.ScriptPubKey)
		if err != nil {
			return nil, fmt.Errorf("%w: script pubkey: %v", ErrSigningFailed, err)
		}
		return script, nil
	}
	addr := utxo.Address
	if addr == "" {
		addr = keypair.CashAddress
	}
	script, err := address.PayScript(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: previous output script: %v", ErrScriptBuild, err)
	}
	return script, nil
}

// serialize encodes the signed transaction and computes its id. The txid is
// the chain's double-SHA256 of the serialized bytes, delegated to bchd.
func serialize(tx *wire.MsgTx) (*TxResult, error) {
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return nil, fmt.Errorf("%w: serialize: %v", ErrSigningFailed, err)
	}
	return &TxResult{
		Hex:  hex.EncodeToString(buf.Bytes()),
		TxID: tx.TxHash().String(),
	}, nil
}
