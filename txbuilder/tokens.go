package txbuilder

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/gcash/bchd/txscript"
	"github.com/gcash/bchd/wire"

	"github.com/cashtxorg/libcashtx-go/address"
	"github.com/cashtxorg/libcashtx-go/coinselect"
	"github.com/cashtxorg/libcashtx-go/fees"
	"github.com/cashtxorg/libcashtx-go/wallet"
)

// slpLokadID marks an output as an SLP token script.
var slpLokadID = []byte{0x53, 0x4c, 0x50, 0x00} // "SLP\x00"

const slpTokenTypeFungible = 0x01

// CreateTokenSendTx builds and signs an SLP SEND transaction moving qty
// base units of tokenID to toAddress. Output 0 carries the token script,
// followed by a dust output to the recipient and, when the consumed token
// inputs exceed qty, a dust output returning token change to the wallet.
// The fee and dust outputs are funded from the wallet's plain UTXOs; token
// UTXOs are never spent as fee except for the dust they already carry.
func CreateTokenSendTx(tokenID string, qty uint64, toAddress string,
	km *wallet.KeyMaterial, utxos []coinselect.Utxo, satsPerByte float64) (*TxResult, error) {

	recipientScript, err := address.PayScript(toAddress)
	if err != nil {
		return nil, err
	}
	idBytes, err := hex.DecodeString(tokenID)
	if err != nil || len(idBytes) != 32 {
		return nil, fmt.Errorf("%w: token id must be 32 hex bytes", ErrScriptBuild)
	}
	if len(utxos) == 0 {
		return nil, ErrEmptyUtxoSet
	}
	if qty == 0 {
		return nil, fmt.Errorf("%w: token quantity is zero", coinselect.ErrInvalidAmount)
	}

	keypair, err := GetKeyPair(km)
	if err != nil {
		return nil, err
	}
	changeScript, err := address.PayScript(keypair.CashAddress)
	if err != nil {
		return nil, err
	}

	tokenInputs, tokenChange, err := selectTokenInputs(tokenID, qty, utxos)
	if err != nil {
		return nil, err
	}

	opReturn := slpSendScript(idBytes, qty, tokenChange)

	// Script output plus one dust per token destination. The fee estimate
	// already reserves a slot for the BCH change output.
	dustOutputs := 1
	if tokenChange > 0 {
		dustOutputs = 2
	}
	outputCount := 1 + dustOutputs

	plainInputs, fee, err := fundTokenTx(tokenInputs, utxos, dustOutputs, outputCount, satsPerByte)
	if err != nil {
		return nil, err
	}

	inputs := append(tokenInputs, plainInputs...)
	var totalIn uint64
	for _, u := range inputs {
		totalIn += u.ValueSat
	}
	spent := uint64(dustOutputs)*DustLimit + fee

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxOut(wire.NewTxOut(0, opReturn))
	tx.AddTxOut(wire.NewTxOut(int64(DustLimit), recipientScript))
	if tokenChange > 0 {
		tx.AddTxOut(wire.NewTxOut(int64(DustLimit), changeScript))
	}
	if bchChange := totalIn - spent; bchChange > DustLimit {
		tx.AddTxOut(wire.NewTxOut(int64(bchChange), changeScript))
	}

	if err := addAndSignInputs(tx, inputs, keypair); err != nil {
		return nil, err
	}

	log.Debugf("token send: %d units of %s, %d token inputs, %d funding inputs, fee %d",
		qty, tokenID, len(tokenInputs), len(plainInputs), fee)
	return serialize(tx)
}

// selectTokenInputs accumulates UTXOs of tokenID, smallest quantity first,
// until qty is covered. Returns the chosen inputs and the leftover token
// quantity owed back to the wallet.
func selectTokenInputs(tokenID string, qty uint64, utxos []coinselect.Utxo) ([]coinselect.Utxo, uint64, error) {
	candidates := make([]coinselect.Utxo, 0, len(utxos))
	for _, u := range utxos {
		if u.TokenID == tokenID {
			candidates = append(candidates, u)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].TokenQty < candidates[j].TokenQty
	})

	var accumulated uint64
	for i, u := range candidates {
		accumulated += u.TokenQty
		if accumulated >= qty {
			return candidates[:i+1], accumulated - qty, nil
		}
	}
	return nil, 0, fmt.Errorf("%w: have %d of token %s, need %d",
		ErrInsufficientTokens, accumulated, tokenID, qty)
}

// fundTokenTx picks plain UTXOs, smallest first, until the token inputs'
// carried dust plus the funding inputs cover the dust outputs and the fee.
// The fee is recomputed as each funding input is added.
func fundTokenTx(tokenInputs, utxos []coinselect.Utxo, dustOutputs, outputCount int,
	satsPerByte float64) ([]coinselect.Utxo, uint64, error) {

	var carried uint64
	for _, u := range tokenInputs {
		carried += u.ValueSat
	}
	need := uint64(dustOutputs) * DustLimit

	plain := make([]coinselect.Utxo, 0, len(utxos))
	for _, u := range utxos {
		if !u.IsToken() {
			plain = append(plain, u)
		}
	}
	sort.SliceStable(plain, func(i, j int) bool {
		return plain[i].ValueSat < plain[j].ValueSat
	})

	funding := make([]coinselect.Utxo, 0, len(plain))
	total := carried
	for {
		fee, err := fees.Calculate(len(tokenInputs)+len(funding), outputCount, satsPerByte)
		if err != nil {
			return nil, 0, err
		}
		if total >= need+fee {
			return funding, fee, nil
		}
		if len(funding) == len(plain) {
			return nil, 0, fmt.Errorf("%w: need %d sat to fund token send, have %d",
				coinselect.ErrInsufficientFunds, need+fee, total)
		}
		next := plain[len(funding)]
		funding = append(funding, next)
		total += next.ValueSat
	}
}

// slpSendScript assembles the SLP SEND OP_RETURN payload. The SLP spec
// requires every field as an explicit length-prefixed push, so the script
// is built byte by byte: txscript.ScriptBuilder canonicalizes single-byte
// pushes to OP_1..OP_16, which SLP validators reject.
func slpSendScript(idBytes []byte, sendQty, changeQty uint64) []byte {
	script := []byte{txscript.OP_RETURN}
	script = slpPush(script, slpLokadID)
	script = slpPush(script, []byte{slpTokenTypeFungible})
	script = slpPush(script, []byte("SEND"))
	script = slpPush(script, idBytes)

	var amount [8]byte
	binary.BigEndian.PutUint64(amount[:], sendQty)
	script = slpPush(script, amount[:])
	if changeQty > 0 {
		binary.BigEndian.PutUint64(amount[:], changeQty)
		script = slpPush(script, amount[:])
	}
	return script
}

// slpPush appends a minimally-encoded data push without the OP_1..OP_16
// shorthand. All SLP fields fit in a single-byte length prefix.
func slpPush(script, data []byte) []byte {
	script = append(script, byte(len(data)))
	return append(script, data...)
}
