package txbuilder

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/gcash/bchd/txscript"
	"github.com/gcash/bchd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashtxorg/libcashtx-go/address"
	"github.com/cashtxorg/libcashtx-go/coinselect"
	"github.com/cashtxorg/libcashtx-go/wallet"
)

// The BIP39 reference test vector mnemonic (all-zero entropy).
const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

var testKeyMaterial = &wallet.KeyMaterial{Mnemonic: testMnemonic}

// testTxID is any well-formed 32-byte transaction id.
var testTxID = strings.Repeat("ab", 32)

func testUtxos(t *testing.T, values ...uint64) []coinselect.Utxo {
	t.Helper()
	utxos := make([]coinselect.Utxo, len(values))
	for i, v := range values {
		utxos[i] = coinselect.Utxo{TxID: testTxID, Vout: uint32(i), ValueSat: v}
	}
	return utxos
}

func testWalletAddress(t *testing.T) string {
	t.Helper()
	kp, err := GetKeyPair(testKeyMaterial)
	require.NoError(t, err)
	return kp.CashAddress
}

// decodeTx parses a built transaction back out of its hex encoding.
func decodeTx(t *testing.T, txHex string) *wire.MsgTx {
	t.Helper()
	raw, err := hex.DecodeString(txHex)
	require.NoError(t, err)
	var tx wire.MsgTx
	require.NoError(t, tx.Deserialize(bytes.NewReader(raw)))
	return &tx
}

func TestCreateTransactionWithChange(t *testing.T) {
	dest := testWalletAddress(t)
	outputs := []coinselect.Output{{Address: dest, AmountSat: 600}}
	utxos := testUtxos(t, 250, 500, 1000, 2000, 5000)

	result, err := CreateTransaction(outputs, testKeyMaterial, utxos, 1.0, nil)
	require.NoError(t, err)
	require.NotEmpty(t, result.Hex)
	assert.Len(t, result.TxID, 64)

	tx := decodeTx(t, result.Hex)

	// Three ascending inputs cover 600 + fee; change 628 exceeds dust so
	// the transaction carries payment plus change.
	require.Len(t, tx.TxIn, 3)
	require.Len(t, tx.TxOut, 2)
	assert.Equal(t, int64(600), tx.TxOut[0].Value)
	assert.Equal(t, int64(628), tx.TxOut[1].Value)

	for i, in := range tx.TxIn {
		assert.NotEmpty(t, in.SignatureScript, "input %d unsigned", i)
	}

	// Change pays back to the wallet's own script.
	walletScript, err := address.PayScript(dest)
	require.NoError(t, err)
	assert.Equal(t, walletScript, tx.TxOut[1].PkScript)
}

func TestCreateTransactionDustChangeAbsorbed(t *testing.T) {
	dest := testWalletAddress(t)
	outputs := []coinselect.Output{{Address: dest, AmountSat: 600}}

	// 1000 - 600 - 226 = 174 sat of change, below the dust limit.
	result, err := CreateTransaction(outputs, testKeyMaterial, testUtxos(t, 1000), 1.0, nil)
	require.NoError(t, err)

	tx := decodeTx(t, result.Hex)
	require.Len(t, tx.TxOut, 1)
	assert.Equal(t, int64(600), tx.TxOut[0].Value)
}

func TestCreateTransactionDeterministic(t *testing.T) {
	dest := testWalletAddress(t)
	outputs := []coinselect.Output{{Address: dest, AmountSat: 600}}
	utxos := testUtxos(t, 250, 500, 1000, 2000, 5000)

	first, err := CreateTransaction(outputs, testKeyMaterial, utxos, 1.0, nil)
	require.NoError(t, err)
	second, err := CreateTransaction(outputs, testKeyMaterial, utxos, 1.0, nil)
	require.NoError(t, err)

	assert.Equal(t, first.Hex, second.Hex)
	assert.Equal(t, first.TxID, second.TxID)
}

func TestCreateTransactionCustomSort(t *testing.T) {
	dest := testWalletAddress(t)
	outputs := []coinselect.Output{{Address: dest, AmountSat: 600}}
	utxos := testUtxos(t, 250, 500, 1000, 2000, 5000)

	opts := &coinselect.Options{SortFn: func(u []coinselect.Utxo) []coinselect.Utxo {
		return coinselect.SortBySize(u, coinselect.SortDescending)
	}}
	result, err := CreateTransaction(outputs, testKeyMaterial, utxos, 1.0, opts)
	require.NoError(t, err)

	// Largest-first coverage: 5000 alone covers 600 + 226.
	tx := decodeTx(t, result.Hex)
	require.Len(t, tx.TxIn, 1)
	require.Len(t, tx.TxOut, 2)
	assert.Equal(t, int64(5000-600-226), tx.TxOut[1].Value)
}

func TestCreateTransactionErrors(t *testing.T) {
	dest := testWalletAddress(t)
	outputs := []coinselect.Output{{Address: dest, AmountSat: 600}}

	_, err := CreateTransaction(outputs, testKeyMaterial, nil, 1.0, nil)
	assert.ErrorIs(t, err, ErrEmptyUtxoSet)

	_, err = CreateTransaction(outputs, testKeyMaterial, testUtxos(t, 100, 200), 1.0, nil)
	assert.ErrorIs(t, err, coinselect.ErrInsufficientFunds)

	bad := []coinselect.Output{{Address: "not an address", AmountSat: 600}}
	_, err = CreateTransaction(bad, testKeyMaterial, testUtxos(t, 5000), 1.0, nil)
	assert.ErrorIs(t, err, address.ErrInvalidAddress)

	_, err = CreateTransaction(outputs, nil, testUtxos(t, 5000), 1.0, nil)
	assert.ErrorIs(t, err, wallet.ErrNoSigningMaterial)
}

func TestCreateSendAllTx(t *testing.T) {
	dest := testWalletAddress(t)
	utxos := testUtxos(t, 250, 500, 1000, 2000, 5000)

	result, err := CreateSendAllTx(dest, testKeyMaterial, utxos, 1.0)
	require.NoError(t, err)

	// 8750 total minus the 5-input single-output fee of 818.
	tx := decodeTx(t, result.Hex)
	require.Len(t, tx.TxIn, 5)
	require.Len(t, tx.TxOut, 1)
	assert.Equal(t, int64(8750-818), tx.TxOut[0].Value)
}

func TestCreateSendAllTxRejectsTokenUtxos(t *testing.T) {
	utxos := testUtxos(t, 5000, 546)
	utxos[1].TokenID = strings.Repeat("cd", 32)
	utxos[1].TokenQty = 10

	_, err := CreateSendAllTx(testWalletAddress(t), testKeyMaterial, utxos, 1.0)
	assert.ErrorIs(t, err, ErrTokenInSweep)
}

func TestCreateSendAllTxInsufficient(t *testing.T) {
	// 700 sat cannot cover the 226 sat fee and still exceed dust.
	_, err := CreateSendAllTx(testWalletAddress(t), testKeyMaterial, testUtxos(t, 700), 1.0)
	assert.ErrorIs(t, err, coinselect.ErrInsufficientFunds)
}

func TestCreateSendAllTxValidatesDestinationFirst(t *testing.T) {
	// A bad destination is reported even when the utxo set is empty.
	_, err := CreateSendAllTx("bogus", testKeyMaterial, nil, 1.0)
	assert.ErrorIs(t, err, address.ErrInvalidAddress)
	assert.NotErrorIs(t, err, ErrEmptyUtxoSet)
}

func TestSerializedTxIsStandard(t *testing.T) {
	dest := testWalletAddress(t)
	outputs := []coinselect.Output{{Address: dest, AmountSat: 600}}

	result, err := CreateTransaction(outputs, testKeyMaterial, testUtxos(t, 5000), 1.0, nil)
	require.NoError(t, err)

	tx := decodeTx(t, result.Hex)
	for _, out := range tx.TxOut {
		class := txscript.GetScriptClass(out.PkScript)
		assert.Equal(t, txscript.PubKeyHashTy, class)
	}
}
