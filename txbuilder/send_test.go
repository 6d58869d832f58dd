package txbuilder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashtxorg/libcashtx-go/backend"
	"github.com/cashtxorg/libcashtx-go/coinselect"
)

func TestSendBchWithSuppliedUtxos(t *testing.T) {
	dest := testWalletAddress(t)

	var broadcastHex string
	mock := &backend.MockChainService{
		SendTxFn: func(_ context.Context, txHex string) (string, error) {
			broadcastHex = txHex
			return "mock-txid", nil
		},
	}

	b := NewBuilder(mock)
	outputs := []coinselect.Output{{Address: dest, AmountSat: 600}}
	txid, err := b.SendBch(context.Background(), outputs, testKeyMaterial,
		testUtxos(t, 250, 500, 1000, 2000, 5000), 1.0)
	require.NoError(t, err)
	assert.Equal(t, "mock-txid", txid)

	// What went over the wire is the assembled transaction.
	tx := decodeTx(t, broadcastHex)
	assert.Len(t, tx.TxIn, 3)
}

func TestSendBchFetchesUtxosWhenNil(t *testing.T) {
	dest := testWalletAddress(t)

	var fetchedFor string
	mock := &backend.MockChainService{
		GetUtxosFn: func(_ context.Context, address string) ([]*backend.Utxo, error) {
			fetchedFor = address
			return []*backend.Utxo{
				{TxID: testTxID, Vout: 0, ValueSat: 5000},
			}, nil
		},
		SendTxFn: func(_ context.Context, txHex string) (string, error) {
			return "fetched-txid", nil
		},
	}

	b := NewBuilder(mock)
	outputs := []coinselect.Output{{Address: dest, AmountSat: 600}}
	txid, err := b.SendBch(context.Background(), outputs, testKeyMaterial, nil, 1.0)
	require.NoError(t, err)
	assert.Equal(t, "fetched-txid", txid)
	assert.Equal(t, dest, fetchedFor)
}

func TestSendBchBroadcastErrorPropagates(t *testing.T) {
	dest := testWalletAddress(t)

	mock := &backend.MockChainService{
		SendTxFn: func(_ context.Context, _ string) (string, error) {
			return "", backend.ErrBroadcastRejected
		},
	}

	b := NewBuilder(mock)
	outputs := []coinselect.Output{{Address: dest, AmountSat: 600}}
	_, err := b.SendBch(context.Background(), outputs, testKeyMaterial,
		testUtxos(t, 5000), 1.0)
	assert.ErrorIs(t, err, backend.ErrBroadcastRejected)
}

func TestSendBchAssemblyErrorSkipsBroadcast(t *testing.T) {
	dest := testWalletAddress(t)

	mock := &backend.MockChainService{
		SendTxFn: func(_ context.Context, _ string) (string, error) {
			t.Fatal("broadcast must not run when assembly fails")
			return "", nil
		},
	}

	b := NewBuilder(mock)
	outputs := []coinselect.Output{{Address: dest, AmountSat: 600}}
	_, err := b.SendBch(context.Background(), outputs, testKeyMaterial,
		testUtxos(t, 100), 1.0)
	assert.ErrorIs(t, err, coinselect.ErrInsufficientFunds)
}

func TestSendBchFetchErrorPropagates(t *testing.T) {
	fetchErr := errors.New("backend down")
	mock := &backend.MockChainService{
		GetUtxosFn: func(_ context.Context, _ string) ([]*backend.Utxo, error) {
			return nil, fetchErr
		},
	}

	b := NewBuilder(mock)
	outputs := []coinselect.Output{{Address: testWalletAddress(t), AmountSat: 600}}
	_, err := b.SendBch(context.Background(), outputs, testKeyMaterial, nil, 1.0)
	assert.ErrorIs(t, err, fetchErr)
}

func TestSendAllBch(t *testing.T) {
	dest := testWalletAddress(t)

	mock := &backend.MockChainService{
		GetUtxosFn: func(_ context.Context, _ string) ([]*backend.Utxo, error) {
			return []*backend.Utxo{
				{TxID: testTxID, Vout: 0, ValueSat: 2000},
				{TxID: testTxID, Vout: 1, ValueSat: 5000},
			}, nil
		},
		SendTxFn: func(_ context.Context, txHex string) (string, error) {
			tx := decodeTx(t, txHex)
			require.Len(t, tx.TxOut, 1)
			// 7000 total minus the 2-input single-output fee of 374.
			assert.Equal(t, int64(7000-374), tx.TxOut[0].Value)
			return "sweep-txid", nil
		},
	}

	b := NewBuilder(mock)
	txid, err := b.SendAllBch(context.Background(), dest, testKeyMaterial, nil, 1.0)
	require.NoError(t, err)
	assert.Equal(t, "sweep-txid", txid)
}
