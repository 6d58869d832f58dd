package txbuilder

import (
	"context"

	"github.com/cashtxorg/libcashtx-go/backend"
	"github.com/cashtxorg/libcashtx-go/coinselect"
	"github.com/cashtxorg/libcashtx-go/wallet"
)

// Builder ties the pure assembly functions to a backend for UTXO lookup and
// broadcast. Assembly itself stays synchronous and I/O-free; only the fetch
// and broadcast steps touch the network, and retry for those belongs to the
// backend's router, never to this layer.
type Builder struct {
	chain backend.ChainService
}

// NewBuilder creates a Builder over a backend. Pass a *backend.Router to
// get bounded retry on the network steps.
func NewBuilder(chain backend.ChainService) *Builder {
	return &Builder{chain: chain}
}

// SendBch builds, signs, and broadcasts a payment transaction, returning
// the broadcast txid. When utxos is nil the wallet's current snapshot is
// fetched from the backend first. Broadcast failures propagate unchanged.
func (b *Builder) SendBch(ctx context.Context, outputs []coinselect.Output,
	km *wallet.KeyMaterial, utxos []coinselect.Utxo, satsPerByte float64) (string, error) {

	utxos, err := b.ensureUtxos(ctx, km, utxos)
	if err != nil {
		return "", err
	}

	result, err := CreateTransaction(outputs, km, utxos, satsPerByte, nil)
	if err != nil {
		return "", err
	}

	log.Infof("broadcasting tx %s (%d outputs)", result.TxID, len(outputs))
	return b.chain.SendTx(ctx, result.Hex)
}

// SendAllBch sweeps the wallet to toAddress and broadcasts the result.
func (b *Builder) SendAllBch(ctx context.Context, toAddress string,
	km *wallet.KeyMaterial, utxos []coinselect.Utxo, satsPerByte float64) (string, error) {

	utxos, err := b.ensureUtxos(ctx, km, utxos)
	if err != nil {
		return "", err
	}

	result, err := CreateSendAllTx(toAddress, km, utxos, satsPerByte)
	if err != nil {
		return "", err
	}

	log.Infof("broadcasting sweep tx %s", result.TxID)
	return b.chain.SendTx(ctx, result.Hex)
}

// ensureUtxos fetches the wallet's UTXO snapshot when the caller supplied
// none.
func (b *Builder) ensureUtxos(ctx context.Context, km *wallet.KeyMaterial,
	utxos []coinselect.Utxo) ([]coinselect.Utxo, error) {

	if utxos != nil {
		return utxos, nil
	}

	keypair, err := GetKeyPair(km)
	if err != nil {
		return nil, err
	}
	fetched, err := b.chain.GetUtxos(ctx, keypair.CashAddress)
	if err != nil {
		return nil, err
	}
	return backend.ToSelectable(fetched), nil
}
