package txbuilder

import (
	"fmt"

	"github.com/gcash/bchd/wire"

	"github.com/cashtxorg/libcashtx-go/address"
	"github.com/cashtxorg/libcashtx-go/coinselect"
	"github.com/cashtxorg/libcashtx-go/fees"
	"github.com/cashtxorg/libcashtx-go/wallet"
)

// CreateSendAllTx sweeps every supplied UTXO into a single output at
// toAddress, paying sum(values) minus the fee. A sweep never produces a
// change output. The destination address is validated before anything else;
// token-carrying UTXOs are rejected since a plain sweep would burn them.
func CreateSendAllTx(toAddress string, km *wallet.KeyMaterial,
	utxos []coinselect.Utxo, satsPerByte float64) (*TxResult, error) {

	destScript, err := address.PayScript(toAddress)
	if err != nil {
		return nil, err
	}

	if len(utxos) == 0 {
		return nil, ErrEmptyUtxoSet
	}
	var total uint64
	for i := range utxos {
		if utxos[i].IsToken() {
			return nil, fmt.Errorf("%w: %s:%d carries token %s",
				ErrTokenInSweep, utxos[i].TxID, utxos[i].Vout, utxos[i].TokenID)
		}
		total += utxos[i].ValueSat
	}

	keypair, err := GetKeyPair(km)
	if err != nil {
		return nil, err
	}

	fee, err := fees.Calculate(len(utxos), 1, satsPerByte)
	if err != nil {
		return nil, err
	}
	if total <= fee+DustLimit {
		return nil, fmt.Errorf("%w: need more than %d sat to sweep, have %d sat",
			coinselect.ErrInsufficientFunds, fee+DustLimit, total)
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxOut(wire.NewTxOut(int64(total-fee), destScript))

	if err := addAndSignInputs(tx, utxos, keypair); err != nil {
		return nil, err
	}

	log.Debugf("sweeping %d utxos (%d sat, fee %d) to %s", len(utxos), total, fee, toAddress)
	return serialize(tx)
}
