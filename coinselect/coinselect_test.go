package coinselect

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func utxoSet(values ...uint64) []Utxo {
	utxos := make([]Utxo, len(values))
	for i, v := range values {
		utxos[i] = Utxo{TxID: "aa", Vout: uint32(i), ValueSat: v}
	}
	return utxos
}

func TestSortBySize(t *testing.T) {
	utxos := utxoSet(500, 100, 2000, 100, 750)

	asc := SortBySize(utxos, SortAscending)
	require.Len(t, asc, 5)
	assert.GreaterOrEqual(t, asc[len(asc)-1].ValueSat, asc[0].ValueSat)
	for i := 1; i < len(asc); i++ {
		assert.LessOrEqual(t, asc[i-1].ValueSat, asc[i].ValueSat)
	}

	// Stable: the two 100-sat entries keep their original relative order.
	assert.Equal(t, uint32(1), asc[0].Vout)
	assert.Equal(t, uint32(3), asc[1].Vout)

	desc := SortBySize(utxos, SortDescending)
	for i := 1; i < len(desc); i++ {
		assert.GreaterOrEqual(t, desc[i-1].ValueSat, desc[i].ValueSat)
	}

	// Idempotent.
	again := SortBySize(asc, SortAscending)
	assert.Equal(t, asc, again)

	// Input untouched.
	assert.Equal(t, uint64(500), utxos[0].ValueSat)
}

func TestSelectCoverageInvariant(t *testing.T) {
	outputs := []Output{{Address: "bitcoincash:qq0", AmountSat: 1200}}
	utxos := utxoSet(400, 800, 1500, 3000)

	res, err := Select(outputs, utxos, 1, nil)
	require.NoError(t, err)

	var sum uint64
	for _, u := range res.Utxos {
		sum += u.ValueSat
	}
	assert.Equal(t, sum, 1200+res.FeeSat+res.ChangeSat)
	assert.GreaterOrEqual(t, sum, 1200+res.FeeSat)
}

func TestSelectThreeUtxoFixture(t *testing.T) {
	// 600 sat payment against five ascending candidates: the first two fall
	// short of amount+fee, the third covers it.
	outputs := []Output{{Address: "bitcoincash:qq0", AmountSat: 600}}
	utxos := utxoSet(250, 500, 1000, 2000, 5000)

	res, err := Select(outputs, utxos, 1, nil)
	require.NoError(t, err)
	require.Len(t, res.Utxos, 3)

	// 250+500+1000 = 1750 available, fee for 3-in/1-out(+change) = 522.
	assert.Equal(t, uint64(522), res.FeeSat)
	assert.Equal(t, uint64(1750-600-522), res.ChangeSat)
}

func TestSelectFeeGrowsWithEachInput(t *testing.T) {
	// A naive fixed-fee pass would stop at two inputs here; the recomputed
	// fee forces a third.
	outputs := []Output{{Address: "bitcoincash:qq0", AmountSat: 1000}}
	utxos := utxoSet(620, 620, 620)

	res, err := Select(outputs, utxos, 1, nil)
	require.NoError(t, err)
	assert.Len(t, res.Utxos, 3)
}

func TestSelectInsufficientFunds(t *testing.T) {
	outputs := []Output{{Address: "bitcoincash:qq0", AmountSat: 5000}}
	utxos := utxoSet(100, 200, 300)

	_, err := Select(outputs, utxos, 1, nil)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestSelectEmptyAndTokenOnlySets(t *testing.T) {
	outputs := []Output{{Address: "bitcoincash:qq0", AmountSat: 100}}

	_, err := Select(outputs, nil, 1, nil)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	tokenOnly := []Utxo{
		{TxID: "aa", Vout: 0, ValueSat: 100000, TokenID: "deadbeef", TokenQty: 5},
	}
	_, err = Select(outputs, tokenOnly, 1, nil)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestSelectSkipsTokenUtxos(t *testing.T) {
	outputs := []Output{{Address: "bitcoincash:qq0", AmountSat: 500}}
	utxos := []Utxo{
		{TxID: "aa", Vout: 0, ValueSat: 546, TokenID: "deadbeef", TokenQty: 10},
		{TxID: "bb", Vout: 1, ValueSat: 2000},
	}

	res, err := Select(outputs, utxos, 1, nil)
	require.NoError(t, err)
	require.Len(t, res.Utxos, 1)
	assert.Equal(t, "bb", res.Utxos[0].TxID)
}

func TestSelectRejectsZeroAmountOutput(t *testing.T) {
	outputs := []Output{{Address: "bitcoincash:qq0", AmountSat: 0}}
	_, err := Select(outputs, utxoSet(1000), 1, nil)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = Select(nil, utxoSet(1000), 1, nil)
	assert.ErrorIs(t, err, ErrNoOutputs)
}

func TestSelectCustomSortFn(t *testing.T) {
	outputs := []Output{{Address: "bitcoincash:qq0", AmountSat: 600}}
	utxos := utxoSet(250, 500, 1000, 2000, 5000)

	descending := func(in []Utxo) []Utxo {
		out := make([]Utxo, len(in))
		copy(out, in)
		sort.SliceStable(out, func(i, j int) bool { return out[i].ValueSat > out[j].ValueSat })
		return out
	}

	res, err := Select(outputs, utxos, 1, &Options{SortFn: SortFunc(descending)})
	require.NoError(t, err)
	require.Len(t, res.Utxos, 1)
	assert.Equal(t, uint64(5000), res.Utxos[0].ValueSat)
}
