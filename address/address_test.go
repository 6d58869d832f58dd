package address

import (
	"testing"

	"github.com/gcash/bchd/chaincfg"
	"github.com/gcash/bchutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testHash160 is a fixed 20-byte pubkey hash shared by all encodings under test.
var testHash160 = []byte{
	0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a,
	0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10, 0x11, 0x12, 0x13, 0x14,
}

// encodeWithPrefix produces a prefixed cashaddr for testHash160.
func encodeWithPrefix(t *testing.T, prefix string) string {
	t.Helper()
	addr, err := bchutil.NewAddressPubKeyHash(testHash160, prefixParams(prefix))
	require.NoError(t, err)
	return prefix + ":" + addr.String()
}

func canonical(t *testing.T) string {
	t.Helper()
	addr, err := bchutil.NewAddressPubKeyHash(testHash160, &chaincfg.MainNetParams)
	require.NoError(t, err)
	return "bitcoincash:" + addr.String()
}

func TestDecodeAnyAllPrefixesShareOnePayload(t *testing.T) {
	want := canonical(t)

	for _, prefix := range []string{"bitcoincash", "ecash", "simpleledger", "etoken"} {
		t.Run(prefix, func(t *testing.T) {
			surface := encodeWithPrefix(t, prefix)

			decoded, err := DecodeAny(surface)
			require.NoError(t, err)
			assert.Equal(t, testHash160, decoded.ScriptAddress())

			got, err := ToCashAddress(surface)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestDecodeAnyBareCashAddr(t *testing.T) {
	addr, err := bchutil.NewAddressPubKeyHash(testHash160, &chaincfg.MainNetParams)
	require.NoError(t, err)

	decoded, err := DecodeAny(addr.String())
	require.NoError(t, err)
	assert.Equal(t, testHash160, decoded.ScriptAddress())
}

func TestDecodeAnyRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		addr string
	}{
		{"empty", ""},
		{"unknown prefix", "dogecoin:qqypqxpq9qcrsszg2pvxq6rs0zqg3yyc5z5tpwxqergd"},
		{"bad checksum", "bitcoincash:qqypqxpq9qcrsszg2pvxq6rs0zqg3yyc5aaaaaaaaaa"},
		{"not an address", "definitely not an address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAny(tt.addr)
			assert.ErrorIs(t, err, ErrInvalidAddress)
		})
	}
}

func TestPayScriptBuildsP2PKH(t *testing.T) {
	script, err := PayScript(encodeWithPrefix(t, "ecash"))
	require.NoError(t, err)

	// OP_DUP OP_HASH160 <20 bytes> OP_EQUALVERIFY OP_CHECKSIG
	require.Len(t, script, 25)
	assert.Equal(t, byte(0x76), script[0])
	assert.Equal(t, byte(0xa9), script[1])
	assert.Equal(t, byte(0x14), script[2])
	assert.Equal(t, testHash160, script[3:23])

	// Scripts built from different surface encodings are identical.
	canonicalScript, err := PayScript(canonical(t))
	require.NoError(t, err)
	assert.Equal(t, canonicalScript, script)
}

func TestIsTokenAddress(t *testing.T) {
	assert.True(t, IsTokenAddress("simpleledger:qq0abc"))
	assert.True(t, IsTokenAddress("etoken:qq0abc"))
	assert.False(t, IsTokenAddress("bitcoincash:qq0abc"))
	assert.False(t, IsTokenAddress("ecash:qq0abc"))
	assert.False(t, IsTokenAddress("qq0abc"))
}
