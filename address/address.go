// Package address normalizes the surface address encodings used by
// BCH/XEC-family payment outputs. The cash address format is shared across
// the base chain (bitcoincash:), the alt ledger (ecash:), and the
// token-carrying variants (simpleledger:, etoken:) — same hash160 payload,
// different human-readable prefix and checksum. Every supported encoding is
// decoded down to that payload and re-bound to canonical mainnet parameters
// so script construction never sees a surface string.
package address

import (
	"fmt"
	"strings"

	"github.com/gcash/bchd/chaincfg"
	"github.com/gcash/bchd/txscript"
	"github.com/gcash/bchutil"
)

// Cash address prefixes recognized by DecodeAny. The map value is true for
// token-carrying encodings.
var knownPrefixes = map[string]bool{
	"bitcoincash":  false,
	"ecash":        false,
	"simpleledger": true,
	"etoken":       true,
}

// prefixParams returns a copy of the mainnet parameters with the cash
// address prefix swapped. The cashaddr checksum covers the prefix, so each
// encoding must be decoded against its own prefix.
func prefixParams(prefix string) *chaincfg.Params {
	params := chaincfg.MainNetParams
	params.CashAddressPrefix = prefix
	return &params
}

// DecodeAny decodes an address in any supported surface encoding and
// returns it re-bound to canonical mainnet parameters. Accepted inputs are
// prefixed cash addresses (bitcoincash:, ecash:, simpleledger:, etoken:),
// bare cash addresses, and legacy base58.
func DecodeAny(addr string) (bchutil.Address, error) {
	if addr == "" {
		return nil, fmt.Errorf("%w: empty string", ErrInvalidAddress)
	}

	if i := strings.IndexByte(addr, ':'); i >= 0 {
		prefix := strings.ToLower(addr[:i])
		if _, ok := knownPrefixes[prefix]; !ok {
			return nil, fmt.Errorf("%w: unknown prefix %q", ErrInvalidAddress, prefix)
		}
		decoded, err := bchutil.DecodeAddress(addr, prefixParams(prefix))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
		}
		return rebind(decoded)
	}

	// No prefix: legacy base58 decodes directly against mainnet; a bare
	// cashaddr payload must be tried against each known prefix since the
	// checksum commits to it.
	if decoded, err := bchutil.DecodeAddress(addr, &chaincfg.MainNetParams); err == nil {
		return rebind(decoded)
	}
	for prefix := range knownPrefixes {
		if prefix == "bitcoincash" {
			continue // already covered by the mainnet attempt above
		}
		if decoded, err := bchutil.DecodeAddress(addr, prefixParams(prefix)); err == nil {
			return rebind(decoded)
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
}

// rebind reconstructs a decoded address against canonical mainnet params so
// that String() and script construction use the base-chain encoding
// regardless of the surface prefix it arrived with.
func rebind(decoded bchutil.Address) (bchutil.Address, error) {
	switch a := decoded.(type) {
	case *bchutil.AddressPubKeyHash:
		out, err := bchutil.NewAddressPubKeyHash(a.ScriptAddress(), &chaincfg.MainNetParams)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
		}
		return out, nil
	case *bchutil.AddressScriptHash:
		out, err := bchutil.NewAddressScriptHashFromHash(a.ScriptAddress(), &chaincfg.MainNetParams)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
		}
		return out, nil
	case *bchutil.LegacyAddressPubKeyHash:
		out, err := bchutil.NewAddressPubKeyHash(a.ScriptAddress(), &chaincfg.MainNetParams)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
		}
		return out, nil
	case *bchutil.LegacyAddressScriptHash:
		out, err := bchutil.NewAddressScriptHashFromHash(a.ScriptAddress(), &chaincfg.MainNetParams)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, decoded)
	}
}

// ToCashAddress returns the canonical bitcoincash: form of an address in
// any supported encoding.
func ToCashAddress(addr string) (string, error) {
	decoded, err := DecodeAny(addr)
	if err != nil {
		return "", err
	}
	return chaincfg.MainNetParams.CashAddressPrefix + ":" + decoded.String(), nil
}

// PayScript builds the locking script paying to an address in any
// supported encoding. Output scripts are built from the decoded payload,
// never from the surface string.
func PayScript(addr string) ([]byte, error) {
	decoded, err := DecodeAny(addr)
	if err != nil {
		return nil, err
	}
	script, err := txscript.PayToAddrScript(decoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedType, err)
	}
	return script, nil
}

// IsTokenAddress reports whether the address uses a token-carrying surface
// encoding. It does not validate the payload; use DecodeAny for that.
func IsTokenAddress(addr string) bool {
	i := strings.IndexByte(addr, ':')
	if i < 0 {
		return false
	}
	return knownPrefixes[strings.ToLower(addr[:i])]
}
