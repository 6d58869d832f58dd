// Package wallet resolves a wallet's private key material into a signing
// key and cash address. Key material is a BIP39 mnemonic, an encrypted
// seed at rest, or a raw private key in WIF, in that order of precedence.
//
// Mnemonic-derived keys follow m/44'/245'/account'/chain/index, the SLP
// coin type shared by BCH token wallets.
package wallet

import (
	"fmt"

	"github.com/gcash/bchd/bchec"
	"github.com/gcash/bchd/chaincfg"
	"github.com/gcash/bchutil"
	"github.com/gcash/bchutil/hdkeychain"
	bip39 "github.com/tyler-smith/go-bip39"
)

const (
	// PurposeBIP44 is the BIP44 purpose field.
	PurposeBIP44 = 44

	// CoinTypeSLP is the registered coin type for SLP-aware BCH wallets.
	CoinTypeSLP = 245

	// ExternalChain derives receive addresses, InternalChain change addresses.
	ExternalChain = 0
	InternalChain = 1
)

// KeyMaterial holds a wallet's private key material: a BIP39 mnemonic, an
// encrypted seed produced by EncryptSeed, or a raw key in WIF. At least one
// must resolve to a usable signing key; precedence is mnemonic, then
// encrypted seed, then WIF.
type KeyMaterial struct {
	Mnemonic string `json:"mnemonic,omitempty"`
	WIF      string `json:"wif,omitempty"`

	// EncryptedSeed is a seed at rest in the EncryptSeed format;
	// SeedPassword unlocks it. Both are needed for this path to resolve.
	EncryptedSeed []byte `json:"encrypted_seed,omitempty"`
	SeedPassword  string `json:"-"`
}

// Keypair is a resolved signing key with its derived cash address.
type Keypair struct {
	PrivKey     *bchec.PrivateKey `json:"-"`
	PubKey      *bchec.PublicKey  `json:"-"`
	CashAddress string            `json:"cash_address"`
	Path        string            `json:"path,omitempty"`
}

// ResolveSigningKey resolves key material to a signing key. A mnemonic or
// decrypted seed is derived at m/44'/245'/0'/0/0; a WIF is decoded
// directly. Fails with ErrNoSigningMaterial when no field is usable.
func ResolveSigningKey(km *KeyMaterial, params *chaincfg.Params) (*Keypair, error) {
	if km == nil {
		return nil, fmt.Errorf("%w: nil key material", ErrNoSigningMaterial)
	}
	if params == nil {
		params = &chaincfg.MainNetParams
	}

	if km.Mnemonic != "" {
		kp, err := keypairFromMnemonic(km.Mnemonic, params)
		if err != nil {
			return nil, err
		}
		return kp, nil
	}

	if len(km.EncryptedSeed) > 0 {
		seed, err := DecryptSeed(km.EncryptedSeed, km.SeedPassword)
		if err != nil {
			return nil, err
		}
		return deriveAtPath(seed, ExternalChain, 0, params)
	}

	if km.WIF != "" {
		wif, err := bchutil.DecodeWIF(km.WIF)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidWIF, err)
		}
		return keypairFromPriv(wif.PrivKey, "", params)
	}

	return nil, ErrNoSigningMaterial
}

// keypairFromMnemonic derives the wallet's primary key from a mnemonic.
func keypairFromMnemonic(mnemonic string, params *chaincfg.Params) (*Keypair, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed := bip39.NewSeed(mnemonic, "")

	return deriveAtPath(seed, ExternalChain, 0, params)
}

// DeriveKey derives a key pair from a seed on the wallet's account 0.
//
//	chain: ExternalChain (0) for receive, InternalChain (1) for change
//	index: address index
//	Path: m/44'/245'/0'/chain/index
func DeriveKey(seed []byte, chain, index uint32, params *chaincfg.Params) (*Keypair, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}
	if params == nil {
		params = &chaincfg.MainNetParams
	}
	return deriveAtPath(seed, chain, index, params)
}

func deriveAtPath(seed []byte, chain, index uint32, params *chaincfg.Params) (*Keypair, error) {
	master, err := hdkeychain.NewMaster(seed, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDerivationFailed, err)
	}

	// m/44'/245'/0'
	steps := []uint32{
		PurposeBIP44 + hdkeychain.HardenedKeyStart,
		CoinTypeSLP + hdkeychain.HardenedKeyStart,
		0 + hdkeychain.HardenedKeyStart,
		chain,
		index,
	}
	key := master
	for depth, step := range steps {
		key, err = key.Child(step)
		if err != nil {
			return nil, fmt.Errorf("%w: at depth %d: %v", ErrDerivationFailed, depth+1, err)
		}
	}

	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDerivationFailed, err)
	}

	path := fmt.Sprintf("m/44'/245'/0'/%d/%d", chain, index)
	return keypairFromPriv(priv, path, params)
}

// keypairFromPriv builds a Keypair around an EC private key.
func keypairFromPriv(priv *bchec.PrivateKey, path string, params *chaincfg.Params) (*Keypair, error) {
	pub := priv.PubKey()
	addr, err := bchutil.NewAddressPubKeyHash(bchutil.Hash160(pub.SerializeCompressed()), params)
	if err != nil {
		return nil, fmt.Errorf("%w: address from pubkey: %v", ErrDerivationFailed, err)
	}
	return &Keypair{
		PrivKey:     priv,
		PubKey:      pub,
		CashAddress: params.CashAddressPrefix + ":" + addr.String(),
		Path:        path,
	}, nil
}

// GenerateMnemonic creates a new BIP39 mnemonic with the given entropy bits
// (128 for 12 words, 256 for 24 words).
func GenerateMnemonic(entropyBits int) (string, error) {
	if entropyBits != 128 && entropyBits != 256 {
		return "", ErrInvalidEntropy
	}
	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return "", fmt.Errorf("wallet: failed to generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("wallet: failed to generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// ValidateMnemonic checks if a mnemonic string is valid BIP39.
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(mnemonic)
}

// SeedFromMnemonic derives the 64-byte BIP39 seed for mnemonic + optional
// passphrase.
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("wallet: failed to derive seed: %w", err)
	}
	return seed, nil
}
