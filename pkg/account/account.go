// Package account supplies the signing identity ("deployer") used for every transaction.
package account

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/betbot/aavebot/pkg/secretstore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"
)

// DefaultDerivationPath is the first account of the standard Ethereum BIP-44 path.
const DefaultDerivationPath = "m/44'/60'/0'/0/0"

var ErrNoSigner = errors.New("account: no private key or mnemonic configured")

// Account is an identity able to sign transactions. It is never mutated after creation.
type Account struct {
	Address    common.Address
	PrivateKey *ecdsa.PrivateKey
}

// Source describes where the signer comes from. The first non-empty source wins:
// PrivateKey, then Mnemonic, then the secret store.
type Source struct {
	PrivateKey     string
	Mnemonic       string
	DerivationPath string

	SecretDB  string
	SecretKey []byte
}

// Load resolves the account from src.
func Load(src Source) (*Account, error) {
	if pk := strings.TrimSpace(src.PrivateKey); pk != "" {
		return FromPrivateKeyHex(pk)
	}
	if mn := strings.TrimSpace(src.Mnemonic); mn != "" {
		return FromMnemonic(mn, src.DerivationPath)
	}
	if strings.TrimSpace(src.SecretDB) != "" {
		return fromSecretStore(src)
	}
	return nil, ErrNoSigner
}

// FromPrivateKeyHex builds an account from a hex private key (with or without 0x).
func FromPrivateKeyHex(raw string) (*Account, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(raw), "0x"))
	if err != nil {
		return nil, fmt.Errorf("account: invalid private key: %w", err)
	}
	return fromKey(key), nil
}

// FromMnemonic derives an account from a BIP-39 mnemonic. An empty path means DefaultDerivationPath.
func FromMnemonic(mnemonic, derivationPath string) (*Account, error) {
	mnemonic = strings.TrimSpace(mnemonic)
	derivationPath = strings.TrimSpace(derivationPath)
	if mnemonic == "" {
		return nil, fmt.Errorf("account: mnemonic is required")
	}
	if derivationPath == "" {
		derivationPath = DefaultDerivationPath
	}

	w, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		return nil, fmt.Errorf("account: invalid mnemonic: %w", err)
	}
	path, err := hdwallet.ParseDerivationPath(derivationPath)
	if err != nil {
		return nil, fmt.Errorf("account: invalid derivation path %q: %w", derivationPath, err)
	}
	acct, err := w.Derive(path, false)
	if err != nil {
		return nil, fmt.Errorf("account: derive failed: %w", err)
	}
	key, err := w.PrivateKey(acct)
	if err != nil {
		return nil, fmt.Errorf("account: private key failed: %w", err)
	}
	return fromKey(key), nil
}

func fromSecretStore(src Source) (*Account, error) {
	ss, err := secretstore.Open(secretstore.OpenOptions{
		Path:          src.SecretDB,
		EncryptionKey: src.SecretKey,
		ReadOnly:      true,
	})
	if err != nil {
		return nil, err
	}
	defer ss.Close()

	pk, ok, err := ss.GetString(secretstore.KeyPrivateKey)
	if err != nil {
		return nil, err
	}
	if ok && strings.TrimSpace(pk) != "" {
		return FromPrivateKeyHex(pk)
	}

	mn, ok, err := ss.GetString(secretstore.KeyMnemonic)
	if err != nil {
		return nil, err
	}
	if !ok || strings.TrimSpace(mn) == "" {
		return nil, fmt.Errorf("%w (secret store %s)", ErrNoSigner, src.SecretDB)
	}
	path := src.DerivationPath
	if stored, ok, err := ss.GetString(secretstore.KeyDerivationPath); err == nil && ok && strings.TrimSpace(path) == "" {
		path = stored
	}
	return FromMnemonic(mn, path)
}

func fromKey(key *ecdsa.PrivateKey) *Account {
	return &Account{
		Address:    crypto.PubkeyToAddress(key.PublicKey),
		PrivateKey: key,
	}
}

// NewMnemonic generates a fresh 12-word BIP-39 mnemonic.
func NewMnemonic() (string, error) {
	m, err := hdwallet.NewMnemonic(128)
	if err != nil {
		return "", fmt.Errorf("account: generate mnemonic: %w", err)
	}
	return m, nil
}
