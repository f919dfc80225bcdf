package account

import (
	"bytes"
	"strings"
	"testing"

	"github.com/betbot/aavebot/pkg/secretstore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	devMnemonic   = "test test test test test test test test test test test junk"
	devPrivateKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
)

var (
	devAccount0 = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	devAccount1 = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
)

func TestFromPrivateKeyHex(t *testing.T) {
	acct, err := FromPrivateKeyHex(devPrivateKey)
	require.NoError(t, err)
	assert.Equal(t, devAccount0, acct.Address)

	_, err = FromPrivateKeyHex("0x1234")
	assert.Error(t, err)
}

func TestFromMnemonic(t *testing.T) {
	acct, err := FromMnemonic(devMnemonic, "")
	require.NoError(t, err)
	assert.Equal(t, devAccount0, acct.Address)

	acct, err = FromMnemonic(devMnemonic, "m/44'/60'/0'/0/1")
	require.NoError(t, err)
	assert.Equal(t, devAccount1, acct.Address)

	_, err = FromMnemonic(devMnemonic, "not/a/path")
	assert.Error(t, err)

	_, err = FromMnemonic("", "")
	assert.Error(t, err)
}

func TestLoad_Precedence(t *testing.T) {
	acct, err := Load(Source{PrivateKey: devPrivateKey, Mnemonic: devMnemonic, DerivationPath: "m/44'/60'/0'/0/1"})
	require.NoError(t, err)
	assert.Equal(t, devAccount0, acct.Address, "private key wins over mnemonic")

	acct, err = Load(Source{Mnemonic: devMnemonic, DerivationPath: "m/44'/60'/0'/0/1"})
	require.NoError(t, err)
	assert.Equal(t, devAccount1, acct.Address)

	_, err = Load(Source{})
	assert.ErrorIs(t, err, ErrNoSigner)
}

func TestLoad_FromSecretStore(t *testing.T) {
	key := bytes.Repeat([]byte{7}, 32)
	dir := t.TempDir()

	ss, err := secretstore.Open(secretstore.OpenOptions{Path: dir, EncryptionKey: key})
	require.NoError(t, err)
	require.NoError(t, ss.SetString(secretstore.KeyMnemonic, devMnemonic))
	require.NoError(t, ss.SetString(secretstore.KeyDerivationPath, "m/44'/60'/0'/0/1"))
	require.NoError(t, ss.Close())

	acct, err := Load(Source{SecretDB: dir, SecretKey: key})
	require.NoError(t, err)
	assert.Equal(t, devAccount1, acct.Address)

	// an explicit path overrides the stored one
	acct, err = Load(Source{SecretDB: dir, SecretKey: key, DerivationPath: DefaultDerivationPath})
	require.NoError(t, err)
	assert.Equal(t, devAccount0, acct.Address)
}

func TestLoad_SecretStoreWithoutWallet(t *testing.T) {
	dir := t.TempDir()
	ss, err := secretstore.Open(secretstore.OpenOptions{Path: dir})
	require.NoError(t, err)
	require.NoError(t, ss.SetString("other", "x"))
	require.NoError(t, ss.Close())

	_, err = Load(Source{SecretDB: dir})
	assert.ErrorIs(t, err, ErrNoSigner)
}

func TestNewMnemonic(t *testing.T) {
	m, err := NewMnemonic()
	require.NoError(t, err)
	assert.Len(t, strings.Fields(m), 12)

	acct, err := FromMnemonic(m, "")
	require.NoError(t, err)
	assert.NotEqual(t, common.Address{}, acct.Address)
}
