package client

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/betbot/aavebot/chain/types"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

// fakeBackend 内存中的 RPC 假实现：按合约地址分发 eth_call，记录已发送交易并立即出块
type fakeBackend struct {
	mu sync.Mutex

	chainID  *big.Int
	handlers map[common.Address]func(data []byte) ([]byte, error)
	sent     []*ethtypes.Transaction
	receipts map[common.Hash]*ethtypes.Receipt
	head     uint64

	revertNext    bool
	estimateErr   error
	advanceOnRead bool // 每次 BlockNumber 调用时出一个新块
	blockNumReads int
}

func newFakeBackend(chainID int64) *fakeBackend {
	return &fakeBackend{
		chainID:  big.NewInt(chainID),
		handlers: make(map[common.Address]func([]byte) ([]byte, error)),
		receipts: make(map[common.Hash]*ethtypes.Receipt),
		head:     100,
	}
}

func (f *fakeBackend) handle(addr common.Address, h func(data []byte) ([]byte, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[addr] = h
}

func (f *fakeBackend) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	h, ok := f.handlers[*call.To]
	f.mu.Unlock()
	if !ok {
		return nil, errors.New("execution reverted")
	}
	return h(call.Data)
}

func (f *fakeBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint64(len(f.sent)), nil
}

func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (f *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.estimateErr != nil {
		return 0, f.estimateErr
	}
	return 100_000, nil
}

func (f *fakeBackend) SendTransaction(_ context.Context, tx *ethtypes.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, tx)
	f.head++
	status := ethtypes.ReceiptStatusSuccessful
	if f.revertNext {
		status = ethtypes.ReceiptStatusFailed
		f.revertNext = false
	}
	f.receipts[tx.Hash()] = &ethtypes.Receipt{
		Status:      status,
		TxHash:      tx.Hash(),
		BlockNumber: new(big.Int).SetUint64(f.head),
		GasUsed:     50_000,
	}
	return nil
}

func (f *fakeBackend) TransactionReceipt(_ context.Context, hash common.Hash) (*ethtypes.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (f *fakeBackend) BlockNumber(context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blockNumReads++
	if f.advanceOnRead {
		f.head++
	}
	return f.head, nil
}

func (f *fakeBackend) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(f.chainID), nil
}

func (f *fakeBackend) sentTxs() []*ethtypes.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*ethtypes.Transaction(nil), f.sent...)
}

// decodeTx 用 ABI 还原交易调用的方法和参数
func decodeTx(t *testing.T, contract abi.ABI, tx *ethtypes.Transaction) (string, []interface{}) {
	t.Helper()
	data := tx.Data()
	require.GreaterOrEqual(t, len(data), 4)
	method, err := contract.MethodById(data[:4])
	require.NoError(t, err)
	args, err := method.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	return method.Name, args
}

// packOutputs 按 ABI 打包方法返回值，用于假实现的 eth_call 响应
func packOutputs(t *testing.T, contract abi.ABI, method string, values ...interface{}) []byte {
	t.Helper()
	out, err := contract.Methods[method].Outputs.Pack(values...)
	require.NoError(t, err)
	return out
}

func newTestTransactor(t *testing.T, backend *fakeBackend, opts ...TransactorOption) (*Transactor, *ecdsa.PrivateKey) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	tx, err := NewTransactor(context.Background(), backend, types.ChainLocalFork, key, opts...)
	require.NoError(t, err)
	return tx, key
}
