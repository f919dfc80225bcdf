package client

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/betbot/aavebot/chain/types"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testPool     = common.HexToAddress("0x7d2768dE32b0b80b7a3454c06BdAc94A69DDc7A9")
	testProvider = MainnetContracts.LendingPoolAddressesProvider
	testWETH     = MainnetContracts.WETH
	testDAI      = MainnetContracts.BorrowAsset
	testFeed     = MainnetContracts.PriceFeed
)

func TestGetContractConfig(t *testing.T) {
	cfg, err := GetContractConfig(types.ChainLocalFork)
	require.NoError(t, err)
	assert.Equal(t, MainnetContracts, *cfg)

	cfg.WETH = common.Address{}
	assert.NotEqual(t, common.Address{}, MainnetContracts.WETH, "returned config must be a copy")

	_, err = GetContractConfig(types.Chain(137))
	assert.Error(t, err)
}

func TestNewTransactor_ChainMismatch(t *testing.T) {
	backend := newFakeBackend(1)
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	_, err = NewTransactor(context.Background(), backend, types.ChainLocalFork, key)
	assert.ErrorIs(t, err, ErrChainMismatch)
}

func TestWETHClient_Wrap(t *testing.T) {
	backend := newFakeBackend(int64(types.ChainLocalFork))
	tx, key := newTestTransactor(t, backend)
	weth := NewWETHClient(tx, testWETH)

	amount := big.NewInt(20_000_000_000_000_000)
	receipt, err := weth.Wrap(context.Background(), amount)
	require.NoError(t, err)
	assert.Equal(t, ethtypes.ReceiptStatusSuccessful, receipt.Status)

	sent := backend.sentTxs()
	require.Len(t, sent, 1)
	assert.Equal(t, testWETH, *sent[0].To())
	assert.Equal(t, 0, amount.Cmp(sent[0].Value()))

	name, _ := decodeTx(t, parsedABI.weth, sent[0])
	assert.Equal(t, "deposit", name)

	from, err := ethtypes.Sender(ethtypes.NewEIP155Signer(big.NewInt(int64(types.ChainLocalFork))), sent[0])
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), from)
}

func TestWETHClient_WrapRejectsZero(t *testing.T) {
	backend := newFakeBackend(int64(types.ChainLocalFork))
	tx, _ := newTestTransactor(t, backend)

	_, err := NewWETHClient(tx, testWETH).Wrap(context.Background(), big.NewInt(0))
	assert.Error(t, err)
	assert.Empty(t, backend.sentTxs())
}

func TestWETHClient_BalanceOf(t *testing.T) {
	backend := newFakeBackend(int64(types.ChainLocalFork))
	tx, key := newTestTransactor(t, backend)
	owner := crypto.PubkeyToAddress(key.PublicKey)

	backend.handle(testWETH, func(data []byte) ([]byte, error) {
		method, err := parsedABI.erc20.MethodById(data[:4])
		require.NoError(t, err)
		require.Equal(t, "balanceOf", method.Name)
		args, err := method.Inputs.Unpack(data[4:])
		require.NoError(t, err)
		require.Equal(t, owner, args[0])
		return packOutputs(t, parsedABI.erc20, "balanceOf", big.NewInt(42)), nil
	})

	bal, err := NewWETHClient(tx, testWETH).BalanceOf(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, int64(42), bal.Int64())
}

func TestERC20Client_Approve(t *testing.T) {
	backend := newFakeBackend(int64(types.ChainLocalFork))
	tx, _ := newTestTransactor(t, backend)

	amount := big.NewInt(123456)
	_, err := NewERC20Client(tx).Approve(context.Background(), testDAI, testPool, amount)
	require.NoError(t, err)

	sent := backend.sentTxs()
	require.Len(t, sent, 1)
	assert.Equal(t, testDAI, *sent[0].To())
	assert.Equal(t, 0, sent[0].Value().Sign())

	name, args := decodeTx(t, parsedABI.erc20, sent[0])
	assert.Equal(t, "approve", name)
	assert.Equal(t, testPool, args[0])
	assert.Equal(t, 0, amount.Cmp(args[1].(*big.Int)))
}

func TestERC20Client_Allowance(t *testing.T) {
	backend := newFakeBackend(int64(types.ChainLocalFork))
	tx, key := newTestTransactor(t, backend)
	owner := crypto.PubkeyToAddress(key.PublicKey)

	backend.handle(testDAI, func(data []byte) ([]byte, error) {
		return packOutputs(t, parsedABI.erc20, "allowance", big.NewInt(7)), nil
	})

	got, err := NewERC20Client(tx).Allowance(context.Background(), testDAI, owner, testPool)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.Int64())
}

func TestTransactor_RevertedReceipt(t *testing.T) {
	backend := newFakeBackend(int64(types.ChainLocalFork))
	tx, _ := newTestTransactor(t, backend)
	backend.revertNext = true

	receipt, err := NewERC20Client(tx).Approve(context.Background(), testDAI, testPool, big.NewInt(1))
	assert.ErrorIs(t, err, ErrTransactionReverted)
	assert.Nil(t, receipt)
}

func TestTransactor_EstimateGasFailureSendsNothing(t *testing.T) {
	backend := newFakeBackend(int64(types.ChainLocalFork))
	tx, _ := newTestTransactor(t, backend)
	backend.estimateErr = errors.New("execution reverted: 11")

	_, err := NewWETHClient(tx, testWETH).Wrap(context.Background(), big.NewInt(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execution reverted")
	assert.Empty(t, backend.sentTxs())
}

func TestTransactor_WaitsForConfirmations(t *testing.T) {
	backend := newFakeBackend(int64(types.ChainLocalFork))
	backend.advanceOnRead = true
	tx, _ := newTestTransactor(t, backend, WithConfirmations(3), WithPollInterval(time.Millisecond))

	receipt, err := NewWETHClient(tx, testWETH).Wrap(context.Background(), big.NewInt(1))
	require.NoError(t, err)

	head, _ := backend.BlockNumber(context.Background())
	assert.GreaterOrEqual(t, head, receipt.BlockNumber.Uint64()+2)
	assert.GreaterOrEqual(t, backend.blockNumReads, 2)
}

func TestTransactor_SingleConfirmationSkipsPolling(t *testing.T) {
	backend := newFakeBackend(int64(types.ChainLocalFork))
	tx, _ := newTestTransactor(t, backend)

	_, err := NewWETHClient(tx, testWETH).Wrap(context.Background(), big.NewInt(1))
	require.NoError(t, err)
	assert.Zero(t, backend.blockNumReads)
}

func TestTransactor_NonceFollowsSentCount(t *testing.T) {
	backend := newFakeBackend(int64(types.ChainLocalFork))
	tx, _ := newTestTransactor(t, backend)
	erc20 := NewERC20Client(tx)

	for i := 0; i < 3; i++ {
		_, err := erc20.Approve(context.Background(), testDAI, testPool, big.NewInt(int64(i)))
		require.NoError(t, err)
	}
	for i, sent := range backend.sentTxs() {
		assert.Equal(t, uint64(i), sent.Nonce())
	}
}

func newPoolBackend(t *testing.T) *fakeBackend {
	t.Helper()
	backend := newFakeBackend(int64(types.ChainLocalFork))
	backend.handle(testProvider, func(data []byte) ([]byte, error) {
		return packOutputs(t, parsedABI.provider, "getLendingPool", testPool), nil
	})
	return backend
}

func TestResolvePoolAddress(t *testing.T) {
	backend := newPoolBackend(t)
	tx, _ := newTestTransactor(t, backend)

	addr, err := ResolvePoolAddress(context.Background(), tx, testProvider)
	require.NoError(t, err)
	assert.Equal(t, testPool, addr)

	client, err := NewLendingPoolClient(context.Background(), tx, testProvider)
	require.NoError(t, err)
	assert.Equal(t, testPool, client.Address())
}

func TestResolvePoolAddress_ZeroAddress(t *testing.T) {
	backend := newFakeBackend(int64(types.ChainLocalFork))
	tx, _ := newTestTransactor(t, backend)
	backend.handle(testProvider, func(data []byte) ([]byte, error) {
		return packOutputs(t, parsedABI.provider, "getLendingPool", common.Address{}), nil
	})

	_, err := ResolvePoolAddress(context.Background(), tx, testProvider)
	assert.Error(t, err)
}

func TestLendingPoolClient_StateChangingCalls(t *testing.T) {
	backend := newPoolBackend(t)
	tx, key := newTestTransactor(t, backend)
	me := crypto.PubkeyToAddress(key.PublicKey)
	pool, err := NewLendingPoolClient(context.Background(), tx, testProvider)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = pool.Deposit(ctx, testWETH, big.NewInt(100), me, types.ReferralCodeNone)
	require.NoError(t, err)
	_, err = pool.Borrow(ctx, testDAI, big.NewInt(50), types.InterestRateModeVariable, types.ReferralCodeNone, me)
	require.NoError(t, err)
	_, err = pool.Repay(ctx, testDAI, big.NewInt(50), types.InterestRateModeVariable, me)
	require.NoError(t, err)

	sent := backend.sentTxs()
	require.Len(t, sent, 3)
	for _, s := range sent {
		assert.Equal(t, testPool, *s.To())
	}

	name, args := decodeTx(t, parsedABI.pool, sent[0])
	assert.Equal(t, "deposit", name)
	assert.Equal(t, testWETH, args[0])
	assert.Equal(t, int64(100), args[1].(*big.Int).Int64())
	assert.Equal(t, me, args[2])
	assert.Equal(t, uint16(0), args[3])

	name, args = decodeTx(t, parsedABI.pool, sent[1])
	assert.Equal(t, "borrow", name)
	assert.Equal(t, testDAI, args[0])
	assert.Equal(t, int64(50), args[1].(*big.Int).Int64())
	assert.Equal(t, int64(2), args[2].(*big.Int).Int64())
	assert.Equal(t, uint16(0), args[3])
	assert.Equal(t, me, args[4])

	name, args = decodeTx(t, parsedABI.pool, sent[2])
	assert.Equal(t, "repay", name)
	assert.Equal(t, testDAI, args[0])
	assert.Equal(t, int64(50), args[1].(*big.Int).Int64())
	assert.Equal(t, int64(2), args[2].(*big.Int).Int64())
	assert.Equal(t, me, args[3])
}

func TestLendingPoolClient_GetUserAccountData(t *testing.T) {
	backend := newPoolBackend(t)
	tx, key := newTestTransactor(t, backend)
	me := crypto.PubkeyToAddress(key.PublicKey)

	backend.handle(testPool, func(data []byte) ([]byte, error) {
		return packOutputs(t, parsedABI.pool, "getUserAccountData",
			big.NewInt(20_000_000_000_000_000), // collateral
			big.NewInt(0),                      // debt
			big.NewInt(16_000_000_000_000_000), // available
			big.NewInt(8250),
			big.NewInt(8000),
			new(big.Int).Lsh(big.NewInt(1), 255),
		), nil
	})

	pool, err := NewLendingPoolClient(context.Background(), tx, testProvider)
	require.NoError(t, err)

	pos, err := pool.GetUserAccountData(context.Background(), me)
	require.NoError(t, err)
	assert.Equal(t, "20000000000000000", pos.TotalCollateralETH.String())
	assert.Equal(t, 0, pos.TotalDebtETH.Sign())
	assert.Equal(t, "16000000000000000", pos.AvailableBorrowsETH.String())
	assert.Equal(t, int64(8250), pos.CurrentLiquidationThreshold.Int64())
	assert.Equal(t, int64(8000), pos.Ltv.Int64())
	assert.Equal(t, 256, pos.HealthFactor.BitLen())

	again, err := pool.GetUserAccountData(context.Background(), me)
	require.NoError(t, err)
	assert.Equal(t, pos, again)
	assert.Empty(t, backend.sentTxs(), "reads must not send transactions")
}

func TestPriceFeedClient(t *testing.T) {
	backend := newFakeBackend(int64(types.ChainLocalFork))
	tx, _ := newTestTransactor(t, backend)

	backend.handle(testFeed, func(data []byte) ([]byte, error) {
		method, err := parsedABI.aggregator.MethodById(data[:4])
		require.NoError(t, err)
		switch method.Name {
		case "latestRoundData":
			return packOutputs(t, parsedABI.aggregator, "latestRoundData",
				big.NewInt(1001),
				big.NewInt(400_000_000_000_000),
				big.NewInt(1_700_000_000),
				big.NewInt(1_700_000_100),
				big.NewInt(1001),
			), nil
		case "decimals":
			return packOutputs(t, parsedABI.aggregator, "decimals", uint8(18)), nil
		case "description":
			return packOutputs(t, parsedABI.aggregator, "description", "DAI / ETH"), nil
		}
		return nil, errors.New("unexpected method")
	})

	feed := NewPriceFeedClient(tx, testFeed)
	ctx := context.Background()

	rd, err := feed.LatestRoundData(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(400_000_000_000_000), rd.Answer.Int64())
	assert.Equal(t, int64(1_700_000_100), rd.UpdatedAt.Int64())

	price, err := feed.LatestPrice(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0.0004", price.String())

	desc, err := feed.Description(ctx)
	require.NoError(t, err)
	assert.Equal(t, "DAI / ETH", desc)
}

func TestPriceFeedClient_CallFailure(t *testing.T) {
	backend := newFakeBackend(int64(types.ChainLocalFork))
	tx, _ := newTestTransactor(t, backend)

	_, err := NewPriceFeedClient(tx, testFeed).LatestPrice(context.Background())
	assert.Error(t, err)
}
