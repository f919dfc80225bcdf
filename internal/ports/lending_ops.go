package ports

import (
	"context"
	"math/big"

	"github.com/betbot/aavebot/chain/client"
	"github.com/betbot/aavebot/chain/types"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
)

// Small capability interfaces the orchestrator drives; chain/client implements them.
// Every state-changing method returns only after its transaction is confirmed.

type WrappedAsset interface {
	Address() common.Address
	Wrap(ctx context.Context, amount *big.Int) (*ethtypes.Receipt, error)
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)
}

type TokenApprover interface {
	Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (*ethtypes.Receipt, error)
}

type LendingPool interface {
	Address() common.Address
	Deposit(ctx context.Context, asset common.Address, amount *big.Int, onBehalfOf common.Address, referralCode uint16) (*ethtypes.Receipt, error)
	Borrow(ctx context.Context, asset common.Address, amount *big.Int, mode types.InterestRateMode, referralCode uint16, onBehalfOf common.Address) (*ethtypes.Receipt, error)
	Repay(ctx context.Context, asset common.Address, amount *big.Int, mode types.InterestRateMode, onBehalfOf common.Address) (*ethtypes.Receipt, error)
	// GetUserAccountData is read-only and never cached.
	GetUserAccountData(ctx context.Context, account common.Address) (*client.AccountPosition, error)
}

type PriceFeed interface {
	// LatestPrice returns the last reported price with no freshness check.
	LatestPrice(ctx context.Context) (decimal.Decimal, error)
}

var (
	_ WrappedAsset  = (*client.WETHClient)(nil)
	_ TokenApprover = (*client.ERC20Client)(nil)
	_ LendingPool   = (*client.LendingPoolClient)(nil)
	_ PriceFeed     = (*client.PriceFeedClient)(nil)
)
