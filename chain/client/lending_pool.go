package client

import (
	"context"
	"fmt"
	"math/big"

	"github.com/betbot/aavebot/chain/types"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// AccountPosition getUserAccountData 返回的账户快照（ETH 计价，18位精度）
// 只读快照，不做缓存，每次需要时重新读取
type AccountPosition struct {
	TotalCollateralETH          *big.Int
	TotalDebtETH                *big.Int
	AvailableBorrowsETH         *big.Int
	CurrentLiquidationThreshold *big.Int // 基点，8000 = 80%
	Ltv                         *big.Int // 基点
	HealthFactor                *big.Int // 18位精度，1e18 = 1.0
}

// LendingPoolClient Aave v2 LendingPool 客户端
type LendingPoolClient struct {
	tx      *Transactor
	address common.Address
}

// ResolvePoolAddress 通过 AddressesProvider 读取当前 LendingPool 地址（每次调用都重新读取）
func ResolvePoolAddress(ctx context.Context, tx *Transactor, addressesProvider common.Address) (common.Address, error) {
	data, err := parsedABI.provider.Pack("getLendingPool")
	if err != nil {
		return common.Address{}, fmt.Errorf("打包getLendingPool参数失败: %w", err)
	}
	result, err := tx.Call(ctx, addressesProvider, data)
	if err != nil {
		return common.Address{}, err
	}
	var pool common.Address
	if err := parsedABI.provider.UnpackIntoInterface(&pool, "getLendingPool", result); err != nil {
		return common.Address{}, fmt.Errorf("解析getLendingPool结果失败: %w", err)
	}
	if pool == (common.Address{}) {
		return common.Address{}, fmt.Errorf("AddressesProvider %s 返回零地址", addressesProvider.Hex())
	}
	return pool, nil
}

// NewLendingPoolClient 解析 LendingPool 地址并创建客户端
func NewLendingPoolClient(ctx context.Context, tx *Transactor, addressesProvider common.Address) (*LendingPoolClient, error) {
	pool, err := ResolvePoolAddress(ctx, tx, addressesProvider)
	if err != nil {
		return nil, fmt.Errorf("获取LendingPool地址失败: %w", err)
	}
	return &LendingPoolClient{tx: tx, address: pool}, nil
}

// Address 获取LendingPool合约地址
func (c *LendingPoolClient) Address() common.Address {
	return c.address
}

// Deposit 存入抵押品（合约内部 safeTransferFrom，调用前必须已授权）
func (c *LendingPoolClient) Deposit(ctx context.Context, asset common.Address, amount *big.Int, onBehalfOf common.Address, referralCode uint16) (*ethtypes.Receipt, error) {
	data, err := parsedABI.pool.Pack("deposit", asset, amount, onBehalfOf, referralCode)
	if err != nil {
		return nil, fmt.Errorf("打包deposit参数失败: %w", err)
	}
	receipt, err := c.tx.Transact(ctx, c.address, nil, data)
	if err != nil {
		return nil, fmt.Errorf("LendingPool deposit失败: %w", err)
	}
	return receipt, nil
}

// Borrow 按指定利率模式借出资产
func (c *LendingPoolClient) Borrow(ctx context.Context, asset common.Address, amount *big.Int, mode types.InterestRateMode, referralCode uint16, onBehalfOf common.Address) (*ethtypes.Receipt, error) {
	data, err := parsedABI.pool.Pack("borrow", asset, amount, big.NewInt(int64(mode)), referralCode, onBehalfOf)
	if err != nil {
		return nil, fmt.Errorf("打包borrow参数失败: %w", err)
	}
	receipt, err := c.tx.Transact(ctx, c.address, nil, data)
	if err != nil {
		return nil, fmt.Errorf("LendingPool borrow失败: %w", err)
	}
	return receipt, nil
}

// Repay 归还借款（调用前必须已授权）
func (c *LendingPoolClient) Repay(ctx context.Context, asset common.Address, amount *big.Int, mode types.InterestRateMode, onBehalfOf common.Address) (*ethtypes.Receipt, error) {
	data, err := parsedABI.pool.Pack("repay", asset, amount, big.NewInt(int64(mode)), onBehalfOf)
	if err != nil {
		return nil, fmt.Errorf("打包repay参数失败: %w", err)
	}
	receipt, err := c.tx.Transact(ctx, c.address, nil, data)
	if err != nil {
		return nil, fmt.Errorf("LendingPool repay失败: %w", err)
	}
	return receipt, nil
}

// GetUserAccountData 读取账户的抵押、债务和可借额度
func (c *LendingPoolClient) GetUserAccountData(ctx context.Context, account common.Address) (*AccountPosition, error) {
	data, err := parsedABI.pool.Pack("getUserAccountData", account)
	if err != nil {
		return nil, fmt.Errorf("打包getUserAccountData参数失败: %w", err)
	}
	result, err := c.tx.Call(ctx, c.address, data)
	if err != nil {
		return nil, err
	}
	var pos AccountPosition
	if err := parsedABI.pool.UnpackIntoInterface(&pos, "getUserAccountData", result); err != nil {
		return nil, fmt.Errorf("解析getUserAccountData结果失败: %w", err)
	}
	return &pos, nil
}
