package client

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// WETHClient 包装 ETH 合约客户端
type WETHClient struct {
	tx      *Transactor
	address common.Address
}

// NewWETHClient 创建 WETH 客户端
func NewWETHClient(tx *Transactor, address common.Address) *WETHClient {
	return &WETHClient{tx: tx, address: address}
}

// Address 获取WETH合约地址
func (c *WETHClient) Address() common.Address {
	return c.address
}

// Wrap 调用 deposit() 并附带 amount wei 的 ETH，换取等量 WETH
func (c *WETHClient) Wrap(ctx context.Context, amount *big.Int) (*ethtypes.Receipt, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("包装数量必须大于0")
	}
	data, err := parsedABI.weth.Pack("deposit")
	if err != nil {
		return nil, fmt.Errorf("打包deposit参数失败: %w", err)
	}
	receipt, err := c.tx.Transact(ctx, c.address, amount, data)
	if err != nil {
		return nil, fmt.Errorf("WETH deposit失败: %w", err)
	}
	return receipt, nil
}

// BalanceOf 查询 WETH 余额
func (c *WETHClient) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return balanceOf(ctx, c.tx, c.address, account)
}
