package client

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// ERC20Client ERC20 授权与余额客户端
type ERC20Client struct {
	tx *Transactor
}

// NewERC20Client 创建 ERC20 客户端
func NewERC20Client(tx *Transactor) *ERC20Client {
	return &ERC20Client{tx: tx}
}

// Approve 授权 spender 从签名账户转走 amount 数量的 token
// 返回时授权交易已确认，后续依赖该授权的调用可以立即发送
func (c *ERC20Client) Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (*ethtypes.Receipt, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, fmt.Errorf("授权数量无效: %v", amount)
	}
	data, err := parsedABI.erc20.Pack("approve", spender, amount)
	if err != nil {
		return nil, fmt.Errorf("打包approve参数失败: %w", err)
	}
	receipt, err := c.tx.Transact(ctx, token, nil, data)
	if err != nil {
		return nil, fmt.Errorf("approve失败(token=%s spender=%s): %w", token.Hex(), spender.Hex(), err)
	}
	log.Infof("✅ 已授权: token=%s spender=%s amount=%s tx=%s", token.Hex(), spender.Hex(), amount, receipt.TxHash.Hex())
	return receipt, nil
}

// Allowance 查询 owner 授权给 spender 的额度
func (c *ERC20Client) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	data, err := parsedABI.erc20.Pack("allowance", owner, spender)
	if err != nil {
		return nil, fmt.Errorf("打包allowance参数失败: %w", err)
	}
	result, err := c.tx.Call(ctx, token, data)
	if err != nil {
		return nil, err
	}
	var allowance *big.Int
	if err := parsedABI.erc20.UnpackIntoInterface(&allowance, "allowance", result); err != nil {
		return nil, fmt.Errorf("解析allowance结果失败: %w", err)
	}
	return allowance, nil
}

// BalanceOf 查询 owner 的 token 余额（原始整数精度）
func (c *ERC20Client) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	return balanceOf(ctx, c.tx, token, owner)
}

func balanceOf(ctx context.Context, tx *Transactor, token, owner common.Address) (*big.Int, error) {
	data, err := parsedABI.erc20.Pack("balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("打包balanceOf参数失败: %w", err)
	}
	result, err := tx.Call(ctx, token, data)
	if err != nil {
		return nil, err
	}
	var balance *big.Int
	if err := parsedABI.erc20.UnpackIntoInterface(&balance, "balanceOf", result); err != nil {
		return nil, fmt.Errorf("解析balanceOf结果失败: %w", err)
	}
	return balance, nil
}
