package client

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/betbot/aavebot/chain/types"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "chain_client")

var (
	// ErrTransactionReverted 交易已上链但执行失败（status=0）
	ErrTransactionReverted = errors.New("交易执行失败(reverted)")
	// ErrChainMismatch RPC 节点的链 ID 与配置不一致
	ErrChainMismatch = errors.New("RPC节点链ID与配置不一致")
)

// DefaultConfirmations 每笔交易等待的确认块数
const DefaultConfirmations uint64 = 1

// Backend 客户端所需的 RPC 能力（*ethclient.Client 满足该接口）
type Backend interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
	BlockNumber(ctx context.Context) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

var _ Backend = (*ethclient.Client)(nil)

// Dial 连接到以太坊节点
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	c, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("连接RPC节点失败: %w", err)
	}
	return c, nil
}

// Transactor 绑定签名账户的交易发送器
// 所有状态变更调用都在确认后才返回，调用方据此保证严格的先后顺序
type Transactor struct {
	backend       Backend
	privateKey    *ecdsa.PrivateKey
	from          common.Address
	chainID       *big.Int
	confirmations uint64
	pollInterval  time.Duration
}

// TransactorOption Transactor 可选参数
type TransactorOption func(*Transactor)

// WithConfirmations 设置确认块数（小于1时按1处理）
func WithConfirmations(n uint64) TransactorOption {
	return func(t *Transactor) {
		if n < 1 {
			n = 1
		}
		t.confirmations = n
	}
}

// WithPollInterval 设置等待额外确认块时的轮询间隔
func WithPollInterval(d time.Duration) TransactorOption {
	return func(t *Transactor) {
		if d > 0 {
			t.pollInterval = d
		}
	}
}

// NewTransactor 创建交易发送器，并校验节点链 ID
func NewTransactor(ctx context.Context, backend Backend, chainID types.Chain, privateKey *ecdsa.PrivateKey, opts ...TransactorOption) (*Transactor, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend不能为空")
	}
	if privateKey == nil {
		return nil, fmt.Errorf("私钥不能为空")
	}
	if err := loadABIs(); err != nil {
		return nil, err
	}

	remote, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取链ID失败: %w", err)
	}
	if remote.Int64() != int64(chainID) {
		return nil, fmt.Errorf("%w: 配置=%d 节点=%s", ErrChainMismatch, chainID, remote)
	}

	t := &Transactor{
		backend:       backend,
		privateKey:    privateKey,
		from:          crypto.PubkeyToAddress(privateKey.PublicKey),
		chainID:       big.NewInt(int64(chainID)),
		confirmations: DefaultConfirmations,
		pollInterval:  time.Second,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// From 返回签名账户地址
func (t *Transactor) From() common.Address {
	return t.from
}

// Call 只读调用（eth_call），不发送交易
func (t *Transactor) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	result, err := t.backend.CallContract(ctx, ethereum.CallMsg{
		From: t.from,
		To:   &to,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("调用合约失败(%s): %w", to.Hex(), err)
	}
	return result, nil
}

// Transact 签名并发送交易，等待确认后返回回执
func (t *Transactor) Transact(ctx context.Context, to common.Address, value *big.Int, data []byte) (*ethtypes.Receipt, error) {
	if value == nil {
		value = big.NewInt(0)
	}

	// 获取nonce
	nonce, err := t.backend.PendingNonceAt(ctx, t.from)
	if err != nil {
		return nil, fmt.Errorf("获取nonce失败: %w", err)
	}

	// 获取gas价格
	gasPrice, err := t.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取gas价格失败: %w", err)
	}

	// 估算gas（合约会 revert 的调用在这里就会失败）
	gasLimit, err := t.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:  t.from,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return nil, fmt.Errorf("估算gas失败: %w", err)
	}

	tx := ethtypes.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)

	// 签名交易
	signedTx, err := ethtypes.SignTx(tx, ethtypes.NewEIP155Signer(t.chainID), t.privateKey)
	if err != nil {
		return nil, fmt.Errorf("签名交易失败: %w", err)
	}

	if err := t.backend.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("发送交易失败: %w", err)
	}
	log.Debugf("交易已发送: hash=%s to=%s nonce=%d gas=%d", signedTx.Hash().Hex(), to.Hex(), nonce, gasLimit)

	return t.WaitForTransaction(ctx, signedTx)
}

// WaitForTransaction 等待交易上链并达到确认块数
// 没有超时：节点不出块时会一直阻塞，直到 ctx 被取消
func (t *Transactor) WaitForTransaction(ctx context.Context, tx *ethtypes.Transaction) (*ethtypes.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, t.backend, tx)
	if err != nil {
		return nil, fmt.Errorf("等待交易上链失败(%s): %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%w: hash=%s block=%s", ErrTransactionReverted, tx.Hash().Hex(), receipt.BlockNumber)
	}

	if t.confirmations > 1 && receipt.BlockNumber != nil {
		target := receipt.BlockNumber.Uint64() + t.confirmations - 1
		if err := t.waitForBlock(ctx, target); err != nil {
			return receipt, err
		}
	}
	return receipt, nil
}

func (t *Transactor) waitForBlock(ctx context.Context, target uint64) error {
	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()
	for {
		head, err := t.backend.BlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("获取区块高度失败: %w", err)
		}
		if head >= target {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
