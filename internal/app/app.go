// Package app wires configuration, logging, the signer and the chain clients shared by the binaries.
package app

import (
	"context"
	"fmt"

	"github.com/betbot/aavebot/chain/client"
	"github.com/betbot/aavebot/pkg/account"
	"github.com/betbot/aavebot/pkg/config"
	"github.com/betbot/aavebot/pkg/logger"
	"github.com/betbot/aavebot/pkg/secretstore"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "app")

// App 已连接节点并绑定签名账户的运行环境
type App struct {
	Config     *config.Config
	Account    *account.Account
	Contracts  *client.ContractConfig
	Transactor *client.Transactor

	eth *ethclient.Client
}

// Open 加载配置 -> 初始化日志 -> 加载签名账户 -> 连接节点
func Open(ctx context.Context, configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(LoggerConfig(cfg.Log)); err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	acct, err := LoadAccount(cfg.Wallet)
	if err != nil {
		return nil, err
	}

	contracts, err := client.GetContractConfig(cfg.Network.ChainID)
	if err != nil {
		return nil, err
	}

	eth, err := client.Dial(ctx, cfg.Network.RPCURL)
	if err != nil {
		return nil, err
	}
	tx, err := client.NewTransactor(ctx, eth, cfg.Network.ChainID, acct.PrivateKey,
		client.WithConfirmations(cfg.Network.Confirmations))
	if err != nil {
		eth.Close()
		return nil, err
	}

	log.Infof("已连接 %s (chain=%s) 账户=%s", cfg.Network.RPCURL, cfg.Network.ChainID, acct.Address.Hex())
	return &App{
		Config:     cfg,
		Account:    acct,
		Contracts:  contracts,
		Transactor: tx,
		eth:        eth,
	}, nil
}

// Close 断开节点连接并关闭日志文件
func (a *App) Close() {
	if a.eth != nil {
		a.eth.Close()
	}
	_ = logger.Close()
}

// LoggerConfig 转换日志配置
func LoggerConfig(c config.LogConfig) logger.Config {
	return logger.Config{
		Level:      c.Level,
		OutputFile: c.File,
		MaxSize:    c.MaxSize,
		MaxBackups: c.MaxBackups,
		MaxAge:     c.MaxAge,
		Compress:   c.Compress,
	}
}

// LoadAccount 按 私钥 > 助记词 > 密钥库 的顺序加载签名账户
func LoadAccount(w config.WalletConfig) (*account.Account, error) {
	key, err := secretstore.ParseKey(w.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("解析密钥库加密密钥失败: %w", err)
	}
	return account.Load(account.Source{
		PrivateKey:     w.PrivateKey,
		Mnemonic:       w.Mnemonic,
		DerivationPath: w.DerivationPath,
		SecretDB:       w.SecretDB,
		SecretKey:      key,
	})
}
