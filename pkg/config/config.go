package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/betbot/aavebot/chain/types"
	"gopkg.in/yaml.v3"
)

// 默认值（本地主网分叉）
const (
	DefaultRPCURL        = "http://127.0.0.1:8545"
	DefaultChainID       = types.ChainLocalFork
	DefaultConfirmations = 1
	DefaultLogLevel      = "info"
)

// 环境变量（优先级高于配置文件）
const (
	EnvRPCURL         = "AAVEBOT_RPC_URL"
	EnvChainID        = "AAVEBOT_CHAIN_ID"
	EnvConfirmations  = "AAVEBOT_CONFIRMATIONS"
	EnvPrivateKey     = "AAVEBOT_PRIVATE_KEY"
	EnvMnemonic       = "AAVEBOT_MNEMONIC"
	EnvDerivationPath = "AAVEBOT_DERIVATION_PATH"
	EnvSecretDB       = "AAVEBOT_SECRET_DB"
	EnvSecretKey      = "AAVEBOT_SECRET_KEY"
	EnvLogLevel       = "AAVEBOT_LOG_LEVEL"
	EnvLogFile        = "AAVEBOT_LOG_FILE"
)

// NetworkConfig 网络配置
type NetworkConfig struct {
	RPCURL        string
	ChainID       types.Chain
	Confirmations uint64 // 每笔交易等待的确认块数
}

// WalletConfig 钱包配置（签名账户来源，按 私钥 > 助记词 > 密钥库 的顺序选择）
type WalletConfig struct {
	PrivateKey     string
	Mnemonic       string
	DerivationPath string
	SecretDB       string // badger 密钥库路径
	SecretKey      string // badger 加密密钥（32字节，hex 或 base64）
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string
	File       string // 为空则只输出到控制台
	MaxSize    int    // MB
	MaxBackups int
	MaxAge     int // 天
	Compress   bool
}

// Config 应用配置
// 合约地址、金额、借款系数、利率模式、推荐码都是代码中的命名常量，不在配置范围内
type Config struct {
	Network NetworkConfig
	Wallet  WalletConfig
	Log     LogConfig
}

// ConfigFile 配置文件结构（用于 YAML 解析）
type ConfigFile struct {
	Network struct {
		RPCURL        string `yaml:"rpc_url"`
		ChainID       int64  `yaml:"chain_id"`
		Confirmations uint64 `yaml:"confirmations"`
	} `yaml:"network"`
	Wallet struct {
		PrivateKey     string `yaml:"private_key"`
		Mnemonic       string `yaml:"mnemonic"`
		DerivationPath string `yaml:"derivation_path"`
		SecretDB       string `yaml:"secret_db"`
		SecretKey      string `yaml:"secret_key"`
	} `yaml:"wallet"`
	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSize    int    `yaml:"max_size"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAge     int    `yaml:"max_age"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"log"`
}

// Load 加载配置：默认值 -> 配置文件（可选）-> 环境变量
func Load(filePath string) (*Config, error) {
	cfg := defaults()

	if strings.TrimSpace(filePath) != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		var cf ConfigFile
		if err := yaml.Unmarshal(data, &cf); err != nil {
			return nil, fmt.Errorf("解析配置文件失败: %w", err)
		}
		cfg.merge(&cf)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Network: NetworkConfig{
			RPCURL:        DefaultRPCURL,
			ChainID:       DefaultChainID,
			Confirmations: DefaultConfirmations,
		},
		Log: LogConfig{
			Level:      DefaultLogLevel,
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
		},
	}
}

func (c *Config) merge(cf *ConfigFile) {
	setString(&c.Network.RPCURL, cf.Network.RPCURL)
	if cf.Network.ChainID != 0 {
		c.Network.ChainID = types.Chain(cf.Network.ChainID)
	}
	if cf.Network.Confirmations != 0 {
		c.Network.Confirmations = cf.Network.Confirmations
	}

	setString(&c.Wallet.PrivateKey, cf.Wallet.PrivateKey)
	setString(&c.Wallet.Mnemonic, cf.Wallet.Mnemonic)
	setString(&c.Wallet.DerivationPath, cf.Wallet.DerivationPath)
	setString(&c.Wallet.SecretDB, cf.Wallet.SecretDB)
	setString(&c.Wallet.SecretKey, cf.Wallet.SecretKey)

	setString(&c.Log.Level, cf.Log.Level)
	setString(&c.Log.File, cf.Log.File)
	if cf.Log.MaxSize > 0 {
		c.Log.MaxSize = cf.Log.MaxSize
	}
	if cf.Log.MaxBackups > 0 {
		c.Log.MaxBackups = cf.Log.MaxBackups
	}
	if cf.Log.MaxAge > 0 {
		c.Log.MaxAge = cf.Log.MaxAge
	}
	c.Log.Compress = cf.Log.Compress
}

func (c *Config) applyEnv() error {
	setString(&c.Network.RPCURL, os.Getenv(EnvRPCURL))
	if v := strings.TrimSpace(os.Getenv(EnvChainID)); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("无效的链ID %s=%q: %w", EnvChainID, v, err)
		}
		c.Network.ChainID = types.Chain(id)
	}
	if v := strings.TrimSpace(os.Getenv(EnvConfirmations)); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("无效的确认块数 %s=%q: %w", EnvConfirmations, v, err)
		}
		c.Network.Confirmations = n
	}

	setString(&c.Wallet.PrivateKey, os.Getenv(EnvPrivateKey))
	setString(&c.Wallet.Mnemonic, os.Getenv(EnvMnemonic))
	setString(&c.Wallet.DerivationPath, os.Getenv(EnvDerivationPath))
	setString(&c.Wallet.SecretDB, os.Getenv(EnvSecretDB))
	setString(&c.Wallet.SecretKey, os.Getenv(EnvSecretKey))

	setString(&c.Log.Level, os.Getenv(EnvLogLevel))
	setString(&c.Log.File, os.Getenv(EnvLogFile))
	return nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Network.RPCURL) == "" {
		return fmt.Errorf("network.rpc_url 不能为空")
	}
	if c.Network.ChainID <= 0 {
		return fmt.Errorf("network.chain_id 无效: %d", c.Network.ChainID)
	}
	if c.Network.Confirmations < 1 {
		return fmt.Errorf("network.confirmations 必须 >= 1")
	}
	w := c.Wallet
	if w.PrivateKey == "" && w.Mnemonic == "" && w.SecretDB == "" {
		return fmt.Errorf("未配置签名账户: 需要 wallet.private_key、wallet.mnemonic 或 wallet.secret_db 之一（或环境变量 %s / %s / %s）",
			EnvPrivateKey, EnvMnemonic, EnvSecretDB)
	}
	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
