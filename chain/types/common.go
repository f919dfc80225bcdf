package types

import "fmt"

// Chain 区块链网络
type Chain int

const (
	ChainMainnet   Chain = 1
	ChainLocalFork Chain = 31337 // 本地主网分叉（hardhat/anvil 默认链ID）
)

// String 返回链名称
func (c Chain) String() string {
	switch c {
	case ChainMainnet:
		return "mainnet"
	case ChainLocalFork:
		return "local-fork"
	default:
		return fmt.Sprintf("chain-%d", int(c))
	}
}

// InterestRateMode 借款利率模式（Aave 协议定义的枚举值）
type InterestRateMode int64

const (
	InterestRateModeStable   InterestRateMode = 1 // 稳定利率
	InterestRateModeVariable InterestRateMode = 2 // 浮动利率
)

func (m InterestRateMode) String() string {
	switch m {
	case InterestRateModeStable:
		return "stable"
	case InterestRateModeVariable:
		return "variable"
	default:
		return fmt.Sprintf("mode-%d", int64(m))
	}
}

// ReferralCodeNone 不使用推荐码
const ReferralCodeNone uint16 = 0

// TokenDecimals WETH、DAI 以及 Aave v2 ETH 计价基础单位的精度
const TokenDecimals = 18
