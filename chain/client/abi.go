package client

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// WETHABI 包装 ETH 合约 ABI（IWeth）
const WETHABI = `[
	{
		"inputs": [],
		"name": "deposit",
		"outputs": [],
		"stateMutability": "payable",
		"type": "function"
	},
	{
		"inputs": [{"name": "wad", "type": "uint256"}],
		"name": "withdraw",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"name": "account", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "guy", "type": "address"},
			{"name": "wad", "type": "uint256"}
		],
		"name": "approve",
		"outputs": [{"name": "", "type": "bool"}],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// ERC20ABI ERC20 标准 ABI（授权与余额）
const ERC20ABI = `[
	{
		"inputs": [
			{"name": "spender", "type": "address"},
			{"name": "amount", "type": "uint256"}
		],
		"name": "approve",
		"outputs": [{"name": "", "type": "bool"}],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "owner", "type": "address"},
			{"name": "spender", "type": "address"}
		],
		"name": "allowance",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"name": "account", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

// AddressesProviderABI Aave v2 ILendingPoolAddressesProvider ABI
const AddressesProviderABI = `[
	{
		"inputs": [],
		"name": "getLendingPool",
		"outputs": [{"name": "", "type": "address"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

// LendingPoolABI Aave v2 ILendingPool ABI
const LendingPoolABI = `[
	{
		"inputs": [
			{"name": "asset", "type": "address"},
			{"name": "amount", "type": "uint256"},
			{"name": "onBehalfOf", "type": "address"},
			{"name": "referralCode", "type": "uint16"}
		],
		"name": "deposit",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "asset", "type": "address"},
			{"name": "amount", "type": "uint256"},
			{"name": "interestRateMode", "type": "uint256"},
			{"name": "referralCode", "type": "uint16"},
			{"name": "onBehalfOf", "type": "address"}
		],
		"name": "borrow",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "asset", "type": "address"},
			{"name": "amount", "type": "uint256"},
			{"name": "rateMode", "type": "uint256"},
			{"name": "onBehalfOf", "type": "address"}
		],
		"name": "repay",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"name": "user", "type": "address"}],
		"name": "getUserAccountData",
		"outputs": [
			{"name": "totalCollateralETH", "type": "uint256"},
			{"name": "totalDebtETH", "type": "uint256"},
			{"name": "availableBorrowsETH", "type": "uint256"},
			{"name": "currentLiquidationThreshold", "type": "uint256"},
			{"name": "ltv", "type": "uint256"},
			{"name": "healthFactor", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`

// AggregatorV3ABI Chainlink AggregatorV3Interface ABI
const AggregatorV3ABI = `[
	{
		"inputs": [],
		"name": "latestRoundData",
		"outputs": [
			{"name": "roundId", "type": "uint80"},
			{"name": "answer", "type": "int256"},
			{"name": "startedAt", "type": "uint256"},
			{"name": "updatedAt", "type": "uint256"},
			{"name": "answeredInRound", "type": "uint80"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "decimals",
		"outputs": [{"name": "", "type": "uint8"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "description",
		"outputs": [{"name": "", "type": "string"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

var (
	abiOnce   sync.Once
	abiErr    error
	parsedABI struct {
		weth, erc20, provider, pool, aggregator abi.ABI
	}
)

// loadABIs 解析全部 ABI（只解析一次）
func loadABIs() error {
	abiOnce.Do(func() {
		for _, item := range []struct {
			dst  *abi.ABI
			name string
			src  string
		}{
			{&parsedABI.weth, "WETH", WETHABI},
			{&parsedABI.erc20, "ERC20", ERC20ABI},
			{&parsedABI.provider, "AddressesProvider", AddressesProviderABI},
			{&parsedABI.pool, "LendingPool", LendingPoolABI},
			{&parsedABI.aggregator, "AggregatorV3", AggregatorV3ABI},
		} {
			parsed, err := abi.JSON(strings.NewReader(item.src))
			if err != nil {
				abiErr = fmt.Errorf("解析%s ABI失败: %w", item.name, err)
				return
			}
			*item.dst = parsed
		}
	})
	return abiErr
}
