package client

import (
	"fmt"

	"github.com/betbot/aavebot/chain/types"
	"github.com/ethereum/go-ethereum/common"
)

// ContractConfig 外部合约地址配置
type ContractConfig struct {
	WETH                         common.Address // 包装 ETH 合约
	LendingPoolAddressesProvider common.Address // Aave v2 LendingPoolAddressesProvider
	BorrowAsset                  common.Address // 借出的资产（DAI）
	PriceFeed                    common.Address // 借出资产/抵押资产 价格预言机（Chainlink DAI/ETH）
}

// MainnetContracts 以太坊主网合约地址
var MainnetContracts = ContractConfig{
	WETH:                         common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
	LendingPoolAddressesProvider: common.HexToAddress("0xB53C1a33016B2DC2fF3653530bfF1848a515c8c5"),
	BorrowAsset:                  common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), // DAI
	PriceFeed:                    common.HexToAddress("0x773616E4d11A78F511299002da57A0a94577F1f4"), // DAI/ETH
}

// GetContractConfig 根据链 ID 获取合约配置
// 本地分叉复用主网地址
func GetContractConfig(chainID types.Chain) (*ContractConfig, error) {
	switch chainID {
	case types.ChainMainnet, types.ChainLocalFork:
		cfg := MainnetContracts
		return &cfg, nil
	default:
		return nil, fmt.Errorf("不支持的链 ID: %d", chainID)
	}
}
