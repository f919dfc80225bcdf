package client

import (
	"context"
	"fmt"
	"math/big"

	"github.com/betbot/aavebot/pkg/lendmath"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// RoundData latestRoundData() 返回值
type RoundData struct {
	RoundID         *big.Int
	Answer          *big.Int
	StartedAt       *big.Int
	UpdatedAt       *big.Int
	AnsweredInRound *big.Int
}

// PriceFeedClient Chainlink 价格预言机客户端（只读，不需要签名）
// 不做新鲜度/心跳检查
type PriceFeedClient struct {
	tx      *Transactor
	address common.Address
}

// NewPriceFeedClient 创建价格预言机客户端
func NewPriceFeedClient(tx *Transactor, address common.Address) *PriceFeedClient {
	return &PriceFeedClient{tx: tx, address: address}
}

// Address 获取预言机合约地址
func (c *PriceFeedClient) Address() common.Address {
	return c.address
}

// LatestRoundData 读取最新一轮报价
func (c *PriceFeedClient) LatestRoundData(ctx context.Context) (*RoundData, error) {
	out, err := c.call(ctx, "latestRoundData")
	if err != nil {
		return nil, err
	}
	if len(out) != 5 {
		return nil, fmt.Errorf("latestRoundData返回值数量异常: %d", len(out))
	}
	rd := &RoundData{}
	for i, dst := range []**big.Int{&rd.RoundID, &rd.Answer, &rd.StartedAt, &rd.UpdatedAt, &rd.AnsweredInRound} {
		v, ok := out[i].(*big.Int)
		if !ok {
			return nil, fmt.Errorf("latestRoundData第%d个返回值类型异常: %T", i, out[i])
		}
		*dst = v
	}
	return rd, nil
}

// Decimals 读取报价精度
func (c *PriceFeedClient) Decimals(ctx context.Context) (uint8, error) {
	out, err := c.call(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	d, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals返回值类型异常: %T", out[0])
	}
	return d, nil
}

// Description 读取报价对描述，例如 "DAI / ETH"
func (c *PriceFeedClient) Description(ctx context.Context) (string, error) {
	out, err := c.call(ctx, "description")
	if err != nil {
		return "", err
	}
	s, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("description返回值类型异常: %T", out[0])
	}
	return s, nil
}

// LatestPrice 读取最新报价并按精度换算为小数
func (c *PriceFeedClient) LatestPrice(ctx context.Context) (decimal.Decimal, error) {
	rd, err := c.LatestRoundData(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	decimals, err := c.Decimals(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return lendmath.ScaleAnswer(rd.Answer, int32(decimals)), nil
}

func (c *PriceFeedClient) call(ctx context.Context, method string) ([]interface{}, error) {
	data, err := parsedABI.aggregator.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("打包%s参数失败: %w", method, err)
	}
	result, err := c.tx.Call(ctx, c.address, data)
	if err != nil {
		return nil, err
	}
	out, err := parsedABI.aggregator.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("解析%s结果失败: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s无返回值", method)
	}
	return out, nil
}
