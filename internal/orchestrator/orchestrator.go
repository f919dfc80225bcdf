// Package orchestrator runs the wrap → deposit → borrow → repay sequence against the
// external lending protocol. Steps run strictly one after another; every state-changing
// step returns only once its transaction is confirmed, so each step sees the committed
// effect of the previous one.
package orchestrator

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/betbot/aavebot/chain/client"
	"github.com/betbot/aavebot/chain/types"
	"github.com/betbot/aavebot/internal/ports"
	"github.com/betbot/aavebot/pkg/lendmath"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "orchestrator")

const (
	// BorrowRateMode 借款一律使用浮动利率
	BorrowRateMode = types.InterestRateModeVariable
	// ReferralCode 不使用推荐码
	ReferralCode = types.ReferralCodeNone
)

// WrapAmount 包装并存入的 ETH 数量：0.02 ETH
var WrapAmount = big.NewInt(20_000_000_000_000_000)

// ErrNothingToBorrow 可借额度换算后为0
var ErrNothingToBorrow = errors.New("computed borrow amount is zero")

// Step 流水线步骤名
type Step string

const (
	StepWrap               Step = "wrap"
	StepApproveCollateral  Step = "approve_collateral"
	StepDeposit            Step = "deposit"
	StepReadPosition       Step = "read_position"
	StepReadPrice          Step = "read_price"
	StepSizeBorrow         Step = "size_borrow"
	StepApproveBorrow      Step = "approve_borrow"
	StepBorrow             Step = "borrow"
	StepReadPositionBorrow Step = "read_position_after_borrow"
	StepApproveRepay       Step = "approve_repay"
	StepRepay              Step = "repay"
	StepReadPositionRepay  Step = "read_position_after_repay"
)

// StepError 某一步失败，整个流程终止（不回滚）
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Plan 一次运行的固定参数
type Plan struct {
	Account        common.Address // 签名账户，同时作为 onBehalfOf
	BorrowAsset    common.Address
	WrapAmount     *big.Int
	BaseDecimals   int32 // getUserAccountData 计价单位精度
	BorrowDecimals int32
}

// DefaultPlan 默认参数：0.02 ETH，18位精度
func DefaultPlan(account, borrowAsset common.Address) Plan {
	return Plan{
		Account:        account,
		BorrowAsset:    borrowAsset,
		WrapAmount:     new(big.Int).Set(WrapAmount),
		BaseDecimals:   types.TokenDecimals,
		BorrowDecimals: types.TokenDecimals,
	}
}

// TxRecord 已确认交易
type TxRecord struct {
	Step Step
	Hash common.Hash
}

// Report 运行结果
type Report struct {
	RunID        string
	WETHBalance  *big.Int
	Price        decimal.Decimal
	BorrowAmount *big.Int
	AfterDeposit *client.AccountPosition
	AfterBorrow  *client.AccountPosition
	AfterRepay   *client.AccountPosition
	Txs          []TxRecord
	Duration     time.Duration
}

// StepHook 每一步开始前回调（用于命令行展示）
type StepHook func(index, total int, step Step)

// Runner 按固定顺序执行流程
type Runner struct {
	weth   ports.WrappedAsset
	tokens ports.TokenApprover
	pool   ports.LendingPool
	feed   ports.PriceFeed
	plan   Plan
	hook   StepHook
}

// NewRunner 创建流程执行器
func NewRunner(weth ports.WrappedAsset, tokens ports.TokenApprover, pool ports.LendingPool, feed ports.PriceFeed, plan Plan) (*Runner, error) {
	if weth == nil || tokens == nil || pool == nil || feed == nil {
		return nil, errors.New("orchestrator: all collaborators are required")
	}
	if plan.WrapAmount == nil || plan.WrapAmount.Sign() <= 0 {
		return nil, errors.New("orchestrator: wrap amount must be positive")
	}
	if plan.Account == (common.Address{}) {
		return nil, errors.New("orchestrator: account is required")
	}
	return &Runner{weth: weth, tokens: tokens, pool: pool, feed: feed, plan: plan}, nil
}

// OnStep 设置步骤回调
func (r *Runner) OnStep(hook StepHook) {
	r.hook = hook
}

type stage struct {
	step Step
	run  func(ctx context.Context, rep *Report) error
}

func (r *Runner) pipeline() []stage {
	return []stage{
		{StepWrap, r.wrap},
		{StepApproveCollateral, r.approveCollateral},
		{StepDeposit, r.deposit},
		{StepReadPosition, r.readPosition(func(rep *Report, p *client.AccountPosition) { rep.AfterDeposit = p })},
		{StepReadPrice, r.readPrice},
		{StepSizeBorrow, r.sizeBorrow},
		{StepApproveBorrow, r.approveBorrowAsset(StepApproveBorrow)},
		{StepBorrow, r.borrow},
		{StepReadPositionBorrow, r.readPosition(func(rep *Report, p *client.AccountPosition) { rep.AfterBorrow = p })},
		{StepApproveRepay, r.approveBorrowAsset(StepApproveRepay)},
		{StepRepay, r.repay},
		{StepReadPositionRepay, r.readPosition(func(rep *Report, p *client.AccountPosition) { rep.AfterRepay = p })},
	}
}

// Steps 返回流水线步骤顺序
func (r *Runner) Steps() []Step {
	stages := r.pipeline()
	out := make([]Step, len(stages))
	for i, s := range stages {
		out[i] = s.step
	}
	return out
}

// Run 依次执行所有步骤；任何一步失败立即返回 *StepError，已完成的链上操作不会回滚
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	rep := &Report{RunID: uuid.NewString()}
	started := time.Now()
	runLog := log.WithField("run_id", rep.RunID)

	stages := r.pipeline()
	for i, s := range stages {
		if r.hook != nil {
			r.hook(i+1, len(stages), s.step)
		}
		runLog.WithField("step", s.step).Debugf("开始执行 (%d/%d)", i+1, len(stages))
		if err := s.run(ctx, rep); err != nil {
			runLog.WithField("step", s.step).Errorf("❌ 执行失败: %v", err)
			rep.Duration = time.Since(started)
			return rep, &StepError{Step: s.step, Err: err}
		}
	}

	rep.Duration = time.Since(started)
	if rep.AfterRepay != nil && rep.AfterRepay.TotalDebtETH != nil && rep.AfterRepay.TotalDebtETH.Sign() > 0 {
		// 只归还了本金，借款期间产生的利息仍是债务
		runLog.Warnf("⚠️ 归还本金后仍有剩余债务: %s ETH（借款期间累计的利息未归还）",
			lendmath.FormatUnits(rep.AfterRepay.TotalDebtETH, r.plan.BaseDecimals))
	}
	runLog.Infof("✅ 流程完成: 借款=%s 耗时=%s 交易数=%d",
		lendmath.FormatUnits(rep.BorrowAmount, r.plan.BorrowDecimals), rep.Duration.Round(time.Millisecond), len(rep.Txs))
	return rep, nil
}

func (r *Runner) record(rep *Report, step Step, receipt *ethtypes.Receipt) {
	if receipt != nil {
		rep.Txs = append(rep.Txs, TxRecord{Step: step, Hash: receipt.TxHash})
	}
}

func (r *Runner) wrap(ctx context.Context, rep *Report) error {
	receipt, err := r.weth.Wrap(ctx, r.plan.WrapAmount)
	if err != nil {
		return err
	}
	r.record(rep, StepWrap, receipt)

	balance, err := r.weth.BalanceOf(ctx, r.plan.Account)
	if err != nil {
		return errors.Wrap(err, "read WETH balance")
	}
	rep.WETHBalance = balance
	log.Infof("WETH余额: %s", lendmath.FormatUnits(balance, r.plan.BaseDecimals))
	return nil
}

// approveCollateral 授权 LendingPool 拉取刚包装的 WETH
func (r *Runner) approveCollateral(ctx context.Context, rep *Report) error {
	receipt, err := r.tokens.Approve(ctx, r.weth.Address(), r.pool.Address(), r.plan.WrapAmount)
	if err != nil {
		return err
	}
	r.record(rep, StepApproveCollateral, receipt)
	return nil
}

func (r *Runner) deposit(ctx context.Context, rep *Report) error {
	log.Infof("存入抵押品: %s WETH", lendmath.FormatUnits(r.plan.WrapAmount, r.plan.BaseDecimals))
	receipt, err := r.pool.Deposit(ctx, r.weth.Address(), r.plan.WrapAmount, r.plan.Account, ReferralCode)
	if err != nil {
		return err
	}
	r.record(rep, StepDeposit, receipt)
	log.Infof("✅ 已存入")
	return nil
}

func (r *Runner) readPosition(store func(*Report, *client.AccountPosition)) func(context.Context, *Report) error {
	return func(ctx context.Context, rep *Report) error {
		pos, err := r.pool.GetUserAccountData(ctx, r.plan.Account)
		if err != nil {
			return errors.Wrapf(err, "read account position of %s", r.plan.Account.Hex())
		}
		store(rep, pos)
		log.Infof("抵押总额: %s ETH | 债务总额: %s ETH | 可借额度: %s ETH",
			lendmath.FormatUnits(pos.TotalCollateralETH, r.plan.BaseDecimals),
			lendmath.FormatUnits(pos.TotalDebtETH, r.plan.BaseDecimals),
			lendmath.FormatUnits(pos.AvailableBorrowsETH, r.plan.BaseDecimals))
		return nil
	}
}

func (r *Runner) readPrice(ctx context.Context, rep *Report) error {
	price, err := r.feed.LatestPrice(ctx)
	if err != nil {
		return errors.Wrap(err, "read price feed")
	}
	rep.Price = price
	log.Infof("借款资产价格: %s ETH", price.String())
	return nil
}

// sizeBorrow 按可借额度的 95% 换算借款数量
func (r *Runner) sizeBorrow(_ context.Context, rep *Report) error {
	if rep.AfterDeposit == nil {
		return errors.New("account position not read")
	}
	amount, err := lendmath.BorrowAmount(rep.AfterDeposit.AvailableBorrowsETH, rep.Price, r.plan.BaseDecimals, r.plan.BorrowDecimals)
	if err != nil {
		return err
	}
	if amount.Sign() == 0 {
		return ErrNothingToBorrow
	}
	rep.BorrowAmount = amount
	log.Infof("可借: %s", lendmath.FormatUnits(amount, r.plan.BorrowDecimals))
	return nil
}

func (r *Runner) approveBorrowAsset(step Step) func(context.Context, *Report) error {
	return func(ctx context.Context, rep *Report) error {
		receipt, err := r.tokens.Approve(ctx, r.plan.BorrowAsset, r.pool.Address(), rep.BorrowAmount)
		if err != nil {
			return err
		}
		r.record(rep, step, receipt)
		return nil
	}
}

func (r *Runner) borrow(ctx context.Context, rep *Report) error {
	receipt, err := r.pool.Borrow(ctx, r.plan.BorrowAsset, rep.BorrowAmount, BorrowRateMode, ReferralCode, r.plan.Account)
	if err != nil {
		return err
	}
	r.record(rep, StepBorrow, receipt)
	log.Infof("✅ 已借出: %s", lendmath.FormatUnits(rep.BorrowAmount, r.plan.BorrowDecimals))
	return nil
}

// repay 归还与借出相同的本金；不包含利息
func (r *Runner) repay(ctx context.Context, rep *Report) error {
	receipt, err := r.pool.Repay(ctx, r.plan.BorrowAsset, rep.BorrowAmount, BorrowRateMode, r.plan.Account)
	if err != nil {
		return err
	}
	r.record(rep, StepRepay, receipt)
	log.Infof("✅ 已归还: %s", lendmath.FormatUnits(rep.BorrowAmount, r.plan.BorrowDecimals))
	return nil
}
