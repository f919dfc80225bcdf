package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/betbot/aavebot/chain/client"
	"github.com/betbot/aavebot/internal/app"
	"github.com/betbot/aavebot/internal/orchestrator"
	"github.com/betbot/aavebot/pkg/lendmath"
	"github.com/betbot/aavebot/pkg/shutdown"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
)

// 存入 WETH 抵押 -> 按 95% 可借额度借出 DAI -> 归还本金
//
// 使用方法：
//   1. 启动本地主网分叉节点（默认 http://127.0.0.1:8545，chain id 31337）
//   2. 在 .env 或环境变量中配置 AAVEBOT_PRIVATE_KEY / AAVEBOT_MNEMONIC / AAVEBOT_SECRET_DB 之一
//   3. 运行：go run ./cmd/aave-borrow [-config config.yaml]

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 2)
	stepStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func main() {
	var (
		configPath = flag.String("config", "", "optional YAML config file")
		envPath    = flag.String("env", ".env", "optional .env file")
	)
	flag.Parse()

	// .env 不存在时直接使用环境变量
	_ = godotenv.Load(*envPath)

	sm := shutdown.NewManager()
	ctx, stop := sm.WatchSignals(context.Background())
	err := run(ctx, sm, *configPath)
	stop()
	sm.Shutdown(context.Background())
	if err != nil {
		fatal(err)
	}
}

func run(ctx context.Context, sm *shutdown.Manager, configPath string) error {
	fmt.Println(titleStyle.Render("Aave 抵押借款"))

	a, err := app.Open(ctx, configPath)
	if err != nil {
		return err
	}
	sm.OnShutdown(func(context.Context) { a.Close() })

	weth := client.NewWETHClient(a.Transactor, a.Contracts.WETH)
	tokens := client.NewERC20Client(a.Transactor)
	pool, err := client.NewLendingPoolClient(ctx, a.Transactor, a.Contracts.LendingPoolAddressesProvider)
	if err != nil {
		return err
	}
	feed := client.NewPriceFeedClient(a.Transactor, a.Contracts.PriceFeed)

	fmt.Printf("%s %s\n", labelStyle.Render("账户:      "), a.Account.Address.Hex())
	fmt.Printf("%s %s\n", labelStyle.Render("LendingPool:"), pool.Address().Hex())

	runner, err := orchestrator.NewRunner(weth, tokens, pool, feed, orchestrator.DefaultPlan(a.Account.Address, a.Contracts.BorrowAsset))
	if err != nil {
		return err
	}
	runner.OnStep(func(index, total int, step orchestrator.Step) {
		fmt.Println(stepStyle.Render(fmt.Sprintf("[%d/%d] %s", index, total, step)))
	})

	rep, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(successStyle.Render("✓ 完成"))
	fmt.Printf("%s %s\n", labelStyle.Render("run_id:"), rep.RunID)
	fmt.Printf("%s %s DAI\n", labelStyle.Render("借款:  "), lendmath.FormatUnits(rep.BorrowAmount, 18))
	fmt.Printf("%s %s ETH\n", labelStyle.Render("剩余债务:"), lendmath.FormatUnits(rep.AfterRepay.TotalDebtETH, 18))
	for _, tx := range rep.Txs {
		fmt.Printf("  %-20s %s\n", tx.Step, tx.Hash.Hex())
	}
	return nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err.Error())
	os.Exit(1)
}
