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
	"github.com/joho/godotenv"
)

// 只执行包装步骤：把 0.02 ETH 包装成 WETH 并打印余额

func main() {
	var (
		configPath = flag.String("config", "", "optional YAML config file")
		envPath    = flag.String("env", ".env", "optional .env file")
		amount     = flag.String("amount", lendmath.FormatUnits(orchestrator.WrapAmount, 18), "ETH amount to wrap")
	)
	flag.Parse()
	_ = godotenv.Load(*envPath)

	if err := run(context.Background(), *configPath, *amount); err != nil {
		fatal(err)
	}
}

func run(ctx context.Context, configPath, amountStr string) error {
	amount, err := lendmath.ParseUnits(amountStr, 18)
	if err != nil {
		return err
	}

	a, err := app.Open(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	weth := client.NewWETHClient(a.Transactor, a.Contracts.WETH)
	receipt, err := weth.Wrap(ctx, amount)
	if err != nil {
		return err
	}
	balance, err := weth.BalanceOf(ctx, a.Account.Address)
	if err != nil {
		return err
	}
	fmt.Printf("✓ 已包装 %s ETH (tx %s)\n", amountStr, receipt.TxHash.Hex())
	fmt.Printf("Got %s WETH\n", lendmath.FormatUnits(balance, 18))
	return nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err.Error())
	os.Exit(1)
}
