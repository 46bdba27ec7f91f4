package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/theirongolddev/deptfund/internal/cli"
	"github.com/theirongolddev/deptfund/internal/ledger"

	"github.com/spf13/cobra"
)

var releaseCmd = &cobra.Command{
	Use:   "release <department> <amount>",
	Short: "Release requested funds to a department as a real transfer (admin only)",
	Args:  cobra.ExactArgs(2),
	RunE:  runRelease,
}

func init() {
	rootCmd.AddCommand(releaseCmd)
}

func runRelease(_ *cobra.Command, args []string) error {
	caller, err := callerIdentity()
	if err != nil {
		return err
	}

	dept := ledger.Identity(args[0])
	amount, err := cli.ParseAmount(args[1])
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}

	sys, err := openSystem()
	if err != nil {
		return err
	}
	defer sys.close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sys.led.Release(ctx, caller, dept, amount); err != nil {
		return err
	}
	if err := sys.save(); err != nil {
		return err
	}

	if !flagQuiet {
		fmt.Printf("  Released %s to %s\n", cli.FormatAmount(amount), dept)
		fmt.Printf("  %s spent to date: %s\n", dept, cli.FormatAmount(sys.led.SpentFunds(dept)))
		fmt.Printf("  %s treasury balance: %s\n", dept, cli.FormatAmount(sys.tre.BalanceOf(dept)))
	}
	return nil
}
