package cmd

import (
	"fmt"

	"github.com/theirongolddev/deptfund/internal/cli"
	"github.com/theirongolddev/deptfund/internal/ledger"

	"github.com/spf13/cobra"
)

var allocateCmd = &cobra.Command{
	Use:   "allocate <department> <amount>",
	Short: "Allocate budget from the pool to a department (admin only)",
	Args:  cobra.ExactArgs(2),
	RunE:  runAllocate,
}

func init() {
	rootCmd.AddCommand(allocateCmd)
}

func runAllocate(_ *cobra.Command, args []string) error {
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

	if err := sys.led.Allocate(caller, dept, amount); err != nil {
		return err
	}
	if err := sys.save(); err != nil {
		return err
	}

	if !flagQuiet {
		fmt.Printf("  Allocated %s to %s\n", cli.FormatAmount(amount), dept)
		fmt.Printf("  Pool remaining: %s\n", cli.FormatAmount(sys.led.PoolBalance()))
	}
	return nil
}
