package cmd

import (
	"fmt"

	"github.com/theirongolddev/deptfund/internal/cli"

	"github.com/spf13/cobra"
)

var requestCmd = &cobra.Command{
	Use:   "request <amount>",
	Short: "Request funds against your department's allocation",
	Long:  "Request funds. The caller must be a department with enough unspent, unrequested allocation.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRequest,
}

func init() {
	rootCmd.AddCommand(requestCmd)
}

func runRequest(_ *cobra.Command, args []string) error {
	caller, err := callerIdentity()
	if err != nil {
		return err
	}

	amount, err := cli.ParseAmount(args[0])
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}

	sys, err := openSystem()
	if err != nil {
		return err
	}
	defer sys.close()

	if err := sys.led.Request(caller, amount); err != nil {
		return err
	}
	if err := sys.save(); err != nil {
		return err
	}

	if !flagQuiet {
		fmt.Printf("  Requested %s for %s\n", cli.FormatAmount(amount), caller)
		fmt.Printf("  Pending requests: %s\n", cli.FormatAmount(sys.led.RequestedFunds(caller)))
	}
	return nil
}
