package cmd

import (
	"fmt"

	"github.com/theirongolddev/deptfund/internal/ledger"

	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrative operations",
}

var adminTransferCmd = &cobra.Command{
	Use:   "transfer <new-admin>",
	Short: "Hand the admin role to another identity (admin only)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdminTransfer,
}

func init() {
	adminCmd.AddCommand(adminTransferCmd)
	rootCmd.AddCommand(adminCmd)
}

func runAdminTransfer(_ *cobra.Command, args []string) error {
	caller, err := callerIdentity()
	if err != nil {
		return err
	}

	sys, err := openSystem()
	if err != nil {
		return err
	}
	defer sys.close()

	next := ledger.Identity(args[0])
	if err := sys.auth.Transfer(caller, next); err != nil {
		return err
	}
	if err := sys.save(); err != nil {
		return err
	}

	if !flagQuiet {
		fmt.Printf("  Admin role transferred to %s\n", next)
	}
	return nil
}
