package cmd

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/deptfund/internal/authority"
	"github.com/theirongolddev/deptfund/internal/cli"
	"github.com/theirongolddev/deptfund/internal/events"
	"github.com/theirongolddev/deptfund/internal/ledger"
	"github.com/theirongolddev/deptfund/internal/store"
	"github.com/theirongolddev/deptfund/internal/treasury"

	"github.com/spf13/cobra"
)

var (
	flagInitBudget  string
	flagInitBacking string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new ledger with a fixed total budget",
	Long:  "Create a new ledger. The caller becomes the admin, and the backing treasury must cover the full budget.",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().StringVar(&flagInitBudget, "budget", "", "Total budget in base units (required)")
	initCmd.Flags().StringVar(&flagInitBacking, "backing", "", "Backing treasury funds (default: same as budget)")
	_ = initCmd.MarkFlagRequired("budget")

	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, _ []string) error {
	caller, err := callerIdentity()
	if err != nil {
		return err
	}

	budget, err := cli.ParseAmount(flagInitBudget)
	if err != nil {
		return fmt.Errorf("invalid budget: %w", err)
	}

	backing := budget
	if flagInitBacking != "" {
		backing, err = cli.ParseAmount(flagInitBacking)
		if err != nil {
			return fmt.Errorf("invalid backing: %w", err)
		}
	}

	db, err := store.Open(dbPath())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	ok, err := db.Initialized()
	if err != nil {
		return err
	}
	if ok {
		return errors.New("ledger already initialized; remove the database to start over")
	}

	auth := authority.NewStatic(caller)
	tre := treasury.New(backing)
	coll := &events.Collector{}

	led, err := ledger.New(budget, backing, auth, tre, ledger.WithSink(coll))
	if err != nil {
		return err
	}

	st := store.State{
		Admin:    caller,
		Ledger:   led.Snapshot(),
		Funded:   tre.Funded(),
		Balances: tre.Balances(),
	}
	if err := db.SaveState(st, coll.Drain()); err != nil {
		return fmt.Errorf("save ledger state: %w", err)
	}

	if !flagQuiet {
		fmt.Printf("  Ledger created at %s\n", dbPath())
		fmt.Printf("  Admin: %s\n", caller)
		fmt.Printf("  Total budget: %s\n", cli.FormatAmount(budget))
		fmt.Printf("  Treasury backing: %s\n", cli.FormatAmount(backing))
	}
	return nil
}
