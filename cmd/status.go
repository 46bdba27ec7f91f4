package cmd

import (
	"fmt"

	"github.com/theirongolddev/deptfund/internal/cli"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pool balance and per-department allocations",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	sys, err := openSystem()
	if err != nil {
		return err
	}
	defer sys.close()

	total := sys.led.TotalBudget()
	pool := sys.led.PoolBalance()
	depts := sys.led.Departments()

	fmt.Println()
	fmt.Println(cli.RenderTitle("DEPARTMENT BUDGET LEDGER"))
	fmt.Println()

	fmt.Printf("  Admin:        %s\n", sys.auth.Admin())
	fmt.Printf("  Total budget: %s\n", cli.FormatAmount(total))
	fmt.Printf("  Pool balance: %s  %s\n",
		cli.FormatAmount(pool),
		cli.RenderBar(cli.Utilization(total-pool, total), 20))
	fmt.Printf("  Treasury:     %s backing\n", cli.FormatAmount(sys.tre.Funded()))
	fmt.Println()

	if len(depts) == 0 {
		fmt.Println("  No departments yet. Allocate with `deptfund allocate <dept> <amount>`.")
		fmt.Println()
		return nil
	}

	rows := make([][]string, 0, len(depts))
	for _, d := range depts {
		rows = append(rows, []string{
			string(d.ID),
			cli.FormatAmount(d.Allocated),
			cli.FormatAmount(d.Requested),
			cli.FormatAmount(d.Spent),
			cli.FormatAmount(d.Allocated - d.Spent),
			cli.RenderBar(cli.Utilization(d.Spent, d.Allocated), 12) + " " +
				cli.FormatPercent(cli.Utilization(d.Spent, d.Allocated)),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Department", "Allocated", "Requested", "Spent", "Remaining", "Utilization"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}
