package cmd

import (
	"fmt"

	"github.com/theirongolddev/deptfund/internal/cli"

	"github.com/spf13/cobra"
)

var departmentsCmd = &cobra.Command{
	Use:     "departments",
	Aliases: []string{"depts"},
	Short:   "List departments with remaining allocation and treasury balances",
	RunE:    runDepartments,
}

func init() {
	rootCmd.AddCommand(departmentsCmd)
}

func runDepartments(_ *cobra.Command, _ []string) error {
	sys, err := openSystem()
	if err != nil {
		return err
	}
	defer sys.close()

	depts := sys.led.Departments()
	if len(depts) == 0 {
		fmt.Println("\n  No departments yet.")
		return nil
	}

	rows := make([][]string, 0, len(depts))
	for _, d := range depts {
		rows = append(rows, []string{
			string(d.ID),
			cli.FormatAmount(d.Allocated),
			cli.FormatAmount(sys.led.RemainingUnspentAllocation(d.ID)),
			cli.FormatAmount(d.Requested),
			cli.FormatAmount(d.Spent),
			cli.FormatAmount(sys.tre.BalanceOf(d.ID)),
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Departments",
		Headers: []string{"Department", "Allocated", "Remaining", "Requested", "Spent", "Received"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}
