package cmd

import (
	"fmt"
	"time"

	"github.com/theirongolddev/deptfund/internal/cli"
	"github.com/theirongolddev/deptfund/internal/store"

	"github.com/spf13/cobra"
)

var flagEventsLimit int

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the ledger event journal, newest first",
	RunE:  runEvents,
}

func init() {
	eventsCmd.Flags().IntVarP(&flagEventsLimit, "limit", "n", 20, "Max events to show")

	rootCmd.AddCommand(eventsCmd)
}

func runEvents(_ *cobra.Command, _ []string) error {
	db, err := store.Open(dbPath())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	evs, err := db.ListEvents(flagEventsLimit)
	if err != nil {
		return err
	}

	total, err := db.EventCount()
	if err != nil {
		return err
	}

	if len(evs) == 0 {
		fmt.Println("\n  No events recorded yet.")
		return nil
	}

	rows := make([][]string, 0, len(evs))
	for _, ev := range evs {
		rows = append(rows, []string{
			ev.At.Local().Format(time.DateTime),
			string(ev.Type),
			string(ev.Department),
			cli.FormatAmount(ev.Amount),
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Events (%d of %d)", len(evs), total),
		Headers: []string{"Time", "Type", "Department", "Amount"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}
