package cmd

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/deptfund/internal/config"
	"github.com/theirongolddev/deptfund/internal/store"
	"github.com/theirongolddev/deptfund/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Load existing config or defaults
	cfg, _ := config.Load()

	identity := cfg.Identity.Name
	dbField := cfg.Ledger.DBPath
	themeName := cfg.Appearance.Theme
	if themeName == "" {
		themeName = theme.FlexokiDark.Name
	}

	themeOptions := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOptions = append(themeOptions, huh.NewOption(t.Name, t.Name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Your identity").
				Description("Used as the caller for ledger operations. The admin uses their own name; departments use the department name.").
				Placeholder("treasurer").
				Value(&identity),
			huh.NewInput().
				Title("Ledger database path").
				Description(fmt.Sprintf("Leave empty for the default (%s).", store.DefaultPath())).
				Value(&dbField),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOptions...).
				Value(&themeName),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled.")
			return nil
		}
		return fmt.Errorf("setup form: %w", err)
	}

	cfg.Identity.Name = identity
	cfg.Ledger.DBPath = dbField
	cfg.Appearance.Theme = themeName

	if err := config.Save(cfg); err != nil {
		return err
	}

	fmt.Printf("  Saved config to %s\n", config.ConfigPath())

	db, err := store.Open(dbPath())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	ok, err := db.Initialized()
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("  No ledger found. Create one with `deptfund init --budget <amount>`.")
	}
	return nil
}
