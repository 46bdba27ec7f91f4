package cmd

import (
	"fmt"
	"strconv"

	"github.com/theirongolddev/deptfund/internal/config"
	"github.com/theirongolddev/deptfund/internal/store"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value. Keys: identity.name, ledger.db_path, daemon.addr, daemon.events_buffer, appearance.theme.",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

func init() {
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [Identity]")
	if name := config.Caller(cfg); name != "" {
		fmt.Printf("    Caller: %s\n", name)
	} else {
		fmt.Println("    Caller: not configured")
	}
	fmt.Println()

	fmt.Println("  [Ledger]")
	if cfg.Ledger.DBPath != "" {
		fmt.Printf("    Database: %s\n", cfg.Ledger.DBPath)
	} else {
		fmt.Printf("    Database: %s (default)\n", store.DefaultPath())
	}
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:       %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Events buffer: %d\n", cfg.Daemon.EventsBuffer)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `deptfund setup` to reconfigure.")
	return nil
}

func runConfigSet(_ *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	switch key {
	case "identity.name":
		cfg.Identity.Name = value
	case "ledger.db_path":
		cfg.Ledger.DBPath = value
	case "daemon.addr":
		cfg.Daemon.Addr = value
	case "daemon.events_buffer":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid events buffer %q", value)
		}
		cfg.Daemon.EventsBuffer = n
	case "appearance.theme":
		cfg.Appearance.Theme = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}

	if err := config.Save(cfg); err != nil {
		return err
	}

	fmt.Printf("  Set %s = %s\n", key, value)
	return nil
}
