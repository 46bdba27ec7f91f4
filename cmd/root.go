// Package cmd implements the deptfund CLI commands.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/theirongolddev/deptfund/internal/authority"
	"github.com/theirongolddev/deptfund/internal/config"
	"github.com/theirongolddev/deptfund/internal/events"
	"github.com/theirongolddev/deptfund/internal/ledger"
	"github.com/theirongolddev/deptfund/internal/store"
	"github.com/theirongolddev/deptfund/internal/treasury"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	flagDB    string
	flagAs    string
	flagQuiet bool
)

var rootCmd = &cobra.Command{
	Use:     "deptfund",
	Short:   "Department Budget Ledger CLI",
	Long:    "Manage a fixed departmental budget pool: allocate, request, and release funds.",
	Version: version,
	RunE:    runStatus,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDB, "db", "d", "", "Ledger database path (default: XDG data dir)")
	rootCmd.PersistentFlags().StringVar(&flagAs, "as", "", "Caller identity (default: configured identity)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

func dbPath() string {
	if flagDB != "" {
		return flagDB
	}
	cfg, _ := config.Load()
	if cfg.Ledger.DBPath != "" {
		return cfg.Ledger.DBPath
	}
	return store.DefaultPath()
}

// callerIdentity resolves who is acting: the --as flag wins, then the
// DEPTFUND_CALLER environment variable, then the configured identity.
func callerIdentity() (ledger.Identity, error) {
	if flagAs != "" {
		return ledger.Identity(flagAs), nil
	}
	cfg, _ := config.Load()
	if name := config.Caller(cfg); name != "" {
		return ledger.Identity(name), nil
	}
	return "", errors.New("no caller identity; pass --as or run `deptfund setup`")
}

// system wires the persisted state into live domain objects for one
// CLI invocation. Mutating commands call save before exiting.
type system struct {
	db   *store.Store
	auth *authority.Static
	tre  *treasury.Treasury
	led  *ledger.Ledger
	coll *events.Collector
}

// openSystem is the shared loading path used by all ledger commands.
func openSystem() (*system, error) {
	db, err := store.Open(dbPath())
	if err != nil {
		return nil, err
	}

	st, err := db.LoadState()
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	auth := authority.NewStatic(st.Admin)
	tre := treasury.Restore(st.Funded, st.Balances)
	coll := &events.Collector{}

	led, err := ledger.FromSnapshot(st.Ledger, auth, tre, ledger.WithSink(coll))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &system{db: db, auth: auth, tre: tre, led: led, coll: coll}, nil
}

// save persists the current state plus any events collected since open.
func (s *system) save() error {
	st := store.State{
		Admin:    s.auth.Admin(),
		Ledger:   s.led.Snapshot(),
		Funded:   s.tre.Funded(),
		Balances: s.tre.Balances(),
	}
	if err := s.db.SaveState(st, s.coll.Drain()); err != nil {
		return fmt.Errorf("save ledger state: %w", err)
	}
	return nil
}

func (s *system) close() {
	_ = s.db.Close()
}
