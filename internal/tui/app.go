// Package tui provides the interactive Bubble Tea dashboard for deptfund.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/deptfund/internal/cli"
	"github.com/theirongolddev/deptfund/internal/store"
	"github.com/theirongolddev/deptfund/internal/tui/components"
	"github.com/theirongolddev/deptfund/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// StateMsg is sent when a ledger state refresh completes.
type StateMsg struct {
	State store.State
	Err   error
}

type tickMsg time.Time

const refreshInterval = 2 * time.Second

// App is the root Bubble Tea model for `deptfund watch`.
type App struct {
	dbPath string

	state       store.State
	balances    map[string]int64
	loaded      bool
	loadErr     error
	lastRefresh time.Time

	width   int
	height  int
	spinner spinner.Model
}

// NewApp creates a new watch dashboard model.
func NewApp(dbPath string) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent)

	return App{
		dbPath:  dbPath,
		spinner: sp,
	}
}

func loadStateCmd(dbPath string) tea.Cmd {
	return func() tea.Msg {
		db, err := store.Open(dbPath)
		if err != nil {
			return StateMsg{Err: err}
		}
		defer func() { _ = db.Close() }()

		st, err := db.LoadState()
		return StateMsg{State: st, Err: err}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		loadStateCmd(a.dbPath),
		a.spinner.Tick,
		tickCmd(),
	)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return a, tea.Quit
		case "r":
			return a, loadStateCmd(a.dbPath)
		}
		return a, nil

	case tickMsg:
		return a, tea.Batch(tickCmd(), loadStateCmd(a.dbPath))

	case StateMsg:
		a.loaded = true
		a.loadErr = msg.Err
		if msg.Err == nil {
			a.state = msg.State
			a.balances = make(map[string]int64, len(msg.State.Balances))
			for _, b := range msg.State.Balances {
				a.balances[string(b.Recipient)] = b.Amount
			}
			a.lastRefresh = time.Now()
		}
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if !a.loaded {
		return fmt.Sprintf("\n  %s Loading ledger...\n", a.spinner.View())
	}

	t := theme.Active
	titleStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	errStyle := lipgloss.NewStyle().Foreground(t.Red)

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(titleStyle.Render("  DEPTFUND LEDGER"))
	b.WriteString("\n\n")

	if a.loadErr != nil {
		b.WriteString(errStyle.Render(fmt.Sprintf("  %v", a.loadErr)))
		b.WriteString("\n\n")
		b.WriteString(components.RenderStatusBar(a.width, ""))
		return b.String()
	}

	snap := a.state.Ledger
	b.WriteString(labelStyle.Render("  Admin: "))
	b.WriteString(valueStyle.Render(string(a.state.Admin)))
	b.WriteString(labelStyle.Render("   Total budget: "))
	b.WriteString(valueStyle.Render(cli.FormatAmount(snap.TotalBudget)))
	b.WriteString(labelStyle.Render("   Pool: "))
	b.WriteString(valueStyle.Render(cli.FormatAmount(snap.Pool)))
	b.WriteString(labelStyle.Render("   Treasury: "))
	b.WriteString(valueStyle.Render(cli.FormatAmount(a.state.Funded)))
	b.WriteString("\n\n")

	allocatedPct := 0.0
	if snap.TotalBudget > 0 {
		allocatedPct = float64(snap.TotalBudget-snap.Pool) / float64(snap.TotalBudget)
	}
	b.WriteString("  ")
	b.WriteString(components.UtilizationBar("pool allocated", allocatedPct, 16, a.barWidth()))
	b.WriteString("\n\n")

	if len(snap.Departments) == 0 {
		b.WriteString(labelStyle.Render("  No departments allocated yet."))
		b.WriteString("\n")
	}

	labelW := 16
	for _, d := range snap.Departments {
		if len(string(d.ID)) > labelW {
			labelW = len(string(d.ID))
		}
	}
	for _, d := range snap.Departments {
		b.WriteString("  ")
		b.WriteString(components.UtilizationBar(string(d.ID), cli.Utilization(d.Spent, d.Allocated), labelW, a.barWidth()))
		b.WriteString("\n")
		b.WriteString(labelStyle.Render(fmt.Sprintf("  %-*s alloc %s  requested %s  spent %s  balance %s",
			labelW, "",
			cli.FormatAmount(d.Allocated),
			cli.FormatAmount(d.Requested),
			cli.FormatAmount(d.Spent),
			cli.FormatAmount(a.balances[string(d.ID)]),
		)))
		b.WriteString("\n\n")
	}

	ago := ""
	if !a.lastRefresh.IsZero() {
		ago = fmt.Sprintf("%ds ago", int(time.Since(a.lastRefresh).Seconds()))
	}
	b.WriteString(components.RenderStatusBar(a.width, ago))
	return b.String()
}

func (a App) barWidth() int {
	w := a.width - 40
	if w < 10 {
		w = 10
	}
	if w > 50 {
		w = 50
	}
	return w
}
