package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

var dashSpinFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// DashBuyer is one buyer row on the dashboard.
type DashBuyer struct {
	Name     string
	Address  string
	Vested   string // formatted token amount across all rounds
	Unlocked string
	Locked   string
}

// DashSnapshot carries one refresh of sale state into the dashboard.
// All values are pre-formatted strings so the model stays render-only.
type DashSnapshot struct {
	Round     int
	Status    string
	PriceUSD  string // e.g. "$0.00375"
	Raised    string // tokens sold in the active round
	Ceiling   string // cumulative round ceiling
	Ratio     float64
	ClockNow  string
	NextBurn  string
	Buyers    []DashBuyer
	FetchedAt time.Time
}

// DashErrMsg reports a failed refresh.
type DashErrMsg struct{ Err error }

type dashTickMsg struct{}

func dashTick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return dashTickMsg{}
	})
}

// DashModel is the Bubble Tea model for the live sale dashboard. Fetch is
// called on every tick and must be safe to call from the tea goroutine.
type DashModel struct {
	Fetch    func() (DashSnapshot, error)
	Snap     DashSnapshot
	ErrMsg   string
	Frame    int
	cursor   int
	Quitting bool
}

func (m DashModel) Init() tea.Cmd {
	return tea.Batch(m.refresh(), dashTick())
}

func (m DashModel) refresh() tea.Cmd {
	fetch := m.Fetch
	return func() tea.Msg {
		snap, err := fetch()
		if err != nil {
			return DashErrMsg{Err: err}
		}
		return snap
	}
}

func (m DashModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Quitting = true
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(m.Snap.Buyers)-1 {
				m.cursor++
			}

		case "r":
			return m, m.refresh()
		}

	case dashTickMsg:
		m.Frame = (m.Frame + 1) % len(dashSpinFrames)
		return m, tea.Batch(m.refresh(), dashTick())

	case DashSnapshot:
		m.Snap = msg
		m.ErrMsg = ""

	case DashErrMsg:
		m.ErrMsg = msg.Err.Error()
	}

	return m, nil
}

func (m DashModel) View() string {
	if m.Quitting {
		return ""
	}

	var sb strings.Builder
	spin := dashSpinFrames[m.Frame]

	title := fmt.Sprintf("🌱  EcoGames Sale  ·  round %d  ·  %s", m.Snap.Round+1, m.Snap.Status)
	sb.WriteString(StyleTitle.Render(title) + "\n")

	if m.ErrMsg != "" {
		sb.WriteString(StyleError.Render("✗ "+m.ErrMsg) + "\n\n")
	} else {
		sb.WriteString(StyleMeta.Render(fmt.Sprintf("%s ledger time %s · next burn %s",
			spin, m.Snap.ClockNow, m.Snap.NextBurn)) + "\n\n")
	}

	sb.WriteString(StyleMeta.Render("  price ") + StyleValue.Render(m.Snap.PriceUSD) +
		StyleMeta.Render("   raised ") + StyleValue.Render(m.Snap.Raised) +
		StyleMeta.Render(" / "+m.Snap.Ceiling) + "\n")
	sb.WriteString("  " + ProgressBar(m.Snap.Ratio, 40) + "\n\n")

	tbl := NewTable([]Column{
		{Title: "BUYER", Width: 10},
		{Title: "ADDRESS", Width: 14},
		{Title: "VESTED", Width: 18, Right: true},
		{Title: "UNLOCKED", Width: 18, Right: true},
		{Title: "LOCKED", Width: 18, Right: true},
	})
	tbl.SelIdx = m.cursor
	for _, b := range m.Snap.Buyers {
		tbl.AddRow(Row{b.Name, TruncateAddr(b.Address), b.Vested, b.Unlocked, b.Locked})
	}
	if len(m.Snap.Buyers) == 0 {
		sb.WriteString(StyleMeta.Render("  no purchases yet") + "\n")
	} else {
		sb.WriteString(tbl.Render())
	}

	sb.WriteString("\n" + StyleMeta.Render("  ↑/↓ select · r refresh · q quit") + "\n")
	return sb.String()
}
