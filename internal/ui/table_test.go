package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableRender(t *testing.T) {
	tbl := NewTable([]Column{
		{Title: "NAME", Width: 8},
		{Title: "AMOUNT", Width: 12, Right: true},
	})
	tbl.AddRow(Row{"alice", "2667"})
	tbl.AddRow(Row{"bob", "1200000"})

	out := tbl.Render()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4) // header, divider, two rows

	assert.Contains(t, lines[0], "NAME")
	assert.Contains(t, lines[0], "AMOUNT")
	assert.Contains(t, lines[2], "alice")
	// Right-aligned numeric cell keeps its leading spaces.
	assert.Contains(t, lines[2], "        2667")
}

func TestTableTruncatesOverflow(t *testing.T) {
	tbl := NewTable([]Column{{Title: "A", Width: 4}})
	tbl.AddRow(Row{"overflowing"})

	out := tbl.Render()
	assert.Contains(t, out, "over")
	assert.NotContains(t, out, "overflowing")
}

func TestTableShortRow(t *testing.T) {
	tbl := NewTable([]Column{
		{Title: "A", Width: 4},
		{Title: "B", Width: 4},
	})
	tbl.AddRow(Row{"x"}) // missing second cell

	assert.NotPanics(t, func() { tbl.Render() })
}

func TestTruncateAddr(t *testing.T) {
	addr := "0x1111111111111111111111111111111111111111"
	assert.Equal(t, "0x1111…1111", TruncateAddr(addr))
	assert.Equal(t, "0xshort", TruncateAddr("0xshort"))
}

func TestProgressBar(t *testing.T) {
	assert.Contains(t, ProgressBar(0.5, 10), "50.0%")
	assert.Contains(t, ProgressBar(-1, 10), "0.0%")
	assert.Contains(t, ProgressBar(2, 10), "100.0%")
}

func TestKeyValueBlock(t *testing.T) {
	out := KeyValueBlock("Sale", [][2]string{{"round", "1"}, {"price", "$0.00375"}})
	assert.Contains(t, out, "round")
	assert.Contains(t, out, "$0.00375")
}

func TestDashModelRefreshAndQuit(t *testing.T) {
	snap := DashSnapshot{Round: 0, Status: "active", Buyers: []DashBuyer{{Name: "alice"}}}
	m := DashModel{Fetch: func() (DashSnapshot, error) { return snap, nil }}

	next, _ := m.Update(snap)
	m = next.(DashModel)
	assert.Equal(t, "active", m.Snap.Status)
	assert.Contains(t, m.View(), "alice")

	next, _ = m.Update(DashErrMsg{Err: errors.New("boom")})
	m = next.(DashModel)
	assert.Contains(t, m.View(), "boom")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = next.(DashModel)
	assert.True(t, m.Quitting)
	assert.NotNil(t, cmd)
	assert.Equal(t, "", m.View())
}
