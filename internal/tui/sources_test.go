package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func keyMsg(s string) tea.KeyMsg {
	if len(s) == 1 {
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{}
}

func TestSourcesPanelOpenClose(t *testing.T) {
	m := NewSourcesPanelModel()
	if m.IsActive() {
		t.Fatal("panel should start inactive")
	}

	m.Open("Contracts", []SourceItem{{Filename: "policy.pdf", Excerpt: "Refunds within 30 days."}})
	if !m.IsActive() {
		t.Fatal("panel should be active after Open")
	}

	view := m.View()
	if !strings.Contains(view, "policy.pdf") || !strings.Contains(view, "Contracts") {
		t.Fatalf("panel view missing content: %q", view)
	}

	m, _ = m.Update(keyMsg("esc"))
	if m.IsActive() {
		t.Fatal("esc should close the panel")
	}
	if m.View() != "" {
		t.Fatal("closed panel should render nothing")
	}
}

func TestSourcesPanelNavigation(t *testing.T) {
	m := NewSourcesPanelModel()
	m.Open("p", []SourceItem{
		{Filename: "a.pdf"},
		{Filename: "b.pdf"},
		{Filename: "c.pdf"},
	})

	if m.Selected() != 0 {
		t.Fatalf("cursor should start at 0, got %d", m.Selected())
	}

	m, _ = m.Update(keyMsg("down"))
	m, _ = m.Update(keyMsg("j"))
	if m.Selected() != 2 {
		t.Fatalf("cursor should be at 2, got %d", m.Selected())
	}

	// Does not run past the end
	m, _ = m.Update(keyMsg("down"))
	if m.Selected() != 2 {
		t.Fatalf("cursor must stop at the last item, got %d", m.Selected())
	}

	m, _ = m.Update(keyMsg("up"))
	m, _ = m.Update(keyMsg("k"))
	m, _ = m.Update(keyMsg("up"))
	if m.Selected() != 0 {
		t.Fatalf("cursor must stop at the first item, got %d", m.Selected())
	}
}

func TestSourcesPanelInactiveIgnoresKeys(t *testing.T) {
	m := NewSourcesPanelModel()
	m, _ = m.Update(keyMsg("down"))
	if m.IsActive() || m.Selected() != 0 {
		t.Fatal("inactive panel must ignore key presses")
	}
}

func TestSourcesPanelEmptyState(t *testing.T) {
	m := NewSourcesPanelModel()
	m.Open("p", nil)
	if !strings.Contains(m.View(), "No sources") {
		t.Fatalf("empty state missing: %q", m.View())
	}
}
