package tui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SourceItem is one retrieved excerpt shown in the sources panel.
type SourceItem struct {
	Filename   string
	Excerpt    string
	PageNumber int // 0 when unknown
	Score      float64
}

// SourcesPanelModel is an overlay listing the source excerpts behind the
// last assistant answer. It is inert until Open is called.
type SourcesPanelModel struct {
	active    bool
	cursorPos int
	width     int
	height    int

	title   string
	sources []SourceItem

	headerStyle  lipgloss.Style
	focusedStyle lipgloss.Style
	dimmedStyle  lipgloss.Style
	hintStyle    lipgloss.Style
	borderStyle  lipgloss.Style
}

func NewSourcesPanelModel() SourcesPanelModel {
	accent := lipgloss.Color("86")
	return SourcesPanelModel{
		headerStyle:  lipgloss.NewStyle().Bold(true).Foreground(accent),
		focusedStyle: lipgloss.NewStyle().Foreground(accent).Bold(true),
		dimmedStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		hintStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true),
		borderStyle:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accent).Padding(1, 2),
	}
}

func (m *SourcesPanelModel) Open(title string, sources []SourceItem) {
	m.active = true
	m.cursorPos = 0
	m.title = title
	m.sources = sources
}

func (m *SourcesPanelModel) Close()        { m.active = false }
func (m SourcesPanelModel) IsActive() bool { return m.active }
func (m SourcesPanelModel) Selected() int  { return m.cursorPos }

func (m SourcesPanelModel) Update(msg tea.Msg) (SourcesPanelModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		if !m.active {
			return m, nil
		}
		switch msg.String() {
		case "esc", "q":
			m.active = false
		case "up", "k":
			if m.cursorPos > 0 {
				m.cursorPos--
			}
		case "down", "j":
			if m.cursorPos < len(m.sources)-1 {
				m.cursorPos++
			}
		case "c", "enter":
			if m.cursorPos < len(m.sources) {
				src := m.sources[m.cursorPos]
				if err := clipboard.WriteAll(src.Excerpt); err == nil {
					return m, func() tea.Msg {
						return ShowToastMsg{Message: fmt.Sprintf("Copied excerpt from %s", src.Filename)}
					}
				}
				return m, func() tea.Msg {
					return ShowToastMsg{Message: "Clipboard unavailable"}
				}
			}
		}
	}
	return m, nil
}

func (m SourcesPanelModel) View() string {
	if !m.active {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.headerStyle.Render("Sources — " + m.title))
	b.WriteString("\n\n")

	if len(m.sources) == 0 {
		b.WriteString(m.dimmedStyle.Render("No sources for this answer."))
	}

	excerptWidth := m.width - 16
	if excerptWidth < 20 {
		excerptWidth = 20
	}

	for i, src := range m.sources {
		line := src.Filename
		if src.PageNumber > 0 {
			line += fmt.Sprintf(" (p.%d)", src.PageNumber)
		}
		if src.Score > 0 {
			line += fmt.Sprintf("  [%.2f]", src.Score)
		}

		if i == m.cursorPos {
			b.WriteString(m.focusedStyle.Render("▸ " + line))
		} else {
			b.WriteString(m.dimmedStyle.Render("  " + line))
		}
		b.WriteString("\n")

		excerpt := strings.TrimSpace(src.Excerpt)
		if excerpt != "" {
			if len([]rune(excerpt)) > excerptWidth {
				excerpt = string([]rune(excerpt)[:excerptWidth-3]) + "..."
			}
			b.WriteString(m.dimmedStyle.Render("    " + excerpt))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.hintStyle.Render("↑/↓ navigate · c copy excerpt · esc close"))

	panel := m.borderStyle.Render(b.String())
	if m.width <= 0 || m.height <= 0 {
		return panel
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
}
