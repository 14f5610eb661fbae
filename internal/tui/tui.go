package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"trendbrief/internal/core"
	"trendbrief/internal/render"
)

// model browses one digest snapshot. The digest is never modified.
type model struct {
	digest          core.Digest
	selectedIdx     int
	showAppearances bool
	width           int
	height          int
	quitting        bool
}

// InitialModel returns the initial state of the TUI model for d.
func InitialModel(d core.Digest) model {
	return model{digest: d, width: 100}
}

// Init is the first command that will be run. We don't need any for now.
func (m model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model accordingly.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		case "up", "k":
			if m.selectedIdx > 0 {
				m.selectedIdx--
			}
		case "down", "j":
			if m.selectedIdx < len(m.digest.TopStories)-1 {
				m.selectedIdx++
			}
		case "a", "enter":
			m.showAppearances = !m.showAppearances
		case "esc":
			m.showAppearances = false
		}
	}

	return m, nil
}

// View renders the TUI.
func (m model) View() string {
	if m.quitting {
		return "Quitting...\n"
	}

	paneWidth := m.width/2 - 5
	if paneWidth < 20 {
		paneWidth = 20
	}

	docStyle := lipgloss.NewStyle().Margin(1, 2)
	listStyle := lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true).Padding(1).Width(paneWidth)
	detailStyle := lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true).Padding(1).Width(paneWidth)
	headerStyle := lipgloss.NewStyle().Bold(true)

	d := m.digest
	header := headerStyle.Render(fmt.Sprintf("%s · %s %s", d.TimeLabel, d.Date, d.LocalTime))

	var list strings.Builder
	if len(d.TopStories) == 0 {
		list.WriteString("No stories in this digest.")
	} else {
		for i, e := range d.TopStories {
			cursor := " "
			if i == m.selectedIdx {
				cursor = ">"
			}
			fmt.Fprintf(&list, "%s %d. %s\n", cursor, e.Rank, e.PrimaryTitle)
		}
	}

	leftPane := listStyle.Render(list.String())
	rightPane := detailStyle.Render(m.detail())
	mainContent := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)

	help := "\n\n[↑/k] Up | [↓/j] Down | [a] Appearances | [q] Quit"

	return docStyle.Render(header + "\n\n" + mainContent + help)
}

func (m model) detail() string {
	e, ok := m.selected()
	if !ok {
		return "Nothing selected."
	}
	if m.showAppearances {
		return appearances(e)
	}

	var b strings.Builder
	b.WriteString(e.PrimaryTitle + "\n")
	if e.Title.EN != "" {
		b.WriteString(e.Title.EN + "\n")
	}
	fmt.Fprintf(&b, "\n%s\n%s · weight %.1f\n\n", render.PlatformList(e), e.Category, e.Weight)

	switch {
	case e.Summary != nil:
		b.WriteString(e.Summary.EN)
		if e.Summary.ZH != "" {
			b.WriteString("\n\n" + e.Summary.ZH)
		}
	case e.SummaryFailed:
		b.WriteString("Summary unavailable.")
	}
	fmt.Fprintf(&b, "\n\ncontext: %s", e.Context.Kind)
	return b.String()
}

func (m model) selected() (core.DigestEntry, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.digest.TopStories) {
		return core.DigestEntry{}, false
	}
	return m.digest.TopStories[m.selectedIdx], true
}

func appearances(e core.DigestEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Appearances of #%d\n\n", e.Rank)
	if len(e.Appearances) == 0 {
		b.WriteString("No appearances recorded.")
		return b.String()
	}
	for _, a := range e.Appearances {
		rank := "-"
		if a.Rank != nil {
			rank = fmt.Sprintf("#%d", *a.Rank)
		}
		fmt.Fprintf(&b, "%-10s %4s  %s\n", a.Platform.DisplayName(), rank, a.Title)
		if a.URL != "" {
			fmt.Fprintf(&b, "           %s\n", a.URL)
		}
	}
	return b.String()
}

// StartTUI initializes and starts the Bubble Tea application over d.
func StartTUI(d core.Digest) error {
	p := tea.NewProgram(InitialModel(d), tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
