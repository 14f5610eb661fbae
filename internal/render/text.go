package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"trendbrief/internal/core"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	rankStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
	metaStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	summaryStyle = lipgloss.NewStyle().PaddingLeft(4)
	failStyle    = lipgloss.NewStyle().PaddingLeft(4).Italic(true).Foreground(lipgloss.Color("208"))
)

// Text renders a terminal summary of d.
func Text(d core.Digest) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("%s · %s %s", d.TimeLabel, d.Date, d.LocalTime)))
	b.WriteString("\n")
	b.WriteString(metaStyle.Render(fmt.Sprintf("%d stories · %d cross-platform · %d items from %d platforms",
		d.Metrics.TotalStories, d.Metrics.CrossPlatformStories, d.Metrics.ItemsReceived, d.Metrics.PlatformsCovered)))
	b.WriteString("\n\n")

	if len(d.TopStories) == 0 {
		b.WriteString("No trending stories.\n")
		return b.String()
	}

	for _, e := range d.TopStories {
		b.WriteString(rankStyle.Render(fmt.Sprintf("%2d.", e.Rank)))
		b.WriteString(" ")
		b.WriteString(titleStyle.Render(e.PrimaryTitle))
		if e.Title.EN != "" {
			b.WriteString(" " + metaStyle.Render(e.Title.EN))
		}
		b.WriteString("\n")
		b.WriteString(summaryStyle.Render(metaStyle.Render(fmt.Sprintf("%s · %s · weight %.1f · %s",
			PlatformList(e), e.Category, e.Weight, e.Context.Kind))))
		b.WriteString("\n")

		switch {
		case e.Summary != nil && e.Summary.EN != "":
			b.WriteString(summaryStyle.Render(e.Summary.EN))
			b.WriteString("\n")
		case e.SummaryFailed:
			b.WriteString(failStyle.Render("summary unavailable"))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}
