package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hpungsan/folio/internal/ops"
)

var (
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD787")).Bold(true)
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B"))
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF"))
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")).PaddingLeft(4)
	summaryStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

// checkReport renders check results for a terminal: one line per file, then
// indented errors and warnings, then a summary box.
func checkReport(out *ops.CheckOutput) string {
	var b strings.Builder

	for _, r := range out.Results {
		mark := okStyle.Render("✓")
		if !r.OK {
			mark = failStyle.Render("✗")
		}
		line := mark + " " + pathStyle.Render(r.Path)
		if r.OK {
			line += "  " + r.Title + " (" + r.Date + ")"
		}
		b.WriteString(line + "\n")

		if r.Error != nil {
			msg := string(r.Error.Code) + ": " + r.Error.Message
			if r.Error.Line > 0 {
				msg = fmt.Sprintf("line %d: %s", r.Error.Line, msg)
			}
			b.WriteString(detailStyle.Render(failStyle.Render(msg)) + "\n")
		}
		for _, w := range r.Warnings {
			msg := w.Code + ": " + w.Message
			if w.Line > 0 {
				msg = fmt.Sprintf("line %d: %s", w.Line, msg)
			}
			b.WriteString(detailStyle.Render(warnStyle.Render(msg)) + "\n")
		}
	}

	status := okStyle.Render("all articles valid")
	if !out.OK {
		status = failStyle.Render(fmt.Sprintf("%d invalid", out.Summary.Invalid))
	}
	summary := fmt.Sprintf("%d files · %d valid · %d warnings · %s",
		out.Summary.Files, out.Summary.Valid, out.Summary.Warnings, status)
	b.WriteString(summaryStyle.Render(summary) + "\n")

	return b.String()
}
