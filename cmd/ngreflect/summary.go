package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ngreflect/internal/data/report"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)

	docStyle = lipgloss.NewStyle().Margin(1, 2)
)

// renderSummary draws one row per bundle followed by the run totals.
func renderSummary(run *report.Run) string {
	pkgWidth := len("PACKAGE")
	for _, b := range run.Bundles {
		if len(b.Package) > pkgWidth {
			pkgWidth = len(b.Package)
		}
	}
	col := lipgloss.NewStyle().Width(pkgWidth + 2)
	num := lipgloss.NewStyle().Width(10)

	var rows []string
	rows = append(rows, titleStyle.Render("ngreflect "+run.ID))
	rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top,
		headerStyle.Inherit(col).Render("PACKAGE"),
		headerStyle.Inherit(num).Render("FORMAT"),
		headerStyle.Inherit(num).Render("EXPORTS"),
		headerStyle.Inherit(num).Render("CLASSES"),
		headerStyle.Render("STATUS"),
	))
	for _, b := range run.Bundles {
		status := successStyle.Render("ok")
		if b.Error != "" {
			status = errorStyle.Render(truncate(b.Error, 60))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top,
			col.Render(b.Package),
			num.Render(b.Format),
			num.Render(fmt.Sprint(len(b.Exports))),
			num.Render(fmt.Sprint(len(b.Classes))),
			status,
		))
	}

	t := run.Totals()
	footer := fmt.Sprintf("%d bundles, %d failed, %d classes (%d decorated, %d decorators), %d exports in %s",
		t.Bundles, t.Failed, t.Classes, t.Decorated, t.Decorators, t.Exports,
		run.FinishedAt.Sub(run.StartedAt).Round(1e6))
	rows = append(rows, "", statusStyle.Render(footer))
	return docStyle.Render(strings.Join(rows, "\n")) + "\n"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
