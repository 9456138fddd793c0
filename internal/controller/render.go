package controller

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	m "qcgen.dev/pkg/qcgen/internal/model"
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

func styleSeverity(sev m.Severity) string {
	if sev == m.SevError {
		return errorStyle.Render(sev.String())
	}

	return warningStyle.Render(sev.String())
}

func formatDiagnostic(d m.Diagnostic) string {
	return fmt.Sprintf("%s: %s: %s", d.Span, styleSeverity(d.Severity), d.Message)
}

func styleFileStatus(status m.FileStatus) string {
	switch status {
	case m.FileGenerated:
		return okStyle.Render(status.String())
	case m.FileFailed:
		return errorStyle.Render(status.String())
	case m.FileRemoved:
		return warningStyle.Render(status.String())
	case m.FileUnchanged, m.FileCached, m.FileSkipped:
		return faintStyle.Render(status.String())
	}

	return status.String()
}

func countExpansions(expansions []m.Expansion) (expanded, rejected int) {
	for _, e := range expansions {
		if e.Status == m.Expanded {
			expanded++
		} else {
			rejected++
		}
	}

	return
}

// formatFileResult renders one file line plus its diagnostics and diff.
func formatFileResult(result m.FileResult) string {
	var b strings.Builder

	origin := ""
	if result.Source.Origin != nil {
		origin = string(result.Source.Origin.ShortPath)
	}

	expanded, rejected := countExpansions(result.Expansions)

	fmt.Fprintf(&b, "%-9s %s", styleFileStatus(result.Status), origin)

	if result.Status == m.FileGenerated || result.Status == m.FileUnchanged {
		fmt.Fprintf(&b, " -> %s (%d expanded, %d rejected)", result.Source.Output, expanded, rejected)
	}

	if result.Status == m.FileRemoved {
		fmt.Fprintf(&b, " -x %s", result.Source.Output)
	}

	b.WriteByte('\n')

	if result.Err != nil {
		fmt.Fprintf(&b, "  %s\n", errorStyle.Render(result.Err.Error()))
	}

	for _, d := range result.Diagnostics {
		fmt.Fprintf(&b, "  %s\n", formatDiagnostic(d))
	}

	if result.Diff != "" {
		b.WriteString(result.Diff)

		if !strings.HasSuffix(result.Diff, "\n") {
			b.WriteByte('\n')
		}
	}

	return b.String()
}

func renderSummaryTable(summary m.Summary) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Files", "Generated", "Cached", "Failed", "Removed", "Expanded", "Rejected", "Diagnostics"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	table.Append([]string{
		fmt.Sprintf("%d", summary.Files),
		fmt.Sprintf("%d", summary.Generated),
		fmt.Sprintf("%d", summary.Cached),
		fmt.Sprintf("%d", summary.Failed),
		fmt.Sprintf("%d", summary.Removed),
		fmt.Sprintf("%d", summary.Expanded),
		fmt.Sprintf("%d", summary.Rejected),
		fmt.Sprintf("%d", summary.Diagnostics),
	})
	table.Render()

	return tableBuffer.String()
}

type declarationRow struct {
	file   string
	line   int
	name   string
	kind   string
	test   string
	status string
}

func buildDeclarationRows(results []m.FileResult) []declarationRow {
	var rows []declarationRow

	for _, result := range results {
		for _, e := range result.Expansions {
			test := e.TestName
			if test == "" {
				test = "-"
			}

			rows = append(rows, declarationRow{
				file:   string(e.Span.File),
				line:   e.Span.Line,
				name:   e.Name,
				kind:   e.Kind.String(),
				test:   test,
				status: e.Status.String(),
			})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].file != rows[j].file {
			return rows[i].file < rows[j].file
		}

		return rows[i].line < rows[j].line
	})

	return rows
}

func renderDeclarationTable(rows []declarationRow) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"File", "Line", "Declaration", "Kind", "Test", "Status"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER,
	})

	files := make(map[string]struct{})

	for _, row := range rows {
		table.Append([]string{row.file, fmt.Sprintf("%d", row.line), row.name, row.kind, row.test, row.status})
		files[row.file] = struct{}{}
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Files %d", len(files)),
		"", "", "", "",
		fmt.Sprintf("%d", len(rows)),
	})

	table.Render()

	return tableBuffer.String()
}

func formatVerifyResult(result m.VerifyResult) string {
	if result.Passed {
		return fmt.Sprintf("%s %s\n", okStyle.Render("✓ verified"), result.Dir)
	}

	out := fmt.Sprintf("%s %s\n", errorStyle.Render("✗ verification failed"), result.Dir)
	if result.Output != "" {
		out += result.Output
		if !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
	}

	return out
}
