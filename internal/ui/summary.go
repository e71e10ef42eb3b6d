package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Aman-CERP/dichotomy/pkg/dichotomy"
)

// SummaryLines returns the labelled lines describing a finished search.
func SummaryLines(s dichotomy.Summary, styles Styles) []string {
	var lines []string
	row := func(label, value string) {
		lines = append(lines, fmt.Sprintf("%s %s", styles.Label.Render(fmt.Sprintf("%-15s", label+":")), value))
	}

	switch {
	case s.Fatal:
		lines = append(lines, styles.Error.Render("✗ Search aborted"))
	case s.Interrupted:
		lines = append(lines, styles.Warning.Render("■ Search interrupted"))
	default:
		lines = append(lines, styles.Success.Render("✓ Search complete"))
	}
	lines = append(lines, "")

	row("Run", s.RunID)
	row("Strategy", s.Strategy)
	row("Termination", string(s.Termination))
	if s.Fatal {
		row("Error", styles.Error.Render(s.FatalMessage))
	} else {
		row("Highest valid", styles.Valid.Render(orDash(s.HighestValid)))
		row("Lowest invalid", styles.Invalid.Render(orDash(s.LowestInvalid)))
		row("Limiting cause", styles.Active.Render(string(s.Cause)))
		if s.Message != "" {
			row("Detail", s.Message)
		}
	}
	row("Probes", fmt.Sprintf("%d", s.Probes))
	row("Duration", formatDuration(s.Duration))
	return lines
}

// RenderSummary renders a finished search as a panel of width columns.
// Unstyled output is returned without a border.
func RenderSummary(s dichotomy.Summary, styles Styles, width int) string {
	content := strings.Join(SummaryLines(s, styles), "\n")
	if styles.Panel.GetBorderStyle() == (lipgloss.Border{}) {
		return content + "\n"
	}

	border := ColorLime
	switch {
	case s.Fatal:
		border = ColorRed
	case s.Interrupted:
		border = ColorYellow
	}
	panel := styles.Panel.
		BorderForeground(lipgloss.Color(border)).
		Padding(1, 2).
		Width(max(width, 40))
	return panel.Render(content) + "\n"
}

// RenderSteps lists the probes of a search, one per line.
func RenderSteps(steps []dichotomy.StepSummary, styles Styles) string {
	var sb strings.Builder
	for i, st := range steps {
		verdict := "valid"
		if !st.Valid {
			verdict = st.Reason
		}
		failure := st.Reason == dichotomy.ReasonEvaluationFailed.String() ||
			st.Reason == dichotomy.ReasonResourceLimitation.String()
		line := fmt.Sprintf("%3d  %-20s %s", i+1, st.Value, styles.Verdict(st.Valid, failure).Render(verdict))
		if st.Message != "" {
			line += styles.Dim.Render("  " + st.Message)
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// formatDuration formats a duration in a human-friendly way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	d = d.Round(100 * time.Millisecond)
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	d = d.Round(time.Second)
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		if s == 0 {
			return fmt.Sprintf("%dm", m)
		}
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", h, m)
}
