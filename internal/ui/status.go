package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Aman-CERP/dichotomy/internal/interrupt"
	"github.com/Aman-CERP/dichotomy/internal/telemetry"
	"github.com/Aman-CERP/dichotomy/pkg/dichotomy"
)

// HistoryInfo is everything the history command displays.
type HistoryInfo struct {
	Path   string                   `json:"path"`
	Size   int64                    `json:"size_bytes"`
	Active []interrupt.ActiveRun    `json:"active"`
	Runs   []telemetry.HistoryEntry `json:"runs"`
}

// StatusRenderer displays run history and single runs.
type StatusRenderer struct {
	out    io.Writer
	styles Styles
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{out: out, styles: GetStyles(noColor)}
}

// RenderHistory displays active runs followed by recorded runs, newest first.
func (r *StatusRenderer) RenderHistory(info HistoryInfo) error {
	if len(info.Active) > 0 {
		_, _ = fmt.Fprintln(r.out, r.styles.Header.Render("Active runs"))
		for _, a := range info.Active {
			_, _ = fmt.Fprintf(r.out, "  %s %s\n", r.styles.Active.Render(a.RunID), r.styles.Dim.Render(fmt.Sprintf("(pid %d)", a.PID)))
		}
		_, _ = fmt.Fprintln(r.out)
	}

	_, _ = fmt.Fprintln(r.out, r.styles.Header.Render("Recent runs"))
	if len(info.Runs) == 0 {
		_, _ = fmt.Fprintln(r.out, r.styles.Dim.Render("  no runs recorded"))
	}
	for _, e := range info.Runs {
		_, _ = fmt.Fprintf(r.out, "  %-24s %-20s %-14s %s  %s\n",
			e.RunID,
			e.Strategy,
			r.renderTermination(e.Summary),
			r.renderBracket(e.Summary),
			r.styles.Dim.Render(formatTime(e.FinishedAt)))
	}

	if info.Path != "" {
		_, _ = fmt.Fprintln(r.out)
		_, _ = fmt.Fprintln(r.out, r.styles.Label.Render(fmt.Sprintf("History: %s (%s)", info.Path, FormatBytes(info.Size))))
	}
	return nil
}

// RenderRun displays one recorded run with its probes.
func (r *StatusRenderer) RenderRun(e telemetry.HistoryEntry) error {
	_, _ = fmt.Fprint(r.out, RenderSummary(e.Summary, r.styles, 60))
	_, _ = fmt.Fprintf(r.out, "%s %s\n\n", r.styles.Label.Render("Finished:"), e.FinishedAt.Format(time.RFC3339))
	if len(e.Steps) > 0 {
		_, _ = fmt.Fprintln(r.out, r.styles.Header.Render("Probes"))
		_, _ = fmt.Fprint(r.out, RenderSteps(e.Steps, r.styles))
	}
	return nil
}

// RenderJSON outputs v as indented JSON.
func (r *StatusRenderer) RenderJSON(v any) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func (r *StatusRenderer) renderTermination(s dichotomy.Summary) string {
	label := fmt.Sprintf("%-14s", s.Termination)
	switch s.Termination {
	case dichotomy.TerminationConverged:
		return r.styles.Success.Render(label)
	case dichotomy.TerminationInterrupted, dichotomy.TerminationMaxIterations:
		return r.styles.Warning.Render(label)
	case dichotomy.TerminationFatal:
		return r.styles.Error.Render(label)
	default:
		return label
	}
}

func (r *StatusRenderer) renderBracket(s dichotomy.Summary) string {
	if s.Fatal {
		return r.styles.Error.Render(s.FatalMessage)
	}
	return fmt.Sprintf("[%s, %s) %s", orDash(s.HighestValid), orDash(s.LowestInvalid), s.Cause)
}

// formatTime formats a time relative to now.
func formatTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02 15:04")
	}
}

// FormatBytes formats bytes to human-readable format.
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
