package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Aman-CERP/dichotomy/pkg/dichotomy"
)

// TUIRenderer provides rich terminal UI using bubbletea.
type TUIRenderer struct {
	mu      sync.Mutex
	cfg     Config
	program *tea.Program
	model   *searchModel
	tracker *ProgressTracker
	cancel  context.CancelFunc
	started bool
	done    chan struct{}
}

var _ Renderer = (*TUIRenderer)(nil)

// NewTUIRenderer creates a TUI renderer.
// Returns an error if TUI initialization fails (e.g., non-TTY output).
func NewTUIRenderer(cfg Config) (*TUIRenderer, error) {
	if !IsTTY(cfg.Output) {
		return nil, fmt.Errorf("output is not a TTY")
	}

	tracker := NewProgressTracker()
	model := newSearchModel(tracker, cfg.Title)
	model.onInterrupt = cfg.OnInterrupt
	if cfg.NoColor || DetectNoColor() {
		model.styles = NoColorStyles()
	}

	return &TUIRenderer{
		cfg:     cfg,
		tracker: tracker,
		model:   model,
		done:    make(chan struct{}),
	}, nil
}

// Start implements Renderer.
func (r *TUIRenderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}

	ctx, r.cancel = context.WithCancel(ctx)

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if f, ok := r.cfg.Output.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}

	r.program = tea.NewProgram(r.model, opts...)
	r.started = true

	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()

	return nil
}

func (r *TUIRenderer) send(msg tea.Msg) {
	if r.program != nil {
		r.program.Send(msg)
	}
}

// RunStarted implements dichotomy.Observer.
func (r *TUIRenderer) RunStarted(_ context.Context, info dichotomy.RunInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracker.Start(info)
	r.send(refreshMsg{})
}

// ProbeCompleted implements dichotomy.Observer.
func (r *TUIRenderer) ProbeCompleted(_ context.Context, ev dichotomy.ProbeEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracker.Record(ev)
	r.send(refreshMsg{})
}

// RunFinished implements dichotomy.Observer.
func (r *TUIRenderer) RunFinished(_ context.Context, s dichotomy.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracker.Finish(s)
	r.send(completeMsg(s))
}

// AddError implements Renderer.
func (r *TUIRenderer) AddError(event ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracker.AddError(event)
	r.send(refreshMsg{})
}

// Stop implements Renderer.
func (r *TUIRenderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.program != nil {
		if r.tracker.Summary() == nil {
			r.program.Quit()
		}
		select {
		case <-r.done:
		case <-time.After(2 * time.Second):
			// Do not hang the process on an unresponsive terminal.
		}
	}
	if r.cancel != nil {
		r.cancel()
	}
	return nil
}

type refreshMsg struct{}
type completeMsg dichotomy.Summary
type tickMsg time.Time

// searchModel is the bubbletea model for a running search.
type searchModel struct {
	tracker     *ProgressTracker
	width       int
	quitting    bool
	complete    bool
	summary     dichotomy.Summary
	spinner     spinner.Model
	progressBar progress.Model
	styles      Styles
	title       string
	interrupted bool
	onInterrupt func()
}

func newSearchModel(tracker *ProgressTracker, title string) *searchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime))

	p := progress.New(
		progress.WithSolidFill(ColorLime),
		progress.WithWidth(50),
		progress.WithoutPercentage(),
	)

	return &searchModel{
		tracker:     tracker,
		spinner:     s,
		progressBar: p,
		styles:      DefaultStyles(),
		width:       80,
		title:       title,
	}
}

// Init implements tea.Model.
func (m *searchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *searchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			// Raw mode swallows SIGINT, so forward it.
			m.interrupted = true
			if m.onInterrupt != nil {
				m.onInterrupt()
			}
			return m, tea.Quit
		case "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progressBar.Width = max(msg.Width-20, 20)

	case refreshMsg:
		return m, nil

	case completeMsg:
		m.complete = true
		m.summary = dichotomy.Summary(msg)
		return m, tea.Quit

	case tickMsg:
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m *searchModel) View() string {
	if m.interrupted {
		return "Stopping search...\n"
	}
	if m.quitting {
		return "Detached from display; the search continues until stopped.\n"
	}
	if m.complete {
		return RenderSummary(m.summary, m.styles, m.width-4)
	}

	contentWidth := max(m.width-4, 40)
	stats := m.tracker.Stats()

	sections := []string{
		m.renderHeader(stats),
		m.renderDivider(contentWidth),
		m.renderProgress(stats),
		m.renderBracket(stats),
		m.renderDivider(contentWidth),
		m.renderTimings(stats, contentWidth),
	}
	if stats.LastProbe != nil {
		sections = append(sections, m.renderDivider(contentWidth), m.renderLastProbe(*stats.LastProbe, contentWidth))
	}

	title := "Dichotomy"
	if m.title != "" {
		title = fmt.Sprintf("Dichotomy • %s", m.title)
	}
	panel := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Header.Render(title),
		m.styles.Panel.Width(contentWidth).Render(strings.Join(sections, "\n")),
	)
	return panel + "\n" + m.renderStatusBar(stats)
}

func (m *searchModel) renderHeader(stats ProgressStats) string {
	icon := m.spinner.View()
	if stats.Phase == PhaseStarting {
		icon = "○"
	}
	return fmt.Sprintf("%s %s  %s",
		m.styles.Active.Render(icon+" "+stats.Phase.String()),
		m.styles.Label.Render(stats.Strategy),
		m.styles.Dim.Render(fmt.Sprintf("[%s, %s]  run %s", stats.Min, stats.Max, stats.RunID)))
}

func (m *searchModel) renderProgress(stats ProgressStats) string {
	bar := m.progressBar.ViewAs(stats.Progress)
	count := m.styles.Active.Render(fmt.Sprintf("%d/%d", stats.Iteration, stats.MaxIterations))
	return fmt.Sprintf("%s  %s", bar, count)
}

func (m *searchModel) renderBracket(stats ProgressStats) string {
	return fmt.Sprintf("%s %s   %s %s",
		m.styles.Label.Render("valid ≤"),
		m.styles.Valid.Render(orDash(stats.LatestValid)),
		m.styles.Label.Render("invalid ≥"),
		m.styles.Invalid.Render(orDash(stats.LatestInvalid)))
}

func (m *searchModel) renderTimings(stats ProgressStats, width int) string {
	parts := []string{
		m.styles.Label.Render(fmt.Sprintf("probe: %s (avg %s, slowest %s)",
			formatDuration(stats.Timing.Last), formatDuration(stats.Timing.Avg), formatDuration(stats.Timing.Slowest))),
	}
	if stats.ETA > 0 {
		parts = append(parts, m.styles.Label.Render("ETA ≤ "+formatDuration(stats.ETA)))
	}
	spark := m.styles.Sparkline.Render(m.tracker.RenderSparkline(max(width-16, 10)))
	return strings.Join(parts, m.styles.Dim.Render("  •  ")) + "\n" + spark + " " + m.styles.Dim.Render("probe time")
}

func (m *searchModel) renderLastProbe(ev dichotomy.ProbeEvent, width int) string {
	verdict := "valid"
	if !ev.Valid {
		verdict = ev.Reason.String()
	}
	line := fmt.Sprintf("last: %s → %s", ev.Value, m.styles.Verdict(ev.Valid, ev.Reason.IsFailure()).Render(verdict))
	if ev.Message != "" {
		line += " " + m.styles.Dim.Render(truncate(ev.Message, width-lipgloss.Width(line)-1))
	}
	return line
}

func (m *searchModel) renderDivider(width int) string {
	return m.styles.Border.Render(strings.Repeat("─", width))
}

func (m *searchModel) renderStatusBar(stats ProgressStats) string {
	var parts []string
	if stats.Failures > 0 {
		parts = append(parts, m.styles.Failed.Render(fmt.Sprintf("⚠ %d failed probes", stats.Failures)))
	}
	if stats.WarnCount > 0 {
		parts = append(parts, m.styles.Warning.Render(fmt.Sprintf("⚠ %d warnings", stats.WarnCount)))
	}
	if stats.ErrorCount > 0 {
		parts = append(parts, m.styles.Error.Render(fmt.Sprintf("✗ %d errors", stats.ErrorCount)))
	}
	parts = append(parts, m.styles.Dim.Render("q to hide"))
	return strings.Join(parts, m.styles.Dim.Render("  │  "))
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 {
		return ""
	}
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
