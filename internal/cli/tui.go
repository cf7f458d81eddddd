package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/ffbank/pkg/observability"
	"github.com/matzehuels/ffbank/pkg/trail"
)

// Stage list styles
var (
	stageDoneStyle    = lipgloss.NewStyle().Foreground(colorGreen)
	stageRunningStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	stagePendingStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// StageProgressModel - live pipeline stage view
// =============================================================================

// stageStartedMsg and stageDoneMsg are emitted by the observability hooks.
type stageStartedMsg struct {
	stage string
	ffs   int
}

type stageDoneMsg struct {
	stage    string
	duration time.Duration
}

// pipelineDoneMsg ends the program.
type pipelineDoneMsg struct{}

// StageProgressModel is the bubbletea model showing pipeline stages as
// they run: done stages with their duration, the running stage with a
// spinner frame, pending stages dimmed.
type StageProgressModel struct {
	stages    []string
	done      map[string]time.Duration
	running   string
	ffs       int
	frame     int
	events    <-chan tea.Msg
	cancelled bool
}

// NewStageProgressModel creates the model over the standard stage order.
func NewStageProgressModel(events <-chan tea.Msg) StageProgressModel {
	return StageProgressModel{
		stages: trail.StageOrder,
		done:   make(map[string]time.Duration),
		events: events,
	}
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m StageProgressModel) waitEvent() tea.Cmd {
	return func() tea.Msg { return <-m.events }
}

func (m StageProgressModel) Init() tea.Cmd {
	return tea.Batch(tick(), m.waitEvent())
}

func (m StageProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		}
	case tickMsg:
		m.frame++
		return m, tick()
	case stageStartedMsg:
		m.running = msg.stage
		m.ffs = msg.ffs
		return m, m.waitEvent()
	case stageDoneMsg:
		m.done[msg.stage] = msg.duration
		if m.running == msg.stage {
			m.running = ""
		}
		return m, m.waitEvent()
	case pipelineDoneMsg:
		return m, tea.Quit
	}
	return m, nil
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (m StageProgressModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render("ffbank pipeline"))
	b.WriteString("\n\n")
	for _, stage := range m.stages {
		switch {
		case m.running == stage:
			frame := spinnerFrames[m.frame%len(spinnerFrames)]
			fmt.Fprintf(&b, "  %s %s %s\n",
				styleIconSpinner.Render(frame),
				stageRunningStyle.Render(stage),
				StyleDim.Render(fmt.Sprintf("(%d flip-flops)", m.ffs)))
		case m.done[stage] > 0:
			fmt.Fprintf(&b, "  %s %s %s\n",
				stageDoneStyle.Render(iconSuccess),
				StyleValue.Render(stage),
				StyleDim.Render(m.done[stage].Round(time.Millisecond).String()))
		default:
			fmt.Fprintf(&b, "    %s\n", stagePendingStyle.Render(stage))
		}
	}
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("q to abort the view (the pipeline keeps running)"))
	b.WriteString("\n")
	return b.String()
}

// =============================================================================
// Hook bridge
// =============================================================================

// tuiHooks forwards pipeline events into the bubbletea event channel.
type tuiHooks struct {
	events chan<- tea.Msg
}

func (h *tuiHooks) OnRunStart(ctx context.Context, runID, designName string, ffCount int) {}

func (h *tuiHooks) OnStageStart(ctx context.Context, stage string, ffCount int) {
	h.events <- stageStartedMsg{stage: stage, ffs: ffCount}
}

func (h *tuiHooks) OnStageComplete(ctx context.Context, stage string, d time.Duration, err error) {
	h.events <- stageDoneMsg{stage: stage, duration: d}
}

func (h *tuiHooks) OnRunComplete(ctx context.Context, runID string, d time.Duration, err error) {
	h.events <- pipelineDoneMsg{}
}

// installTUIHooks registers the bridge and returns the event channel plus
// a restore function that re-installs the no-op hooks.
func installTUIHooks() (<-chan tea.Msg, func()) {
	events := make(chan tea.Msg, 32)
	observability.SetPipelineHooks(&tuiHooks{events: events})
	return events, func() { observability.SetPipelineHooks(nil) }
}
