package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"minisynth/internal/buildpipeline"
)

// stageInfo is how a working stage is shown and how far along it counts.
type stageInfo struct {
	label  string
	weight float64
}

var stages = map[buildpipeline.Stage]stageInfo{
	buildpipeline.StageLoad:      {"loading", 0.05},
	buildpipeline.StageParse:     {"parsing", 0.15},
	buildpipeline.StageCache:     {"cached", 0.2},
	buildpipeline.StageElaborate: {"elaborating", 0.4},
	buildpipeline.StageCollect:   {"collecting", 0.8},
	buildpipeline.StageMatch:     {"matching", 0.9},
	buildpipeline.StageExport:    {"exporting", 0.9},
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	queuedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	workingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	elapsedStyle = lipgloss.NewStyle().Faint(true)
)

const statusWidth = 12

type target struct {
	name    string
	stage   buildpipeline.Stage
	status  buildpipeline.Status
	elapsed time.Duration
}

func (t target) label() string {
	switch t.status {
	case buildpipeline.StatusDone:
		return "done"
	case buildpipeline.StatusError:
		return "error"
	case buildpipeline.StatusWorking:
		return stages[t.stage].label
	}
	return "queued"
}

func (t target) style() lipgloss.Style {
	switch t.status {
	case buildpipeline.StatusDone:
		return doneStyle
	case buildpipeline.StatusError:
		return errorStyle
	case buildpipeline.StatusWorking:
		return workingStyle
	}
	return queuedStyle
}

func (t target) finished() bool {
	return t.status == buildpipeline.StatusDone || t.status == buildpipeline.StatusError
}

type progressModel struct {
	title   string
	events  <-chan buildpipeline.Event
	spin    spinner.Model
	bar     progress.Model
	targets []target
	byName  map[string]int
	run     string // label of the last target-less event
	width   int
	done    bool
}

type (
	eventMsg  buildpipeline.Event
	closedMsg struct{}
)

// NewProgressModel renders one line per synthesis target plus an overall
// bar. The program quits when events is closed.
func NewProgressModel(title string, names []string, events <-chan buildpipeline.Event) tea.Model {
	m := &progressModel{
		title:  title,
		events: events,
		spin:   spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(workingStyle)),
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(76)),
		byName: make(map[string]int, len(names)),
		width:  80,
	}
	for _, name := range names {
		m.byName[name] = len(m.targets)
		m.targets = append(m.targets, target{name: name})
	}
	return m
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.next())
}

// next waits for one pipeline event.
func (m *progressModel) next() tea.Cmd {
	return func() tea.Msg {
		if ev, ok := <-m.events; ok {
			return eventMsg(ev)
		}
		return closedMsg{}
	}
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case eventMsg:
		cmd = tea.Batch(m.apply(buildpipeline.Event(msg)), m.next())
	case closedMsg:
		m.done = true
		cmd = tea.Quit
	case spinner.TickMsg:
		if !m.done {
			m.spin, cmd = m.spin.Update(msg)
		}
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = msg.Width - 4
		}
	case progress.FrameMsg:
		var bar tea.Model
		bar, cmd = m.bar.Update(msg)
		m.bar = bar.(progress.Model)
	}
	return m, cmd
}

func (m *progressModel) apply(ev buildpipeline.Event) tea.Cmd {
	if ev.Target == "" {
		if info, ok := stages[ev.Stage]; ok && ev.Status == buildpipeline.StatusWorking {
			m.run = info.label
		}
		return nil
	}
	i, ok := m.byName[ev.Target]
	if !ok {
		return nil
	}
	t := &m.targets[i]
	t.stage, t.status = ev.Stage, ev.Status
	t.elapsed += ev.Elapsed
	return m.bar.SetPercent(m.fraction())
}

// fraction averages the per-target stage weights; finished targets count 1.
func (m *progressModel) fraction() float64 {
	if len(m.targets) == 0 {
		return 0
	}
	var sum float64
	for _, t := range m.targets {
		if t.finished() {
			sum++
		} else if t.status == buildpipeline.StatusWorking {
			sum += stages[t.stage].weight
		}
	}
	return sum / float64(len(m.targets))
}

func (m *progressModel) View() string {
	if len(m.targets) == 0 {
		return ""
	}
	header := m.title
	if m.run != "" {
		header += " (" + m.run + ")"
	}
	if m.done {
		header = "done: " + header
	} else {
		header = m.spin.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")
	nameWidth := max(m.width-statusWidth-14, 20)
	for _, t := range m.targets {
		fmt.Fprintf(&b, "  %s %s", t.style().Render(fmt.Sprintf("%*s", statusWidth, t.label())), truncate(t.name, nameWidth))
		if t.finished() && t.elapsed > 0 {
			b.WriteString(" " + elapsedStyle.Render(t.elapsed.Round(time.Millisecond).String()))
		}
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	if m.done {
		b.WriteString(m.bar.ViewAs(1))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteByte('\n')
	return b.String()
}

// truncate shortens value to width display cells, marking the cut with "...".
func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
