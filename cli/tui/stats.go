package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/latticerun/actorhost/cli/reader"
)

// StatsModel is a Bubble Tea model for stats views.
type StatsModel struct {
	viewType string
	data     any
	width    int
	height   int
	quitting bool
}

// NewStatsModel creates a new stats model.
func NewStatsModel(viewType string, data any) StatsModel {
	return StatsModel{viewType: viewType, data: data}
}

// Init implements tea.Model.
func (m StatsModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m StatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m StatsModel) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.viewType {
	case "stats_host":
		content = m.renderStatsHost()
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return content + "\n" + help
}

func (m StatsModel) renderStatsHost() string {
	data, ok := m.data.(*reader.HostStatsResponse)
	if !ok {
		return "Invalid data type for stats_host"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("Host Statistics: %s", data.HostID)))
	b.WriteString("\n\n")

	lifecycle := []string{
		m.renderStatBox("Started", int(data.InstancesStarted), lipgloss.Color("#3B82F6")),
		m.renderStatBox("Halted", int(data.InstancesHalted), mutedColor),
		m.renderStatBox("Updated", int(data.InstancesUpdated), successColor),
		m.renderStatBox("Start Fail", int(data.InstanceStartFailure), errorColor),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, lifecycle...))
	b.WriteString("\n\n")

	invocations := []string{
		m.renderStatBox("Total", int(data.InvocationsTotal), lipgloss.Color("#3B82F6")),
		m.renderStatBox("Succeeded", int(data.InvocationsSucceeded), successColor),
		m.renderStatBox("Failed", int(data.InvocationsFailed), errorColor),
		m.renderStatBox("Decode Err", int(data.DecodeErrors), warningColor),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, invocations...))

	if len(data.GateRejections) > 0 {
		b.WriteString("\n\n")
		b.WriteString(TitleStyle.Render("Gate Rejections"))
		b.WriteString("\n")
		for gate, count := range data.GateRejections {
			b.WriteString(fmt.Sprintf("%s %s\n", LabelStyle.Render(gate+":"), ValueStyle.Render(fmt.Sprintf("%d", count))))
		}
	}

	return b.String()
}

func (m StatsModel) renderStatBox(label string, value int, color lipgloss.Color) string {
	boxStyle := StatBoxStyle.BorderForeground(color)

	valueStr := StatValueStyle.Foreground(color).Render(fmt.Sprintf("%d", value))
	labelStr := StatLabelStyle.Render(label)

	content := lipgloss.JoinVertical(lipgloss.Center, valueStr, labelStr)

	return boxStyle.Render(content)
}

// RunStatsTUI runs the stats TUI.
func RunStatsTUI(viewType string, data any) error {
	model := NewStatsModel(viewType, data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderStatsStatic renders stats data without full TUI (for fallback).
func RenderStatsStatic(viewType string, data any) string {
	model := NewStatsModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
