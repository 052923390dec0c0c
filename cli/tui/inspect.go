package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/latticerun/actorhost/cli/reader"
)

// InspectModel is a Bubble Tea model for inspect views.
type InspectModel struct {
	viewType string
	data     any
	width    int
	height   int
	quitting bool
}

// NewInspectModel creates a new inspect model.
func NewInspectModel(viewType string, data any) InspectModel {
	return InspectModel{viewType: viewType, data: data}
}

// Init implements tea.Model.
func (m InspectModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m InspectModel) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.viewType {
	case "inspect_instance":
		content = m.renderInspectInstance()
	case "inspect_host":
		content = m.renderInspectHost()
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return content + "\n" + help
}

func (m InspectModel) renderInspectInstance() string {
	data, ok := m.data.(*reader.InspectInstanceResponse)
	if !ok {
		return "Invalid data type for inspect_instance"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Instance Details"))
	b.WriteString("\n\n")

	health := "halted"
	if data.Healthy {
		health = "healthy"
	}

	rows := [][2]string{
		{"Instance ID", data.InstanceID},
		{"Public Key", data.PublicKey},
		{"Host ID", data.HostID},
		{"Lattice Prefix", data.LatticePrefix},
		{"Health", health},
	}
	if data.ImageRef != "" {
		rows = append(rows, [2]string{"Image Ref", data.ImageRef})
	}
	if data.CurrentOp != "" {
		rows = append(rows, [2]string{"Current Op", data.CurrentOp})
	}

	for _, row := range rows {
		label := LabelStyle.Render(row[0] + ":")
		value := row[1]
		if row[0] == "Health" {
			value = StateStyle(value).Render(value)
		} else {
			value = ValueStyle.Render(value)
		}
		b.WriteString(fmt.Sprintf("%s %s\n", label, value))
	}

	if len(data.Capabilities) > 0 {
		b.WriteString("\n")
		b.WriteString(LabelStyle.Render("Capabilities:\n"))
		for _, cap := range data.Capabilities {
			b.WriteString(fmt.Sprintf("  • %s\n", ValueStyle.Render(cap)))
		}
	}

	return BoxStyle.Render(b.String())
}

func (m InspectModel) renderInspectHost() string {
	data, ok := m.data.(*reader.InspectHostResponse)
	if !ok {
		return "Invalid data type for inspect_host"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Host Details"))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("%s %s\n", LabelStyle.Render("Host ID:"), ValueStyle.Render(data.HostID)))
	b.WriteString(fmt.Sprintf("%s %s\n", LabelStyle.Render("Lattice Prefix:"), ValueStyle.Render(data.LatticePrefix)))
	b.WriteString(fmt.Sprintf("%s %s\n", LabelStyle.Render("Instances:"), ValueStyle.Render(fmt.Sprintf("%d", data.InstanceCount))))

	return BoxStyle.Render(b.String())
}

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// RunInspectTUI runs the inspect TUI.
func RunInspectTUI(viewType string, data any) error {
	model := NewInspectModel(viewType, data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderInspectStatic renders inspect data without full TUI (for fallback).
func RenderInspectStatic(viewType string, data any) string {
	model := NewInspectModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
