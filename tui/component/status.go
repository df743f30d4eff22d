package component

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docsage/llm"
	"docsage/pubsub"
)

// StatusModel shows a spinner while an answer is being produced.
type StatusModel struct {
	spinner spinner.Model
	running bool
	text    string
	width   int
}

// NewStatusModel creates the status line component.
func NewStatusModel() StatusModel {
	s := spinner.New()
	s.Spinner = spinner.Jump
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return StatusModel{
		spinner: s,
		text:    "Ready",
	}
}

func (m StatusModel) Init() tea.Cmd {
	return nil
}

func (m StatusModel) Update(msg tea.Msg) (StatusModel, tea.Cmd) {
	switch msg := msg.(type) {
	case pubsub.Event[llm.Turn]:
		turn := msg.Payload
		switch {
		case msg.Type == pubsub.FinishedEvent:
			m.running = false
			m.text = "Conversation ended"
			return m, nil
		case turn.Role == llm.RoleUser:
			if !m.running {
				m.running = true
				m.text = "Thinking..."
				return m, m.spinner.Tick
			}
		case turn.Kind == llm.TurnText && turn.Role == llm.RoleAssistant:
			m.running = false
			m.text = "Ready"
			return m, nil
		case turn.IsError:
			m.running = false
			m.text = "Error, see above"
			return m, nil
		}
	}

	if m.running {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m StatusModel) View() string {
	style := lipgloss.NewStyle().Padding(1, 0)
	content := m.text
	if m.running {
		content = fmt.Sprintf("%s %s", m.spinner.View(), m.text)
	}
	return style.Render(content)
}

// SetWidth resizes the status line.
func (m *StatusModel) SetWidth(width int) {
	m.width = width
}

// IsRunning reports whether the spinner is active.
func (m StatusModel) IsRunning() bool {
	return m.running
}
