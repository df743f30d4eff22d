package component

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"docsage/llm"
	"docsage/pubsub"
)

// ListModel shows the conversation history in a scrollable viewport.
// Rendering is delegated to TurnRenderer.
type ListModel struct {
	viewport viewport.Model
	turns    []llm.Turn
	renderer *TurnRenderer
	width    int
	height   int
	ready    bool
}

// NewListModel creates the history component.
func NewListModel() ListModel {
	vp := viewport.New(30, 30)
	vp.SetContent("Ask a question about your indexed documents.\nType a message and press Enter to send.")

	return ListModel{
		viewport: vp,
		renderer: NewTurnRenderer(),
		width:    30,
		height:   5,
		ready:    true,
	}
}

func (m ListModel) Init() tea.Cmd {
	return nil
}

func (m ListModel) Update(msg tea.Msg) (ListModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.viewport.ScrollUp(3)
		case tea.MouseButtonWheelDown:
			m.viewport.ScrollDown(3)
		}
	case pubsub.Event[llm.Turn]:
		if msg.Type != pubsub.FinishedEvent {
			m.turns = append(m.turns, msg.Payload)
			m.updateViewportContent()
			m.viewport.GotoBottom()
		}
		return m, nil
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m ListModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	return m.viewport.View()
}

// SetSize resizes the viewport and re-renders at the new width.
func (m *ListModel) SetSize(width, height int) {
	m.width = width
	m.height = height

	if height < 1 {
		height = 1
	}

	m.viewport.Width = width
	m.viewport.Height = height
	m.ready = true

	m.renderer.SetViewportWidth(width)
	if len(m.turns) > 0 {
		m.updateViewportContent()
	}
	m.viewport.GotoBottom()
}

func (m *ListModel) updateViewportContent() {
	m.viewport.SetContent(m.renderer.RenderTurns(m.turns))
}
