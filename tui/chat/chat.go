package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docsage/llm"
	"docsage/llm/agent"
	"docsage/pubsub"
	"docsage/tui/component"
)

// Model is the top-level chat UI: history list, status line, input box.
type Model struct {
	list   component.ListModel
	edit   component.EditModel
	status component.StatusModel

	orch *agent.Orchestrator
	sub  <-chan pubsub.Event[llm.Turn]
	ctx  context.Context

	width  int
	height int
}

// InitialModel subscribes to the orchestrator's turn stream and builds
// the UI.
func InitialModel(orch *agent.Orchestrator) Model {
	ctx := context.Background()
	sub := orch.Broker().Subscribe(ctx)

	return Model{
		list:   component.NewListModel(),
		edit:   component.NewEditModel(),
		status: component.NewStatusModel(),
		orch:   orch,
		sub:    sub,
		ctx:    ctx,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.list.Init(),
		m.edit.Init(),
		m.status.Init(),
		m.waitForTurn(),
	)
}

// waitForTurn blocks on the event stream and feeds turns back into the
// update loop.
func (m Model) waitForTurn() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-m.sub
		if !ok {
			return tea.Quit()
		}
		return event
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		statusHeight := lipgloss.Height(m.status.View())
		editHeight := m.edit.Height()
		listHeight := m.height - statusHeight - editHeight

		m.list.SetSize(m.width, listHeight)
		m.edit.SetWidth(m.width)
		m.status.SetWidth(m.width)

	case component.EditorSubmitMsg:
		// The pipeline runs off the UI loop; turns come back through
		// the subscription.
		go func() {
			_, _ = m.orch.Ask(m.ctx, msg.Value)
		}()

	case pubsub.Event[llm.Turn]:
		cmds = append(cmds, m.waitForTurn())

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd

	m.list, cmd = m.list.Update(msg)
	cmds = append(cmds, cmd)

	m.edit, cmd = m.edit.Update(msg)
	cmds = append(cmds, cmd)

	m.status, cmd = m.status.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.list.View(),
		m.status.View(),
		m.edit.View(),
	)
}
