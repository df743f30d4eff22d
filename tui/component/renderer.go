package component

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"docsage/llm"
)

// generatedRe matches tokens the model emits when an answer references a
// freshly produced image asset, e.g. GENERATED:chart.png.
var generatedRe = regexp.MustCompile(`GENERATED:(\S+\.(?:png|jpg|jpeg))`)

// TurnStyles holds the lipgloss styles for rendering turns.
type TurnStyles struct {
	User      lipgloss.Style
	Assistant lipgloss.Style
	Tool      lipgloss.Style
	ToolName  lipgloss.Style
	Error     lipgloss.Style
	Notice    lipgloss.Style
	Indent    lipgloss.Style
}

// DefaultTurnStyles returns the default style set.
func DefaultTurnStyles() *TurnStyles {
	return &TurnStyles{
		User:      lipgloss.NewStyle().Foreground(lipgloss.Color("#7dcfff")).Bold(true),
		Assistant: lipgloss.NewStyle().Foreground(lipgloss.Color("#bb9af7")).Bold(true),
		Tool:      lipgloss.NewStyle().Foreground(lipgloss.Color("#9ece6a")),
		ToolName:  lipgloss.NewStyle().Foreground(lipgloss.Color("#e0af68")).Bold(true),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("#f7768e")),
		Notice:    lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89")).Italic(true),
		Indent:    lipgloss.NewStyle().PaddingLeft(2),
	}
}

// TurnRenderer renders conversation turns for the viewport. Assistant
// answers go through a markdown renderer; already rendered turns are
// cached so only the newest turn is re-rendered on update.
type TurnRenderer struct {
	markdown      *glamour.TermRenderer
	styles        *TurnStyles
	renderedCache []string
	viewportWidth int
}

// NewTurnRenderer creates a renderer with default styles.
func NewTurnRenderer() *TurnRenderer {
	markdown, _ := glamour.NewTermRenderer(
		glamour.WithStylePath("dracula"),
		glamour.WithWordWrap(0),
	)
	return &TurnRenderer{
		markdown: markdown,
		styles:   DefaultTurnStyles(),
	}
}

// SetViewportWidth updates the wrap width.
func (r *TurnRenderer) SetViewportWidth(width int) {
	r.viewportWidth = width
}

// RenderTurns renders the whole history, reusing cached renderings for
// all but the last turn.
func (r *TurnRenderer) RenderTurns(turns []llm.Turn) string {
	if len(turns) == 0 {
		return "Ask a question about your indexed documents.\nType a message and press Enter to send."
	}

	if len(turns) < len(r.renderedCache) {
		r.renderedCache = r.renderedCache[:0]
	}
	for i := len(r.renderedCache); i < len(turns)-1; i++ {
		r.renderedCache = append(r.renderedCache, r.RenderTurn(turns[i]))
	}

	var sb strings.Builder
	for _, cached := range r.renderedCache {
		if cached != "" {
			sb.WriteString(cached)
			sb.WriteString("\n\n")
		}
	}
	if last := r.RenderTurn(turns[len(turns)-1]); last != "" {
		sb.WriteString(last)
	}

	content := sb.String()
	if r.viewportWidth > 0 {
		return lipgloss.NewStyle().Width(r.viewportWidth).Render(content)
	}
	return content
}

// RenderTurn renders one turn.
func (r *TurnRenderer) RenderTurn(turn llm.Turn) string {
	switch turn.Kind {
	case llm.TurnToolCall:
		return r.renderToolCall(turn)
	case llm.TurnToolResult:
		return r.renderToolResult(turn)
	}

	switch turn.Role {
	case llm.RoleUser:
		if turn.Content == "" {
			return ""
		}
		return r.styles.User.Render("You:") + " " + turn.Content
	case llm.RoleAssistant:
		return r.renderAssistant(turn)
	}
	return ""
}

func (r *TurnRenderer) renderAssistant(turn llm.Turn) string {
	if turn.Content == "" {
		return ""
	}
	header := r.styles.Assistant.Render("Assistant:")
	body := r.renderMarkdown(turn.Content)

	if names := generatedRe.FindAllStringSubmatch(turn.Content, -1); len(names) > 0 {
		var notices []string
		for _, m := range names {
			notices = append(notices, r.styles.Notice.Render(fmt.Sprintf("[image saved: %s]", m[1])))
		}
		body += "\n" + strings.Join(notices, "\n")
	}
	return header + "\n" + body
}

func (r *TurnRenderer) renderToolCall(turn llm.Turn) string {
	return r.styles.Indent.Render(
		r.styles.ToolName.Render(turn.ToolName) +
			r.styles.Tool.Render(" "+turn.ToolInput),
	)
}

func (r *TurnRenderer) renderToolResult(turn llm.Turn) string {
	if turn.IsError {
		content := turn.Content
		if content == "" {
			content = turn.ToolOutput
		}
		return r.styles.Indent.Render(r.styles.Error.Render("error: " + content))
	}
	if turn.ToolOutput == "" {
		return ""
	}
	return r.styles.Indent.Render(r.styles.Tool.Render(turn.ToolOutput))
}

// renderMarkdown renders assistant markdown, falling back to the raw
// text on error.
func (r *TurnRenderer) renderMarkdown(content string) string {
	if r.markdown == nil {
		return content
	}
	rendered, err := r.markdown.Render(content)
	if err != nil {
		return content
	}
	// glamour pads with leading and trailing newlines
	return strings.TrimSpace(rendered)
}
