package llm

// Chunk is the unit of storage and retrieval: a bounded-size slice of one
// source document's text plus the metadata needed to cite it.
type Chunk struct {
	ID         string         `json:"id"`
	Content    string         `json:"content"`
	Source     string         `json:"source"`
	ChunkIndex int            `json:"chunk_index"`
	PageNum    int            `json:"page_num,omitempty"`
	ImagePaths []string       `json:"image_paths,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  string         `json:"created_at"`
}

// SearchResult pairs a retrieved chunk with its similarity score in [0,1].
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// TurnKind discriminates conversation turn payloads. Consumers switch on
// the kind, never on the concrete content shape.
type TurnKind string

const (
	TurnText         TurnKind = "text"
	TurnToolCall     TurnKind = "tool_call"
	TurnToolResult   TurnKind = "tool_result"
	TurnInputRequest TurnKind = "input_request"
)

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Turn is one exchange in a conversation. Content carries the text for
// TurnText turns; ToolName/ToolInput/ToolOutput are set for tool turns.
type Turn struct {
	Kind       TurnKind `json:"kind"`
	Role       Role     `json:"role"`
	Content    string   `json:"content,omitempty"`
	ToolName   string   `json:"tool_name,omitempty"`
	ToolInput  string   `json:"tool_input,omitempty"`
	ToolOutput string   `json:"tool_output,omitempty"`
	IsError    bool     `json:"is_error,omitempty"`
}
