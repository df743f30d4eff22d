package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"docsage/llm"
	"docsage/llm/rag"
	"docsage/pubsub"
)

// TerminateSentinel ends the conversation when it appears in a user
// input or an assistant answer. It is stripped from displayed output.
const TerminateSentinel = "TERMINATE"

// ErrConversationOver is returned by Ask once the conversation has
// terminated. No further synthesis happens after that point.
var ErrConversationOver = errors.New("conversation has terminated")

// ErrTurnInFlight is returned by Ask while a previous question is still
// being answered. Callers retry after the current turn completes.
var ErrTurnInFlight = errors.New("a turn is already in flight")

// State labels where the orchestrator is in its turn cycle.
type State string

const (
	StateAwaitingInput State = "awaiting_input"
	StateProcessing    State = "processing"
	StateResponding    State = "responding"
	StateTerminated    State = "terminated"
)

// Orchestrator drives the question answering loop: retrieve, assemble,
// synthesize, record. It owns the conversation state machine and
// publishes every turn to its broker for UI consumption.
type Orchestrator struct {
	retriever   *rag.Retriever
	assembler   *rag.Assembler
	synthesizer *rag.Synthesizer
	store       ConversationStore
	broker      *pubsub.Broker[llm.Turn]

	// mu serializes turns: at most one question is in flight.
	mu        sync.Mutex
	state     State
	turnCount int
	maxTurns  int
}

// NewOrchestrator wires the pipeline. maxTurns bounds the number of
// question/answer exchanges and defaults to 20.
func NewOrchestrator(retriever *rag.Retriever, assembler *rag.Assembler, synthesizer *rag.Synthesizer, maxTurns int) *Orchestrator {
	if maxTurns <= 0 {
		maxTurns = 20
	}
	return &Orchestrator{
		retriever:   retriever,
		assembler:   assembler,
		synthesizer: synthesizer,
		store:       NewMemoryStore(),
		broker:      pubsub.NewBroker[llm.Turn](),
		state:       StateAwaitingInput,
		maxTurns:    maxTurns,
	}
}

// State reports the current conversation state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Broker exposes the turn event stream.
func (o *Orchestrator) Broker() *pubsub.Broker[llm.Turn] {
	return o.broker
}

// Store exposes the conversation history.
func (o *Orchestrator) Store() ConversationStore {
	return o.store
}

// Close terminates the conversation and shuts down the event stream.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.state != StateTerminated {
		o.state = StateTerminated
	}
	o.mu.Unlock()
	o.broker.Shutdown()
}

// Resume replaces the conversation history with a previously saved
// snapshot. Call before the first Ask.
func (o *Orchestrator) Resume(data []byte) error {
	ms, ok := o.store.(*MemoryStore)
	if !ok {
		return errors.New("store does not support restore")
	}
	return ms.Restore(data)
}

// Ask runs one full question/answer exchange. At most one turn is in
// flight; concurrent calls fail with ErrTurnInFlight. After termination,
// by sentinel or by reaching the turn limit, further calls return
// ErrConversationOver without touching the models.
func (o *Orchestrator) Ask(ctx context.Context, input string) (string, error) {
	if !o.mu.TryLock() {
		return "", ErrTurnInFlight
	}
	defer o.mu.Unlock()

	if o.state == StateTerminated {
		return "", ErrConversationOver
	}

	userTurn := llm.Turn{Kind: llm.TurnText, Role: llm.RoleUser, Content: input}
	o.record(ctx, userTurn)

	if strings.TrimSpace(input) == TerminateSentinel {
		o.terminate()
		return "", nil
	}

	o.state = StateProcessing

	results, err := o.retriever.Retrieve(ctx, input)
	if err != nil {
		o.fail(ctx, err)
		return "", err
	}
	o.recordRetrieval(ctx, input, results)

	prompt := o.assembler.Assemble(input, results)

	o.state = StateResponding
	answer, err := o.synthesizer.Generate(ctx, prompt)
	if err != nil {
		o.fail(ctx, err)
		return "", err
	}

	answer, terminated := stripSentinel(answer)
	o.record(ctx, llm.Turn{Kind: llm.TurnText, Role: llm.RoleAssistant, Content: answer})

	o.turnCount++
	if terminated || o.turnCount >= o.maxTurns {
		o.terminate()
	} else {
		o.state = StateAwaitingInput
		o.broker.Publish(pubsub.UpdatedEvent, llm.Turn{
			Kind: llm.TurnInputRequest,
			Role: llm.RoleAssistant,
		})
	}
	return answer, nil
}

// record stores a turn and publishes it to subscribers.
func (o *Orchestrator) record(ctx context.Context, turn llm.Turn) {
	_ = o.store.Add(ctx, turn)
	o.broker.Publish(pubsub.CreatedEvent, turn)
}

// recordRetrieval surfaces what the retriever found as a tool exchange,
// so UIs can show the evidence behind the answer.
func (o *Orchestrator) recordRetrieval(ctx context.Context, query string, results []llm.SearchResult) {
	o.record(ctx, llm.Turn{
		Kind:      llm.TurnToolCall,
		Role:      llm.RoleAssistant,
		ToolName:  "retrieve",
		ToolInput: query,
	})

	var sb strings.Builder
	if len(results) == 0 {
		sb.WriteString("no relevant chunks found")
	}
	for i, r := range results {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%s#%d (score %.3f)", r.Chunk.Source, r.Chunk.ChunkIndex, r.Score)
	}
	o.record(ctx, llm.Turn{
		Kind:       llm.TurnToolResult,
		Role:       llm.RoleTool,
		ToolName:   "retrieve",
		ToolOutput: sb.String(),
	})
}

// fail records the error as an error turn and resets for another try.
// Pipeline errors do not terminate the conversation.
func (o *Orchestrator) fail(ctx context.Context, err error) {
	o.record(ctx, llm.Turn{
		Kind:    llm.TurnToolResult,
		Role:    llm.RoleTool,
		Content: err.Error(),
		IsError: true,
	})
	o.state = StateAwaitingInput
}

// terminate moves to the terminal state and signals subscribers. The
// broker stays open so late subscribers still drain buffered turns.
func (o *Orchestrator) terminate() {
	o.state = StateTerminated
	o.broker.Publish(pubsub.FinishedEvent, llm.Turn{
		Kind: llm.TurnText,
		Role: llm.RoleAssistant,
	})
}

// stripSentinel removes a trailing termination marker from an answer.
func stripSentinel(answer string) (string, bool) {
	if !strings.Contains(answer, TerminateSentinel) {
		return answer, false
	}
	cleaned := strings.TrimSpace(strings.ReplaceAll(answer, TerminateSentinel, ""))
	return cleaned, true
}
