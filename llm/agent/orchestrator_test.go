package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsage/llm"
	"docsage/llm/rag"
)

type stubMemory struct {
	results []llm.SearchResult
}

func (s *stubMemory) Add(ctx context.Context, chunk llm.Chunk) error         { return nil }
func (s *stubMemory) AddBatch(ctx context.Context, chunks []llm.Chunk) error { return nil }
func (s *stubMemory) Count(ctx context.Context) (int64, error)               { return 0, nil }
func (s *stubMemory) Clear(ctx context.Context) error                        { return nil }
func (s *stubMemory) Close() error                                           { return nil }

func (s *stubMemory) Query(ctx context.Context, text string, topK int, scoreThreshold float64) ([]llm.SearchResult, error) {
	return s.results, nil
}

type stubModel struct {
	reply string
	err   error
	calls int
}

func (s *stubModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return schema.AssistantMessage(s.reply, nil), nil
}

func (s *stubModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func newTestOrchestrator(mdl *stubModel, maxTurns int) *Orchestrator {
	mem := &stubMemory{results: []llm.SearchResult{
		{Chunk: llm.Chunk{Content: "some context", Source: "doc.md"}, Score: 0.8},
	}}
	return NewOrchestrator(
		rag.NewRetriever(mem, 3, 0.3),
		rag.NewAssembler(0),
		rag.NewSynthesizer(mdl, nil),
		maxTurns,
	)
}

func TestAskRecordsFullExchange(t *testing.T) {
	mdl := &stubModel{reply: "grounded answer"}
	o := newTestOrchestrator(mdl, 20)
	defer o.Close()

	answer, err := o.Ask(context.Background(), "what is this?")
	require.NoError(t, err)
	assert.Equal(t, "grounded answer", answer)
	assert.Equal(t, StateAwaitingInput, o.State())

	turns, err := o.Store().List(context.Background())
	require.NoError(t, err)
	require.Len(t, turns, 4)

	assert.Equal(t, llm.RoleUser, turns[0].Role)
	assert.Equal(t, "what is this?", turns[0].Content)
	assert.Equal(t, llm.TurnToolCall, turns[1].Kind)
	assert.Equal(t, "retrieve", turns[1].ToolName)
	assert.Equal(t, llm.TurnToolResult, turns[2].Kind)
	assert.Contains(t, turns[2].ToolOutput, "doc.md#0")
	assert.Equal(t, llm.RoleAssistant, turns[3].Role)
	assert.Equal(t, "grounded answer", turns[3].Content)
}

func TestUserSentinelTerminatesWithoutSynthesis(t *testing.T) {
	mdl := &stubModel{reply: "never used"}
	o := newTestOrchestrator(mdl, 20)
	defer o.Close()

	answer, err := o.Ask(context.Background(), "TERMINATE")
	require.NoError(t, err)
	assert.Empty(t, answer)
	assert.Equal(t, StateTerminated, o.State())
	assert.Zero(t, mdl.calls)

	_, err = o.Ask(context.Background(), "anything else")
	assert.ErrorIs(t, err, ErrConversationOver)
}

func TestAssistantSentinelTerminates(t *testing.T) {
	mdl := &stubModel{reply: "final words TERMINATE"}
	o := newTestOrchestrator(mdl, 20)
	defer o.Close()

	answer, err := o.Ask(context.Background(), "wrap it up")
	require.NoError(t, err)
	assert.Equal(t, "final words", answer)
	assert.Equal(t, StateTerminated, o.State())

	// No further synthesis happens after termination.
	_, err = o.Ask(context.Background(), "one more")
	assert.ErrorIs(t, err, ErrConversationOver)
	assert.Equal(t, 1, mdl.calls)
}

func TestMaxTurnsTerminates(t *testing.T) {
	mdl := &stubModel{reply: "answer"}
	o := newTestOrchestrator(mdl, 2)
	defer o.Close()

	_, err := o.Ask(context.Background(), "first")
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingInput, o.State())

	_, err = o.Ask(context.Background(), "second")
	require.NoError(t, err)
	assert.Equal(t, StateTerminated, o.State())

	_, err = o.Ask(context.Background(), "third")
	assert.ErrorIs(t, err, ErrConversationOver)
	assert.Equal(t, 2, mdl.calls)
}

func TestSynthesisErrorDoesNotTerminate(t *testing.T) {
	mdl := &stubModel{err: errors.New("model unavailable")}
	o := newTestOrchestrator(mdl, 20)
	defer o.Close()

	_, err := o.Ask(context.Background(), "question")
	require.Error(t, err)

	var serr *rag.SynthesisError
	assert.ErrorAs(t, err, &serr)

	// The failure is recorded as an error turn and the conversation
	// stays usable.
	assert.Equal(t, StateAwaitingInput, o.State())
	turns, _ := o.Store().List(context.Background())
	last := turns[len(turns)-1]
	assert.True(t, last.IsError)

	mdl.err = nil
	mdl.reply = "recovered"
	answer, err := o.Ask(context.Background(), "retry")
	require.NoError(t, err)
	assert.Equal(t, "recovered", answer)
}

func TestTurnsArePublished(t *testing.T) {
	mdl := &stubModel{reply: "published"}
	o := newTestOrchestrator(mdl, 20)
	defer o.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := o.Broker().Subscribe(ctx)

	_, err := o.Ask(context.Background(), "hello")
	require.NoError(t, err)

	var got []llm.Turn
	for i := 0; i < 4; i++ {
		event := <-sub
		got = append(got, event.Payload)
	}
	assert.Equal(t, llm.RoleUser, got[0].Role)
	assert.Equal(t, "published", got[3].Content)
}

func TestMemoryStoreSnapshotRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, llm.Turn{Kind: llm.TurnText, Role: llm.RoleUser, Content: "hi"}))
	require.NoError(t, store.Add(ctx, llm.Turn{Kind: llm.TurnText, Role: llm.RoleAssistant, Content: "hello"}))

	data, err := store.Snapshot()
	require.NoError(t, err)

	restored := NewMemoryStore()
	require.NoError(t, restored.Restore(data))

	turns, err := restored.List(ctx)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "hi", turns[0].Content)
	assert.Equal(t, llm.RoleAssistant, turns[1].Role)
}
