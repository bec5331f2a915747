package agent

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiancaiamao/nanocode/pkg/console"
	"github.com/tiancaiamao/nanocode/pkg/llm"
	"github.com/tiancaiamao/nanocode/pkg/session"
	"github.com/tiancaiamao/nanocode/pkg/tools"
)

// scriptedBackend replays one fixed event stream per request and records
// every request it received.
type scriptedBackend struct {
	scripts  [][]llm.StreamEvent
	requests []llm.ChatRequest
}

func (b *scriptedBackend) Stream(ctx context.Context, req llm.ChatRequest) *llm.EventStream[llm.StreamEvent, *llm.Message] {
	b.requests = append(b.requests, req)
	events := b.scripts[len(b.requests)-1]

	stream := llm.NewEventStream[llm.StreamEvent, *llm.Message](
		func(e llm.StreamEvent) bool {
			switch e.(type) {
			case llm.DoneEvent, llm.ErrorEvent:
				return true
			default:
				return false
			}
		},
		func(e llm.StreamEvent) *llm.Message {
			if done, ok := e.(llm.DoneEvent); ok {
				return done.Message
			}
			return nil
		},
	)
	go func() {
		defer stream.End(nil)
		for _, ev := range events {
			stream.Push(ev)
		}
	}()
	return stream
}

func assistantWith(text string, calls ...llm.ToolCall) llm.Message {
	return llm.Message{Role: "assistant", Content: text, ToolCalls: calls}
}

func doneEvent(msg llm.Message) llm.StreamEvent {
	return llm.DoneEvent{Message: &msg, StopReason: "stop"}
}

func echoCall(id, value string) llm.ToolCall {
	return llm.ToolCall{
		ID:   id,
		Type: "function",
		Function: llm.FunctionCall{
			Name:      "echo",
			Arguments: `{"value":"` + value + `"}`,
		},
	}
}

// newLoopFixture builds a loop over a scripted backend, a registry with a
// single recording "echo" tool, and an unstyled console.
func newLoopFixture(t *testing.T, scripts [][]llm.StreamEvent, callLog *[]string) (*Loop, *session.Session, *scriptedBackend, *bytes.Buffer) {
	t.Helper()

	backend := &scriptedBackend{scripts: scripts}
	registry := tools.NewRegistry()
	err := registry.Register(tools.Tool{
		Def: tools.Definition{
			Name:        "echo",
			Description: "Echo a value",
			Params:      []tools.Param{{Name: "value", Type: tools.TypeString}},
		},
		Exec: func(ctx context.Context, args tools.Args) (string, error) {
			value, err := args.String("value")
			if err != nil {
				return "", err
			}
			if callLog != nil {
				*callLog = append(*callLog, value)
			}
			return "echo: " + value, nil
		},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	cons := console.NewWithStyles(&buf, console.Styles{})
	sess := session.NewSession("grok-test", "test system prompt", session.DefaultProfile())
	return NewLoop(backend, registry, cons), sess, backend, &buf
}

func TestRunTurnPlainTextResponse(t *testing.T) {
	scripts := [][]llm.StreamEvent{{
		llm.TextDeltaEvent{Delta: "Hello"},
		llm.TextDeltaEvent{Delta: " there"},
		doneEvent(assistantWith("Hello there")),
	}}
	loop, sess, backend, buf := newLoopFixture(t, scripts, nil)

	err := loop.RunTurn(context.Background(), sess, "hi")
	require.NoError(t, err)

	msgs := sess.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "user", msgs[1].Role)
	assert.Equal(t, "hi", msgs[1].Content)
	assert.Equal(t, "assistant", msgs[2].Role)
	assert.Equal(t, "Hello there", msgs[2].Content)

	require.Len(t, backend.requests, 1)
	req := backend.requests[0]
	assert.Equal(t, "grok-test", req.Model)
	require.Len(t, req.Messages, 2) // system + user
	require.Len(t, req.Tools, 1)
	assert.Equal(t, "echo", req.Tools[0].Function.Name)
	assert.Len(t, req.ServerTools, 2)

	out := buf.String()
	assert.Contains(t, out, "Hello there")
	assert.True(t, strings.HasSuffix(out, "\n"), "turn output must close with a newline")
}

func TestRunTurnOneDispatchRoundPerResponse(t *testing.T) {
	calls := []llm.ToolCall{echoCall("c1", "first"), echoCall("c2", "second")}
	scripts := [][]llm.StreamEvent{
		{
			llm.ToolCallDeltaEvent{Index: 0, ID: "c1", Name: "echo", Arguments: `{"value":"first"}`},
			llm.ToolCallDeltaEvent{Index: 1, ID: "c2", Name: "echo", Arguments: `{"value":"second"}`},
			doneEvent(assistantWith("", calls...)),
		},
		{
			llm.TextDeltaEvent{Delta: "done"},
			doneEvent(assistantWith("done")),
		},
	}
	var callLog []string
	loop, sess, backend, buf := newLoopFixture(t, scripts, &callLog)

	err := loop.RunTurn(context.Background(), sess, "run them")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, callLog)

	// The re-query carries the calls and one result per call, in order.
	require.Len(t, backend.requests, 2)
	second := backend.requests[1].Messages
	require.Len(t, second, 5) // system, user, assistant, tool, tool
	assert.Equal(t, "assistant", second[2].Role)
	require.Len(t, second[2].ToolCalls, 2)
	assert.Equal(t, "tool", second[3].Role)
	assert.Equal(t, "c1", second[3].ToolCallID)
	assert.Equal(t, "echo: first", second[3].Content)
	assert.Equal(t, "tool", second[4].Role)
	assert.Equal(t, "c2", second[4].ToolCallID)
	assert.Equal(t, "echo: second", second[4].Content)

	msgs := sess.Messages()
	require.Len(t, msgs, 6)
	assert.Equal(t, "assistant", msgs[5].Role)
	assert.Equal(t, "done", msgs[5].Content)

	out := buf.String()
	assert.Contains(t, out, "⏺ Echo(first)")
	assert.Contains(t, out, "⎿  echo: first")
	assert.Contains(t, out, "⏺ Echo(second)")
	assert.Contains(t, out, "done")
}

func TestRunTurnUnknownToolStillAnswered(t *testing.T) {
	calls := []llm.ToolCall{
		echoCall("k1", "ok"),
		{ID: "u1", Type: "function", Function: llm.FunctionCall{Name: "teleport", Arguments: `{"dest":"moon"}`}},
	}
	scripts := [][]llm.StreamEvent{
		{doneEvent(assistantWith("", calls...))},
		{doneEvent(assistantWith("all good"))},
	}
	loop, sess, _, buf := newLoopFixture(t, scripts, nil)

	err := loop.RunTurn(context.Background(), sess, "go")
	require.NoError(t, err)

	msgs := sess.Messages()
	require.Len(t, msgs, 6)
	assert.Equal(t, "tool", msgs[4].Role)
	assert.Equal(t, "u1", msgs[4].ToolCallID)
	assert.Equal(t, "Unknown tool: teleport", msgs[4].Content)

	out := buf.String()
	assert.Contains(t, out, "⏺ Unknown tool: teleport")
	assert.Equal(t, 1, strings.Count(out, "⎿"), "unknown tool must not print a result preview")
}

func TestRunTurnToolFaultContinuesTurn(t *testing.T) {
	badCall := llm.ToolCall{
		ID:       "b1",
		Type:     "function",
		Function: llm.FunctionCall{Name: "echo", Arguments: `{}`},
	}
	scripts := [][]llm.StreamEvent{
		{doneEvent(assistantWith("", badCall))},
		{doneEvent(assistantWith("recovered"))},
	}
	loop, sess, _, _ := newLoopFixture(t, scripts, nil)

	err := loop.RunTurn(context.Background(), sess, "go")
	require.NoError(t, err)

	msgs := sess.Messages()
	require.Len(t, msgs, 6)
	assert.Contains(t, msgs[4].Content, "error: missing required argument")
	assert.Equal(t, "recovered", msgs[5].Content)
}

func TestRunTurnStreamFaultAbortsTurn(t *testing.T) {
	scripts := [][]llm.StreamEvent{{
		llm.ErrorEvent{Err: &llm.APIError{StatusCode: 500, Message: "overloaded"}},
	}}
	loop, sess, _, _ := newLoopFixture(t, scripts, nil)

	err := loop.RunTurn(context.Background(), sess, "hi")
	require.Error(t, err)
	var apiErr *llm.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 500, apiErr.StatusCode)

	// No assistant message reaches the history on a stream fault.
	require.Len(t, sess.Messages(), 2)
}

func TestRunTurnEmptyAssistantStillAppended(t *testing.T) {
	scripts := [][]llm.StreamEvent{{doneEvent(assistantWith(""))}}
	loop, sess, _, _ := newLoopFixture(t, scripts, nil)

	err := loop.RunTurn(context.Background(), sess, "hi")
	require.NoError(t, err)

	msgs := sess.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "assistant", msgs[2].Role)
	assert.Empty(t, msgs[2].Content)
}

func TestRunTurnEncryptedContentEchoedBack(t *testing.T) {
	first := assistantWith("", echoCall("c1", "x"))
	first.EncryptedContent = "opaque-blob"
	scripts := [][]llm.StreamEvent{
		{doneEvent(first)},
		{doneEvent(assistantWith("done"))},
	}
	loop, sess, backend, _ := newLoopFixture(t, scripts, nil)

	err := loop.RunTurn(context.Background(), sess, "go")
	require.NoError(t, err)

	require.Len(t, backend.requests, 2)
	second := backend.requests[1].Messages
	require.Len(t, second, 5)
	assert.Equal(t, "opaque-blob", second[2].EncryptedContent)
}

func TestRunTurnIndicatorClearedBeforeToolOutput(t *testing.T) {
	scripts := [][]llm.StreamEvent{
		{doneEvent(assistantWith("", echoCall("c1", "x")))},
		{doneEvent(assistantWith("done"))},
	}
	loop, sess, _, buf := newLoopFixture(t, scripts, nil)

	err := loop.RunTurn(context.Background(), sess, "go")
	require.NoError(t, err)

	out := buf.String()
	clear := "\r" + strings.Repeat(" ", 20) + "\r"
	firstFrame := strings.Index(out, "Loading...")
	firstClear := strings.Index(out, clear)
	firstMarker := strings.Index(out, "⏺")
	require.GreaterOrEqual(t, firstFrame, 0)
	require.Greater(t, firstClear, firstFrame, "indicator must be cleared after drawing")
	require.Greater(t, firstMarker, firstClear, "tool line must come after the indicator is cleared")
}

func TestRunTurnCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loop, sess, backend, _ := newLoopFixture(t, [][]llm.StreamEvent{}, nil)
	err := loop.RunTurn(ctx, sess, "hi")
	require.ErrorIs(t, err, context.Canceled)

	// The user message stays; nothing was sent.
	require.Len(t, sess.Messages(), 2)
	assert.Empty(t, backend.requests)
}
