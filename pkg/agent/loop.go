// Package agent drives a user turn against the backend: stream the
// assistant response, dispatch the tool calls it requested, feed the
// results back, and repeat until the backend answers without tools.
package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tiancaiamao/nanocode/pkg/console"
	"github.com/tiancaiamao/nanocode/pkg/llm"
	"github.com/tiancaiamao/nanocode/pkg/session"
	"github.com/tiancaiamao/nanocode/pkg/tools"
)

// Backend issues one streaming completion per call.
type Backend interface {
	Stream(ctx context.Context, req llm.ChatRequest) *llm.EventStream[llm.StreamEvent, *llm.Message]
}

// Loop runs the agentic cycle for one session. Tool dispatch is
// synchronous and strictly ordered; there is no cap on the number of
// cycles within a turn.
type Loop struct {
	backend  Backend
	registry *tools.Registry
	console  *console.Console
}

// NewLoop wires a loop from its collaborators.
func NewLoop(backend Backend, registry *tools.Registry, cons *console.Console) *Loop {
	return &Loop{backend: backend, registry: registry, console: cons}
}

// RunTurn appends input as a user message and cycles until the assistant
// stops requesting tools. Stream faults abort the turn with an error;
// tool faults are absorbed into tool results and the turn continues.
func (l *Loop) RunTurn(ctx context.Context, sess *session.Session, input string) error {
	sess.Append(llm.NewUserMessage(input))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, err := l.streamCycle(ctx, sess)
		if err != nil {
			return err
		}

		// The assistant message joins the history even when it carries
		// no text, so tool results always follow their calls.
		sess.Append(*msg)

		if len(msg.ToolCalls) == 0 {
			l.console.Newline()
			return nil
		}

		for _, call := range msg.ToolCalls {
			if err := ctx.Err(); err != nil {
				return err
			}
			l.dispatchCall(ctx, sess, call)
		}
	}
}

// streamCycle issues one completion over the full history and returns the
// assembled assistant message, echoing text deltas as they arrive. The
// indicator runs from request issue until the first fragment and is fully
// joined before any other output.
func (l *Loop) streamCycle(ctx context.Context, sess *session.Session) (*llm.Message, error) {
	req := llm.ChatRequest{
		Model:       sess.Model(),
		Messages:    sess.Messages(),
		Tools:       l.registry.Schema(),
		ServerTools: sess.Profile().ServerTools(),
	}

	indicator := l.console.StartIndicator()
	defer indicator.Stop()

	stream := l.backend.Stream(ctx, req)

	var done *llm.DoneEvent
	for ev := range stream.Iterator(ctx) {
		indicator.Stop()
		switch event := ev.Value.(type) {
		case llm.TextDeltaEvent:
			l.console.Text(event.Delta)
		case llm.DoneEvent:
			done = &event
		case llm.ErrorEvent:
			return nil, event.Err
		}
	}
	indicator.Stop()

	if done == nil || done.Message == nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("stream ended without a final message")
	}

	slog.Debug("[agent] cycle complete",
		"stop_reason", done.StopReason,
		"tool_calls", len(done.Message.ToolCalls))
	return done.Message, nil
}

// dispatchCall runs one tool call and appends its result to the session.
// Unknown names still produce a tool result so the backend sees an answer
// for every call it made.
func (l *Loop) dispatchCall(ctx context.Context, sess *session.Session, call llm.ToolCall) {
	name := call.Function.Name
	_, known := l.registry.Lookup(name)
	if known {
		l.console.ToolCall(name, call.Function.Arguments)
	} else {
		l.console.UnknownTool(name)
	}

	result := l.registry.Dispatch(ctx, name, call.Function.Arguments)
	if known {
		l.console.ToolResult(result)
	}

	sess.Append(llm.NewToolResultMessage(call.ID, result))
	slog.Debug("[agent] tool dispatched", "tool", name, "call_id", call.ID, "result_bytes", len(result))
}
