package llm

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"
)

// Message is one entry of the conversation, in the wire format of the
// chat completions API. A message is immutable once appended to a session.
type Message struct {
	Role       string     `json:"role"` // "system", "user", "assistant", "tool"
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`

	// EncryptedContent is an opaque continuation payload from the backend.
	// It is echoed back verbatim on subsequent requests and never inspected.
	EncryptedContent string `json:"encrypted_content,omitempty"`
}

// NewSystemMessage creates a system message.
func NewSystemMessage(text string) Message {
	return Message{Role: "system", Content: text}
}

// NewUserMessage creates a user message.
func NewUserMessage(text string) Message {
	return Message{Role: "user", Content: text}
}

// NewToolResultMessage creates a tool message answering the call with the
// given id.
func NewToolResultMessage(callID, text string) Message {
	return Message{Role: "tool", ToolCallID: callID, Content: text}
}

// ToolCall is a backend-issued request to invoke a named tool.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"` // "function"
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the tool name and its raw JSON argument text.
// Arguments are decoded at dispatch time, not here.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Tool is a function tool advertisement sent with each request.
type Tool struct {
	Type     string       `json:"type"` // "function"
	Function ToolFunction `json:"function"`
}

// ToolFunction describes one callable function to the backend.
type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ServerTool enables a backend-side capability such as web search.
// Options, when present, are emitted under a key named after the tool
// type: {"type":"x_search","x_search":{"enable_image_understanding":true}}.
type ServerTool struct {
	Type    string
	Options map[string]any
}

// MarshalJSON emits the type tag plus the per-type options object.
func (t ServerTool) MarshalJSON() ([]byte, error) {
	obj := map[string]any{"type": t.Type}
	if len(t.Options) > 0 {
		obj[t.Type] = t.Options
	}
	return json.Marshal(obj)
}

// Usage is the token accounting reported on the final stream chunk.
type Usage struct {
	InputTokens  int `json:"prompt_tokens"`
	OutputTokens int `json:"completion_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// ChatRequest is everything one streaming completion needs.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Tools       []Tool
	ServerTools []ServerTool
}

// StreamEvent is one incremental unit of backend output.
type StreamEvent interface {
	streamEvent()
}

// TextDeltaEvent carries an increment of assistant text.
type TextDeltaEvent struct {
	Delta string
}

func (TextDeltaEvent) streamEvent() {}

// ToolCallDeltaEvent carries a fragment of a tool call, keyed by stream
// index. ID and Name arrive on the first fragment of a call; Arguments
// text is split across fragments.
type ToolCallDeltaEvent struct {
	Index     int
	ID        string
	Name      string
	Arguments string
}

func (ToolCallDeltaEvent) streamEvent() {}

// EncryptedDeltaEvent carries a fragment of the opaque continuation payload.
type EncryptedDeltaEvent struct {
	Delta string
}

func (EncryptedDeltaEvent) streamEvent() {}

// DoneEvent ends a stream with the assembled assistant message.
type DoneEvent struct {
	Message    *Message
	StopReason string
	Usage      *Usage
}

func (DoneEvent) streamEvent() {}

// ErrorEvent ends a stream with a fault.
type ErrorEvent struct {
	Err error
}

func (ErrorEvent) streamEvent() {}

// PartialMessage assembles an assistant message from stream fragments.
// Tool-call fragments merge by stream index: id, type and name are set by
// their first non-empty fragment, argument text concatenates.
type PartialMessage struct {
	mu        sync.Mutex
	content   strings.Builder
	encrypted strings.Builder
	toolCalls map[int]*ToolCall
}

// NewPartialMessage creates an empty partial assistant message.
func NewPartialMessage() *PartialMessage {
	return &PartialMessage{toolCalls: make(map[int]*ToolCall)}
}

// AppendText appends a text delta.
func (pm *PartialMessage) AppendText(delta string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.content.WriteString(delta)
}

// AppendEncrypted appends a continuation payload delta.
func (pm *PartialMessage) AppendEncrypted(delta string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.encrypted.WriteString(delta)
}

// AppendToolCall merges one tool-call fragment into the call at index.
func (pm *PartialMessage) AppendToolCall(index int, id, callType, name, arguments string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	call, ok := pm.toolCalls[index]
	if !ok {
		call = &ToolCall{}
		pm.toolCalls[index] = call
	}
	if id != "" {
		call.ID = id
	}
	if callType != "" {
		call.Type = callType
	}
	if name != "" {
		call.Function.Name = name
	}
	call.Function.Arguments += arguments
}

// Message returns the assembled assistant message with tool calls in
// stream-index order.
func (pm *PartialMessage) Message() Message {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	msg := Message{
		Role:             "assistant",
		Content:          pm.content.String(),
		EncryptedContent: pm.encrypted.String(),
	}

	if len(pm.toolCalls) == 0 {
		return msg
	}

	indexes := make([]int, 0, len(pm.toolCalls))
	for idx := range pm.toolCalls {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	msg.ToolCalls = make([]ToolCall, 0, len(indexes))
	for _, idx := range indexes {
		call := *pm.toolCalls[idx]
		if call.Type == "" {
			call.Type = "function"
		}
		msg.ToolCalls = append(msg.ToolCalls, call)
	}
	return msg
}
