package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// maxSSELineSize bounds one SSE line; a single chunk can exceed the
// default bufio.Scanner token limit.
const maxSSELineSize = 10 * 1024 * 1024

// Client streams chat completions from an OpenAI-compatible backend.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a client for the given base URL and credential.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

// Stream opens one streaming completion. Fragments are delivered in
// arrival order; the stream always terminates with exactly one DoneEvent
// or ErrorEvent.
func (c *Client) Stream(ctx context.Context, req ChatRequest) *EventStream[StreamEvent, *Message] {
	stream := NewEventStream[StreamEvent, *Message](
		func(e StreamEvent) bool {
			switch e.(type) {
			case DoneEvent, ErrorEvent:
				return true
			}
			return false
		},
		func(e StreamEvent) *Message {
			if done, ok := e.(DoneEvent); ok {
				return done.Message
			}
			return nil
		},
	)

	go func() {
		defer stream.End(nil)
		c.run(ctx, req, stream)
	}()

	return stream
}

func (c *Client) run(ctx context.Context, req ChatRequest, stream *EventStream[StreamEvent, *Message]) {
	tools := make([]any, 0, len(req.Tools)+len(req.ServerTools))
	for _, t := range req.Tools {
		tools = append(tools, t)
	}
	for _, t := range req.ServerTools {
		tools = append(tools, t)
	}

	reqBody := map[string]any{
		"model":                 req.Model,
		"messages":              req.Messages,
		"stream":                true,
		"use_encrypted_content": true,
	}
	if len(tools) > 0 {
		reqBody["tools"] = tools
		reqBody["tool_choice"] = "auto"
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		stream.Push(ErrorEvent{Err: err})
		return
	}
	slog.Debug("[llm] request", "model", req.Model, "messages", len(req.Messages), "bytes", len(jsonBody))

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		stream.Push(ErrorEvent{Err: err})
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		stream.Push(ErrorEvent{Err: fmt.Errorf("connection error: %w", err)})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		stream.Push(ErrorEvent{Err: NewAPIError(resp.StatusCode, string(body))})
		return
	}

	partial := NewPartialMessage()
	stopReason := ""
	var usage *Usage

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), maxSSELineSize)
	for scanner.Scan() {
		line := scanner.Text()

		// SSE format: "data: {...}"
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			break
		}

		var chunk struct {
			Choices []struct {
				Delta struct {
					Content          string            `json:"content,omitempty"`
					EncryptedContent string            `json:"encrypted_content,omitempty"`
					ToolCalls        []json.RawMessage `json:"tool_calls,omitempty"`
				} `json:"delta"`
				FinishReason *string `json:"finish_reason"`
			} `json:"choices"`
			Usage *Usage `json:"usage"`
			Error *struct {
				Message string `json:"message,omitempty"`
				Type    string `json:"type,omitempty"`
			} `json:"error,omitempty"`
		}
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}

		if chunk.Error != nil {
			msg := strings.TrimSpace(chunk.Error.Message)
			if msg == "" {
				msg = strings.TrimSpace(chunk.Error.Type)
			}
			stream.Push(ErrorEvent{Err: &APIError{StatusCode: resp.StatusCode, Message: msg}})
			return
		}

		if chunk.Usage != nil {
			usage = chunk.Usage
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]

		if choice.Delta.Content != "" {
			partial.AppendText(choice.Delta.Content)
			stream.Push(TextDeltaEvent{Delta: choice.Delta.Content})
		}

		if choice.Delta.EncryptedContent != "" {
			partial.AppendEncrypted(choice.Delta.EncryptedContent)
			stream.Push(EncryptedDeltaEvent{Delta: choice.Delta.EncryptedContent})
		}

		for _, raw := range choice.Delta.ToolCalls {
			var tc struct {
				Index    int    `json:"index"`
				ID       string `json:"id,omitempty"`
				Type     string `json:"type,omitempty"`
				Function struct {
					Name      string `json:"name,omitempty"`
					Arguments string `json:"arguments,omitempty"`
				} `json:"function,omitempty"`
			}
			if err := json.Unmarshal(raw, &tc); err != nil {
				continue
			}
			partial.AppendToolCall(tc.Index, tc.ID, tc.Type, tc.Function.Name, tc.Function.Arguments)
			stream.Push(ToolCallDeltaEvent{
				Index:     tc.Index,
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}

		if choice.FinishReason != nil && *choice.FinishReason != "" {
			stopReason = *choice.FinishReason
		}
	}

	if err := scanner.Err(); err != nil {
		stream.Push(ErrorEvent{Err: err})
		return
	}

	msg := partial.Message()
	if stopReason == "" {
		stopReason = "stop"
	}
	if usage != nil {
		slog.Debug("[llm] usage", "input", usage.InputTokens, "output", usage.OutputTokens, "total", usage.TotalTokens)
	}
	stream.Push(DoneEvent{Message: &msg, StopReason: stopReason, Usage: usage})
}
