package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tiancaiamao/nanocode/pkg/llm"
)

// ParamType is the JSON schema primitive of a tool parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeBoolean ParamType = "boolean"
)

// Param describes one declared tool parameter.
type Param struct {
	Name     string
	Type     ParamType
	Optional bool
}

// Definition describes a tool as advertised to the backend.
type Definition struct {
	Name        string
	Description string
	Params      []Param
}

// Executor runs one tool call against decoded arguments. Faults are
// returned as errors, never panicked.
type Executor func(ctx context.Context, args Args) (string, error)

// Tool pairs a definition with its executor.
type Tool struct {
	Def  Definition
	Exec Executor
}

// Registry holds the local tools advertised to the backend. Schema
// export preserves registration order.
type Registry struct {
	tools []Tool
	index map[string]int
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register adds a tool. A duplicate name is a configuration error.
func (r *Registry) Register(tool Tool) error {
	if _, exists := r.index[tool.Def.Name]; exists {
		return fmt.Errorf("tool %q already registered", tool.Def.Name)
	}
	r.index[tool.Def.Name] = len(r.tools)
	r.tools = append(r.tools, tool)
	return nil
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	i, ok := r.index[name]
	if !ok {
		return Tool{}, false
	}
	return r.tools[i], true
}

// Schema exports every tool in registration order in the wire format
// expected by the chat completions API.
func (r *Registry) Schema() []llm.Tool {
	out := make([]llm.Tool, 0, len(r.tools))
	for _, t := range r.tools {
		properties := make(map[string]any, len(t.Def.Params))
		required := make([]string, 0, len(t.Def.Params))
		for _, p := range t.Def.Params {
			properties[p.Name] = map[string]any{"type": p.Type.schemaType()}
			if !p.Optional {
				required = append(required, p.Name)
			}
		}
		out = append(out, llm.Tool{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        t.Def.Name,
				Description: t.Def.Description,
				Parameters: map[string]any{
					"type":       "object",
					"properties": properties,
					"required":   required,
				},
			},
		})
	}
	return out
}

func (p ParamType) schemaType() string {
	// The declaration spelling "number" is advertised as integer.
	if p == "number" {
		return "integer"
	}
	return string(p)
}

// Dispatch runs the named tool against its raw JSON arguments. Every
// outcome is a text payload suitable as a tool result: unknown names,
// malformed arguments, executor errors, and panics all become result
// text rather than terminating the turn.
func (r *Registry) Dispatch(ctx context.Context, name string, rawArgs string) (result string) {
	tool, ok := r.Lookup(name)
	if !ok {
		return fmt.Sprintf("Unknown tool: %s", name)
	}

	defer func() {
		if p := recover(); p != nil {
			result = fmt.Sprintf("error: %v", p)
		}
	}()

	args := make(Args)
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return fmt.Sprintf("error: %v", err)
	}

	text, err := tool.Exec(ctx, args)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return text
}
