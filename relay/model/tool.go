package model

import (
	"github.com/Laisky/errors/v2"
)

// Tool is a function-calling tool definition attached to a request.
type Tool struct {
	Type     string    `json:"type"`
	Function *Function `json:"function,omitempty"`
}

// Function describes the callable surface of a function tool.
type Function struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters,omitempty"`
}

// Validate enforces the request invariant: every tool entry carries a type
// and a function with name, description and parameters.
func (t *Tool) Validate() error {
	if t.Type == "" {
		return errors.New("tool type is required")
	}
	if t.Type != "function" {
		return errors.Errorf("unsupported tool type %q", t.Type)
	}
	if t.Function == nil {
		return errors.New("function tool requires function definition")
	}
	if t.Function.Name == "" {
		return errors.New("function name is required")
	}
	if t.Function.Description == "" {
		return errors.New("function description is required")
	}
	if t.Function.Parameters == nil {
		return errors.New("function parameters are required")
	}
	return nil
}

// ToolCall is an assistant-issued function invocation. Index identifies which
// call a streaming delta belongs to; name and arguments for one call may
// arrive in separate increments.
type ToolCall struct {
	Index    *int             `json:"index,omitempty"`
	Id       string           `json:"id,omitempty"`
	Type     string           `json:"type,omitempty"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction holds the invoked function name and its JSON-encoded
// argument payload.
type ToolCallFunction struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// Validate enforces the message invariant for fully-assembled tool calls:
// id, type, function name and function arguments must all be present.
// Streaming deltas are exempt; they are validated after reassembly.
func (tc *ToolCall) Validate() error {
	if tc.Id == "" {
		return errors.New("tool_call id is required")
	}
	if tc.Type == "" {
		return errors.New("tool_call type is required")
	}
	if tc.Function.Name == "" {
		return errors.New("tool_call function name is required")
	}
	if tc.Function.Arguments == "" {
		return errors.New("tool_call function arguments are required")
	}
	return nil
}
