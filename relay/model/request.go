package model

import (
	"github.com/Laisky/errors/v2"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ChatCompletionRequest is the canonical request every adaptor converts from.
// The model id is opaque at this layer; provider resolution happens in the
// routing layer.
type ChatCompletionRequest struct {
	Model       string    `json:"model" validate:"required"`
	Messages    []Message `json:"messages" validate:"required,min=1"`
	Temperature *float64  `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	TopP        *float64  `json:"top_p,omitempty" validate:"omitempty,gte=0,lte=1"`
	TopK        *int      `json:"top_k,omitempty" validate:"omitempty,gt=0"`
	MaxTokens   int       `json:"max_tokens,omitempty" validate:"omitempty,gt=0"`
	Stream      bool      `json:"stream,omitempty"`
	Stop        any       `json:"stop,omitempty"`
	Tools       []Tool    `json:"tools,omitempty"`
	ToolChoice  any       `json:"tool_choice,omitempty"`
	User        string    `json:"user,omitempty"`

	// Extension fields consumed only by the enhancement step.
	FileIds         []string       `json:"file_ids,omitempty"`
	KnowledgeBaseId string         `json:"knowledge_base_id,omitempty"`
	AutoKB          bool           `json:"auto_kb,omitempty"`
	RetrievalConfig map[string]any `json:"retrieval_config,omitempty"`
	CitationFormat  string         `json:"citation_format,omitempty" validate:"omitempty,oneof=openai bedrock"`
}

// Validate enforces the request invariants at construction time.
func (r *ChatCompletionRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return errors.Wrap(err, "validate request")
	}
	for i := range r.Messages {
		if err := r.Messages[i].Validate(); err != nil {
			return errors.Wrapf(err, "messages[%d]", i)
		}
	}
	for i := range r.Tools {
		if err := r.Tools[i].Validate(); err != nil {
			return errors.Wrapf(err, "tools[%d]", i)
		}
	}
	return nil
}

// HasTools reports whether the caller requested function calling.
func (r *ChatCompletionRequest) HasTools() bool {
	return len(r.Tools) > 0 || r.ToolChoice != nil
}

// StopSequences normalizes the stop field, which the OpenAI schema allows as
// either a string or a string array.
func (r *ChatCompletionRequest) StopSequences() []string {
	switch stop := r.Stop.(type) {
	case string:
		if stop == "" {
			return nil
		}
		return []string{stop}
	case []string:
		return filterEmpty(stop)
	case []any:
		sequences := make([]string, 0, len(stop))
		for _, s := range stop {
			if str, ok := s.(string); ok && str != "" {
				sequences = append(sequences, str)
			}
		}
		return sequences
	default:
		return nil
	}
}

func filterEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
