package model

import (
	"encoding/json"
	"strings"

	"github.com/Laisky/errors/v2"
)

// Part types for structured message content. The wire shape mirrors the
// OpenAI content-part schema; tool_use parts only appear on canonical
// assistant messages produced by provider conversion.
const (
	PartTypeText     = "text"
	PartTypeImageURL = "image_url"
	PartTypeToolUse  = "tool_use"
)

// ImageURL is an image content part payload. URL may be an http(s) URL or a
// base64 data URI.
type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// ToolUsePart carries a provider-native tool invocation embedded in content.
type ToolUsePart struct {
	Id    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input,omitempty"`
}

// Part is a single block of structured message content.
type Part struct {
	Type     string       `json:"type"`
	Text     string       `json:"text,omitempty"`
	ImageURL *ImageURL    `json:"image_url,omitempty"`
	ToolUse  *ToolUsePart `json:"tool_use,omitempty"`
}

// Content is the tagged union of message content: either plain text or an
// ordered list of parts. The zero value means "absent", which callers encode
// as a nil *Content. Construct via Text or Blocks; the union is immutable
// after construction.
type Content struct {
	text   string
	parts  []Part
	isText bool
}

// Text wraps a plain string as message content.
func Text(s string) Content {
	return Content{text: s, isText: true}
}

// Blocks wraps an ordered part list as message content.
func Blocks(parts []Part) Content {
	return Content{parts: parts}
}

// TextContent returns a pointer, convenient for Message literals.
func TextContent(s string) *Content {
	c := Text(s)
	return &c
}

// BlockContent returns a pointer, convenient for Message literals.
func BlockContent(parts []Part) *Content {
	c := Blocks(parts)
	return &c
}

// IsText reports whether the union holds a plain string.
func (c Content) IsText() bool { return c.isText }

// Parts returns the block list; nil for plain-text content.
func (c Content) Parts() []Part {
	if c.isText {
		return nil
	}
	return c.parts
}

// PlainText flattens the content to a single string. For block content the
// text parts are concatenated in order; image and tool_use parts contribute
// nothing.
func (c Content) PlainText() string {
	if c.isText {
		return c.text
	}
	var sb strings.Builder
	for _, p := range c.parts {
		if p.Type == PartTypeText {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// IsEmpty reports whether the content carries neither text nor parts.
func (c Content) IsEmpty() bool {
	if c.isText {
		return c.text == ""
	}
	return len(c.parts) == 0
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.isText {
		return json.Marshal(c.text)
	}
	return json.Marshal(c.parts)
}

func (c *Content) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*c = Content{}
		return nil
	}
	if strings.HasPrefix(trimmed, "\"") {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return errors.Wrap(err, "unmarshal text content")
		}
		*c = Text(s)
		return nil
	}
	var parts []Part
	if err := json.Unmarshal(data, &parts); err != nil {
		return errors.Wrap(err, "unmarshal content parts")
	}
	for i := range parts {
		switch parts[i].Type {
		case PartTypeText, PartTypeImageURL, PartTypeToolUse:
		default:
			return errors.Errorf("unsupported content part type %q", parts[i].Type)
		}
	}
	*c = Blocks(parts)
	return nil
}
