// Package llm defines the model client surface the planning agents talk
// to, plus generation presets and helpers for structured JSON output.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat prompt.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// System and User are shorthand message constructors.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }
func User(content string) Message   { return Message{Role: RoleUser, Content: content} }

// Request is a single completion call.
type Request struct {
	Messages []Message
	Preset   string
	JSONMode bool
}

// Client is the minimal model surface the agents depend on. Adapters for
// concrete providers live in subpackages.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Generation presets. A preset names a model/temperature/token tradeoff
// rather than exposing raw knobs to callers.
const (
	PresetFast     = "fast"
	PresetBalanced = "balanced"
	PresetQuality  = "quality"
)

// Preset is the resolved generation parameters for a named preset.
type Preset struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// ResolvePreset maps a preset name to generation parameters. Unknown or
// empty names resolve to balanced.
func ResolvePreset(name string) Preset {
	switch name {
	case PresetFast:
		return Preset{Model: "gpt-4o-mini", Temperature: 0.3, MaxTokens: 2048}
	case PresetQuality:
		return Preset{Model: "gpt-4o", Temperature: 0.7, MaxTokens: 8192}
	default:
		return Preset{Model: "gpt-4o", Temperature: 0.5, MaxTokens: 4096}
	}
}

// Structured runs a completion in JSON mode and decodes the response into
// T. Models often wrap JSON in markdown fences; those are stripped before
// decoding. Decode failures are validation errors, not transport errors.
func Structured[T any](ctx context.Context, c Client, req Request) (T, error) {
	var out T
	req.JSONMode = true
	raw, err := c.Complete(ctx, req)
	if err != nil {
		return out, err
	}
	cleaned := StripFences(raw)
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return out, fmt.Errorf("invalid structured response: %w", err)
	}
	return out, nil
}

// StripFences removes a surrounding markdown code fence, if present, and
// trims to the outermost JSON object or array.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	if start := strings.IndexAny(s, "{["); start > 0 {
		s = s[start:]
	}
	return s
}
