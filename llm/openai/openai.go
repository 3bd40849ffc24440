// Package openai adapts an OpenAI-compatible chat model to the llm.Client
// interface via langchaingo. Any endpoint speaking the OpenAI API works,
// including self-hosted gateways, by overriding the base URL.
package openai

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"

	"github.com/plancraft/plancraft/llm"
)

// Config holds provider connection settings.
type Config struct {
	APIKey  string
	BaseURL string
	// Model overrides the preset's model when set.
	Model string
}

// Client implements llm.Client against an OpenAI-compatible endpoint.
type Client struct {
	cfg Config
}

// New validates the configuration and returns a client. Model handles are
// created per call because the model name varies by preset.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}
	return &Client{cfg: cfg}, nil
}

// Complete implements llm.Client.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	preset := llm.ResolvePreset(req.Preset)
	model := preset.Model
	if c.cfg.Model != "" {
		model = c.cfg.Model
	}

	opts := []lcopenai.Option{
		lcopenai.WithToken(c.cfg.APIKey),
		lcopenai.WithModel(model),
	}
	if c.cfg.BaseURL != "" {
		opts = append(opts, lcopenai.WithBaseURL(c.cfg.BaseURL))
	}
	m, err := lcopenai.New(opts...)
	if err != nil {
		return "", llm.WrapError("openai", "init", err)
	}

	content := make([]llms.MessageContent, 0, len(req.Messages))
	for _, msg := range req.Messages {
		content = append(content, llms.TextParts(chatType(msg.Role), msg.Content))
	}

	callOpts := []llms.CallOption{
		llms.WithTemperature(preset.Temperature),
		llms.WithMaxTokens(preset.MaxTokens),
	}
	if req.JSONMode {
		callOpts = append(callOpts, llms.WithJSONMode())
	}

	resp, err := m.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		return "", llm.WrapError("openai", "complete", err)
	}
	if len(resp.Choices) == 0 {
		return "", llm.WrapError("openai", "complete", fmt.Errorf("empty completion response"))
	}
	return resp.Choices[0].Content, nil
}

func chatType(r llm.Role) llms.ChatMessageType {
	switch r {
	case llm.RoleSystem:
		return llms.ChatMessageTypeSystem
	case llm.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
