package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/starford/kenaz-focus/internal/apperr"
	"github.com/starford/kenaz-focus/internal/digest"
	"github.com/starford/kenaz-focus/internal/focus"
)

const systemPrompt = `You summarize what a person has been focused on, based on digests of their recent notes.
Reply with a single JSON object and nothing else:
{"headline": string, "summary": string, "themes": [{"title": string, "detail": string, "note_ids": [string]}], "next_steps": [string]}
Use at most %d themes. note_ids must be noteId values from the input. Digests are ordered newest first.`

// OpenAIConfig configures an OpenAI-compatible chat completion backend.
type OpenAIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float32
}

// ChatModel is a focus.Generator that prompts a chat model with the digests
// and parses its reply as a report, falling back to plain markdown.
type ChatModel struct {
	model       model.BaseChatModel
	maxTokens   int
	temperature float32
}

// NewChatModel wraps an existing chat model.
func NewChatModel(m model.BaseChatModel, maxTokens int, temperature float32) *ChatModel {
	return &ChatModel{model: m, maxTokens: maxTokens, temperature: temperature}
}

// NewOpenAI builds a ChatModel on the eino OpenAI adapter.
func NewOpenAI(ctx context.Context, cfg OpenAIConfig) (*ChatModel, error) {
	if strings.TrimSpace(cfg.APIKey) == "" || strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("generator: openai api key and model: %w", apperr.ErrNotConfigured)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	chatCfg := &openai.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: strings.TrimSpace(cfg.BaseURL),
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	}
	m, err := openai.NewChatModel(ctx, chatCfg)
	if err != nil {
		return nil, fmt.Errorf("generator: create openai chat model: %w", err)
	}
	return NewChatModel(m, cfg.MaxTokens, cfg.Temperature), nil
}

// Generate implements focus.Generator.
func (g *ChatModel) Generate(ctx context.Context, digests []digest.Digest, params focus.Params) (focus.Result, error) {
	if g.model == nil {
		return focus.Result{}, fmt.Errorf("generator: chat model: %w", apperr.ErrNotConfigured)
	}
	messages, err := buildMessages(digests, params)
	if err != nil {
		return focus.Result{}, err
	}

	out, err := g.model.Generate(ctx, messages, g.options(params)...)
	if err != nil {
		return focus.Result{}, fmt.Errorf("generator: chat completion: %w", err)
	}
	if out == nil {
		return focus.Result{}, fmt.Errorf("generator: empty llm response")
	}

	content := strings.TrimSpace(out.Content)
	if report := focus.DecodeEmbeddedReport(content); report != nil {
		return focus.Result{Report: report}, nil
	}
	return focus.Result{RawMarkdown: content}, nil
}

func (g *ChatModel) options(params focus.Params) []model.Option {
	opts := make([]model.Option, 0, 3)
	if m := strings.TrimSpace(params.ModelName); m != "" {
		opts = append(opts, model.WithModel(m))
	}
	if g.maxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(g.maxTokens))
	}
	if g.temperature > 0 {
		opts = append(opts, model.WithTemperature(g.temperature))
	}
	return opts
}

func buildMessages(digests []digest.Digest, params focus.Params) ([]*schema.Message, error) {
	if digests == nil {
		digests = []digest.Digest{}
	}
	payload, err := json.Marshal(digests)
	if err != nil {
		return nil, fmt.Errorf("generator: marshal digests: %w", err)
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 5
	}
	return []*schema.Message{
		schema.SystemMessage(fmt.Sprintf(systemPrompt, limit)),
		schema.UserMessage(string(payload)),
	}, nil
}

var _ focus.Generator = (*ChatModel)(nil)
