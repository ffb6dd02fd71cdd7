package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const DefaultModel = "gpt-4o-mini"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// Completer turns an ordered conversation into a reply.
type Completer interface {
	Complete(ctx context.Context, msgs []Message) (string, error)
}

var ErrNotConfigured = errors.New("ai: api key not configured")

type Config struct {
	APIKey      string
	Model       string
	BaseURL     string // optional, for proxies and tests
	Temperature float64
}

type Client struct {
	api         openai.Client
	model       string
	temperature float64
	enabled     bool
}

func NewClient(cfg Config) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		api:         openai.NewClient(opts...),
		model:       model,
		temperature: cfg.Temperature,
		enabled:     cfg.APIKey != "",
	}
}

func (c *Client) Complete(ctx context.Context, msgs []Message) (string, error) {
	if !c.enabled {
		return "", ErrNotConfigured
	}
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    toParams(msgs),
		Temperature: openai.Float(c.temperature),
	}
	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion: no choices")
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", errors.New("chat completion: empty content")
	}
	return out, nil
}

func toParams(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
