package tutor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"codenest/internal/domain"
	"codenest/internal/platform/logger"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama-3.3-70b-versatile"
)

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required"`
}

type options struct {
	temperature float32
	maxTokens   int
	system      string
}

type Option func(*options)

func WithTemperature(t float32) Option { return func(o *options) { o.temperature = t } }

func WithMaxTokens(n int) Option { return func(o *options) { o.maxTokens = n } }

func WithSystem(prompt string) Option { return func(o *options) { o.system = prompt } }

// Client ходит в Groq через OpenAI-совместимый API
type Client struct {
	client *openai.Client
	model  string
	log    *logger.Logger
}

func NewClient(cfg Config, log *logger.Logger) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = DefaultBaseURL
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Client{client: openai.NewClientWithConfig(oc), model: model, log: log}
}

// Chat отправляет prompt после истории диалога и возвращает текст ответа
func (c *Client) Chat(ctx context.Context, prompt string, history []Message, opts ...Option) (string, error) {
	o := options{temperature: 0.7, maxTokens: 1024}
	for _, opt := range opts {
		opt(&o)
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	if o.system != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: o.system})
	}
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		c.log.Warn("groq call failed", "model", c.model, "error", err)
		return "", fmt.Errorf("%w: %v", domain.ErrContentUnavailable, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: empty completion", domain.ErrMalformedResponse)
	}
	c.log.Debug("groq completion", "model", c.model, "finish_reason", resp.Choices[0].FinishReason)
	return resp.Choices[0].Message.Content, nil
}

// GenerateJSON просит модель ответить JSON и раскладывает ответ в out
func (c *Client) GenerateJSON(ctx context.Context, prompt string, out interface{}, opts ...Option) error {
	text, err := c.Chat(ctx, prompt, nil, opts...)
	if err != nil {
		return err
	}
	if err := DecodeJSON(text, out); err != nil {
		c.log.Warn("groq returned malformed json", "error", err)
		return err
	}
	return nil
}

// DecodeJSON снимает markdown-ограждение ```json ... ``` и парсит остаток
func DecodeJSON(text string, out interface{}) error {
	raw := ExtractJSON(text)
	if raw == "" {
		return fmt.Errorf("%w: no json object in response", domain.ErrMalformedResponse)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	return nil
}

func ExtractJSON(text string) string {
	s := strings.TrimSpace(text)
	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		rest = strings.TrimPrefix(rest, "json")
		if j := strings.Index(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		s = strings.TrimSpace(rest)
	}
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return ""
	}
	closing := "}"
	if s[start] == '[' {
		closing = "]"
	}
	end := strings.LastIndex(s, closing)
	if end < start {
		return ""
	}
	return s[start : end+1]
}
