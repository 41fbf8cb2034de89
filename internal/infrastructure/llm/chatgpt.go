package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"PersonIntel/internal/config"
	"PersonIntel/internal/domain"
	"PersonIntel/internal/metrics"
	"PersonIntel/internal/ports"
)

// ChatGPTClient implements ports.TextGenerator on OpenAI-compatible chat APIs.
type ChatGPTClient struct {
	client       *openai.Client
	prompts      *Prompts
	model        string
	systemPrompt string
	temperature  float32
	maxTokens    int
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

var _ ports.TextGenerator = (*ChatGPTClient)(nil)

// NewChatGPTClient builds a client from configuration. A nil httpClient uses a
// client with a 60s timeout.
func NewChatGPTClient(cfg config.LLMConfig, httpClient *http.Client, m *metrics.Metrics, logger *slog.Logger) (*ChatGPTClient, error) {
	if cfg.APIKey == "" || cfg.Model == "" {
		return nil, errors.New("chatgpt client misconfigured: api key and model are required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}

	prompts, err := NewPrompts()
	if err != nil {
		return nil, err
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")
	}
	clientCfg.HTTPClient = httpClient

	return &ChatGPTClient{
		client:       openai.NewClientWithConfig(clientCfg),
		prompts:      prompts,
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		temperature:  cfg.Temperature,
		maxTokens:    cfg.MaxTokens,
		metrics:      m,
		logger:       logger,
	}, nil
}

// Generate renders the prompt and returns the first completion choice.
func (c *ChatGPTClient) Generate(ctx context.Context, prompt ports.PromptID, vars map[string]string) (string, error) {
	text, err := c.complete(ctx, prompt, vars)
	c.metrics.IncrementCollaboratorCall(string(prompt), err)
	if err != nil {
		return "", &domain.CollaboratorError{Prompt: string(prompt), Err: err}
	}
	return text, nil
}

func (c *ChatGPTClient) complete(ctx context.Context, prompt ports.PromptID, vars map[string]string) (string, error) {
	user, err := c.prompts.Render(prompt, vars)
	if err != nil {
		return "", err
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: safePrompt(c.systemPrompt)},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	if c.maxTokens > 0 {
		req.MaxTokens = c.maxTokens
	}

	c.logger.Debug("generating text", "prompt", prompt, "model", c.model)
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("chat completion returned empty content")
	}
	return content, nil
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You are a due-diligence analyst who compiles intelligence about people."
	}
	return prompt
}
