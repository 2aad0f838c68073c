// Package llm talks to chat completion models through OpenRouter's
// OpenAI-compatible API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "nvidia/llama-3.1-nemotron-70b-instruct"
	DefaultTimeout = 2 * time.Minute
	DefaultTitle   = "Ascendia"
)

var (
	ErrMissingAPIKey = errors.New("llm: api key is required")
	ErrNoChoices     = errors.New("no completion choices returned")
	ErrEmptyContent  = errors.New("no message content was returned")
)

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// Referer and Title are sent as HTTP-Referer and X-Title, which OpenRouter
	// uses to attribute traffic to the app.
	Referer string
	Title   string
	Timeout time.Duration
	// Transport is optional and mostly useful in tests.
	Transport http.RoundTripper
}

type OpenRouter struct {
	client *openai.Client
	model  string
}

func NewOpenRouter(cfg Config) (*OpenRouter, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	if cfg.Title == "" {
		cfg.Title = DefaultTitle
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	clientCfg.HTTPClient = &http.Client{
		Timeout: cfg.Timeout,
		Transport: &attributionTransport{
			referer: cfg.Referer,
			title:   cfg.Title,
			base:    base,
		},
	}

	slog.Info("initializing openrouter client", "model", cfg.Model, "base_url", cfg.BaseURL)

	return &OpenRouter{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}, nil
}

// Generate sends one system and one user message and returns the content of
// the first choice.
func (o *OpenRouter) Generate(ctx context.Context, system, user string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Error("openrouter completion failed", "model", o.model, "error", err)
		return "", fmt.Errorf("creating chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", ErrEmptyContent
	}

	slog.Debug("received completion", "model", resp.Model, "finish_reason", resp.Choices[0].FinishReason)

	return content, nil
}

type attributionTransport struct {
	referer string
	title   string
	base    http.RoundTripper
}

func (t *attributionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())

	if t.referer != "" {
		r.Header.Set("HTTP-Referer", t.referer)
	}

	r.Header.Set("X-Title", t.title)

	return t.base.RoundTrip(r)
}
