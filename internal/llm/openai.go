package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

var openAIRateLimitCodes = map[string]bool{
	"rate_limit_exceeded": true,
	"insufficient_quota":  true,
}

// OpenAI is a Generator backed by any OpenAI-compatible API. Chat-shaped
// requests use chat completions; prompt-shaped requests use the legacy
// completions endpoint.
type OpenAI struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAI creates a generator. Leave baseURL empty for api.openai.com.
func NewOpenAI(baseURL, apiKey, model string, timeout time.Duration) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
	}
}

func (o *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	if req.Shape == ShapeChat {
		return o.chat(ctx, req)
	}
	return o.complete(ctx, req)
}

func (o *OpenAI) chat(ctx context.Context, req Request) (string, error) {
	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.model,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		return "", classifyOpenAI(fmt.Errorf("chat completion: %w", err))
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", terminal(fmt.Errorf("model %q: %w", o.model, ErrEmptyResponse))
	}

	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAI) complete(ctx context.Context, req Request) (string, error) {
	prompt := req.Prompt
	if req.System != "" {
		prompt = req.System + "\n\n" + prompt
	}

	resp, err := o.client.CreateCompletion(ctx, openai.CompletionRequest{
		Model:     o.model,
		Prompt:    prompt,
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		return "", classifyOpenAI(fmt.Errorf("completion: %w", err))
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Text == "" {
		return "", terminal(fmt.Errorf("model %q: %w", o.model, ErrEmptyResponse))
	}

	return resp.Choices[0].Text, nil
}

func classifyOpenAI(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return retryable(err)
		}
		if code, ok := apiErr.Code.(string); ok && openAIRateLimitCodes[code] {
			return retryable(err)
		}
		return terminal(err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return retryable(err)
	}

	return terminal(err)
}
