package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// Ollama is a Generator backed by an Ollama server.
type Ollama struct {
	client  *api.Client
	model   string
	timeout time.Duration
}

// NewOllama creates a generator for the server at baseURL, e.g.
// "http://localhost:11434".
func NewOllama(baseURL, model string, timeout time.Duration) (*Ollama, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse ollama url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parse ollama url: %q is not absolute", baseURL)
	}

	return &Ollama{
		client:  api.NewClient(u, &http.Client{}),
		model:   model,
		timeout: timeout,
	}, nil
}

func (o *Ollama) Generate(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var (
		out    strings.Builder
		err    error
		stream = false
	)

	options := map[string]any{}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}

	if req.Shape == ShapeChat {
		messages := make([]api.Message, 0, 2)
		if req.System != "" {
			messages = append(messages, api.Message{Role: "system", Content: req.System})
		}
		messages = append(messages, api.Message{Role: "user", Content: req.Prompt})

		err = o.client.Chat(ctx, &api.ChatRequest{
			Model:    o.model,
			Messages: messages,
			Stream:   &stream,
			Options:  options,
		}, func(resp api.ChatResponse) error {
			out.WriteString(resp.Message.Content)
			return nil
		})
	} else {
		err = o.client.Generate(ctx, &api.GenerateRequest{
			Model:   o.model,
			System:  req.System,
			Prompt:  req.Prompt,
			Stream:  &stream,
			Options: options,
		}, func(resp api.GenerateResponse) error {
			out.WriteString(resp.Response)
			return nil
		})
	}
	if err != nil {
		return "", classifyOllama(fmt.Errorf("ollama %s: %w", req.Shape, err))
	}

	if out.Len() == 0 {
		return "", terminal(fmt.Errorf("model %q: %w", o.model, ErrEmptyResponse))
	}

	return out.String(), nil
}

func classifyOllama(err error) error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests {
		return retryable(err)
	}
	return terminal(err)
}
