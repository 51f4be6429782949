// Package llm wraps text-generation backends behind a single Generator
// interface and maps backend-specific failures into a two-kind error taxonomy
// (retryable throttling vs. terminal) so callers never inspect vendor errors.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Shape is the request-body layout a model family expects.
type Shape int

const (
	// ShapePrompt sends a single flat prompt string.
	ShapePrompt Shape = iota
	// ShapeChat sends a list of role-tagged chat messages.
	ShapeChat
)

func (s Shape) String() string {
	if s == ShapeChat {
		return "chat"
	}
	return "prompt"
}

var chatModelMarkers = []string{"claude", "gpt"}

// ShapeFor picks the request shape from a configured model identifier.
func ShapeFor(modelID string) Shape {
	id := strings.ToLower(modelID)
	for _, marker := range chatModelMarkers {
		if strings.Contains(id, marker) {
			return ShapeChat
		}
	}
	return ShapePrompt
}

// Request is a backend-neutral generation request.
type Request struct {
	Shape     Shape
	System    string
	Prompt    string
	MaxTokens int
}

// Generator produces text for a request. Implementations return *Error so
// that callers can decide whether to retry.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Kind classifies a generation failure.
type Kind int

const (
	Terminal Kind = iota
	Retryable
)

func (k Kind) String() string {
	if k == Retryable {
		return "retryable"
	}
	return "terminal"
}

// Error is a classified generation failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s generation error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err was classified as throttling.
func IsRetryable(err error) bool {
	var genErr *Error
	return errors.As(err, &genErr) && genErr.Kind == Retryable
}

func retryable(err error) error {
	return &Error{Kind: Retryable, Err: err}
}

func terminal(err error) error {
	return &Error{Kind: Terminal, Err: err}
}

// ErrEmptyResponse is returned when a backend answers without any text.
var ErrEmptyResponse = errors.New("empty response from model")
