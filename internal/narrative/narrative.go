// Package narrative talks to the optional text-generation collaborator and
// turns its untrusted output into typed insights.
package narrative

import (
	"context"
	"errors"

	"github.com/cleared-dev/spendsight/internal/model"
)

// ErrNotConfigured is returned by generators that lack credentials or an
// endpoint.
var ErrNotConfigured = errors.New("narrative generator not configured")

// Prompt is a system/user prompt pair.
type Prompt struct {
	System string
	User   string
}

// Generator produces raw model text for a prompt. Implementations must honor
// ctx cancellation.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, p Prompt) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, p Prompt) (string, error) {
	return f(ctx, p)
}

// Response is the validated model output.
type Response struct {
	Analysis string
	Insights []model.Insight
}
