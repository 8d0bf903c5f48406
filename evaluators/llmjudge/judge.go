/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package llmjudge

import (
	"context"
	"errors"
	"fmt"

	"chainguard.dev/evalrun/evaluators"
	"chainguard.dev/evalrun/retry"
	"chainguard.dev/evalrun/tracing"
	"github.com/chainguard-dev/clog"
)

// ID is the evaluator id the judge registers under by default.
const ID = "llm_judge"

// DefaultThreshold is the score at or above which a verdict without an
// explicit passed field counts as passing.
const DefaultThreshold = 0.5

// Completion is one request to a provider.
type Completion struct {
	System      string
	Prompt      string
	MaxTokens   int64
	Temperature float64
}

// Reply is the text and usage returned by a provider.
type Reply struct {
	Text         string
	Model        string
	InputTokens  int64
	OutputTokens int64
}

// Provider sends a single completion to a model.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Completion) (*Reply, error)
}

// Judge is an evaluators.Evaluator backed by a language model.
type Judge struct {
	provider  Provider
	criterion string
	threshold float64
	maxTokens int64
	retry     retry.Config
}

// Option configures a Judge.
type Option func(*Judge)

// WithCriterion sets the default criterion.
func WithCriterion(c string) Option {
	return func(j *Judge) { j.criterion = c }
}

// WithThreshold sets the default pass threshold.
func WithThreshold(t float64) Option {
	return func(j *Judge) { j.threshold = t }
}

// WithMaxTokens bounds the reply length.
func WithMaxTokens(n int64) Option {
	return func(j *Judge) { j.maxTokens = n }
}

// WithRetry overrides the retry policy for provider calls.
func WithRetry(cfg retry.Config) Option {
	return func(j *Judge) { j.retry = cfg }
}

// New creates a judge over provider.
func New(provider Provider, opts ...Option) (*Judge, error) {
	if provider == nil {
		return nil, errors.New("provider is required")
	}
	j := &Judge{
		provider:  provider,
		threshold: DefaultThreshold,
		maxTokens: 1024,
		retry:     retry.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(j)
	}
	if j.threshold < 0 || j.threshold > 1 {
		return nil, fmt.Errorf("threshold %v outside [0, 1]", j.threshold)
	}
	if j.maxTokens <= 0 {
		return nil, fmt.Errorf("max tokens must be positive, got %d", j.maxTokens)
	}
	if err := j.retry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry config: %w", err)
	}
	return j, nil
}

// Evaluate implements evaluators.Evaluator.
func (j *Judge) Evaluate(ctx context.Context, row evaluators.Row, settings evaluators.Settings) (*evaluators.Result, error) {
	if row.Output == "" {
		return evaluators.Skipped("output is required"), nil
	}
	criterion := settings.String("criterion", j.criterion)
	if criterion == "" {
		return evaluators.Skipped("setting 'criterion' is required"), nil
	}
	threshold := settings.Float("threshold", j.threshold)

	prompt, err := renderPrompt(judgeCase{
		Input:     row.Input,
		Response:  row.Output,
		Reference: row.ExpectedOutput,
		Contexts:  contextsOf(row.Contexts),
	}, criterion)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	ctx, span := tracing.Start(ctx, "judge "+j.provider.Name(),
		tracing.WithType(tracing.TypeLLM),
		tracing.WithInput(prompt),
	)
	verdict, err := j.judge(ctx, span, prompt)
	span.End(err)
	if err != nil {
		return nil, err
	}

	passed := verdict.Score >= threshold
	if verdict.Passed != nil {
		passed = *verdict.Passed
	}
	return evaluators.Verdict(verdict.Score, passed, verdict.Reasoning), nil
}

func (j *Judge) judge(ctx context.Context, span *tracing.Span, prompt string) (*Verdict, error) {
	log := clog.FromContext(ctx).With("provider", j.provider.Name())

	reply, err := retry.Do(ctx, j.retry, "judge_completion", IsRetryable, func(ctx context.Context) (*Reply, error) {
		return j.provider.Complete(ctx, Completion{
			System:    systemPrompt,
			Prompt:    prompt,
			MaxTokens: j.maxTokens,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%s completion: %w", j.provider.Name(), err)
	}
	span.RecordUsage(reply.Model, reply.InputTokens, reply.OutputTokens)
	span.SetOutput(reply.Text)

	verdict, err := ParseVerdict(reply.Text)
	if err != nil {
		log.Warn("Unparseable judge reply", "error", err, "reply", reply.Text)
		return nil, err
	}
	log.Debug("Judge verdict", "score", verdict.Score, "model", reply.Model)
	return verdict, nil
}
