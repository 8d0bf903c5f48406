/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package experiment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"chainguard.dev/evalrun/client"
	"chainguard.dev/evalrun/config"
	"chainguard.dev/evalrun/evaluators"
	"chainguard.dev/evalrun/metrics"
	"chainguard.dev/evalrun/retry"
	"chainguard.dev/evalrun/tracing"
	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Experiment is one registered evaluation run. It is safe for concurrent use.
type Experiment struct {
	slug   string
	name   string
	runID  string
	url    string
	client *client.Client
	runner evaluators.Runner

	tp      oteltrace.TracerProvider
	ownedTP *sdktrace.TracerProvider

	threads      int
	debounce     time.Duration
	onFlushError func(error)
	observers    []Observer
	metrics      *metrics.Evaluations
	createdAt    time.Time

	// baseCtx carries the logger of Init and outlives cancellation of a run.
	baseCtx context.Context

	targetMode atomic.Bool

	batch batch
	sends sync.WaitGroup

	errMu     sync.Mutex
	flushErrs []error
}

type options struct {
	cfg          *config.Config
	name         string
	apiKey       string
	endpoint     string
	credentials  client.CredentialStore
	httpClient   *http.Client
	retry        *retry.Config
	tp           oteltrace.TracerProvider
	mp           metric.MeterProvider
	runner       evaluators.Runner
	local        *evaluators.Registry
	debounce     *time.Duration
	onFlushError func(error)
	observers    []Observer
}

// Option configures Init.
type Option func(*options)

// WithConfig uses cfg instead of reading the environment.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithName sets the display name of the experiment.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithAPIKey overrides the API key from the environment.
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithEndpoint overrides the collector endpoint from the environment.
func WithEndpoint(endpoint string) Option {
	return func(o *options) { o.endpoint = endpoint }
}

// WithCredentials sets the credential store. It takes precedence over WithAPIKey.
func WithCredentials(store client.CredentialStore) Option {
	return func(o *options) { o.credentials = store }
}

// WithHTTPClient sets the HTTP client used to talk to the collector.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithRetry sets the retry policy of collector requests.
func WithRetry(cfg retry.Config) Option {
	return func(o *options) { o.retry = &cfg }
}

// WithTracerProvider sets the provider used for iteration and target spans.
// The caller keeps ownership of tp. Iteration spans superseded by a Target
// call are ended with the tracing.AttrDiscarded mark; wrap the provider's
// processors in tracing.FilterDiscarded to keep them from being exported.
func WithTracerProvider(tp oteltrace.TracerProvider) Option {
	return func(o *options) { o.tp = tp }
}

// WithMeterProvider sets the provider of the evaluation instruments.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.mp = mp }
}

// WithRunner sets the evaluator runner used by Evaluate. Defaults to the
// collector's remote evaluators.
func WithRunner(r evaluators.Runner) Option {
	return func(o *options) { o.runner = r }
}

// WithLocalEvaluators runs the evaluators registered in reg locally and
// sends every other id to the collector. It replaces the fallback of reg.
func WithLocalEvaluators(reg *evaluators.Registry) Option {
	return func(o *options) { o.local = reg }
}

// WithDebounce sets the minimum spacing between batch uploads.
func WithDebounce(d time.Duration) Option {
	return func(o *options) { o.debounce = &d }
}

// WithFlushErrorHandler is called with every failed background upload.
// Errors are also returned from Run.
func WithFlushErrorHandler(fn func(error)) Option {
	return func(o *options) { o.onFlushError = fn }
}

// WithObserver adds an observer notified of every logged result.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observers = append(o.observers, obs) }
}

// Init registers an experiment run with the collector.
func Init(ctx context.Context, slug string, opts ...Option) (*Experiment, error) {
	if slug == "" {
		return nil, errors.New("experiment slug must not be empty")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cfg := o.cfg
	if cfg == nil {
		var err error
		if cfg, err = config.Load(ctx); err != nil {
			return nil, err
		}
	}

	endpoint := cfg.Endpoint
	if o.endpoint != "" {
		endpoint = o.endpoint
	}
	creds := o.credentials
	if creds == nil {
		if o.apiKey != "" {
			creds = client.NewStaticCredentials(o.apiKey)
		} else {
			creds = cfg.Credentials()
		}
	}
	apiKey, err := creds.APIKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing experiment %q: %w", slug, err)
	}

	c, err := client.New(client.Config{
		Endpoint:    endpoint,
		Credentials: creds,
		HTTPClient:  o.httpClient,
		Retry:       o.retry,
	})
	if err != nil {
		return nil, err
	}

	info, err := c.InitExperiment(ctx, o.name, slug)
	if err != nil {
		return nil, err
	}

	e := &Experiment{
		slug:         info.Slug,
		name:         o.name,
		runID:        uuid.NewString(),
		url:          info.URL(c.Endpoint()),
		client:       c,
		runner:       o.runner,
		tp:           o.tp,
		threads:      max(cfg.Threads, 1),
		debounce:     cfg.FlushDebounce,
		onFlushError: o.onFlushError,
		observers:    o.observers,
		createdAt:    time.Now(),
		baseCtx:      context.WithoutCancel(ctx),
	}
	if o.debounce != nil {
		e.debounce = *o.debounce
	}
	if o.local != nil {
		o.local.SetFallback(c)
		e.runner = o.local
	}
	if e.runner == nil {
		e.runner = c
	}
	if e.tp == nil {
		tcfg := tracing.Config{APIKey: apiKey, ServiceName: "evalrun"}
		if cfg.Tracing {
			tcfg.Endpoint = c.Endpoint()
		}
		tp, err := tracing.Setup(ctx, tcfg)
		if err != nil {
			return nil, err
		}
		e.tp, e.ownedTP = tp, tp
	}
	if o.mp != nil {
		e.metrics = metrics.NewEvaluationsWithProvider(o.mp, metrics.DefaultMeterName)
	} else {
		e.metrics = metrics.NewEvaluations(metrics.DefaultMeterName)
	}
	e.metrics.SetAttributeEnricher(func(_ context.Context, base []attribute.KeyValue) []attribute.KeyValue {
		return append(base, attribute.String("experiment", e.slug))
	})
	if e.onFlushError == nil {
		e.onFlushError = func(err error) {
			clog.FromContext(e.baseCtx).With("experiment", e.slug, "run_id", e.runID).
				Errorf("Failed to upload results: %v", err)
		}
	}
	e.batch.registry = make(targetRegistry)
	e.batch.lastFlush = time.Now()

	clog.FromContext(ctx).With("experiment", e.slug, "run_id", e.runID).
		Infof("Experiment initialized: %s", e.url)
	return e, nil
}

// Slug returns the slug assigned by the collector.
func (e *Experiment) Slug() string { return e.slug }

// Name returns the display name of the experiment.
func (e *Experiment) Name() string { return e.name }

// RunID returns the unique id of this run.
func (e *Experiment) RunID() string { return e.runID }

// URL returns the link to the experiment in the collector UI.
func (e *Experiment) URL() string { return e.url }

// TracerProvider returns the provider used for iteration and target spans.
func (e *Experiment) TracerProvider() oteltrace.TracerProvider { return e.tp }

// Flush uploads buffered results now and waits for all uploads in flight.
// It returns the background upload errors collected since the last call.
func (e *Experiment) Flush(ctx context.Context) error {
	e.batch.mu.Lock()
	e.flushLocked(flushRegular)
	e.batch.mu.Unlock()

	if err := e.waitSends(ctx); err != nil {
		return err
	}
	return e.takeFlushErrors()
}

// Close flushes buffered results and shuts down the tracer provider created by Init.
func (e *Experiment) Close(ctx context.Context) error {
	errs := []error{e.Flush(ctx)}
	if e.ownedTP != nil {
		errs = append(errs, e.ownedTP.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

func (e *Experiment) waitSends(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.sends.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Experiment) recordFlushError(err error) {
	e.errMu.Lock()
	e.flushErrs = append(e.flushErrs, err)
	e.errMu.Unlock()
	e.onFlushError(err)
}

func (e *Experiment) takeFlushErrors() error {
	e.errMu.Lock()
	defer e.errMu.Unlock()
	err := errors.Join(e.flushErrs...)
	e.flushErrs = nil
	return err
}
