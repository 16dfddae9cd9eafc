package scout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/scout/internal/logging"
	"github.com/aretw0/scout/internal/research"
	"github.com/aretw0/scout/pkg/adapters/memory"
	"github.com/aretw0/scout/pkg/config"
	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/flow"
	"github.com/aretw0/scout/pkg/observability"
	"github.com/aretw0/scout/pkg/ports"
	"github.com/aretw0/scout/pkg/registry"
	"github.com/aretw0/scout/pkg/runner"
	"github.com/aretw0/scout/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
)

// Assistant is the high-level entry point: a configured research team bound
// to a session store.
type Assistant struct {
	cfg      config.Config
	runner   *runner.Runner
	team     *research.Assistant
	prompts  ports.PromptSource
	metrics  *observability.Metrics
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	closers  []func() error
}

type options struct {
	oracle     ports.Oracle
	store      ports.SessionStore
	locker     ports.DistributedLocker
	prompts    ports.PromptSource
	logger     *slog.Logger
	hooks      domain.LifecycleHooks
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
	clock      func() time.Time
}

// Option defines a functional option for configuring the Assistant.
type Option func(*options)

// WithOracle injects the oracle, bypassing the configured provider.
func WithOracle(o ports.Oracle) Option {
	return func(opts *options) {
		opts.oracle = o
	}
}

// WithStore injects the session store, bypassing the configured backend.
// Encryption and PII masking from the configuration still apply.
func WithStore(s ports.SessionStore) Option {
	return func(opts *options) {
		opts.store = s
	}
}

// WithLocker enables distributed session locks.
func WithLocker(l ports.DistributedLocker) Option {
	return func(opts *options) {
		opts.locker = l
	}
}

// WithPromptSource replaces the prompt catalog.
func WithPromptSource(p ports.PromptSource) Option {
	return func(opts *options) {
		opts.prompts = p
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks in addition to metrics and debug logs.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(opts *options) {
		opts.hooks = hooks
	}
}

// WithRegistry registers the metrics on reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(opts *options) {
		opts.registerer = reg
		opts.gatherer = reg
	}
}

// WithClock sets the clock used for the current_time key.
func WithClock(now func() time.Time) Option {
	return func(opts *options) {
		opts.clock = now
	}
}

// newBackend opens the session backend when no store is injected.
var newBackend = NewStore

// New builds an Assistant from cfg.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*Assistant, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	o := &options{clock: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.NewWithFormat(os.Stderr, logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)
	}
	if o.registerer == nil {
		reg := prometheus.NewRegistry()
		o.registerer, o.gatherer = reg, reg
	}

	a := &Assistant{cfg: cfg, logger: o.logger, gatherer: o.gatherer}

	oracle := o.oracle
	if oracle == nil {
		var err error
		if oracle, err = NewOracle(ctx, cfg.Oracle, o.logger); err != nil {
			return nil, err
		}
	}
	if cfg.Oracle.Timeout > 0 {
		oracle = withTimeout(oracle, cfg.Oracle.Timeout)
	}

	prompts := o.prompts
	if prompts == nil {
		var err error
		if prompts, err = NewPromptSource(cfg.Prompts); err != nil {
			return nil, err
		}
	}
	a.prompts = prompts

	store, locker := o.store, o.locker
	if store == nil {
		built, err := newBackend(cfg.Sessions)
		if err != nil {
			return nil, err
		}
		store = built.Store
		if locker == nil {
			locker = built.Locker
		}
		if built.Close != nil {
			a.closers = append(a.closers, built.Close)
		}
	}
	store, err := wrapStore(store, cfg.Sessions)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	team, err := research.New(ctx, oracle, prompts, research.Options{
		MaxIterations:      cfg.Research.MaxIterations,
		DefaultIntent:      domain.Intent(cfg.Research.DefaultIntent),
		AssumeSufficient:   cfg.Research.AssumeSufficient,
		ChitchatReply:      cfg.Research.ChitchatReply,
		ChitchatOracle:     cfg.Research.ChitchatOracle,
		MaxQueriesPerRound: cfg.Research.MaxQueriesPerRound,
		Clock:              o.clock,
	})
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to build research team: %w", err)
	}
	a.team = team

	a.metrics = observability.NewMetrics(o.registerer)
	hooks := observability.Combine(a.metrics.Hooks(), observability.LogHooks(o.logger), o.hooks)

	a.runner = runner.New(team, session.NewManager(store, sessionOptions(cfg.Sessions, locker, o.logger)...),
		runner.WithLogger(o.logger),
		runner.WithHooks(hooks),
		runner.WithTurnObserver(func(_ context.Context, res *runner.Result, err error) {
			intent := ""
			if res != nil {
				intent = res.Intent
			}
			a.metrics.ObserveTurn(intent, err)
		}),
	)

	o.logger.Debug("Assistant ready",
		"provider", cfg.Oracle.Provider,
		"backend", cfg.Sessions.Backend,
		"max_iterations", team.MaxIterations(),
	)
	return a, nil
}

// Run executes one turn, forwarding events to sink as they happen.
func (a *Assistant) Run(ctx context.Context, req runner.Request, sink flow.Sink) (*runner.Result, error) {
	return a.runner.Run(ctx, req, sink)
}

// Ask runs one turn in sessionID (a new session when empty) and returns its result.
func (a *Assistant) Ask(ctx context.Context, sessionID, question string) (*runner.Result, error) {
	return a.runner.Run(ctx, runner.Request{SessionID: sessionID, Message: question}, nil)
}

// Sessions returns the session manager.
func (a *Assistant) Sessions() *session.Manager {
	return a.runner.Sessions()
}

// Prompts returns the prompt catalog in use.
func (a *Assistant) Prompts() ports.PromptSource {
	return a.prompts
}

// Logger returns the assistant's logger.
func (a *Assistant) Logger() *slog.Logger {
	return a.logger
}

// Gatherer returns the registry holding the assistant's metrics.
func (a *Assistant) Gatherer() prometheus.Gatherer {
	return a.gatherer
}

// Config returns the configuration the assistant was built from.
func (a *Assistant) Config() config.Config {
	return a.cfg
}

// Describe returns the step tree of a turn.
func (a *Assistant) Describe() flow.Description {
	return flow.Describe(a.team)
}

// MaxIterations reports the research loop bound.
func (a *Assistant) MaxIterations() int {
	return a.team.MaxIterations()
}

// Close releases backend connections.
func (a *Assistant) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// NewPromptSource layers the optional prompt directory over the built-in catalog.
func NewPromptSource(cfg config.PromptsConfig) (ports.PromptSource, error) {
	if cfg.Dir == "" {
		return memory.DefaultPrompts(), nil
	}
	dir, err := openPromptDir(cfg.Dir)
	if err != nil {
		return nil, err
	}
	return registry.NewRegistry(dir, memory.DefaultPrompts()), nil
}
