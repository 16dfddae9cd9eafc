package scout

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/scout/pkg/adapters/anthropic"
	"github.com/aretw0/scout/pkg/adapters/file"
	"github.com/aretw0/scout/pkg/adapters/gemini"
	loamAdapter "github.com/aretw0/scout/pkg/adapters/loam"
	"github.com/aretw0/scout/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/scout/pkg/adapters/redis"
	"github.com/aretw0/scout/pkg/adapters/scripted"
	"github.com/aretw0/scout/pkg/config"
	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/persistence/middleware"
	"github.com/aretw0/scout/pkg/ports"
	"github.com/aretw0/scout/pkg/session"
	backend "github.com/redis/go-redis/v9"
)

// NewOracle creates the oracle for the configured provider.
func NewOracle(ctx context.Context, cfg config.OracleConfig, logger *slog.Logger) (ports.Oracle, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		o, err := gemini.New(ctx, cfg.GoogleAPIKey,
			gemini.WithModel(cfg.Model),
			gemini.WithMaxTokens(int32(cfg.MaxTokens)),
			gemini.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		return o, nil
	case config.ProviderAnthropic:
		o, err := anthropic.New(cfg.AnthropicAPIKey,
			anthropic.WithModel(cfg.Model),
			anthropic.WithMaxTokens(cfg.MaxTokens),
			anthropic.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		return o, nil
	case config.ProviderOffline:
		return scripted.New(), nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, cfg.Provider)
	}
}

type timeoutOracle struct {
	next    ports.Oracle
	timeout time.Duration
}

// withTimeout bounds every oracle call.
func withTimeout(next ports.Oracle, timeout time.Duration) ports.Oracle {
	return &timeoutOracle{next: next, timeout: timeout}
}

func (o *timeoutOracle) Generate(ctx context.Context, req domain.OracleRequest) (domain.OracleResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return o.next.Generate(ctx, req)
}

// Backend is a session store with its optional locker.
type Backend struct {
	Store  ports.SessionStore
	Locker ports.DistributedLocker
	Close  func() error
}

// NewStore creates the configured session backend.
func NewStore(cfg config.SessionsConfig) (Backend, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return Backend{Store: memory.NewStore()}, nil
	case config.BackendFile:
		return Backend{Store: file.New(cfg.Dir)}, nil
	case config.BackendRedis:
		client, err := redisClient(cfg.RedisAddr)
		if err != nil {
			return Backend{}, err
		}
		store := redisAdapter.NewFromClient(client, redisAdapter.WithTTL(cfg.TTL))
		return Backend{
			Store:  store,
			Locker: redisAdapter.NewLocker(client, store.Prefix()),
			Close:  store.Close,
		}, nil
	default:
		return Backend{}, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}

// OpenSessions opens the configured session backend without building an
// oracle, for commands that only read or delete sessions.
func OpenSessions(cfg config.SessionsConfig, logger *slog.Logger) (*session.Manager, func() error, error) {
	b, err := NewStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	closer := b.Close
	if closer == nil {
		closer = func() error { return nil }
	}
	store, err := wrapStore(b.Store, cfg)
	if err != nil {
		_ = closer()
		return nil, nil, err
	}
	return session.NewManager(store, sessionOptions(cfg, b.Locker, logger)...), closer, nil
}

func sessionOptions(cfg config.SessionsConfig, locker ports.DistributedLocker, logger *slog.Logger) []session.Option {
	opts := []session.Option{
		session.WithLockTTL(cfg.LockTTL),
		session.WithLogger(logger),
	}
	if locker != nil {
		opts = append(opts, session.WithLocker(locker))
	}
	return opts
}

// redisClient accepts either host:port or a redis:// URL.
func redisClient(addr string) (*backend.Client, error) {
	if strings.Contains(addr, "://") {
		opts, err := backend.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid redis URL: %w", err)
		}
		return backend.NewClient(opts), nil
	}
	return backend.NewClient(&backend.Options{Addr: addr}), nil
}

// wrapStore adds PII masking and encryption. Masking runs first so that
// masked values are what gets encrypted.
func wrapStore(store ports.SessionStore, cfg config.SessionsConfig) (ports.SessionStore, error) {
	var mws []middleware.Middleware
	if len(cfg.PIIPatterns) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(cfg.PIIPatterns))
	}
	active, fallbacks, err := config.Config{Sessions: cfg}.EncryptionKeys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallbacks,
		}))
	}
	return middleware.Chain(store, mws...), nil
}

func openPromptDir(dir string) (ports.PromptSource, error) {
	prompts, err := loamAdapter.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open prompt directory %s: %w", dir, err)
	}
	return prompts, nil
}
