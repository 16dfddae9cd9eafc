// Package config loads Scout settings from a YAML file and the environment.
//
// Precedence, lowest first: built-in defaults, the config file, environment
// variables, CLI flags (applied by the caller).
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/scout/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Providers.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderOffline   = "offline"
)

// Session backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// DefaultSessionDir is where the file backend stores sessions.
const DefaultSessionDir = ".scout/sessions"

// CloudRunSessionDir is used instead when running on Cloud Run, where only /tmp is writable.
const CloudRunSessionDir = "/tmp/scout/sessions"

// Config is the full application configuration.
type Config struct {
	Oracle   OracleConfig   `yaml:"oracle"`
	Research ResearchConfig `yaml:"research"`
	Sessions SessionsConfig `yaml:"sessions"`
	Prompts  PromptsConfig  `yaml:"prompts"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// OracleConfig selects and configures the LLM provider.
type OracleConfig struct {
	Provider string `yaml:"provider"`
	// Model is the default model; prompts may override it.
	Model     string        `yaml:"model"`
	MaxTokens int64         `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
	// API keys are only read from the environment.
	GoogleAPIKey    string `yaml:"-"`
	AnthropicAPIKey string `yaml:"-"`
}

// ResearchConfig holds the product knobs of the research pipeline.
type ResearchConfig struct {
	MaxIterations      int    `yaml:"max_iterations"`
	DefaultIntent      string `yaml:"default_intent"`
	AssumeSufficient   bool   `yaml:"assume_sufficient"`
	ChitchatReply      string `yaml:"chitchat_reply"`
	ChitchatOracle     bool   `yaml:"chitchat_oracle"`
	MaxQueriesPerRound int    `yaml:"max_queries_per_round"`
}

// SessionsConfig selects the session store.
type SessionsConfig struct {
	Backend   string        `yaml:"backend"`
	Dir       string        `yaml:"dir"`
	RedisAddr string        `yaml:"redis_addr"`
	TTL       time.Duration `yaml:"ttl"`
	LockTTL   time.Duration `yaml:"lock_ttl"`
	// PIIPatterns are regular expressions matched against state keys.
	PIIPatterns []string `yaml:"pii_patterns"`
	// Keys are base64 and only read from the environment.
	EncryptionKey string   `yaml:"-"`
	FallbackKeys  []string `yaml:"-"`
}

// PromptsConfig points at an optional directory overriding the built-in prompts.
type PromptsConfig struct {
	Dir string `yaml:"dir"`
}

// ServerConfig configures the HTTP and MCP transports.
type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
	StaticDir   string   `yaml:"static_dir"`
	MCPPort     int      `yaml:"mcp_port"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Oracle: OracleConfig{
			Provider:  ProviderGemini,
			MaxTokens: 4096,
			Timeout:   2 * time.Minute,
		},
		Research: ResearchConfig{
			MaxIterations:      3,
			DefaultIntent:      string(domain.IntentChitchat),
			AssumeSufficient:   true,
			ChitchatReply:      "You're welcome!",
			MaxQueriesPerRound: 5,
		},
		Sessions: SessionsConfig{
			Backend: BackendFile,
			Dir:     DefaultSessionDir,
			TTL:     7 * 24 * time.Hour,
			LockTTL: 5 * time.Minute,
		},
		Server: ServerConfig{
			Addr:        ":8080",
			CORSOrigins: []string{"*"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the file at path, if any, on top of the defaults and applies the environment.
// An empty path falls back to $SCOUT_CONFIG; a missing default file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv("SCOUT_CONFIG")
		explicit = path != ""
	}
	if path == "" {
		path = "scout.yaml"
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("SCOUT_PROVIDER", &c.Oracle.Provider)
	str("SCOUT_MODEL", &c.Oracle.Model)
	str("GEMINI_API_KEY", &c.Oracle.GoogleAPIKey)
	str("GOOGLE_API_KEY", &c.Oracle.GoogleAPIKey)
	str("ANTHROPIC_API_KEY", &c.Oracle.AnthropicAPIKey)

	if err := num("SCOUT_MAX_RESEARCH_LOOPS", &c.Research.MaxIterations); err != nil {
		return err
	}
	if err := num("SCOUT_MAX_QUERIES", &c.Research.MaxQueriesPerRound); err != nil {
		return err
	}

	str("SCOUT_SESSION_BACKEND", &c.Sessions.Backend)
	if _, onCloudRun := lookup("K_SERVICE"); onCloudRun && c.Sessions.Dir == DefaultSessionDir {
		c.Sessions.Dir = CloudRunSessionDir
	}
	str("SCOUT_SESSION_DIR", &c.Sessions.Dir)
	str("SCOUT_REDIS_ADDR", &c.Sessions.RedisAddr)
	str("SCOUT_ENCRYPTION_KEY", &c.Sessions.EncryptionKey)
	if v, ok := lookup("SCOUT_ENCRYPTION_FALLBACK_KEYS"); ok && v != "" {
		c.Sessions.FallbackKeys = splitList(v)
	}

	str("SCOUT_PROMPTS_DIR", &c.Prompts.Dir)
	str("SCOUT_LOG_LEVEL", &c.Log.Level)
	str("SCOUT_LOG_FORMAT", &c.Log.Format)

	if port, ok := lookup("PORT"); ok && port != "" {
		c.Server.Addr = ":" + port
	}
	str("SCOUT_ADDR", &c.Server.Addr)
	return nil
}

// Validate rejects settings the application cannot start with.
func (c Config) Validate() error {
	var errs []error

	switch c.Oracle.Provider {
	case ProviderGemini, ProviderAnthropic, ProviderOffline:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, c.Oracle.Provider))
	}

	switch c.Sessions.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown session backend %q", c.Sessions.Backend))
	}
	if c.Sessions.Backend == BackendRedis && c.Sessions.RedisAddr == "" {
		errs = append(errs, errors.New("sessions.redis_addr is required for the redis backend"))
	}

	if _, ok := domain.ParseIntent(c.Research.DefaultIntent); !ok {
		errs = append(errs, fmt.Errorf("invalid research.default_intent %q", c.Research.DefaultIntent))
	}
	if c.Research.MaxIterations < 0 {
		errs = append(errs, errors.New("research.max_iterations must not be negative"))
	}

	if c.Sessions.EncryptionKey != "" {
		if _, err := DecodeKey(c.Sessions.EncryptionKey); err != nil {
			errs = append(errs, fmt.Errorf("SCOUT_ENCRYPTION_KEY: %w", err))
		}
	}
	for i, k := range c.Sessions.FallbackKeys {
		if _, err := DecodeKey(k); err != nil {
			errs = append(errs, fmt.Errorf("fallback key #%d: %w", i, err))
		}
	}
	for _, p := range c.Sessions.PIIPatterns {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("invalid pii pattern %q: %w", p, err))
		}
	}

	return errors.Join(errs...)
}

// EncryptionKeys returns the decoded active and fallback keys.
// The active key is nil when encryption is disabled.
func (c Config) EncryptionKeys() ([]byte, [][]byte, error) {
	if c.Sessions.EncryptionKey == "" {
		return nil, nil, nil
	}
	active, err := DecodeKey(c.Sessions.EncryptionKey)
	if err != nil {
		return nil, nil, err
	}
	var fallbacks [][]byte
	for _, k := range c.Sessions.FallbackKeys {
		key, err := DecodeKey(k)
		if err != nil {
			return nil, nil, err
		}
		fallbacks = append(fallbacks, key)
	}
	return active, fallbacks, nil
}

// DecodeKey decodes a base64 AES-256 key.
func DecodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("key is not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
