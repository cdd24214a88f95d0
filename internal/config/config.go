// Package config loads runtime settings from flags, environment and an
// optional config file.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/valpere/linguabridge/internal/service"
)

const EnvPrefix = "LINGUABRIDGE"

// MaxAttemptsLimit bounds max_attempts.
const MaxAttemptsLimit = 10

// Environment variables holding the model credential, in lookup order.
// They apply to every provider; OpenRouter also reads OpenRouterCredentialEnv
// first.
const (
	CredentialEnv           = "GEMINI_API_KEY"
	LegacyCredentialEnv     = "NEXT_PUBLIC_GEMINI_API_KEY"
	OpenRouterCredentialEnv = "OPENROUTER_API_KEY"
)

type Config struct {
	Provider string `mapstructure:"provider"`
	// Model empty means the provider default.
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
	Listen  string `mapstructure:"listen"`

	CallTimeout   time.Duration `mapstructure:"call_timeout"`
	MaxAttempts   int           `mapstructure:"max_attempts"`
	RetryBackoff  time.Duration `mapstructure:"retry_backoff"`
	MaxIdioms     int           `mapstructure:"max_idioms"`
	MaxTextLength int           `mapstructure:"max_text_length"`

	Refine   bool `mapstructure:"refine"`
	Validate bool `mapstructure:"validate"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// NewViper returns a viper instance with defaults and environment binding.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("provider", "gemini")
	v.SetDefault("model", "")
	v.SetDefault("base_url", "")
	v.SetDefault("listen", ":3000")
	v.SetDefault("call_timeout", 30*time.Second)
	v.SetDefault("max_attempts", 3)
	v.SetDefault("retry_backoff", 500*time.Millisecond)
	v.SetDefault("max_idioms", 2)
	v.SetDefault("max_text_length", 5000)
	v.SetDefault("refine", true)
	v.SetDefault("validate", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	// The credential keeps its historical unprefixed names.
	_ = v.BindEnv("api_key", CredentialEnv, LegacyCredentialEnv)
	_ = v.BindEnv("openrouter.api_key", OpenRouterCredentialEnv)

	return v
}

// ReadFile merges path into v. An empty path is a no-op.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// Load decodes v into a Config and checks it.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))

	switch cfg.Provider {
	case "gemini", "ollama", "openrouter":
	default:
		return Config{}, fmt.Errorf("unknown provider: %q", cfg.Provider)
	}
	if cfg.MaxAttempts < 1 || cfg.MaxAttempts > MaxAttemptsLimit {
		return Config{}, fmt.Errorf("max_attempts must be between 1 and %d, got %d", MaxAttemptsLimit, cfg.MaxAttempts)
	}
	if cfg.CallTimeout < 0 || cfg.RetryBackoff < 0 {
		return Config{}, fmt.Errorf("call_timeout and retry_backoff must not be negative")
	}
	if cfg.MaxIdioms < 0 || cfg.MaxTextLength < 0 {
		return Config{}, fmt.Errorf("max_idioms and max_text_length must not be negative")
	}
	return cfg, nil
}

// CredentialSource returns a function reading the current credential for
// provider from v. A provider-specific key ("<provider>.api_key") wins over
// the shared one. It is evaluated per request, so the key is never cached.
func CredentialSource(v *viper.Viper, provider string) func() string {
	providerKey := strings.ToLower(provider) + ".api_key"
	return func() string {
		if k := strings.TrimSpace(v.GetString(providerKey)); k != "" {
			return k
		}
		return strings.TrimSpace(v.GetString("api_key"))
	}
}

// ServiceConfig projects the settings the translation service needs.
func (c Config) ServiceConfig() service.Config {
	return service.Config{
		Model:         c.Model,
		CallTimeout:   c.CallTimeout,
		MaxAttempts:   c.MaxAttempts,
		RetryBackoff:  c.RetryBackoff,
		MaxIdioms:     c.MaxIdioms,
		MaxTextLength: c.MaxTextLength,
	}
}

// NewLogger builds the process logger. Unknown levels fall back to info.
func NewLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
