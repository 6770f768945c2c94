package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/spicebot/internal/common"
)

// Supported LLM providers. ProviderNone disables the AI categorizer.
const (
	ProviderNone      = "none"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// DefaultDatabasePath is used when database.path is unset.
const DefaultDatabasePath = "$HOME/.local/share/spicebot/spicebot.db"

// Config is the typed view of the application settings.
type Config struct {
	Database DatabaseConfig
	Logging  LoggingConfig
	LLM      LLMConfig
	Bot      BotConfig
	Resolver ResolverConfig
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string
}

// LoggingConfig selects the log level and handler.
type LoggingConfig struct {
	Level  string
	Format string
}

// LLMConfig configures the AI categorizer.
type LLMConfig struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	RetryDelay  time.Duration
	Temperature float64
	RateLimit   int
	MaxRetries  int
	MaxTokens   int
}

// BotConfig configures message handling.
type BotConfig struct {
	RateStrategy    string
	DefaultLanguage string
	Placeholder     string
	RateWindow      time.Duration
	RateLimit       int
	TokenLength     int
}

// ResolverConfig tunes category resolution.
type ResolverConfig struct {
	HintThreshold float64
	HistoryLimit  int
	HistoryDays   int
	Keywords      bool
}

// SetDefaults registers default values for every known key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("llm.provider", ProviderNone)
	v.SetDefault("llm.timeout", 8*time.Second)
	v.SetDefault("llm.rate_limit", 60)
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.retry_delay", 250*time.Millisecond)
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_tokens", 100)

	v.SetDefault("bot.rate_limit", 30)
	v.SetDefault("bot.rate_window", time.Minute)
	v.SetDefault("bot.rate_strategy", "window")
	v.SetDefault("bot.default_language", "en")
	v.SetDefault("bot.token_length", 8)
	v.SetDefault("bot.placeholder", "Transaction via bot")

	v.SetDefault("resolver.hint_threshold", 0.6)
	v.SetDefault("resolver.history_limit", 500)
	v.SetDefault("resolver.history_days", 180)
	v.SetDefault("resolver.keywords", false)
}

// Load reads the configuration from v, applying defaults for unset keys.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{
		Database: DatabaseConfig{
			Path: ExpandPath(v.GetString("database.path")),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		LLM: LLMConfig{
			Provider:    strings.ToLower(v.GetString("llm.provider")),
			Model:       v.GetString("llm.model"),
			APIKey:      v.GetString("llm.api_key"),
			BaseURL:     v.GetString("llm.base_url"),
			Timeout:     v.GetDuration("llm.timeout"),
			RateLimit:   v.GetInt("llm.rate_limit"),
			MaxRetries:  v.GetInt("llm.max_retries"),
			RetryDelay:  v.GetDuration("llm.retry_delay"),
			Temperature: v.GetFloat64("llm.temperature"),
			MaxTokens:   v.GetInt("llm.max_tokens"),
		},
		Bot: BotConfig{
			RateLimit:       v.GetInt("bot.rate_limit"),
			RateWindow:      v.GetDuration("bot.rate_window"),
			RateStrategy:    v.GetString("bot.rate_strategy"),
			DefaultLanguage: v.GetString("bot.default_language"),
			TokenLength:     v.GetInt("bot.token_length"),
			Placeholder:     v.GetString("bot.placeholder"),
		},
		Resolver: ResolverConfig{
			HintThreshold: v.GetFloat64("resolver.hint_threshold"),
			HistoryLimit:  v.GetInt("resolver.history_limit"),
			HistoryDays:   v.GetInt("resolver.history_days"),
			Keywords:      v.GetBool("resolver.keywords"),
		},
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = cfg.LLM.KeyFromEnv(os.Getenv)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// KeyFromEnv returns the provider's conventional API key environment variable.
func (c LLMConfig) KeyFromEnv(getenv func(string) string) string {
	switch c.Provider {
	case ProviderOpenAI:
		return getenv("OPENAI_API_KEY")
	case ProviderAnthropic:
		return getenv("ANTHROPIC_API_KEY")
	case ProviderGemini:
		if key := getenv("GEMINI_API_KEY"); key != "" {
			return key
		}
		return getenv("GOOGLE_API_KEY")
	default:
		return ""
	}
}

// Enabled reports whether an AI provider is configured.
func (c LLMConfig) Enabled() bool {
	return c.Provider != "" && c.Provider != ProviderNone
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return err
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: logging.format %q", common.ErrInvalidConfig, c.Logging.Format)
	}

	switch c.LLM.Provider {
	case "", ProviderNone, ProviderOpenAI, ProviderAnthropic, ProviderGemini:
	default:
		return fmt.Errorf("%w: llm.provider %q", common.ErrInvalidConfig, c.LLM.Provider)
	}

	switch c.Bot.DefaultLanguage {
	case "en", "pt":
	default:
		return fmt.Errorf("%w: bot.default_language %q", common.ErrInvalidConfig, c.Bot.DefaultLanguage)
	}

	if c.Resolver.HintThreshold <= 0 || c.Resolver.HintThreshold > 1 {
		return fmt.Errorf("%w: resolver.hint_threshold must be in (0, 1]", common.ErrInvalidConfig)
	}
	if c.Bot.TokenLength < 4 || c.Bot.TokenLength > 32 {
		return fmt.Errorf("%w: bot.token_length must be between 4 and 32", common.ErrInvalidConfig)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path", common.ErrMissingConfig)
	}
	return nil
}
