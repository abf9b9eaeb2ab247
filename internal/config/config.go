// Package config loads quizsynth settings from an optional YAML file and
// QUIZSYNTH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/adaptilearn/quizsynth/internal/llm"
	"github.com/adaptilearn/quizsynth/internal/logging"
)

// EnvPrefix prefixes every environment override, e.g. QUIZSYNTH_SERVER_ADDR.
const EnvPrefix = "QUIZSYNTH"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      logging.Config `mapstructure:"log"`
	LLM      LLMSettings    `mapstructure:"llm"`
	Feedback FeedbackConfig `mapstructure:"feedback"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Audit    AuditConfig    `mapstructure:"audit"`
}

type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	CORSOrigins    []string      `mapstructure:"cors_origins"`
}

// LLMSettings is the flat, file-friendly form of llm.Config.
type LLMSettings struct {
	Provider    string        `mapstructure:"provider"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Retry       struct {
		MaxAttempts int `mapstructure:"max_attempts"`
	} `mapstructure:"retry"`

	Gemini     VendorConfig `mapstructure:"gemini"`
	OpenAI     VendorConfig `mapstructure:"openai"`
	Anthropic  VendorConfig `mapstructure:"anthropic"`
	OpenRouter VendorConfig `mapstructure:"openrouter"`
}

type VendorConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type FeedbackConfig struct {
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

type CatalogConfig struct {
	// Path is an optional YAML file merged over the embedded catalog.
	Path string `mapstructure:"path"`
}

type AuditConfig struct {
	// DBPath enables the sqlite AI-call ledger when set.
	DBPath string `mapstructure:"db_path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 90*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.request_timeout", 60*time.Second)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")

	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.timeout", 30*time.Second)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.retry.max_attempts", 2)
	for _, vendor := range []string{"gemini", "openai", "anthropic", "openrouter"} {
		v.SetDefault("llm."+vendor+".api_key", "")
		v.SetDefault("llm."+vendor+".base_url", "")
	}

	v.SetDefault("feedback.max_tokens", 2048)
	v.SetDefault("feedback.temperature", 0.4)

	v.SetDefault("catalog.path", "")
	v.SetDefault("audit.db_path", "")
}

// Load reads path (if non-empty) and applies environment overrides on top
// of the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server or generators cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr must not be empty"))
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, errors.New("server.request_timeout must be positive"))
	}
	if c.LLM.MaxTokens <= 0 {
		errs = append(errs, errors.New("llm.max_tokens must be positive"))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("llm.temperature %v out of range [0,2]", c.LLM.Temperature))
	}
	if c.LLM.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("llm.retry.max_attempts must be at least 1"))
	}
	return errors.Join(errs...)
}

// LLMConfig resolves the provider settings. An explicit llm.provider wins;
// otherwise the first vendor with a QUIZSYNTH_LLM_<VENDOR>_API_KEY is
// chosen, and failing that llm.Discover probes the vendors' own key
// variables. A zero Provider in the result means AI is unavailable.
func (c *Config) LLMConfig() llm.Config {
	cfg := llm.DefaultConfig()
	s := c.LLM

	cfg.Gemini.APIKey = s.Gemini.APIKey
	cfg.OpenAI.APIKey = s.OpenAI.APIKey
	cfg.OpenAI.BaseURL = s.OpenAI.BaseURL
	cfg.Anthropic.APIKey = s.Anthropic.APIKey
	cfg.OpenRouter.APIKey = s.OpenRouter.APIKey
	cfg.OpenRouter.BaseURL = s.OpenRouter.BaseURL

	if s.Timeout > 0 {
		cfg.Timeout = s.Timeout
	}
	if s.Retry.MaxAttempts > 0 {
		cfg.Retry.MaxAttempts = s.Retry.MaxAttempts
	}

	cfg.Provider = strings.ToLower(strings.TrimSpace(s.Provider))
	if cfg.Provider == "" {
		switch {
		case s.Gemini.APIKey != "":
			cfg.Provider = "gemini"
		case s.OpenAI.APIKey != "":
			cfg.Provider = "openai"
		case s.Anthropic.APIKey != "":
			cfg.Provider = "anthropic"
		case s.OpenRouter.APIKey != "":
			cfg.Provider = "openrouter"
		}
	}
	cfg, _ = llm.Discover(cfg)
	fillVendorKey(&cfg)

	if s.Model != "" {
		switch cfg.Provider {
		case "gemini":
			cfg.Gemini.Model = s.Model
		case "openai":
			cfg.OpenAI.Model = s.Model
		case "anthropic":
			cfg.Anthropic.Model = s.Model
		case "openrouter":
			cfg.OpenRouter.Model = s.Model
		}
	}
	return cfg
}

// fillVendorKey lets an explicit provider pick up its vendor's standard
// key variable when no QUIZSYNTH key was given.
func fillVendorKey(cfg *llm.Config) {
	var key *string
	var env string
	switch cfg.Provider {
	case "gemini":
		key, env = &cfg.Gemini.APIKey, "GEMINI_API_KEY"
	case "openai":
		key, env = &cfg.OpenAI.APIKey, "OPENAI_API_KEY"
	case "anthropic":
		key, env = &cfg.Anthropic.APIKey, "ANTHROPIC_API_KEY"
	case "openrouter":
		key, env = &cfg.OpenRouter.APIKey, "OPENROUTER_API_KEY"
	default:
		return
	}
	if *key == "" {
		*key = os.Getenv(env)
	}
}

// Completion returns the question-generation call settings.
func (c *Config) Completion() llm.CompleteOptions {
	return llm.CompleteOptions{
		MaxTokens:   c.LLM.MaxTokens,
		Temperature: c.LLM.Temperature,
	}
}
