// Package config loads and validates module configuration from a YAML file,
// a .env file and environment variables, in that order of precedence
// (environment wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the analysis backend.
type Config struct {
	Instagram InstagramConfig `yaml:"instagram"`
	Model     ModelConfig     `yaml:"model"`
	Agent     AgentConfig     `yaml:"agent"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// InstagramConfig holds the web session identifiers and client settings for
// the metrics fetcher. Sessions are provisioned out of band; there is no
// login flow here.
type InstagramConfig struct {
	SessionID      string        `yaml:"session_id"`
	CSRFToken      string        `yaml:"csrf_token"`
	UserAgent      string        `yaml:"user_agent"`
	BaseURL        string        `yaml:"base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// ModelConfig selects and tunes the language model provider.
type ModelConfig struct {
	Provider          string  `yaml:"provider"` // openai, anthropic or mock
	Name              string  `yaml:"name"`
	APIKey            string  `yaml:"api_key"`
	Temperature       float64 `yaml:"temperature"`
	MaxTokens         int64   `yaml:"max_tokens"`
	CaptionVariations int     `yaml:"caption_variations"`
}

// AgentConfig bounds the analysis loop and tunes the scoring weights.
type AgentConfig struct {
	MaxIterations int          `yaml:"max_iterations"`
	Verbose       bool         `yaml:"verbose"`
	Weights       ScoreWeights `yaml:"weights"`
}

// ScoreWeights control the contribution of each normalized sub-score to the
// overall profile score. They must sum to 1.
type ScoreWeights struct {
	Followers  float64 `yaml:"followers"`
	Engagement float64 `yaml:"engagement"`
	Media      float64 `yaml:"media"`
}

// RateLimitConfig throttles and retries Instagram requests.
type RateLimitConfig struct {
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	MaxRetries        int           `yaml:"max_retries"`
	RetryDelay        time.Duration `yaml:"retry_delay"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json, text or console
}

// DefaultConfig returns a Config with sensible defaults. The scoring weights
// default to the followers 0.4 / engagement 0.5 / media 0.1 split.
func DefaultConfig() *Config {
	return &Config{
		Instagram: InstagramConfig{
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			BaseURL:        "https://www.instagram.com",
			RequestTimeout: 30 * time.Second,
		},
		Model: ModelConfig{
			Provider:          "openai",
			Temperature:       0.7,
			MaxTokens:         4096,
			CaptionVariations: 3,
		},
		Agent: AgentConfig{
			MaxIterations: 20,
			Weights:       ScoreWeights{Followers: 0.4, Engagement: 0.5, Media: 0.1},
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			MaxRetries:        3,
			RetryDelay:        5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration: defaults, then the optional YAML file at
// path, then .env and process environment overrides, then validation.
func Load(path string) (*Config, error) {
	// .env is optional; missing files are not an error.
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides individual settings from environment variables.
func (c *Config) applyEnv() {
	setString(&c.Instagram.SessionID, "INSTAGRAM_SESSION_ID")
	setString(&c.Instagram.CSRFToken, "INSTAGRAM_CSRF_TOKEN")
	setString(&c.Instagram.UserAgent, "INSTAGRAM_USER_AGENT")
	setString(&c.Instagram.BaseURL, "INSTAGRAM_BASE_URL")

	setString(&c.Model.Provider, "MODEL_PROVIDER")
	setString(&c.Model.Name, "MODEL_NAME")
	setString(&c.Model.APIKey, "MODEL_API_KEY")

	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Format, "LOG_FORMAT")

	if v := os.Getenv("AGENT_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Agent.MaxIterations = n
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks the configuration for values the backend cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Agent.MaxIterations <= 0 {
		errs = append(errs, errors.New("agent.max_iterations must be positive"))
	}
	w := c.Agent.Weights
	if w.Followers < 0 || w.Engagement < 0 || w.Media < 0 {
		errs = append(errs, errors.New("agent.weights must be non-negative"))
	}
	if sum := w.Followers + w.Engagement + w.Media; sum < 0.999 || sum > 1.001 {
		errs = append(errs, fmt.Errorf("agent.weights must sum to 1, got %.3f", sum))
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("rate_limit.requests_per_minute must be positive"))
	}
	if c.RateLimit.MaxRetries < 0 {
		errs = append(errs, errors.New("rate_limit.max_retries must not be negative"))
	}
	if c.Instagram.BaseURL == "" {
		errs = append(errs, errors.New("instagram.base_url must not be empty"))
	}
	if c.Model.Provider == "" {
		errs = append(errs, errors.New("model.provider must not be empty"))
	}
	if c.Model.CaptionVariations <= 0 {
		errs = append(errs, errors.New("model.caption_variations must be positive"))
	}

	return errors.Join(errs...)
}
