// Package instarank is the top level entry point for the Instagram analysis
// backend. It wires configuration, logging, the metrics fetcher, the model
// provider, the agent loop and the caption generator into one client.
//
// Typical use:
//
//	cfg, err := config.Load("config.yaml")
//	if err != nil { ... }
//	client, err := instarank.New(cfg)
//	if err != nil { ... }
//	ranked, err := client.AnalyzeUsers(ctx, []string{"alice", "bob"})
package instarank

import (
	"context"
	"fmt"
	"os"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/instarank/instarank/agent"
	"github.com/instarank/instarank/config"
	"github.com/instarank/instarank/core"
	"github.com/instarank/instarank/instagram"
	"github.com/instarank/instarank/logging"
	"github.com/instarank/instarank/model"
	"github.com/instarank/instarank/model/anthropic"
	"github.com/instarank/instarank/model/openai"
	"github.com/instarank/instarank/vision"
)

// Options customize client construction beyond what Config carries.
type Options struct {
	// Logger overrides the logger built from the logging config section.
	Logger logging.Logger
	// Model overrides the provider selected by the model config section.
	// Useful for tests that script replies.
	Model model.Model
	// Fetcher overrides the Instagram metrics client.
	Fetcher agent.Fetcher
}

// WithLogger overrides the configured logger.
func WithLogger(l logging.Logger) func(*Options) {
	return func(o *Options) { o.Logger = l }
}

// WithModel overrides the configured model provider.
func WithModel(m model.Model) func(*Options) {
	return func(o *Options) { o.Model = m }
}

// WithFetcher overrides the Instagram metrics fetcher.
func WithFetcher(f agent.Fetcher) func(*Options) {
	return func(o *Options) { o.Fetcher = f }
}

// Client bundles the analysis agent and the caption generator.
type Client struct {
	agent   *agent.Agent
	vision  *vision.Generator
	logger  logging.Logger
	fetcher agent.Fetcher
}

// New builds a Client from the configuration.
func New(cfg *config.Config, optFns ...func(*Options)) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("instarank: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("instarank: invalid config: %w", err)
	}

	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = newLogger(cfg.Logging)
	}

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = instagram.NewClient(func(o *instagram.Options) {
			o.SessionID = cfg.Instagram.SessionID
			o.CSRFToken = cfg.Instagram.CSRFToken
			o.UserAgent = cfg.Instagram.UserAgent
			o.BaseURL = cfg.Instagram.BaseURL
			o.Timeout = cfg.Instagram.RequestTimeout
			o.RequestsPerMinute = cfg.RateLimit.RequestsPerMinute
			o.MaxRetries = cfg.RateLimit.MaxRetries
			o.Logger = logger
		})
	}

	m := opts.Model
	if m == nil {
		m = newModel(cfg.Model, logger)
	}

	weights := agent.Weights{
		Followers:  cfg.Agent.Weights.Followers,
		Engagement: cfg.Agent.Weights.Engagement,
		Media:      cfg.Agent.Weights.Media,
	}
	ag := agent.New(m, fetcher,
		agent.WithMaxIterations(cfg.Agent.MaxIterations),
		agent.WithVerbose(cfg.Agent.Verbose),
		agent.WithWeights(weights),
		agent.WithLogger(logger),
	)

	gen := vision.NewGenerator(m,
		vision.WithVariations(cfg.Model.CaptionVariations),
		vision.WithLogger(logger),
	)

	return &Client{agent: ag, vision: gen, logger: logger, fetcher: fetcher}, nil
}

// AnalyzeUsers runs the full analysis loop and returns the ranked profiles.
func (c *Client) AnalyzeUsers(ctx context.Context, usernames []string) ([]core.Profile, error) {
	if len(usernames) == 0 {
		return nil, fmt.Errorf("instarank: no usernames given")
	}
	return c.agent.Analyze(ctx, usernames)
}

// SuggestCaptions generates caption and hashtag suggestions for an image.
func (c *Client) SuggestCaptions(ctx context.Context, image []byte) ([]vision.Suggestion, error) {
	return c.vision.SuggestCaptions(ctx, image)
}

// UserMetrics fetches metrics for a single username without running the
// agent loop.
func (c *Client) UserMetrics(ctx context.Context, username string) core.Profile {
	return c.fetcher.UserMetrics(ctx, username)
}

func newLogger(cfg config.LoggingConfig) logging.Logger {
	level := logging.ParseLevel(cfg.Level)
	switch cfg.Format {
	case "console":
		return logging.NewConsoleLogger(level, os.Stderr)
	default:
		return logging.NewSlogLogger(level, cfg.Format, os.Stderr)
	}
}

// newModel selects the provider. Unknown providers log a warning and fall
// back to OpenAI so a typo degrades rather than crashes.
func newModel(cfg config.ModelConfig, logger logging.Logger) model.Model {
	switch cfg.Provider {
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Name != "" {
				o.Model = anthropicsdk.Model(cfg.Name)
			}
			o.Temperature = cfg.Temperature
			o.MaxTokens = cfg.MaxTokens
			o.APIKey = cfg.APIKey
		})
	case "mock":
		return model.NewMockModel("mock")
	case "openai":
	default:
		logger.Warn("unknown model provider, falling back to openai", "provider", cfg.Provider)
	}
	return openai.NewModel(func(o *openai.Options) {
		if cfg.Name != "" {
			o.Model = cfg.Name
		}
		o.Temperature = cfg.Temperature
		o.MaxCompletionTokens = cfg.MaxTokens
		o.APIKey = cfg.APIKey
	})
}
