package llm

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/jonathan/resume-matcher/internal/prompts"
)

// Circuit breaker settings for calls to the model service.
const (
	BreakerFailures = 5
	BreakerCooldown = 30 * time.Second
)

// Optimizer produces free-text AI suggestions for a resume against a job
// description. token is the caller's credential for the model service; an
// empty token uses the optimizer's configured key.
type Optimizer interface {
	Suggest(ctx context.Context, resume, jobDescription, token string) (string, error)
	CoverLetter(ctx context.Context, resume, jobDescription, token string) (string, error)
}

// ClientFactory opens a Client for an API key.
type ClientFactory func(ctx context.Context, config *Config, apiKey string) (Client, error)

// GeminiOptimizer implements Optimizer with prompts rendered from the
// embedded templates.
type GeminiOptimizer struct {
	config    *Config
	apiKey    string
	newClient ClientFactory
	breaker   *gobreaker.CircuitBreaker
	logger    *slog.Logger
}

// NewGeminiOptimizer returns an optimizer using apiKey when callers pass no
// token of their own.
func NewGeminiOptimizer(config *Config, apiKey string, logger *slog.Logger) *GeminiOptimizer {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GeminiOptimizer{
		config: config,
		apiKey: apiKey,
		newClient: func(ctx context.Context, config *Config, apiKey string) (Client, error) {
			return NewGeminiClient(ctx, config, apiKey)
		},
		breaker: newBreaker(logger),
		logger:  logger,
	}
}

// newBreaker trips after BreakerFailures consecutive service-side failures.
// Caller errors (bad key, throttling) do not count.
func newBreaker(logger *slog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "gemini",
		Timeout: BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			var upstream *UpstreamError
			var network *NetworkError
			return !errors.As(err, &upstream) && !errors.As(err, &network)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// WithClientFactory replaces how clients are opened.
func (o *GeminiOptimizer) WithClientFactory(f ClientFactory) *GeminiOptimizer {
	o.newClient = f
	return o
}

// Configured reports whether the optimizer has a default API key.
func (o *GeminiOptimizer) Configured() bool {
	return o.apiKey != ""
}

// Suggest implements Optimizer.
func (o *GeminiOptimizer) Suggest(ctx context.Context, resume, jobDescription, token string) (string, error) {
	return o.generate(ctx, prompts.KeySuggestSystem, prompts.KeySuggest, TierStandard, resume, jobDescription, token)
}

// CoverLetter implements Optimizer.
func (o *GeminiOptimizer) CoverLetter(ctx context.Context, resume, jobDescription, token string) (string, error) {
	return o.generate(ctx, prompts.KeyCoverLetterSystem, prompts.KeyCoverLetter, TierAdvanced, resume, jobDescription, token)
}

func (o *GeminiOptimizer) generate(ctx context.Context, systemKey, promptKey string, tier ModelTier, resume, jobDescription, token string) (string, error) {
	key := token
	if key == "" {
		key = o.apiKey
	}
	if key == "" {
		return "", &ConfigError{Message: "no API key configured (set GEMINI_API_KEY)"}
	}

	system, err := prompts.Get(prompts.Optimize, systemKey)
	if err != nil {
		return "", &ConfigError{Message: err.Error()}
	}
	prompt, err := prompts.Render(prompts.Optimize, promptKey, map[string]string{
		"Resume":         truncate(strings.TrimSpace(resume), MaxInputChars),
		"JobDescription": truncate(strings.TrimSpace(jobDescription), MaxInputChars),
	})
	if err != nil {
		return "", &ConfigError{Message: err.Error()}
	}

	if o.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.Timeout)
		defer cancel()
	}

	out, err := o.breaker.Execute(func() (interface{}, error) {
		client, err := o.newClient(ctx, o.config, key)
		if err != nil {
			return "", Classify(err)
		}
		defer func() { _ = client.Close() }()

		o.logger.Debug("requesting generation", "prompt", promptKey, "model", o.config.GetModel(tier))
		text, err := client.GenerateContent(ctx, system, prompt, tier)
		if err != nil {
			return "", Classify(err)
		}
		text = StripCodeFence(text)
		if text == "" {
			return "", &UpstreamError{Message: "empty response"}
		}
		return text, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", &NetworkError{Message: "model service is failing, retry later", Cause: err}
	}
	if err != nil {
		o.logger.Warn("generation failed", "prompt", promptKey, "error", err)
		return "", err
	}
	return out.(string), nil
}
