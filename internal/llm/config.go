// Package llm wraps the Gemini API for the optional resume suggestion and
// cover letter features.
package llm

import "time"

// ModelTier represents the capability level of a model.
type ModelTier string

const (
	// TierLite is for short, cheap completions.
	TierLite ModelTier = "lite"
	// TierStandard is used for resume suggestions.
	TierStandard ModelTier = "standard"
	// TierAdvanced is used for cover letters.
	TierAdvanced ModelTier = "advanced"
)

// DefaultTimeout bounds a single generation call.
const DefaultTimeout = 60 * time.Second

// MaxInputChars caps each document sent to the model.
const MaxInputChars = 20000

// Config holds the model configuration.
type Config struct {
	Models      map[ModelTier]string
	Temperature float32
	Timeout     time.Duration
}

// DefaultConfig returns the default Gemini configuration.
func DefaultConfig() *Config {
	return &Config{
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature: 0.4,
		Timeout:     DefaultTimeout,
	}
}

// GetModel returns the model name for a tier, falling back to the standard
// and then the lite model.
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// WithModel returns a copy of c with model set for tier.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	out := *c
	out.Models = make(map[ModelTier]string, len(c.Models)+1)
	for k, v := range c.Models {
		out.Models[k] = v
	}
	out.Models[tier] = model
	return &out
}
