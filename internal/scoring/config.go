package scoring

import (
	"fmt"
	"math"
	"time"
)

// Weights controls how the composite score is assembled. The three weights
// must sum to 1.
type Weights struct {
	Coverage   float64 `json:"coverage"`
	Sections   float64 `json:"sections"`
	Experience float64 `json:"experience"`
}

// DefaultWeights is the 40/30/30 coverage/sections/experience split.
var DefaultWeights = Weights{
	Coverage:   0.4,
	Sections:   0.3,
	Experience: 0.3,
}

// Validate checks that every weight lies in [0,1] and that they sum to 1.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"coverage":   w.Coverage,
		"sections":   w.Sections,
		"experience": w.Experience,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("weight %s must be within [0,1], got %v", name, v)
		}
	}
	if sum := w.Coverage + w.Sections + w.Experience; math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("weights must sum to 1, got %v", sum)
	}
	return nil
}

// Experience bands applied to the experience match value.
const (
	LevelStrong   = "Strong"
	LevelModerate = "Moderate"
	LevelWeak     = "Weak"

	strongAbove   = 60
	moderateFloor = 40
)

// DefaultSections are the resume sections checked for presence.
var DefaultSections = []string{"skills", "experience", "education"}

// DefaultRequiredTerms are the domain-generic keywords treated as required
// when they appear in a job description.
var DefaultRequiredTerms = []string{"experience", "skills", "education"}

// DefaultActionTerms is the seniority and responsibility vocabulary used by the
// experience match heuristic.
var DefaultActionTerms = []string{
	"lead", "led", "leadership", "manage", "managed", "management", "mentor",
	"own", "ownership", "drive", "deliver", "develop", "design", "build", "built",
	"implement", "architect", "deploy", "launch", "maintain", "optimize", "scale",
	"collaborate", "responsible", "senior", "principal", "experience",
}

// Config parameterizes Score. The zero value is not usable; start from
// DefaultConfig.
type Config struct {
	Weights       Weights
	Sections      []string
	RequiredTerms []string
	ActionTerms   []string

	// Now stamps results. Defaults to time.Now.
	Now func() time.Time
}

// DefaultConfig returns the reference scoring configuration.
func DefaultConfig() Config {
	return Config{
		Weights:       DefaultWeights,
		Sections:      append([]string(nil), DefaultSections...),
		RequiredTerms: append([]string(nil), DefaultRequiredTerms...),
		ActionTerms:   append([]string(nil), DefaultActionTerms...),
		Now:           time.Now,
	}
}

// Validate checks the configuration for values Score cannot use.
func (c Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	for _, s := range c.Sections {
		if s == "" {
			return fmt.Errorf("section names must not be empty")
		}
	}
	return nil
}

func (c Config) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// ExperienceLevel bands an experience match value.
func ExperienceLevel(match int) string {
	switch {
	case match > strongAbove:
		return LevelStrong
	case match >= moderateFloor:
		return LevelModerate
	default:
		return LevelWeak
	}
}
