// Package insights derives human-readable improvement tips from a scoring result.
package insights

import (
	"fmt"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jonathan/resume-matcher/internal/scoring"
)

const (
	// MaxInsights caps the number of tips returned for one result.
	MaxInsights = 20
	// PerKeywordTips is the number of templated tips emitted per missing keyword.
	PerKeywordTips = 2
	// MaxKeywordTips is how many missing keywords receive templated tips.
	MaxKeywordTips = 5
	// SectionThreshold is the section score below which a section tip is emitted.
	SectionThreshold = 70
	// ExperienceThreshold is the experience match below which an alignment tip is emitted.
	ExperienceThreshold = 60
)

// Options tunes the tip budget. The zero value means "use the defaults".
type Options struct {
	MaxInsights         int
	PerKeywordTips      int
	MaxKeywordTips      int
	SectionThreshold    int
	ExperienceThreshold int
}

// DefaultOptions returns the default tip budget.
func DefaultOptions() Options {
	return Options{
		MaxInsights:         MaxInsights,
		PerKeywordTips:      PerKeywordTips,
		MaxKeywordTips:      MaxKeywordTips,
		SectionThreshold:    SectionThreshold,
		ExperienceThreshold: ExperienceThreshold,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxInsights <= 0 {
		o.MaxInsights = d.MaxInsights
	}
	if o.PerKeywordTips <= 0 {
		o.PerKeywordTips = d.PerKeywordTips
	}
	if o.MaxKeywordTips <= 0 {
		o.MaxKeywordTips = d.MaxKeywordTips
	}
	if o.SectionThreshold <= 0 {
		o.SectionThreshold = d.SectionThreshold
	}
	if o.ExperienceThreshold <= 0 {
		o.ExperienceThreshold = d.ExperienceThreshold
	}
	return o
}

var keywordTemplates = []string{
	"Add %q to your resume if it reflects your experience.",
	"Mention %q in a bullet point that shows measurable impact.",
	"Include %q in your skills summary to mirror the job description wording.",
}

// Generate returns the ordered, deduplicated and bounded tips for r. The same
// result always yields the same tips in the same order.
func Generate(r scoring.Result, opts Options) []string {
	opts = opts.withDefaults()

	var tips []string

	if r.TotalKeywords() == 0 {
		tips = append(tips, "Add a job description with concrete requirements so its keywords can be compared.")
	}
	if len(r.MatchedKeywords) == 0 && r.SectionAverage() == 0 {
		tips = append(tips, "Add more content to your resume: list your skills, experience and education.")
	}

	perKeyword := min(opts.PerKeywordTips, len(keywordTemplates))
	for i, k := range r.MissingKeywords {
		if i >= opts.MaxKeywordTips {
			break
		}
		for j := 0; j < perKeyword; j++ {
			tips = append(tips, fmt.Sprintf(keywordTemplates[j], k))
		}
	}

	matched := make(map[string]bool, len(r.MatchedKeywords))
	for _, k := range r.MatchedKeywords {
		matched[k] = true
	}
	for _, k := range r.RequiredKeywords {
		if !matched[k] {
			tips = append(tips, fmt.Sprintf("The job description asks for %q; state it explicitly.", k))
		}
	}

	sections := make([]string, 0, len(r.SectionScores))
	for name := range r.SectionScores {
		sections = append(sections, name)
	}
	sort.Strings(sections)
	for _, name := range sections {
		if r.SectionScores[name] < opts.SectionThreshold {
			tips = append(tips, fmt.Sprintf("Add a clearly labeled %q section.", titleCase(name)))
		}
	}

	if r.ExperienceMatch < opts.ExperienceThreshold {
		tips = append(tips, "Use action verbs (led, built, delivered) that mirror the responsibilities in the job description.")
	}

	return truncate(dedupe(tips), opts.MaxInsights)
}

func dedupe(tips []string) []string {
	seen := make(map[string]bool, len(tips))
	out := make([]string, 0, len(tips))
	for _, t := range tips {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func truncate(tips []string, limit int) []string {
	if len(tips) > limit {
		return tips[:limit]
	}
	return tips
}

// titleCase capitalizes each word of a section name, rune-aware.
func titleCase(s string) string {
	return cases.Title(language.Und).String(s)
}
