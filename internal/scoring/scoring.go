// Package scoring computes the keyword-overlap ATS score of a resume against a
// job description.
package scoring

import (
	"math"
	"regexp"
	"strings"

	"github.com/jonathan/resume-matcher/internal/keywords"
)

// Result is the outcome of one analysis run. It is never mutated after
// creation; a new run produces a new Result.
type Result struct {
	Score            int            `json:"score"`
	Coverage         int            `json:"coverage"`
	MatchedKeywords  []string       `json:"matched_keywords"`
	MissingKeywords  []string       `json:"missing_keywords"`
	RequiredKeywords []string       `json:"required_keywords"`
	OptionalKeywords []string       `json:"optional_keywords"`
	SectionScores    map[string]int `json:"section_scores"`
	ExperienceMatch  int            `json:"experience_match"`
	ExperienceLevel  string         `json:"experience_level"`
	Insights         []string       `json:"insights"`
	Timestamp        int64          `json:"timestamp"`
}

// TotalKeywords is the size of the deduplicated job description keyword set.
func (r Result) TotalKeywords() int {
	return len(r.MatchedKeywords) + len(r.MissingKeywords)
}

// SectionAverage is the mean of all section scores, 0 when none are configured.
func (r Result) SectionAverage() float64 {
	if len(r.SectionScores) == 0 {
		return 0
	}
	total := 0
	for _, s := range r.SectionScores {
		total += s
	}
	return float64(total) / float64(len(r.SectionScores))
}

// Clone returns a deep copy.
func (r Result) Clone() Result {
	c := r
	c.MatchedKeywords = cloneStrings(r.MatchedKeywords)
	c.MissingKeywords = cloneStrings(r.MissingKeywords)
	c.RequiredKeywords = cloneStrings(r.RequiredKeywords)
	c.OptionalKeywords = cloneStrings(r.OptionalKeywords)
	c.Insights = cloneStrings(r.Insights)
	if r.SectionScores != nil {
		c.SectionScores = make(map[string]int, len(r.SectionScores))
		for k, v := range r.SectionScores {
			c.SectionScores[k] = v
		}
	}
	return c
}

// Score analyzes resumeText against jobDescriptionText. It is total: any pair
// of strings, including empty ones, yields a well-defined Result.
func Score(resumeText, jobDescriptionText string, cfg Config) Result {
	jdKeywords := keywords.UniqueTokens(jobDescriptionText, keywords.KeywordMinLength)
	resumeSet := keywords.Set(keywords.UniqueTokens(resumeText, keywords.KeywordMinLength))

	matched := make([]string, 0, len(jdKeywords))
	missing := make([]string, 0, len(jdKeywords))
	for _, k := range jdKeywords {
		if keywords.Matches(k, resumeSet) {
			matched = append(matched, k)
		} else {
			missing = append(missing, k)
		}
	}

	coverage := 0
	if len(jdKeywords) > 0 {
		coverage = roundPercent(float64(len(matched)) / float64(len(jdKeywords)))
	}

	required, optional := partitionRequired(jdKeywords, cfg.RequiredTerms)

	result := Result{
		Coverage:         coverage,
		MatchedKeywords:  matched,
		MissingKeywords:  missing,
		RequiredKeywords: required,
		OptionalKeywords: optional,
		SectionScores:    sectionScores(resumeText, cfg.Sections),
		Timestamp:        cfg.now().UnixMilli(),
	}
	result.ExperienceMatch = experienceMatch(resumeText, jobDescriptionText, cfg.ActionTerms, coverage)
	result.ExperienceLevel = ExperienceLevel(result.ExperienceMatch)
	result.Score = composite(float64(coverage), result.SectionAverage(), float64(result.ExperienceMatch), cfg.Weights)

	return result
}

// composite applies the weights and clamps to [0,100].
func composite(coverage, sectionAverage, experience float64, w Weights) int {
	raw := coverage*w.Coverage + sectionAverage*w.Sections + experience*w.Experience
	if math.IsNaN(raw) {
		return 0
	}
	return clamp(int(math.Round(raw)), 0, 100)
}

// sectionScores uses the binary policy: 100 when a "<name>:" or "<name> "
// header is present in the resume, 0 otherwise.
func sectionScores(resumeText string, sections []string) map[string]int {
	scores := make(map[string]int, len(sections))
	for _, name := range sections {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		pattern := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(key) + `[:\s]`)
		if pattern.MatchString(resumeText) {
			scores[key] = 100
		} else {
			scores[key] = 0
		}
	}
	return scores
}

// experienceMatch is the share of action terms in the job description that
// also appear in the resume. With no action terms in the job description it
// falls back to keyword coverage.
func experienceMatch(resumeText, jobDescriptionText string, actionTerms []string, coverage int) int {
	actions := keywords.TermSet(actionTerms)

	var wanted []string
	for _, t := range keywords.UniqueTokens(jobDescriptionText, keywords.TermMinLength) {
		if actions[t] {
			wanted = append(wanted, t)
		}
	}
	if len(wanted) == 0 {
		return coverage
	}

	have := keywords.Set(keywords.UniqueTokens(resumeText, keywords.TermMinLength))
	found := 0
	for _, t := range wanted {
		if keywords.Matches(t, have) {
			found++
		}
	}
	return roundPercent(float64(found) / float64(len(wanted)))
}

// partitionRequired splits the job description keywords into required terms
// and everything else, both in job description order.
func partitionRequired(jdKeywords, requiredTerms []string) (required, optional []string) {
	terms := keywords.TermSet(requiredTerms)

	required = make([]string, 0)
	optional = make([]string, 0, len(jdKeywords))
	for _, k := range jdKeywords {
		if terms[k] {
			required = append(required, k)
		} else {
			optional = append(optional, k)
		}
	}
	return required, optional
}

func roundPercent(ratio float64) int {
	return clamp(int(math.Round(ratio*100)), 0, 100)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
