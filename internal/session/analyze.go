package session

import (
	"github.com/jonathan/resume-matcher/internal/insights"
	"github.com/jonathan/resume-matcher/internal/scoring"
)

// Analyze scores a resume against a job description and attaches insights.
// It is pure and shared by the manager, the HTTP server and batch scoring.
func Analyze(resumeText, jobDescriptionText string, cfg scoring.Config, opts insights.Options) scoring.Result {
	result := scoring.Score(resumeText, jobDescriptionText, cfg)
	result.Insights = insights.Generate(result, opts)
	return result
}
