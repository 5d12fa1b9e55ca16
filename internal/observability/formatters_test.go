package observability

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-matcher/internal/history"
	"github.com/jonathan/resume-matcher/internal/scoring"
)

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintResult(&scoring.Result{
		Score:           58,
		Coverage:        71,
		MatchedKeywords: []string{"golang", "kubernetes"},
		MissingKeywords: []string{"terraform"},
		SectionScores:   map[string]int{"skills": 100, "education": 0},
		ExperienceMatch: 55,
		ExperienceLevel: scoring.LevelModerate,
		Insights:        []string{"Add a Terraform project"},
	})
	output := buf.String()

	assert.Contains(t, output, "ANALYSIS RESULT")
	assert.Contains(t, output, "58/100")
	assert.Contains(t, output, "2 of 3 keywords")
	assert.Contains(t, output, "✓ skills")
	assert.Contains(t, output, "✗ education")
	assert.Contains(t, output, "terraform")
	assert.Contains(t, output, "INSIGHTS")
	assert.Contains(t, output, "1. Add a Terraform project")
}

func TestPrintResult_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintResult(nil)
	assert.Empty(t, buf.String())
}

func TestPrintResult_TruncatesKeywordList(t *testing.T) {
	var buf bytes.Buffer
	missing := []string{"a1", "a2", "a3", "a4", "a5", "a6", "a7", "a8", "a9", "a10"}
	NewPrinter(&buf).PrintResult(&scoring.Result{MissingKeywords: missing})

	assert.Contains(t, buf.String(), "... and 2 more")
	assert.NotContains(t, buf.String(), "a10")
}

func TestPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintHistory([]history.Entry{
		{ID: 2, Timestamp: 1700000000000, ResumeFileName: "resume.pdf", JDFileName: "https://jobs.example.com/1", Score: 72, Coverage: 80},
		{ID: 1, Timestamp: 1699990000000, Score: 40, Coverage: 35},
	})
	output := buf.String()

	assert.Contains(t, output, "HISTORY (2)")
	assert.Contains(t, output, "#2")
	assert.Contains(t, output, "score 72")
	assert.Contains(t, output, "resume.pdf vs")
	assert.Contains(t, output, "- vs -")
}

func TestPrintHistory_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintHistory(nil)
	assert.Contains(t, buf.String(), "No analyses yet")
}

func TestPrintSuggestions_WrapsLongLines(t *testing.T) {
	var buf bytes.Buffer
	text := strings.Repeat("quantify impact ", 12)
	NewPrinter(&buf).PrintSuggestions("Suggestions", text)

	output := buf.String()
	assert.Contains(t, output, "SUGGESTIONS")
	assert.NotContains(t, output, "...")
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), boxWidth)
	}
}

func TestPrintSuggestions_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintSuggestions("Cover letter", "   ")
	assert.Empty(t, buf.String())
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
	}{
		{"defaults", "", "", false},
		{"json debug", "debug", "json", false},
		{"upper case", "WARN", "TEXT", false},
		{"bad level", "loud", "text", true},
		{"bad format", "info", "xml", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := NewLogger(&buf, tt.level, tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestNewLogger_JSONFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "warn", "json")
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
	assert.Equal(t, "shown", record["msg"])
	assert.Equal(t, "value", record["key"])
}
