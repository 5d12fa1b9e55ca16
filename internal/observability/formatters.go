// Package observability provides logging setup and formatted CLI output.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonathan/resume-matcher/internal/history"
	"github.com/jonathan/resume-matcher/internal/scoring"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 8
)

// Printer renders analysis output for the terminal.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintResult outputs the score breakdown, keyword lists and insights.
func (p *Printer) PrintResult(r *scoring.Result) {
	if r == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ATS score:   %d/100\n", r.Score))
	sb.WriteString(fmt.Sprintf("Coverage:    %d%% (%d of %d keywords)\n", r.Coverage, len(r.MatchedKeywords), r.TotalKeywords()))
	sb.WriteString(fmt.Sprintf("Experience:  %d%% (%s)\n", r.ExperienceMatch, r.ExperienceLevel))

	if len(r.SectionScores) > 0 {
		sb.WriteString("\nSections:\n")
		names := make([]string, 0, len(r.SectionScores))
		for name := range r.SectionScores {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			mark := "✗"
			if r.SectionScores[name] > 0 {
				mark = "✓"
			}
			sb.WriteString(fmt.Sprintf("  %s %s\n", mark, name))
		}
	}

	writeList(&sb, "Matched keywords", r.MatchedKeywords)
	writeList(&sb, "Missing keywords", r.MissingKeywords)

	p.printBox("ANALYSIS RESULT", strings.TrimSuffix(sb.String(), "\n"))
	p.PrintInsights(r.Insights)
}

// PrintInsights outputs improvement tips, one per line.
func (p *Printer) PrintInsights(tips []string) {
	if len(tips) == 0 {
		return
	}

	var sb strings.Builder
	for i, tip := range tips {
		sb.WriteString(fmt.Sprintf("%d. %s", i+1, tip))
		if i < len(tips)-1 {
			sb.WriteString("\n")
		}
	}
	p.printBox("INSIGHTS", sb.String())
}

// PrintHistory outputs past analyses, most recent first.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintHistory(entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "No analyses yet")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	for i, e := range entries {
		when := time.UnixMilli(e.Timestamp).UTC().Format("2006-01-02 15:04")
		sb.WriteString(fmt.Sprintf("#%d  %s  score %d  coverage %d%%\n", e.ID, when, e.Score, e.Coverage))
		sb.WriteString(fmt.Sprintf("    %s vs %s", orDash(e.ResumeFileName), orDash(e.JDFileName)))
		if i < len(entries)-1 {
			sb.WriteString("\n")
		}
	}
	p.printBox(fmt.Sprintf("HISTORY (%d)", len(entries)), sb.String())
}

// PrintSuggestions outputs generated text. Long lines are wrapped rather
// than clipped.
func (p *Printer) PrintSuggestions(title, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		lines = append(lines, wrap(line, boxWidth-4)...)
	}
	p.printBox(strings.ToUpper(title), strings.Join(lines, "\n"))
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("\n%s:\n", title))
	count := min(len(items), maxItemsToShow)
	sb.WriteString("  " + strings.Join(items[:count], ", ") + "\n")
	if len(items) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-maxItemsToShow))
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func clip(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width-3]) + "..."
}

func wrap(line string, width int) []string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return []string{""}
	}
	var out []string
	current := ""
	for _, w := range words {
		switch {
		case current == "":
			current = w
		case utf8.RuneCountInString(current)+1+utf8.RuneCountInString(w) <= width:
			current += " " + w
		default:
			out = append(out, current)
			current = w
		}
	}
	return append(out, current)
}
