// Package keywords turns raw document text into comparable keyword tokens.
package keywords

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	// KeywordMinLength is the shortest token kept when extracting resume and
	// job description keywords.
	KeywordMinLength = 4

	// TermMinLength is the shortest token kept when looking up fixed
	// vocabularies (action verbs such as "led" or "own").
	TermMinLength = 3

	// MaxTokens caps the size of a unique token set built from one document.
	MaxTokens = 50000
)

var wordPattern = regexp.MustCompile(`\p{L}+`)

// StopWords are dropped regardless of length.
var StopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"is": true, "are": true, "was": true, "were": true, "be": true, "been": true,
	"in": true, "on": true, "at": true, "to": true, "of": true, "for": true,
	"with": true, "by": true, "as": true, "from": true, "into": true, "about": true,
	"this": true, "that": true, "these": true, "those": true, "it": true, "its": true,
	"we": true, "our": true, "you": true, "your": true, "they": true, "their": true,
	"will": true, "would": true, "should": true, "can": true, "could": true, "may": true,
	"have": true, "has": true, "had": true, "not": true, "all": true, "also": true,
	"such": true, "than": true, "then": true, "there": true, "which": true, "what": true,
	"who": true, "when": true, "where": true, "while": true, "etc": true, "other": true,
	"more": true, "most": true, "some": true, "any": true, "each": true, "very": true,
}

// inflections are the suffixes tolerated when a keyword is looked up in a
// token set ("experience" is present in a text containing "experienced").
var inflections = []string{"s", "es", "d", "ed", "ing"}

// IsStopWord reports whether the lowercased word is a stop word.
func IsStopWord(word string) bool {
	return StopWords[word]
}

// Tokens returns every keyword token in text, in order and with duplicates.
// Text is NFKC normalized and lowercased; tokens are maximal letter runs of at
// least minLen runes that are not stop words.
func Tokens(text string, minLen int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	words := wordPattern.FindAllString(Normalize(text), -1)

	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if len([]rune(w)) < minLen || StopWords[w] {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// UniqueTokens returns the deduplicated tokens of text in first-seen order,
// capped at MaxTokens entries.
func UniqueTokens(text string, minLen int) []string {
	all := Tokens(text, minLen)
	if len(all) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(all))
	unique := make([]string, 0, len(all))
	for _, t := range all {
		if seen[t] {
			continue
		}
		seen[t] = true
		unique = append(unique, t)
		if len(unique) >= MaxTokens {
			break
		}
	}
	return unique
}

// Normalize applies the folding Tokens uses (NFKC, lowercase) to a single
// configured term so it compares equal to tokens drawn from text.
func Normalize(term string) string {
	return strings.ToLower(norm.NFKC.String(strings.TrimSpace(term)))
}

// TermSet builds a membership set from configured terms, normalized like
// tokens. Blank terms are skipped.
func TermSet(terms []string) map[string]bool {
	set := make(map[string]bool, len(terms))
	for _, t := range terms {
		if n := Normalize(t); n != "" {
			set[n] = true
		}
	}
	return set
}

// Set builds a membership set from tokens.
func Set(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

// Matches reports whether keyword occurs in the token set, either exactly or
// with one of the tolerated inflection suffixes appended.
func Matches(keyword string, tokens map[string]bool) bool {
	if tokens[keyword] {
		return true
	}
	for _, suffix := range inflections {
		if tokens[keyword+suffix] {
			return true
		}
	}
	return false
}
