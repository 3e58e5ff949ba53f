// Package summary implements the rule-based extractive summarizer: score
// and select the two best sentences, then verify that every numeric token
// in the result also appears in the source text before trusting it.
package summary

import (
	"regexp"
	"sort"
	"strings"

	"github.com/tooitw/morning-pulse-nlp/internal/numeric"
)

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// minSentenceLength is the trimmed length at or below which a candidate
// sentence is discarded as noise (spec section 4.4 step 2).
const minSentenceLength = 20

// maxSelected is the number of sentences the summarizer selects.
const maxSelected = 2

// fallbackTruncateLen is the character budget for paragraph/raw-summary
// fallbacks.
const fallbackTruncateLen = 300

// actionVerbs score a sentence once if any of them appear, case-insensitive.
var actionVerbs = []string{
	"announced", "reported", "said", "revealed", "confirmed",
	"declined", "rose", "fell", "gained", "lost",
}

var hasDigit = regexp.MustCompile(`\d`)

// Result is the outcome of generating a summary for one article.
type Result struct {
	Summary  string
	Verified bool
}

// Generate produces a two-sentence extractive summary for an article and
// verifies its numeric-fact invariant, falling back to a truncated
// paragraph, truncated raw summary, or the title when extraction yields
// nothing usable, or when verification fails and a raw summary exists to
// fall back to (spec section 4.4).
func Generate(title string, content, summaryRaw *string) Result {
	fullText := composeFullText(title, content, summaryRaw)

	candidates := splitCandidates(fullText)
	if len(candidates) == 0 {
		return Result{Summary: fallbackText(title, content, summaryRaw), Verified: false}
	}

	selected := selectTop(candidates, maxSelected)
	generated := joinSentences(selected)

	verified := verifyNumericInvariant(generated, fullText)
	if !verified && summaryRaw != nil && *summaryRaw != "" {
		return Result{Summary: truncate(*summaryRaw, fallbackTruncateLen), Verified: false}
	}

	return Result{Summary: generated, Verified: verified}
}

func composeFullText(title string, content, summaryRaw *string) string {
	body := ""
	if content != nil && *content != "" {
		body = *content
	} else if summaryRaw != nil {
		body = *summaryRaw
	}
	return strings.TrimSpace(title + " " + body)
}

type candidate struct {
	text     string
	position int
}

func splitCandidates(fullText string) []candidate {
	parts := sentenceSplit.Split(fullText, -1)
	var candidates []candidate
	for i, p := range parts {
		trimmed := strings.TrimSpace(p)
		if len(trimmed) <= minSentenceLength {
			continue
		}
		candidates = append(candidates, candidate{text: trimmed, position: i})
	}
	return candidates
}

func score(c candidate, index int) int {
	s := 0
	if index == 0 {
		s += 10
	}
	if hasDigit.MatchString(c.text) {
		s += 5
	}
	lower := strings.ToLower(c.text)
	for _, verb := range actionVerbs {
		if strings.Contains(lower, verb) {
			s += 3
			break
		}
	}
	wc := len(strings.Fields(c.text))
	if wc >= 10 && wc <= 30 {
		s += 2
	}
	return s
}

type scored struct {
	candidate candidate
	score     int
	order     int
}

// selectTop scores every candidate by its position among surviving
// candidates (spec's "position i, 0-indexed" refers to the surviving
// sentence sequence, matching the reference implementation which scores
// after the length filter has already run), then returns the top n by
// score descending, ties broken by original order — a stable sort over
// the score-descending comparator achieves exactly that.
func selectTop(candidates []candidate, n int) []candidate {
	scoredList := make([]scored, len(candidates))
	for i, c := range candidates {
		scoredList[i] = scored{candidate: c, score: score(c, i), order: i}
	}
	sort.SliceStable(scoredList, func(i, j int) bool {
		return scoredList[i].score > scoredList[j].score
	})
	if n > len(scoredList) {
		n = len(scoredList)
	}
	out := make([]candidate, n)
	for i := 0; i < n; i++ {
		out[i] = scoredList[i].candidate
	}
	return out
}

func joinSentences(selected []candidate) string {
	parts := make([]string, len(selected))
	for i, c := range selected {
		parts[i] = c.text
	}
	return strings.Join(parts, " ")
}

func verifyNumericInvariant(summaryText, fullText string) bool {
	summaryFacts := numeric.Literals(summaryText)
	originalFacts := numeric.Literals(fullText)
	for literal := range summaryFacts {
		if _, ok := originalFacts[literal]; !ok {
			return false
		}
	}
	return true
}

func fallbackText(title string, content, summaryRaw *string) string {
	if content != nil && *content != "" {
		paragraph := strings.SplitN(*content, "\n\n", 2)[0]
		runes := []rune(paragraph)
		if len(runes) > fallbackTruncateLen {
			runes = runes[:fallbackTruncateLen]
		}
		return string(runes) + "..."
	}
	if summaryRaw != nil && *summaryRaw != "" {
		return truncate(*summaryRaw, fallbackTruncateLen)
	}
	return title
}

// truncate returns s unchanged if it fits within n characters, else the
// first n characters followed by "...". It operates on runes so multi-byte
// characters are never split.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
