// Package numeric extracts numeric facts — currency amounts, percentages,
// comma-grouped numbers, decimals, and dates — from article text. The
// summary generator uses it to enforce the numerical-fact verification
// invariant: every number in a generated summary must appear verbatim in
// the source text.
package numeric

import "regexp"

// Kind discriminates the shape of an extracted numeric literal.
type Kind string

const (
	KindCurrency   Kind = "currency"
	KindPercentage Kind = "percentage"
	KindNumber     Kind = "number"
	KindDecimal    Kind = "decimal"
	KindDate       Kind = "date"
)

// Fact is a single extracted numeric literal, verbatim as it appeared in
// the source text, tagged with the pattern that matched it.
type Fact struct {
	Literal string
	Kind    Kind
}

// patterns is applied in order; later patterns may overlap with earlier
// matches; overlap is never used to deduplicate, per spec section 4.3.
var patterns = []struct {
	kind Kind
	re   *regexp.Regexp
}{
	{KindCurrency, regexp.MustCompile(`(?i)[$£€¥]\s?\d+(?:\.\d+)?(?:[BMK])?`)},
	{KindPercentage, regexp.MustCompile(`(?i)[+-]?\d+(?:\.\d+)?%`)},
	{KindNumber, regexp.MustCompile(`(?i)\d{1,3}(?:,\d{3})+(?:\.\d+)?`)},
	{KindDecimal, regexp.MustCompile(`(?i)\d+\.\d+`)},
	{KindDate, regexp.MustCompile(`(?i)\d{4}-\d{2}-\d{2}|(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+\d{1,2},?\s+\d{4}`)},
}

// Extract returns every numeric fact found in text, in pattern order. The
// same substring may be returned more than once under different kinds —
// overlap across kinds is allowed (spec section 4.3).
func Extract(text string) []Fact {
	var facts []Fact
	for _, p := range patterns {
		for _, m := range p.re.FindAllString(text, -1) {
			facts = append(facts, Fact{Literal: m, Kind: p.kind})
		}
	}
	return facts
}

// Literals returns the deduplicated set of literal strings extracted from
// text, for set-membership checks (spec section 4.4 step 6: "exact-string"
// set membership).
func Literals(text string) map[string]struct{} {
	facts := Extract(text)
	set := make(map[string]struct{}, len(facts))
	for _, f := range facts {
		set[f.Literal] = struct{}{}
	}
	return set
}
