package clustering

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"trendbrief/internal/core"
)

const (
	DefaultThreshold = 0.6
	DefaultMinTokens = 4
)

// stopwords are dropped before measuring overlap so that function words do
// not make unrelated headlines look alike.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "of": {}, "to": {}, "in": {}, "on": {}, "for": {},
	"and": {}, "or": {}, "is": {}, "are": {}, "was": {}, "at": {}, "by": {}, "with": {},
	"的": {}, "了": {}, "是": {},
}

// Matcher decides whether two items report the same story. It is symmetric
// but not transitive.
type Matcher struct {
	threshold float64
	minTokens int
}

// NewMatcher creates a matcher. Titles with at least minTokens tokens on both
// sides are compared by token overlap against threshold; shorter titles fall
// back to a substring check.
func NewMatcher(threshold float64, minTokens int) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if minTokens <= 0 {
		minTokens = DefaultMinTokens
	}
	return &Matcher{threshold: threshold, minTokens: minTokens}
}

// Matches reports whether a and b refer to the same story.
func (m *Matcher) Matches(a, b core.TrendingItem) bool {
	return m.match(newFingerprint(a.NormalizedTitle), newFingerprint(b.NormalizedTitle))
}

// Similarity returns the overlap ratio of the two token sets.
func (m *Matcher) Similarity(a, b core.TrendingItem) float64 {
	return overlap(newFingerprint(a.NormalizedTitle).tokens, newFingerprint(b.NormalizedTitle).tokens)
}

func (m *Matcher) match(a, b fingerprint) bool {
	if a.compact == "" || b.compact == "" {
		return false
	}
	if a.compact == b.compact {
		return true
	}
	if len(a.tokens) >= m.minTokens && len(b.tokens) >= m.minTokens {
		return overlap(a.tokens, b.tokens) >= m.threshold
	}

	shorter, longer := a, b
	if utf8.RuneCountInString(shorter.compact) > utf8.RuneCountInString(longer.compact) {
		shorter, longer = longer, shorter
	}
	if utf8.RuneCountInString(shorter.compact) < 2 {
		return false
	}
	return containsRun(longer.units, shorter.units)
}

// containsRun reports whether needle occurs as a contiguous run in haystack.
// Units are whole Latin/digit words or single Han characters, so Han text
// matches as a substring while "ai" never matches inside "retail".
func containsRun(haystack, needle []string) bool {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return false
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		matched := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

// fingerprint is the precomputed matching form of a normalized title.
type fingerprint struct {
	tokens  map[string]struct{}
	units   []string
	compact string
}

func newFingerprint(normalized string) fingerprint {
	set := make(map[string]struct{})
	for _, tok := range Tokenize(normalized) {
		set[tok] = struct{}{}
	}
	return fingerprint{
		tokens:  set,
		units:   splitUnits(normalized),
		compact: strings.ReplaceAll(normalized, " ", ""),
	}
}

// splitUnits breaks a normalized title into whole words and single Han
// characters, in order. Stopwords are kept.
func splitUnits(normalized string) []string {
	var units []string
	for _, field := range strings.Fields(normalized) {
		var word []rune
		flush := func() {
			if w := strings.Trim(string(word), ".,"); w != "" {
				units = append(units, w)
			}
			word = word[:0]
		}
		for _, r := range field {
			if unicode.Is(unicode.Han, r) {
				flush()
				units = append(units, string(r))
				continue
			}
			word = append(word, r)
		}
		flush()
	}
	return units
}

// overlap is |a ∩ b| / min(|a|, |b|).
func overlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	shared := 0
	for tok := range small {
		if _, ok := large[tok]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(small))
}

// Tokenize splits a normalized title into matching tokens. Latin letter and
// digit runs become words, Han runs become overlapping character bigrams and
// stopwords are removed.
func Tokenize(normalized string) []string {
	var tokens []string
	emit := func(tok string) {
		if tok == "" {
			return
		}
		if _, stop := stopwords[tok]; stop {
			return
		}
		tokens = append(tokens, tok)
	}

	for _, field := range strings.Fields(normalized) {
		var word []rune
		var han []rune
		flushWord := func() {
			emit(strings.Trim(string(word), ".,"))
			word = word[:0]
		}
		flushHan := func() {
			switch len(han) {
			case 0:
			case 1:
				emit(string(han))
			default:
				for i := 0; i+1 < len(han); i++ {
					emit(string(han[i : i+2]))
				}
			}
			han = han[:0]
		}

		for _, r := range field {
			if unicode.Is(unicode.Han, r) {
				flushWord()
				han = append(han, r)
				continue
			}
			flushHan()
			word = append(word, r)
		}
		flushWord()
		flushHan()
	}
	return tokens
}
