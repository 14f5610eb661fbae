package normalize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	ordinalPrefix = regexp.MustCompile(`^\s*(?:No\.?\s*)?\d{1,3}\s*([.、．:：)）])\s*`)
	bulletPrefix  = regexp.MustCompile(`^\s*[•·●▪◆■★☆\-*]+\s*`)
	hotTagSuffix  = regexp.MustCompile(`(?i)\s*[\[【(（]\s*(?:新|热|爆|沸|荐|商|hot|new)\s*[\]】)）]\s*$`)
	hotMarkSuffix = regexp.MustCompile(`\s+热$`)
)

// CleanTitle removes list decoration (ordinal or bullet prefixes, hot tags)
// from a display title while keeping its original script and casing.
func CleanTitle(title string) string {
	s := strings.TrimSpace(title)
	s = stripOrdinal(s)
	s = bulletPrefix.ReplaceAllString(s, "")
	s = hotTagSuffix.ReplaceAllString(s, "")
	s = hotMarkSuffix.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// stripOrdinal drops a leading "3. " or "3、" but leaves numbers such as
// "1.86亿" or "12:30" alone. Only '.' and ':' can sit inside a number, so
// "3、5G" still loses its prefix.
func stripOrdinal(s string) string {
	loc := ordinalPrefix.FindStringSubmatchIndex(s)
	if loc == nil {
		return s
	}
	rest := s[loc[1]:]
	if loc[1] == loc[3] && numericSeparator(s[loc[2]:loc[3]]) {
		r, _ := utf8.DecodeRuneInString(rest)
		if unicode.IsDigit(r) {
			return s
		}
	}
	return rest
}

func numericSeparator(sep string) bool {
	switch sep {
	case ".", "．", ":", "：":
		return true
	}
	return false
}

// NormalizeTitle produces the matching key for a title: NFKC folded,
// lowercased, decoration stripped, punctuation replaced by spaces and
// whitespace collapsed. A '.' or ',' between two digits is kept.
func NormalizeTitle(title string) string {
	s := norm.NFKC.String(title)
	s = CleanTitle(s)
	s = strings.ToLower(s)

	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range runes {
		switch {
		case r == '.' || r == ',':
			if i > 0 && i < len(runes)-1 && unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1]) {
				b.WriteRune(r)
			} else {
				b.WriteRune(' ')
			}
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			b.WriteRune(' ')
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
