package categorization

import (
	"regexp"
	"strings"
	"unicode"

	"trendbrief/internal/core"
)

// Categorizer assigns a taxonomy category to a story cluster by keyword
// matching over its primary title and member descriptions.
type Categorizer struct {
	categories []Category
	patterns   map[string]*regexp.Regexp
}

// NewCategorizer creates a categorizer over the given taxonomy. A nil slice
// selects DefaultCategories.
func NewCategorizer(categories []Category) *Categorizer {
	if categories == nil {
		categories = DefaultCategories()
	}
	c := &Categorizer{categories: categories, patterns: make(map[string]*regexp.Regexp)}
	for _, cat := range categories {
		for _, k := range cat.Keywords {
			k = strings.ToLower(strings.TrimSpace(k))
			if isShortLatin(k) {
				c.patterns[k] = regexp.MustCompile(`\b` + regexp.QuoteMeta(k) + `\b`)
			}
		}
	}
	return c
}

// Categorize returns the ID of the first category whose keywords occur in
// the cluster text, or Uncategorized.
func (c *Categorizer) Categorize(cluster *core.StoryCluster) string {
	parts := []string{cluster.PrimaryTitle}
	for _, m := range cluster.Members {
		if m.Description != "" {
			parts = append(parts, m.Description)
		}
	}
	text := strings.ToLower(strings.Join(parts, " "))

	for _, cat := range c.categories {
		if c.containsAny(text, cat.Keywords) {
			return cat.ID
		}
	}
	return Uncategorized
}

// Categories returns the taxonomy in use.
func (c *Categorizer) Categories() []Category {
	return c.categories
}

// containsAny matches short Latin keywords on word boundaries so that "ai"
// does not match "said"; everything else is a substring match.
func (c *Categorizer) containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if re, ok := c.patterns[k]; ok {
			if re.MatchString(text) {
				return true
			}
			continue
		}
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func isShortLatin(k string) bool {
	if len(k) == 0 || len(k) > 3 {
		return false
	}
	for _, r := range k {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
