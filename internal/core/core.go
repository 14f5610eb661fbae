package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	ErrEmptyTitle    = errors.New("empty title")
	ErrUnknownSource = errors.New("unknown source")
	ErrEmptyCluster  = errors.New("cluster has no members")
)

// Source identifies one of the known trending-list platforms.
type Source string

const (
	SourceXinhua   Source = "xinhua_news"
	SourceBaidu    Source = "baidu_top"
	SourceWeibo    Source = "weibo_hot"
	SourceWeChat   Source = "tencent_wechat_hot"
	SourceThePaper Source = "thepaper_news"
	SourceLadyMax  Source = "ladymax_news"
)

// SourcePriority is the fixed order in which sources are pooled. Every
// ordering tie downstream falls back to this order.
var SourcePriority = []Source{
	SourceXinhua,
	SourceBaidu,
	SourceWeibo,
	SourceWeChat,
	SourceThePaper,
	SourceLadyMax,
}

// SignalKind tells whether a source's native importance value is a rank
// (lower is better) or a heat score (higher is better).
type SignalKind int

const (
	SignalRank SignalKind = iota
	SignalHeat
)

// ParseSource maps a platform identifier onto a known Source.
func ParseSource(s string) (Source, error) {
	src := Source(strings.TrimSpace(strings.ToLower(s)))
	if !src.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSource, s)
	}
	return src, nil
}

// Valid reports whether s is one of the known platforms.
func (s Source) Valid() bool {
	return s.Priority() < len(SourcePriority)
}

// Priority returns the position of s in SourcePriority, or len(SourcePriority)
// for unknown sources.
func (s Source) Priority() int {
	for i, p := range SourcePriority {
		if p == s {
			return i
		}
	}
	return len(SourcePriority)
}

// Signal returns the kind of importance value the source publishes.
func (s Source) Signal() SignalKind {
	switch s {
	case SourceBaidu, SourceWeibo:
		return SignalHeat
	default:
		return SignalRank
	}
}

// DisplayName is the human-facing platform name.
func (s Source) DisplayName() string {
	switch s {
	case SourceXinhua:
		return "Xinhua"
	case SourceBaidu:
		return "Baidu"
	case SourceWeibo:
		return "Weibo"
	case SourceWeChat:
		return "WeChat"
	case SourceThePaper:
		return "The Paper"
	case SourceLadyMax:
		return "LadyMax"
	default:
		return string(s)
	}
}

// TrendingItem is one occurrence of a story on one source.
type TrendingItem struct {
	Title           string     `json:"title"`                  // Display title with ordinal prefix removed
	NormalizedTitle string     `json:"normalized_title"`       // Matching key, never displayed
	Source          Source     `json:"source"`                 // Platform the item came from
	RankOrHeat      *float64   `json:"rank_or_heat"`           // Source-native signal, nil when absent
	Rank            *int       `json:"rank"`                   // Ordinal position within the source, derived from RankOrHeat
	URL             string     `json:"url,omitempty"`          // Empty when the source gave no link
	Description     string     `json:"description,omitempty"`  // Empty when absent
	Translation     string     `json:"translation,omitempty"`  // Upstream English title, if the source supplied one
	PublishedAt     *time.Time `json:"published_at,omitempty"` // Nil when absent
}

// NewTrendingItem validates the mandatory fields of an item. Optional fields
// are set by the caller afterwards.
func NewTrendingItem(src Source, title, normalizedTitle string) (TrendingItem, error) {
	if !src.Valid() {
		return TrendingItem{}, fmt.Errorf("%w: %q", ErrUnknownSource, src)
	}
	title = strings.TrimSpace(title)
	normalizedTitle = strings.TrimSpace(normalizedTitle)
	if title == "" || normalizedTitle == "" {
		return TrendingItem{}, ErrEmptyTitle
	}
	return TrendingItem{
		Title:           title,
		NormalizedTitle: normalizedTitle,
		Source:          src,
	}, nil
}

// StoryCluster is the canonical merged story for one digest run.
type StoryCluster struct {
	ID                   int            `json:"id"`                    // Creation order within the run
	Members              []TrendingItem `json:"members"`               // Discovery order; Members[0] is the anchor
	PrimaryTitle         string         `json:"primary_title"`         // Title of the anchor
	RepresentativeTitles []string       `json:"representative_titles"` // Distinct normalized titles, bounded
	Weight               float64        `json:"weight"`
	Category             string         `json:"category"`
}

// NewCluster opens a cluster anchored on item.
func NewCluster(id int, item TrendingItem) *StoryCluster {
	return &StoryCluster{
		ID:                   id,
		Members:              []TrendingItem{item},
		PrimaryTitle:         item.Title,
		RepresentativeTitles: []string{item.NormalizedTitle},
	}
}

// Anchor returns the first inserted member.
func (c *StoryCluster) Anchor() TrendingItem {
	return c.Members[0]
}

// Add appends item, recording its normalized title while fewer than
// maxTitles distinct titles are held.
func (c *StoryCluster) Add(item TrendingItem, maxTitles int) {
	c.Members = append(c.Members, item)
	if len(c.RepresentativeTitles) >= maxTitles {
		return
	}
	for _, t := range c.RepresentativeTitles {
		if t == item.NormalizedTitle {
			return
		}
	}
	c.RepresentativeTitles = append(c.RepresentativeTitles, item.NormalizedTitle)
}

// Platforms returns the distinct sources among members in priority order.
func (c *StoryCluster) Platforms() []Source {
	seen := make(map[Source]bool, len(c.Members))
	var out []Source
	for _, m := range c.Members {
		if !seen[m.Source] {
			seen[m.Source] = true
			out = append(out, m.Source)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority() < out[j].Priority()
	})
	return out
}

// PlatformCount is the number of distinct sources among members.
func (c *StoryCluster) PlatformCount() int {
	return len(c.Platforms())
}

// EarliestPublished returns the oldest member timestamp, or nil when no
// member carries one.
func (c *StoryCluster) EarliestPublished() *time.Time {
	var earliest *time.Time
	for _, m := range c.Members {
		if m.PublishedAt == nil {
			continue
		}
		if earliest == nil || m.PublishedAt.Before(*earliest) {
			t := *m.PublishedAt
			earliest = &t
		}
	}
	return earliest
}

// Validate checks the structural invariants of a cluster.
func (c *StoryCluster) Validate() error {
	if c == nil || len(c.Members) == 0 {
		return ErrEmptyCluster
	}
	return nil
}

// ContextKind discriminates AssembledContext.
type ContextKind string

const (
	ContextArticle       ContextKind = "article"
	ContextDescriptions  ContextKind = "descriptions"
	ContextHeadlinesOnly ContextKind = "headlines_only"
)

// AssembledContext is the best available text for a cluster. Exactly one of
// Text, Texts or Titles is populated, selected by Kind.
type AssembledContext struct {
	Kind      ContextKind `json:"kind"`
	Text      string      `json:"text,omitempty"`
	SourceURL string      `json:"source_url,omitempty"`
	Texts     []string    `json:"texts,omitempty"`
	Titles    []string    `json:"titles,omitempty"`
}

func ArticleContext(text, sourceURL string) AssembledContext {
	return AssembledContext{Kind: ContextArticle, Text: text, SourceURL: sourceURL}
}

func DescriptionsContext(texts []string) AssembledContext {
	return AssembledContext{Kind: ContextDescriptions, Texts: texts}
}

func HeadlinesContext(titles []string) AssembledContext {
	return AssembledContext{Kind: ContextHeadlinesOnly, Titles: titles}
}

// Body renders the context as plain text for a summarization prompt.
func (c AssembledContext) Body() string {
	switch c.Kind {
	case ContextArticle:
		return c.Text
	case ContextDescriptions:
		return strings.Join(c.Texts, "\n")
	case ContextHeadlinesOnly:
		return strings.Join(c.Titles, "\n")
	default:
		return ""
	}
}

// BilingualText carries the English and Chinese renditions of a string.
type BilingualText struct {
	EN string `json:"en"`
	ZH string `json:"zh"`
}

// Appearance records one member of a story for drill-down views.
type Appearance struct {
	Platform Source `json:"platform"`
	Title    string `json:"title"`
	Rank     *int   `json:"rank"`
	URL      string `json:"url,omitempty"`
}

// DigestEntry is one ranked story in the digest output.
type DigestEntry struct {
	Rank          int              `json:"rank"`
	Weight        float64          `json:"weight"`
	Platforms     []Source         `json:"platforms"`      // At most three surfaced
	PlatformCount int              `json:"platform_count"` // Full distinct platform count
	Category      string           `json:"category"`
	PrimaryTitle  string           `json:"primary_title"`
	Title         BilingualText    `json:"title"`
	Context       AssembledContext `json:"context"`
	Summary       *BilingualText   `json:"summary_bilingual"`
	SummaryFailed bool             `json:"summary_failed,omitempty"`
	URLs          []string         `json:"urls"`
	Appearances   []Appearance     `json:"appearances"`
}

// Exclusive is the strongest single-platform story of a source.
type Exclusive struct {
	Title  string  `json:"title"`
	Weight float64 `json:"weight"`
}

// DigestMetrics aggregates counts over the whole run.
type DigestMetrics struct {
	TotalStories         int `json:"total_stories"`
	CrossPlatformStories int `json:"cross_platform_stories"`
	ItemsReceived        int `json:"items_received"`
	NormalizerRejections int `json:"normalizer_rejections"`
	Truncated            int `json:"truncated"`
	PlatformsCovered     int `json:"platforms_covered"`
	ArticlesFetched      int `json:"articles_fetched"`
	SummariesFailed      int `json:"summaries_failed"`
	RateLimited          int `json:"rate_limited"`
	TranslationCacheHits int `json:"translation_cache_hits"`
}

// Digest is the immutable result of one run. Presentation layers receive it
// by value and never mutate it.
type Digest struct {
	ID                 string               `json:"id"`
	DigestType         string               `json:"digest_type"`
	TimeLabel          string               `json:"time_label"`
	GeneratedAt        time.Time            `json:"as_of"`
	Date               string               `json:"date"`
	LocalTime          string               `json:"local_time"`
	Metrics            DigestMetrics        `json:"metrics"`
	TopStories         []DigestEntry        `json:"top_stories"`
	PlatformExclusives map[Source]Exclusive `json:"platform_exclusives,omitempty"`
}

// Story returns the entry with the given rank.
func (d Digest) Story(rank int) (DigestEntry, bool) {
	for _, e := range d.TopStories {
		if e.Rank == rank {
			return e, true
		}
	}
	return DigestEntry{}, false
}
