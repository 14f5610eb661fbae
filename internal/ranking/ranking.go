package ranking

import (
	"math"
	"sort"

	"trendbrief/internal/core"
)

const (
	DefaultTopK          = 5
	MaxSurfacedPlatforms = 3
	MaxAppearances       = 5
)

// Ranked pairs a cluster with its 1-based rank.
type Ranked struct {
	Rank    int
	Cluster *core.StoryCluster
}

// Rank orders clusters by weight, then distinct platform count, then earliest
// publication (clusters without timestamps last), then creation order. The
// input slice is not modified.
func Rank(clusters []*core.StoryCluster) []Ranked {
	sorted := make([]*core.StoryCluster, len(clusters))
	copy(sorted, clusters)
	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})

	out := make([]Ranked, len(sorted))
	for i, c := range sorted {
		out[i] = Ranked{Rank: i + 1, Cluster: c}
	}
	return out
}

func less(a, b *core.StoryCluster) bool {
	if a.Weight != b.Weight {
		return a.Weight > b.Weight
	}
	if pa, pb := a.PlatformCount(), b.PlatformCount(); pa != pb {
		return pa > pb
	}
	ta, tb := a.EarliestPublished(), b.EarliestPublished()
	switch {
	case ta != nil && tb != nil && !ta.Equal(*tb):
		return ta.Before(*tb)
	case ta != nil && tb == nil:
		return true
	case ta == nil && tb != nil:
		return false
	}
	return a.ID < b.ID
}

// Selection is the top-K slice of a ranking plus aggregate counts over all
// clusters.
type Selection struct {
	Top                  []Ranked
	All                  []Ranked
	TotalStories         int
	CrossPlatformStories int
}

// Select ranks clusters and keeps the first k that appear on at least
// minPlatforms platforms. Ranks in Top are contiguous from 1. A non-positive k
// selects DefaultTopK. Totals count every cluster.
func Select(clusters []*core.StoryCluster, k, minPlatforms int) Selection {
	if k <= 0 {
		k = DefaultTopK
	}
	all := Rank(clusters)
	sel := Selection{All: all, TotalStories: len(all)}
	for _, r := range all {
		if r.Cluster.PlatformCount() >= 2 {
			sel.CrossPlatformStories++
		}
		if len(sel.Top) < k && r.Cluster.PlatformCount() >= minPlatforms {
			sel.Top = append(sel.Top, Ranked{Rank: len(sel.Top) + 1, Cluster: r.Cluster})
		}
	}
	return sel
}

// NewEntry builds the serializable entry for a ranked cluster. Context and
// summary are attached later by enrichment.
func NewEntry(r Ranked) core.DigestEntry {
	c := r.Cluster
	platforms := c.Platforms()
	surfaced := platforms
	if len(surfaced) > MaxSurfacedPlatforms {
		surfaced = surfaced[:MaxSurfacedPlatforms]
	}

	return core.DigestEntry{
		Rank:          r.Rank,
		Weight:        RoundWeight(c.Weight),
		Platforms:     surfaced,
		PlatformCount: len(platforms),
		Category:      c.Category,
		PrimaryTitle:  c.PrimaryTitle,
		Title:         core.BilingualText{ZH: c.PrimaryTitle, EN: upstreamTranslation(c)},
		URLs:          memberURLs(c),
		Appearances:   Appearances(c),
	}
}

// Appearances lists up to MaxAppearances members ordered by rank, unranked
// members last.
func Appearances(c *core.StoryCluster) []core.Appearance {
	members := make([]core.TrendingItem, len(c.Members))
	copy(members, c.Members)
	sort.SliceStable(members, func(i, j int) bool {
		ri, rj := members[i].Rank, members[j].Rank
		switch {
		case ri != nil && rj != nil:
			return *ri < *rj
		case ri != nil:
			return true
		default:
			return false
		}
	})
	if len(members) > MaxAppearances {
		members = members[:MaxAppearances]
	}

	out := make([]core.Appearance, len(members))
	for i, m := range members {
		out[i] = core.Appearance{Platform: m.Source, Title: m.Title, Rank: m.Rank, URL: m.URL}
	}
	return out
}

// Exclusives returns, per source, the highest-ranked single-platform story
// whose weight exceeds minWeight.
func Exclusives(all []Ranked, minWeight float64) map[core.Source]core.Exclusive {
	out := make(map[core.Source]core.Exclusive)
	for _, r := range all {
		c := r.Cluster
		if c.PlatformCount() != 1 || c.Weight <= minWeight {
			continue
		}
		src := c.Anchor().Source
		if _, ok := out[src]; ok {
			continue
		}
		out[src] = core.Exclusive{Title: c.PrimaryTitle, Weight: RoundWeight(c.Weight)}
	}
	return out
}

// RoundWeight rounds to one decimal place.
func RoundWeight(w float64) float64 {
	return math.Round(w*10) / 10
}

func upstreamTranslation(c *core.StoryCluster) string {
	for _, m := range c.Members {
		if m.Translation != "" {
			return m.Translation
		}
	}
	return ""
}

func memberURLs(c *core.StoryCluster) []string {
	urls := []string{}
	seen := make(map[string]bool)
	for _, m := range c.Members {
		if m.URL == "" || seen[m.URL] {
			continue
		}
		seen[m.URL] = true
		urls = append(urls, m.URL)
	}
	return urls
}
