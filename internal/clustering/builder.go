package clustering

import (
	"log/slog"

	"trendbrief/internal/core"
	"trendbrief/internal/logger"
)

const (
	DefaultMaxItems  = 500
	DefaultMaxTitles = 5
)

// Builder groups pooled items into story clusters. Each item is compared only
// with the anchor of every existing cluster, in creation order, and joins the
// first one that matches.
type Builder struct {
	matcher   *Matcher
	maxItems  int
	maxTitles int
	log       *slog.Logger
}

// BuildResult is the output of one clustering pass.
type BuildResult struct {
	Clusters  []*core.StoryCluster
	Clustered int // Items that took part in clustering
	Truncated int // Items dropped by the item ceiling
}

// NewBuilder creates a Builder with the given item ceiling and bound on
// representative titles per cluster.
func NewBuilder(matcher *Matcher, maxItems, maxTitles int) *Builder {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	if maxTitles <= 0 {
		maxTitles = DefaultMaxTitles
	}
	return &Builder{
		matcher:   matcher,
		maxItems:  maxItems,
		maxTitles: maxTitles,
		log:       logger.Get(),
	}
}

// Build clusters items in order. It is deterministic and single-threaded.
func (b *Builder) Build(items []core.TrendingItem) BuildResult {
	var res BuildResult
	if len(items) > b.maxItems {
		res.Truncated = len(items) - b.maxItems
		b.log.Warn("Item ceiling reached, truncating pool",
			"ceiling", b.maxItems, "pooled", len(items), "truncated", res.Truncated)
		items = items[:b.maxItems]
	}
	res.Clustered = len(items)

	anchors := make([]fingerprint, 0, len(items))
	for _, item := range items {
		fp := newFingerprint(item.NormalizedTitle)

		placed := false
		for i, anchor := range anchors {
			if b.matcher.match(anchor, fp) {
				res.Clusters[i].Add(item, b.maxTitles)
				placed = true
				break
			}
		}
		if placed {
			continue
		}

		res.Clusters = append(res.Clusters, core.NewCluster(len(res.Clusters), item))
		anchors = append(anchors, fp)
	}

	b.log.Debug("Clustering complete", "items", res.Clustered, "clusters", len(res.Clusters))
	return res
}
