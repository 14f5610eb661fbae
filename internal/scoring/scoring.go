package scoring

import (
	"math"

	"trendbrief/internal/categorization"
	"trendbrief/internal/core"
)

const (
	// DefaultPlatformMultiplier exceeds MaxRankScore, so one extra platform
	// always outweighs a single top-ranked appearance.
	DefaultPlatformMultiplier = 15.0
	MaxRankScore              = 10.0
)

// decayCurves is the per-source geometric decay applied to ordinal rank.
// Editorial feeds publish short lists, so they decay faster.
var decayCurves = map[core.Source]float64{
	core.SourceXinhua:   0.85,
	core.SourceBaidu:    0.9,
	core.SourceWeibo:    0.9,
	core.SourceWeChat:   0.9,
	core.SourceThePaper: 0.88,
	core.SourceLadyMax:  0.8,
}

// RankScore maps an item's ordinal rank onto [0, MaxRankScore]: rank 1
// scores MaxRankScore, lower positions decay by the source's curve, and a
// nil rank scores 0.
func RankScore(item core.TrendingItem) float64 {
	if item.Rank == nil || *item.Rank < 1 {
		return 0
	}
	curve, ok := decayCurves[item.Source]
	if !ok {
		curve = 0.9
	}
	return MaxRankScore * math.Pow(curve, float64(*item.Rank-1))
}

// Engine computes cluster weights and categories.
type Engine struct {
	platformMultiplier float64
	categorizer        *categorization.Categorizer
}

// NewEngine creates an Engine. A non-positive multiplier selects the default.
func NewEngine(platformMultiplier float64, categorizer *categorization.Categorizer) *Engine {
	if platformMultiplier <= 0 {
		platformMultiplier = DefaultPlatformMultiplier
	}
	if categorizer == nil {
		categorizer = categorization.NewCategorizer(nil)
	}
	return &Engine{platformMultiplier: platformMultiplier, categorizer: categorizer}
}

// Weight returns distinct_platforms * multiplier + sum of member rank scores.
func (e *Engine) Weight(cluster *core.StoryCluster) float64 {
	w := float64(cluster.PlatformCount()) * e.platformMultiplier
	for _, m := range cluster.Members {
		w += RankScore(m)
	}
	return w
}

// Apply sets Weight and Category on every cluster.
func (e *Engine) Apply(clusters []*core.StoryCluster) {
	for _, c := range clusters {
		c.Weight = e.Weight(c)
		c.Category = e.categorizer.Categorize(c)
	}
}
