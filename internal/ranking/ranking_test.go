package ranking

import (
	"encoding/json"
	"testing"
	"time"

	"trendbrief/internal/core"
)

func mk(id int, weight float64, sources ...core.Source) *core.StoryCluster {
	c := core.NewCluster(id, core.TrendingItem{Title: "story", NormalizedTitle: "story", Source: sources[0]})
	for _, s := range sources[1:] {
		c.Add(core.TrendingItem{Title: "story", NormalizedTitle: "story", Source: s}, 5)
	}
	c.Weight = weight
	return c
}

func ids(rs []Ranked) []int {
	out := make([]int, len(rs))
	for i, r := range rs {
		out[i] = r.Cluster.ID
	}
	return out
}

func TestRankOrdering(t *testing.T) {
	early := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	heavy := mk(0, 50, core.SourceWeibo)
	wide := mk(1, 40, core.SourceWeibo, core.SourceBaidu)
	narrow := mk(2, 40, core.SourceWeibo)
	newer := mk(3, 30, core.SourceWeibo)
	newer.Members[0].PublishedAt = &late
	older := mk(4, 30, core.SourceXinhua)
	older.Members[0].PublishedAt = &early
	undated := mk(5, 30, core.SourceBaidu)
	tieA := mk(6, 10, core.SourceWeibo)
	tieB := mk(7, 10, core.SourceWeibo)

	input := []*core.StoryCluster{tieB, undated, newer, narrow, heavy, older, wide, tieA}
	got := ids(Rank(input))
	want := []int{0, 1, 2, 4, 3, 5, 6, 7}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Rank order = %v, want %v", got, want)
		}
	}
	if input[0] != tieB {
		t.Error("Rank must not reorder its input")
	}
}

func TestSelectContiguousRanks(t *testing.T) {
	var clusters []*core.StoryCluster
	for i := 0; i < 12; i++ {
		clusters = append(clusters, mk(i, float64(i%4), core.SourceWeibo))
	}
	clusters = append(clusters, mk(12, 100, core.SourceWeibo, core.SourceXinhua))

	for _, k := range []int{1, 5, 13, 20} {
		sel := Select(clusters, k, 1)
		if len(sel.Top) > k {
			t.Errorf("k=%d: selected %d entries", k, len(sel.Top))
		}
		for i, r := range sel.Top {
			if r.Rank != i+1 {
				t.Errorf("k=%d: rank at %d is %d", k, i, r.Rank)
			}
		}
		if sel.TotalStories != 13 || sel.CrossPlatformStories != 1 {
			t.Errorf("k=%d: metrics total=%d cross=%d", k, sel.TotalStories, sel.CrossPlatformStories)
		}
	}

	if sel := Select(clusters, 0, 1); len(sel.Top) != DefaultTopK {
		t.Errorf("Expected default top-k %d, got %d", DefaultTopK, len(sel.Top))
	}
}

func TestSelectMinPlatforms(t *testing.T) {
	clusters := []*core.StoryCluster{
		mk(0, 90, core.SourceWeibo),
		mk(1, 50, core.SourceWeibo, core.SourceBaidu),
		mk(2, 40, core.SourceXinhua),
		mk(3, 30, core.SourceXinhua, core.SourceThePaper),
	}
	sel := Select(clusters, 5, 2)

	if got := ids(sel.Top); len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("Expected only cross-platform clusters [1 3], got %v", got)
	}
	if sel.Top[0].Rank != 1 || sel.Top[1].Rank != 2 {
		t.Errorf("Filtered ranks must stay contiguous, got %d, %d", sel.Top[0].Rank, sel.Top[1].Rank)
	}
	if sel.TotalStories != 4 || len(sel.All) != 4 {
		t.Errorf("Totals should count every cluster, got %d", sel.TotalStories)
	}
}

func TestSelectEmpty(t *testing.T) {
	sel := Select(nil, 5, 1)
	if len(sel.Top) != 0 || sel.TotalStories != 0 || sel.CrossPlatformStories != 0 {
		t.Errorf("Expected empty selection, got %+v", sel)
	}
}

func TestNewEntry(t *testing.T) {
	r1, r2, r3 := 1, 2, 3
	c := core.NewCluster(0, core.TrendingItem{Title: "主标题", NormalizedTitle: "主标题", Source: core.SourceWeibo, Rank: &r3, URL: "https://m.weibo.cn/detail/1"})
	c.Add(core.TrendingItem{Title: "标题二", NormalizedTitle: "标题二", Source: core.SourceBaidu, Rank: &r1, Translation: "Title two"}, 5)
	c.Add(core.TrendingItem{Title: "标题三", NormalizedTitle: "标题三", Source: core.SourceWeChat}, 5)
	c.Add(core.TrendingItem{Title: "标题四", NormalizedTitle: "标题四", Source: core.SourceXinhua, Rank: &r2, URL: "https://www.news.cn/a.html"}, 5)
	c.Add(core.TrendingItem{Title: "标题五", NormalizedTitle: "标题五", Source: core.SourceLadyMax, URL: "https://m.weibo.cn/detail/1"}, 5)
	c.Add(core.TrendingItem{Title: "标题六", NormalizedTitle: "标题六", Source: core.SourceThePaper}, 5)
	c.Weight = 101.2345
	c.Category = "weather"

	e := NewEntry(Ranked{Rank: 1, Cluster: c})

	if e.Weight != 101.2 {
		t.Errorf("Expected weight rounded to 101.2, got %v", e.Weight)
	}
	if len(e.Platforms) != 3 || e.PlatformCount != 6 {
		t.Errorf("Expected 3 surfaced of 6 platforms, got %v / %d", e.Platforms, e.PlatformCount)
	}
	if e.Platforms[0] != core.SourceXinhua {
		t.Errorf("Surfaced platforms should follow priority order, got %v", e.Platforms)
	}
	if e.Title.ZH != "主标题" || e.Title.EN != "Title two" {
		t.Errorf("Unexpected bilingual title %+v", e.Title)
	}
	if len(e.URLs) != 2 {
		t.Errorf("Expected 2 distinct URLs, got %v", e.URLs)
	}
	if len(e.Appearances) != MaxAppearances {
		t.Fatalf("Expected %d appearances, got %d", MaxAppearances, len(e.Appearances))
	}
	if e.Appearances[0].Title != "标题二" || e.Appearances[1].Title != "标题四" || e.Appearances[2].Title != "主标题" {
		t.Errorf("Appearances should be sorted by rank, got %+v", e.Appearances)
	}
	if e.Appearances[3].Rank != nil {
		t.Error("Unranked appearances should come last")
	}
	if e.Summary != nil {
		t.Error("Summary is attached later")
	}
}

func TestEntryRoundTripAndRerankIdempotent(t *testing.T) {
	clusters := []*core.StoryCluster{
		mk(0, 12.34, core.SourceWeibo),
		mk(1, 55.55, core.SourceWeibo, core.SourceBaidu),
		mk(2, 12.34, core.SourceBaidu, core.SourceXinhua),
	}

	first := Select(clusters, 5, 1)
	var entries []core.DigestEntry
	for _, r := range first.Top {
		entries = append(entries, NewEntry(r))
	}

	data, err := json.Marshal(entries)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var decoded []core.DigestEntry
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	second := Select(clusters, 5, 1)
	for i := range decoded {
		if decoded[i].Rank != second.Top[i].Rank || decoded[i].Rank != entries[i].Rank {
			t.Errorf("Rank mismatch at %d: decoded %d, reranked %d", i, decoded[i].Rank, second.Top[i].Rank)
		}
		if decoded[i].Weight != entries[i].Weight {
			t.Errorf("Weight changed through JSON at %d", i)
		}
	}
	if ids(first.Top)[1] != 2 {
		t.Errorf("Equal weights should break ties by platform count, got %v", ids(first.Top))
	}
}

func TestExclusives(t *testing.T) {
	clusters := []*core.StoryCluster{
		mk(0, 30, core.SourceWeibo),
		mk(1, 25, core.SourceWeibo),
		mk(2, 40, core.SourceWeibo, core.SourceBaidu),
		mk(3, 1.5, core.SourceLadyMax),
		mk(4, 20, core.SourceThePaper),
	}
	ex := Exclusives(Rank(clusters), 2.0)

	if len(ex) != 2 {
		t.Fatalf("Expected exclusives for weibo and thepaper, got %v", ex)
	}
	if ex[core.SourceWeibo].Weight != 30 {
		t.Errorf("Expected highest weibo exclusive, got %+v", ex[core.SourceWeibo])
	}
	if _, ok := ex[core.SourceLadyMax]; ok {
		t.Error("Stories at or below the minimum weight are not exclusives")
	}
}
