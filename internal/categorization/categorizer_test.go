package categorization

import (
	"testing"

	"trendbrief/internal/core"
)

func cluster(title string, descriptions ...string) *core.StoryCluster {
	c := core.NewCluster(0, core.TrendingItem{Title: title, NormalizedTitle: title, Source: core.SourceWeibo})
	for _, d := range descriptions {
		c.Add(core.TrendingItem{Title: title, NormalizedTitle: title, Source: core.SourceBaidu, Description: d}, 5)
	}
	return c
}

func TestCategorize(t *testing.T) {
	c := NewCategorizer(nil)

	tests := []struct {
		name    string
		cluster *core.StoryCluster
		want    string
	}{
		{"business chinese", cluster("某集团年度亏损1.86亿"), "business"},
		{"weather", cluster("台风登陆广东"), "weather"},
		{"technology english", cluster("New AI chip unveiled"), "technology"},
		{"short keyword needs word boundary", cluster("He said nothing new"), Uncategorized},
		{"description contributes", cluster("突发消息", "国务院发布新政策"), "politics"},
		{"first declared wins", cluster("银行遭遇台风影响"), "business"},
		{"no match", cluster("B wins award"), Uncategorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Categorize(tt.cluster); got != tt.want {
				t.Errorf("Categorize(%q) = %q, want %q", tt.cluster.PrimaryTitle, got, tt.want)
			}
		})
	}
}

func TestCustomTaxonomy(t *testing.T) {
	c := NewCategorizer([]Category{{ID: "sports", Keywords: []string{"nba", "足球"}}})
	if got := c.Categorize(cluster("NBA finals tonight")); got != "sports" {
		t.Errorf("Expected sports, got %q", got)
	}
	if got := c.Categorize(cluster("台风登陆广东")); got != Uncategorized {
		t.Errorf("Custom taxonomy should not fall back to defaults, got %q", got)
	}
}

func TestByID(t *testing.T) {
	cat, ok := ByID("weather", DefaultCategories())
	if !ok || cat.NameZH != "天气" {
		t.Errorf("Expected weather category, got %+v", cat)
	}
	if _, ok := ByID("missing", DefaultCategories()); ok {
		t.Error("Unknown category should not be found")
	}
}
