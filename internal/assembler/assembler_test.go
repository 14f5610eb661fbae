package assembler

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"trendbrief/internal/core"
)

type fakeFetcher struct {
	pages map[string]string
	errs  map[string]error
	calls []string
}

func (f *fakeFetcher) FetchText(ctx context.Context, url string) (string, error) {
	f.calls = append(f.calls, url)
	if err, ok := f.errs[url]; ok {
		return "", err
	}
	if text, ok := f.pages[url]; ok {
		return text, nil
	}
	return "", errors.New("unexpected status 404")
}

func clusterOf(items ...core.TrendingItem) *core.StoryCluster {
	c := core.NewCluster(0, items[0])
	for _, it := range items[1:] {
		c.Add(it, 5)
	}
	return c
}

const (
	xinhuaURL   = "https://www.news.cn/politics/20250301/c.html"
	thepaperURL = "https://www.thepaper.cn/newsDetail_forward_1"
	searchURL   = "https://s.weibo.com/weibo?q=x"
)

func TestArticleBeatsDescriptions(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{xinhuaURL: "full article text"}}
	c := clusterOf(
		core.TrendingItem{Title: "t1", Source: core.SourceWeibo, URL: searchURL, Description: "desc"},
		core.TrendingItem{Title: "t2", Source: core.SourceXinhua, URL: xinhuaURL, Description: "another"},
	)

	out := New(fetcher, 2, time.Second).Assemble(context.Background(), c)

	if out.Context.Kind != core.ContextArticle {
		t.Fatalf("Expected article context, got %q", out.Context.Kind)
	}
	if out.Context.Text != "full article text" || out.Context.SourceURL != xinhuaURL {
		t.Errorf("Unexpected article context %+v", out.Context)
	}
	if !reflect.DeepEqual(fetcher.calls, []string{xinhuaURL}) {
		t.Errorf("Search URLs must never be fetched, calls: %v", fetcher.calls)
	}
}

func TestFetchFailureFallsThrough(t *testing.T) {
	fetcher := &fakeFetcher{errs: map[string]error{
		xinhuaURL:   context.DeadlineExceeded,
		thepaperURL: errors.New("empty article body"),
	}}
	c := clusterOf(
		core.TrendingItem{Title: "t1", Source: core.SourceXinhua, URL: xinhuaURL, Description: "d1"},
		core.TrendingItem{Title: "t2", Source: core.SourceThePaper, URL: thepaperURL, Description: "d2"},
		core.TrendingItem{Title: "t3", Source: core.SourceBaidu, Description: "d1"},
	)

	out := New(fetcher, 2, time.Second).Assemble(context.Background(), c)

	if out.Context.Kind != core.ContextDescriptions {
		t.Fatalf("Expected descriptions context, got %q", out.Context.Kind)
	}
	if !reflect.DeepEqual(out.Context.Texts, []string{"d1", "d2"}) {
		t.Errorf("Expected distinct descriptions, got %v", out.Context.Texts)
	}
	if out.FetchAttempts != 2 || out.FetchFailures != 2 {
		t.Errorf("Expected 2 attempts and 2 failures, got %d/%d", out.FetchAttempts, out.FetchFailures)
	}
}

func TestAttemptLimit(t *testing.T) {
	fetcher := &fakeFetcher{}
	c := clusterOf(
		core.TrendingItem{Title: "t1", Source: core.SourceXinhua, URL: "https://www.news.cn/1.html"},
		core.TrendingItem{Title: "t2", Source: core.SourceXinhua, URL: "https://www.news.cn/2.html"},
		core.TrendingItem{Title: "t3", Source: core.SourceXinhua, URL: "https://www.news.cn/3.html"},
	)

	out := New(fetcher, 2, time.Second).Assemble(context.Background(), c)

	if len(fetcher.calls) != 2 {
		t.Errorf("Expected at most 2 fetches, got %d", len(fetcher.calls))
	}
	if out.CandidateURLs != 3 {
		t.Errorf("Expected 3 candidate URLs, got %d", out.CandidateURLs)
	}
	if out.Context.Kind != core.ContextHeadlinesOnly {
		t.Errorf("Expected headlines_only, got %q", out.Context.Kind)
	}
}

func TestHeadlinesOnlyScenario(t *testing.T) {
	fetcher := &fakeFetcher{}
	c := clusterOf(core.TrendingItem{Title: "B wins award", Source: core.SourceWeibo})

	out := New(fetcher, 2, time.Second).Assemble(context.Background(), c)

	if out.Context.Kind != core.ContextHeadlinesOnly {
		t.Fatalf("Expected headlines_only, got %q", out.Context.Kind)
	}
	if !reflect.DeepEqual(out.Context.Titles, []string{"B wins award"}) {
		t.Errorf("Unexpected titles %v", out.Context.Titles)
	}
	if len(fetcher.calls) != 0 {
		t.Errorf("No fetch expected without URLs, got %v", fetcher.calls)
	}
}

func TestNilFetcherSkipsArticles(t *testing.T) {
	c := clusterOf(core.TrendingItem{Title: "t", Source: core.SourceXinhua, URL: xinhuaURL, Description: "d"})
	out := New(nil, 0, 0).Assemble(context.Background(), c)
	if out.Context.Kind != core.ContextDescriptions {
		t.Errorf("Expected descriptions without a fetcher, got %q", out.Context.Kind)
	}
}

func TestEmptyArticleTextFallsThrough(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{xinhuaURL: "   "}}
	c := clusterOf(core.TrendingItem{Title: "t", Source: core.SourceXinhua, URL: xinhuaURL})
	out := New(fetcher, 2, time.Second).Assemble(context.Background(), c)
	if out.Context.Kind != core.ContextHeadlinesOnly || out.FetchFailures != 1 {
		t.Errorf("Expected headlines_only after an empty body, got %q (%d failures)", out.Context.Kind, out.FetchFailures)
	}
}
