package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"trendbrief/internal/core"
	"trendbrief/internal/llm"
	"trendbrief/internal/normalize"
	"trendbrief/internal/retry"
	"trendbrief/internal/store"
)

type fakeSummarizer struct {
	mu        sync.Mutex
	calls     int
	failFirst int   // fail this many calls with a rate limit before succeeding
	err       error // returned on every call when set
	delay     time.Duration

	inFlight    int32
	maxInFlight int32
}

func (f *fakeSummarizer) Summarize(ctx context.Context, req llm.SummaryRequest) (core.BilingualText, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		cur := atomic.LoadInt32(&f.maxInFlight)
		if n <= cur || atomic.CompareAndSwapInt32(&f.maxInFlight, cur, n) {
			break
		}
	}

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return core.BilingualText{}, ctx.Err()
		}
	}

	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()

	if f.err != nil {
		return core.BilingualText{}, f.err
	}
	if call <= f.failFirst {
		return core.BilingualText{}, retry.ErrRateLimited
	}
	return core.BilingualText{EN: "Summary of " + req.Title, ZH: req.Title + "摘要"}, nil
}

type fakeTranslator struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeTranslator) Translate(ctx context.Context, text, lang string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return "EN:" + text, nil
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Retry = retry.RetryConfig{
		MaxAttempts:    3,
		Timeout:        time.Second,
		Delay:          time.Millisecond,
		RateLimitDelay: time.Millisecond,
		MaxDelay:       5 * time.Millisecond,
	}
	cfg.Location = time.UTC
	return cfg
}

func sampleBatches() []normalize.Batch {
	return []normalize.Batch{
		{Source: core.SourceWeibo, Records: []normalize.RawRecord{
			{"title": "台风登陆浙江沿海地区", "raw_score": 900000.0, "url": "https://m.weibo.cn/detail/1"},
			{"title": "明星演唱会门票秒空", "raw_score": 500000.0},
		}},
		{Source: core.SourceBaidu, Records: []normalize.RawRecord{
			{"title": "台风登陆浙江沿海地区", "raw_score": 4000000.0, "description": "强台风今日登陆"},
			{"title": "", "raw_score": 1.0},
		}},
		{Source: core.SourceXinhua, Records: []normalize.RawRecord{
			{"title": "1. 国务院常务会议研究部署经济工作", "rank": 1.0},
		}},
	}
}

var evening = time.Date(2025, 3, 1, 19, 5, 0, 0, time.UTC)

func TestRunEmptyInput(t *testing.T) {
	p := NewBuilder().WithConfig(testConfig()).Build()

	res, err := p.Run(context.Background(), nil, evening)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	d := res.Digest
	if d.ID == "" {
		t.Error("Expected digest ID")
	}
	if len(d.TopStories) != 0 || d.Metrics.TotalStories != 0 || d.Metrics.CrossPlatformStories != 0 {
		t.Errorf("Expected empty digest, got %+v", d)
	}
	if d.DigestType != "evening" || d.TimeLabel != "Evening Digest" || d.Date != "2025-03-01" || d.LocalTime != "19:05" {
		t.Errorf("Unexpected slot fields: %s %s %s %s", d.DigestType, d.TimeLabel, d.Date, d.LocalTime)
	}
}

func TestRunRanksAndSummarizes(t *testing.T) {
	sum := &fakeSummarizer{}
	p := NewBuilder().WithConfig(testConfig()).WithSummarizer(sum).Build()

	res, err := p.Run(context.Background(), sampleBatches(), evening)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	d := res.Digest

	if d.Metrics.ItemsReceived != 5 || d.Metrics.NormalizerRejections != 1 {
		t.Errorf("Unexpected intake metrics: %+v", d.Metrics)
	}
	if d.Metrics.TotalStories != 3 || d.Metrics.CrossPlatformStories != 1 {
		t.Errorf("Unexpected cluster metrics: %+v", d.Metrics)
	}
	if d.Metrics.PlatformsCovered != 3 {
		t.Errorf("Expected 3 platforms covered, got %d", d.Metrics.PlatformsCovered)
	}
	if len(d.TopStories) != 3 {
		t.Fatalf("Expected 3 stories, got %d", len(d.TopStories))
	}

	top := d.TopStories[0]
	if top.Rank != 1 || top.PlatformCount != 2 {
		t.Errorf("Cross-platform story should rank first, got %+v", top)
	}
	if top.Context.Kind != core.ContextDescriptions {
		t.Errorf("Expected descriptions context without a fetcher, got %s", top.Context.Kind)
	}
	for i, e := range d.TopStories {
		if e.Rank != i+1 {
			t.Errorf("Non-contiguous rank %d at %d", e.Rank, i)
		}
		if e.Summary == nil || e.SummaryFailed {
			t.Errorf("Story %d should be summarized", e.Rank)
		}
	}

	if d.TopStories[2].PrimaryTitle != "国务院常务会议研究部署经济工作" && d.TopStories[1].PrimaryTitle != "国务院常务会议研究部署经济工作" {
		t.Error("Ordinal prefix should be stripped from the xinhua title")
	}
	if _, ok := d.PlatformExclusives[core.SourceXinhua]; !ok {
		t.Errorf("Expected a xinhua exclusive, got %v", d.PlatformExclusives)
	}
	if res.Stats.GetStats()["summaries_ok"].(int64) != 3 {
		t.Errorf("Expected 3 successful summaries, got %v", res.Stats.GetStats()["summaries_ok"])
	}
}

func TestRunSummaryFailuresAreNotFatal(t *testing.T) {
	sum := &fakeSummarizer{err: errors.New("model unavailable")}
	p := NewBuilder().WithConfig(testConfig()).WithSummarizer(sum).Build()

	res, err := p.Run(context.Background(), sampleBatches(), evening)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for _, e := range res.Digest.TopStories {
		if !e.SummaryFailed || e.Summary != nil {
			t.Errorf("Story %d should be flagged as failed", e.Rank)
		}
	}
	if res.Digest.Metrics.SummariesFailed != 3 {
		t.Errorf("Expected 3 failed summaries, got %d", res.Digest.Metrics.SummariesFailed)
	}
	if sum.calls != 9 {
		t.Errorf("Expected 3 attempts per story, got %d calls", sum.calls)
	}
}

func TestRunRetriesRateLimits(t *testing.T) {
	cfg := testConfig()
	cfg.Concurrency = 1
	sum := &fakeSummarizer{failFirst: 1}
	p := NewBuilder().WithConfig(cfg).WithSummarizer(sum).Build()

	res, err := p.Run(context.Background(), sampleBatches(), evening)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Digest.Metrics.RateLimited != 1 {
		t.Errorf("Expected 1 rate-limited call, got %d", res.Digest.Metrics.RateLimited)
	}
	if res.Digest.Metrics.SummariesFailed != 0 {
		t.Errorf("Rate-limited call should succeed on retry, got %d failures", res.Digest.Metrics.SummariesFailed)
	}
}

func TestRunWithoutSummarizerFlagsEntries(t *testing.T) {
	p := NewBuilder().WithConfig(testConfig()).WithSummarizer(&fakeSummarizer{}).WithoutSummaries().Build()

	res, err := p.Run(context.Background(), sampleBatches(), evening)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for _, e := range res.Digest.TopStories {
		if !e.SummaryFailed {
			t.Errorf("Story %d should be flagged", e.Rank)
		}
	}
	if res.Digest.Metrics.SummariesFailed != 0 {
		t.Error("Skipped summaries are not failures")
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	titles := []string{"北京暴雨红色预警", "上海地铁新线开通", "广州车展盛大开幕", "深圳科技大会召开",
		"成都大熊猫基地", "杭州亚运场馆开放", "武汉樱花盛开时节", "西安城墙灯会亮灯"}
	var records []normalize.RawRecord
	for i, title := range titles {
		records = append(records, normalize.RawRecord{"title": title, "raw_score": float64(1000 - i)})
	}

	cfg := testConfig()
	cfg.Concurrency = 2
	cfg.TopK = 8
	sum := &fakeSummarizer{delay: 10 * time.Millisecond}
	p := NewBuilder().WithConfig(cfg).WithSummarizer(sum).Build()

	res, err := p.Run(context.Background(), []normalize.Batch{{Source: core.SourceWeibo, Records: records}}, evening)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(res.Digest.TopStories) != 8 {
		t.Fatalf("Expected 8 stories, got %d", len(res.Digest.TopStories))
	}
	if peak := atomic.LoadInt32(&sum.maxInFlight); peak > 2 {
		t.Errorf("Expected at most 2 concurrent calls, got %d", peak)
	}
	for i, e := range res.Digest.TopStories {
		if e.PrimaryTitle != titles[i] {
			t.Errorf("Rank %d: expected %s, got %s", i+1, titles[i], e.PrimaryTitle)
		}
		if e.Summary == nil || e.Summary.EN != "Summary of "+titles[i] {
			t.Errorf("Rank %d: summary written to the wrong entry: %+v", i+1, e.Summary)
		}
	}
}

func TestRunTranslatesTitlesThroughCache(t *testing.T) {
	cache, err := store.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer func() { _ = cache.Close() }()

	ctx := context.Background()
	batches := sampleBatches()
	// Pre-seed the cached translation for the weibo-only story.
	seeded := normalize.NormalizeTitle("明星演唱会门票秒空")
	if err := cache.PutTranslation(ctx, seeded, "en", "Concert tickets sold out", "test"); err != nil {
		t.Fatal(err)
	}

	tr := &fakeTranslator{}
	p := NewBuilder().WithConfig(testConfig()).WithTranslator(tr).WithCache(cache).Build()

	res, err := p.Run(ctx, batches, evening)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	byTitle := map[string]core.DigestEntry{}
	for _, e := range res.Digest.TopStories {
		byTitle[e.PrimaryTitle] = e
	}
	if got := byTitle["明星演唱会门票秒空"].Title.EN; got != "Concert tickets sold out" {
		t.Errorf("Expected cached translation, got %q", got)
	}
	if got := byTitle["台风登陆浙江沿海地区"].Title.EN; got != "EN:台风登陆浙江沿海地区" {
		t.Errorf("Expected translator output, got %q", got)
	}
	if tr.calls != 2 {
		t.Errorf("Expected 2 translator calls, got %d", tr.calls)
	}
	if res.Digest.Metrics.TranslationCacheHits != 1 {
		t.Errorf("Expected 1 cache hit, got %d", res.Digest.Metrics.TranslationCacheHits)
	}

	// Second run is served entirely from the cache.
	res, err = NewBuilder().WithConfig(testConfig()).WithTranslator(tr).WithCache(cache).Build().Run(ctx, batches, evening)
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if tr.calls != 2 || res.Digest.Metrics.TranslationCacheHits != 3 {
		t.Errorf("Expected all cache hits on rerun, calls=%d hits=%d", tr.calls, res.Digest.Metrics.TranslationCacheHits)
	}
}

func TestRunUpstreamTranslationWins(t *testing.T) {
	tr := &fakeTranslator{}
	batches := []normalize.Batch{{Source: core.SourceThePaper, Records: []normalize.RawRecord{
		{"title": "上海发布高温预警", "rank": 1.0, "extra": map[string]any{"translation": "Shanghai issues heat warning"}},
	}}}

	res, err := NewBuilder().WithConfig(testConfig()).WithTranslator(tr).Build().Run(context.Background(), batches, evening)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := res.Digest.TopStories[0].Title.EN; got != "Shanghai issues heat warning" {
		t.Errorf("Expected upstream translation, got %q", got)
	}
	if tr.calls != 0 {
		t.Error("Translator should not be called when the source supplied a translation")
	}
}

func TestRunDeterministic(t *testing.T) {
	p := NewBuilder().WithConfig(testConfig()).Build()
	a, err := p.Run(context.Background(), sampleBatches(), evening)
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.Run(context.Background(), sampleBatches(), evening)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Digest.TopStories {
		ea, eb := a.Digest.TopStories[i], b.Digest.TopStories[i]
		if ea.PrimaryTitle != eb.PrimaryTitle || ea.Weight != eb.Weight || ea.Rank != eb.Rank {
			t.Errorf("Run is not deterministic at %d: %+v vs %+v", i, ea, eb)
		}
	}
	if a.Digest.ID == b.Digest.ID {
		t.Error("Each run should get a fresh ID")
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewBuilder().WithConfig(testConfig()).WithSummarizer(&fakeSummarizer{}).Build()
	if _, err := p.Run(ctx, sampleBatches(), evening); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestSlot(t *testing.T) {
	tests := []struct {
		hour      int
		wantType  string
		wantLabel string
	}{
		{7, "morning", "Morning Digest"},
		{11, "morning", "Morning Digest"},
		{12, "noon", "Noon Digest"},
		{18, "noon", "Noon Digest"},
		{19, "evening", "Evening Digest"},
		{22, "evening", "Evening Digest"},
		{23, "final", "Final Digest"},
		{0, "final", "Final Digest"},
		{6, "final", "Final Digest"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%02d", tt.hour), func(t *testing.T) {
			typ, label := Slot(time.Date(2025, 3, 1, tt.hour, 30, 0, 0, time.UTC))
			if typ != tt.wantType || label != tt.wantLabel {
				t.Errorf("Slot(%d) = %s/%s, want %s/%s", tt.hour, typ, label, tt.wantType, tt.wantLabel)
			}
		})
	}
}

func TestRunUsesConfiguredTimezone(t *testing.T) {
	cfg := testConfig()
	cfg.Location = LoadLocation("Asia/Shanghai")
	p := NewBuilder().WithConfig(cfg).Build()

	// 11:30 UTC is 19:30 in Beijing.
	res, err := p.Run(context.Background(), nil, time.Date(2025, 3, 1, 11, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if res.Digest.DigestType != "evening" || res.Digest.LocalTime != "19:30" {
		t.Errorf("Expected Beijing evening slot, got %s at %s", res.Digest.DigestType, res.Digest.LocalTime)
	}
}

func TestLoadLocationFallback(t *testing.T) {
	loc := LoadLocation("Nowhere/Invalid")
	_, offset := time.Date(2025, 1, 1, 0, 0, 0, 0, loc).Zone()
	if offset != 8*60*60 {
		t.Errorf("Expected UTC+8 fallback, got offset %d", offset)
	}
}
