package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"trendbrief/internal/assembler"
	"trendbrief/internal/categorization"
	"trendbrief/internal/clustering"
	"trendbrief/internal/core"
	"trendbrief/internal/llm"
	"trendbrief/internal/logger"
	"trendbrief/internal/metrics"
	"trendbrief/internal/normalize"
	"trendbrief/internal/ranking"
	"trendbrief/internal/retry"
	"trendbrief/internal/scoring"
)

// Pipeline turns one batch of source snapshots into a ranked, enriched digest
type Pipeline struct {
	normalizer *normalize.Normalizer
	builder    *clustering.Builder
	engine     *scoring.Engine
	assembler  *assembler.Assembler
	summarizer Summarizer
	translator Translator
	cache      TranslationCache

	config *Config
	log    *slog.Logger
}

// Config holds pipeline configuration
type Config struct {
	// Intake and clustering
	MaxItemsPerSource   int
	MaxClusterItems     int
	SimilarityThreshold float64
	MinTokens           int
	MaxTitles           int
	PlatformMultiplier  float64

	// Context assembly
	MaxArticleAttempts int
	FetchTimeout       time.Duration

	// Selection
	TopK               int
	MinPlatforms       int
	ExclusiveMinWeight float64
	Location           *time.Location

	// Enrichment
	Concurrency int
	Retry       retry.RetryConfig
	TargetLang  string
	CacheTTL    time.Duration
	ModelName   string
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		MaxItemsPerSource:   20,
		MaxClusterItems:     clustering.DefaultMaxItems,
		SimilarityThreshold: clustering.DefaultThreshold,
		MinTokens:           clustering.DefaultMinTokens,
		MaxTitles:           clustering.DefaultMaxTitles,
		PlatformMultiplier:  scoring.DefaultPlatformMultiplier,
		MaxArticleAttempts:  assembler.DefaultMaxAttempts,
		FetchTimeout:        assembler.DefaultTimeout,
		TopK:                ranking.DefaultTopK,
		MinPlatforms:        1,
		ExclusiveMinWeight:  2.0,
		Location:            LoadLocation(defaultTimezone),
		Concurrency:         5,
		Retry:               retry.DefaultConfig(),
		TargetLang:          "en",
		CacheTTL:            30 * 24 * time.Hour,
		ModelName:           llm.DefaultModel,
	}
}

// NewPipeline creates a pipeline. Nil collaborators disable their step: no
// fetcher skips articles, no summarizer flags every entry, no translator
// leaves English titles empty unless a source supplied one.
func NewPipeline(
	config *Config,
	fetcher assembler.ArticleFetcher,
	summarizer Summarizer,
	translator Translator,
	cache TranslationCache,
) *Pipeline {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Location == nil {
		config.Location = LoadLocation(defaultTimezone)
	}
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}

	return &Pipeline{
		normalizer: normalize.New(config.MaxItemsPerSource),
		builder: clustering.NewBuilder(
			clustering.NewMatcher(config.SimilarityThreshold, config.MinTokens),
			config.MaxClusterItems,
			config.MaxTitles,
		),
		engine:     scoring.NewEngine(config.PlatformMultiplier, categorization.NewCategorizer(nil)),
		assembler:  assembler.New(fetcher, config.MaxArticleAttempts, config.FetchTimeout),
		summarizer: summarizer,
		translator: translator,
		cache:      cache,
		config:     config,
		log:        logger.Get(),
	}
}

// Result is a finished digest plus the full run counters.
type Result struct {
	Digest core.Digest
	Stats  *metrics.Run
}

// Run executes one batch end to end. Per-item failures are counted, never
// returned; Run fails only on a cluster with no members or a cancelled
// context. An empty input yields a well-formed empty digest.
func (p *Pipeline) Run(ctx context.Context, batches []normalize.Batch, now time.Time) (*Result, error) {
	stats := metrics.NewRun()

	normalized := p.normalizer.Normalize(batches)
	stats.RecordIntake(normalized.Received, normalized.Rejected, countPlatforms(normalized.Items))
	p.log.Info("Normalized source records",
		"received", normalized.Received,
		"items", len(normalized.Items),
		"rejected", normalized.Rejected,
	)

	built := p.builder.Build(normalized.Items)
	p.engine.Apply(built.Clusters)
	for _, c := range built.Clusters {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("cluster %d: %w", c.ID, err)
		}
	}

	sel := ranking.Select(built.Clusters, p.config.TopK, p.config.MinPlatforms)
	stats.RecordClusters(sel.TotalStories, sel.CrossPlatformStories, built.Truncated)
	p.log.Info("Clustered stories",
		"clusters", sel.TotalStories,
		"cross_platform", sel.CrossPlatformStories,
		"selected", len(sel.Top),
		"truncated", built.Truncated,
	)

	entries := make([]core.DigestEntry, len(sel.Top))
	for i, r := range sel.Top {
		entries[i] = ranking.NewEntry(r)
	}

	if err := p.enrich(ctx, sel.Top, entries, stats); err != nil {
		return nil, err
	}

	local := now.In(p.config.Location)
	digestType, timeLabel := Slot(local)
	stats.Finish()

	digest := core.Digest{
		ID:                 uuid.NewString(),
		DigestType:         digestType,
		TimeLabel:          timeLabel,
		GeneratedAt:        local,
		Date:               local.Format("2006-01-02"),
		LocalTime:          local.Format("15:04"),
		Metrics:            stats.Snapshot(),
		TopStories:         entries,
		PlatformExclusives: ranking.Exclusives(sel.All, p.config.ExclusiveMinWeight),
	}

	p.log.Info("Digest assembled", "id", digest.ID, "type", digestType, "stories", len(entries))
	return &Result{Digest: digest, Stats: stats}, nil
}

// enrich assembles context, summarizes and translates the selected entries
// with at most Concurrency workers. Each worker writes only its own index.
func (p *Pipeline) enrich(ctx context.Context, top []ranking.Ranked, entries []core.DigestEntry, stats *metrics.Run) error {
	sem := make(chan struct{}, p.config.Concurrency)
	var wg sync.WaitGroup

	for i := range top {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			p.enrichEntry(ctx, top[i].Cluster, &entries[i], stats)
		}(i)
	}
	wg.Wait()

	return ctx.Err()
}

func (p *Pipeline) enrichEntry(ctx context.Context, cluster *core.StoryCluster, entry *core.DigestEntry, stats *metrics.Run) {
	outcome := p.assembler.Assemble(ctx, cluster)
	entry.Context = outcome.Context
	stats.RecordFetch(outcome.Context.Kind == core.ContextArticle, outcome.FetchFailures)

	p.summarize(ctx, cluster, entry, stats)

	if entry.Title.EN == "" {
		entry.Title.EN = p.translateTitle(ctx, cluster, stats)
	}
}

func (p *Pipeline) summarize(ctx context.Context, cluster *core.StoryCluster, entry *core.DigestEntry, stats *metrics.Run) {
	if p.summarizer == nil {
		entry.SummaryFailed = true
		stats.IncrementSummarySkipped()
		return
	}

	req := llm.SummaryRequest{
		Title:       entry.PrimaryTitle,
		Context:     entry.Context,
		Platforms:   entry.Platforms,
		TargetLangs: []string{"en", "zh"},
	}

	var summary core.BilingualText
	rs, err := retry.WithRetry(ctx, p.config.Retry, func(ctx context.Context) error {
		out, err := p.summarizer.Summarize(ctx, req)
		if err != nil {
			return err
		}
		summary = out
		return nil
	})
	stats.AddRateLimited(rs.RateLimited)

	if err != nil {
		entry.SummaryFailed = true
		stats.IncrementSummaryFailed()
		p.log.Warn("Summary failed",
			"cluster", cluster.ID,
			"attempts", rs.Attempts,
			"rate_limited", rs.RateLimited,
			"error", err,
		)
		return
	}

	entry.Summary = &summary
	stats.IncrementSummaryOK()
}

// translateTitle returns the English headline from the cache or the
// translator, or "" when neither can provide one.
func (p *Pipeline) translateTitle(ctx context.Context, cluster *core.StoryCluster, stats *metrics.Run) string {
	key := cluster.Anchor().NormalizedTitle
	lang := p.config.TargetLang

	if p.cache != nil {
		cached, err := p.cache.GetTranslation(ctx, key, lang, p.config.CacheTTL)
		if err == nil && cached != "" {
			stats.RecordTranslationLookup(true)
			return cached
		}
		stats.RecordTranslationLookup(false)
	}

	if p.translator == nil {
		return ""
	}

	var translated string
	rs, err := retry.WithRetry(ctx, p.config.Retry, func(ctx context.Context) error {
		out, err := p.translator.Translate(ctx, cluster.PrimaryTitle, lang)
		if err != nil {
			return err
		}
		translated = out
		return nil
	})
	stats.AddRateLimited(rs.RateLimited)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			p.log.Debug("Title translation failed", "cluster", cluster.ID, "error", err)
		}
		return ""
	}

	if p.cache != nil && translated != "" {
		if err := p.cache.PutTranslation(ctx, key, lang, translated, p.config.ModelName); err != nil {
			p.log.Debug("Failed to cache translation", "cluster", cluster.ID, "error", err)
		}
	}
	return translated
}

func countPlatforms(items []core.TrendingItem) int {
	seen := make(map[core.Source]bool)
	for _, it := range items {
		seen[it.Source] = true
	}
	return len(seen)
}
