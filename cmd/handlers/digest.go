package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"trendbrief/internal/config"
	"trendbrief/internal/fetch"
	"trendbrief/internal/llm"
	"trendbrief/internal/logger"
	"trendbrief/internal/pipeline"
	"trendbrief/internal/render"
	"trendbrief/internal/retry"
	"trendbrief/internal/sources"
	"trendbrief/internal/store"
)

// NewDigestCmd creates the digest command group
func NewDigestCmd() *cobra.Command {
	digestCmd := &cobra.Command{
		Use:   "digest",
		Short: "Build and inspect trending digests",
	}

	digestCmd.AddCommand(NewDigestRunCmd())
	digestCmd.AddCommand(NewDigestShowCmd())

	return digestCmd
}

type digestRunOptions struct {
	manifest  string
	output    string
	top       int
	noSummary bool
	archive   bool
}

// NewDigestRunCmd creates the digest run command
func NewDigestRunCmd() *cobra.Command {
	var opts digestRunOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one batch over the current source snapshots",
		Long: `Load every snapshot named by the source manifest, cluster the items into
stories, rank them and write the top stories as a JSON digest.

Summaries and English titles need a Gemini API key (GEMINI_API_KEY). Without
one the digest is still written and each story is flagged as unsummarized.

Examples:
  # Run with the manifest and output from config
  trendbrief digest run

  # Keep the top 10 and also write the dated archive copy
  trendbrief digest run --top 10 --archive

  # Cluster and rank only
  trendbrief digest run --no-summary --output /tmp/digest.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDigest(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.manifest, "manifest", "", "source manifest (default from config: sources.yaml)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "digest output path (default from config: digest.json)")
	cmd.Flags().IntVar(&opts.top, "top", 0, "number of stories to keep (default from config: 5)")
	cmd.Flags().BoolVar(&opts.noSummary, "no-summary", false, "skip summarization")
	cmd.Flags().BoolVar(&opts.archive, "archive", false, "also write <archive_dir>/<date>/<digest_type>.json")

	return cmd
}

func runDigest(ctx context.Context, opts digestRunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.Get()
	srcCfg := config.GetSources()
	assembly := config.GetAssembly()
	digestCfg := config.GetDigest()

	manifestPath := opts.manifest
	if manifestPath == "" {
		manifestPath = srcCfg.Manifest
	}
	manifest, err := sources.LoadManifest(manifestPath)
	if err != nil {
		return fmt.Errorf("failed to load source manifest: %w", err)
	}

	loader := sources.NewLoader(config.Duration(srcCfg.FeedTimeout, 30*time.Second), srcCfg.Concurrency)
	loaded, err := loader.Load(ctx, manifest)
	if err != nil {
		return fmt.Errorf("failed to load snapshots: %w", err)
	}

	fetcher := fetch.NewFetcher(
		fetch.WithTimeout(config.Duration(assembly.FetchTimeout, fetch.DefaultTimeout)),
		fetch.WithMaxChars(assembly.MaxArticleChars),
		fetch.WithUserAgent(assembly.UserAgent),
	)

	builder := pipeline.NewBuilder().
		WithConfig(pipelineConfig(config.Get(), opts.top)).
		WithFetcher(fetcher)

	if config.HasGeminiKey() {
		client, err := llm.NewClient(ctx, config.GetGeminiAPIKey(), config.GetGeminiModel())
		if err != nil {
			log.Warn("Gemini client unavailable, continuing without summaries", "error", err)
		} else {
			defer client.Close()
			builder.WithTranslator(client)
			if !opts.noSummary {
				builder.WithSummarizer(client)
			}
		}
	} else {
		log.Info("No Gemini API key configured, summaries and translations are skipped")
	}

	if config.GetCache().Enabled {
		cache, err := store.NewStore(config.GetApp().DataDir)
		if err != nil {
			log.Warn("Translation cache unavailable", "error", err)
		} else {
			defer func() {
				if err := cache.Close(); err != nil {
					logger.Error("Failed to close cache store", err)
				}
			}()
			builder.WithCache(cache)
		}
	}

	result, err := builder.Build().Run(ctx, loaded.Batches, time.Now())
	if err != nil {
		return fmt.Errorf("digest run failed: %w", err)
	}
	digest := result.Digest

	output := opts.output
	if output == "" {
		output = digestCfg.Output
	}
	path, err := render.WriteDigest(digest, output)
	if err != nil {
		return err
	}

	fmt.Printf("✅ %s written to %s\n", digest.TimeLabel, path)
	fmt.Printf("📊 %d stories (%d cross-platform) from %d items on %d platforms\n",
		digest.Metrics.TotalStories, digest.Metrics.CrossPlatformStories,
		digest.Metrics.ItemsReceived, digest.Metrics.PlatformsCovered)
	if digest.Metrics.SummariesFailed > 0 {
		fmt.Printf("⚠️  %d summaries failed\n", digest.Metrics.SummariesFailed)
	}

	if opts.archive {
		archived, err := render.WriteDigest(digest, render.ArchivePath(digestCfg.ArchiveDir, digest))
		if err != nil {
			return fmt.Errorf("failed to archive digest: %w", err)
		}
		fmt.Printf("🗄️  Archived to %s\n", archived)
	}

	if config.IsDebugMode() {
		log.Debug("Run stats", "stats", result.Stats.GetStats())
	}
	return nil
}

// pipelineConfig maps application config onto the pipeline. A positive top
// overrides digest.top_k.
func pipelineConfig(cfg *config.Config, top int) *pipeline.Config {
	pc := pipeline.DefaultConfig()

	pc.MaxItemsPerSource = cfg.Sources.MaxItemsPerSource
	pc.MaxClusterItems = cfg.Clustering.MaxItems
	pc.SimilarityThreshold = cfg.Clustering.SimilarityThreshold
	pc.MinTokens = cfg.Clustering.MinTokens
	pc.MaxTitles = cfg.Clustering.MaxRepresentativeTitles
	pc.PlatformMultiplier = cfg.Scoring.PlatformMultiplier

	pc.MaxArticleAttempts = cfg.Assembly.MaxArticleAttempts
	pc.FetchTimeout = config.Duration(cfg.Assembly.FetchTimeout, fetch.DefaultTimeout)

	pc.TopK = cfg.Digest.TopK
	if top > 0 {
		pc.TopK = top
	}
	pc.MinPlatforms = cfg.Digest.MinPlatforms
	pc.ExclusiveMinWeight = cfg.Digest.ExclusiveMinWeight
	pc.Location = pipeline.LoadLocation(cfg.Digest.Timezone)

	defaults := retry.DefaultConfig()
	pc.Concurrency = cfg.Summarize.Concurrency
	pc.Retry = retry.RetryConfig{
		MaxAttempts:    cfg.Summarize.MaxAttempts,
		Timeout:        config.Duration(cfg.Summarize.CallTimeout, defaults.Timeout),
		Delay:          config.Duration(cfg.Summarize.BaseBackoff, defaults.Delay),
		RateLimitDelay: config.Duration(cfg.Summarize.RateLimitBackoff, defaults.RateLimitDelay),
		MaxDelay:       defaults.MaxDelay,
	}
	pc.CacheTTL = config.Duration(cfg.Cache.TTL, pc.CacheTTL)
	if cfg.AI.Gemini.Model != "" {
		pc.ModelName = cfg.AI.Gemini.Model
	}

	return pc
}
