package metrics

import (
	"sync"
	"time"

	"trendbrief/internal/core"
)

// Run collects counters for a single digest run. Safe for concurrent use by
// enrichment workers.
type Run struct {
	mu sync.RWMutex

	// Intake
	ItemsReceived        int64
	NormalizerRejections int64
	Truncated            int64
	PlatformsCovered     int64

	// Clustering
	TotalStories         int64
	CrossPlatformStories int64

	// Enrichment
	ArticlesFetched   int64
	ArticleFailures   int64
	SummariesOK       int64
	SummariesFailed   int64
	SummariesSkipped  int64
	RateLimited       int64
	TranslationHits   int64
	TranslationMisses int64

	StartedAt time.Time
	Duration  time.Duration
}

func NewRun() *Run {
	return &Run{StartedAt: time.Now()}
}

func (m *Run) RecordIntake(received, rejected, platforms int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsReceived += int64(received)
	m.NormalizerRejections += int64(rejected)
	m.PlatformsCovered = int64(platforms)
}

func (m *Run) RecordClusters(total, crossPlatform, truncated int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TotalStories = int64(total)
	m.CrossPlatformStories = int64(crossPlatform)
	m.Truncated = int64(truncated)
}

func (m *Run) RecordFetch(fetched bool, failures int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fetched {
		m.ArticlesFetched++
	}
	m.ArticleFailures += int64(failures)
}

func (m *Run) IncrementSummaryOK() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SummariesOK++
}

func (m *Run) IncrementSummaryFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SummariesFailed++
}

func (m *Run) IncrementSummarySkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SummariesSkipped++
}

func (m *Run) AddRateLimited(n int) {
	if n == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RateLimited += int64(n)
}

func (m *Run) RecordTranslationLookup(hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.TranslationHits++
	} else {
		m.TranslationMisses++
	}
}

// Finish stamps the run duration.
func (m *Run) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Duration = time.Since(m.StartedAt)
}

// Snapshot returns the subset of counters embedded in a digest.
func (m *Run) Snapshot() core.DigestMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return core.DigestMetrics{
		TotalStories:         int(m.TotalStories),
		CrossPlatformStories: int(m.CrossPlatformStories),
		ItemsReceived:        int(m.ItemsReceived),
		NormalizerRejections: int(m.NormalizerRejections),
		Truncated:            int(m.Truncated),
		PlatformsCovered:     int(m.PlatformsCovered),
		ArticlesFetched:      int(m.ArticlesFetched),
		SummariesFailed:      int(m.SummariesFailed),
		RateLimited:          int(m.RateLimited),
		TranslationCacheHits: int(m.TranslationHits),
	}
}

func (m *Run) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"items_received":         m.ItemsReceived,
		"normalizer_rejections":  m.NormalizerRejections,
		"truncated":              m.Truncated,
		"platforms_covered":      m.PlatformsCovered,
		"total_stories":          m.TotalStories,
		"cross_platform_stories": m.CrossPlatformStories,
		"articles_fetched":       m.ArticlesFetched,
		"article_failures":       m.ArticleFailures,
		"summaries_ok":           m.SummariesOK,
		"summaries_failed":       m.SummariesFailed,
		"summaries_skipped":      m.SummariesSkipped,
		"rate_limited":           m.RateLimited,
		"translation_hits":       m.TranslationHits,
		"translation_misses":     m.TranslationMisses,
		"started_at":             m.StartedAt.Format(time.RFC3339),
		"duration_ms":            m.Duration.Milliseconds(),
	}
}
