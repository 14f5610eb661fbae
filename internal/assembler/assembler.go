package assembler

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"trendbrief/internal/core"
	"trendbrief/internal/fetch"
	"trendbrief/internal/logger"
)

const (
	DefaultMaxAttempts = 2
	DefaultTimeout     = 5 * time.Second
)

// ArticleFetcher retrieves readable article text for a URL.
type ArticleFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// Outcome is the assembled context plus counters for run metrics.
type Outcome struct {
	Context       core.AssembledContext
	FetchAttempts int
	FetchFailures int
	CandidateURLs int
}

// Assembler builds the best available context for a cluster: a fetched
// article, else member descriptions, else headlines.
type Assembler struct {
	fetcher     ArticleFetcher
	maxAttempts int
	timeout     time.Duration
	log         *slog.Logger
}

// New creates an Assembler. A nil fetcher disables the article branch.
func New(fetcher ArticleFetcher, maxAttempts int, timeout time.Duration) *Assembler {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Assembler{
		fetcher:     fetcher,
		maxAttempts: maxAttempts,
		timeout:     timeout,
		log:         logger.Get(),
	}
}

// Assemble evaluates the fallback chain for cluster. Fetch failures are
// absorbed and counted; they never abort assembly.
func (a *Assembler) Assemble(ctx context.Context, cluster *core.StoryCluster) Outcome {
	var out Outcome

	urls := ArticleURLs(cluster)
	out.CandidateURLs = len(urls)
	if a.fetcher != nil {
		for _, u := range urls {
			if out.FetchAttempts >= a.maxAttempts || ctx.Err() != nil {
				break
			}
			out.FetchAttempts++

			text, err := a.fetch(ctx, u)
			if err != nil {
				out.FetchFailures++
				a.log.Debug("Article fetch failed", "cluster", cluster.ID, "url", u, "error", err.Error())
				continue
			}
			out.Context = core.ArticleContext(text, u)
			return out
		}
	}

	if descs := Descriptions(cluster); len(descs) > 0 {
		out.Context = core.DescriptionsContext(descs)
		return out
	}

	out.Context = core.HeadlinesContext(Headlines(cluster))
	return out
}

func (a *Assembler) fetch(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	text, err := a.fetcher.FetchText(ctx, url)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fetch.ErrEmptyBody
	}
	return text, nil
}

// ArticleURLs returns the distinct direct-article URLs of members in
// member order.
func ArticleURLs(cluster *core.StoryCluster) []string {
	var urls []string
	seen := make(map[string]bool)
	for _, m := range cluster.Members {
		if m.URL == "" || seen[m.URL] || !fetch.IsArticleURL(m.Source, m.URL) {
			continue
		}
		seen[m.URL] = true
		urls = append(urls, m.URL)
	}
	return urls
}

// Descriptions returns the distinct non-empty member descriptions.
func Descriptions(cluster *core.StoryCluster) []string {
	return distinct(cluster.Members, func(m core.TrendingItem) string { return m.Description })
}

// Headlines returns the distinct member titles.
func Headlines(cluster *core.StoryCluster) []string {
	return distinct(cluster.Members, func(m core.TrendingItem) string { return m.Title })
}

func distinct(members []core.TrendingItem, field func(core.TrendingItem) string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range members {
		v := strings.TrimSpace(field(m))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
