package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"trendbrief/internal/logger"
)

const (
	DefaultTimeout   = 5 * time.Second
	DefaultMaxChars  = 3000
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

	maxBodyBytes = 4 << 20
)

var (
	ErrNotArticleURL = errors.New("not a direct article url")
	ErrEmptyBody     = errors.New("empty article body")
)

// Fetcher downloads article pages and extracts their readable text.
type Fetcher struct {
	httpClient *http.Client
	maxChars   int
	userAgent  string
	log        *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.httpClient.Timeout = d
		}
	}
}

// WithMaxChars sets the character budget of returned text.
func WithMaxChars(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxChars = n
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithHTTPClient replaces the underlying client. Its timeout is kept.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.httpClient = c
		}
	}
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		maxChars:   DefaultMaxChars,
		userAgent:  DefaultUserAgent,
		log:        logger.Get(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchText returns the readable text of the page at rawURL, truncated to the
// configured character budget. Non-200 responses and pages without text are
// errors.
func (f *Fetcher) FetchText(ctx context.Context, rawURL string) (string, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return "", fmt.Errorf("invalid URL: %s", rawURL)
	}
	if (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") || isSearchURL(parsedURL) {
		return "", fmt.Errorf("fetch %s: %w", rawURL, ErrNotArticleURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body from %s: %w", rawURL, err)
	}

	text := ""
	if article, err := readability.FromReader(bytes.NewReader(body), parsedURL); err == nil {
		text = collapseWhitespace(article.TextContent)
	} else {
		f.log.Debug("Readability extraction failed, falling back to selectors", "url", rawURL, "error", err.Error())
	}
	if text == "" {
		text = extractParagraphs(body)
	}
	if text == "" {
		return "", fmt.Errorf("fetch %s: %w", rawURL, ErrEmptyBody)
	}

	return truncateRunes(text, f.maxChars), nil
}

// extractParagraphs pulls paragraph text from the common article containers
// of the supported news sites.
func extractParagraphs(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	doc.Find("script, style, nav, footer, header, aside, form, iframe, noscript").Remove()

	selectors := []string{
		"#detail", ".main-aticle", // xinhua
		".index_cententWrap__Jv8jK", ".news_txt", // thepaper
		"#js_content", ".content-article", // wechat, qq news
		".article-content", "article", "main", ".content", "#content",
	}

	var b strings.Builder
	for _, sel := range selectors {
		doc.Find(sel).Find("p").Each(func(_ int, p *goquery.Selection) {
			if t := strings.TrimSpace(p.Text()); t != "" {
				b.WriteString(t)
				b.WriteString("\n")
			}
		})
		if b.Len() > 0 {
			break
		}
	}
	if b.Len() == 0 {
		doc.Find("body p").Each(func(_ int, p *goquery.Selection) {
			if t := strings.TrimSpace(p.Text()); t != "" {
				b.WriteString(t)
				b.WriteString("\n")
			}
		})
	}
	return collapseWhitespace(b.String())
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
