package normalize

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"trendbrief/internal/core"
	"trendbrief/internal/logger"
)

// RawRecord is one loosely-typed item as delivered by a source collector.
// Optional values may live at the top level or under an "extra" object.
type RawRecord map[string]any

// Batch is the ordered output of one source collector.
type Batch struct {
	Source  core.Source
	Records []RawRecord
}

// Result is the pooled, normalized item list of one run.
type Result struct {
	Items    []core.TrendingItem
	Received int
	Rejected int
}

// Normalizer maps raw records onto TrendingItems.
type Normalizer struct {
	maxPerSource int
	log          *slog.Logger
}

// New creates a Normalizer that pools at most maxPerSource records from each
// source. A non-positive limit disables the cap.
func New(maxPerSource int) *Normalizer {
	return &Normalizer{maxPerSource: maxPerSource, log: logger.Get()}
}

// Normalize converts every batch and concatenates the results in source
// priority order. Rejected records are counted, never returned as errors.
func (n *Normalizer) Normalize(batches []Batch) Result {
	ordered := make([]Batch, len(batches))
	copy(ordered, batches)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Source.Priority() < ordered[j].Source.Priority()
	})

	var res Result
	for _, batch := range ordered {
		records := batch.Records
		if n.maxPerSource > 0 && len(records) > n.maxPerSource {
			records = records[:n.maxPerSource]
		}
		res.Received += len(records)

		if !batch.Source.Valid() {
			n.log.Warn("Rejecting batch from unknown source", "source", batch.Source, "records", len(records))
			res.Rejected += len(records)
			continue
		}

		items, rejected := n.NormalizeSource(batch.Source, records)
		res.Items = append(res.Items, items...)
		res.Rejected += rejected
	}
	return res
}

// NormalizeSource converts one source's records, preserving their order, and
// assigns each item its ordinal rank within the source.
func (n *Normalizer) NormalizeSource(src core.Source, records []RawRecord) ([]core.TrendingItem, int) {
	items := make([]core.TrendingItem, 0, len(records))
	rejected := 0
	for i, rec := range records {
		item, err := FromRecord(src, rec)
		if err != nil {
			rejected++
			n.log.Debug("Normalizer rejected record", "source", src, "index", i, "reason", err.Error())
			continue
		}
		items = append(items, item)
	}
	assignOrdinalRanks(src.Signal(), items)
	return items, rejected
}

// FromRecord is the validating constructor from a raw record to a
// TrendingItem. Missing or unparseable signals become nil, never zero.
func FromRecord(src core.Source, rec RawRecord) (core.TrendingItem, error) {
	rawTitle := rec.str("title", "name", "word", "query")
	item, err := core.NewTrendingItem(src, CleanTitle(rawTitle), NormalizeTitle(rawTitle))
	if err != nil {
		return core.TrendingItem{}, fmt.Errorf("normalize %s record: %w", src, err)
	}

	if src.Signal() == core.SignalHeat {
		item.RankOrHeat = parseNumber(rec.lookup("raw_score", "heat", "hot", "hot_value", "value"))
	} else {
		item.RankOrHeat = parseNumber(rec.lookup("rank", "position"))
	}
	item.URL = rec.str("url", "link", "mobile_url")
	item.Description = rec.str("description", "desc", "summary")
	item.Translation = rec.str("translation", "title_en")
	item.PublishedAt = parseTime(rec.lookup("published_at", "published", "pub_date", "pubDate", "timestamp"))
	return item, nil
}

// assignOrdinalRanks turns each source's native signal into a 1-based
// position. Items without a signal keep a nil rank.
func assignOrdinalRanks(kind core.SignalKind, items []core.TrendingItem) {
	idx := make([]int, 0, len(items))
	for i := range items {
		if items[i].RankOrHeat != nil {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		va, vb := *items[idx[a]].RankOrHeat, *items[idx[b]].RankOrHeat
		if kind == core.SignalHeat {
			return va > vb
		}
		return va < vb
	})
	for pos, i := range idx {
		r := pos + 1
		items[i].Rank = &r
	}
}

func (r RawRecord) lookup(keys ...string) any {
	extra, _ := r["extra"].(map[string]any)
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return v
		}
		if extra != nil {
			if v, ok := extra[k]; ok && v != nil {
				return v
			}
		}
	}
	return nil
}

func (r RawRecord) str(keys ...string) string {
	extra, _ := r["extra"].(map[string]any)
	for _, k := range keys {
		for _, m := range []map[string]any{r, extra} {
			if m == nil {
				continue
			}
			if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

var numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// parseNumber accepts numeric JSON values and strings such as "热度 120000"
// or "35.2万".
func parseNumber(v any) *float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case interface{ Float64() (float64, error) }:
		parsed, err := n.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		m := numberPattern.FindString(strings.ReplaceAll(n, ",", ""))
		if m == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return nil
		}
		switch {
		case strings.Contains(n, "亿"):
			parsed *= 1e8
		case strings.Contains(n, "万"):
			parsed *= 1e4
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

var timeLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTime(v any) *time.Time {
	var t time.Time
	switch x := v.(type) {
	case time.Time:
		t = x
	case *time.Time:
		if x == nil {
			return nil
		}
		t = *x
	case string:
		s := strings.TrimSpace(x)
		ok := false
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				t, ok = parsed, true
				break
			}
		}
		if !ok {
			return nil
		}
	default:
		f := parseNumber(v)
		if f == nil || *f <= 0 {
			return nil
		}
		sec := int64(*f)
		if sec > 1e12 {
			t = time.UnixMilli(sec)
		} else {
			t = time.Unix(sec, 0)
		}
	}
	t = t.UTC()
	return &t
}
