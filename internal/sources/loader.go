package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"trendbrief/internal/core"
	"trendbrief/internal/feeds"
	"trendbrief/internal/logger"
	"trendbrief/internal/normalize"
)

// Snapshot is the JSON document a source collector writes.
type Snapshot struct {
	AsOf   string                `json:"as_of"`
	Source string                `json:"source"`
	Items  []normalize.RawRecord `json:"items"`
}

// LoadResult reports what was loaded and what was skipped.
type LoadResult struct {
	Batches []normalize.Batch
	Loaded  int
	Skipped int
	Failed  int
	Errors  []error
}

// Loader reads every snapshot named by a manifest.
type Loader struct {
	feeds          *feeds.Reader
	maxConcurrency int
	log            *slog.Logger
}

// NewLoader creates a loader that reads up to maxConcurrency snapshots at once.
func NewLoader(feedTimeout time.Duration, maxConcurrency int) *Loader {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &Loader{
		feeds:          feeds.NewReader(feedTimeout),
		maxConcurrency: maxConcurrency,
		log:            logger.Get(),
	}
}

// Load reads each manifest entry into a batch. Missing snapshots are skipped
// with a warning; unreadable ones are reported in the result. Batches come
// back in manifest order regardless of completion order.
func (l *Loader) Load(ctx context.Context, m *Manifest) (*LoadResult, error) {
	entries := m.Entries()
	batches := make([]*normalize.Batch, len(entries))
	errs := make([]error, len(entries))
	missing := make([]bool, len(entries))

	sem := make(chan struct{}, l.maxConcurrency)
	var wg sync.WaitGroup

	for i, entry := range entries {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		default:
		}

		wg.Add(1)
		sem <- struct{}{}

		go func(i int, e Entry) {
			defer wg.Done()
			defer func() { <-sem }()

			batch, err := l.loadEntry(ctx, e)
			switch {
			case errors.Is(err, fs.ErrNotExist):
				missing[i] = true
			case err != nil:
				errs[i] = fmt.Errorf("source %s: %w", e.Source, err)
			default:
				batches[i] = batch
			}
		}(i, entry)
	}
	wg.Wait()

	result := &LoadResult{}
	for i, e := range entries {
		switch {
		case missing[i]:
			result.Skipped++
			l.log.Warn("Snapshot missing, skipping source", "source", e.Source, "location", e.Location)
		case errs[i] != nil:
			result.Failed++
			result.Errors = append(result.Errors, errs[i])
			l.log.Error("Failed to load snapshot", "source", e.Source, "error", errs[i])
		default:
			result.Loaded++
			result.Batches = append(result.Batches, *batches[i])
		}
	}

	l.log.Info("Snapshots loaded",
		"loaded", result.Loaded,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}

func (l *Loader) loadEntry(ctx context.Context, e Entry) (*normalize.Batch, error) {
	src := core.Source(e.Source)
	if parsed, err := core.ParseSource(e.Source); err == nil {
		src = parsed
	} else {
		// Kept so the normalizer counts the records as rejections.
		l.log.Warn("Manifest names an unknown source", "source", e.Source)
	}

	if feeds.IsFeedLocation(e.Location) {
		records, err := l.feeds.Read(ctx, e.Location)
		if err != nil {
			return nil, err
		}
		return &normalize.Batch{Source: src, Records: records}, nil
	}

	snap, err := ReadSnapshot(e.Location)
	if err != nil {
		return nil, err
	}
	if snap.Source != "" && snap.Source != e.Source {
		l.log.Warn("Snapshot source differs from manifest key", "manifest", e.Source, "snapshot", snap.Source)
	}
	return &normalize.Batch{Source: src, Records: snap.Items}, nil
}

// ReadSnapshot decodes a JSON snapshot file. Numbers are kept as json.Number
// so large heat values survive intact.
func ReadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var snap Snapshot
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", path, err)
	}
	return &snap, nil
}
