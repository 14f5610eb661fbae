package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"trendbrief/internal/core"
)

// WriteDigest serializes d as indented JSON to path, creating parent
// directories as needed.
func WriteDigest(d core.Digest, path string) (string, error) {
	data, err := Marshal(d)
	if err != nil {
		return "", err
	}
	return WriteDigestToFile(data, filepath.Dir(path), filepath.Base(path))
}

// ArchivePath returns <archiveDir>/<date>/<digest_type>.json for d.
func ArchivePath(archiveDir string, d core.Digest) string {
	if archiveDir == "" {
		archiveDir = "digest_archive"
	}
	return filepath.Join(archiveDir, d.Date, d.DigestType+".json")
}

// Marshal encodes d as indented JSON without escaping '&', '<' or '>' in URLs.
func Marshal(d core.Digest) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("failed to encode digest: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadDigest loads a digest previously written by WriteDigest.
func ReadDigest(path string) (core.Digest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Digest{}, fmt.Errorf("failed to read digest file %s: %w", path, err)
	}
	var d core.Digest
	if err := json.Unmarshal(data, &d); err != nil {
		return core.Digest{}, fmt.Errorf("failed to decode digest file %s: %w", path, err)
	}
	return d, nil
}

// WriteDigestToFile writes the provided content to a file in the specified directory
func WriteDigestToFile(content []byte, outputDir, filename string) (string, error) {
	if outputDir == "" {
		outputDir = "."
	}

	err := os.MkdirAll(outputDir, 0755)
	if err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	filePath := filepath.Join(outputDir, filename)

	err = os.WriteFile(filePath, content, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to write digest file %s: %w", filePath, err)
	}

	return filePath, nil
}

// Markdown renders d as a markdown document.
func Markdown(d core.Digest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s - %s\n\n", d.TimeLabel, d.Date)
	fmt.Fprintf(&b, "*%d stories, %d on more than one platform. Generated %s.*\n\n",
		d.Metrics.TotalStories, d.Metrics.CrossPlatformStories, d.LocalTime)

	if len(d.TopStories) == 0 {
		b.WriteString("No trending stories in this digest.\n")
		return b.String()
	}

	for _, e := range d.TopStories {
		fmt.Fprintf(&b, "### %d. %s\n\n", e.Rank, e.PrimaryTitle)
		if e.Title.EN != "" {
			fmt.Fprintf(&b, "*%s*\n\n", e.Title.EN)
		}
		fmt.Fprintf(&b, "**Platforms:** %s · **Category:** %s · **Weight:** %.1f\n\n",
			PlatformList(e), e.Category, e.Weight)

		switch {
		case e.Summary != nil:
			if e.Summary.EN != "" {
				b.WriteString(e.Summary.EN + "\n\n")
			}
			if e.Summary.ZH != "" {
				b.WriteString(e.Summary.ZH + "\n\n")
			}
		case e.SummaryFailed:
			b.WriteString("_Summary unavailable._\n\n")
		}

		if len(e.URLs) > 0 {
			b.WriteString("**Sources:**\n\n")
			for i, u := range e.URLs {
				fmt.Fprintf(&b, "- [Link %d](%s)\n", i+1, u)
			}
			b.WriteString("\n")
		}
		b.WriteString("---\n\n")
	}

	if len(d.PlatformExclusives) > 0 {
		b.WriteString("## Platform exclusives\n\n")
		for _, src := range core.SourcePriority {
			if ex, ok := d.PlatformExclusives[src]; ok {
				fmt.Fprintf(&b, "- **%s:** %s (%.1f)\n", src.DisplayName(), ex.Title, ex.Weight)
			}
		}
	}

	return b.String()
}

// PlatformList joins the surfaced platform names, noting any not shown.
func PlatformList(e core.DigestEntry) string {
	names := make([]string, len(e.Platforms))
	for i, p := range e.Platforms {
		names[i] = p.DisplayName()
	}
	out := strings.Join(names, ", ")
	if extra := e.PlatformCount - len(e.Platforms); extra > 0 {
		out += fmt.Sprintf(" +%d", extra)
	}
	return out
}
