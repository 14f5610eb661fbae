// Package sources loads per-platform trending snapshots named by a manifest
package sources

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest maps each source identifier to its snapshot location.
//
//	sources:
//	  xinhua_news: snapshots/xinhua_news.json
//	  thepaper_news: https://example.com/thepaper.rss
type Manifest struct {
	Sources map[string]string `yaml:"sources"`

	dir string
}

// LoadManifest reads a YAML manifest. Relative snapshot paths resolve against
// the manifest's own directory.
func LoadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var m Manifest
	if err := yaml.NewDecoder(f).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", path, err)
	}
	if len(m.Sources) == 0 {
		return nil, fmt.Errorf("manifest %s lists no sources", path)
	}
	m.dir = filepath.Dir(path)
	return &m, nil
}

// Entry is one resolved manifest line.
type Entry struct {
	Source   string
	Location string
}

// Entries returns the manifest lines sorted by source identifier.
func (m *Manifest) Entries() []Entry {
	keys := make([]string, 0, len(m.Sources))
	for k := range m.Sources {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		out = append(out, Entry{Source: k, Location: m.resolve(m.Sources[k])})
	}
	return out
}

func (m *Manifest) resolve(loc string) string {
	loc = strings.TrimSpace(loc)
	if strings.Contains(loc, "://") || filepath.IsAbs(loc) || m.dir == "" {
		return loc
	}
	return filepath.Join(m.dir, loc)
}
