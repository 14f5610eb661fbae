package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrCacheMiss is returned when no fresh translation is cached.
var ErrCacheMiss = errors.New("cache miss")

// Store is the SQLite-backed translation cache. It is advisory: callers
// treat every error as a miss.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the cache database in dataDir.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "translations.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Serialize writers; concurrent enrichment workers share this handle.
	db.SetMaxOpenConns(1)

	store := &Store{
		db:   db,
		path: dbPath,
	}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

// initialize creates the necessary tables
func (s *Store) initialize() error {
	translationsTable := `
	CREATE TABLE IF NOT EXISTS translations (
		normalized_title TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		translation TEXT NOT NULL,
		model_used TEXT,
		date_generated DATETIME NOT NULL,
		PRIMARY KEY (normalized_title, target_lang)
	);`

	dateIndex := `CREATE INDEX IF NOT EXISTS idx_translations_date ON translations (date_generated);`

	for _, stmt := range []string{translationsTable, dateIndex} {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetTranslation returns a cached translation no older than maxAge. A zero
// maxAge accepts any age.
func (s *Store) GetTranslation(ctx context.Context, normalizedTitle, lang string, maxAge time.Duration) (string, error) {
	query := `
	SELECT translation FROM translations
	WHERE normalized_title = ? AND target_lang = ? AND date_generated > ?`

	cutoff := time.Time{}
	if maxAge > 0 {
		cutoff = time.Now().UTC().Add(-maxAge)
	}

	var translation string
	err := s.db.QueryRowContext(ctx, query, normalizedTitle, lang, cutoff).Scan(&translation)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("failed to scan translation: %w", err)
	}
	return translation, nil
}

// PutTranslation stores or replaces a translation.
func (s *Store) PutTranslation(ctx context.Context, normalizedTitle, lang, translation, modelUsed string) error {
	query := `
	INSERT OR REPLACE INTO translations
	(normalized_title, target_lang, translation, model_used, date_generated)
	VALUES (?, ?, ?, ?, ?)`

	if _, err := s.db.ExecContext(ctx, query, normalizedTitle, lang, translation, modelUsed, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to cache translation: %w", err)
	}
	return nil
}

// CacheStats represents cache statistics
type CacheStats struct {
	TranslationCount int
	LanguageCounts   map[string]int
	CacheSize        int64
	LastUpdated      time.Time
}

// GetCacheStats returns statistics about the cache
func (s *Store) GetCacheStats() (*CacheStats, error) {
	stats := &CacheStats{LanguageCounts: make(map[string]int)}

	rows, err := s.db.Query("SELECT target_lang, COUNT(*) FROM translations GROUP BY target_lang")
	if err != nil {
		return nil, fmt.Errorf("failed to get count: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var lang string
		var n int
		if err := rows.Scan(&lang, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		stats.LanguageCounts[lang] = n
		stats.TranslationCount += n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate counts: %w", err)
	}

	if fileInfo, err := os.Stat(s.path); err == nil {
		stats.CacheSize = fileInfo.Size()
		stats.LastUpdated = fileInfo.ModTime()
	}

	return stats, nil
}

// ClearCache removes all cached translations
func (s *Store) ClearCache() error {
	if _, err := s.db.Exec("DELETE FROM translations"); err != nil {
		return fmt.Errorf("failed to clear translations table: %w", err)
	}

	// Vacuum to reclaim space
	if _, err := s.db.Exec("VACUUM"); err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	return nil
}

// CleanupOldCache removes translations older than maxAge.
func (s *Store) CleanupOldCache(maxAge time.Duration) (int64, error) {
	res, err := s.db.Exec("DELETE FROM translations WHERE date_generated < ?", time.Now().UTC().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("failed to clean old translations: %w", err)
	}
	return res.RowsAffected()
}
