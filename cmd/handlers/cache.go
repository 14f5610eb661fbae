package handlers

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"trendbrief/internal/config"
	"trendbrief/internal/logger"
	"trendbrief/internal/store"
)

// NewCacheCmd creates the cache management command
func NewCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the title translation cache",
		Long:  `Inspect, prune and clear the SQLite cache of translated story titles.`,
	}

	cacheCmd.AddCommand(newCacheStatsCmd())
	cacheCmd.AddCommand(newCacheClearCmd())
	cacheCmd.AddCommand(newCacheCleanupCmd())

	return cacheCmd
}

func newCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics and storage information",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runCacheStats(); err != nil {
				logger.Error("Failed to get cache stats", err)
				os.Exit(1)
			}
		},
	}
}

func newCacheClearCmd() *cobra.Command {
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the cache (removes all cached translations)",
		Run: func(cmd *cobra.Command, args []string) {
			confirm, _ := cmd.Flags().GetBool("confirm")
			if err := runCacheClear(confirm); err != nil {
				logger.Error("Failed to clear cache", err)
				os.Exit(1)
			}
		},
	}

	clearCmd.Flags().Bool("confirm", false, "Skip confirmation prompt")
	return clearCmd
}

func newCacheCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove translations older than cache.ttl",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runCacheCleanup(); err != nil {
				logger.Error("Failed to clean up cache", err)
				os.Exit(1)
			}
		},
	}
}

func openCache() (*store.Store, func(), error) {
	cacheStore, err := store.NewStore(config.GetDataDir())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize cache store: %w", err)
	}
	closeFn := func() {
		if err := cacheStore.Close(); err != nil {
			logger.Error("Failed to close cache store", err)
		}
	}
	return cacheStore, closeFn, nil
}

func runCacheStats() error {
	fmt.Println("📊 Cache Statistics")
	fmt.Println("==================")

	cacheStore, closeFn, err := openCache()
	if err != nil {
		return err
	}
	defer closeFn()

	stats, err := cacheStore.GetCacheStats()
	if err != nil {
		return fmt.Errorf("failed to get cache statistics: %w", err)
	}

	fmt.Printf("🌐 Translations cached: %d\n", stats.TranslationCount)
	langs := make([]string, 0, len(stats.LanguageCounts))
	for lang := range stats.LanguageCounts {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		fmt.Printf("   %s: %d\n", lang, stats.LanguageCounts[lang])
	}
	fmt.Printf("💾 Cache size: %.2f MB\n", float64(stats.CacheSize)/1024/1024)
	if !stats.LastUpdated.IsZero() {
		fmt.Printf("📅 Last updated: %s\n", stats.LastUpdated.Format("2006-01-02 15:04:05"))
	}

	return nil
}

func runCacheClear(confirm bool) error {
	if !confirm {
		fmt.Print("⚠️  This will remove all cached translations. Continue? [y/N]: ")
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" && response != "yes" {
			fmt.Println("Cache clear cancelled")
			return nil
		}
	}

	fmt.Println("🗑️  Clearing cache...")

	cacheStore, closeFn, err := openCache()
	if err != nil {
		return err
	}
	defer closeFn()

	if err := cacheStore.ClearCache(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	fmt.Println("✅ Cache cleared successfully")
	return nil
}

func runCacheCleanup() error {
	ttl := config.Duration(config.GetCache().TTL, 30*24*time.Hour)

	cacheStore, closeFn, err := openCache()
	if err != nil {
		return err
	}
	defer closeFn()

	removed, err := cacheStore.CleanupOldCache(ttl)
	if err != nil {
		return err
	}

	fmt.Printf("🧹 Removed %d translations older than %s\n", removed, ttl)
	return nil
}
