package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // digest slots need Asia/Shanghai on hosts without zoneinfo

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        App        `mapstructure:"app"`
	Logging    Logging    `mapstructure:"logging"`
	Sources    Sources    `mapstructure:"sources"`
	Clustering Clustering `mapstructure:"clustering"`
	Scoring    Scoring    `mapstructure:"scoring"`
	Assembly   Assembly   `mapstructure:"assembly"`
	Summarize  Summarize  `mapstructure:"summarize"`
	Digest     Digest     `mapstructure:"digest"`
	AI         AI         `mapstructure:"ai"`
	Cache      Cache      `mapstructure:"cache"`
	Server     Server     `mapstructure:"server"`
}

// App holds general application configuration
type App struct {
	Debug   bool   `mapstructure:"debug"`
	DataDir string `mapstructure:"data_dir"`
}

// Logging holds logging configuration
type Logging struct {
	Level string `mapstructure:"level"`
}

// Sources holds snapshot intake configuration
type Sources struct {
	Manifest          string `mapstructure:"manifest"`
	MaxItemsPerSource int    `mapstructure:"max_items_per_source"`
	FeedTimeout       string `mapstructure:"feed_timeout"`
	Concurrency       int    `mapstructure:"concurrency"`
}

// Clustering holds similarity and cluster builder configuration
type Clustering struct {
	MaxItems                int     `mapstructure:"max_items"`
	SimilarityThreshold     float64 `mapstructure:"similarity_threshold"`
	MinTokens               int     `mapstructure:"min_tokens"`
	MaxRepresentativeTitles int     `mapstructure:"max_representative_titles"`
}

// Scoring holds weight engine configuration
type Scoring struct {
	PlatformMultiplier float64 `mapstructure:"platform_multiplier"`
}

// Assembly holds context assembler configuration
type Assembly struct {
	FetchTimeout       string `mapstructure:"fetch_timeout"`
	MaxArticleChars    int    `mapstructure:"max_article_chars"`
	MaxArticleAttempts int    `mapstructure:"max_article_attempts"`
	UserAgent          string `mapstructure:"user_agent"`
}

// Summarize holds enrichment worker configuration
type Summarize struct {
	Concurrency      int    `mapstructure:"concurrency"`
	CallTimeout      string `mapstructure:"call_timeout"`
	MaxAttempts      int    `mapstructure:"max_attempts"`
	BaseBackoff      string `mapstructure:"base_backoff"`
	RateLimitBackoff string `mapstructure:"rate_limit_backoff"`
}

// Digest holds selection and output configuration
type Digest struct {
	TopK               int     `mapstructure:"top_k"`
	Timezone           string  `mapstructure:"timezone"`
	Output             string  `mapstructure:"output"`
	ArchiveDir         string  `mapstructure:"archive_dir"`
	MinPlatforms       int     `mapstructure:"min_platforms"`
	ExclusiveMinWeight float64 `mapstructure:"exclusive_min_weight"`
}

// AI holds AI/LLM configuration
type AI struct {
	Gemini GeminiConfig `mapstructure:"gemini"`
}

// GeminiConfig holds Google Gemini configuration
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// Cache holds translation cache configuration
type Cache struct {
	Enabled bool   `mapstructure:"enabled"`
	TTL     string `mapstructure:"ttl"`
}

// Server holds the read-only HTTP view configuration
type Server struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

var globalConfig *Config

// Load loads the configuration from various sources
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".trendbrief")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := postProcessConfig(config); err != nil {
		return nil, fmt.Errorf("error post-processing config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.data_dir", ".trendbrief")

	viper.SetDefault("logging.level", "info")

	// Hot lists are only meaningful near the top
	viper.SetDefault("sources.manifest", "sources.yaml")
	viper.SetDefault("sources.max_items_per_source", 20)
	viper.SetDefault("sources.feed_timeout", "30s")
	viper.SetDefault("sources.concurrency", 4)

	viper.SetDefault("clustering.max_items", 500)
	viper.SetDefault("clustering.similarity_threshold", 0.6)
	viper.SetDefault("clustering.min_tokens", 4)
	viper.SetDefault("clustering.max_representative_titles", 5)

	viper.SetDefault("scoring.platform_multiplier", 15.0)

	viper.SetDefault("assembly.fetch_timeout", "5s")
	viper.SetDefault("assembly.max_article_chars", 3000)
	viper.SetDefault("assembly.max_article_attempts", 2)
	viper.SetDefault("assembly.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")

	viper.SetDefault("summarize.concurrency", 5)
	viper.SetDefault("summarize.call_timeout", "30s")
	viper.SetDefault("summarize.max_attempts", 3)
	viper.SetDefault("summarize.base_backoff", "1s")
	viper.SetDefault("summarize.rate_limit_backoff", "10s")

	viper.SetDefault("digest.top_k", 5)
	viper.SetDefault("digest.timezone", "Asia/Shanghai")
	viper.SetDefault("digest.output", "digest.json")
	viper.SetDefault("digest.archive_dir", "digest_archive")
	viper.SetDefault("digest.min_platforms", 1)
	viper.SetDefault("digest.exclusive_min_weight", 2.0)

	viper.SetDefault("ai.gemini.model", "gemini-1.5-flash")

	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.ttl", "720h")

	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", 8080)
}

// bindEnvironmentVariables sets up flexible environment variable binding
func bindEnvironmentVariables() {
	// Gemini API key - support multiple formats
	bindEnvKeys("ai.gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})

	bindEnvKeys("app.debug", []string{
		"DEBUG",
		"TRENDBRIEF_DEBUG",
	})

	bindEnvKeys("logging.level", []string{
		"LOG_LEVEL",
		"TRENDBRIEF_LOG_LEVEL",
	})

	bindEnvKeys("digest.timezone", []string{
		"TRENDBRIEF_TIMEZONE",
	})
}

// bindEnvKeys binds the first found environment variable to a viper key
func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}

// postProcessConfig applies post-processing to configuration values
func postProcessConfig(config *Config) error {
	if config.App.DataDir != "" {
		config.App.DataDir = expandPath(config.App.DataDir)
	}
	if config.Digest.ArchiveDir != "" {
		config.Digest.ArchiveDir = expandPath(config.Digest.ArchiveDir)
	}
	if config.App.Debug {
		config.Logging.Level = "debug"
	}

	durations := map[string]string{
		"sources.feed_timeout":         config.Sources.FeedTimeout,
		"assembly.fetch_timeout":       config.Assembly.FetchTimeout,
		"summarize.call_timeout":       config.Summarize.CallTimeout,
		"summarize.base_backoff":       config.Summarize.BaseBackoff,
		"summarize.rate_limit_backoff": config.Summarize.RateLimitBackoff,
		"cache.ttl":                    config.Cache.TTL,
	}

	for key, duration := range durations {
		if duration != "" {
			if _, err := time.ParseDuration(duration); err != nil {
				return fmt.Errorf("invalid duration for %s: %s", key, duration)
			}
		}
	}

	return nil
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// validateConfig checks value ranges. A missing Gemini key is allowed: runs
// without one skip summaries and flag them.
func validateConfig(config *Config) error {
	var errors []string

	if config.Sources.MaxItemsPerSource < 0 {
		errors = append(errors, "sources.max_items_per_source must not be negative")
	}
	if config.Clustering.MaxItems <= 0 {
		errors = append(errors, "clustering.max_items must be positive")
	}
	if t := config.Clustering.SimilarityThreshold; t <= 0 || t > 1 {
		errors = append(errors, fmt.Sprintf("clustering.similarity_threshold must be in (0, 1], got %v", t))
	}
	if config.Clustering.MinTokens < 1 {
		errors = append(errors, "clustering.min_tokens must be at least 1")
	}
	if config.Scoring.PlatformMultiplier <= 0 {
		errors = append(errors, "scoring.platform_multiplier must be positive")
	}
	if config.Assembly.MaxArticleChars <= 0 {
		errors = append(errors, "assembly.max_article_chars must be positive")
	}
	if config.Summarize.Concurrency < 1 {
		errors = append(errors, "summarize.concurrency must be at least 1")
	}
	if config.Summarize.MaxAttempts < 1 {
		errors = append(errors, "summarize.max_attempts must be at least 1")
	}
	if config.Digest.TopK < 1 {
		errors = append(errors, "digest.top_k must be at least 1")
	}
	if _, err := time.LoadLocation(config.Digest.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("Unknown timezone: %s", config.Digest.Timezone))
	}
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		errors = append(errors, fmt.Sprintf("Invalid server port: %d", config.Server.Port))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Duration parses a validated duration value, falling back when empty.
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// Convenience getters for commonly used configuration values
func GetApp() App           { return Get().App }
func GetSources() Sources   { return Get().Sources }
func GetAssembly() Assembly { return Get().Assembly }
func GetDigest() Digest     { return Get().Digest }
func GetCache() Cache       { return Get().Cache }
func GetServer() Server     { return Get().Server }

// Specific convenience getters for frequently accessed values
func GetGeminiAPIKey() string { return Get().AI.Gemini.APIKey }
func GetGeminiModel() string  { return Get().AI.Gemini.Model }
func GetDataDir() string      { return Get().App.DataDir }
func IsDebugMode() bool       { return Get().App.Debug }

// HasGeminiKey reports whether summarization can run.
func HasGeminiKey() bool {
	return isValidAPIKey(GetGeminiAPIKey())
}

// isValidAPIKey checks if an API key is valid (not empty and not a placeholder)
func isValidAPIKey(apiKey string) bool {
	if apiKey == "" {
		return false
	}

	placeholders := []string{
		"your-api-key", "your-gemini-key", "YOUR_API_KEY", "PLACEHOLDER", "TODO", "CHANGE_ME",
	}

	for _, placeholder := range placeholders {
		if apiKey == placeholder {
			return false
		}
	}

	return true
}

// Reset clears the global configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viper.Reset()
}
