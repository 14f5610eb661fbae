package pipeline

import (
	"trendbrief/internal/assembler"
)

// Builder helps construct a fully configured Pipeline
type Builder struct {
	config     *Config
	fetcher    assembler.ArticleFetcher
	summarizer Summarizer
	translator Translator
	cache      TranslationCache
}

// NewBuilder creates a new pipeline builder with default settings
func NewBuilder() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig sets the pipeline configuration
func (b *Builder) WithConfig(config *Config) *Builder {
	b.config = config
	return b
}

// WithFetcher enables the article branch of context assembly
func (b *Builder) WithFetcher(f assembler.ArticleFetcher) *Builder {
	b.fetcher = f
	return b
}

// WithSummarizer sets the summarization collaborator
func (b *Builder) WithSummarizer(s Summarizer) *Builder {
	b.summarizer = s
	return b
}

// WithTranslator sets the headline translator
func (b *Builder) WithTranslator(t Translator) *Builder {
	b.translator = t
	return b
}

// WithCache sets the translation cache
func (b *Builder) WithCache(c TranslationCache) *Builder {
	b.cache = c
	return b
}

// WithoutSummaries disables summarization; entries are flagged instead
func (b *Builder) WithoutSummaries() *Builder {
	b.summarizer = nil
	return b
}

// Build constructs a Pipeline. Every collaborator is optional.
func (b *Builder) Build() *Pipeline {
	return NewPipeline(b.config, b.fetcher, b.summarizer, b.translator, b.cache)
}
