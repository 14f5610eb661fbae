package pipeline

import (
	"context"
	"time"

	"trendbrief/internal/core"
	"trendbrief/internal/llm"
)

// Summarizer produces a bilingual summary from a cluster's assembled context
type Summarizer interface {
	Summarize(ctx context.Context, req llm.SummaryRequest) (core.BilingualText, error)
}

// Translator renders a headline in another language
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// TranslationCache is an advisory store of headline translations keyed by
// normalized title and target language. Lookups that fail for any reason are
// treated as misses.
type TranslationCache interface {
	GetTranslation(ctx context.Context, normalizedTitle, lang string, maxAge time.Duration) (string, error)
	PutTranslation(ctx context.Context, normalizedTitle, lang, translation, modelUsed string) error
}
