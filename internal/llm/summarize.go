package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"trendbrief/internal/core"
)

// SummaryRequest carries one cluster's assembled context to the model.
type SummaryRequest struct {
	Title       string
	Context     core.AssembledContext
	Platforms   []core.Source
	TargetLangs []string // e.g. "en", "zh"
}

// Summarize asks the model for a bilingual summary. A response that is not the
// expected JSON object is kept as the English-only summary.
func (c *Client) Summarize(ctx context.Context, req SummaryRequest) (core.BilingualText, error) {
	raw, err := c.generateContent(ctx, BuildSummaryPrompt(req), true)
	if err != nil {
		return core.BilingualText{}, err
	}
	return ParseSummary(raw), nil
}

// Translate renders text in targetLang and returns only the translation.
func (c *Client) Translate(ctx context.Context, text, targetLang string) (string, error) {
	prompt := fmt.Sprintf(`Translate the following news headline into %s.
Keep names of people, brands and organizations accurate. Reply with the translation only, no quotes or commentary.

%s`, languageName(targetLang), text)

	out, err := c.generateContent(ctx, prompt, false)
	if err != nil {
		return "", err
	}
	return strings.Trim(strings.TrimSpace(out), `"“”`), nil
}

// BuildSummaryPrompt renders the prompt for req. The instructions depend on
// how much context is available so that thin inputs are not embellished.
func BuildSummaryPrompt(req SummaryRequest) string {
	langs := req.TargetLangs
	if len(langs) == 0 {
		langs = []string{"en", "zh"}
	}
	names := make([]string, len(langs))
	for i, l := range langs {
		names[i] = fmt.Sprintf("%q (%s)", l, languageName(l))
	}

	platforms := make([]string, len(req.Platforms))
	for i, p := range req.Platforms {
		platforms[i] = p.DisplayName()
	}

	var b strings.Builder
	b.WriteString("You are summarizing a story that is trending on Chinese platforms")
	if len(platforms) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(platforms, ", "))
	}
	b.WriteString(".\n\n")
	fmt.Fprintf(&b, "HEADLINE: %s\n\n", req.Title)

	switch req.Context.Kind {
	case core.ContextArticle:
		b.WriteString("ARTICLE TEXT:\n")
		b.WriteString(req.Context.Text)
		b.WriteString("\n\nWrite a 2-3 sentence factual summary of the article.")
	case core.ContextDescriptions:
		b.WriteString("SHORT DESCRIPTIONS FROM THE PLATFORMS:\n")
		for _, d := range req.Context.Texts {
			fmt.Fprintf(&b, "- %s\n", d)
		}
		b.WriteString("\nWrite a 1-2 sentence summary using only these descriptions.")
	default:
		b.WriteString("ONLY HEADLINES ARE AVAILABLE:\n")
		for _, t := range req.Context.Titles {
			fmt.Fprintf(&b, "- %s\n", t)
		}
		b.WriteString("\nWrite one sentence describing what the headlines report. Do not invent details that are not in the headlines.")
	}

	fmt.Fprintf(&b, "\n\nRespond with a JSON object with the keys %s and no other text.", strings.Join(names, ", "))
	return b.String()
}

// ParseSummary extracts {"en","zh"} from a model response, tolerating code
// fences. Unparseable responses become an English-only summary.
func ParseSummary(raw string) core.BilingualText {
	cleaned := stripCodeFence(raw)

	var parsed struct {
		EN string `json:"en"`
		ZH string `json:"zh"`
	}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err == nil && (parsed.EN != "" || parsed.ZH != "") {
		return core.BilingualText{EN: strings.TrimSpace(parsed.EN), ZH: strings.TrimSpace(parsed.ZH)}
	}
	return core.BilingualText{EN: strings.TrimSpace(raw)}
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func languageName(code string) string {
	switch strings.ToLower(code) {
	case "en":
		return "English"
	case "zh", "zh-cn":
		return "Simplified Chinese"
	default:
		return code
	}
}
