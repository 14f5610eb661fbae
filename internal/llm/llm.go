package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	// DefaultModel is the Gemini model used for summaries and translations.
	DefaultModel = "gemini-1.5-flash"
)

var ErrEmptyResponse = errors.New("empty response from gemini")

// Client wraps a Gemini client for summarization and translation.
type Client struct {
	gClient   *genai.Client
	modelName string
}

// NewClient creates a Gemini client. An empty model name selects DefaultModel.
func NewClient(ctx context.Context, apiKey, modelName string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required. Set GEMINI_API_KEY environment variable or ai.gemini.api_key in config file")
	}
	if modelName == "" {
		modelName = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Client{gClient: client, modelName: modelName}, nil
}

// Close releases the underlying client.
func (c *Client) Close() {
	if c.gClient != nil {
		c.gClient.Close()
	}
}

// ModelName returns the configured model.
func (c *Client) ModelName() string {
	return c.modelName
}

func (c *Client) generateContent(ctx context.Context, prompt string, jsonOutput bool) (string, error) {
	model := c.gClient.GenerativeModel(c.modelName)
	model.SetTemperature(0.3)
	if jsonOutput {
		model.ResponseMIMEType = "application/json"
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}
