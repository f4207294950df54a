package summary

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/toasahi/ramen-agent/internal/config"
	"github.com/toasahi/ramen-agent/internal/places"
	"google.golang.org/api/option"
)

const summaryPrompt = `あなたは、Google Mapの美味しいラーメン店の情報からユーザーにラーメン店を紹介する専門家です。
以下のラーメン店の情報を、評価の高い順に、必ず次の出力形式に従って要約してください。

### 出力形式
------------------------
店名:
おすすめラーメン: ラーメンの名前を記載してください(例: 醤油ラーメン、味噌ラーメン)
住所:
営業時間:
Google評価:
------------------------
2店舗目以降がある場合は、同様の形式で要約してください。
ラーメン店以外の情報は提供しないでください。

### ラーメン店の情報
%s`

// GeminiSummarizer rewrites the digest through a Gemini model
type GeminiSummarizer struct {
	apiKey string
	model  string
}

// NewGeminiSummarizer creates a summarizer from configuration
func NewGeminiSummarizer(cfg config.GeminiConfig) *GeminiSummarizer {
	return &GeminiSummarizer{
		apiKey: cfg.APIKey,
		model:  cfg.Model,
	}
}

// IsConfigured checks if the summarizer has valid credentials
func (s *GeminiSummarizer) IsConfigured() bool {
	return s.apiKey != ""
}

// DefaultModel returns the model used when none is configured
func (s *GeminiSummarizer) DefaultModel() string {
	if s.model != "" {
		return s.model
	}
	return "gemini-2.5-flash"
}

// Summarize asks the model for a formatted recommendation of the given
// shops, already ordered by descending rating in the prompt. An empty
// candidate list short-circuits to the no-results digest without a model
// call.
func (s *GeminiSummarizer) Summarize(ctx context.Context, shops []places.Place) (string, error) {
	if !s.IsConfigured() {
		return "", fmt.Errorf("gemini summarizer is not configured (missing API key)")
	}
	if len(shops) == 0 {
		return Digest(shops), nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(s.apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(s.DefaultModel())
	var temperature float32 = 0.0
	model.Temperature = &temperature

	prompt := fmt.Sprintf(summaryPrompt, Digest(shops))

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}

	var output string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			output += string(text)
		}
	}
	return output, nil
}
