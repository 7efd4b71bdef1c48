package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ollama/ollama/api"
	"github.com/sanapath/sanapath/internal/config"
	"github.com/sanapath/sanapath/pkg/logger"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// Provider names, also used as metric and usage-log labels.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderTemplates = "templates"
)

// llmProvider holds what every chat-completion backend needs.
type llmProvider struct {
	name        string
	cfg         config.ProviderConfig
	temperature float64
	maxTokens   int
}

func newLLMProvider(name string, p config.ProviderConfig, ai *config.AIConfig) llmProvider {
	return llmProvider{name: name, cfg: p, temperature: ai.Temperature, maxTokens: ai.MaxTokens}
}

func (p *llmProvider) Name() string  { return p.name }
func (p *llmProvider) Model() string { return p.cfg.Model }

func (p *llmProvider) finish(content string, survey *Survey) (*RecommendationSet, error) {
	logger.Debug().Str("provider", p.name).Int("chars", len(content)).Msg("[AI] response received")
	return ParseRecommendationSet(content, survey)
}

// GeminiProvider calls Google Gemini with a JSON response MIME type.
type GeminiProvider struct{ llmProvider }

func NewGeminiProvider(p config.ProviderConfig, ai *config.AIConfig) *GeminiProvider {
	if p.Model == "" {
		p.Model = "gemini-2.0-flash"
	}
	return &GeminiProvider{newLLMProvider(ProviderGemini, p, ai)}
}

func (p *GeminiProvider) Available() bool { return p.cfg.APIKey != "" }

func (p *GeminiProvider) Recommend(ctx context.Context, survey *Survey) (*RecommendationSet, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client error: %w", err)
	}

	temperature := float32(p.temperature)
	resp, err := client.Models.GenerateContent(ctx, p.cfg.Model, genai.Text(BuildRecommendationPrompt(survey)), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(recommendationSystemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini API error: %w", err)
	}
	return p.finish(resp.Text(), survey)
}

// AnthropicProvider calls the Anthropic Messages API.
type AnthropicProvider struct{ llmProvider }

func NewAnthropicProvider(p config.ProviderConfig, ai *config.AIConfig) *AnthropicProvider {
	if p.Model == "" {
		p.Model = "claude-sonnet-4-20250514"
	}
	return &AnthropicProvider{newLLMProvider(ProviderAnthropic, p, ai)}
}

func (p *AnthropicProvider) Available() bool { return p.cfg.APIKey != "" }

func (p *AnthropicProvider) Recommend(ctx context.Context, survey *Survey) (*RecommendationSet, error) {
	opts := []option.RequestOption{option.WithAPIKey(p.cfg.APIKey)}
	if p.cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(p.cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	maxTokens := int64(p.maxTokens)
	if maxTokens == 0 {
		maxTokens = 4000
	}

	resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.cfg.Model),
		MaxTokens: maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: recommendationSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(BuildRecommendationPrompt(survey))),
		},
		Temperature: anthropic.Float(p.temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API error: %w", err)
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}
	return p.finish(content.String(), survey)
}

// OpenAIProvider calls OpenAI or any OpenAI-compatible endpoint in JSON mode.
type OpenAIProvider struct{ llmProvider }

func NewOpenAIProvider(p config.ProviderConfig, ai *config.AIConfig) *OpenAIProvider {
	if p.Model == "" {
		p.Model = "gpt-4o"
	}
	return &OpenAIProvider{newLLMProvider(ProviderOpenAI, p, ai)}
}

func (p *OpenAIProvider) Available() bool { return p.cfg.APIKey != "" }

func (p *OpenAIProvider) Recommend(ctx context.Context, survey *Survey) (*RecommendationSet, error) {
	clientConfig := openai.DefaultConfig(p.cfg.APIKey)
	if p.cfg.BaseURL != "" {
		clientConfig.BaseURL = p.cfg.BaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: recommendationSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildRecommendationPrompt(survey)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: float32(p.temperature),
		MaxTokens:   p.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices from openai", ErrInvalidProviderResponse)
	}
	return p.finish(resp.Choices[0].Message.Content, survey)
}

// OllamaProvider calls a self-hosted Ollama server. It is configured by base
// URL rather than an API key.
type OllamaProvider struct{ llmProvider }

func NewOllamaProvider(p config.ProviderConfig, ai *config.AIConfig) *OllamaProvider {
	if p.Model == "" {
		p.Model = "llama3"
	}
	return &OllamaProvider{newLLMProvider(ProviderOllama, p, ai)}
}

func (p *OllamaProvider) Available() bool { return p.cfg.BaseURL != "" }

func (p *OllamaProvider) Recommend(ctx context.Context, survey *Survey) (*RecommendationSet, error) {
	u, err := url.Parse(p.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama base URL: %w", err)
	}
	client := api.NewClient(u, http.DefaultClient)

	stream := false
	var content strings.Builder
	err = client.Chat(ctx, &api.ChatRequest{
		Model: p.cfg.Model,
		Messages: []api.Message{
			{Role: "system", Content: recommendationSystemPrompt},
			{Role: "user", Content: BuildRecommendationPrompt(survey)},
		},
		Format: json.RawMessage(`"json"`),
		Stream: &stream,
		Options: map[string]interface{}{
			"temperature": p.temperature,
		},
	}, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama API error: %w", err)
	}
	return p.finish(content.String(), survey)
}
