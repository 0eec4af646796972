package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"

	"github.com/fitmind/assistant/internal/selector"
)

const (
	// DefaultFastModel is the default cheap/low-latency tier model
	DefaultFastModel = "gpt-4o-mini"
	// DefaultSmartModel is the default high-capability tier model
	DefaultSmartModel = "gpt-4o"
	// DefaultEmbedModel is the default embedding model
	DefaultEmbedModel = "text-embedding-3-small"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"
)

// OpenAIProvider implements Completer and Embedder using OpenAI's API
type OpenAIProvider struct {
	client     openai.Client
	fastModel  string
	smartModel string
	embedModel string
	logger     *zap.Logger
	debugMode  bool
}

// Options configures an OpenAIProvider.
type Options struct {
	APIKey     string
	BaseURL    string
	FastModel  string
	SmartModel string
	EmbedModel string
	Timeout    time.Duration
	Logger     *zap.Logger
	DebugMode  bool
}

// NewOpenAIProvider creates a provider with tiered chat models and an
// embedding model.
func NewOpenAIProvider(opts Options) *OpenAIProvider {
	if opts.FastModel == "" {
		opts.FastModel = DefaultFastModel
	}
	if opts.SmartModel == "" {
		opts.SmartModel = DefaultSmartModel
	}
	if opts.EmbedModel == "" {
		opts.EmbedModel = DefaultEmbedModel
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultOpenAIBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	httpClient := &http.Client{
		Timeout: opts.Timeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(opts.APIKey),
		option.WithBaseURL(opts.BaseURL),
		option.WithHTTPClient(httpClient),
	)

	return &OpenAIProvider{
		client:     client,
		fastModel:  opts.FastModel,
		smartModel: opts.SmartModel,
		embedModel: opts.EmbedModel,
		logger:     opts.Logger,
		debugMode:  opts.DebugMode,
	}
}

// ModelForTier maps a tier to its concrete model name.
func (p *OpenAIProvider) ModelForTier(tier selector.Tier) string {
	if tier == selector.TierSmart {
		return p.smartModel
	}
	return p.fastModel
}

// Complete sends a chat completion request on the requested tier.
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	model := p.ModelForTier(req.Tier)

	openAIMessages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case "system":
			openAIMessages = append(openAIMessages, openai.SystemMessage(msg.Content))
		case "assistant":
			openAIMessages = append(openAIMessages, openai.AssistantMessage(msg.Content))
		default:
			openAIMessages = append(openAIMessages, openai.UserMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: openAIMessages,
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	if p.logger != nil && p.debugMode {
		previews := make([]string, 0, len(req.Messages))
		for _, msg := range req.Messages {
			previews = append(previews, SanitizePrompt(msg.Content, false))
		}
		p.logger.Debug("llm_api_request",
			zap.String("operation", "complete"),
			zap.String("model", model),
			zap.String("tier", string(req.Tier)),
			zap.Int("message_count", len(openAIMessages)),
			zap.Strings("message_previews", previews),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, params)
	latency := time.Since(start)

	if err != nil {
		if p.logger != nil && p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", "complete"),
				zap.String("model", model),
				zap.Error(err),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return "", fmt.Errorf("failed to complete: %w", apiErr)
		}
		return "", fmt.Errorf("failed to complete: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New(ErrNoChoicesInResponse)
	}

	content := resp.Choices[0].Message.Content

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", "complete"),
			zap.String("model", model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	return content, nil
}

// Embed returns the embedding vector for text.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(p.embedModel),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
	})
	latency := time.Since(start)

	if err != nil {
		if p.logger != nil && p.debugMode {
			p.logger.Debug("embedding_api_error",
				zap.String("model", p.embedModel),
				zap.Error(err),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return nil, fmt.Errorf("failed to embed: %w", apiErr)
		}
		return nil, fmt.Errorf("failed to embed: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding in response")
	}

	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}
