// internal/providers/openrouter.go
package providers

import (
	"context"
	"fmt"
	"os"
	"time"

	"admissions-workers/internal/common/config"
	commonhttp "admissions-workers/internal/common/http"
	"admissions-workers/internal/common/logger"
	"admissions-workers/internal/models"
	"admissions-workers/internal/prompt"
)

const openRouterUnsupportedMessage = "Audio transcription not supported with OpenRouter. " +
	"Please use the browser's built-in speech recognition or switch to text input."

// OpenRouter routes the analysis prompt to an upstream model by name.
type OpenRouter struct {
	apiKey  string
	baseURL string
	model   string
	title   string
	siteURL string
	client  *commonhttp.Client
	logger  logger.Logger
}

// NewOpenRouter builds the aggregator provider. The key comes from settings, then the environment.
func NewOpenRouter(cfg config.OpenRouterConfig, siteURL string, settings models.Settings, log logger.Logger) *OpenRouter {
	return &OpenRouter{
		apiKey:  firstNonEmpty(settings.OpenRouterKey, cfg.APIKey, os.Getenv("OPENROUTER_API_KEY")),
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		title:   cfg.Title,
		siteURL: siteURL,
		client:  commonhttp.NewClient(config.GetDuration(cfg.Timeout)),
		logger: log.With(map[string]interface{}{
			"provider": models.ProviderOpenRouter,
		}),
	}
}

func (p *OpenRouter) Name() string { return models.ProviderOpenRouter }

func (p *OpenRouter) Capabilities() Capabilities {
	return Capabilities{Analyze: true}
}

// IsAvailable requires a key and a successful model listing.
func (p *OpenRouter) IsAvailable(ctx context.Context) bool {
	if p.apiKey == "" {
		p.logger.Debug("api key not configured", nil)
		return false
	}
	if err := p.client.GetJSON(ctx, joinURL(p.baseURL, "models"), bearer(p.apiKey), nil); err != nil {
		p.logger.Warn("availability check failed", map[string]interface{}{"error": err.Error()})
		return false
	}
	return true
}

func (p *OpenRouter) headers() map[string]string {
	h := bearer(p.apiKey)
	h["HTTP-Referer"] = p.siteURL
	h["X-Title"] = p.title
	return h
}

func (p *OpenRouter) Analyze(ctx context.Context, quiz models.QuizResponse, kb *models.KnowledgeContext) (*models.AnalysisResult, error) {
	if p.apiKey == "" {
		return nil, ErrProviderUnavailable
	}
	start := time.Now()

	req := newChatRequest(p.model, prompt.AggregatorSystemPrompt, prompt.BuildAggregator(quiz, kb), aggregatorMaxTokens)
	resp, err := completeChat(ctx, p.client, p.baseURL, p.headers(), req)
	if err != nil {
		return nil, err
	}

	content := resp.Content()
	if content == "" {
		return nil, fmt.Errorf("%w: no content returned", ErrModelOutputInvalid)
	}

	result, err := ParseModelReply(content, prompt.ListedStories(kb), prompt.ListedFaculty(kb))
	if err != nil {
		return nil, err
	}
	result.Provider = models.ProviderOpenRouter
	result.ProcessingTime = time.Since(start).Milliseconds()
	return result, nil
}

func (p *OpenRouter) Transcribe(ctx context.Context, audio Audio) (*models.TranscriptionResult, error) {
	return nil, &CapabilityError{Provider: models.ProviderOpenRouter, Message: openRouterUnsupportedMessage}
}
