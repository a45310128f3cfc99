// internal/providers/lmstudio.go
package providers

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"admissions-workers/internal/common/config"
	commonhttp "admissions-workers/internal/common/http"
	"admissions-workers/internal/common/logger"
	"admissions-workers/internal/matching"
	"admissions-workers/internal/models"
	"admissions-workers/internal/prompt"
)

const (
	lmstudioUnsupportedMessage = "LMStudio does not support audio transcription. Please use OpenAI or Groq."
	lmstudioEmptyMessage       = "Unable to generate personalized message"
)

// relayEnvelope is the {success,data} wrapper returned by the local-inference relay.
type relayEnvelope struct {
	Success bool          `json:"success"`
	Data    *chatResponse `json:"data"`
	Error   string        `json:"error"`
	Details string        `json:"details"`
}

// LMStudio talks to a same-machine completion server, directly or through the relay.
type LMStudio struct {
	baseURL      string
	relayURL     string
	model        string
	probeTimeout time.Duration
	probe        *commonhttp.Client
	client       *commonhttp.Client
	logger       logger.Logger
}

// NewLMStudio builds the local provider. settings.LMStudioURL overrides the configured base URL.
func NewLMStudio(cfg config.LMStudioConfig, settings models.Settings, log logger.Logger) *LMStudio {
	baseURL := cfg.BaseURL
	if settings.LMStudioURL != "" {
		baseURL = settings.LMStudioURL
	}
	probeTimeout := config.GetDuration(cfg.ProbeTimeout)

	return &LMStudio{
		baseURL:      baseURL,
		relayURL:     cfg.RelayURL,
		model:        cfg.Model,
		probeTimeout: probeTimeout,
		probe:        commonhttp.NewClient(probeTimeout),
		client:       commonhttp.NewClient(config.GetDuration(cfg.CompletionTimeout)),
		logger: log.With(map[string]interface{}{
			"provider": models.ProviderLMStudio,
		}),
	}
}

func (p *LMStudio) Name() string { return models.ProviderLMStudio }

func (p *LMStudio) Capabilities() Capabilities {
	return Capabilities{Analyze: true}
}

func (p *LMStudio) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.probeTimeout)
	defer cancel()

	if p.relayURL != "" {
		var env relayEnvelope
		if err := p.probe.GetJSON(ctx, p.relayEndpoint("models"), nil, &env); err != nil {
			p.logger.Debug("relay probe failed", map[string]interface{}{"error": err.Error()})
			return false
		}
		return env.Success
	}

	if err := p.probe.GetJSON(ctx, joinURL(p.baseURL, "models"), nil, nil); err != nil {
		p.logger.Debug("probe failed", map[string]interface{}{"error": err.Error()})
		return false
	}
	return true
}

// Analyze ranks locally and asks the model only for the personalized message.
func (p *LMStudio) Analyze(ctx context.Context, quiz models.QuizResponse, kb *models.KnowledgeContext) (*models.AnalysisResult, error) {
	start := time.Now()
	ranking := matching.Rank(quiz, kb)

	req := newChatRequest(p.model, prompt.SystemPrompt,
		prompt.Build(quiz, ranking.Stories, ranking.Faculty, ranking.Facts), localMessageMaxTokens)

	resp, err := p.complete(ctx, req)
	if err != nil {
		return nil, err
	}

	message := resp.Content()
	if message == "" {
		message = lmstudioEmptyMessage
	}

	stories, faculty := matching.ApplyCardCap(ranking.Stories, ranking.Faculty)
	return &models.AnalysisResult{
		MatchScore:          ranking.MatchScore,
		PersonalizedMessage: message,
		MatchedStories:      stories,
		MatchedFaculty:      faculty,
		KeyInsights:         ranking.KeyInsights,
		Provider:            models.ProviderLMStudio,
		ProcessingTime:      time.Since(start).Milliseconds(),
	}, nil
}

func (p *LMStudio) complete(ctx context.Context, req chatRequest) (*chatResponse, error) {
	if p.relayURL == "" {
		return completeChat(ctx, p.client, p.baseURL, nil, req)
	}

	var env relayEnvelope
	if err := p.client.PostJSON(ctx, p.relayEndpoint("chat/completions"), nil, req, &env); err != nil {
		return nil, classifyCallError(ctx, err)
	}
	if !env.Success {
		return nil, fmt.Errorf("%w: relay: %s", ErrLLMSynthesisFailed, env.Error)
	}
	return env.Data, nil
}

func (p *LMStudio) relayEndpoint(endpoint string) string {
	q := url.Values{}
	q.Set("endpoint", endpoint)
	q.Set("baseUrl", p.baseURL)
	return p.relayURL + "?" + q.Encode()
}

func (p *LMStudio) Transcribe(ctx context.Context, audio Audio) (*models.TranscriptionResult, error) {
	return nil, &CapabilityError{Provider: models.ProviderLMStudio, Message: lmstudioUnsupportedMessage}
}
