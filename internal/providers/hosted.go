// internal/providers/hosted.go
package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"os"
	"time"

	"admissions-workers/internal/common/config"
	commonhttp "admissions-workers/internal/common/http"
	"admissions-workers/internal/common/logger"
	"admissions-workers/internal/models"
	"admissions-workers/internal/prompt"
)

// Hosted is an OpenAI-compatible completion and Whisper transcription API.
type Hosted struct {
	name        string
	displayName string
	apiKey      string
	baseURL     string
	model       string
	speechModel string
	client      *commonhttp.Client
	logger      logger.Logger
}

// NewOpenAI builds the OpenAI provider. The key comes from settings, then the environment.
func NewOpenAI(cfg config.HostedConfig, settings models.Settings, log logger.Logger) *Hosted {
	key := firstNonEmpty(settings.OpenAIKey, cfg.APIKey, os.Getenv("OPENAI_API_KEY"))
	return newHosted(models.ProviderOpenAI, "OpenAI", key, cfg, log)
}

// NewGroq builds the Groq provider. The key comes from settings, then the environment.
func NewGroq(cfg config.HostedConfig, settings models.Settings, log logger.Logger) *Hosted {
	key := firstNonEmpty(settings.GroqKey, cfg.APIKey, os.Getenv("GROQ_API_KEY"))
	return newHosted(models.ProviderGroq, "Groq", key, cfg, log)
}

func newHosted(name, displayName, key string, cfg config.HostedConfig, log logger.Logger) *Hosted {
	return &Hosted{
		name:        name,
		displayName: displayName,
		apiKey:      key,
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		speechModel: cfg.TranscriptionModel,
		client:      commonhttp.NewClient(config.GetDuration(cfg.Timeout)),
		logger: log.With(map[string]interface{}{
			"provider": name,
		}),
	}
}

func (p *Hosted) Name() string { return p.name }

func (p *Hosted) Capabilities() Capabilities {
	return Capabilities{Analyze: true, Transcribe: true}
}

// IsAvailable only checks that a credential is present.
func (p *Hosted) IsAvailable(ctx context.Context) bool {
	return p.apiKey != ""
}

func (p *Hosted) Analyze(ctx context.Context, quiz models.QuizResponse, kb *models.KnowledgeContext) (*models.AnalysisResult, error) {
	if p.apiKey == "" {
		return nil, ErrProviderUnavailable
	}
	start := time.Now()

	req := newChatRequest(p.model, prompt.AggregatorSystemPrompt, prompt.BuildAggregator(quiz, kb), aggregatorMaxTokens)
	resp, err := completeChat(ctx, p.client, p.baseURL, bearer(p.apiKey), req)
	if err != nil {
		return nil, err
	}

	content := resp.Content()
	if content == "" {
		return nil, fmt.Errorf("%w: empty completion", ErrModelOutputInvalid)
	}

	result, err := ParseModelReply(content, prompt.ListedStories(kb), prompt.ListedFaculty(kb))
	if err != nil {
		return nil, err
	}
	result.Provider = p.name
	result.ProcessingTime = time.Since(start).Milliseconds()
	return result, nil
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe posts the voice note to {base}/audio/transcriptions.
func (p *Hosted) Transcribe(ctx context.Context, audio Audio) (*models.TranscriptionResult, error) {
	if p.apiKey == "" {
		return nil, &CapabilityError{
			Provider: p.name,
			Message:  fmt.Sprintf("%s not configured. Please add your API key in the admin panel.", p.displayName),
		}
	}
	if err := checkAudio(audio); err != nil {
		return nil, err
	}
	start := time.Now()

	body, contentType, err := p.transcriptionForm(audio)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}

	var resp transcriptionResponse
	if err := p.client.PostBody(ctx, joinURL(p.baseURL, "audio/transcriptions"), contentType, bearer(p.apiKey), body, &resp); err != nil {
		p.logger.Error("transcription failed", map[string]interface{}{"error": err.Error()})
		if errors.Is(classifyCallError(ctx, err), ErrLLMTimeout) {
			return nil, fmt.Errorf("%w: %v", ErrLLMTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}

	return &models.TranscriptionResult{
		Text:       resp.Text,
		Confidence: TranscriptionConfidence,
		Provider:   p.name,
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

func (p *Hosted) transcriptionForm(audio Audio) (*bytes.Buffer, string, error) {
	filename := audio.Filename
	if filename == "" {
		filename = "audio.webm"
	}
	mimeType := audio.MimeType
	if mimeType == "" {
		mimeType = "audio/webm"
	}

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", mimeType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(audio.Data); err != nil {
		return nil, "", err
	}

	fields := map[string]string{
		"model":           p.speechModel,
		"language":        "en",
		"response_format": "json",
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
