// internal/analysis/transcribe.go
package analysis

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "admissions-workers/internal/common/errors"
	"admissions-workers/internal/common/metrics"
	"admissions-workers/internal/models"
	"admissions-workers/internal/providers"
)

// BrowserCaptureMessage is returned when the browser speech API is the selected voice provider.
const BrowserCaptureMessage = "Browser speech recognition must be used during recording, not after"

// Transcribe converts a voice note to text with the provider named by settings.AIProvider.
// There is no fallback provider; every failure is a *errors.StandardError.
func (o *Orchestrator) Transcribe(ctx context.Context, audio providers.Audio, settings models.Settings) (*models.TranscriptionResult, error) {
	settings = o.Settings(settings)

	if !settings.VoiceEnabled {
		metrics.TranscriptionRequests.WithLabelValues("none", metrics.OutcomeUnsupported).Inc()
		return nil, apperrors.NewVoiceInputDisabledError()
	}
	if settings.VoiceProvider == models.ProviderBrowser {
		metrics.TranscriptionRequests.WithLabelValues(models.ProviderBrowser, metrics.OutcomeUnsupported).Inc()
		return nil, apperrors.NewTranscriptionUnsupportedError(BrowserCaptureMessage)
	}

	name := settings.AIProvider
	if name == "" {
		name = models.ProviderLMStudio
	}

	ctx, span := o.tracer.Start(ctx, "analysis.transcribe", trace.WithAttributes(
		attribute.String("provider", name),
		attribute.Int64("audio.duration_ms", audio.DurationMs),
	))
	defer span.End()

	d, ok := findDescriptor(o.descriptors, name)
	if !ok {
		metrics.TranscriptionRequests.WithLabelValues(name, metrics.OutcomeUnsupported).Inc()
		return nil, apperrors.NewTranscriptionUnsupportedError(
			fmt.Sprintf("%s does not support audio transcription. Please use OpenAI or Groq.", name))
	}

	result, err := d.Factory(settings).Transcribe(ctx, audio)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transcription failed")
		return nil, o.transcriptionError(name, audio, err)
	}

	metrics.TranscriptionRequests.WithLabelValues(name, metrics.OutcomeSuccess).Inc()
	o.logger.Info("voice note transcribed", map[string]interface{}{
		"provider":   name,
		"durationMs": audio.DurationMs,
		"chars":      len(result.Text),
	})
	return result, nil
}

func (o *Orchestrator) transcriptionError(name string, audio providers.Audio, err error) error {
	log := o.logger.WithFields(map[string]interface{}{"provider": name, "error": err.Error()})

	switch {
	case errors.Is(err, providers.ErrTranscriptionUnsupported):
		metrics.TranscriptionRequests.WithLabelValues(name, metrics.OutcomeUnsupported).Inc()
		log.Info("transcription unsupported", nil)
		return apperrors.NewTranscriptionUnsupportedError(providers.UserMessage(err))
	case errors.Is(err, providers.ErrAudioTooLong):
		metrics.TranscriptionRequests.WithLabelValues(name, metrics.OutcomeInvalid).Inc()
		return apperrors.NewAudioTooLongError(audio.DurationMs)
	case errors.Is(err, providers.ErrLLMTimeout):
		metrics.TranscriptionRequests.WithLabelValues(name, metrics.OutcomeError).Inc()
		log.Warn("transcription timed out", nil)
		return apperrors.NewLLMTimeoutError(name)
	default:
		metrics.TranscriptionRequests.WithLabelValues(name, metrics.OutcomeError).Inc()
		log.Warn("transcription failed", nil)
		return apperrors.NewTranscriptionFailedError(name, err)
	}
}
