// Package providers holds the completion and speech backends used by the analysis orchestrator.
package providers

import (
	"context"
	"errors"
	"time"

	"admissions-workers/internal/models"
)

var (
	ErrProviderUnavailable      = errors.New("PROVIDER_UNAVAILABLE")
	ErrLLMTimeout               = errors.New("LLM_TIMEOUT")
	ErrLLMSynthesisFailed       = errors.New("LLM_SYNTHESIS_FAILED")
	ErrModelOutputInvalid       = errors.New("MODEL_OUTPUT_INVALID")
	ErrTranscriptionUnsupported = errors.New("TRANSCRIPTION_UNSUPPORTED")
	ErrTranscriptionFailed      = errors.New("TRANSCRIPTION_FAILED")
	ErrAudioTooLong             = errors.New("AUDIO_TOO_LONG")
)

const (
	// MaxAudioDuration is the longest voice note accepted for transcription.
	MaxAudioDuration = time.Minute

	// TranscriptionConfidence is reported for Whisper output, which carries no score.
	TranscriptionConfidence = 0.95

	analysisTemperature   = 0.7
	aggregatorMaxTokens   = 1500
	localMessageMaxTokens = 500
)

// Capabilities advertises what a provider can do.
type Capabilities struct {
	Analyze    bool
	Transcribe bool
}

// Audio is a recorded voice note.
type Audio struct {
	Data       []byte
	MimeType   string
	Filename   string
	DurationMs int64
}

// Provider is one analysis/transcription backend.
type Provider interface {
	Name() string
	Capabilities() Capabilities
	// IsAvailable reports whether the provider can be called right now. It never fails.
	IsAvailable(ctx context.Context) bool
	Analyze(ctx context.Context, quiz models.QuizResponse, kb *models.KnowledgeContext) (*models.AnalysisResult, error)
	Transcribe(ctx context.Context, audio Audio) (*models.TranscriptionResult, error)
}

// CapabilityError carries the user-facing guidance for an unsupported or
// unconfigured transcription path. It matches ErrTranscriptionUnsupported.
type CapabilityError struct {
	Provider string
	Message  string
}

func (e *CapabilityError) Error() string { return e.Message }

func (e *CapabilityError) Unwrap() error { return ErrTranscriptionUnsupported }

// UserMessage returns the guidance text of a CapabilityError, or err.Error().
func UserMessage(err error) string {
	var capErr *CapabilityError
	if errors.As(err, &capErr) {
		return capErr.Message
	}
	return err.Error()
}

func checkAudio(audio Audio) error {
	if audio.DurationMs > MaxAudioDuration.Milliseconds() {
		return ErrAudioTooLong
	}
	return nil
}
