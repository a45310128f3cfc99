package transcribevoicenote

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "admissions-workers/internal/common/errors"
	"admissions-workers/internal/common/logger"
	"admissions-workers/internal/common/metrics"
	"admissions-workers/internal/models"
	"admissions-workers/internal/providers"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "transcribe-voice-note"

// Transcriber converts a voice note to text. Errors are *errors.StandardError.
type Transcriber interface {
	Transcribe(ctx context.Context, audio providers.Audio, settings models.Settings) (*models.TranscriptionResult, error)
}

type Handler struct {
	config      *Config
	transcriber Transcriber
	logger      logger.Logger
	errors      *apperrors.ErrorHandler
}

func NewHandler(config *Config, transcriber Transcriber, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:      config,
		transcriber: transcriber,
		logger:      log,
		errors:      apperrors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, apperrors.NewBusinessRuleError("PARSE_ERROR", err.Error()))
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

// Execute decodes the voice note and transcribes it.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	data, err := DecodeAudio(input.AudioBase64)
	if err != nil {
		return nil, apperrors.NewBusinessRuleError("Audio payload is not valid base64", err.Error())
	}
	if len(data) == 0 {
		return nil, apperrors.NewBusinessRuleError("Audio payload is empty", "")
	}
	if len(data) > h.config.MaxAudioBytes {
		return nil, apperrors.NewBusinessRuleError("Audio payload is too large",
			fmt.Sprintf("bytes: %d, limit: %d", len(data), h.config.MaxAudioBytes))
	}

	settings := models.Settings{}
	if input.Settings != nil {
		settings = *input.Settings
	}

	result, err := h.transcriber.Transcribe(ctx, providers.Audio{
		Data:       data,
		MimeType:   input.MimeType,
		Filename:   input.Filename,
		DurationMs: input.DurationMs,
	}, settings)
	if err != nil {
		return nil, err
	}

	h.logger.Info("voice note transcribed", map[string]interface{}{
		"provider":   result.Provider,
		"durationMs": input.DurationMs,
	})

	return &Output{
		Text:       result.Text,
		Confidence: result.Confidence,
		Provider:   result.Provider,
		DurationMs: input.DurationMs,
	}, nil
}

// DecodeAudio accepts standard base64 with or without a data URL prefix.
func DecodeAudio(encoded string) ([]byte, error) {
	if strings.HasPrefix(encoded, "data:") {
		if _, payload, ok := strings.Cut(encoded, ","); ok {
			encoded = payload
		}
	}
	return base64.StdEncoding.DecodeString(encoded)
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.Normalize(err).Code)).Inc()
	h.errors.HandleJobError(ctx, client, job, err)
}
