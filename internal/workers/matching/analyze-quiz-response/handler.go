package analyzequizresponse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "admissions-workers/internal/common/errors"
	"admissions-workers/internal/common/logger"
	"admissions-workers/internal/common/metrics"
	"admissions-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "analyze-quiz-response"

var ErrParseInput = errors.New("PARSE_ERROR")

// Analyzer produces a match for a quiz. It never fails.
type Analyzer interface {
	Analyze(ctx context.Context, quiz models.QuizResponse, settings models.Settings) *models.AnalysisResult
}

// ResultStore keeps results per session for the results page.
type ResultStore interface {
	Save(ctx context.Context, sessionID string, result *models.AnalysisResult) error
}

type Handler struct {
	config   *Config
	analyzer Analyzer
	store    ResultStore
	logger   logger.Logger
	errors   *apperrors.ErrorHandler
}

type HandlerOptions struct {
	Config   *Config
	Analyzer Analyzer
	Store    ResultStore
	Logger   logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Analyzer == nil {
		return nil, fmt.Errorf("%s requires an analyzer", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:   cfg,
		analyzer: opts.Analyzer,
		store:    opts.Store,
		logger:   log,
		errors:   apperrors.NewErrorHandler(log),
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := ParseInput(job.Variables)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

// ParseInput decodes job variables.
func ParseInput(variables string) (*Input, error) {
	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewQuizValidationFailedError(fmt.Sprintf("%v: %v", ErrParseInput, err))
	}
	return &input, nil
}

// Execute validates the quiz, runs the orchestrator and caches the result under the session.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := input.Quiz.Validate(); err != nil {
		return nil, err
	}

	settings := models.Settings{}
	if input.Settings != nil {
		settings = *input.Settings
	}

	result := h.analyzer.Analyze(ctx, input.Quiz, settings)
	output := &Output{SessionID: input.SessionID, Analysis: result}

	if input.SessionID != "" && h.store != nil && h.config.CacheResults {
		if err := h.store.Save(ctx, input.SessionID, result); err != nil {
			h.logger.Warn("failed to cache analysis result", map[string]interface{}{
				"sessionId": input.SessionID,
				"error":     err.Error(),
			})
		} else {
			output.Cached = true
		}
	}

	h.logger.Info("quiz analyzed", map[string]interface{}{
		"sessionId":  input.SessionID,
		"provider":   result.Provider,
		"matchScore": result.MatchScore,
		"stories":    len(result.MatchedStories),
		"faculty":    len(result.MatchedFaculty),
	})
	return output, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
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

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.Normalize(err).Code)).Inc()
	h.errors.HandleJobError(ctx, client, job, err)
}
