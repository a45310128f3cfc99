package rankknowledgebase

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "admissions-workers/internal/common/errors"
	"admissions-workers/internal/common/logger"
	"admissions-workers/internal/common/metrics"
	"admissions-workers/internal/knowledge"
	"admissions-workers/internal/matching"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "rank-knowledge-base"

type Handler struct {
	config    *Config
	knowledge knowledge.Source
	logger    logger.Logger
	errors    *apperrors.ErrorHandler
}

func NewHandler(config *Config, source knowledge.Source, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		knowledge: source,
		logger:    log,
		errors:    apperrors.NewErrorHandler(log),
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
		h.fail(ctx, client, job, apperrors.NewQuizValidationFailedError(fmt.Sprintf("PARSE_ERROR: %v", err)))
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

// Execute ranks the knowledge base against the quiz without calling any provider.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := input.Quiz.Validate(); err != nil {
		return nil, err
	}

	kb, err := h.knowledge.Load(ctx)
	if err != nil {
		return nil, apperrors.NewKnowledgeBaseLoadFailedError("knowledge", err)
	}
	if kb.IsEmpty() {
		return nil, apperrors.NewKnowledgeBaseEmptyError("knowledge")
	}

	ranking := matching.Rank(input.Quiz, kb)
	stories, faculty := ranking.Stories, ranking.Faculty
	if input.MaxStories > 0 && len(stories) > input.MaxStories {
		stories = stories[:input.MaxStories]
	}
	if input.MaxFaculty > 0 && len(faculty) > input.MaxFaculty {
		faculty = faculty[:input.MaxFaculty]
	}

	h.logger.Info("knowledge base ranked", map[string]interface{}{
		"stories":    len(stories),
		"faculty":    len(faculty),
		"facts":      len(ranking.Facts),
		"matchScore": ranking.MatchScore,
	})

	return &Output{
		Stories:     stories,
		Faculty:     faculty,
		Facts:       ranking.Facts,
		MatchScore:  ranking.MatchScore,
		KeyInsights: ranking.KeyInsights,
	}, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.Normalize(err).Code)).Inc()
	h.errors.HandleJobError(ctx, client, job, err)
}
