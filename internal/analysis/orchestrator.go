// Package analysis turns a quiz submission into a personalized match by walking
// the provider chain and falling back to a deterministic composition.
package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	apperrors "admissions-workers/internal/common/errors"
	"admissions-workers/internal/common/logger"
	"admissions-workers/internal/common/metrics"
	"admissions-workers/internal/knowledge"
	"admissions-workers/internal/matching"
	"admissions-workers/internal/models"
	"admissions-workers/internal/providers"
)

// State is one step of an analysis run.
type State string

const (
	StateIdle                State = "idle"
	StateScoring             State = "scoring"
	StateProviderSelection   State = "provider_selection"
	StateInvoking            State = "invoking"
	StateParsing             State = "parsing"
	StateFallbackComposition State = "fallback_composition"
	StateDone                State = "done"
)

// Fallback reasons, used as metric labels.
const (
	ReasonKnowledgeUnavailable = "knowledge_unavailable"
	ReasonNoProvider           = "no_provider"
	ReasonCancelled            = "cancelled"
)

// Attempt records one provider considered during a run.
type Attempt struct {
	Provider string `json:"provider"`
	Outcome  string `json:"outcome"`
	Code     string `json:"code,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Trace is the state trail of one run.
type Trace struct {
	States   []State   `json:"states"`
	Attempts []Attempt `json:"attempts"`
}

func (t *Trace) enter(s State) {
	t.States = append(t.States, s)
}

// Recorder receives one event per finished analysis.
type Recorder interface {
	RecordAnalysis(ctx context.Context, provider string, matchScore int)
}

type Options struct {
	Descriptors []Descriptor
	Knowledge   knowledge.Source
	Cache       *ResultCache
	Logger      logger.Logger
	Tracer      trace.Tracer
	Recorder    Recorder
	// Settings are the defaults merged under every per-call settings record.
	Settings models.Settings
}

// Orchestrator is safe for concurrent use; it keeps no per-call state.
type Orchestrator struct {
	descriptors []Descriptor
	knowledge   knowledge.Source
	cache       *ResultCache
	logger      logger.Logger
	tracer      trace.Tracer
	recorder    Recorder
	settings    models.Settings
	now         func() time.Time
}

func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		descriptors: opts.Descriptors,
		knowledge:   opts.Knowledge,
		cache:       opts.Cache,
		logger:      opts.Logger,
		tracer:      opts.Tracer,
		recorder:    opts.Recorder,
		settings:    opts.Settings,
		now:         time.Now,
	}
	if o.logger == nil {
		o.logger = logger.NewNoOpLogger()
	}
	if o.tracer == nil {
		o.tracer = noop.NewTracerProvider().Tracer("analysis")
	}
	return o
}

// Cache returns the result cache, or nil when none is configured.
func (o *Orchestrator) Cache() *ResultCache {
	return o.cache
}

// Settings merges per-call settings over the configured defaults.
func (o *Orchestrator) Settings(settings models.Settings) models.Settings {
	return settings.Merge(o.settings)
}

// Analyze always returns a result.
func (o *Orchestrator) Analyze(ctx context.Context, quiz models.QuizResponse, settings models.Settings) *models.AnalysisResult {
	result, _ := o.AnalyzeWithTrace(ctx, quiz, settings)
	return result
}

// AnalyzeWithTrace is Analyze plus the state trail of the run.
func (o *Orchestrator) AnalyzeWithTrace(ctx context.Context, quiz models.QuizResponse, settings models.Settings) (*models.AnalysisResult, Trace) {
	start := o.now()
	settings = o.Settings(settings)
	tr := Trace{}
	tr.enter(StateIdle)

	ctx, span := o.tracer.Start(ctx, "analysis.analyze", trace.WithAttributes(
		attribute.String("quiz.grade_level", quiz.GradeLevel),
		attribute.String("settings.ai_provider", settings.AIProvider),
	))
	defer span.End()

	tr.enter(StateScoring)
	kb, err := o.loadKnowledge(ctx)
	if err != nil {
		o.logger.Warn("knowledge base unavailable, composing fallback", map[string]interface{}{
			"error": err.Error(),
		})
		span.RecordError(err)
		ranking := matching.Rank(quiz, &models.KnowledgeContext{})
		return o.finishFallback(ctx, span, &tr, quiz, ranking, ReasonKnowledgeUnavailable, start), tr
	}
	ranking := matching.Rank(quiz, kb)

	tr.enter(StateProviderSelection)
	for _, d := range orderFor(o.descriptors, settings.AIProvider) {
		if ctx.Err() != nil {
			return o.finishFallback(ctx, span, &tr, quiz, ranking, ReasonCancelled, start), tr
		}
		if !d.Capabilities.Analyze {
			continue
		}

		result, attempt := o.attempt(ctx, &tr, d, settings, quiz, kb)
		tr.Attempts = append(tr.Attempts, attempt)
		metrics.ProviderAttempts.WithLabelValues(attempt.Provider, attempt.Outcome).Inc()
		if result == nil {
			tr.enter(StateProviderSelection)
			continue
		}

		return o.finish(ctx, span, &tr, result, start), tr
	}

	return o.finishFallback(ctx, span, &tr, quiz, ranking, ReasonNoProvider, start), tr
}

func (o *Orchestrator) loadKnowledge(ctx context.Context) (*models.KnowledgeContext, error) {
	if o.knowledge == nil {
		return nil, knowledge.ErrLoadFailed
	}
	kb, err := o.knowledge.Load(ctx)
	if err != nil {
		return nil, err
	}
	if kb == nil {
		return nil, knowledge.ErrEmpty
	}
	return kb, nil
}

// attempt runs one provider at most once. A nil result means move on.
func (o *Orchestrator) attempt(ctx context.Context, tr *Trace, d Descriptor, settings models.Settings, quiz models.QuizResponse, kb *models.KnowledgeContext) (*models.AnalysisResult, Attempt) {
	ctx, span := o.tracer.Start(ctx, "analysis.provider", trace.WithAttributes(
		attribute.String("provider", d.Name),
	))
	defer span.End()

	log := o.logger.WithFields(map[string]interface{}{"provider": d.Name})
	attemptStart := o.now()

	p := d.Factory(settings)
	if p == nil || !p.IsAvailable(ctx) {
		log.Debug("provider unavailable", nil)
		span.SetAttributes(attribute.String("outcome", metrics.OutcomeUnavailable))
		return nil, Attempt{Provider: d.Name, Outcome: metrics.OutcomeUnavailable, Code: string(apperrors.ErrCodeProviderUnavailable)}
	}

	tr.enter(StateInvoking)
	result, err := p.Analyze(ctx, quiz, kb)

	tr.enter(StateParsing)
	if err == nil && result == nil {
		err = providers.ErrModelOutputInvalid
	}
	if err != nil {
		outcome := metrics.OutcomeError
		if errors.Is(err, providers.ErrModelOutputInvalid) {
			outcome = metrics.OutcomeInvalid
		}
		stdErr := attemptFailure(d.Name, err)
		log.Warn("provider attempt failed", map[string]interface{}{
			"outcome":   outcome,
			"code":      stdErr.Code,
			"retryable": stdErr.Retryable,
			"error":     err.Error(),
			"latencyMs": o.now().Sub(attemptStart).Milliseconds(),
		})
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return nil, Attempt{Provider: d.Name, Outcome: outcome, Code: string(stdErr.Code), Error: err.Error()}
	}

	if result.Provider == "" {
		result.Provider = d.Name
	}
	log.Info("provider produced analysis", map[string]interface{}{
		"matchScore": result.MatchScore,
		"latencyMs":  o.now().Sub(attemptStart).Milliseconds(),
	})
	span.SetAttributes(attribute.String("outcome", metrics.OutcomeSuccess))
	return result, Attempt{Provider: d.Name, Outcome: metrics.OutcomeSuccess}
}

// attemptFailure classifies a provider error for logs and the run trace.
func attemptFailure(provider string, err error) *apperrors.StandardError {
	switch {
	case errors.Is(err, providers.ErrLLMTimeout):
		return apperrors.NewLLMTimeoutError(provider)
	case errors.Is(err, providers.ErrModelOutputInvalid):
		return apperrors.NewModelOutputInvalidError(err.Error())
	case errors.Is(err, providers.ErrProviderUnavailable):
		return apperrors.NewProviderUnavailableError(provider)
	default:
		return apperrors.NewLLMSynthesisFailedError(provider, err)
	}
}

func (o *Orchestrator) finishFallback(ctx context.Context, span trace.Span, tr *Trace, quiz models.QuizResponse, ranking matching.Ranking, reason string, start time.Time) *models.AnalysisResult {
	tr.enter(StateFallbackComposition)
	metrics.AnalysisFallbacks.WithLabelValues(reason).Inc()
	span.SetAttributes(attribute.String("fallback.reason", reason))
	o.logger.Info("composing fallback analysis", map[string]interface{}{"reason": reason})

	result := ComposeFallback(quiz, ranking.Stories, ranking.Faculty)
	return o.finish(ctx, span, tr, result, start)
}

func (o *Orchestrator) finish(ctx context.Context, span trace.Span, tr *Trace, result *models.AnalysisResult, start time.Time) *models.AnalysisResult {
	result.MatchScore = matching.ClampProductScore(result.MatchScore)
	if result.AnalysisID == "" {
		result.AnalysisID = uuid.New().String()
	}
	if result.MatchedStories == nil {
		result.MatchedStories = []models.StoryRecord{}
	}
	if result.MatchedFaculty == nil {
		result.MatchedFaculty = []models.FacultyRecord{}
	}
	if result.KeyInsights == nil {
		result.KeyInsights = []string{}
	}

	elapsed := o.now().Sub(start)
	result.ProcessingTime = elapsed.Milliseconds()
	result.GeneratedAt = o.now().UTC()

	metrics.AnalysisDuration.WithLabelValues(result.Provider).Observe(elapsed.Seconds())
	if o.recorder != nil {
		o.recorder.RecordAnalysis(ctx, result.Provider, result.MatchScore)
	}
	span.SetAttributes(
		attribute.String("analysis.provider", result.Provider),
		attribute.Int("analysis.match_score", result.MatchScore),
	)

	tr.enter(StateDone)
	return result
}
