package rankknowledgebase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "admissions-workers/internal/common/errors"
	"admissions-workers/internal/common/logger"
	"admissions-workers/internal/matching"
	"admissions-workers/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type staticSource struct {
	kb  *models.KnowledgeContext
	err error
}

func (s staticSource) Load(ctx context.Context) (*models.KnowledgeContext, error) {
	return s.kb, s.err
}

func createTestConfig() *Config {
	return &Config{Enabled: true, MaxJobsActive: 5, Timeout: 5 * time.Second}
}

func createTestKnowledge() *models.KnowledgeContext {
	return &models.KnowledgeContext{
		Stories: []models.StoryRecord{
			{ID: "s-art", FirstName: "Zoe", Interests: []string{"painting"}, GradeLevel: "high"},
			{ID: "s-robot", FirstName: "Mia", Interests: []string{"robotics"}, GradeLevel: "middle", StoryTldr: "Built a rover"},
			{ID: "s-lab", FirstName: "Ivy", Interests: []string{"science"}, GradeLevel: "middle"},
			{ID: "s-choir", FirstName: "Eli", Interests: []string{"music"}, GradeLevel: "middle"},
		},
		Faculty: []models.FacultyRecord{
			{ID: "f-head", FirstName: "Pat", IsAdministrator: true, SpecializesIn: []string{"stem"}},
			{ID: "f-sci", FirstName: "Ana", SpecializesIn: []string{"stem"}},
			{ID: "f-art", FirstName: "Ben", SpecializesIn: []string{"arts"}, VideoURL: "https://v/ben"},
			{ID: "f-pe", FirstName: "Sam", SpecializesIn: []string{"athletics"}},
		},
		Facts: []models.FactRecord{
			{ID: "fact-all", GradeLevel: "all", Fact: "Small classes"},
			{ID: "fact-high", GradeLevel: "high", Fact: "College counseling"},
			{ID: "fact-mid", GradeLevel: "middle", Fact: "Advisory program"},
		},
	}
}

func createTestQuiz() models.QuizResponse {
	return models.QuizResponse{
		GradeLevel:       models.GradeMiddle,
		Interests:        []string{"stem"},
		FamilyValues:     []string{models.ValueSmallClasses},
		Timeline:         models.TimelineThisYear,
		ChildDescription: "Wants to build a rover",
	}
}

func createTestHandler(t *testing.T, source staticSource) *Handler {
	return NewHandler(createTestConfig(), source, logger.NewTestLogger(t))
}

func storyIDs(stories []models.StoryRecord) []string {
	ids := make([]string, 0, len(stories))
	for _, s := range stories {
		ids = append(ids, s.ID)
	}
	return ids
}

// ==========================
// Execute Tests
// ==========================

func TestExecute_RanksKnowledgeBase(t *testing.T) {
	h := createTestHandler(t, staticSource{kb: createTestKnowledge()})

	output, err := h.Execute(context.Background(), &Input{Quiz: createTestQuiz()})
	require.NoError(t, err)

	assert.Equal(t, []string{"s-robot", "s-lab", "s-choir"}, storyIDs(output.Stories))
	require.NotEmpty(t, output.Faculty)
	assert.Equal(t, "f-art", output.Faculty[0].ID, "video profile leads")
	for _, f := range output.Faculty {
		assert.NotEqual(t, "f-head", f.ID, "administrators are excluded")
	}

	factIDs := make([]string, 0, len(output.Facts))
	for _, f := range output.Facts {
		factIDs = append(factIDs, f.ID)
	}
	assert.ElementsMatch(t, []string{"fact-all", "fact-mid"}, factIDs)

	assert.GreaterOrEqual(t, output.MatchScore, matching.MatchScoreBase)
	assert.LessOrEqual(t, output.MatchScore, matching.MatchScoreCeiling)
	assert.Equal(t, []string{"Strong interest in stem", "Values personalized attention", "Ready to start soon"}, output.KeyInsights)
}

func TestExecute_Limits(t *testing.T) {
	h := createTestHandler(t, staticSource{kb: createTestKnowledge()})

	output, err := h.Execute(context.Background(), &Input{Quiz: createTestQuiz(), MaxStories: 1, MaxFaculty: 2})
	require.NoError(t, err)

	assert.Len(t, output.Stories, 1)
	assert.Len(t, output.Faculty, 2)
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source staticSource
		quiz   models.QuizResponse
		code   apperrors.ErrorCode
	}{
		{
			name:   "invalid quiz",
			source: staticSource{kb: createTestKnowledge()},
			quiz:   models.QuizResponse{GradeLevel: "nursery"},
			code:   apperrors.ErrCodeQuizValidationFailed,
		},
		{
			name:   "load failure",
			source: staticSource{err: errors.New("no such file")},
			quiz:   createTestQuiz(),
			code:   apperrors.ErrCodeKnowledgeBaseLoadFailed,
		},
		{
			name:   "empty knowledge base",
			source: staticSource{kb: &models.KnowledgeContext{}},
			quiz:   createTestQuiz(),
			code:   apperrors.ErrCodeKnowledgeBaseEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := createTestHandler(t, tt.source)

			_, err := h.Execute(context.Background(), &Input{Quiz: tt.quiz})

			var stdErr *apperrors.StandardError
			require.True(t, errors.As(err, &stdErr))
			assert.Equal(t, tt.code, stdErr.Code)
		})
	}
}
