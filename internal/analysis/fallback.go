// internal/analysis/fallback.go
package analysis

import (
	"admissions-workers/internal/matching"
	"admissions-workers/internal/models"
	"admissions-workers/internal/prompt"
)

// ComposeFallback builds the deterministic result used when no provider answers.
func ComposeFallback(quiz models.QuizResponse, stories []models.StoryRecord, faculty []models.FacultyRecord) *models.AnalysisResult {
	stories, faculty = matching.ApplyCardCap(stories, faculty)
	return &models.AnalysisResult{
		MatchScore:          matching.FallbackMatchScore,
		PersonalizedMessage: prompt.FallbackMessage(quiz),
		MatchedStories:      append([]models.StoryRecord{}, stories...),
		MatchedFaculty:      append([]models.FacultyRecord{}, faculty...),
		KeyInsights:         matching.KeyInsights(quiz),
		Provider:            models.ProviderFallback,
	}
}
