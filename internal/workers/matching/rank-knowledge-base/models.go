package rankknowledgebase

import "admissions-workers/internal/models"

type Input struct {
	Quiz       models.QuizResponse `json:"quiz"`
	MaxStories int                 `json:"maxStories,omitempty"`
	MaxFaculty int                 `json:"maxFaculty,omitempty"`
}

type Output struct {
	Stories     []models.StoryRecord   `json:"stories"`
	Faculty     []models.FacultyRecord `json:"faculty"`
	Facts       []models.FactRecord    `json:"facts"`
	MatchScore  int                    `json:"matchScore"`
	KeyInsights []string               `json:"keyInsights"`
}
