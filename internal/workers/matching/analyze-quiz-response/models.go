package analyzequizresponse

import "admissions-workers/internal/models"

type Input struct {
	SessionID string              `json:"sessionId,omitempty"`
	Quiz      models.QuizResponse `json:"quiz"`
	Settings  *models.Settings    `json:"settings,omitempty"`
}

type Output struct {
	SessionID string                 `json:"sessionId,omitempty"`
	Analysis  *models.AnalysisResult `json:"analysis"`
	Cached    bool                   `json:"cached"`
}
