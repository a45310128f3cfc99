package transcribevoicenote

import "admissions-workers/internal/models"

type Input struct {
	AudioBase64 string           `json:"audioBase64"`
	MimeType    string           `json:"mimeType,omitempty"`
	Filename    string           `json:"filename,omitempty"`
	DurationMs  int64            `json:"durationMs"`
	Settings    *models.Settings `json:"settings,omitempty"`
}

type Output struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Provider   string  `json:"provider"`
	DurationMs int64   `json:"durationMs"`
}
