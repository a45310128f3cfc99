// internal/models/analysis.go
package models

import "time"

// Provider tags stamped on results.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderGroq       = "groq"
	ProviderLMStudio   = "lmstudio"
	ProviderFallback   = "fallback"
	ProviderBrowser    = "browser"
)

// AnalysisResult is the match produced for one quiz submission.
type AnalysisResult struct {
	AnalysisID          string          `json:"analysisId"`
	MatchScore          int             `json:"matchScore"`
	PersonalizedMessage string          `json:"personalizedMessage"`
	MatchedStories      []StoryRecord   `json:"matchedStories"`
	MatchedFaculty      []FacultyRecord `json:"matchedFaculty"`
	KeyInsights         []string        `json:"keyInsights"`
	RecommendedPrograms []string        `json:"recommendedPrograms,omitempty"`
	Provider            string          `json:"provider"`
	ProcessingTime      int64           `json:"processingTime"`
	GeneratedAt         time.Time       `json:"generatedAt"`
}

// TranscriptionResult is the text recovered from a voice note.
type TranscriptionResult struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Provider   string  `json:"provider"`
	DurationMs int64   `json:"durationMs"`
}

// Settings is the persisted provider and voice preference record.
type Settings struct {
	AIProvider    string `json:"aiProvider,omitempty"`
	OpenAIKey     string `json:"openaiKey,omitempty"`
	GroqKey       string `json:"groqKey,omitempty"`
	OpenRouterKey string `json:"openrouterKey,omitempty"`
	LMStudioURL   string `json:"lmstudioUrl,omitempty"`
	VoiceEnabled  bool   `json:"voiceEnabled"`
	VoiceProvider string `json:"voiceProvider,omitempty"`
}

// Merge returns s with empty fields filled from base. VoiceEnabled is taken from s.
func (s Settings) Merge(base Settings) Settings {
	out := s
	if out.AIProvider == "" {
		out.AIProvider = base.AIProvider
	}
	if out.OpenAIKey == "" {
		out.OpenAIKey = base.OpenAIKey
	}
	if out.GroqKey == "" {
		out.GroqKey = base.GroqKey
	}
	if out.OpenRouterKey == "" {
		out.OpenRouterKey = base.OpenRouterKey
	}
	if out.LMStudioURL == "" {
		out.LMStudioURL = base.LMStudioURL
	}
	if out.VoiceProvider == "" {
		out.VoiceProvider = base.VoiceProvider
	}
	return out
}
