package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"admissions-workers/internal/common/config"
	"admissions-workers/internal/common/logger"
	"admissions-workers/internal/models"
	"admissions-workers/internal/prompt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createHostedConfig(baseURL string) config.HostedConfig {
	return config.HostedConfig{
		BaseURL:            baseURL,
		Model:              "gpt-4o-mini",
		TranscriptionModel: "whisper-1",
		Timeout:            2000,
	}
}

// ==========================
// Analysis
// ==========================

func TestHosted_AnalyzeParsesReply(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-settings", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(chatReply(`{"matchScore": 92, "personalizedMessage": "Great fit", "matchedStoryIds": [2], "matchedFacultyIds": [1]}`))
	}))
	defer server.Close()

	cfg := createHostedConfig(server.URL)
	cfg.APIKey = "sk-config"
	p := NewOpenAI(cfg, models.Settings{OpenAIKey: "sk-settings"}, logger.NewTestLogger(t))

	require.True(t, p.IsAvailable(context.Background()))
	got, err := p.Analyze(context.Background(), createTestQuiz(), createTestKnowledge())
	require.NoError(t, err)

	assert.Equal(t, models.ProviderOpenAI, got.Provider)
	assert.Equal(t, 92, got.MatchScore)
	require.Len(t, got.MatchedStories, 1)
	assert.Equal(t, "s-robot", got.MatchedStories[0].ID)
	require.Len(t, got.MatchedFaculty, 1)
	assert.Equal(t, "f-sci", got.MatchedFaculty[0].ID)

	assert.Equal(t, "gpt-4o-mini", captured.Model)
	assert.Equal(t, 1500, captured.MaxTokens)
	assert.Equal(t, prompt.AggregatorSystemPrompt, captured.Messages[0].Content)
	assert.Contains(t, captured.Messages[1].Content, "2. Mia (Grade 8): Robotics finalist")
}

func TestHosted_AnalyzeInvalidReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatReply("I cannot answer in JSON today."))
	}))
	defer server.Close()

	cfg := createHostedConfig(server.URL)
	cfg.APIKey = "gsk-test"
	p := NewGroq(cfg, models.Settings{}, logger.NewTestLogger(t))

	_, err := p.Analyze(context.Background(), createTestQuiz(), createTestKnowledge())
	assert.True(t, errors.Is(err, ErrModelOutputInvalid))
}

func TestHosted_NoKeyIsUnavailable(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	p := NewOpenAI(createHostedConfig("http://127.0.0.1:1"), models.Settings{}, logger.NewNoOpLogger())

	assert.False(t, p.IsAvailable(context.Background()))
	_, err := p.Analyze(context.Background(), createTestQuiz(), createTestKnowledge())
	assert.True(t, errors.Is(err, ErrProviderUnavailable))
}

// ==========================
// Transcription
// ==========================

func TestHosted_TranscribeMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "whisper-large-v3", r.FormValue("model"))
		assert.Equal(t, "en", r.FormValue("language"))
		assert.Equal(t, "json", r.FormValue("response_format"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "voice-bytes", string(data))
		assert.Equal(t, "audio.webm", header.Filename)

		_ = json.NewEncoder(w).Encode(map[string]string{"text": "My son loves robots"})
	}))
	defer server.Close()

	cfg := createHostedConfig(server.URL)
	cfg.TranscriptionModel = "whisper-large-v3"
	p := NewGroq(cfg, models.Settings{GroqKey: "gsk-test"}, logger.NewTestLogger(t))

	got, err := p.Transcribe(context.Background(), Audio{Data: []byte("voice-bytes"), DurationMs: 12000})
	require.NoError(t, err)

	assert.Equal(t, "My son loves robots", got.Text)
	assert.Equal(t, 0.95, got.Confidence)
	assert.Equal(t, models.ProviderGroq, got.Provider)
}

func TestHosted_TranscribeErrors(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failing.Close()

	t.Setenv("OPENAI_API_KEY", "")

	tests := []struct {
		name     string
		key      string
		audio    Audio
		wantErr  error
		wantText string
	}{
		{
			name:     "not configured",
			audio:    Audio{Data: []byte("x")},
			wantErr:  ErrTranscriptionUnsupported,
			wantText: "OpenAI not configured. Please add your API key in the admin panel.",
		},
		{
			name:    "too long",
			key:     "sk-test",
			audio:   Audio{Data: []byte("x"), DurationMs: 61000},
			wantErr: ErrAudioTooLong,
		},
		{
			name:    "upstream failure",
			key:     "sk-test",
			audio:   Audio{Data: []byte("x"), DurationMs: 1000},
			wantErr: ErrTranscriptionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewOpenAI(createHostedConfig(failing.URL), models.Settings{OpenAIKey: tt.key}, logger.NewTestLogger(t))
			_, err := p.Transcribe(context.Background(), tt.audio)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr))
			if tt.wantText != "" {
				assert.Equal(t, tt.wantText, UserMessage(err))
			}
		})
	}
}
