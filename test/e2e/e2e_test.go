// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admissions-workers/internal/analysis"
	"admissions-workers/internal/common/camunda"
	"admissions-workers/internal/common/config"
	"admissions-workers/internal/common/database"
	"admissions-workers/internal/common/logger"
	"admissions-workers/internal/knowledge"
	"admissions-workers/internal/models"
	"admissions-workers/internal/server"

	stn "admissions-workers/internal/workers/communication/send-tour-notification"
	aqr "admissions-workers/internal/workers/matching/analyze-quiz-response"
	rkb "admissions-workers/internal/workers/matching/rank-knowledge-base"
)

// ==========================
// Stack
// ==========================

type stack struct {
	orchestrator *analysis.Orchestrator
	cache        *analysis.ResultCache
	knowledge    knowledge.Source
	http         *httptest.Server
	redis        *miniredis.Miniredis
	llmCalls     int
}

func writeKnowledge(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"stories.json": `{"stories": [
			{"id": "s-robot", "firstName": "Maya", "interests": ["robotics", "stem"], "storyTldr": "Built a rover", "achievement": "State robotics finalist", "gradeLevel": "middle"},
			{"id": "s-choir", "firstName": "Eli", "interests": ["music", "choir"], "storyTldr": "Sang at Carnegie Hall", "achievement": "Choir soloist", "gradeLevel": "high"},
			{"id": "s-lab", "firstName": "Nora", "interests": ["science"], "storyTldr": "Published research", "achievement": "Science fair winner", "gradeLevel": "middle"}
		]}`,
		"faculty.json": `{"faculty": [
			{"id": "f-stem", "firstName": "Sam", "lastName": "Ortiz", "title": "Robotics Coach", "specializesIn": ["stem", "robotics"], "whyStudentsLoveThem": "Hands-on builds"},
			{"id": "f-art", "firstName": "June", "lastName": "Park", "title": "Art Teacher", "specializesIn": ["arts"], "whyStudentsLoveThem": "Gallery nights"}
		]}`,
		"facts.json": `{"facts": [
			{"id": "fact-1", "gradeLevel": "all", "fact": "Average class size is 15", "context": "Small classes", "category": "academics"}
		]}`,
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func fakeOpenAI(t *testing.T, s *stack) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/chat/completions":
			s.llmCalls++
			reply := `Here you go: {"matchScore": 99, "personalizedMessage": "Your middle schooler will thrive here.", "matchedStoryIds": [1], "matchedFacultyIds": [1], "keyInsights": ["Loves building"]}`
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"choices": []map[string]interface{}{{"message": map[string]string{"role": "assistant", "content": reply}}},
			})
		case "/audio/transcriptions":
			_ = json.NewEncoder(w).Encode(map[string]string{"text": "She builds robots every weekend"})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newStack(t *testing.T) *stack {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.NewTestLogger(t)
	s := &stack{}

	openai := fakeOpenAI(t, s)
	cfg := &config.Config{}
	cfg.App.SiteURL = "https://visit.example.org"
	cfg.Providers.Order = []string{models.ProviderOpenAI}
	cfg.Providers.OpenAI = config.HostedConfig{
		APIKey:             "sk-e2e",
		BaseURL:            openai.URL,
		Model:              "gpt-4o-mini",
		TranscriptionModel: "whisper-1",
		Timeout:            5000,
	}
	cfg.Providers.LMStudio = config.LMStudioConfig{BaseURL: "http://127.0.0.1:1/v1", ProbeTimeout: 100, CompletionTimeout: 100}
	cfg.Settings.VoiceEnabled = true
	cfg.Settings.VoiceProvider = models.ProviderOpenAI

	s.redis = miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.redis.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s.knowledge = knowledge.NewCachedSource(knowledge.NewFileSource(writeKnowledge(t)), time.Minute)
	s.cache = analysis.NewResultCache(database.WrapRedis(client), 30*time.Minute)
	s.orchestrator = analysis.New(analysis.Options{
		Descriptors: analysis.DefaultDescriptors(cfg, log),
		Knowledge:   s.knowledge,
		Cache:       s.cache,
		Logger:      log,
		Settings:    analysis.DefaultSettings(cfg),
	})

	srv := server.New(server.Options{
		Analyzer: s.orchestrator,
		Store:    s.cache,
		SiteURL:  cfg.App.SiteURL,
		Logger:   log,
		Mode:     gin.TestMode,
	})
	s.http = httptest.NewServer(srv.Handler())
	t.Cleanup(s.http.Close)
	return s
}

func testQuiz() models.QuizResponse {
	return models.QuizResponse{
		GradeLevel:       models.GradeMiddle,
		Interests:        []string{"stem", "robotics"},
		FamilyValues:     []string{models.ValueSmallClasses},
		Timeline:         models.TimelineThisYear,
		ChildDescription: "Builds robots after school",
	}
}

// ==========================
// HTTP surface
// ==========================

func TestAnalyzeCacheAndShare(t *testing.T) {
	s := newStack(t)

	body, _ := json.Marshal(map[string]interface{}{"sessionId": "family-42", "quiz": testQuiz()})
	resp, err := http.Post(s.http.URL+"/api/analyze", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result models.AnalysisResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, models.ProviderOpenAI, result.Provider)
	assert.Equal(t, 95, result.MatchScore, "model score is clamped")
	assert.NotEmpty(t, result.AnalysisID)
	assert.Equal(t, 1, s.llmCalls)

	assert.True(t, s.redis.Exists("analysis:family-42"))

	cached, err := http.Get(s.http.URL + "/api/analyze/family-42")
	require.NoError(t, err)
	defer cached.Body.Close()
	require.Equal(t, http.StatusOK, cached.StatusCode)
	var again models.AnalysisResult
	require.NoError(t, json.NewDecoder(cached.Body).Decode(&again))
	assert.Equal(t, result.AnalysisID, again.AnalysisID)

	share, err := http.Get(s.http.URL + "/api/share/family-42")
	require.NoError(t, err)
	defer share.Body.Close()
	var link map[string]string
	require.NoError(t, json.NewDecoder(share.Body).Decode(&link))
	assert.True(t, strings.HasPrefix(link["mailto"], "mailto:?subject="))

	s.redis.FastForward(31 * time.Minute)
	expired, err := http.Get(s.http.URL + "/api/analyze/family-42")
	require.NoError(t, err)
	expired.Body.Close()
	assert.Equal(t, http.StatusNotFound, expired.StatusCode)
}

func TestAnalyzeFallsBackWhenProvidersFail(t *testing.T) {
	s := newStack(t)

	body, _ := json.Marshal(map[string]interface{}{
		"quiz":     testQuiz(),
		"settings": models.Settings{OpenAIKey: "sk-e2e", AIProvider: models.ProviderLMStudio},
	})
	log := logger.NewTestLogger(t)
	cfg := &config.Config{}
	cfg.Providers.Order = []string{models.ProviderOpenAI}
	cfg.Providers.OpenAI = config.HostedConfig{APIKey: "sk-e2e", BaseURL: "http://127.0.0.1:1", Timeout: 200}
	cfg.Providers.LMStudio = config.LMStudioConfig{BaseURL: "http://127.0.0.1:1/v1", ProbeTimeout: 100, CompletionTimeout: 100}
	orchestrator := analysis.New(analysis.Options{
		Descriptors: analysis.DefaultDescriptors(cfg, log),
		Knowledge:   s.knowledge,
		Logger:      log,
	})
	srv := httptest.NewServer(server.New(server.Options{Analyzer: orchestrator, Store: s.cache, Logger: log, Mode: gin.TestMode}).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/analyze", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result models.AnalysisResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, models.ProviderFallback, result.Provider)
	assert.Equal(t, 85, result.MatchScore)
	assert.LessOrEqual(t, len(result.MatchedStories)+len(result.MatchedFaculty), 3)
	assert.Equal(t, resp.Header.Get("X-Session-Id"), result.AnalysisID)
}

func TestTranscribeVoiceNote(t *testing.T) {
	s := newStack(t)

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	part, err := w.CreateFormFile("audio", "note.webm")
	require.NoError(t, err)
	_, _ = part.Write([]byte("voice"))
	require.NoError(t, w.WriteField("durationMs", "3000"))
	require.NoError(t, w.WriteField("settings", `{"aiProvider":"openai","voiceEnabled":true,"voiceProvider":"openai"}`))
	require.NoError(t, w.Close())

	resp, err := http.Post(s.http.URL+"/api/transcribe", w.FormDataContentType(), buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result models.TranscriptionResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "She builds robots every weekend", result.Text)
	assert.Equal(t, models.ProviderOpenAI, result.Provider)
}

func TestTranscribeUnsupportedProvider(t *testing.T) {
	s := newStack(t)

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	part, _ := w.CreateFormFile("audio", "note.webm")
	_, _ = part.Write([]byte("voice"))
	require.NoError(t, w.WriteField("settings", `{"aiProvider":"lmstudio","voiceEnabled":true,"voiceProvider":"lmstudio"}`))
	require.NoError(t, w.Close())

	resp, err := http.Post(s.http.URL+"/api/transcribe", w.FormDataContentType(), buf)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "TRANSCRIPTION_UNSUPPORTED", body["code"])
	assert.Contains(t, body["error"], "Please use OpenAI or Groq")
}

// ==========================
// Workers without an engine
// ==========================

type capturedEmail struct {
	inputs []*ses.SendEmailInput
}

func (c *capturedEmail) SendEmail(ctx context.Context, input *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	c.inputs = append(c.inputs, input)
	return &ses.SendEmailOutput{}, nil
}

func TestWorkersPipeline(t *testing.T) {
	s := newStack(t)
	log := logger.NewTestLogger(t)
	ctx := context.Background()

	ranker := rkb.NewHandler(rkb.DefaultConfig(), s.knowledge, log)
	ranked, err := ranker.Execute(ctx, &rkb.Input{Quiz: testQuiz()})
	require.NoError(t, err)
	require.NotEmpty(t, ranked.Stories)
	assert.Equal(t, "s-robot", ranked.Stories[0].ID)

	analyzer, err := aqr.NewHandler(aqr.HandlerOptions{Analyzer: s.orchestrator, Store: s.cache, Logger: log})
	require.NoError(t, err)
	analyzed, err := analyzer.Execute(ctx, &aqr.Input{SessionID: "pipeline-1", Quiz: testQuiz()})
	require.NoError(t, err)
	assert.True(t, analyzed.Cached)

	email := &capturedEmail{}
	cfg := stn.DefaultConfig()
	cfg.EmailEnabled = true
	cfg.FromEmail = "tours@example.org"
	cfg.AdmissionsEmail = "admissions@example.org"
	cfg.SiteURL = "https://visit.example.org"
	cfg.SchoolName = "Example School"
	notifier, err := stn.NewHandler(stn.HandlerOptions{Config: cfg, Email: email, Logger: log})
	require.NoError(t, err)

	quiz := testQuiz()
	sent, err := notifier.Execute(ctx, &stn.Input{
		NotificationType: models.NotificationAdmissionsLead,
		FamilyName:       "Rivera",
		RecipientEmail:   "parent@example.org",
		SessionID:        "pipeline-1",
		Analysis:         analyzed.Analysis,
		Quiz:             &quiz,
	})
	require.NoError(t, err)
	assert.Equal(t, models.NotificationStatusSent, sent.Status)
	require.Len(t, email.inputs, 1)
	assert.Equal(t, []string{"admissions@example.org"}, email.inputs[0].Destination.ToAddresses)
}

// ==========================
// Live engine
// ==========================

func TestZeebeTopology(t *testing.T) {
	addr := os.Getenv("ZEEBE_ADDRESS")
	if addr == "" {
		t.Skip("ZEEBE_ADDRESS not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := camunda.Connect(ctx, &camunda.ClientConfig{
		GatewayAddress:         addr,
		UsePlaintextConnection: true,
		RetryConfig:            &camunda.RetryConfig{MaxRetries: 2, BaseDelay: time.Second, MaxDelay: 2 * time.Second},
	}, logger.NewTestLogger(t))
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.HealthCheck(ctx))
}
