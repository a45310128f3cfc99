package notify

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admissions-workers/internal/models"
)

func createTestAnalysis() *models.AnalysisResult {
	return &models.AnalysisResult{
		MatchScore:     90,
		Provider:       models.ProviderOpenRouter,
		KeyInsights:    []string{"Strong interest in stem", "Ready to start soon"},
		MatchedStories: []models.StoryRecord{{ID: "s-1"}, {ID: "s-2"}},
		MatchedFaculty: []models.FacultyRecord{{ID: "f-1"}},
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		template string
		vars     map[string]string
		expected string
	}{
		{"single", "Hello {{name}}", map[string]string{"name": "Ana"}, "Hello Ana"},
		{"spaces inside braces", "Hello {{ name }}!", map[string]string{"name": "Ana"}, "Hello Ana!"},
		{"repeated", "{{a}}-{{a}}", map[string]string{"a": "x"}, "x-x"},
		{"unknown renders empty", "Hi {{missing}}.", nil, "Hi ."},
		{"no placeholders", "plain", nil, "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Render(tt.template, tt.vars))
		})
	}
}

func TestRenderNotification_AdmissionsLead(t *testing.T) {
	quiz := &models.QuizResponse{
		GradeLevel:   models.GradeHigh,
		Interests:    []string{"stem", "arts"},
		FamilyValues: []string{models.ValueMentorship},
		Timeline:     models.TimelineThisYear,
	}

	msg, err := RenderNotification(models.NotificationAdmissionsLead, Context{
		FamilyName:     "Rivera",
		RecipientEmail: "rivera@example.com",
		SessionID:      "session-1",
		Quiz:           quiz,
		Analysis:       createTestAnalysis(),
	})
	require.NoError(t, err)

	assert.Equal(t, "New tour match: Rivera (high)", msg.Subject)
	assert.Contains(t, msg.Body, "Interests: stem, arts")
	assert.Contains(t, msg.Body, "Timeline: this_year")
	assert.Contains(t, msg.Body, "Match score: 90% (openrouter)")
	assert.Contains(t, msg.Body, "Strong interest in stem\nReady to start soon")
	assert.Contains(t, msg.Body, "Session: session-1")
	assert.NotContains(t, msg.Body, "{{")
}

func TestRenderNotification_TourConfirmation(t *testing.T) {
	msg, err := RenderNotification(models.NotificationTourConfirmation, Context{
		SchoolName: "Saint Stephen's Episcopal School",
		SiteURL:    "https://visit.example.org/",
		FamilyName: "Rivera",
		Quiz:       &models.QuizResponse{GradeLevel: models.GradeMiddle},
		Analysis:   createTestAnalysis(),
	})
	require.NoError(t, err)

	assert.Equal(t, "Your personalized tour at Saint Stephen's Episcopal School", msg.Subject)
	assert.Contains(t, msg.Body, "your Middle School student")
	assert.Contains(t, msg.Body, "2 student stories and 1 faculty members")
	assert.Contains(t, msg.Body, "Book your tour: https://visit.example.org/booking")
}

func TestRenderNotification_UnknownType(t *testing.T) {
	_, err := RenderNotification("newsletter", Context{})
	assert.Error(t, err)
}

func TestPartnerShareMailto(t *testing.T) {
	link := PartnerShareMailto("https://visit.example.org", createTestAnalysis())

	require.True(t, strings.HasPrefix(link, "mailto:?subject="))
	assert.NotContains(t, link, "+")
	assert.NotContains(t, link, " ")

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	query, err := url.ParseQuery(parsed.RawQuery)
	require.NoError(t, err)

	assert.Equal(t, "Check out this school match for our child", query.Get("subject"))
	body := query.Get("body")
	assert.Contains(t, body, "Key strengths identified:\nStrong interest in stem\nReady to start soon")
	assert.Contains(t, body, "Take the quiz yourself: https://visit.example.org/quiz")
}

func TestPartnerShareMailto_DefaultInsights(t *testing.T) {
	link := PartnerShareMailto("https://visit.example.org", &models.AnalysisResult{})

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	query, err := url.ParseQuery(parsed.RawQuery)
	require.NoError(t, err)
	assert.Contains(t, query.Get("body"), DefaultInsights)
}

func TestBookingLink(t *testing.T) {
	assert.Equal(t, "https://visit.example.org/booking", BookingLink("https://visit.example.org/"))
}
