package knowledge

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"admissions-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Alumni merge
// ==========================

func TestAlumnus_ToStory(t *testing.T) {
	var a Alumnus
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "alum-7", "name": "Maria de la Cruz", "graduationYear": 2012,
		"position": "Founder", "company": "Tidewater Labs",
		"story": "Maria started a marine research nonprofit after college that now employs forty scientists. She credits her mentors.",
		"tags": ["science", "business"], "quote": "Stay curious"
	}`), &a))

	got := a.ToStory()

	assert.Equal(t, "alum-7", got.ID)
	assert.Equal(t, "Maria", got.FirstName)
	assert.Equal(t, "de la Cruz", got.LastName)
	assert.Equal(t, "2012", got.ClassYear)
	assert.Equal(t, "Founder at Tidewater Labs", got.CurrentRole)
	assert.Equal(t, "Founder at Tidewater Labs", got.Achievement)
	assert.Equal(t, "Maria started a marine research nonprofit after college that...", got.StoryTldr)
	assert.Equal(t, []string{"science", "business"}, got.Interests)
	assert.Equal(t, "Stay curious", got.Quote)
	assert.Equal(t, models.GradeHigh, got.GradeLevel)
	assert.Equal(t, "/images/alumni/placeholder-alumni.jpg", got.PhotoURL)
}

func TestStoryTldr_ShortSentence(t *testing.T) {
	assert.Equal(t, "Built bridges...", storyTldr("Built bridges. Then more."))
	assert.Equal(t, "...", storyTldr(""))
}

func TestMergeAlumni(t *testing.T) {
	existing := []models.StoryRecord{
		{ID: "a1", FirstName: "Jason", LastName: "Kaplan"},
	}
	export := AlumniExport{Alumni: []Alumnus{
		{ID: "n1", Name: "jason kaplan", GraduationYear: "2005", Position: "CEO", Company: "Acme"},
		{ID: "n2", Name: "Priya Shah", GraduationYear: "2015", Position: "Surgeon", Company: "Mercy"},
		{ID: "n3", Name: "Priya Shah", GraduationYear: "2015", Position: "Surgeon", Company: "Mercy"},
	}}

	merged, added, skipped := MergeAlumni(existing, export)

	assert.Equal(t, 2, added)
	assert.Equal(t, 1, skipped)
	require.Len(t, merged, 3)
	assert.Equal(t, "a1", merged[0].ID)
	assert.Equal(t, "n2", merged[1].ID)
	assert.Equal(t, "n3", merged[2].ID)
	assert.Len(t, existing, 1)
}

func TestReadAlumniExport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "export.json", `{"alumni": [{"id": "n1", "name": "Priya Shah", "graduationYear": "2015", "tags": ["medicine"]}]}`)
	writeFile(t, dir, "bad.json", `{"alumni": [{"id": "n1", "name": ""}]}`)

	export, err := ReadAlumniExport(filepath.Join(dir, "export.json"))
	require.NoError(t, err)
	require.Len(t, export.Alumni, 1)
	assert.Equal(t, GraduationYear("2015"), export.Alumni[0].GraduationYear)

	_, err = ReadAlumniExport(filepath.Join(dir, "bad.json"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "name"))
}

// ==========================
// Report
// ==========================

func TestAnalyze(t *testing.T) {
	kb := models.KnowledgeContext{
		Stories: []models.StoryRecord{
			{ID: "s1", Interests: []string{"Robotics", "science"}, GradeLevel: "middle", ParentQuote: "Great"},
			{ID: "s2", Interests: []string{"science fair"}, GradeLevel: "middle"},
			{ID: "s3", Interests: []string{"music"}},
		},
		Faculty: []models.FacultyRecord{
			{ID: "f1", SpecializesIn: []string{"science", "math"}, Bio: "Long bio"},
			{ID: "f2", SpecializesIn: []string{"science"}},
		},
		Facts: []models.FactRecord{
			{ID: "x1", Category: "academics"},
			{ID: "x2"},
		},
	}

	report := Analyze(kb, []string{"science", "music", "drama"})

	assert.Equal(t, 3, report.TotalStories)
	assert.Equal(t, []Count{{"middle", 2}, {"unspecified", 1}}, report.GradeDistribution)
	assert.Equal(t, Count{"Robotics", 1}, report.TopInterests[0])
	assert.Equal(t, []Count{{"science", 2}, {"math", 1}}, report.Specializations)
	assert.Equal(t, []Count{{"academics", 1}, {"general", 1}}, report.FactCategories)

	require.Len(t, report.Coverage, 3)
	assert.Equal(t, 2, report.Coverage[0].Stories)
	assert.InDelta(t, 66.67, report.Coverage[0].Percent, 0.01)
	assert.Equal(t, []string{"music", "drama"}, report.Gaps)

	assert.Equal(t, 1, report.DataQuality.StoriesWithoutGradeLevel)
	assert.Equal(t, 2, report.DataQuality.StoriesWithoutParentQuote)
	assert.Equal(t, 1, report.DataQuality.FacultyWithoutBio)
}

func TestAnalyze_EmptyUsesQuizVocabulary(t *testing.T) {
	report := Analyze(models.KnowledgeContext{}, nil)

	assert.Len(t, report.Coverage, len(QuizInterests))
	assert.Equal(t, QuizInterests, report.Gaps)
	assert.Zero(t, report.Coverage[0].Percent)
}
