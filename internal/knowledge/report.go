// internal/knowledge/report.go
package knowledge

import (
	"sort"
	"strings"

	"admissions-workers/internal/models"
)

const (
	topInterestCount  = 10
	lowCoverageCutoff = 2
	unspecifiedGrade  = "unspecified"
	defaultCategory   = "general"
)

// QuizInterests is the interest vocabulary offered across all quiz grade levels.
var QuizInterests = []string{
	"play", "arts", "music", "nature", "building", "stories", "movement", "friends",
	"science", "sports", "technology", "reading", "athletics", "languages", "writing",
	"service", "drama", "leadership", "stem", "literature", "business", "media",
	"debate", "environment",
}

// Count is one label with its frequency.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Coverage is how many stories carry a tag containing an interest.
type Coverage struct {
	Interest string  `json:"interest"`
	Stories  int     `json:"stories"`
	Percent  float64 `json:"percent"`
}

// DataQuality counts records missing optional fields.
type DataQuality struct {
	StoriesWithoutGradeLevel  int `json:"storiesWithoutGradeLevel"`
	StoriesWithoutParentQuote int `json:"storiesWithoutParentQuote"`
	FacultyWithoutBio         int `json:"facultyWithoutBio"`
}

// Report summarizes the knowledge base for content editors.
type Report struct {
	TotalStories      int         `json:"totalStories"`
	TotalFaculty      int         `json:"totalFaculty"`
	TotalFacts        int         `json:"totalFacts"`
	GradeDistribution []Count     `json:"gradeDistribution"`
	TopInterests      []Count     `json:"topInterests"`
	Specializations   []Count     `json:"specializations"`
	FactCategories    []Count     `json:"factCategories"`
	Coverage          []Coverage  `json:"coverage"`
	Gaps              []string    `json:"gaps"`
	DataQuality       DataQuality `json:"dataQuality"`
}

// Analyze builds a Report. quizInterests defaults to QuizInterests when empty.
func Analyze(kb models.KnowledgeContext, quizInterests []string) Report {
	if len(quizInterests) == 0 {
		quizInterests = QuizInterests
	}

	grades := map[string]int{}
	interests := map[string]int{}
	for _, s := range kb.Stories {
		grade := s.GradeLevel
		if grade == "" {
			grade = unspecifiedGrade
		}
		grades[grade]++
		for _, tag := range s.Interests {
			interests[tag]++
		}
	}

	specs := map[string]int{}
	for _, f := range kb.Faculty {
		for _, spec := range f.SpecializesIn {
			specs[spec]++
		}
	}

	categories := map[string]int{}
	for _, f := range kb.Facts {
		category := f.Category
		if category == "" {
			category = defaultCategory
		}
		categories[category]++
	}

	report := Report{
		TotalStories:      len(kb.Stories),
		TotalFaculty:      len(kb.Faculty),
		TotalFacts:        len(kb.Facts),
		GradeDistribution: sortedCounts(grades),
		TopInterests:      sortedCounts(interests),
		Specializations:   sortedCounts(specs),
		FactCategories:    sortedCounts(categories),
	}
	if len(report.TopInterests) > topInterestCount {
		report.TopInterests = report.TopInterests[:topInterestCount]
	}

	for _, interest := range quizInterests {
		n := storiesCovering(kb.Stories, interest)
		pct := 0.0
		if len(kb.Stories) > 0 {
			pct = float64(n) / float64(len(kb.Stories)) * 100
		}
		report.Coverage = append(report.Coverage, Coverage{Interest: interest, Stories: n, Percent: pct})
		if n < lowCoverageCutoff {
			report.Gaps = append(report.Gaps, interest)
		}
	}

	for _, s := range kb.Stories {
		if s.GradeLevel == "" {
			report.DataQuality.StoriesWithoutGradeLevel++
		}
		if s.ParentQuote == "" {
			report.DataQuality.StoriesWithoutParentQuote++
		}
	}
	for _, f := range kb.Faculty {
		if f.Bio == "" {
			report.DataQuality.FacultyWithoutBio++
		}
	}

	return report
}

func storiesCovering(stories []models.StoryRecord, interest string) int {
	needle := strings.ToLower(interest)
	n := 0
	for _, s := range stories {
		for _, tag := range s.Interests {
			if strings.Contains(strings.ToLower(tag), needle) {
				n++
				break
			}
		}
	}
	return n
}

// sortedCounts orders by count descending, then label ascending.
func sortedCounts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for label, n := range m {
		out = append(out, Count{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}
