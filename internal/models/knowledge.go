// internal/models/knowledge.go
package models

import "strings"

// Story-side grade tags in addition to the quiz grade levels.
const (
	StoryGradeLower        = "lower"
	StoryGradeIntermediate = "intermediate"
	FactGradeAll           = "all"
)

// StoryRecord is a current student or alumni success story.
type StoryRecord struct {
	ID           string   `json:"id" db:"id"`
	FirstName    string   `json:"firstName" db:"first_name"`
	LastName     string   `json:"lastName,omitempty" db:"last_name"`
	ClassYear    string   `json:"classYear,omitempty" db:"class_year"`
	CurrentRole  string   `json:"currentRole,omitempty" db:"current_role"`
	Interests    []string `json:"interests" db:"interests"`
	StoryTldr    string   `json:"storyTldr" db:"story_tldr"`
	Achievement  string   `json:"achievement" db:"achievement"`
	ParentQuote  string   `json:"parentQuote,omitempty" db:"parent_quote"`
	StudentQuote string   `json:"studentQuote,omitempty" db:"student_quote"`
	Quote        string   `json:"quote,omitempty" db:"quote"`
	GradeLevel   string   `json:"gradeLevel,omitempty" db:"grade_level"`
	Grade        string   `json:"grade,omitempty" db:"grade"`
	PhotoURL     string   `json:"photoUrl,omitempty" db:"photo_url"`
	VideoURL     string   `json:"videoUrl,omitempty" db:"video_url"`
}

// FacultyRecord is a teacher or staff profile.
type FacultyRecord struct {
	ID                  string   `json:"id" db:"id"`
	FirstName           string   `json:"firstName" db:"first_name"`
	LastName            string   `json:"lastName,omitempty" db:"last_name"`
	Title               string   `json:"title" db:"title"`
	Department          string   `json:"department,omitempty" db:"department"`
	SpecializesIn       []string `json:"specializesIn" db:"specializes_in"`
	WhyStudentsLoveThem string   `json:"whyStudentsLoveThem" db:"why_students_love_them"`
	Bio                 string   `json:"bio,omitempty" db:"bio"`
	PhotoURL            string   `json:"photoUrl,omitempty" db:"photo_url"`
	VideoURL            string   `json:"videoUrl,omitempty" db:"video_url"`
	IsAdministrator     bool     `json:"isAdministrator,omitempty" db:"is_administrator"`
}

func (f FacultyRecord) HasVideo() bool {
	return strings.TrimSpace(f.VideoURL) != ""
}

// DisplayName joins first and last name, skipping an empty last name.
func (f FacultyRecord) DisplayName() string {
	return strings.TrimSpace(f.FirstName + " " + f.LastName)
}

// FactRecord is a school fact tagged with a grade level or "all".
type FactRecord struct {
	ID         string `json:"id" db:"id"`
	GradeLevel string `json:"gradeLevel" db:"grade_level"`
	Fact       string `json:"fact" db:"fact"`
	Context    string `json:"context" db:"context"`
	Category   string `json:"category,omitempty" db:"category"`
}

// KnowledgeContext is one loaded snapshot of the knowledge base.
type KnowledgeContext struct {
	Stories []StoryRecord   `json:"stories"`
	Faculty []FacultyRecord `json:"faculty"`
	Facts   []FactRecord    `json:"facts"`
}

func (k *KnowledgeContext) IsEmpty() bool {
	return len(k.Stories) == 0 && len(k.Faculty) == 0 && len(k.Facts) == 0
}
