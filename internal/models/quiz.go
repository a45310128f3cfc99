// internal/models/quiz.go
package models

import (
	"admissions-workers/internal/common/errors"
	"admissions-workers/internal/common/validation"
)

// Quiz grade levels.
const (
	GradePreKK      = "prek-k"
	GradeElementary = "elementary"
	GradeMiddle     = "middle"
	GradeHigh       = "high"
)

// Family values offered by the quiz.
const (
	ValueSmallClasses       = "small_classes"
	ValueMentorship         = "mentorship"
	ValueAcademicExcellence = "academic_excellence"
	ValueGlobalPerspective  = "global_perspective"
	ValueCharacterBuilding  = "character_building"
	ValueSafeEnvironment    = "safe_environment"
	ValueInnovation         = "innovation"
)

// Enrollment timelines.
const (
	TimelineThisYear      = "this_year"
	TimelineNextFall      = "next_fall"
	TimelineWithin2Years  = "within_2_years"
	TimelineJustExploring = "just_exploring"
)

// Current situations.
const (
	SituationNewToArea        = "new_to_area"
	SituationSeekingChange    = "seeking_change"
	SituationPlanningAhead    = "planning_ahead"
	SituationExploringOptions = "exploring_options"
)

// QuizResponse is the answer set submitted by a prospective family.
type QuizResponse struct {
	GradeLevel              string   `json:"gradeLevel"`
	CurrentSituation        string   `json:"currentSituation,omitempty"`
	Interests               []string `json:"interests"`
	FamilyValues            []string `json:"familyValues"`
	Timeline                string   `json:"timeline,omitempty"`
	ChildDescription        string   `json:"childDescription"`
	SelectedCharacteristics []string `json:"selectedCharacteristics,omitempty"`
	AdditionalNotes         string   `json:"additionalNotes,omitempty"`
	VoiceTranscript         string   `json:"voiceTranscript,omitempty"`
}

// Validate enforces the quiz form limits. Empty free-text fields are allowed.
func (q *QuizResponse) Validate() error {
	result, err := validation.QuizSchema.ValidateGo(q)
	if err != nil {
		return errors.NewQuizValidationFailedError(err.Error())
	}
	if !result.Valid {
		return errors.NewQuizValidationFailedError(result.Error())
	}
	return nil
}

// HasFamilyValue reports whether the family selected the value token.
// Tokens are compared exactly.
func (q *QuizResponse) HasFamilyValue(value string) bool {
	for _, v := range q.FamilyValues {
		if v == value {
			return true
		}
	}
	return false
}
