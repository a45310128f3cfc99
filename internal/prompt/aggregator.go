// internal/prompt/aggregator.go
package prompt

import (
	"fmt"
	"strings"

	"admissions-workers/internal/models"
)

// MaxListed bounds how many stories and faculty are enumerated for the model.
const MaxListed = 10

// AggregatorSystemPrompt is the persona used by the hosted and aggregator providers.
const AggregatorSystemPrompt = "You are an expert school counselor helping match prospective students with appropriate programs " +
	"and mentors at Saint Stephen's Episcopal School. Provide personalized, encouraging responses based on the student's characteristics."

var characteristicLabels = map[string]string{
	"curious":      "naturally curious",
	"focused":      "strong focus",
	"creative":     "creative thinker",
	"analytical":   "analytical mind",
	"outgoing":     "outgoing and social",
	"thoughtful":   "thoughtful and considerate",
	"leader":       "natural leader",
	"collaborator": "team player",
	"arts":         "interested in arts & creativity",
	"sports":       "enjoys sports & movement",
	"stem":         "passionate about science & technology",
	"service":      "values helping others",
	"hands-on":     "hands-on learner",
	"visual":       "visual learner",
	"discussion":   "learns through discussion",
	"independent":  "independent learner",
}

// CharacteristicLabel returns the phrase for a characteristic tag, or the tag itself.
func CharacteristicLabel(id string) string {
	if label, ok := characteristicLabels[id]; ok {
		return label
	}
	return id
}

// ListedStories returns the stories enumerated in the aggregator prompt.
// Index i in the result is presented to the model as i+1.
func ListedStories(kb *models.KnowledgeContext) []models.StoryRecord {
	if kb == nil {
		return nil
	}
	if len(kb.Stories) > MaxListed {
		return kb.Stories[:MaxListed]
	}
	return kb.Stories
}

// ListedFaculty returns the faculty enumerated in the aggregator prompt.
func ListedFaculty(kb *models.KnowledgeContext) []models.FacultyRecord {
	if kb == nil {
		return nil
	}
	if len(kb.Faculty) > MaxListed {
		return kb.Faculty[:MaxListed]
	}
	return kb.Faculty
}

// BuildAggregator renders the analysis request that asks the model for a JSON reply.
func BuildAggregator(quiz models.QuizResponse, kb *models.KnowledgeContext) string {
	var parts []string

	labels := make([]string, 0, len(quiz.SelectedCharacteristics))
	for _, id := range quiz.SelectedCharacteristics {
		labels = append(labels, CharacteristicLabel(id))
	}

	parts = append(parts, "Analyze this prospective student profile and match them with relevant student stories and faculty at Saint Stephen's Episcopal School.")
	parts = append(parts, "\nSTUDENT PROFILE:")
	parts = append(parts, fmt.Sprintf("- Grade Level: %s", quiz.GradeLevel))
	parts = append(parts, fmt.Sprintf("- Selected Characteristics: %s", orDefault(strings.Join(labels, ", "), "None specified")))
	parts = append(parts, fmt.Sprintf("- Interests: %s", orDefault(strings.Join(quiz.Interests, ", "), "None specified")))
	parts = append(parts, fmt.Sprintf("- Family Values: %s", orDefault(strings.Join(quiz.FamilyValues, ", "), "None specified")))
	parts = append(parts, fmt.Sprintf("- Timeline: %s", orDefault(quiz.Timeline, "Not specified")))
	parts = append(parts, fmt.Sprintf("- Additional Notes: %s", orDefault(quiz.AdditionalNotes, "None provided")))
	parts = append(parts, fmt.Sprintf("- Parent Description: %s", orDefault(quiz.ChildDescription, "None provided")))

	parts = append(parts, "\nAVAILABLE STUDENT STORIES:")
	for i, s := range ListedStories(kb) {
		parts = append(parts, fmt.Sprintf("%d. %s (Grade %s): %s - Interests: %s",
			i+1, s.FirstName, s.Grade, s.Achievement, orDefault(strings.Join(s.Interests, ", "), "Not specified")))
	}

	parts = append(parts, "\nAVAILABLE FACULTY:")
	for i, f := range ListedFaculty(kb) {
		parts = append(parts, fmt.Sprintf("%d. %s %s - %s - Specializes in: %s",
			i+1, f.FirstName, f.LastName, f.Title, orDefault(strings.Join(f.SpecializesIn, ", "), "General education")))
	}

	parts = append(parts, "\nPlease provide a JSON response with:")
	parts = append(parts, "{")
	parts = append(parts, `  "matchScore": number (0-100),`)
	parts = append(parts, `  "personalizedMessage": "encouraging message about why this is a great match",`)
	parts = append(parts, `  "matchedStoryIds": [array of 1-2 most relevant story indices],`)
	parts = append(parts, `  "matchedFacultyIds": [array of 1-2 most relevant faculty indices],`)
	parts = append(parts, `  "keyInsights": [array of 3-4 key strengths/interests],`)
	parts = append(parts, `  "recommendedPrograms": [array of 2-3 specific programs that would interest this student]`)
	parts = append(parts, "}")
	parts = append(parts, "\nFocus on making genuine connections between the student's characteristics and the school's offerings. Be encouraging and specific.")

	return strings.Join(parts, "\n")
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
