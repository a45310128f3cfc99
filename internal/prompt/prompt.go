// internal/prompt/prompt.go
package prompt

import (
	"fmt"
	"strings"

	"admissions-workers/internal/models"
)

// SystemPrompt fixes the persona for the local-inference completion.
const SystemPrompt = "You are an admissions counselor for Saint Stephen's Episcopal School. " +
	"Create warm, personalized messages that connect families with specific student success stories and faculty members."

// Build renders the user turn for the local-inference completion. Only the
// top story and the top faculty member are referenced. Facts are accepted so
// callers can pass the full ranking; the message template does not quote them.
func Build(quiz models.QuizResponse, stories []models.StoryRecord, faculty []models.FacultyRecord, facts []models.FactRecord) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Create a warm, personalized message for a parent considering Saint Stephen's for their %s student.", quiz.GradeLevel))
	parts = append(parts, fmt.Sprintf("\nParent's Description: \"%s\"", quiz.ChildDescription))
	parts = append(parts, fmt.Sprintf("Child's Interests: %s", strings.Join(quiz.Interests, ", ")))
	parts = append(parts, fmt.Sprintf("Family Values: %s", strings.Join(quiz.FamilyValues, ", ")))
	parts = append(parts, fmt.Sprintf("Timeline: %s", quiz.Timeline))

	parts = append(parts, "\nMatched Student Story:")
	if len(stories) > 0 {
		s := stories[0]
		parts = append(parts, fmt.Sprintf("%s's story: %s", s.FirstName, s.StoryTldr))
		parts = append(parts, fmt.Sprintf("Achievement: %s", s.Achievement))
	} else {
		parts = append(parts, "No specific match yet")
	}

	parts = append(parts, "\nMatched Faculty:")
	if len(faculty) > 0 {
		f := faculty[0]
		parts = append(parts, fmt.Sprintf("%s, %s", f.FirstName, f.Title))
		parts = append(parts, fmt.Sprintf("Why students love them: %s", f.WhyStudentsLoveThem))
	} else {
		parts = append(parts, "Our dedicated faculty")
	}

	parts = append(parts, "\nWrite a 2-3 paragraph message that:")
	parts = append(parts, "1. Acknowledges what makes their child unique (use their exact words when possible)")
	parts = append(parts, "2. Connects them to the specific student story or faculty member")
	parts = append(parts, "3. Ends with excitement about meeting them on a tour")
	parts = append(parts, "\nKeep it conversational, warm, and specific. Avoid generic education jargon.")

	return strings.Join(parts, "\n")
}

// GradeLabel maps a quiz grade level to display text. Unknown levels read as high school.
func GradeLabel(grade string) string {
	switch grade {
	case models.GradePreKK:
		return "Pre-K/Kindergarten"
	case models.GradeElementary:
		return "Elementary School"
	case models.GradeMiddle:
		return "Middle School"
	default:
		return "High School"
	}
}

// FallbackMessage is the fixed template used when no provider produced a message.
func FallbackMessage(quiz models.QuizResponse) string {
	interests := quiz.Interests
	if len(interests) > 2 {
		interests = interests[:2]
	}

	lines := []string{
		fmt.Sprintf("Thank you for sharing about your %s student! ", GradeLabel(quiz.GradeLevel)),
		fmt.Sprintf("Based on what you've told us about their interests in %s, ", strings.Join(interests, " and ")),
		"we believe Saint Stephen's could be an excellent fit.",
		"",
		"Our personalized approach to education, combined with our strong programs in these areas, ",
		"helps students like yours discover their unique potential. We'd love to show you how our ",
		"community can support your child's growth and development.",
		"",
		"We're excited to meet you and learn more about your family's educational journey. ",
		"Schedule your personalized tour to see our approach in action!",
	}
	return strings.Join(lines, "\n")
}
