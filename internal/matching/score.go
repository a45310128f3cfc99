package matching

import "admissions-workers/internal/models"

// ScoreFacts keeps facts for the quiz grade level or tagged "all".
func ScoreFacts(gradeLevel string, facts []models.FactRecord) []models.FactRecord {
	out := make([]models.FactRecord, 0, len(facts))
	for _, f := range facts {
		if f.GradeLevel == gradeLevel || f.GradeLevel == models.FactGradeAll {
			out = append(out, f)
		}
	}
	return out
}

// MatchScore is the presentation score for a ranking.
func MatchScore(storyCount, facultyCount int) int {
	storyBonus := min(storyCount*cardBonus, storyBonusCap)
	facultyBonus := min(facultyCount*cardBonus, facultyBonusCap)
	return min(MatchScoreBase+storyBonus+facultyBonus, MatchScoreCeiling)
}

// ClampProductScore forces any score into the product band.
func ClampProductScore(score int) int {
	return max(MatchScoreBase, min(score, MatchScoreCeiling))
}

// ApplyCardCap limits results to three cards with at most two stories.
func ApplyCardCap(stories []models.StoryRecord, faculty []models.FacultyRecord) ([]models.StoryRecord, []models.FacultyRecord) {
	storyCount := min(len(stories), MaxStoryCards)
	facultyCount := min(len(faculty), MaxCards-storyCount)
	return stories[:storyCount], faculty[:facultyCount]
}

// KeyInsights derives up to three short insights from the quiz.
func KeyInsights(quiz models.QuizResponse) []string {
	insights := make([]string, 0, 3)
	if len(quiz.Interests) > 0 {
		insights = append(insights, "Strong interest in "+quiz.Interests[0])
	}
	if quiz.HasFamilyValue(models.ValueSmallClasses) {
		insights = append(insights, "Values personalized attention")
	}
	if quiz.Timeline == models.TimelineThisYear {
		insights = append(insights, "Ready to start soon")
	}
	return insights
}

// Ranking is the engine-only view of a quiz against the knowledge base.
type Ranking struct {
	Stories     []models.StoryRecord   `json:"stories"`
	Faculty     []models.FacultyRecord `json:"faculty"`
	Facts       []models.FactRecord    `json:"facts"`
	MatchScore  int                    `json:"matchScore"`
	KeyInsights []string               `json:"keyInsights"`
}

// Rank runs all three scorers. MatchScore uses the uncapped counts.
func Rank(quiz models.QuizResponse, kb *models.KnowledgeContext) Ranking {
	stories := ScoreStories(quiz, kb.Stories)
	faculty := ScoreFaculty(quiz, kb.Faculty)
	return Ranking{
		Stories:     stories,
		Faculty:     faculty,
		Facts:       ScoreFacts(quiz.GradeLevel, kb.Facts),
		MatchScore:  MatchScore(len(stories), len(faculty)),
		KeyInsights: KeyInsights(quiz),
	}
}
