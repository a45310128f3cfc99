package matching

import (
	"sort"
	"strings"

	"admissions-workers/internal/models"
)

type scoredStory struct {
	story models.StoryRecord
	score int
}

// ScoreStories returns the top three stories by descending score.
func ScoreStories(quiz models.QuizResponse, stories []models.StoryRecord) []models.StoryRecord {
	scored := make([]scoredStory, 0, len(stories))
	for _, s := range stories {
		scored = append(scored, scoredStory{story: s, score: StoryScore(quiz, s)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	n := len(scored)
	if n > TopStories {
		n = TopStories
	}
	out := make([]models.StoryRecord, 0, n)
	for _, s := range scored[:n] {
		out = append(out, s.story)
	}
	return out
}

// StoryScore sums interest overlap, grade compatibility and description token overlap.
func StoryScore(quiz models.QuizResponse, story models.StoryRecord) int {
	score := 0

	for _, tag := range story.Interests {
		if tagMatchesAnyInterest(tag, quiz.Interests) {
			score += InterestWeight
		}
	}

	if gradeCompatible(story.GradeLevel, quiz.GradeLevel) {
		score += GradeWeight
	}

	score += sharedTokenCount(quiz.ChildDescription, story.StoryTldr) * TokenWeight

	return score
}

func tagMatchesAnyInterest(tag string, interests []string) bool {
	storyTag := strings.ToLower(tag)
	for _, qi := range interests {
		quizInterest := strings.ToLower(qi)
		if quizInterest == "" || storyTag == "" {
			continue
		}
		if strings.Contains(storyTag, quizInterest) || strings.Contains(quizInterest, storyTag) {
			return true
		}
		for _, fragment := range interestSynonyms[quizInterest] {
			if strings.Contains(storyTag, fragment) {
				return true
			}
		}
	}
	return false
}

func gradeCompatible(storyGrade, quizGrade string) bool {
	if storyGrade == "" {
		return false
	}
	for _, g := range storyGradeLevels[storyGrade] {
		if g == quizGrade {
			return true
		}
	}
	return false
}

// sharedTokenCount counts description tokens (with repeats) that also occur in the summary.
func sharedTokenCount(description, summary string) int {
	summaryTokens := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(summary)) {
		summaryTokens[w] = struct{}{}
	}

	count := 0
	for _, w := range strings.Fields(strings.ToLower(description)) {
		if _, ok := summaryTokens[w]; ok {
			count++
		}
	}
	return count
}
