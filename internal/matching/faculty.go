package matching

import (
	"sort"
	"strings"

	"admissions-workers/internal/models"
)

type scoredFaculty struct {
	faculty models.FacultyRecord
	score   int
}

// ScoreFaculty excludes administrators, ranks video and non-video profiles
// separately, then takes the best video profile first and alternates.
func ScoreFaculty(quiz models.QuizResponse, faculty []models.FacultyRecord) []models.FacultyRecord {
	var withVideo, withoutVideo []scoredFaculty
	for _, f := range faculty {
		if f.IsAdministrator {
			continue
		}
		score := FacultyScore(quiz, f)
		if f.HasVideo() {
			withVideo = append(withVideo, scoredFaculty{faculty: f, score: score + VideoBonus})
		} else {
			withoutVideo = append(withoutVideo, scoredFaculty{faculty: f, score: score})
		}
	}

	byScore := func(list []scoredFaculty) {
		sort.SliceStable(list, func(i, j int) bool { return list[i].score > list[j].score })
	}
	byScore(withVideo)
	byScore(withoutVideo)

	results := make([]models.FacultyRecord, 0, TopFaculty)
	if len(withVideo) > 0 {
		results = append(results, withVideo[0].faculty)
	}

	videoIdx, plainIdx := 1, 0
	for len(results) < TopFaculty && (videoIdx < len(withVideo) || plainIdx < len(withoutVideo)) {
		if videoIdx < len(withVideo) {
			results = append(results, withVideo[videoIdx].faculty)
			videoIdx++
		}
		if len(results) < TopFaculty && plainIdx < len(withoutVideo) {
			results = append(results, withoutVideo[plainIdx].faculty)
			plainIdx++
		}
	}

	return results
}

// FacultyScore counts specializations contained in a quiz interest, plus the
// flat family-values bonus. The bonus applies to every profile equally.
func FacultyScore(quiz models.QuizResponse, f models.FacultyRecord) int {
	score := 0
	for _, spec := range f.SpecializesIn {
		s := strings.ToLower(spec)
		if s == "" {
			continue
		}
		for _, interest := range quiz.Interests {
			if strings.Contains(strings.ToLower(interest), s) {
				score += SpecializationWeight
				break
			}
		}
	}

	if quiz.HasFamilyValue(models.ValueSmallClasses) || quiz.HasFamilyValue(models.ValueMentorship) {
		score += FamilyValuesBonus
	}
	return score
}
