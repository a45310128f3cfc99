// Package matching ranks knowledge base records against a quiz response.
// Every function here is pure and deterministic; ties keep input order.
package matching

// Scoring weights.
const (
	InterestWeight       = 25
	GradeWeight          = 30
	TokenWeight          = 5
	SpecializationWeight = 25
	FamilyValuesBonus    = 20
	VideoBonus           = 50
)

// Match score band. The score is a presentation label, not a confidence:
// every result is kept inside [MatchScoreBase, MatchScoreCeiling].
const (
	MatchScoreBase     = 70
	MatchScoreCeiling  = 95
	FallbackMatchScore = 85

	cardBonus       = 5
	storyBonusCap   = 15
	facultyBonusCap = 10
)

// Result caps.
const (
	TopStories    = 3
	TopFaculty    = 3
	MaxCards      = 3
	MaxStoryCards = 2
)

// interestSynonyms maps a quiz interest to story tag fragments it also matches.
var interestSynonyms = map[string][]string{
	"stem":       {"science", "tech", "engineering", "robot"},
	"technology": {"tech", "coding", "innovation"},
	"business":   {"entrepreneurship"},
	"athletics":  {"sport"},
}

// storyGradeLevels maps a story grade tag to the quiz grade levels it serves.
var storyGradeLevels = map[string][]string{
	"lower":        {"prek-k", "elementary"},
	"intermediate": {"elementary"},
	"middle":       {"middle"},
	"high":         {"high"},
}
