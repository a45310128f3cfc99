// internal/providers/reply.go
package providers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"admissions-workers/internal/common/validation"
	"admissions-workers/internal/matching"
	"admissions-workers/internal/models"
)

const (
	defaultReplyMessage = "We're excited to learn more about your child and show you what makes Saint Stephen's special!"
	maxKeyInsights      = 4
)

var (
	defaultKeyInsights         = []string{"Academic Excellence", "Character Development", "Community Focus"}
	defaultRecommendedPrograms = []string{"Liberal Arts", "Athletics", "Fine Arts"}
)

// replyIndex is a 1-based list position sent back by the model as a number or a numeric string.
type replyIndex int

func (i *replyIndex) UnmarshalJSON(data []byte) error {
	text := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		// unresolvable, ignored downstream
		*i = 0
		return nil
	}
	*i = replyIndex(f)
	return nil
}

// replyScore is the model's match score as a number or a numeric string.
// Unparseable text decodes to NaN and is treated as missing.
type replyScore float64

func (s *replyScore) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(strings.Trim(string(bytes.TrimSpace(data)), `"`))
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		*s = replyScore(math.NaN())
		return nil
	}
	*s = replyScore(f)
	return nil
}

// ModelReply is the JSON object the aggregator prompt asks for.
type ModelReply struct {
	MatchScore          *replyScore  `json:"matchScore"`
	PersonalizedMessage string       `json:"personalizedMessage"`
	MatchedStoryIDs     []replyIndex `json:"matchedStoryIds"`
	MatchedFacultyIDs   []replyIndex `json:"matchedFacultyIds"`
	KeyInsights         []string     `json:"keyInsights"`
	RecommendedPrograms []string     `json:"recommendedPrograms"`
}

// ExtractJSON returns the first balanced top-level {...} span in text.
// Braces inside JSON strings are ignored.
func ExtractJSON(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	for start != -1 {
		if out, ok := balancedObjectFrom(text, start); ok {
			return out, true
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next == -1 {
			break
		}
		start += next + 1
	}
	return "", false
}

func balancedObjectFrom(s string, startIdx int) (string, bool) {
	depth := 0
	inString := false
	escape := false

	for i := startIdx; i < len(s); i++ {
		c := s[i]
		if inString {
			if escape {
				escape = false
				continue
			}
			switch c {
			case '\\':
				escape = true
			case '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[startIdx : i+1], true
			}
		}
	}
	return "", false
}

// DecodeModelReply extracts and schema-checks the reply object.
func DecodeModelReply(content string) (*ModelReply, error) {
	raw, ok := ExtractJSON(content)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in reply", ErrModelOutputInvalid)
	}

	result, err := validation.ModelReplySchema.ValidateBytes([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelOutputInvalid, err)
	}
	if !result.Valid {
		return nil, fmt.Errorf("%w: %s", ErrModelOutputInvalid, result.Error())
	}

	var reply ModelReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelOutputInvalid, err)
	}
	return &reply, nil
}

// ParseModelReply turns a free-text model reply into a result. stories and
// faculty must be the lists enumerated in the prompt, in prompt order.
func ParseModelReply(content string, stories []models.StoryRecord, faculty []models.FacultyRecord) (*models.AnalysisResult, error) {
	reply, err := DecodeModelReply(content)
	if err != nil {
		return nil, err
	}

	score := float64(matching.FallbackMatchScore)
	if reply.MatchScore != nil {
		score = float64(*reply.MatchScore)
	}

	var matchedStories []models.StoryRecord
	seenStories := map[string]bool{}
	for _, idx := range reply.MatchedStoryIDs {
		if n := int(idx); n >= 1 && n <= len(stories) && !seenStories[stories[n-1].ID] {
			seenStories[stories[n-1].ID] = true
			matchedStories = append(matchedStories, stories[n-1])
		}
	}
	var matchedFaculty []models.FacultyRecord
	seenFaculty := map[string]bool{}
	for _, idx := range reply.MatchedFacultyIDs {
		if n := int(idx); n >= 1 && n <= len(faculty) && !seenFaculty[faculty[n-1].ID] {
			seenFaculty[faculty[n-1].ID] = true
			matchedFaculty = append(matchedFaculty, faculty[n-1])
		}
	}
	matchedStories, matchedFaculty = matching.ApplyCardCap(matchedStories, matchedFaculty)

	message := reply.PersonalizedMessage
	if strings.TrimSpace(message) == "" {
		message = defaultReplyMessage
	}

	insights := reply.KeyInsights
	if insights == nil {
		insights = append([]string(nil), defaultKeyInsights...)
	}
	if len(insights) > maxKeyInsights {
		insights = insights[:maxKeyInsights]
	}

	programs := reply.RecommendedPrograms
	if programs == nil {
		programs = append([]string(nil), defaultRecommendedPrograms...)
	}

	return &models.AnalysisResult{
		MatchScore:          clampScore(score),
		PersonalizedMessage: message,
		MatchedStories:      matchedStories,
		MatchedFaculty:      matchedFaculty,
		KeyInsights:         insights,
		RecommendedPrograms: programs,
	}, nil
}

func clampScore(score float64) int {
	if math.IsNaN(score) {
		return matching.FallbackMatchScore
	}
	return int(math.Round(math.Min(math.Max(score, 0), 100)))
}
