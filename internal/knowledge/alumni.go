// internal/knowledge/alumni.go
package knowledge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"admissions-workers/internal/common/validation"
	"admissions-workers/internal/models"
)

const (
	alumniPhotoPlaceholder = "/images/alumni/placeholder-alumni.jpg"
	alumniTldrLength       = 60
)

// GraduationYear accepts the year as a JSON number or string.
type GraduationYear string

func (y *GraduationYear) UnmarshalJSON(data []byte) error {
	*y = GraduationYear(strings.Trim(string(bytes.TrimSpace(data)), `"`))
	if *y == "null" {
		*y = ""
	}
	return nil
}

// Alumnus is one entry of an alumni relations export.
type Alumnus struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	GraduationYear GraduationYear `json:"graduationYear"`
	Position       string         `json:"position"`
	Company        string         `json:"company"`
	Story          string         `json:"story"`
	Tags           []string       `json:"tags"`
	Quote          string         `json:"quote"`
}

// AlumniExport is the {"alumni": [...]} export file.
type AlumniExport struct {
	Alumni []Alumnus `json:"alumni"`
}

// ReadAlumniExport reads and schema-checks an export file.
func ReadAlumniExport(path string) (*AlumniExport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	result, err := validation.AlumniExportSchema.ValidateBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if !result.Valid {
		return nil, fmt.Errorf("%s: %s", path, result.Error())
	}

	var export AlumniExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &export, nil
}

// ToStory converts an export entry into a high-school alumni story.
func (a Alumnus) ToStory() models.StoryRecord {
	fields := strings.Fields(a.Name)
	var first, last string
	if len(fields) > 0 {
		first = fields[0]
		last = strings.Join(fields[1:], " ")
	}

	role := fmt.Sprintf("%s at %s", a.Position, a.Company)
	interests := a.Tags
	if interests == nil {
		interests = []string{}
	}

	return models.StoryRecord{
		ID:          a.ID,
		FirstName:   first,
		LastName:    last,
		ClassYear:   string(a.GraduationYear),
		CurrentRole: role,
		PhotoURL:    alumniPhotoPlaceholder,
		Interests:   interests,
		StoryTldr:   storyTldr(a.Story),
		Achievement: role,
		Quote:       a.Quote,
		GradeLevel:  models.GradeHigh,
	}
}

// storyTldr keeps the first sentence, cut to 60 characters, plus an ellipsis.
func storyTldr(story string) string {
	first, _, _ := strings.Cut(story, ".")
	runes := []rune(first)
	if len(runes) > alumniTldrLength {
		runes = runes[:alumniTldrLength]
	}
	return string(runes) + "..."
}

func dedupeKey(first, last string) string {
	return strings.ToLower(first) + "_" + strings.ToLower(last)
}

// MergeAlumni appends converted export entries whose first_last name is not
// already present in existing. Entries within one export are not deduplicated
// against each other.
func MergeAlumni(existing []models.StoryRecord, export AlumniExport) (merged []models.StoryRecord, added, skipped int) {
	seen := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		seen[dedupeKey(s.FirstName, s.LastName)] = struct{}{}
	}

	merged = append(make([]models.StoryRecord, 0, len(existing)+len(export.Alumni)), existing...)
	for _, a := range export.Alumni {
		story := a.ToStory()
		if _, dup := seen[dedupeKey(story.FirstName, story.LastName)]; dup {
			skipped++
			continue
		}
		merged = append(merged, story)
		added++
	}
	return merged, added, skipped
}
