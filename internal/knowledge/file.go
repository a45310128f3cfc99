// internal/knowledge/file.go
package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"admissions-workers/internal/common/validation"
	"admissions-workers/internal/models"
)

type storiesFile struct {
	Stories []models.StoryRecord `json:"stories"`
}

type facultyFile struct {
	Faculty []models.FacultyRecord `json:"faculty"`
}

type factsFile struct {
	Facts []models.FactRecord `json:"facts"`
}

// FileSource reads <Dir>/stories.json, faculty.json, facts.json and the optional alumni.json.
type FileSource struct {
	Dir string
}

func NewFileSource(dir string) *FileSource {
	return &FileSource{Dir: dir}
}

func (s *FileSource) path(collection string) string {
	return filepath.Join(s.Dir, collection+".json")
}

func (s *FileSource) Load(ctx context.Context) (*models.KnowledgeContext, error) {
	var stories storiesFile
	if err := readCollection(s.path(CollectionStories), validation.StoriesFileSchema, &stories); err != nil {
		return nil, err
	}

	var alumni storiesFile
	if err := readCollection(s.path(CollectionAlumni), validation.StoriesFileSchema, &alumni); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	var faculty facultyFile
	if err := readCollection(s.path(CollectionFaculty), validation.FacultyFileSchema, &faculty); err != nil {
		return nil, err
	}

	var facts factsFile
	if err := readCollection(s.path(CollectionFacts), validation.FactsFileSchema, &facts); err != nil {
		return nil, err
	}

	kb := &models.KnowledgeContext{
		Stories: append(stories.Stories, alumni.Stories...),
		Faculty: faculty.Faculty,
		Facts:   facts.Facts,
	}
	recordLoaded(kb)
	return kb, nil
}

// ReadStories reads one {"stories": [...]} file.
func ReadStories(path string) ([]models.StoryRecord, error) {
	var file storiesFile
	if err := readCollection(path, validation.StoriesFileSchema, &file); err != nil {
		return nil, err
	}
	return file.Stories, nil
}

// WriteStories writes stories as an indented {"stories": [...]} file.
func WriteStories(path string, stories []models.StoryRecord) error {
	if stories == nil {
		stories = []models.StoryRecord{}
	}
	data, err := json.MarshalIndent(storiesFile{Stories: stories}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal stories: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// ValidateFile schema-checks one knowledge file by collection name.
func ValidateFile(path, collection string) (*validation.ValidationResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	schema, ok := schemaFor(collection)
	if !ok {
		return nil, fmt.Errorf("unknown collection %q", collection)
	}
	return schema.ValidateBytes(data)
}

func schemaFor(collection string) (*validation.Schema, bool) {
	switch collection {
	case CollectionStories, CollectionAlumni:
		return validation.StoriesFileSchema, true
	case CollectionFaculty:
		return validation.FacultyFileSchema, true
	case CollectionFacts:
		return validation.FactsFileSchema, true
	}
	return nil, false
}

// readCollection returns an error wrapping fs.ErrNotExist for a missing file
// and ErrLoadFailed for anything unreadable or off-schema.
func readCollection(path string, schema *validation.Schema, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %w", ErrLoadFailed, err)
		}
		return fmt.Errorf("%w: read %s: %v", ErrLoadFailed, path, err)
	}

	result, err := schema.ValidateBytes(data)
	if err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrLoadFailed, path, err)
	}
	if !result.Valid {
		return fmt.Errorf("%w: %s: %s", ErrLoadFailed, path, result.Error())
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrLoadFailed, path, err)
	}
	return nil
}
