// Package validation holds the JSON schemas for quiz input, model replies and knowledge files.
package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Error joins all field errors into one message.
func (r *ValidationResult) Error() string {
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(parts, "; ")
}

// Schema is a compiled JSON schema.
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

// MustCompile compiles a schema from its JSON text and panics on error.
func MustCompile(name, text string) *Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(text))
	if err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	return &Schema{name: name, schema: s}
}

func (s *Schema) Name() string { return s.name }

// ValidateGo validates any Go value (structs are validated through their JSON form).
func (s *Schema) ValidateGo(doc interface{}) (*ValidationResult, error) {
	return s.validate(gojsonschema.NewGoLoader(doc))
}

// ValidateBytes validates raw JSON.
func (s *Schema) ValidateBytes(doc []byte) (*ValidationResult, error) {
	return s.validate(gojsonschema.NewBytesLoader(doc))
}

func (s *Schema) validate(loader gojsonschema.JSONLoader) (*ValidationResult, error) {
	result, err := s.schema.Validate(loader)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, e := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   e.Field(),
			Message: e.Description(),
			Code:    strings.ToUpper(e.Type()),
		})
	}
	sort.SliceStable(out.Errors, func(i, j int) bool { return out.Errors[i].Field < out.Errors[j].Field })
	return out, nil
}

var (
	// QuizSchema mirrors the limits the quiz form enforces.
	QuizSchema = MustCompile("quiz", `{
		"type": "object",
		"required": ["gradeLevel"],
		"properties": {
			"gradeLevel": {"type": "string", "enum": ["prek-k", "elementary", "middle", "high"]},
			"currentSituation": {"type": "string"},
			"interests": {"type": ["array", "null"], "maxItems": 5, "uniqueItems": true, "items": {"type": "string"}},
			"familyValues": {"type": ["array", "null"], "maxItems": 3, "uniqueItems": true, "items": {"type": "string"}},
			"timeline": {"type": "string"},
			"childDescription": {"type": "string", "maxLength": 500},
			"selectedCharacteristics": {"type": ["array", "null"], "uniqueItems": true, "items": {"type": "string"}},
			"additionalNotes": {"type": "string", "maxLength": 300},
			"voiceTranscript": {"type": "string"}
		}
	}`)

	// ModelReplySchema accepts partial replies; missing or null keys get defaults downstream.
	ModelReplySchema = MustCompile("model-reply", `{
		"type": "object",
		"properties": {
			"matchScore": {"type": ["number", "string", "null"], "pattern": "^\\s*-?[0-9]+(\\.[0-9]+)?\\s*$"},
			"personalizedMessage": {"type": ["string", "null"]},
			"matchedStoryIds": {"type": ["array", "null"], "items": {"type": ["integer", "string", "null"]}},
			"matchedFacultyIds": {"type": ["array", "null"], "items": {"type": ["integer", "string", "null"]}},
			"keyInsights": {"type": ["array", "null"], "items": {"type": "string"}},
			"recommendedPrograms": {"type": ["array", "null"], "items": {"type": "string"}}
		}
	}`)

	StoriesFileSchema = MustCompile("stories", `{
		"type": "object",
		"required": ["stories"],
		"properties": {
			"stories": {"type": "array", "items": {
				"type": "object",
				"required": ["id", "firstName"],
				"properties": {
					"id": {"type": "string"},
					"firstName": {"type": "string"},
					"interests": {"type": "array", "items": {"type": "string"}},
					"storyTldr": {"type": "string"},
					"achievement": {"type": "string"},
					"gradeLevel": {"type": "string"}
				}
			}}
		}
	}`)

	FacultyFileSchema = MustCompile("faculty", `{
		"type": "object",
		"required": ["faculty"],
		"properties": {
			"faculty": {"type": "array", "items": {
				"type": "object",
				"required": ["id", "firstName"],
				"properties": {
					"id": {"type": "string"},
					"firstName": {"type": "string"},
					"title": {"type": "string"},
					"specializesIn": {"type": "array", "items": {"type": "string"}},
					"whyStudentsLoveThem": {"type": "string"},
					"isAdministrator": {"type": "boolean"}
				}
			}}
		}
	}`)

	FactsFileSchema = MustCompile("facts", `{
		"type": "object",
		"required": ["facts"],
		"properties": {
			"facts": {"type": "array", "items": {
				"type": "object",
				"required": ["id", "fact"],
				"properties": {
					"id": {"type": "string"},
					"gradeLevel": {"type": "string"},
					"fact": {"type": "string"},
					"context": {"type": "string"},
					"category": {"type": "string"}
				}
			}}
		}
	}`)

	AlumniExportSchema = MustCompile("alumni-export", `{
		"type": "object",
		"required": ["alumni"],
		"properties": {
			"alumni": {"type": "array", "items": {
				"type": "object",
				"required": ["id", "name"],
				"properties": {
					"id": {"type": "string"},
					"name": {"type": "string", "minLength": 1},
					"graduationYear": {"type": ["integer", "string"]},
					"position": {"type": "string"},
					"company": {"type": "string"},
					"story": {"type": "string"},
					"tags": {"type": "array", "items": {"type": "string"}},
					"quote": {"type": "string"}
				}
			}}
		}
	}`)
)
