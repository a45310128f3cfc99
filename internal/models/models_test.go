package models

import (
	"strings"
	"testing"

	"admissions-workers/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuizResponse_Validate(t *testing.T) {
	tests := []struct {
		name    string
		quiz    QuizResponse
		wantErr bool
	}{
		{
			name:    "all free text empty is accepted",
			quiz:    QuizResponse{GradeLevel: GradeHigh},
			wantErr: false,
		},
		{
			name: "full quiz",
			quiz: QuizResponse{
				GradeLevel:              GradeMiddle,
				Interests:               []string{"science", "arts"},
				FamilyValues:            []string{ValueSmallClasses},
				Timeline:                TimelineThisYear,
				ChildDescription:        "Loves building robots",
				SelectedCharacteristics: []string{"curious", "hands-on"},
			},
			wantErr: false,
		},
		{
			name:    "six interests",
			quiz:    QuizResponse{GradeLevel: GradeHigh, Interests: []string{"a", "b", "c", "d", "e", "f"}},
			wantErr: true,
		},
		{
			name:    "notes too long",
			quiz:    QuizResponse{GradeLevel: GradeHigh, AdditionalNotes: strings.Repeat("x", 301)},
			wantErr: true,
		},
		{
			name:    "unknown grade",
			quiz:    QuizResponse{GradeLevel: "lower"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.quiz.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			stdErr, ok := err.(*errors.StandardError)
			require.True(t, ok)
			assert.Equal(t, errors.ErrCodeQuizValidationFailed, stdErr.Code)
		})
	}
}

func TestQuizResponse_HasFamilyValue(t *testing.T) {
	q := QuizResponse{FamilyValues: []string{ValueMentorship, "Small_Classes"}}
	assert.True(t, q.HasFamilyValue(ValueMentorship))
	assert.False(t, q.HasFamilyValue(ValueSmallClasses))
}

func TestFacultyRecord_Helpers(t *testing.T) {
	f := FacultyRecord{FirstName: "Maria", VideoURL: "  "}
	assert.False(t, f.HasVideo())
	assert.Equal(t, "Maria", f.DisplayName())

	f.LastName = "Lopez"
	f.VideoURL = "https://video.example/maria.mp4"
	assert.True(t, f.HasVideo())
	assert.Equal(t, "Maria Lopez", f.DisplayName())
}

func TestSettings_Merge(t *testing.T) {
	base := Settings{AIProvider: ProviderOpenRouter, OpenRouterKey: "env-key", VoiceProvider: ProviderBrowser}
	override := Settings{OpenAIKey: "ui-key", VoiceEnabled: true}

	merged := override.Merge(base)

	assert.Equal(t, ProviderOpenRouter, merged.AIProvider)
	assert.Equal(t, "env-key", merged.OpenRouterKey)
	assert.Equal(t, "ui-key", merged.OpenAIKey)
	assert.Equal(t, ProviderBrowser, merged.VoiceProvider)
	assert.True(t, merged.VoiceEnabled)
}
