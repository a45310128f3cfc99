// internal/knowledge/postgres.go
package knowledge

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"admissions-workers/internal/models"
)

const (
	storiesQuery = `
		SELECT id, first_name, COALESCE(last_name, ''), COALESCE(class_year, ''), COALESCE(current_role, ''),
		       interests, COALESCE(story_tldr, ''), COALESCE(achievement, ''),
		       COALESCE(parent_quote, ''), COALESCE(student_quote, ''), COALESCE(quote, ''),
		       COALESCE(grade_level, ''), COALESCE(grade, ''), COALESCE(photo_url, ''), COALESCE(video_url, '')
		FROM kb_stories
		ORDER BY position, id`

	facultyQuery = `
		SELECT id, first_name, COALESCE(last_name, ''), COALESCE(title, ''), COALESCE(department, ''),
		       specializes_in, COALESCE(why_students_love_them, ''), COALESCE(bio, ''),
		       COALESCE(photo_url, ''), COALESCE(video_url, ''), is_administrator
		FROM kb_faculty
		ORDER BY position, id`

	factsQuery = `
		SELECT id, grade_level, fact, COALESCE(context, ''), COALESCE(category, '')
		FROM kb_facts
		ORDER BY position, id`
)

// PostgresSource reads the read-only kb_* tables. The position column keeps
// the curated order that the scorers use for tie-breaking.
type PostgresSource struct {
	DB *sql.DB
}

func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{DB: db}
}

func (s *PostgresSource) Load(ctx context.Context) (*models.KnowledgeContext, error) {
	stories, err := s.loadStories(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, CollectionStories, err)
	}
	faculty, err := s.loadFaculty(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, CollectionFaculty, err)
	}
	facts, err := s.loadFacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, CollectionFacts, err)
	}

	kb := &models.KnowledgeContext{Stories: stories, Faculty: faculty, Facts: facts}
	recordLoaded(kb)
	return kb, nil
}

func (s *PostgresSource) loadStories(ctx context.Context) ([]models.StoryRecord, error) {
	rows, err := s.DB.QueryContext(ctx, storiesQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.StoryRecord
	for rows.Next() {
		var r models.StoryRecord
		if err := rows.Scan(
			&r.ID, &r.FirstName, &r.LastName, &r.ClassYear, &r.CurrentRole,
			pq.Array(&r.Interests), &r.StoryTldr, &r.Achievement,
			&r.ParentQuote, &r.StudentQuote, &r.Quote,
			&r.GradeLevel, &r.Grade, &r.PhotoURL, &r.VideoURL,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresSource) loadFaculty(ctx context.Context) ([]models.FacultyRecord, error) {
	rows, err := s.DB.QueryContext(ctx, facultyQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.FacultyRecord
	for rows.Next() {
		var r models.FacultyRecord
		if err := rows.Scan(
			&r.ID, &r.FirstName, &r.LastName, &r.Title, &r.Department,
			pq.Array(&r.SpecializesIn), &r.WhyStudentsLoveThem, &r.Bio,
			&r.PhotoURL, &r.VideoURL, &r.IsAdministrator,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresSource) loadFacts(ctx context.Context) ([]models.FactRecord, error) {
	rows, err := s.DB.QueryContext(ctx, factsQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.FactRecord
	for rows.Next() {
		var r models.FactRecord
		if err := rows.Scan(&r.ID, &r.GradeLevel, &r.Fact, &r.Context, &r.Category); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
