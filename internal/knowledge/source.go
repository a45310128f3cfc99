// Package knowledge loads the stories, faculty and facts the matching engine ranks.
package knowledge

import (
	"context"
	"errors"

	"admissions-workers/internal/common/metrics"
	"admissions-workers/internal/models"
)

var (
	ErrLoadFailed = errors.New("KNOWLEDGE_BASE_LOAD_FAILED")
	ErrEmpty      = errors.New("KNOWLEDGE_BASE_EMPTY")
)

// Collection names, used as file stems, table suffixes, index suffixes and metric labels.
const (
	CollectionStories = "stories"
	CollectionAlumni  = "alumni"
	CollectionFaculty = "faculty"
	CollectionFacts   = "facts"
)

// Source loads one snapshot of the knowledge base.
type Source interface {
	Load(ctx context.Context) (*models.KnowledgeContext, error)
}

// recordLoaded publishes the collection sizes of a fresh snapshot.
func recordLoaded(kb *models.KnowledgeContext) {
	metrics.KnowledgeRecordsLoaded.WithLabelValues(CollectionStories).Set(float64(len(kb.Stories)))
	metrics.KnowledgeRecordsLoaded.WithLabelValues(CollectionFaculty).Set(float64(len(kb.Faculty)))
	metrics.KnowledgeRecordsLoaded.WithLabelValues(CollectionFacts).Set(float64(len(kb.Facts)))
}
