// internal/knowledge/elasticsearch.go
package knowledge

import (
	"context"
	"encoding/json"
	"fmt"

	"admissions-workers/internal/common/database"
	"admissions-workers/internal/models"
)

// maxDocuments bounds each match_all search; the knowledge base is a few hundred records.
const maxDocuments = 1000

// ElasticsearchSource reads the <prefix>-stories, <prefix>-faculty and <prefix>-facts indices.
type ElasticsearchSource struct {
	Client *database.ElasticsearchClient
	Prefix string
}

func NewElasticsearchSource(client *database.ElasticsearchClient, prefix string) *ElasticsearchSource {
	return &ElasticsearchSource{Client: client, Prefix: prefix}
}

func (s *ElasticsearchSource) index(collection string) string {
	if s.Prefix == "" {
		return collection
	}
	return s.Prefix + "-" + collection
}

func (s *ElasticsearchSource) Load(ctx context.Context) (*models.KnowledgeContext, error) {
	kb := &models.KnowledgeContext{}

	if err := s.search(ctx, CollectionStories, &kb.Stories); err != nil {
		return nil, err
	}
	if err := s.search(ctx, CollectionFaculty, &kb.Faculty); err != nil {
		return nil, err
	}
	if err := s.search(ctx, CollectionFacts, &kb.Facts); err != nil {
		return nil, err
	}

	recordLoaded(kb)
	return kb, nil
}

// search decodes every hit's _source into the slice pointed to by out.
func (s *ElasticsearchSource) search(ctx context.Context, collection string, out interface{}) error {
	sources, err := s.Client.MatchAll(ctx, s.index(collection), maxDocuments)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	payload, err := json.Marshal(sources)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrLoadFailed, collection, err)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrLoadFailed, collection, err)
	}
	return nil
}
