package retriever

import (
	"fmt"
	"math"
	"sort"

	"typeindex/internal/adapter/embedding"
	"typeindex/internal/domain"
)

// Ranker scores candidates against a query vector by cosine similarity.
type Ranker struct{}

// NewRanker creates a new ranker.
func NewRanker() *Ranker {
	return &Ranker{}
}

type scoredRecord struct {
	record *domain.VectorRecord
	score  float64
}

// Rank keeps candidates scoring at least threshold, best first, at most topK.
// Ties keep candidate order. A NaN score never qualifies. Any scoring error
// fails the whole call.
func (r *Ranker) Rank(query []float32, candidates []domain.VectorRecord, threshold float64, topK int) ([]domain.SimilarityResult, error) {
	if topK <= 0 {
		return []domain.SimilarityResult{}, nil
	}

	scored := make([]scoredRecord, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		if len(c.Embedding) == 0 {
			return nil, fmt.Errorf("%w: %s has no embedding", domain.ErrDimensionMismatch, c.SemanticType)
		}

		score, err := embedding.CosineSimilarity(query, c.Embedding)
		if err != nil {
			return nil, fmt.Errorf("scoring %s: %w", c.SemanticType, err)
		}
		if math.IsNaN(score) || score < threshold {
			continue
		}
		scored = append(scored, scoredRecord{record: c, score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}

	results := make([]domain.SimilarityResult, 0, len(scored))
	for _, s := range scored {
		results = append(results, domain.SimilarityResult{
			SemanticType:    s.record.SemanticType,
			Description:     s.record.Description,
			SimilarityScore: s.score,
			Type:            s.record.Type,
			PluginType:      s.record.PluginType,
			Examples:        s.record.Examples,
		})
	}
	return results, nil
}
