package usecase

import (
	"fmt"
	"strings"
	"time"

	"typeindex/config"
	"typeindex/internal/adapter/embedding"
	"typeindex/internal/adapter/retriever"
	"typeindex/internal/domain"
	"typeindex/internal/logging"
	"typeindex/internal/port"
)

const (
	maxQueryContentExamples = 10
	maxQueryHeaderExamples  = 5
)

// Embedder is the part of the embedding gateway the search service needs.
type Embedder interface {
	Embed(text string) ([]float32, error)
}

// SearchService answers similarity queries and writes vectors for the
// lifecycle manager.
type SearchService struct {
	embedder Embedder
	store    port.VectorStore
	ranker   *retriever.Ranker
	cfg      config.SearchConfig
	logger   *logging.Logger
	now      func() time.Time
}

// NewSearchService creates a new search service.
func NewSearchService(
	embedder Embedder,
	store port.VectorStore,
	ranker *retriever.Ranker,
	cfg config.SearchConfig,
	logger *logging.Logger,
) *SearchService {
	if logger == nil {
		logger = logging.NewDiscard()
	}
	if ranker == nil {
		ranker = retriever.NewRanker()
	}
	return &SearchService{
		embedder: embedder,
		store:    store,
		ranker:   ranker,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// BuildQueryText renders a generation request as the text to embed.
func BuildQueryText(req domain.GenerationRequest) string {
	var sb strings.Builder
	if req.Description != "" {
		sb.WriteString("Description: ")
		sb.WriteString(req.Description)
		sb.WriteString("\n")
	}
	if examples := firstN(req.PositiveContentExamples, maxQueryContentExamples); len(examples) > 0 {
		sb.WriteString("Examples: ")
		sb.WriteString(strings.Join(examples, ", "))
		sb.WriteString("\n")
	}
	if headers := firstN(req.PositiveHeaderExamples, maxQueryHeaderExamples); len(headers) > 0 {
		sb.WriteString("Header Examples: ")
		sb.WriteString(strings.Join(headers, ", "))
		sb.WriteString("\n")
	}
	return sb.String()
}

func firstN(values []string, n int) []string {
	if len(values) > n {
		return values[:n]
	}
	return values
}

func (s *SearchService) search(req domain.GenerationRequest, threshold float64, topK int) ([]domain.SimilarityResult, error) {
	query, err := s.embedder.Embed(BuildQueryText(req))
	if err != nil {
		return nil, err
	}

	records, err := s.store.GetAll()
	if err != nil {
		return nil, err
	}

	results, err := s.ranker.Rank(query, records, threshold, topK)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("similarity search: %d candidates, %d results (threshold %.2f)", len(records), len(results), threshold)
	return results, nil
}

// FindSimilarTypes returns up to TopK types scoring at least threshold.
func (s *SearchService) FindSimilarTypes(req domain.GenerationRequest, threshold float64) ([]domain.SimilarityResult, error) {
	return s.search(req, threshold, s.cfg.TopK)
}

// FindMostSimilarType returns the best match above the default threshold, or
// nil when nothing qualifies.
func (s *SearchService) FindMostSimilarType(req domain.GenerationRequest) (*domain.SimilarityResult, error) {
	results, err := s.search(req, s.cfg.DefaultThreshold, s.cfg.TopK)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	best := results[0]
	return &best, nil
}

// FindTopSimilarTypesForLLM returns the few strongest candidates for a
// downstream comparison step.
func (s *SearchService) FindTopSimilarTypesForLLM(req domain.GenerationRequest, threshold float64) ([]domain.SimilarityResult, error) {
	return s.search(req, threshold, s.cfg.TopKForLLM)
}

// DefaultThreshold is the threshold FindMostSimilarType uses.
func (s *SearchService) DefaultThreshold() float64 {
	return s.cfg.DefaultThreshold
}

// LLMThreshold is the default threshold for FindTopSimilarTypesForLLM.
func (s *SearchService) LLMThreshold() float64 {
	return s.cfg.LLMThreshold
}

// IndexSemanticType embeds one definition and stores its vector, replacing any
// previous vector for the same name.
func (s *SearchService) IndexSemanticType(t domain.SemanticType) error {
	if strings.TrimSpace(t.SemanticType) == "" {
		return domain.ErrNullRecord
	}

	examples := t.IndexExamples()
	text := embedding.BuildTypeDescriptionText(t.SemanticType, t.Description, examples)

	vec, err := s.embedder.Embed(text)
	if err != nil {
		return fmt.Errorf("failed to embed %s: %w", t.SemanticType, err)
	}

	now := s.now().UTC()
	record := &domain.VectorRecord{
		ID:           domain.GenerateVectorID(t.SemanticType),
		SemanticType: t.SemanticType,
		Type:         t.Kind(),
		Description:  t.Description,
		Embedding:    vec,
		OriginalText: text,
		PluginType:   t.PluginType,
		Examples:     examples,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return s.store.Store(record)
}

// IndexSemanticTypes indexes types in order and returns how many succeeded.
// In strict mode the first failure stops the pass and is returned; otherwise
// failures are logged and skipped. onIndexed, if set, runs after each success.
func (s *SearchService) IndexSemanticTypes(types []domain.SemanticType, strict bool, onIndexed func(domain.SemanticType)) (int, error) {
	indexed := 0
	for _, t := range types {
		if err := s.IndexSemanticType(t); err != nil {
			if strict {
				return indexed, err
			}
			s.logger.Error("failed to index type %s: %v", t.SemanticType, err)
			continue
		}
		indexed++
		if onIndexed != nil {
			onIndexed(t)
		}
	}
	return indexed, nil
}

func (s *SearchService) RemoveFromIndex(semanticType string) (bool, error) {
	return s.store.DeleteBySemanticType(semanticType)
}

func (s *SearchService) ClearIndex() (int, error) {
	return s.store.ClearAll()
}

func (s *SearchService) StoredVectorCount() (int, error) {
	return s.store.Count()
}
