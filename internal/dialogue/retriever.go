package dialogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/philippgille/chromem-go"
	"golang.org/x/sync/errgroup"

	"flou/internal/catalog"
	"flou/internal/embedding"
	"flou/internal/logging"
)

const indexConcurrency = 4

// SemanticSelector ranks feasible strategies by embedding similarity against
// the user's own words. The hard filters are identical to the rule policy;
// only the ranking differs. Any retrieval failure degrades to the rule
// ranking so selection stays total.
type SemanticSelector struct {
	catalog    *catalog.Catalog
	collection *chromem.Collection
	rules      *RuleSelector
	logger     logging.Logger
}

// NewSemanticSelector indexes the whole catalog up front. Strategy
// embeddings are computed once here, not per turn.
func NewSemanticSelector(ctx context.Context, cat *catalog.Catalog, embedder embedding.Embedder, logger logging.Logger) (*SemanticSelector, error) {
	logger = logging.OrNop(logger)

	embeddingFunc := func(ctx context.Context, text string) ([]float32, error) {
		return embedder.Embed(ctx, text)
	}

	db := chromem.NewDB()
	collection, err := db.GetOrCreateCollection("strategies", nil, embeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("create strategy collection: %w", err)
	}

	strategies := cat.Strategies()
	vectors := make([][]float32, len(strategies))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(indexConcurrency)
	for i, s := range strategies {
		g.Go(func() error {
			vec, err := embedder.Embed(gctx, s.EmbeddingText())
			if err != nil {
				return fmt.Errorf("embed strategy %q: %w", s.Name, err)
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, s := range strategies {
		err := collection.AddDocument(ctx, chromem.Document{
			ID:        s.Name,
			Content:   s.EmbeddingText(),
			Embedding: vectors[i],
		})
		if err != nil {
			return nil, fmt.Errorf("index strategy %q: %w", s.Name, err)
		}
	}

	logger.Info("strategy index ready: %d documents", collection.Count())
	return &SemanticSelector{
		catalog:    cat,
		collection: collection,
		rules:      NewRuleSelector(cat),
		logger:     logger,
	}, nil
}

// queryText prefers the user's own words; without them it falls back to a
// slot summary so retrieval still has a signal.
func queryText(input SelectionInput) string {
	if strings.TrimSpace(input.QueryText) != "" {
		return input.QueryText
	}
	parts := make([]string, 0, 3)
	if input.Slots.Feeling != "" {
		parts = append(parts, input.Slots.Feeling)
	}
	if input.Slots.TaskType != "" {
		parts = append(parts, input.Slots.TaskType)
	}
	if input.Slots.Phase != "" {
		parts = append(parts, input.Slots.Phase)
	}
	return strings.Join(parts, " ")
}

func (s *SemanticSelector) Select(ctx context.Context, input SelectionInput) catalog.Strategy {
	candidates := feasibleCandidates(s.catalog, input.Slots, input.Excluded)
	if len(candidates) == 0 {
		return catalog.Fallback()
	}

	query := queryText(input)
	if query == "" {
		return s.rules.Select(ctx, input)
	}

	topK := s.collection.Count()
	results, err := s.collection.Query(ctx, query, topK, nil, nil)
	if err != nil {
		s.logger.Warn("strategy retrieval failed, using rule ranking: %v", err)
		return s.rules.Select(ctx, input)
	}

	allowed := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		allowed[c.Name] = true
	}

	// Results come back ordered by similarity; the first feasible one wins.
	for _, r := range results {
		if !allowed[r.ID] {
			continue
		}
		if chosen, ok := s.catalog.ByName(r.ID); ok {
			return chosen
		}
	}
	return s.rules.Select(ctx, input)
}
