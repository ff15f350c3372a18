package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/qachat/qa-backend/internal/config"
	"github.com/qachat/qa-backend/internal/entity"
	"github.com/qachat/qa-backend/internal/normalizer"
	"github.com/qachat/qa-backend/internal/repository"
)

// ChatUsecase resolves free-text questions against the knowledge base.
type ChatUsecase struct {
	embedder   Embedder
	searcher   Searcher
	entryRepo  repository.EntryRepository
	rephraser  Rephraser // nil when rephrasing is disabled
	cfg        config.SearchConfig
	queryCache *gocache.Cache
	logger     *zap.Logger
}

func NewUsecase(
	embedder Embedder,
	searcher Searcher,
	entryRepo repository.EntryRepository,
	rephraser Rephraser,
	cfg config.SearchConfig,
	logger *zap.Logger,
) *ChatUsecase {
	return &ChatUsecase{
		embedder:   embedder,
		searcher:   searcher,
		entryRepo:  entryRepo,
		rephraser:  rephraser,
		cfg:        cfg,
		queryCache: gocache.New(cfg.QueryCacheTTL, 2*cfg.QueryCacheTTL),
		logger:     logger,
	}
}

// Resolve normalizes and embeds the question, searches the index for top-K
// candidates, applies the similarity threshold and returns the best surviving
// candidate with the rest as supporting context. No surviving candidate is
// the NoMatch outcome, not an error. Embedding failure propagates; rephrasing
// failure degrades to the verbatim matched answer.
func (uc *ChatUsecase) Resolve(ctx context.Context, req *entity.QueryRequest) (*entity.QueryResult, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question", entity.ErrMissingField)
	}

	topK := req.TopK
	if topK <= 0 {
		topK = uc.cfg.TopK
	}
	if topK > uc.cfg.MaxTopK {
		topK = uc.cfg.MaxTopK
	}

	normalized := normalizer.Normalize(question)

	vector, err := uc.queryVector(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	matches := uc.searcher.Search(vector, topK)

	var candidates []entity.Candidate
	for _, m := range matches {
		if m.Score < uc.cfg.SimilarityThreshold {
			continue
		}
		entry, err := uc.entryRepo.GetByID(ctx, m.ID)
		if err != nil {
			// The entry was deleted after the index snapshot; evict the
			// stale vector so later queries stop hitting the dead id.
			ctxzap.Warn(ctx, "indexed entry missing from store, evicting",
				zap.String("entry_id", m.ID), zap.Error(err))
			uc.searcher.Remove(m.ID)
			continue
		}
		candidates = append(candidates, entity.Candidate{
			Entry:    entry,
			EntryID:  entry.ID,
			Question: entry.Question,
			Answer:   entry.Answer,
			Score:    m.Score,
		})
	}

	if len(candidates) == 0 {
		ctxzap.Info(ctx, "no candidate cleared the similarity threshold",
			zap.Int("raw_matches", len(matches)),
			zap.Float64("threshold", uc.cfg.SimilarityThreshold),
		)
		return &entity.QueryResult{Matched: false}, nil
	}

	primary := candidates[0]
	supporting := candidates[1:]

	result := &entity.QueryResult{
		Matched:         true,
		EntryID:         primary.Entry.ID,
		MatchedQuestion: primary.Entry.Question,
		Answer:          primary.Entry.Answer,
		Score:           primary.Score,
		Supporting:      supporting,
	}

	if uc.rephraser != nil {
		result.Answer, result.Rephrased = uc.rephrase(ctx, question, primary, supporting)
	}

	ctxzap.Info(ctx, "question resolved",
		zap.String("entry_id", primary.Entry.ID),
		zap.Float64("score", primary.Score),
		zap.Bool("rephrased", result.Rephrased),
	)

	return result, nil
}

// queryVector embeds the normalized question, with a short-lived cache so
// repeated identical questions skip the embedding round trip.
func (uc *ChatUsecase) queryVector(ctx context.Context, normalized string) ([]float32, error) {
	if cached, ok := uc.queryCache.Get(normalized); ok {
		return cached.([]float32), nil
	}

	vector, err := uc.embedder.Embed(ctx, normalized)
	if err != nil {
		return nil, err
	}

	uc.queryCache.Set(normalized, vector, gocache.DefaultExpiration)
	return vector, nil
}

// rephrase returns the displayed answer and whether it was rephrased.
func (uc *ChatUsecase) rephrase(ctx context.Context, question string, primary entity.Candidate, supporting []entity.Candidate) (string, bool) {
	contextParts := make([]string, 0, len(supporting))
	for _, c := range supporting {
		contextParts = append(contextParts, fmt.Sprintf("Q: %s\nA: %s", c.Entry.Question, c.Entry.Answer))
	}

	answer, err := uc.rephraser.Rephrase(ctx, &entity.RephraseRequest{
		Question:      question,
		MatchedAnswer: primary.Entry.Answer,
		Context:       contextParts,
	})
	if err != nil {
		ctxzap.Warn(ctx, "rephrasing failed, returning verbatim answer", zap.Error(err))
		return primary.Entry.Answer, false
	}

	return answer, true
}
