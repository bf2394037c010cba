// Package resolution maps free-text names (and identity vectors) to
// person nodes. Name matching is two-stage: a trigram similarity scan in
// the store narrows the field, then an in-process edit-distance pass
// re-ranks the survivors.
package resolution

import (
	"context"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/orgtrail/orgtrail-go/internal/config"
	"github.com/orgtrail/orgtrail-go/internal/ingestion"
	"github.com/orgtrail/orgtrail-go/internal/logging"
	"github.com/orgtrail/orgtrail-go/internal/models"
)

// Match is one candidate person for a name query. Similarity is the
// trigram score from the store (0 for ILIKE-fallback hits); Distance is
// the in-process edit distance, -1 when the ranker found no match.
type Match struct {
	ID         int64   `json:"id" db:"id"`
	Name       string  `json:"name" db:"name"`
	CleanName  string  `json:"clean_name" db:"clean_name"`
	Similarity float64 `json:"similarity" db:"similarity"`
	Distance   int     `json:"distance" db:"-"`
}

// Resolver answers person-lookup queries over the read-side handle.
type Resolver struct {
	db     *sqlx.DB
	cfg    config.QueryConfig
	logger *logging.Logger
}

// NewResolver creates a resolver.
func NewResolver(db *sqlx.DB, cfg config.QueryConfig) *Resolver {
	if cfg.FuzzyLimit <= 0 {
		cfg.FuzzyLimit = 10
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = 0.3
	}
	return &Resolver{
		db:     db,
		cfg:    cfg,
		logger: logging.With("component", "resolution"),
	}
}

const trigramSearchSQL = `
	SELECT id, name, clean_name, similarity(clean_name, $1) AS similarity
	FROM people
	WHERE similarity(clean_name, $1) >= $2
	ORDER BY similarity DESC, id
	LIMIT $3
`

const ilikeSearchSQL = `
	SELECT id, name, clean_name, 0::float8 AS similarity
	FROM people
	WHERE clean_name ILIKE '%' || $1 || '%'
	ORDER BY clean_name, id
	LIMIT $2
`

// SearchPerson finds people whose normalized name resembles the query.
// Trigram candidates come back first; when the threshold yields nothing
// (short queries score poorly on trigrams) a substring scan fills in.
// Results are re-ranked by edit distance so "jon tan" places "john tan"
// above "jonathan tanaka" even when their trigram scores tie.
func (r *Resolver) SearchPerson(ctx context.Context, query string) ([]Match, error) {
	clean := ingestion.NormalizeName(query)
	if clean == "" {
		return nil, fmt.Errorf("empty search query")
	}

	var matches []Match
	err := r.db.SelectContext(ctx, &matches, trigramSearchSQL, clean, r.cfg.SimilarityThreshold, r.cfg.FuzzyLimit)
	if err != nil {
		return nil, fmt.Errorf("trigram search %q: %w", clean, err)
	}

	if len(matches) == 0 {
		if err := r.db.SelectContext(ctx, &matches, ilikeSearchSQL, clean, r.cfg.FuzzyLimit); err != nil {
			return nil, fmt.Errorf("substring search %q: %w", clean, err)
		}
	}

	rerank(clean, matches)
	r.logger.Debug("person search", "query", clean, "matches", len(matches))
	return matches, nil
}

// rerank orders candidates by edit distance to the query, breaking ties
// with the store-side similarity and then id for a stable result.
func rerank(query string, matches []Match) {
	for i := range matches {
		matches[i].Distance = fuzzy.RankMatchNormalizedFold(query, matches[i].CleanName)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		di, dj := rankKey(matches[i].Distance), rankKey(matches[j].Distance)
		if di != dj {
			return di < dj
		}
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].ID < matches[j].ID
	})
}

// rankKey maps the ranker's no-match sentinel below every real distance.
func rankKey(d int) int {
	if d < 0 {
		return int(^uint(0) >> 1)
	}
	return d
}

const embeddingSearchSQL = `
	SELECT id, name, clean_name, (embedding <=> $1::vector)::float8 AS similarity
	FROM people
	WHERE embedding IS NOT NULL
	ORDER BY embedding <=> $1::vector
	LIMIT $2
`

// SearchByEmbedding finds the people whose identity vectors sit closest
// to the query vector by cosine distance. Similarity on the returned
// matches holds the distance, so smaller is closer.
func (r *Resolver) SearchByEmbedding(ctx context.Context, vec []float32, limit int) ([]Match, error) {
	if len(vec) == 0 {
		return nil, fmt.Errorf("empty query vector")
	}
	if limit <= 0 {
		limit = r.cfg.FuzzyLimit
	}

	var matches []Match
	err := r.db.SelectContext(ctx, &matches, embeddingSearchSQL, models.VectorLiteral(vec), limit)
	if err != nil {
		return nil, fmt.Errorf("embedding search: %w", err)
	}
	return matches, nil
}
