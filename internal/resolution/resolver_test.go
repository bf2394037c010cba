package resolution

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgtrail/orgtrail-go/internal/config"
)

func newTestResolver(t *testing.T) (*Resolver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.QueryConfig{FuzzyLimit: 5, SimilarityThreshold: 0.3}
	return NewResolver(sqlx.NewDb(db, "pgx"), cfg), mock
}

var matchColumns = []string{"id", "name", "clean_name", "similarity"}

func TestSearchPersonNormalizesQuery(t *testing.T) {
	r, mock := newTestResolver(t)

	mock.ExpectQuery(`similarity\(clean_name, \$1\)`).
		WithArgs("john tan", 0.3, 5).
		WillReturnRows(sqlmock.NewRows(matchColumns).
			AddRow(int64(1), "John Tan", "john tan", 1.0))

	matches, err := r.SearchPerson(context.Background(), "  JOHN   TAN ")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, int64(1), matches[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchPersonFallsBackToSubstring(t *testing.T) {
	r, mock := newTestResolver(t)

	mock.ExpectQuery(`similarity\(clean_name, \$1\)`).
		WithArgs("tan", 0.3, 5).
		WillReturnRows(sqlmock.NewRows(matchColumns))
	mock.ExpectQuery(`ILIKE`).
		WithArgs("tan", 5).
		WillReturnRows(sqlmock.NewRows(matchColumns).
			AddRow(int64(1), "John Tan", "john tan", 0.0))

	matches, err := r.SearchPerson(context.Background(), "Tan")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchPersonRejectsEmptyQuery(t *testing.T) {
	r, _ := newTestResolver(t)
	_, err := r.SearchPerson(context.Background(), "   ")
	assert.Error(t, err)
}

func TestRerankPrefersCloserNames(t *testing.T) {
	matches := []Match{
		{ID: 1, CleanName: "jonathan tanaka", Similarity: 0.6},
		{ID: 2, CleanName: "john tan", Similarity: 0.6},
	}
	rerank("jon tan", matches)
	assert.Equal(t, int64(2), matches[0].ID, "smaller edit distance wins the tie")
}

func TestRerankPutsNonMatchesLast(t *testing.T) {
	matches := []Match{
		{ID: 1, CleanName: "zzzz", Similarity: 0.9},
		{ID: 2, CleanName: "mary lee", Similarity: 0.4},
	}
	rerank("mary", matches)
	assert.Equal(t, int64(2), matches[0].ID)
	assert.Equal(t, -1, matches[1].Distance)
}

func TestSearchByEmbedding(t *testing.T) {
	r, mock := newTestResolver(t)

	mock.ExpectQuery(`embedding <=> \$1::vector`).
		WithArgs("[1,0,0]", 3).
		WillReturnRows(sqlmock.NewRows(matchColumns).
			AddRow(int64(4), "Mary Lee", "mary lee", 0.12))

	matches, err := r.SearchByEmbedding(context.Background(), []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.InDelta(t, 0.12, matches[0].Similarity, 1e-9)
}

func TestSearchByEmbeddingRejectsEmptyVector(t *testing.T) {
	r, _ := newTestResolver(t)
	_, err := r.SearchByEmbedding(context.Background(), nil, 5)
	assert.Error(t, err)
}
