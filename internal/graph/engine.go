// Package graph answers read-side queries over the employment graph:
// career paths, point-in-time org charts, and shortest colleague
// connections. It only ever reads; all writes go through ingestion.
package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/orgtrail/orgtrail-go/internal/config"
	"github.com/orgtrail/orgtrail-go/internal/logging"
	"github.com/orgtrail/orgtrail-go/internal/models"
)

// ErrNoConnection is returned by ShortestConnection when the two people
// are not linked within the search depth.
var ErrNoConnection = errors.New("no connection found")

// Engine executes graph queries against the read-side store handle.
type Engine struct {
	db     *sqlx.DB
	cfg    config.QueryConfig
	logger *logging.Logger
}

// NewEngine creates a query engine.
func NewEngine(db *sqlx.DB, cfg config.QueryConfig) *Engine {
	if cfg.MaxSearchDepth <= 0 {
		cfg.MaxSearchDepth = 6
	}
	return &Engine{
		db:     db,
		cfg:    cfg,
		logger: logging.With("component", "graph"),
	}
}

const statsSQL = `
	SELECT
		(SELECT COUNT(*) FROM people)          AS people,
		(SELECT COUNT(*) FROM organizations)   AS organizations,
		(SELECT COUNT(*) FROM employment)      AS employment,
		(SELECT COUNT(*) FROM colleague_pairs) AS overlap_pairs
`

// Stats returns entity counts for the whole store.
func (e *Engine) Stats(ctx context.Context) (models.StoreStats, error) {
	var stats models.StoreStats
	if err := e.db.GetContext(ctx, &stats, statsSQL); err != nil {
		return models.StoreStats{}, fmt.Errorf("query store stats: %w", err)
	}
	return stats, nil
}

// Person fetches one person node by id.
func (e *Engine) Person(ctx context.Context, personID int64) (models.Person, error) {
	var p models.Person
	err := e.db.GetContext(ctx, &p,
		`SELECT id, name, clean_name, tel, email, created_at, updated_at FROM people WHERE id = $1`,
		personID)
	if err != nil {
		return models.Person{}, fmt.Errorf("fetch person %d: %w", personID, err)
	}
	return p, nil
}

// Organization fetches one organization node by id.
func (e *Engine) Organization(ctx context.Context, orgID int64) (models.Organization, error) {
	var o models.Organization
	err := e.db.GetContext(ctx, &o,
		`SELECT id, name, path_key, entity_type, url, parent_org_id, created_at, updated_at
		 FROM organizations WHERE id = $1`,
		orgID)
	if err != nil {
		return models.Organization{}, fmt.Errorf("fetch organization %d: %w", orgID, err)
	}
	return o, nil
}
