package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/orgtrail/orgtrail-go/internal/logging"
)

// SchemaManager owns the physical layout of the store: node and edge
// tables, the derived colleague_pairs relation, indexes, and extensions.
// It carries no business logic.
type SchemaManager struct {
	db           *Client
	embeddingDim int
	logger       *logging.Logger
}

// NewSchemaManager creates a schema manager. embeddingDim sets the width
// of the optional identity-vector column on people.
func NewSchemaManager(db *Client, embeddingDim int) *SchemaManager {
	if embeddingDim <= 0 {
		embeddingDim = 384
	}
	return &SchemaManager{
		db:           db,
		embeddingDim: embeddingDim,
		logger:       logging.With("component", "schema"),
	}
}

// extensions required by the query layer: btree_gist for the date-range
// index, pg_trgm for fuzzy name search, vector for identity embeddings.
var extensionStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS btree_gist`,
	`CREATE EXTENSION IF NOT EXISTS pg_trgm`,
	`CREATE EXTENSION IF NOT EXISTS vector`,
}

func (m *SchemaManager) tableStatements() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS organizations (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(1000) NOT NULL,
			path_key VARCHAR(2000) NOT NULL UNIQUE,
			parts TEXT[] NOT NULL DEFAULT '{}',
			entity_type VARCHAR(100) NOT NULL DEFAULT '',
			url VARCHAR(1000) NOT NULL DEFAULT '',
			parent_org_id BIGINT REFERENCES organizations(id) ON DELETE SET NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS people (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(500) NOT NULL,
			clean_name VARCHAR(500) NOT NULL UNIQUE,
			tel VARCHAR(50) NOT NULL DEFAULT '',
			email VARCHAR(320) NOT NULL DEFAULT '',
			embedding vector(%d),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, m.embeddingDim),
		`CREATE TABLE IF NOT EXISTS employment (
			id BIGSERIAL PRIMARY KEY,
			person_id BIGINT NOT NULL REFERENCES people(id) ON DELETE CASCADE,
			org_id BIGINT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
			rank VARCHAR(500) NOT NULL DEFAULT '',
			start_date DATE NOT NULL,
			end_date DATE,
			tenure_days INTEGER NOT NULL DEFAULT 0,
			tel VARCHAR(50) NOT NULL DEFAULT '',
			email VARCHAR(320) NOT NULL DEFAULT '',
			source_url VARCHAR(1000) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT valid_date_range CHECK (end_date IS NULL OR start_date <= end_date)
		)`,
		`CREATE TABLE IF NOT EXISTS colleague_pairs (
			person_a_id BIGINT NOT NULL,
			person_b_id BIGINT NOT NULL,
			org_id BIGINT NOT NULL,
			a_start DATE NOT NULL,
			a_end DATE,
			b_start DATE NOT NULL,
			b_end DATE,
			overlap_start DATE NOT NULL,
			overlap_end DATE NOT NULL,
			overlap_days INTEGER NOT NULL
		)`,
	}
}

var indexStatements = []string{
	// People: exact, trigram, and vector lookups
	`CREATE INDEX IF NOT EXISTS idx_people_clean_name_trgm ON people USING gin(clean_name gin_trgm_ops)`,
	`CREATE INDEX IF NOT EXISTS idx_people_embedding ON people USING ivfflat(embedding vector_cosine_ops) WHERE embedding IS NOT NULL`,
	// Organizations: path and name lookups, parent traversal
	`CREATE INDEX IF NOT EXISTS idx_org_name_trgm ON organizations USING gin(name gin_trgm_ops)`,
	`CREATE INDEX IF NOT EXISTS idx_org_parent ON organizations(parent_org_id)`,
	// Employment: career-path and colleague-overlap scans
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_employment_dedup ON employment(person_id, org_id, rank, start_date)`,
	`CREATE INDEX IF NOT EXISTS idx_employment_person_dates ON employment(person_id, start_date)`,
	`CREATE INDEX IF NOT EXISTS idx_employment_org_dates ON employment(org_id, start_date, end_date)`,
	`CREATE INDEX IF NOT EXISTS idx_employment_daterange ON employment USING gist(daterange(start_date, end_date, '[]'))`,
	// Derived relation: BFS adjacency is read from both columns
	`CREATE INDEX IF NOT EXISTS idx_colleague_pairs_a ON colleague_pairs(person_a_id)`,
	`CREATE INDEX IF NOT EXISTS idx_colleague_pairs_b ON colleague_pairs(person_b_id)`,
	`CREATE INDEX IF NOT EXISTS idx_colleague_pairs_org ON colleague_pairs(org_id)`,
}

// dropStatements tears down in dependency order: derived relation first,
// then edges, then nodes.
var dropStatements = []string{
	`DROP TABLE IF EXISTS colleague_pairs`,
	`DROP TABLE IF EXISTS employment`,
	`DROP TABLE IF EXISTS people`,
	`DROP TABLE IF EXISTS organizations`,
}

// Setup creates extensions, tables, and indexes if they do not exist.
// Safe to call on every startup.
func (m *SchemaManager) Setup(ctx context.Context) error {
	return m.apply(ctx, nil)
}

// Reset drops everything and recreates it inside a single transaction.
// Not safe to run concurrently with any other operation; intended for
// initialization and tests only. Any failure aborts the whole reset.
func (m *SchemaManager) Reset(ctx context.Context) error {
	return m.apply(ctx, dropStatements)
}

func (m *SchemaManager) apply(ctx context.Context, drops []string) error {
	tx, err := m.db.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			m.logger.Error("schema rollback failed", "error", rbErr)
		}
	}()

	for _, stmt := range drops {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("drop failed: %w", err)
		}
	}
	for _, stmt := range extensionStatements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create extension failed: %w", err)
		}
	}
	for _, stmt := range m.tableStatements() {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create table failed: %w", err)
		}
	}
	for _, stmt := range indexStatements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create index failed: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}

	if len(drops) > 0 {
		m.logger.Info("schema reset complete")
	} else {
		m.logger.Info("schema setup complete")
	}
	return nil
}
