package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/orgtrail/orgtrail-go/internal/database"
	"github.com/orgtrail/orgtrail-go/internal/logging"
	"github.com/orgtrail/orgtrail-go/internal/models"
)

// Preseeder upserts the organization hierarchy ahead of employment
// ingestion so per-row org creation never races during bulk insert.
type Preseeder struct {
	db     *database.Client
	logger *logging.Logger
}

// NewPreseeder creates a pre-seeder bound to a store handle.
func NewPreseeder(db *database.Client) *Preseeder {
	return &Preseeder{
		db:     db,
		logger: logging.With("component", "preseeder"),
	}
}

const upsertOrgSQL = `
	INSERT INTO organizations (name, path_key, parts, entity_type, url, parent_org_id)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (path_key) DO UPDATE SET
		entity_type = EXCLUDED.entity_type,
		url = EXCLUDED.url,
		parent_org_id = COALESCE(EXCLUDED.parent_org_id, organizations.parent_org_id),
		updated_at = NOW()
	RETURNING id, (xmax = 0) AS inserted
`

// Seed upserts the given organization descriptors. Records are processed
// from shortest path to longest so a unit's parent exists before the
// child links to it; this ordering is a correctness requirement, not an
// optimization, and Seed enforces it itself rather than trusting caller
// discipline. Re-running with the same input only bumps Updated.
func (p *Preseeder) Seed(ctx context.Context, records []models.OrgDescriptor) (models.SeedReport, error) {
	report := models.SeedReport{}
	p.logger.Info("pre-seeding organizations", "records", len(records))

	sorted := make([]models.OrgDescriptor, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Parts) < len(sorted[j].Parts)
	})

	pathToID := make(map[string]int64, len(sorted))

	for _, rec := range sorted {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("pre-seed interrupted: %w", err)
		}

		name := rec.Name()
		pathKey := rec.PathKey()
		if name == "" || pathKey == "" {
			p.logger.Warn("skipping org record with empty path", "parts", rec.Parts)
			report.Failed++
			continue
		}

		parentID, err := p.resolveParent(ctx, rec, pathToID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				p.logger.Warn("parent not resolvable, skipping org", "path", pathKey)
				report.Failed++
				continue
			}
			return report, fmt.Errorf("resolve parent for %q: %w", pathKey, err)
		}

		var (
			id       int64
			inserted bool
		)
		err = p.db.Pool().QueryRow(ctx, upsertOrgSQL,
			name, pathKey, rec.Parts, rec.EntityType, rec.URL, parentID,
		).Scan(&id, &inserted)
		if err != nil {
			p.logger.Warn("org upsert failed", "path", pathKey, "error", err)
			report.Failed++
			continue
		}

		pathToID[pathKey] = id
		if inserted {
			report.Created++
		} else {
			report.Updated++
		}
	}

	p.logger.Info("pre-seeding complete",
		"created", report.Created, "updated", report.Updated, "failed", report.Failed)
	return report, nil
}

// resolveParent finds the parent org id for a descriptor by truncating
// its path by one segment. Root-level units have no parent. Returns
// database.ErrNotFound when the parent path resolves to nothing.
func (p *Preseeder) resolveParent(ctx context.Context, rec models.OrgDescriptor, pathToID map[string]int64) (*int64, error) {
	if len(rec.Parts) <= 1 {
		return nil, nil
	}

	parentKey := models.PathKey(rec.Parts[:len(rec.Parts)-1])
	if id, ok := pathToID[parentKey]; ok {
		return &id, nil
	}

	id, err := lookupOrgByPath(ctx, p.db, parentKey)
	if err != nil {
		return nil, err
	}
	pathToID[parentKey] = id
	return &id, nil
}

// lookupOrgByPath resolves an organization id by its canonical path key.
func lookupOrgByPath(ctx context.Context, db *database.Client, pathKey string) (int64, error) {
	var id int64
	err := db.Pool().QueryRow(ctx,
		`SELECT id FROM organizations WHERE path_key = $1`, pathKey,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, database.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("lookup org by path %q: %w", pathKey, err)
	}
	return id, nil
}
