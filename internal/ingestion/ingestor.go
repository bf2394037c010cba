package ingestion

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/orgtrail/orgtrail-go/internal/database"
	"github.com/orgtrail/orgtrail-go/internal/logging"
	"github.com/orgtrail/orgtrail-go/internal/models"
)

// DefaultBatchSize bounds the number of employment edges written per
// transaction when the caller does not choose one.
const DefaultBatchSize = 1000

// Refresher recomputes the derived colleague-overlap index. Satisfied by
// overlap.Maintainer; ingestion triggers it exactly once per batch.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Ingestor resolves person identities from raw tenure rows and writes
// employment edges in bounded chunks. It is the only write path for
// people and employment and is intended as a single-writer batch job.
type Ingestor struct {
	db        *database.Client
	refresher Refresher
	logger    *logging.Logger
}

// NewIngestor creates an ingestor bound to a store handle and the
// overlap refresher to invoke after each batch.
func NewIngestor(db *database.Client, refresher Refresher) *Ingestor {
	return &Ingestor{
		db:        db,
		refresher: refresher,
		logger:    logging.With("component", "ingestor"),
	}
}

const upsertPersonSQL = `
	INSERT INTO people (name, clean_name, tel, email, embedding)
	VALUES ($1, $2, $3, $4, $5::vector)
	ON CONFLICT (clean_name) DO UPDATE SET
		name = EXCLUDED.name,
		tel = COALESCE(NULLIF(EXCLUDED.tel, ''), people.tel),
		email = COALESCE(NULLIF(EXCLUDED.email, ''), people.email),
		embedding = COALESCE(EXCLUDED.embedding, people.embedding),
		updated_at = NOW()
	RETURNING id, (xmax = 0) AS inserted
`

const stubOrgSQL = `
	INSERT INTO organizations (name, path_key, parts)
	VALUES ($1, $2, $3)
	ON CONFLICT (path_key) DO UPDATE SET updated_at = NOW()
	RETURNING id
`

const insertEmploymentSQL = `
	INSERT INTO employment (person_id, org_id, rank, start_date, end_date, tenure_days, tel, email, source_url)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (person_id, org_id, rank, start_date) DO NOTHING
`

// BulkInsert groups tenure rows by normalized person name, upserts one
// person node per distinct name, and writes one employment edge per row
// in chunks of batchSize. A failing chunk does not undo prior chunks;
// partial progress is reported, never hidden. The overlap refresh runs
// once after all chunks, not per chunk.
func (ing *Ingestor) BulkInsert(ctx context.Context, records []models.TenureRecord, batchSize int) (models.IngestReport, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	report := models.IngestReport{
		RunID:         uuid.New(),
		RowsProcessed: len(records),
	}

	groups, invalid := groupByCleanName(records)
	report.EdgesFailed += invalid
	ing.logger.Info("grouped tenure rows",
		"run_id", report.RunID, "rows", len(records), "persons", len(groups), "invalid", invalid)

	orgCache := make(map[string]int64)
	var pending [][]any

	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("bulk insert interrupted: %w", err)
		}

		personID, created, err := ing.upsertPerson(ctx, group)
		if err != nil {
			ing.logger.Error("person upsert failed", "clean_name", group.CleanName, "error", err)
			report.EdgesFailed += len(group.Records)
			continue
		}
		if created {
			report.PersonsCreated++
		} else {
			report.PersonsReused++
		}

		for _, rec := range group.Records {
			orgID, err := ing.resolveOrg(ctx, rec.OrgPath, orgCache)
			if err != nil {
				ing.logger.Warn("org not resolvable, skipping edge",
					"org_path", rec.OrgPath, "clean_name", group.CleanName, "error", err)
				report.EdgesFailed++
				continue
			}

			tenureDays := 0
			if rec.EndDate != nil {
				tenureDays = models.DaysInclusive(rec.StartDate, *rec.EndDate)
			}
			pending = append(pending, []any{
				personID, orgID, rec.Rank, rec.StartDate, rec.EndDate,
				tenureDays, rec.Tel, rec.Email, rec.SourceURL,
			})
		}
	}

	// Chunked edge writes: each chunk commits independently, so a failure
	// in chunk N leaves chunks 1..N-1 durable and reported.
	for start := 0; start < len(pending); start += batchSize {
		end := start + batchSize
		if end > len(pending) {
			end = len(pending)
		}
		chunk := pending[start:end]

		written, err := ing.writeChunk(ctx, chunk)
		report.EdgesWritten += written
		if err != nil {
			ing.logger.Error("employment chunk failed",
				"run_id", report.RunID, "chunk_start", start, "chunk_len", len(chunk), "error", err)
			report.EdgesFailed += len(chunk)
		}
	}

	// One refresh per batch; refresh is expensive and deliberately not
	// per chunk.
	if err := ing.refresher.Refresh(ctx); err != nil {
		ing.logger.Error("overlap refresh failed", "run_id", report.RunID, "error", err)
	} else {
		report.Refreshed = true
	}

	ing.logger.Info("bulk insert complete",
		"run_id", report.RunID,
		"persons_created", report.PersonsCreated,
		"persons_reused", report.PersonsReused,
		"edges_written", report.EdgesWritten,
		"edges_failed", report.EdgesFailed,
		"refreshed", report.Refreshed)
	return report, nil
}

// upsertPerson resolves or creates exactly one person node for a name
// group. The unique constraint on clean_name makes concurrent creators
// converge on the same node instead of duplicating it.
func (ing *Ingestor) upsertPerson(ctx context.Context, group personGroup) (int64, bool, error) {
	first := group.Records[0]

	var embedding any
	if len(first.Embedding) > 0 {
		embedding = models.VectorLiteral(first.Embedding)
	}

	var (
		id       int64
		inserted bool
	)
	err := ing.db.Pool().QueryRow(ctx, upsertPersonSQL,
		displayName(group), group.CleanName, first.Tel, first.Email, embedding,
	).Scan(&id, &inserted)
	if err != nil {
		return 0, false, fmt.Errorf("upsert person %q: %w", group.CleanName, err)
	}
	return id, inserted, nil
}

// resolveOrg maps a row's organization reference to an org id. A
// reference missing from the pre-seed is linked to a newly created
// minimal stub rather than dropped.
func (ing *Ingestor) resolveOrg(ctx context.Context, orgPath string, cache map[string]int64) (int64, error) {
	parts := models.SplitPathKey(orgPath)
	pathKey := models.PathKey(parts)
	if pathKey == "" {
		return 0, fmt.Errorf("empty organization path")
	}
	if id, ok := cache[pathKey]; ok {
		return id, nil
	}

	id, err := lookupOrgByPath(ctx, ing.db, pathKey)
	if errors.Is(err, database.ErrNotFound) {
		id, err = ing.createStubOrg(ctx, parts, pathKey)
	}
	if err != nil {
		return 0, err
	}

	cache[pathKey] = id
	return id, nil
}

func (ing *Ingestor) createStubOrg(ctx context.Context, parts []string, pathKey string) (int64, error) {
	name := parts[len(parts)-1]
	var id int64
	err := ing.db.Pool().QueryRow(ctx, stubOrgSQL, name, pathKey, parts).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create stub org %q: %w", pathKey, err)
	}
	ing.logger.Debug("created stub organization", "path", pathKey, "id", id)
	return id, nil
}

// writeChunk writes one chunk of employment edges in a single
// transaction using a pipelined batch. Returns the number of edges
// actually inserted (exact duplicates are skipped by the unique index).
func (ing *Ingestor) writeChunk(ctx context.Context, chunk [][]any) (int, error) {
	tx, err := ing.db.Pool().Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin chunk transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			ing.logger.Error("chunk rollback failed", "error", rbErr)
		}
	}()

	batch := &pgx.Batch{}
	for _, args := range chunk {
		batch.Queue(insertEmploymentSQL, args...)
	}

	written := 0
	results := tx.SendBatch(ctx, batch)
	for range chunk {
		tag, err := results.Exec()
		if err != nil {
			results.Close()
			return 0, fmt.Errorf("insert employment edge: %w", err)
		}
		written += int(tag.RowsAffected())
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("close batch results: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit chunk: %w", err)
	}
	return written, nil
}
