// Package overlap maintains the derived colleague-pairs relation: for
// every two people whose tenures at the same organization intersect in
// time, one row recording the shared window. The relation is always
// rebuilt from the employment edges, never patched incrementally, so it
// can never drift from its source.
package overlap

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/orgtrail/orgtrail-go/internal/database"
	"github.com/orgtrail/orgtrail-go/internal/logging"
	"github.com/orgtrail/orgtrail-go/internal/models"
)

// Maintainer owns the colleague_pairs relation. Refresh calls are
// serialized; concurrent callers queue rather than interleave.
type Maintainer struct {
	db     *database.Client
	logger *logging.Logger

	mu  sync.Mutex
	now func() time.Time
}

// NewMaintainer creates a maintainer bound to a store handle.
func NewMaintainer(db *database.Client) *Maintainer {
	return &Maintainer{
		db:     db,
		logger: logging.With("component", "overlap"),
		now:    time.Now,
	}
}

const loadEdgesSQL = `
	SELECT person_id, org_id, start_date, end_date
	FROM employment
	ORDER BY org_id, person_id, start_date
`

// Refresh recomputes colleague_pairs from scratch and swaps it in within
// one transaction, so readers observe either the whole old index or the
// whole new one. Open-ended tenures are treated as running through the
// refresh time.
func (m *Maintainer) Refresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	started := m.now()

	edges, err := m.loadEdges(ctx)
	if err != nil {
		return fmt.Errorf("load employment edges: %w", err)
	}

	records := ComputeOverlaps(edges, started)

	if err := m.replacePairs(ctx, records); err != nil {
		return fmt.Errorf("replace colleague pairs: %w", err)
	}

	m.logger.Info("overlap index refreshed",
		"edges", len(edges), "pairs", len(records), "elapsed", m.now().Sub(started).String())
	return nil
}

func (m *Maintainer) loadEdges(ctx context.Context) ([]models.Employment, error) {
	rows, err := m.db.Pool().Query(ctx, loadEdgesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []models.Employment
	for rows.Next() {
		var e models.Employment
		if err := rows.Scan(&e.PersonID, &e.OrgID, &e.StartDate, &e.EndDate); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

var pairColumns = []string{
	"person_a_id", "person_b_id", "org_id",
	"a_start", "a_end", "b_start", "b_end",
	"overlap_start", "overlap_end", "overlap_days",
}

func (m *Maintainer) replacePairs(ctx context.Context, records []models.OverlapRecord) error {
	tx, err := m.db.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			m.logger.Error("refresh rollback failed", "error", rbErr)
		}
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM colleague_pairs`); err != nil {
		return fmt.Errorf("clear colleague_pairs: %w", err)
	}

	if len(records) > 0 {
		copied, err := tx.CopyFrom(ctx,
			pgx.Identifier{"colleague_pairs"},
			pairColumns,
			pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
				r := records[i]
				return []any{
					r.PersonAID, r.PersonBID, r.OrgID,
					r.AStart, r.AEnd, r.BStart, r.BEnd,
					r.OverlapStart, r.OverlapEnd, r.OverlapDays,
				}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy colleague_pairs: %w", err)
		}
		if copied != int64(len(records)) {
			return fmt.Errorf("copy colleague_pairs: wrote %d of %d rows", copied, len(records))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ComputeOverlaps derives the colleague pairs from a set of employment
// edges. Edges are grouped by organization; within each group every pair
// of edges belonging to two different people is intersected. Open-ended
// tenures run through asOf. Each unordered person pair is stored with
// the lower id first.
func ComputeOverlaps(edges []models.Employment, asOf time.Time) []models.OverlapRecord {
	byOrg := make(map[int64][]models.Employment)
	for _, e := range edges {
		byOrg[e.OrgID] = append(byOrg[e.OrgID], e)
	}

	var records []models.OverlapRecord
	for _, group := range byOrg {
		records = append(records, computeOrgOverlaps(group, asOf)...)
	}
	return records
}

func computeOrgOverlaps(group []models.Employment, asOf time.Time) []models.OverlapRecord {
	var records []models.OverlapRecord
	for i := 0; i < len(group); i++ {
		for j := i + 1; j < len(group); j++ {
			a, b := group[i], group[j]
			if a.PersonID == b.PersonID {
				continue
			}
			if a.PersonID > b.PersonID {
				a, b = b, a
			}

			rec, ok := intersect(a, b, asOf)
			if !ok {
				continue
			}
			records = append(records, rec)
		}
	}
	return records
}

// intersect computes the shared window of two tenures at one org.
// The window is [max(starts), min(ends)] inclusive at both endpoints; a
// same-day join-and-leave counts as one day.
func intersect(a, b models.Employment, asOf time.Time) (models.OverlapRecord, bool) {
	aEnd := effectiveEnd(a.EndDate, asOf)
	bEnd := effectiveEnd(b.EndDate, asOf)

	start := a.StartDate
	if b.StartDate.After(start) {
		start = b.StartDate
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	if end.Before(start) {
		return models.OverlapRecord{}, false
	}

	return models.OverlapRecord{
		PersonAID:    a.PersonID,
		PersonBID:    b.PersonID,
		OrgID:        a.OrgID,
		AStart:       a.StartDate,
		AEnd:         a.EndDate,
		BStart:       b.StartDate,
		BEnd:         b.EndDate,
		OverlapStart: start,
		OverlapEnd:   end,
		OverlapDays:  models.DaysInclusive(start, end),
	}, true
}

func effectiveEnd(end *time.Time, asOf time.Time) time.Time {
	if end != nil {
		return *end
	}
	return asOf
}
