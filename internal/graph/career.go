package graph

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/orgtrail/orgtrail-go/internal/models"
)

const careerPathSQL = `
	SELECT e.person_id, p.name AS person_name,
	       e.org_id, o.name AS org_name,
	       e.rank, e.start_date, e.end_date, e.tenure_days
	FROM employment e
	JOIN people p        ON p.id = e.person_id
	JOIN organizations o ON o.id = e.org_id
	WHERE e.person_id = $1
	ORDER BY e.start_date, e.org_id, e.rank, e.id
`

// CareerIterator walks a person's employment history lazily, one step
// per Next call, in chronological order with a total tiebreak so two
// walks over unchanged data always agree. Callers must Close it; a
// fresh walk is just another CareerPath call.
type CareerIterator struct {
	rows    *sqlx.Rows
	current models.CareerStep
	err     error
	closed  bool
}

// CareerPath starts a lazy walk over the person's career, earliest
// tenure first.
func (e *Engine) CareerPath(ctx context.Context, personID int64) (*CareerIterator, error) {
	rows, err := e.db.QueryxContext(ctx, careerPathSQL, personID)
	if err != nil {
		return nil, fmt.Errorf("query career path for person %d: %w", personID, err)
	}
	return &CareerIterator{rows: rows}, nil
}

// Next advances to the next career step. It returns false at the end of
// the career or on error; check Err afterwards.
func (it *CareerIterator) Next() bool {
	if it.closed || it.err != nil {
		return false
	}
	if !it.rows.Next() {
		it.err = it.rows.Err()
		it.Close()
		return false
	}
	if err := it.rows.StructScan(&it.current); err != nil {
		it.err = fmt.Errorf("scan career step: %w", err)
		it.Close()
		return false
	}
	return true
}

// Step returns the career step the iterator is positioned on.
func (it *CareerIterator) Step() models.CareerStep { return it.current }

// Err reports the first error encountered during the walk.
func (it *CareerIterator) Err() error { return it.err }

// Close releases the underlying cursor. Safe to call more than once.
func (it *CareerIterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	return it.rows.Close()
}

// CollectCareerPath drains a full career walk into a slice for callers
// that do not need the step-at-a-time form.
func (e *Engine) CollectCareerPath(ctx context.Context, personID int64) ([]models.CareerStep, error) {
	it, err := e.CareerPath(ctx, personID)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var steps []models.CareerStep
	for it.Next() {
		steps = append(steps, it.Step())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return steps, nil
}

// ClusterCareer merges consecutive steps that share organization and
// rank into one span, absorbing touching or overlapping windows. The
// source data records one row per roster observation, so a long stint
// often arrives as several fragments; clustering restores the stint.
func ClusterCareer(steps []models.CareerStep) []models.CareerStep {
	var clustered []models.CareerStep
	for _, step := range steps {
		if len(clustered) > 0 {
			last := &clustered[len(clustered)-1]
			if last.OrgID == step.OrgID && last.Rank == step.Rank && contiguous(*last, step) {
				if step.EndDate == nil {
					last.EndDate = nil
				} else if last.EndDate != nil && step.EndDate.After(*last.EndDate) {
					end := *step.EndDate
					last.EndDate = &end
				}
				if last.EndDate != nil {
					last.TenureDays = models.DaysInclusive(last.StartDate, *last.EndDate)
				} else {
					last.TenureDays = 0
				}
				continue
			}
		}
		clustered = append(clustered, step)
	}
	return clustered
}

// contiguous reports whether the next fragment starts inside or exactly
// one day after the span so far. Steps arrive sorted by start date.
func contiguous(span, next models.CareerStep) bool {
	if span.EndDate == nil {
		return true
	}
	return !next.StartDate.After(span.EndDate.AddDate(0, 0, 1))
}
