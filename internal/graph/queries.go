package graph

import (
	"context"
	"fmt"
	"time"
)

// Colleague is one co-worker relationship from the overlap relation.
type Colleague struct {
	PersonID     int64     `json:"person_id" db:"person_id"`
	PersonName   string    `json:"person_name" db:"person_name"`
	OrgID        int64     `json:"org_id" db:"org_id"`
	OrgName      string    `json:"org_name" db:"org_name"`
	OverlapStart time.Time `json:"overlap_start" db:"overlap_start"`
	OverlapEnd   time.Time `json:"overlap_end" db:"overlap_end"`
	OverlapDays  int       `json:"overlap_days" db:"overlap_days"`
}

const colleaguesAtSQL = `
	SELECT CASE WHEN cp.person_a_id = $1 THEN cp.person_b_id ELSE cp.person_a_id END AS person_id,
	       p.name AS person_name,
	       cp.org_id, o.name AS org_name,
	       cp.overlap_start, cp.overlap_end, cp.overlap_days
	FROM colleague_pairs cp
	JOIN people p        ON p.id = CASE WHEN cp.person_a_id = $1 THEN cp.person_b_id ELSE cp.person_a_id END
	JOIN organizations o ON o.id = cp.org_id
	WHERE (cp.person_a_id = $1 OR cp.person_b_id = $1)
	  AND cp.overlap_start <= $2
	  AND cp.overlap_end   >= $2
	ORDER BY cp.overlap_days DESC, person_id, cp.org_id
`

// ColleaguesAt lists everyone who shared an organization with the given
// person on a specific date, longest overlaps first.
func (e *Engine) ColleaguesAt(ctx context.Context, personID int64, date time.Time) ([]Colleague, error) {
	var out []Colleague
	if err := e.db.SelectContext(ctx, &out, colleaguesAtSQL, personID, date); err != nil {
		return nil, fmt.Errorf("query colleagues of %d at %s: %w", personID, date.Format("2006-01-02"), err)
	}
	return out, nil
}

// ColleagueSummary aggregates every shared tenure between one person
// and one colleague, across all organizations and windows.
type ColleagueSummary struct {
	PersonID         int64     `json:"person_id" db:"person_id"`
	PersonName       string    `json:"person_name" db:"person_name"`
	SharedOrgs       int       `json:"shared_orgs" db:"shared_orgs"`
	TotalOverlapDays int       `json:"total_overlap_days" db:"total_overlap_days"`
	FirstOverlap     time.Time `json:"first_overlap" db:"first_overlap"`
	LastOverlap      time.Time `json:"last_overlap" db:"last_overlap"`
}

const allColleaguesSQL = `
	SELECT CASE WHEN cp.person_a_id = $1 THEN cp.person_b_id ELSE cp.person_a_id END AS person_id,
	       p.name AS person_name,
	       COUNT(DISTINCT cp.org_id) AS shared_orgs,
	       SUM(cp.overlap_days)      AS total_overlap_days,
	       MIN(cp.overlap_start)     AS first_overlap,
	       MAX(cp.overlap_end)       AS last_overlap
	FROM colleague_pairs cp
	JOIN people p ON p.id = CASE WHEN cp.person_a_id = $1 THEN cp.person_b_id ELSE cp.person_a_id END
	WHERE cp.person_a_id = $1 OR cp.person_b_id = $1
	GROUP BY 1, 2
	ORDER BY total_overlap_days DESC, person_id
`

// AllColleagues lists everyone who ever shared an organization with the
// given person, one summary row per colleague, longest total overlap
// first.
func (e *Engine) AllColleagues(ctx context.Context, personID int64) ([]ColleagueSummary, error) {
	var out []ColleagueSummary
	if err := e.db.SelectContext(ctx, &out, allColleaguesSQL, personID); err != nil {
		return nil, fmt.Errorf("query all colleagues of %d: %w", personID, err)
	}
	return out, nil
}

// TurnoverEntry is one tenure at the organization under analysis.
type TurnoverEntry struct {
	PersonID   int64      `json:"person_id" db:"person_id"`
	PersonName string     `json:"person_name" db:"person_name"`
	Rank       string     `json:"rank" db:"rank"`
	StartDate  time.Time  `json:"start_date" db:"start_date"`
	EndDate    *time.Time `json:"end_date,omitempty" db:"end_date"`
	TenureDays int        `json:"tenure_days" db:"tenure_days"`
}

// TurnoverReport summarizes staffing churn at one organization. The
// average covers closed tenures only; open ones have no length yet.
type TurnoverReport struct {
	OrgID         int64           `json:"org_id"`
	TotalTenures  int             `json:"total_tenures"`
	OpenTenures   int             `json:"open_tenures"`
	AvgTenureDays float64         `json:"avg_tenure_days"`
	Entries       []TurnoverEntry `json:"entries"`
}

const orgTurnoverSQL = `
	SELECT e.person_id, p.name AS person_name,
	       e.rank, e.start_date, e.end_date, e.tenure_days
	FROM employment e
	JOIN people p ON p.id = e.person_id
	WHERE e.org_id = $1
	  AND ($2::date IS NULL OR e.start_date >= $2)
	  AND ($3::date IS NULL OR (e.end_date IS NOT NULL AND e.end_date <= $3))
	ORDER BY e.start_date, e.person_id, e.rank
`

// OrgTurnover lists every tenure at the organization, optionally
// restricted to tenures starting and ending inside [from, to], and
// reports the average closed-tenure length. Nil bounds leave that side
// open.
func (e *Engine) OrgTurnover(ctx context.Context, orgID int64, from, to *time.Time) (TurnoverReport, error) {
	var entries []TurnoverEntry
	if err := e.db.SelectContext(ctx, &entries, orgTurnoverSQL, orgID, from, to); err != nil {
		return TurnoverReport{}, fmt.Errorf("query turnover for org %d: %w", orgID, err)
	}

	report := TurnoverReport{OrgID: orgID, TotalTenures: len(entries), Entries: entries}
	var closed, days int
	for _, entry := range entries {
		if entry.EndDate == nil {
			report.OpenTenures++
			continue
		}
		closed++
		days += entry.TenureDays
	}
	if closed > 0 {
		report.AvgTenureDays = float64(days) / float64(closed)
	}
	return report, nil
}

// SnapshotEntry is one active posting in a point-in-time network view.
type SnapshotEntry struct {
	PersonID   int64      `json:"person_id" db:"person_id"`
	PersonName string     `json:"person_name" db:"person_name"`
	OrgID      int64      `json:"org_id" db:"org_id"`
	OrgName    string     `json:"org_name" db:"org_name"`
	Rank       string     `json:"rank" db:"rank"`
	StartDate  time.Time  `json:"start_date" db:"start_date"`
	EndDate    *time.Time `json:"end_date,omitempty" db:"end_date"`
}

const networkSnapshotSQL = `
	SELECT e.person_id, p.name AS person_name,
	       e.org_id, o.name AS org_name,
	       e.rank, e.start_date, e.end_date
	FROM employment e
	JOIN people p        ON p.id = e.person_id
	JOIN organizations o ON o.id = e.org_id
	WHERE e.start_date <= $1
	  AND (e.end_date IS NULL OR e.end_date >= $1)
	ORDER BY o.name, p.name, e.rank
`

// NetworkSnapshot lists every posting active on the given date across
// the whole store.
func (e *Engine) NetworkSnapshot(ctx context.Context, date time.Time) ([]SnapshotEntry, error) {
	var out []SnapshotEntry
	if err := e.db.SelectContext(ctx, &out, networkSnapshotSQL, date); err != nil {
		return nil, fmt.Errorf("query network snapshot at %s: %w", date.Format("2006-01-02"), err)
	}
	return out, nil
}

const orgTimelineSQL = `
	WITH RECURSIVE subtree AS (
		SELECT id FROM organizations WHERE id = $1
		UNION ALL
		SELECT o.id FROM organizations o JOIN subtree s ON o.parent_org_id = s.id
	)
	SELECT DISTINCT d FROM (
		SELECT e.start_date AS d
		FROM employment e JOIN subtree s ON s.id = e.org_id
		UNION
		SELECT e.end_date
		FROM employment e JOIN subtree s ON s.id = e.org_id
		WHERE e.end_date IS NOT NULL
	) dates
	ORDER BY d
`

// OrgTimeline returns the sorted distinct dates at which the active
// composition of an organization subtree can change: every tenure start
// and end below the unit. Useful for stepping an org chart through time
// without probing arbitrary dates.
func (e *Engine) OrgTimeline(ctx context.Context, orgID int64) ([]time.Time, error) {
	var dates []time.Time
	if err := e.db.SelectContext(ctx, &dates, orgTimelineSQL, orgID); err != nil {
		return nil, fmt.Errorf("query timeline for org %d: %w", orgID, err)
	}
	return dates, nil
}
