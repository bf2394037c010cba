package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Organization is a node in the org hierarchy tree.
// PathKey is the joined name-segment path and uniquely identifies a node;
// it is the upsert key for pre-seeding.
type Organization struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	PathKey     string    `json:"path_key" db:"path_key"`
	Parts       []string  `json:"parts" db:"-"`
	EntityType  string    `json:"entity_type" db:"entity_type"`
	URL         string    `json:"url,omitempty" db:"url"`
	ParentOrgID *int64    `json:"parent_org_id,omitempty" db:"parent_org_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Person is a node representing one deduplicated individual.
// CleanName is the normalized (lowercase, whitespace-folded) identity key.
type Person struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CleanName string    `json:"clean_name" db:"clean_name"`
	Tel       string    `json:"tel,omitempty" db:"tel"`
	Email     string    `json:"email,omitempty" db:"email"`
	Embedding []float32 `json:"-" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Employment is a Person→Organization edge bounded by a tenure window.
// A nil EndDate means the tenure is still open.
type Employment struct {
	ID         int64      `json:"id" db:"id"`
	PersonID   int64      `json:"person_id" db:"person_id"`
	OrgID      int64      `json:"org_id" db:"org_id"`
	Rank       string     `json:"rank" db:"rank"`
	StartDate  time.Time  `json:"start_date" db:"start_date"`
	EndDate    *time.Time `json:"end_date,omitempty" db:"end_date"`
	TenureDays int        `json:"tenure_days" db:"tenure_days"`
	Tel        string     `json:"tel,omitempty" db:"tel"`
	Email      string     `json:"email,omitempty" db:"email"`
	SourceURL  string     `json:"source_url,omitempty" db:"source_url"`
}

// CareerStep is one employment edge joined with its organization,
// as returned by career-path queries.
type CareerStep struct {
	PersonID   int64      `json:"person_id" db:"person_id"`
	PersonName string     `json:"person_name" db:"person_name"`
	OrgID      int64      `json:"org_id" db:"org_id"`
	OrgName    string     `json:"org_name" db:"org_name"`
	Rank       string     `json:"rank" db:"rank"`
	StartDate  time.Time  `json:"start_date" db:"start_date"`
	EndDate    *time.Time `json:"end_date,omitempty" db:"end_date"`
	TenureDays int        `json:"tenure_days" db:"tenure_days"`
}

// OverlapRecord is one row of the derived colleague_pairs relation: two
// employment edges at the same organization with intersecting windows.
// PersonAID < PersonBID always, so each unordered pair is stored once.
type OverlapRecord struct {
	PersonAID    int64      `json:"person_a_id" db:"person_a_id"`
	PersonBID    int64      `json:"person_b_id" db:"person_b_id"`
	OrgID        int64      `json:"org_id" db:"org_id"`
	AStart       time.Time  `json:"a_start" db:"a_start"`
	AEnd         *time.Time `json:"a_end,omitempty" db:"a_end"`
	BStart       time.Time  `json:"b_start" db:"b_start"`
	BEnd         *time.Time `json:"b_end,omitempty" db:"b_end"`
	OverlapStart time.Time  `json:"overlap_start" db:"overlap_start"`
	OverlapEnd   time.Time  `json:"overlap_end" db:"overlap_end"`
	OverlapDays  int        `json:"overlap_days" db:"overlap_days"`
}

// OrgNode is one node of a point-in-time org chart. Active marks direct
// employment evidence at the chart date; inactive nodes appear only as
// ancestors of active ones.
type OrgNode struct {
	Org      Organization `json:"org"`
	Active   bool         `json:"active"`
	Children []*OrgNode   `json:"children,omitempty"`
}

// ConnectionHop is one step of a shortest-connection path: the person
// reached, the organization shared with the previous person, and the
// window during which their tenures overlapped.
type ConnectionHop struct {
	PersonID     int64     `json:"person_id"`
	PersonName   string    `json:"person_name,omitempty"`
	OrgID        int64     `json:"org_id"`
	OrgName      string    `json:"org_name,omitempty"`
	OverlapStart time.Time `json:"overlap_start"`
	OverlapEnd   time.Time `json:"overlap_end"`
	OverlapDays  int       `json:"overlap_days"`
}

// ConnectionPath is the result of a shortest-connection search.
type ConnectionPath struct {
	StartPersonID int64           `json:"start_person_id"`
	Hops          []ConnectionHop `json:"hops"`
	TotalDays     int             `json:"total_overlap_days"`
}

// Len returns the number of hops in the path.
func (p ConnectionPath) Len() int { return len(p.Hops) }

// OrgDescriptor is one record of the pre-seed input: a hierarchical
// name-segment path plus metadata from the cleaning stage.
type OrgDescriptor struct {
	Parts         []string   `json:"parts" yaml:"parts"`
	EntityType    string     `json:"entity_type,omitempty" yaml:"entity_type"`
	URL           string     `json:"url,omitempty" yaml:"url"`
	FirstObserved *time.Time `json:"first_observed,omitempty" yaml:"first_observed"`
	LastObserved  *time.Time `json:"last_observed,omitempty" yaml:"last_observed"`
}

// Name returns the display name of the unit, the last path segment.
func (d OrgDescriptor) Name() string {
	if len(d.Parts) == 0 {
		return ""
	}
	return strings.TrimSpace(d.Parts[len(d.Parts)-1])
}

// PathKey joins the name segments into the canonical upsert key.
func (d OrgDescriptor) PathKey() string {
	return PathKey(d.Parts)
}

// PathKey builds the canonical key for a name-segment path.
func PathKey(parts []string) string {
	trimmed := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed = append(trimmed, strings.TrimSpace(p))
	}
	return strings.Join(trimmed, " : ")
}

// SplitPathKey is the inverse of PathKey. Only the full " : "
// delimiter separates segments, so a bare colon inside a unit name
// stays part of that segment.
func SplitPathKey(key string) []string {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	raw := strings.Split(key, " : ")
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		parts = append(parts, strings.TrimSpace(p))
	}
	return parts
}

// TenureRecord is one flattened row of the tenure input dataset.
type TenureRecord struct {
	RawName   string     `json:"raw_name" yaml:"raw_name"`
	OrgPath   string     `json:"org_path" yaml:"org_path"`
	Rank      string     `json:"rank" yaml:"rank"`
	StartDate time.Time  `json:"start_date" yaml:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty" yaml:"end_date"`
	Tel       string     `json:"tel,omitempty" yaml:"tel"`
	Email     string     `json:"email,omitempty" yaml:"email"`
	SourceURL string     `json:"source_url,omitempty" yaml:"source_url"`
	Embedding []float32  `json:"embedding,omitempty" yaml:"-"`
}

// SeedReport aggregates the outcome of one pre-seed run.
type SeedReport struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// IngestReport aggregates the outcome of one bulk employment ingest.
type IngestReport struct {
	RunID          uuid.UUID `json:"run_id"`
	RowsProcessed  int       `json:"rows_processed"`
	PersonsCreated int       `json:"persons_created"`
	PersonsReused  int       `json:"persons_reused"`
	EdgesWritten   int       `json:"edges_written"`
	EdgesFailed    int       `json:"edges_failed"`
	Refreshed      bool      `json:"refreshed"`
}

// StoreStats reports entity counts for the whole store.
type StoreStats struct {
	People        int64 `json:"people" db:"people"`
	Organizations int64 `json:"organizations" db:"organizations"`
	Employment    int64 `json:"employment" db:"employment"`
	OverlapPairs  int64 `json:"overlap_pairs" db:"overlap_pairs"`
}

// DaysInclusive counts days between two dates counting both endpoints,
// the convention used for tenure and overlap lengths.
func DaysInclusive(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// VectorLiteral renders a float32 slice in pgvector input syntax.
func VectorLiteral(vec []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
