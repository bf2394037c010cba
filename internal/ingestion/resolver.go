package ingestion

import (
	"fmt"
	"sort"
	"strings"

	"github.com/orgtrail/orgtrail-go/internal/models"
)

// NormalizeName canonicalizes a raw person name into the deduplication
// key: lowercase with runs of whitespace collapsed to single spaces.
// "JOHN  TAN" and "john tan" normalize identically and are treated as the
// same individual. Two genuinely different people sharing a normalized
// name collapse into one node; that is a known precision tradeoff, with
// the identity embedding reserved as a future disambiguation input.
func NormalizeName(raw string) string {
	return strings.ToLower(strings.Join(strings.Fields(raw), " "))
}

// ValidateTenureRecord checks the required fields of one input row.
// A failed validation is a data-quality error: the row is counted and
// skipped, never aborting the batch.
func ValidateTenureRecord(r models.TenureRecord) error {
	if NormalizeName(r.RawName) == "" {
		return fmt.Errorf("missing person name")
	}
	if strings.TrimSpace(r.OrgPath) == "" {
		return fmt.Errorf("missing organization reference")
	}
	if r.StartDate.IsZero() {
		return fmt.Errorf("missing start date")
	}
	if r.EndDate != nil && r.EndDate.Before(r.StartDate) {
		return fmt.Errorf("end date %s before start date %s",
			r.EndDate.Format("2006-01-02"), r.StartDate.Format("2006-01-02"))
	}
	return nil
}

// personGroup holds every input row that resolved to one individual.
type personGroup struct {
	CleanName string
	Records   []models.TenureRecord
}

// groupByCleanName partitions valid rows by normalized person name and
// returns the groups in deterministic (sorted key) order plus the number
// of rows rejected by validation. This is the person-deduplication
// boundary of the whole pipeline.
func groupByCleanName(records []models.TenureRecord) ([]personGroup, int) {
	byName := make(map[string][]models.TenureRecord)
	invalid := 0

	for _, r := range records {
		if err := ValidateTenureRecord(r); err != nil {
			invalid++
			continue
		}
		key := NormalizeName(r.RawName)
		byName[key] = append(byName[key], r)
	}

	keys := make([]string, 0, len(byName))
	for k := range byName {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groups := make([]personGroup, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, personGroup{CleanName: k, Records: byName[k]})
	}
	return groups, invalid
}

// displayName picks the canonical spelling for a person group: the first
// row's raw name with whitespace folded, keeping the source casing.
func displayName(g personGroup) string {
	return strings.Join(strings.Fields(g.Records[0].RawName), " ")
}
