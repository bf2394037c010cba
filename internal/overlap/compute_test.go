package overlap

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgtrail/orgtrail-go/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func edge(person, org int64, start time.Time, end *time.Time) models.Employment {
	return models.Employment{PersonID: person, OrgID: org, StartDate: start, EndDate: end}
}

func TestComputeOverlapsBasicWindow(t *testing.T) {
	asOf := date(2024, 1, 1)
	records := ComputeOverlaps([]models.Employment{
		edge(1, 10, date(2021, 7, 22), datePtr(2022, 4, 10)),
		edge(2, 10, date(2021, 7, 22), datePtr(2023, 3, 26)),
	}, asOf)

	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, int64(1), r.PersonAID)
	assert.Equal(t, int64(2), r.PersonBID)
	assert.Equal(t, date(2021, 7, 22), r.OverlapStart)
	assert.Equal(t, date(2022, 4, 10), r.OverlapEnd)
	assert.Equal(t, 263, r.OverlapDays)
}

func TestComputeOverlapsPairOrdering(t *testing.T) {
	asOf := date(2024, 1, 1)
	records := ComputeOverlaps([]models.Employment{
		edge(9, 10, date(2020, 1, 1), datePtr(2020, 12, 31)),
		edge(3, 10, date(2020, 6, 1), datePtr(2021, 6, 1)),
	}, asOf)

	require.Len(t, records, 1)
	assert.Equal(t, int64(3), records[0].PersonAID, "lower id always stored first")
	assert.Equal(t, int64(9), records[0].PersonBID)
}

func TestComputeOverlapsDisjointWindows(t *testing.T) {
	records := ComputeOverlaps([]models.Employment{
		edge(1, 10, date(2018, 1, 1), datePtr(2018, 12, 31)),
		edge(2, 10, date(2019, 1, 1), datePtr(2019, 12, 31)),
	}, date(2024, 1, 1))
	assert.Empty(t, records)
}

func TestComputeOverlapsSameDayTouch(t *testing.T) {
	// One leaves the day the other joins: a single shared day.
	records := ComputeOverlaps([]models.Employment{
		edge(1, 10, date(2018, 1, 1), datePtr(2019, 1, 1)),
		edge(2, 10, date(2019, 1, 1), datePtr(2020, 1, 1)),
	}, date(2024, 1, 1))

	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].OverlapDays)
	assert.Equal(t, date(2019, 1, 1), records[0].OverlapStart)
	assert.Equal(t, date(2019, 1, 1), records[0].OverlapEnd)
}

func TestComputeOverlapsOpenEndedRunsThroughAsOf(t *testing.T) {
	asOf := date(2020, 1, 10)
	records := ComputeOverlaps([]models.Employment{
		edge(1, 10, date(2020, 1, 1), nil),
		edge(2, 10, date(2020, 1, 6), nil),
	}, asOf)

	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, date(2020, 1, 6), r.OverlapStart)
	assert.Equal(t, asOf, r.OverlapEnd)
	assert.Equal(t, 5, r.OverlapDays)
	assert.Nil(t, r.AEnd, "stored window keeps the open end")
	assert.Nil(t, r.BEnd)
}

func TestComputeOverlapsDifferentOrgsNeverPair(t *testing.T) {
	records := ComputeOverlaps([]models.Employment{
		edge(1, 10, date(2020, 1, 1), datePtr(2021, 1, 1)),
		edge(2, 20, date(2020, 1, 1), datePtr(2021, 1, 1)),
	}, date(2024, 1, 1))
	assert.Empty(t, records)
}

func TestComputeOverlapsSamePersonNeverPairsWithSelf(t *testing.T) {
	// Two stints by the same person at one org must not produce a pair.
	records := ComputeOverlaps([]models.Employment{
		edge(1, 10, date(2020, 1, 1), datePtr(2021, 1, 1)),
		edge(1, 10, date(2020, 6, 1), datePtr(2021, 6, 1)),
	}, date(2024, 1, 1))
	assert.Empty(t, records)
}

func TestComputeOverlapsMultipleEdgePairs(t *testing.T) {
	// Two people who overlapped twice at the same org keep both records.
	records := ComputeOverlaps([]models.Employment{
		edge(1, 10, date(2018, 1, 1), datePtr(2018, 6, 30)),
		edge(1, 10, date(2020, 1, 1), datePtr(2020, 6, 30)),
		edge(2, 10, date(2017, 1, 1), datePtr(2021, 1, 1)),
	}, date(2024, 1, 1))

	require.Len(t, records, 2)
	sort.Slice(records, func(i, j int) bool {
		return records[i].OverlapStart.Before(records[j].OverlapStart)
	})
	assert.Equal(t, date(2018, 1, 1), records[0].OverlapStart)
	assert.Equal(t, date(2020, 1, 1), records[1].OverlapStart)
}
