package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pairColumns = []string{
	"person_a_id", "person_b_id", "org_id", "overlap_start", "overlap_end", "overlap_days",
}

func pairRow(rows *sqlmock.Rows, a, b, orgID int64, days int) *sqlmock.Rows {
	return rows.AddRow(a, b, orgID, date(2020, 1, 1), date(2020, 1, 1).AddDate(0, 0, days-1), days)
}

func TestShortestConnectionTwoHops(t *testing.T) {
	engine, mock := newTestEngine(t)

	// 1 overlaps 2 at org 10, 2 overlaps 3 at org 20, no direct 1–3 edge.
	mock.ExpectQuery(`FROM colleague_pairs`).
		WillReturnRows(pairRow(sqlmock.NewRows(pairColumns), 1, 2, 10, 100))
	mock.ExpectQuery(`FROM colleague_pairs`).
		WillReturnRows(pairRow(pairRow(sqlmock.NewRows(pairColumns), 1, 2, 10, 100), 2, 3, 20, 50))

	mock.ExpectQuery(`SELECT id, name FROM people`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), "Alice").AddRow(int64(2), "Bob").AddRow(int64(3), "Carol"))
	mock.ExpectQuery(`SELECT id, name FROM organizations`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(10), "Ministry X").AddRow(int64(20), "Ministry Y"))

	path, err := engine.ShortestConnection(context.Background(), 1, 3)
	require.NoError(t, err)

	assert.Equal(t, int64(1), path.StartPersonID)
	require.Equal(t, 2, path.Len())
	assert.Equal(t, int64(2), path.Hops[0].PersonID)
	assert.Equal(t, "Bob", path.Hops[0].PersonName)
	assert.Equal(t, "Ministry X", path.Hops[0].OrgName)
	assert.Equal(t, int64(3), path.Hops[1].PersonID)
	assert.Equal(t, "Ministry Y", path.Hops[1].OrgName)
	assert.Equal(t, 150, path.TotalDays)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShortestConnectionDirectColleagues(t *testing.T) {
	engine, mock := newTestEngine(t)

	mock.ExpectQuery(`FROM colleague_pairs`).
		WillReturnRows(pairRow(sqlmock.NewRows(pairColumns), 1, 2, 10, 30))
	mock.ExpectQuery(`SELECT id, name FROM people`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), "Alice").AddRow(int64(2), "Bob"))
	mock.ExpectQuery(`SELECT id, name FROM organizations`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(10), "Ministry"))

	path, err := engine.ShortestConnection(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Equal(t, 1, path.Len())
	assert.Equal(t, 30, path.TotalDays)
}

func TestShortestConnectionSamePerson(t *testing.T) {
	engine, _ := newTestEngine(t)

	path, err := engine.ShortestConnection(context.Background(), 7, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, path.Len())
	assert.Equal(t, int64(7), path.StartPersonID)
}

func TestShortestConnectionNotFound(t *testing.T) {
	engine, mock := newTestEngine(t)

	// 1's only neighbor is 2; 2 leads nowhere new.
	mock.ExpectQuery(`FROM colleague_pairs`).
		WillReturnRows(pairRow(sqlmock.NewRows(pairColumns), 1, 2, 10, 30))
	mock.ExpectQuery(`FROM colleague_pairs`).
		WillReturnRows(pairRow(sqlmock.NewRows(pairColumns), 1, 2, 10, 30))

	_, err := engine.ShortestConnection(context.Background(), 1, 99)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoConnection))
}

func TestShortestConnectionHonorsContext(t *testing.T) {
	engine, _ := newTestEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.ShortestConnection(ctx, 1, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestBestPathPrefersLargerTotalOverlap(t *testing.T) {
	// Diamond: 1→2→4 carries 100+10 days, 1→3→4 carries 20+200 days.
	adj := make(map[int64]map[int64]overlapEdge)
	add := func(a, b int64, days int) {
		addEdge(adj, overlapEdge{PersonAID: a, PersonBID: b, OrgID: 10, OverlapDays: days})
	}
	add(1, 2, 100)
	add(1, 3, 20)
	add(2, 4, 10)
	add(3, 4, 200)

	dist := map[int64]int{1: 0, 2: 1, 3: 1, 4: 2}
	levels := [][]int64{{1}, {2, 3}, {4}}

	ids, total := bestPath(1, 4, 2, levels, dist, adj)
	assert.Equal(t, []int64{3, 4}, ids)
	assert.Equal(t, 220, total)
}

func TestAddEdgeKeepsLongestOverlapPerPair(t *testing.T) {
	adj := make(map[int64]map[int64]overlapEdge)
	addEdge(adj, overlapEdge{PersonAID: 1, PersonBID: 2, OrgID: 10, OverlapDays: 30})
	addEdge(adj, overlapEdge{PersonAID: 1, PersonBID: 2, OrgID: 20, OverlapDays: 90})
	addEdge(adj, overlapEdge{PersonAID: 1, PersonBID: 2, OrgID: 30, OverlapDays: 5})

	assert.Equal(t, int64(20), adj[1][2].OrgID, "longest overlap represents the link")
	assert.Equal(t, 90, adj[2][1].OverlapDays, "symmetric")
}
