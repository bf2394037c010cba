package ingestion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgtrail/orgtrail-go/internal/database"
	"github.com/orgtrail/orgtrail-go/internal/models"
)

type stubRefresher struct {
	calls int
	err   error
}

func (s *stubRefresher) Refresh(ctx context.Context) error {
	s.calls++
	return s.err
}

func newTestIngestor(t *testing.T) (*Ingestor, pgxmock.PgxPoolIface, *stubRefresher) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	refresher := &stubRefresher{}
	return NewIngestor(database.NewClient(mockPool), refresher), mockPool, refresher
}

func TestBulkInsertWritesEdgesAndRefreshesOnce(t *testing.T) {
	ing, mockPool, refresher := newTestIngestor(t)

	records := []models.TenureRecord{
		{
			RawName:   "John Tan",
			OrgPath:   "Ministry : A",
			Rank:      "Director",
			StartDate: date(2021, 7, 22),
			EndDate:   datePtr(2022, 4, 10),
		},
		{
			RawName:   "JOHN  TAN", // same person after normalization
			OrgPath:   "Ministry : B",
			Rank:      "Advisor",
			StartDate: date(2022, 5, 1),
		},
	}

	mockPool.ExpectQuery(sqlMatcher(upsertPersonSQL)).
		WithArgs("John Tan", "john tan", "", "", nil).
		WillReturnRows(pgxmock.NewRows([]string{"id", "inserted"}).AddRow(int64(5), true))

	// First org is pre-seeded, second is not and gets a stub.
	mockPool.ExpectQuery(`SELECT id FROM organizations WHERE path_key = \$1`).
		WithArgs("Ministry : A").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(10)))
	mockPool.ExpectQuery(`SELECT id FROM organizations WHERE path_key = \$1`).
		WithArgs("Ministry : B").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
	mockPool.ExpectQuery(sqlMatcher(stubOrgSQL)).
		WithArgs("B", "Ministry : B", []string{"Ministry", "B"}).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(11)))

	mockPool.ExpectBegin()
	batchExp := mockPool.ExpectBatch()
	batchExp.ExpectExec(sqlMatcher(insertEmploymentSQL)).
		WithArgs(int64(5), int64(10), "Director", date(2021, 7, 22), datePtr(2022, 4, 10), 263, "", "", "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	batchExp.ExpectExec(sqlMatcher(insertEmploymentSQL)).
		WithArgs(int64(5), int64(11), "Advisor", date(2022, 5, 1), (*time.Time)(nil), 0, "", "", "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectCommit()

	report, err := ing.BulkInsert(context.Background(), records, 0)
	require.NoError(t, err)

	assert.Equal(t, 2, report.RowsProcessed)
	assert.Equal(t, 1, report.PersonsCreated)
	assert.Equal(t, 0, report.PersonsReused)
	assert.Equal(t, 2, report.EdgesWritten)
	assert.Equal(t, 0, report.EdgesFailed)
	assert.True(t, report.Refreshed)
	assert.Equal(t, 1, refresher.calls, "refresh runs exactly once per batch")
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", report.RunID.String())
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestBulkInsertCountsInvalidRows(t *testing.T) {
	ing, _, refresher := newTestIngestor(t)

	records := []models.TenureRecord{
		{RawName: "", OrgPath: "Ministry", StartDate: date(2020, 1, 1)},
		{RawName: "X", OrgPath: "", StartDate: date(2020, 1, 1)},
	}

	report, err := ing.BulkInsert(context.Background(), records, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, report.EdgesFailed)
	assert.Equal(t, 0, report.EdgesWritten)
	assert.Equal(t, 1, refresher.calls)
}

func TestBulkInsertChunkFailureReportsAndContinues(t *testing.T) {
	ing, mockPool, refresher := newTestIngestor(t)

	records := []models.TenureRecord{{
		RawName:   "Mary Lee",
		OrgPath:   "Ministry",
		Rank:      "Engineer",
		StartDate: date(2020, 1, 1),
	}}

	mockPool.ExpectQuery(sqlMatcher(upsertPersonSQL)).
		WithArgs("Mary Lee", "mary lee", "", "", nil).
		WillReturnRows(pgxmock.NewRows([]string{"id", "inserted"}).AddRow(int64(7), false))
	mockPool.ExpectQuery(`SELECT id FROM organizations WHERE path_key = \$1`).
		WithArgs("Ministry").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(3)))

	mockPool.ExpectBegin()
	batchExp := mockPool.ExpectBatch()
	batchExp.ExpectExec(sqlMatcher(insertEmploymentSQL)).
		WithArgs(int64(7), int64(3), "Engineer", date(2020, 1, 1), (*time.Time)(nil), 0, "", "", "").
		WillReturnError(errors.New("disk full"))
	mockPool.ExpectRollback()

	report, err := ing.BulkInsert(context.Background(), records, 0)
	require.NoError(t, err, "chunk failure is reported, not fatal")

	assert.Equal(t, 1, report.PersonsReused)
	assert.Equal(t, 0, report.EdgesWritten)
	assert.Equal(t, 1, report.EdgesFailed)
	assert.True(t, report.Refreshed)
	assert.Equal(t, 1, refresher.calls)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestBulkInsertRefreshFailureSurfacesInReport(t *testing.T) {
	ing, _, refresher := newTestIngestor(t)
	refresher.err = errors.New("refresh broke")

	report, err := ing.BulkInsert(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.False(t, report.Refreshed)
}
