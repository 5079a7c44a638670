package seeder

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickjob/internal/database"
	"quickjob/internal/database/sqldb"
)

func newMock(t *testing.T) (*sqldb.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return sqldb.New(sqlDB), mock
}

func expectColumns(mock sqlmock.Sqlmock, table string, cols ...string) {
	rows := sqlmock.NewRows([]string{"column_name"})
	for _, c := range cols {
		rows.AddRow(c)
	}
	mock.ExpectQuery(`SELECT column_name FROM information_schema.columns`).WithArgs(table).WillReturnRows(rows)
}

func TestRequireColumns_ReportsEveryMissingColumn(t *testing.T) {
	db, mock := newMock(t)
	expectColumns(mock, "cities", "id")

	err := requireColumns(context.Background(), db, "cities", "id", "city_name", "id_country")
	var missing *MissingColumnsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"city_name", "id_country"}, missing.Columns)
	assert.Contains(t, err.Error(), "cities.id_country")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifySchema_ApplicationTables(t *testing.T) {
	db, mock := newMock(t)
	expectColumns(mock, "application", "id", "email", "id_city", "id_job_position", "linkedin", "why_you")
	expectColumns(mock, "application_files", "id", "file_src", "id_application")

	require.NoError(t, VerifySchema(context.Background(), db, ApplicationSchema))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifySchema_JoinsMismatches(t *testing.T) {
	db, mock := newMock(t)
	expectColumns(mock, "application", "id", "email")
	expectColumns(mock, "application_files", "id")

	err := VerifySchema(context.Background(), db, ApplicationSchema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "application.linkedin")
	assert.Contains(t, err.Error(), "application_files.file_src")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifySchema_QueryFailure(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`SELECT column_name FROM information_schema.columns`).
		WithArgs("application").WillReturnError(errors.New("connection refused"))

	err := VerifySchema(context.Background(), db, ApplicationSchema)
	require.Error(t, err)
	var missing *MissingColumnsError
	assert.False(t, errors.As(err, &missing))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReferenceSeeder(t *testing.T) {
	db, mock := newMock(t)
	expectColumns(mock, "cities", "id", "city_name", "id_country")

	mock.ExpectBegin()
	for i := 0; i < 3; i++ {
		mock.ExpectExec(`INSERT INTO categories`).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	for i := 0; i < 3; i++ {
		mock.ExpectExec(`INSERT INTO countries`).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	for i := 0; i < 4; i++ {
		mock.ExpectExec(`INSERT INTO cities`).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	for i := 0; i < 6; i++ {
		mock.ExpectExec(`INSERT INTO tags`).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	require.NoError(t, ReferenceSeeder{}.Run(context.Background(), db))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPositionsSeeder_RollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	expectColumns(mock, "job_positions", "id", "slug", "title", "lead", "is_active", "id_category")

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO job_positions`).
		WithArgs("backend-engineer", "Backend Engineer", sqlmock.AnyArg(), sqlmock.AnyArg(), true, "Engineering").
		WillReturnError(errors.New("relation does not exist"))
	mock.ExpectRollback()

	err := PositionsSeeder{}.Run(context.Background(), db)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

type recordingSeeder struct {
	name string
	err  error
	ran  *[]string
}

func (s recordingSeeder) Name() string { return s.name }

func (s recordingSeeder) Run(context.Context, database.DB) error {
	*s.ran = append(*s.ran, s.name)
	return s.err
}

func TestRunner(t *testing.T) {
	db, _ := newMock(t)
	var ran []string

	r := Runner{Seeders: []Seeder{
		recordingSeeder{name: "a", ran: &ran},
		nil,
		recordingSeeder{name: "b", ran: &ran, err: errors.New("boom")},
		recordingSeeder{name: "c", ran: &ran},
	}}
	err := r.Run(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed b")
	assert.Equal(t, []string{"a", "b"}, ran)

	assert.ErrorIs(t, Runner{}.Run(context.Background(), nil), database.ErrNilDB)
}
