package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"sitediary/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *Storage) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)

	store := NewStorage(sqlx.NewDb(conn, "postgres")).WithClock(func() time.Time { return fixedNow })
	return conn, mock, store
}

func diaryColumnNames() []string {
	return []string{"id", "date", "site_location", "weather", "description", "current_phase", "work_completed",
		"has_delays_or_issues", "delays_or_issues", "labor", "equipment", "materials", "visitors", "images",
		"created_at", "updated_at"}
}

func TestCreateDiary(t *testing.T) {
	conn, mock, store := setupMockDB(t)
	defer conn.Close()

	date := time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC)
	d := &models.SiteDiary{
		Date:         date,
		SiteLocation: "site-1",
		Description:  "Poured slab",
		CurrentPhase: "Foundation",
	}

	mock.ExpectQuery(`INSERT INTO site_diary`).
		WithArgs(date, "site-1", "", "Poured slab", "Foundation", "", false, "", "", "", "", "[]", "{}", fixedNow, fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	err := store.CreateDiary(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, 7, d.ID)
	assert.Equal(t, d.CreatedAt, d.UpdatedAt)
	assert.NotNil(t, d.Visitors)
	assert.NotNil(t, d.Images)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDiary_Success(t *testing.T) {
	conn, mock, store := setupMockDB(t)
	defer conn.Close()

	rows := sqlmock.NewRows(diaryColumnNames()).
		AddRow(3, fixedNow, "site-2", "sunny", "Framing", "Structure", "", true, "Crane late", "4 carpenters", "", "",
			[]byte(`[{"type":"delivery","name":"Bob","company":"ACME","purpose":"20 beams"}]`),
			[]byte(`{https://cdn.example.com/a.jpg}`), fixedNow, fixedNow)

	mock.ExpectQuery(`SELECT .* FROM site_diary WHERE id=\$1`).
		WithArgs(3).
		WillReturnRows(rows)

	d, err := store.GetDiary(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, d.ID)
	assert.Equal(t, "Crane late", d.DelaysOrIssues)
	require.Len(t, d.Visitors, 1)
	assert.Equal(t, models.VisitorTypeDelivery, d.Visitors[0].Type)
	assert.Equal(t, "20 beams", d.Visitors[0].Purpose)
	assert.Equal(t, []string{"https://cdn.example.com/a.jpg"}, []string(d.Images))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDiary_NotFound(t *testing.T) {
	conn, mock, store := setupMockDB(t)
	defer conn.Close()

	mock.ExpectQuery(`SELECT .* FROM site_diary WHERE id=\$1`).
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows(diaryColumnNames()))

	d, err := store.GetDiary(context.Background(), 42)
	assert.Nil(t, d)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateDiary(t *testing.T) {
	conn, mock, store := setupMockDB(t)
	defer conn.Close()

	created := fixedNow.Add(-time.Hour)
	d := &models.SiteDiary{ID: 5, Date: fixedNow, SiteLocation: "site-3", Description: "d", CurrentPhase: "p"}

	mock.ExpectQuery(`UPDATE site_diary`).
		WithArgs(sqlmock.AnyArg(), "site-3", "", "d", "p", "", false, "", "", "", "", "[]", "{}", fixedNow, 5).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(created, fixedNow))

	require.NoError(t, store.UpdateDiary(context.Background(), d))
	assert.Equal(t, created, d.CreatedAt)
	assert.Equal(t, fixedNow, d.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateDiary_NotFound(t *testing.T) {
	conn, mock, store := setupMockDB(t)
	defer conn.Close()

	mock.ExpectQuery(`UPDATE site_diary`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}))

	err := store.UpdateDiary(context.Background(), &models.SiteDiary{ID: 99})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteDiary(t *testing.T) {
	conn, mock, store := setupMockDB(t)
	defer conn.Close()

	mock.ExpectExec(`DELETE FROM site_diary WHERE id=\$1`).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM site_diary WHERE id=\$1`).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.DeleteDiary(context.Background(), 1))
	assert.ErrorIs(t, store.DeleteDiary(context.Background(), 1), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListDiaries_StorageFault(t *testing.T) {
	conn, mock, store := setupMockDB(t)
	defer conn.Close()

	mock.ExpectQuery(`SELECT .* FROM site_diary`).
		WillReturnError(sql.ErrConnDone)

	_, err := store.ListDiaries(context.Background(), models.Filters{OrderBy: models.OrderByCreatedAt, Order: models.OrderDesc})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListDiaries_EmptyIsNotNil(t *testing.T) {
	conn, mock, store := setupMockDB(t)
	defer conn.Close()

	mock.ExpectQuery(`SELECT .* FROM site_diary WHERE site_location = \$1 ORDER BY created_at DESC`).
		WithArgs("site-3").
		WillReturnRows(sqlmock.NewRows(diaryColumnNames()))

	list, err := store.ListDiaries(context.Background(), models.Filters{Site: "site-3", OrderBy: models.OrderByCreatedAt, Order: models.OrderDesc})
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Len(t, list, 0)
	assert.NoError(t, mock.ExpectationsWereMet())
}
