package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/textshiftapp/textshift-backend/internal/testutils"
)

func TestHistory_ClampsLimit(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	userID := uuid.New()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "transformations" WHERE user_id = (.+)`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(500))
	mock.ExpectQuery(`SELECT (.+) FROM "transformations" WHERE user_id = (.+) ORDER BY created_at DESC LIMIT (.+)`).
		WithArgs(userID, 100).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}))

	svc := NewTransformService(db)
	_, total, err := svc.History(userID, 9999, 0)

	require.NoError(t, err)
	assert.Equal(t, int64(500), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageTrend_FillsMissingDays(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	userID := uuid.New()
	endDate := time.Now().UTC().Truncate(24 * time.Hour)
	middle := endDate.AddDate(0, 0, -1)

	mock.ExpectQuery(`SELECT DATE\(created_at\) as day, COUNT\(\*\) as count FROM "transformations" WHERE user_id = (.+) GROUP BY DATE\(created_at\)`).
		WillReturnRows(sqlmock.NewRows([]string{"day", "count"}).AddRow(middle, 4))

	svc := NewTransformService(db)
	trend, err := svc.UsageTrend(userID, 3)

	require.NoError(t, err)
	require.Len(t, trend, 3)

	assert.Equal(t, 0, trend[0]["count"])
	assert.Equal(t, middle.Format("2006-01-02"), trend[1]["date"])
	assert.Equal(t, 4, trend[1]["count"])
	assert.Equal(t, 0, trend[2]["count"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
