package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresSettingsRepository_GetSetting(t *testing.T) {
	database, mock := newMockDB(t)
	repo := NewPostgresSettingsRepository(database)
	updated := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT key, value, updated_at FROM app_settings").
		WithArgs("requests_open").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "updated_at"}).AddRow("requests_open", "false", updated))
	mock.ExpectQuery("SELECT key, value, updated_at FROM app_settings").
		WithArgs("unknown").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "updated_at"}))

	setting, err := repo.GetSetting(context.Background(), "requests_open")
	require.NoError(t, err)
	assert.Equal(t, "false", setting.Value)
	assert.Equal(t, updated, setting.UpdatedAt)

	_, err = repo.GetSetting(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSettingsRepository_SetSettingUpserts(t *testing.T) {
	database, mock := newMockDB(t)
	repo := NewPostgresSettingsRepository(database)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (key) DO UPDATE")).
		WithArgs("requests_open", "false", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetSetting(context.Background(), "requests_open", "false"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
