package database

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"referly/config"
	"referly/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNewDBRejectsUnknownDriver(t *testing.T) {
	_, err := NewDB(&config.DatabaseConfig{Driver: "oracle", DSN: "x"})
	assert.Error(t, err)
}

func TestMigrateSQLite(t *testing.T) {
	db, err := NewDB(&config.DatabaseConfig{Driver: "sqlite", DSN: "file::memory:", MaxIdleConns: 1, MaxOpenConns: 1})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	// Running again is a no-op.
	require.NoError(t, Migrate(db))

	for _, table := range []interface{}{&models.Company{}, &models.Campaign{}, &models.Customer{}, &models.Referral{}, "company_new_customers"} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %v", table)
	}
	assert.True(t, db.Migrator().HasIndex(&models.Referral{}, "idx_referrals_triple"))
	assert.True(t, db.Migrator().HasIndex(&models.Customer{}, "idx_customers_company_email"))
}

func TestLoggerIgnoresRecordNotFound(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(log.New(&buf, "", 0))
	query := func() (string, int64) { return "SELECT * FROM companies WHERE id = 9", 0 }

	l.Trace(context.Background(), time.Now(), query, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	l.Trace(context.Background(), time.Now(), query, errors.New("database is locked"))
	assert.Contains(t, buf.String(), "database is locked")
}
