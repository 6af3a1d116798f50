package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadbook/internal/platform/config"
)

func TestOpen(t *testing.T) {
	t.Run("memory driver has no database", func(t *testing.T) {
		db, err := Open(config.Database{Driver: DriverMemory})
		require.NoError(t, err)
		assert.Nil(t, db)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := Open(config.Database{Driver: "oracle"})
		require.Error(t, err)
	})

	t.Run("sqlite in memory", func(t *testing.T) {
		db, err := OpenSQLiteMemory()
		require.NoError(t, err)
		t.Cleanup(func() { _ = Close(db) })

		var one int
		require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
		assert.Equal(t, 1, one)
	})
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "postgres://app:***@db:5432/leads", Redact("postgres://app:s3cret@db:5432/leads"))
	assert.Equal(t, "postgres://db:5432/leads", Redact("postgres://db:5432/leads"))
	assert.Equal(t, "file:leadbook.db", Redact("file:leadbook.db"))
}
