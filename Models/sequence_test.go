package Models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func sequenceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&NumberSequence{}))
	t.Cleanup(func() {
		db.Exec("DELETE FROM number_sequences")
	})
	return db
}

func TestAllocateNumberCreatesAndFormats(t *testing.T) {
	db := sequenceTestDB(t)

	first, err := AllocateNumber(db, "load", "LD")
	require.NoError(t, err)
	assert.Equal(t, "LD-000001", first)

	second, err := AllocateNumber(db, "load", "LD")
	require.NoError(t, err)
	assert.Equal(t, "LD-000002", second)
}

func TestAllocateNumberSequencesAreIndependent(t *testing.T) {
	db := sequenceTestDB(t)

	load, err := AllocateNumber(db, "load", "LD")
	require.NoError(t, err)
	sheet, err := AllocateNumber(db, "trip_sheet", "TS")
	require.NoError(t, err)

	assert.Equal(t, "LD-000001", load)
	assert.Equal(t, "TS-000001", sheet)
}

func TestAllocateNumberNeverRepeats(t *testing.T) {
	db := sequenceTestDB(t)

	seen := map[string]bool{}
	for i := 0; i < 25; i++ {
		number, err := AllocateNumber(db, "invoice", "IN")
		require.NoError(t, err)
		assert.False(t, seen[number], "duplicate number %s", number)
		seen[number] = true
	}
	assert.True(t, seen["IN-000025"])
}
