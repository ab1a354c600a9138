//go:build cgo
// +build cgo

package learned

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Mapping{}))
	return db
}

func TestStore_RecordThenLookup(t *testing.T) {
	db := setupTestDB(t)
	store := New(db, zap.NewNop())
	ctx := context.Background()

	err := store.Record(ctx, "  US Unemployment Rate  ", "FRED", "US", "UNRATE", "Unemployment Rate", 0.85)
	require.NoError(t, err)

	result, ok := store.Lookup(ctx, "us unemployment rate", "FRED", "US")
	require.True(t, ok)
	assert.Equal(t, "UNRATE", result.Code)
	assert.Equal(t, "FRED", result.Provider)
	assert.Equal(t, "Unemployment Rate", result.Name)
	assert.InDelta(t, 0.85, result.Confidence, 0.0001)
	assert.Equal(t, "database", string(result.Source))
}

func TestStore_LookupMiss(t *testing.T) {
	db := setupTestDB(t)
	store := New(db, zap.NewNop())

	_, ok := store.Lookup(context.Background(), "nonexistent term", "FRED", "US")
	assert.False(t, ok)
}

func TestStore_RecordUpserts(t *testing.T) {
	db := setupTestDB(t)
	store := New(db, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, "gdp growth", "", "", "NGDP_RPCH", "GDP growth", 0.7))
	require.NoError(t, store.Record(ctx, "gdp growth", "", "", "NGDP_RPCH", "Real GDP Growth", 0.9))

	var count int64
	require.NoError(t, db.Model(&Mapping{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	result, ok := store.Lookup(ctx, "gdp growth", "", "")
	require.True(t, ok)
	assert.Equal(t, "Real GDP Growth", result.Name)
	assert.InDelta(t, 0.9, result.Confidence, 0.0001)
}

func TestStore_NilStoreIsNoOp(t *testing.T) {
	var store *Store

	_, ok := store.Lookup(context.Background(), "anything", "FRED", "US")
	assert.False(t, ok)

	assert.NoError(t, store.Record(context.Background(), "anything", "FRED", "US", "CODE", "Name", 0.5))
}

func TestStore_WildcardHints(t *testing.T) {
	db := setupTestDB(t)
	store := New(db, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, "inflation rate", "", "", "CPI", "Inflation Rate", 0.8))

	_, ok := store.Lookup(ctx, "inflation rate", "FRED", "US")
	assert.False(t, ok, "a hinted lookup should not match a wildcard-recorded mapping")

	result, ok := store.Lookup(ctx, "inflation rate", "", "")
	require.True(t, ok)
	assert.Equal(t, "CPI", result.Code)
}
