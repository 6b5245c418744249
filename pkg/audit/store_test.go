package audit

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&EventRecord{}))
	return db
}

func TestRecordAndList(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db, slog.Default())
	ctx := context.Background()

	store.Record(ctx, "ana", "job.create", "job", "job-1", map[string]any{"printerId": "p-1"})
	store.Record(ctx, "ana", "job.complete", "job", "job-1", nil)
	store.Record(ctx, "bob", "job.create", "job", "job-2", nil)

	events, _, err := store.List(ListFilter{}, 10, "")
	require.NoError(t, err)
	assert.Len(t, events, 3)

	events, _, err = store.List(ListFilter{Actor: "ana"}, 10, "")
	require.NoError(t, err)
	assert.Len(t, events, 2)

	events, _, err = store.List(ListFilter{Action: "job.complete"}, 10, "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "job-1", events[0].EntityID)

	events, _, err = store.List(ListFilter{EntityID: "job-2"}, 10, "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "bob", events[0].Actor)
}

func TestRecordPreservesDetails(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db, slog.Default())

	store.Record(context.Background(), "ana", "job.fail", "job", "job-1", map[string]any{
		"actualGrams": 12.5,
		"printerId":   "p-1",
	})

	events, _, err := store.List(ListFilter{}, 10, "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 12.5, events[0].Details["actualGrams"])
	assert.Equal(t, "p-1", events[0].Details["printerId"])
}

func TestGetByID(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db, slog.Default())

	store.Record(context.Background(), "ana", "job.create", "job", "job-1", nil)
	events, _, err := store.List(ListFilter{}, 10, "")
	require.NoError(t, err)
	require.Len(t, events, 1)

	got, err := store.GetByID(events[0].ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "job.create", got.Action)

	missing, err := store.GetByID("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListPagination(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db, slog.Default())

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		event := &EventRecord{
			ID:         string(rune('a' + i)),
			Actor:      "ana",
			Action:     "job.create",
			EntityType: "job",
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(event).Error)
	}

	page1, token, err := store.List(ListFilter{}, 3, "")
	require.NoError(t, err)
	require.Len(t, page1, 3)
	require.NotEmpty(t, token)
	assert.Equal(t, "e", page1[0].ID)

	page2, token, err := store.List(ListFilter{}, 3, token)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Empty(t, token)
	assert.Equal(t, "b", page2[0].ID)
}

func TestDeleteOlderThan(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db, slog.Default())

	old := &EventRecord{ID: "old", Actor: "ana", Action: "job.create", EntityType: "job",
		CreatedAt: time.Now().Add(-48 * time.Hour)}
	recent := &EventRecord{ID: "recent", Actor: "ana", Action: "job.create", EntityType: "job",
		CreatedAt: time.Now()}
	require.NoError(t, db.Create(old).Error)
	require.NoError(t, db.Create(recent).Error)

	deleted, err := store.DeleteOlderThan(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	events, _, err := store.List(ListFilter{}, 10, "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "recent", events[0].ID)
}
