package printjob

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FelipeCamposM/Gerencie3D-sub000/pkg/inventory"
)

func TestGetMissingJobReturnsNil(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db, slog.Default())

	job, err := store.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestListFiltersByStatusPrinterOperator(t *testing.T) {
	db := setupTestDB(t)
	inv, printer, spool := testFixtures(t, db)
	engine := NewEngine(db, slog.Default(), nil)
	store := NewStore(db, slog.Default())

	printer2 := &inventory.Printer{Name: "Prusa MK4", PowerDrawKwh: 0.5, EnergyUnitPrice: 0.89}
	require.NoError(t, inv.CreatePrinter(printer2))

	jobA := createTestJob(t, engine, printer.ID, []UsageRequest{{SpoolID: spool.ID, Grams: 10}})
	_, err := engine.CreateJob(context.Background(), CreateJobRequest{
		ProjectName:     "other",
		PrinterID:       printer2.ID,
		Operator:        "bob",
		DurationMinutes: 15,
		Usage:           []UsageRequest{{SpoolID: spool.ID, Grams: 5}},
	})
	require.NoError(t, err)
	_, err = engine.CompleteJob(context.Background(), jobA.ID)
	require.NoError(t, err)

	jobs, _, err := store.List(ListFilter{Status: JobCompleted}, 10, "")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, jobA.ID, jobs[0].ID)

	jobs, _, err = store.List(ListFilter{PrinterID: printer2.ID}, 10, "")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "bob", jobs[0].Operator)

	jobs, _, err = store.List(ListFilter{Operator: "ana"}, 10, "")
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	jobs, _, err = store.List(ListFilter{}, 10, "")
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
}

func TestListPaginatesNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db, slog.Default())

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		job := &PrintJob{
			ID:              string(rune('a' + i)),
			ProjectName:     "p",
			PrinterID:       "printer-1",
			Operator:        "ana",
			DurationMinutes: 10,
			EstimatedGrams:  1,
			Status:          JobCompleted,
			StartedAt:       base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(job).Error)
	}

	page1, token, err := store.List(ListFilter{}, 2, "")
	require.NoError(t, err)
	require.Len(t, page1, 2)
	require.NotEmpty(t, token)
	assert.Equal(t, "e", page1[0].ID)
	assert.Equal(t, "d", page1[1].ID)

	page2, token, err := store.List(ListFilter{}, 2, token)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, "c", page2[0].ID)
	assert.Equal(t, "b", page2[1].ID)

	page3, token, err := store.List(ListFilter{}, 2, token)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Equal(t, "a", page3[0].ID)
	assert.Empty(t, token)
}

func TestListRejectsBadToken(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db, slog.Default())

	_, _, err := store.List(ListFilter{}, 10, "not-a-timestamp")
	assert.Error(t, err)
}

func TestListOverdueFindsOnlyExpiredInProgress(t *testing.T) {
	db := setupTestDB(t)
	_, printer, spool := testFixtures(t, db)
	engine := NewEngine(db, slog.Default(), nil)
	store := NewStore(db, slog.Default())

	job := createTestJob(t, engine, printer.ID, []UsageRequest{{SpoolID: spool.ID, Grams: 10}})

	// Not yet due.
	overdue, err := store.ListOverdue(time.Now())
	require.NoError(t, err)
	assert.Empty(t, overdue)

	past := time.Now().Add(-time.Minute)
	require.NoError(t, db.Model(&PrintJob{}).Where("id = ?", job.ID).Update("completed_at", past).Error)

	overdue, err = store.ListOverdue(time.Now())
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, job.ID, overdue[0].ID)

	// Terminal jobs never show up even with a past completed_at.
	_, err = engine.CompleteJob(context.Background(), job.ID)
	require.NoError(t, err)
	require.NoError(t, db.Model(&PrintJob{}).Where("id = ?", job.ID).Update("completed_at", past).Error)

	overdue, err = store.ListOverdue(time.Now())
	require.NoError(t, err)
	assert.Empty(t, overdue)
}

func TestSpoolReferenced(t *testing.T) {
	db := setupTestDB(t)
	inv, printer, spool := testFixtures(t, db)
	engine := NewEngine(db, slog.Default(), nil)
	store := NewStore(db, slog.Default())

	unused := &inventory.FilamentSpool{Material: "ABS", InitialGrams: 750, PurchasePrice: 90}
	require.NoError(t, inv.CreateSpool(unused))

	job := createTestJob(t, engine, printer.ID, []UsageRequest{{SpoolID: spool.ID, Grams: 10}})

	referenced, err := store.SpoolReferenced(spool.ID)
	require.NoError(t, err)
	assert.True(t, referenced)

	referenced, err = store.SpoolReferenced(unused.ID)
	require.NoError(t, err)
	assert.False(t, referenced)

	// Deleting the job clears the reference.
	require.NoError(t, engine.DeleteJob(context.Background(), job.ID, true))
	referenced, err = store.SpoolReferenced(spool.ID)
	require.NoError(t, err)
	assert.False(t, referenced)
}

func TestUsageReturnsBreakdown(t *testing.T) {
	db := setupTestDB(t)
	inv, printer, spoolA := testFixtures(t, db)
	engine := NewEngine(db, slog.Default(), nil)
	store := NewStore(db, slog.Default())

	spoolB := &inventory.FilamentSpool{Material: "PETG", InitialGrams: 500, PurchasePrice: 80}
	require.NoError(t, inv.CreateSpool(spoolB))

	job, err := engine.CreateJob(context.Background(), CreateJobRequest{
		ProjectName:     "two-tone",
		PrinterID:       printer.ID,
		Operator:        "ana",
		DurationMinutes: 45,
		Usage: []UsageRequest{
			{SpoolID: spoolA.ID, Grams: 30},
			{SpoolID: spoolB.ID, Grams: 20},
		},
	})
	require.NoError(t, err)

	usage, err := store.Usage(job.ID)
	require.NoError(t, err)
	require.Len(t, usage, 2)

	total := 0.0
	for _, u := range usage {
		total += u.Grams
	}
	assert.InDelta(t, 50.0, total, 1e-9)
}
