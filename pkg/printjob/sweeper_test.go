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

func TestSweepCompletesOverdueJobs(t *testing.T) {
	db := setupTestDB(t)
	inv, printer, spool := testFixtures(t, db)
	engine := NewEngine(db, slog.Default(), nil)
	store := NewStore(db, slog.Default())
	sweeper := NewSweeper(engine, store, DefaultSweepConfig(), slog.Default())

	job := createTestJob(t, engine, printer.ID, []UsageRequest{{SpoolID: spool.ID, Grams: 10}})
	past := time.Now().Add(-time.Minute)
	require.NoError(t, db.Model(&PrintJob{}).Where("id = ?", job.ID).Update("completed_at", past).Error)

	completed, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, completed)

	got, err := store.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobCompleted, got.Status)
	// completed_at moved from the expected end to the actual sweep time.
	assert.True(t, got.CompletedAt.After(past))

	p, err := inv.GetPrinter(printer.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.PrinterAvailable, p.Status)
}

func TestSweepSkipsJobsNotYetDue(t *testing.T) {
	db := setupTestDB(t)
	_, printer, spool := testFixtures(t, db)
	engine := NewEngine(db, slog.Default(), nil)
	store := NewStore(db, slog.Default())
	sweeper := NewSweeper(engine, store, DefaultSweepConfig(), slog.Default())

	job := createTestJob(t, engine, printer.ID, []UsageRequest{{SpoolID: spool.ID, Grams: 10}})

	completed, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, completed)

	got, err := store.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobInProgress, got.Status)
}

func TestSweepIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	_, printer, spool := testFixtures(t, db)
	engine := NewEngine(db, slog.Default(), nil)
	store := NewStore(db, slog.Default())
	sweeper := NewSweeper(engine, store, DefaultSweepConfig(), slog.Default())

	job := createTestJob(t, engine, printer.ID, []UsageRequest{{SpoolID: spool.ID, Grams: 10}})
	past := time.Now().Add(-time.Minute)
	require.NoError(t, db.Model(&PrintJob{}).Where("id = ?", job.ID).Update("completed_at", past).Error)

	completed, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, completed)

	completed, err = sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, completed)
}

func TestRunStopsWhenDisabled(t *testing.T) {
	db := setupTestDB(t)
	engine := NewEngine(db, slog.Default(), nil)
	store := NewStore(db, slog.Default())
	cfg := DefaultSweepConfig()
	cfg.Enabled = false
	sweeper := NewSweeper(engine, store, cfg, slog.Default())

	done := make(chan struct{})
	go func() {
		sweeper.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled sweeper did not return")
	}
}

func TestSweepConfigFromEnv(t *testing.T) {
	t.Setenv("FLEET_SWEEP_INTERVAL_SECONDS", "5")
	t.Setenv("FLEET_SWEEP_ENABLED", "false")
	t.Setenv("FLEET_MARKUP_FACTOR", "3.5")

	cfg := SweepConfigFromEnv()
	assert.Equal(t, 5*time.Second, cfg.Interval)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 3.5, cfg.MarkupFactor)
}

func TestSweepConfigDefaults(t *testing.T) {
	cfg := DefaultSweepConfig()
	assert.Equal(t, 60*time.Second, cfg.Interval)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 4.0, cfg.MarkupFactor)
}
