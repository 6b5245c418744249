package ha

import (
	"context"
	"sync"
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
	return db
}

func TestNilDBUsesNoopLock(t *testing.T) {
	lock := NewMigrationLocker(nil)

	called := false
	err := lock.WithLock(context.Background(), func() error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestFallbackLockRunsFn(t *testing.T) {
	db := setupTestDB(t)
	lock := NewMigrationLocker(db)

	called := false
	err := lock.WithLock(context.Background(), func() error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	// The lock row is released after WithLock returns.
	var count int64
	require.NoError(t, db.Model(&migrationLockRecord{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestFallbackLockSerializes(t *testing.T) {
	db := setupTestDB(t)
	lock := NewMigrationLocker(db)

	var mu sync.Mutex
	inCritical := 0
	maxInCritical := 0

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = lock.WithLock(context.Background(), func() error {
				mu.Lock()
				inCritical++
				if inCritical > maxInCritical {
					maxInCritical = inCritical
				}
				mu.Unlock()

				time.Sleep(20 * time.Millisecond)

				mu.Lock()
				inCritical--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInCritical)
}

func TestStaleLockIsReclaimed(t *testing.T) {
	db := setupTestDB(t)
	lock := NewMigrationLocker(db)

	stale := migrationLockRecord{
		ID:       "migration",
		LockedAt: time.Now().Add(-10 * time.Minute),
		LockedBy: "crashed-replica",
	}
	require.NoError(t, db.Create(&stale).Error)

	called := false
	err := lock.WithLock(context.Background(), func() error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("FLEET_MIGRATION_LOCK_ENABLED", "false")
	cfg := ConfigFromEnv()
	assert.False(t, cfg.MigrationLockEnabled)
}

func TestDefaultConfig(t *testing.T) {
	assert.True(t, DefaultConfig().MigrationLockEnabled)
}
