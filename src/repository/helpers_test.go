package repository

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"snapshotengine/src/database/dbtest"
	"snapshotengine/src/database/migrations"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := dbtest.SQLite(t)
	require.NoError(t, migrations.Provision(db))
	return db
}

// stepClock returns a clock that advances by one second on every call.
func stepClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := next
		next = next.Add(time.Second)
		return now
	}
}

func count(t *testing.T, db *gorm.DB, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(m).Count(&n).Error)
	return n
}
