// Package repotest opens throwaway in-memory databases for tests.
package repotest

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/phonehub/internal/repo"
	"github.com/Skotchmaster/phonehub/pkg/db"
)

// NewDB returns a migrated sqlite database private to t, seeded with
// repo.DefaultRoles.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	gdb, err := gorm.Open(sqlite.Open(dsn), db.Config())
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repo.Migrate(gdb))
	require.NoError(t, repo.New(gdb).EnsureRoles(t.Context(), repo.DefaultRoles))
	return gdb
}
