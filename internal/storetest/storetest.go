// Package storetest opens throwaway in-memory databases for package tests.
package storetest

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/pcshop/internal/models"
	"github.com/Skotchmaster/pcshop/pkg/db"
)

// New returns a migrated sqlite database that lives as long as the test.
// A single connection keeps the in-memory database alive and serialises writers.
func New(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := db.Config()
	cfg.PrepareStmt = false

	gdb, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), cfg)
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, gdb.AutoMigrate(models.All()...))

	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}
