// Package testutil 提供测试用的数据库初始化
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/weiwangfds/notebox/config"
	"github.com/weiwangfds/notebox/internal/database"
	"gorm.io/gorm"
)

// NewTestDB 在临时目录创建已迁移的SQLite数据库，测试结束时关闭连接
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, _ := NewTestDBFile(t)
	return db
}

// NewTestDBFile 同 NewTestDB，同时返回数据库文件路径，供 OpenTestDB 打开第二个连接
func NewTestDBFile(t *testing.T) (*gorm.DB, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "notes_test.db")
	db, err := database.Init(testConfig(path))
	require.NoError(t, err)
	closeOnCleanup(t, db)
	return db, path
}

// OpenTestDB 打开已存在的测试数据库，不执行迁移，连接池与 NewTestDB 相互独立
func OpenTestDB(t *testing.T, path string) *gorm.DB {
	t.Helper()

	db, err := database.Open(testConfig(path))
	require.NoError(t, err)
	closeOnCleanup(t, db)
	return db
}

func testConfig(path string) config.DatabaseConfig {
	return config.DatabaseConfig{
		Driver:   "sqlite",
		DSN:      path,
		LogLevel: "silent",
	}
}

func closeOnCleanup(t *testing.T, db *gorm.DB) {
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
}
