package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/weiwangfds/notebox/config"
	"github.com/weiwangfds/notebox/internal/database"
	"github.com/weiwangfds/notebox/internal/logger"
	"gorm.io/gorm"
)

var (
	configPath string
	verbose    bool
)

// rootCmd 数据库维护命令入口
var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the notebox database schema",
	Long: `migrate creates, drops and seeds the notes, tags and note_tags tables
using the same configuration as the server.`,
	SilenceUsage: true,
}

// Execute 执行根命令，失败时以非零状态退出
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// openDB 加载配置、初始化日志并打开数据库连接，不执行迁移
func openDB() (*gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := logger.Init(&cfg.Log); err != nil {
		return nil, err
	}
	return database.Open(cfg.Database)
}

// closeDB 关闭底层连接
func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
