// Package database 定义了笔记系统的数据库模型、连接初始化和迁移
package database

// 模型定义见 note_models.go: Note、Tag、NoteTag
