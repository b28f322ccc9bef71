package database

import (
	"github.com/weiwangfds/notebox/internal/logger"
	"gorm.io/gorm"
)

// MigrateNotesTables 执行笔记系统相关表的数据库迁移
// 参数: db *gorm.DB - GORM数据库连接实例
// 返回值: error - 迁移失败时返回错误信息
func MigrateNotesTables(db *gorm.DB) error {
	logger.Debug("migrating notes tables")

	err := db.AutoMigrate(
		&Note{},    // 笔记主表
		&Tag{},     // 标签表
		&NoteTag{}, // 笔记标签关联表
	)
	if err != nil {
		return err
	}

	if err := createNotesIndexes(db); err != nil {
		return err
	}

	logger.Debug("notes tables migrated")
	return nil
}

// DropNotesTables 按依赖顺序删除笔记系统的表
func DropNotesTables(db *gorm.DB) error {
	return db.Migrator().DropTable(&NoteTag{}, &Tag{}, &Note{})
}

// createNotesIndexes 创建模型标签之外的索引
// 部分索引只有SQLite支持，MySQL依赖模型上声明的复合索引
func createNotesIndexes(db *gorm.DB) error {
	if db.Dialector.Name() != "sqlite" {
		return nil
	}

	indexes := []string{
		// 列表查询：未删除笔记按置顶、更新时间排序
		"CREATE INDEX IF NOT EXISTS idx_notes_active_order ON notes(is_pinned DESC, updated_at DESC, id DESC) WHERE deleted_at IS NULL",
		// 置顶笔记列表
		"CREATE INDEX IF NOT EXISTS idx_notes_pinned_only ON notes(updated_at DESC) WHERE deleted_at IS NULL AND is_pinned = 1",
		// 按标签筛选笔记
		"CREATE INDEX IF NOT EXISTS idx_note_tags_tag_note ON note_tags(tag_id, note_id)",
	}

	for _, indexSQL := range indexes {
		if err := db.Exec(indexSQL).Error; err != nil {
			logger.Errorf("failed to create index: %s, error: %v", indexSQL, err)
			return err
		}
	}
	return nil
}

// SeedNotesData 初始化示例数据，重复执行不会产生重复记录
// 参数: db *gorm.DB - GORM数据库连接实例
// 返回值: error - 初始化失败时返回错误信息
func SeedNotesData(db *gorm.DB) error {
	logger.Info("seeding notes data")

	return db.Transaction(func(tx *gorm.DB) error {
		tags := []Tag{
			{Name: "work", Description: "Work related notes"},
			{Name: "personal", Description: "Personal notes"},
			{Name: "ideas", Description: "Ideas worth revisiting"},
		}
		for i := range tags {
			if err := tx.Where(Tag{Name: tags[i].Name}).FirstOrCreate(&tags[i]).Error; err != nil {
				return err
			}
		}

		notes := []struct {
			note Note
			tags []Tag
		}{
			{Note{Title: "Welcome", Content: "Pinned notes stay on top of the list.", IsPinned: true}, []Tag{tags[1]}},
			{Note{Title: "Quarterly planning", Content: "Collect goals for next quarter."}, []Tag{tags[0], tags[2]}},
		}
		for _, n := range notes {
			note := n.note
			if err := tx.Where(Note{Title: note.Title}).FirstOrCreate(&note).Error; err != nil {
				return err
			}
			for _, t := range n.tags {
				link := NoteTag{NoteID: note.ID, TagID: t.ID}
				if err := tx.Where(link).FirstOrCreate(&link).Error; err != nil {
					return err
				}
			}
		}

		logger.Info("notes data seeded")
		return nil
	})
}
