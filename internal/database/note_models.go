package database

import (
	"time"

	"gorm.io/gorm"
)

// Note 笔记模型
// 标签集合通过 note_tags 关联表维护，每次更新整体替换
type Note struct {
	ID         uint           `gorm:"primarykey" json:"id"`                                                              // 主键ID，自增
	Title      string         `gorm:"not null;size:100;index:idx_note_title" json:"title"`                               // 笔记标题，必填，最大100字符
	Content    string         `gorm:"type:text" json:"content"`                                                          // 笔记内容，可选
	IsPinned   bool           `gorm:"not null;default:false;index:idx_notes_pinned_updated,priority:1" json:"is_pinned"` // 是否置顶
	IsArchived bool           `gorm:"not null;default:false" json:"is_archived"`                                         // 是否已归档，归档后默认不在列表中显示
	CreatedAt  time.Time      `json:"created_at"`                                                                        // 创建时间
	UpdatedAt  time.Time      `gorm:"index:idx_notes_pinned_updated,priority:2" json:"updated_at"`                       // 最后修改时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                                                                    // 软删除时间戳

	// 关联关系
	Tags []Tag `gorm:"many2many:note_tags;" json:"tags"` // 多对多关联标签
}

// TableName 指定Note模型对应的数据库表名
func (Note) TableName() string {
	return "notes"
}

// TagNames 返回笔记当前加载的标签名称
func (n *Note) TagNames() []string {
	names := make([]string, 0, len(n.Tags))
	for _, t := range n.Tags {
		names = append(names, t.Name)
	}
	return names
}

// Tag 标签模型
// 名称统一为小写，全局唯一。标签不做软删除，否则被删除的名称会一直占用唯一索引
type Tag struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                 // 主键ID，自增
	Name        string    `gorm:"not null;size:50;uniqueIndex:uq_tag_name" json:"name"` // 标签名称，必填且唯一，最大50字符
	Description string    `gorm:"size:200" json:"description,omitempty"`                // 标签描述，可选
	CreatedAt   time.Time `json:"created_at"`                                           // 创建时间
	UpdatedAt   time.Time `json:"updated_at"`                                           // 最后修改时间
}

// TableName 指定Tag模型对应的数据库表名
func (Tag) TableName() string {
	return "tags"
}

// NoteTag 笔记标签关联模型
// (note_id, tag_id) 为复合主键，同一对关联最多出现一次
type NoteTag struct {
	NoteID     uint      `gorm:"primaryKey;autoIncrement:false" json:"note_id"`                        // 笔记ID
	TagID      uint      `gorm:"primaryKey;autoIncrement:false;index:idx_note_tags_tag" json:"tag_id"` // 标签ID
	CreatedAt  time.Time `json:"created_at"`                                                           // 关联创建时间
	ModifiedAt time.Time `gorm:"autoUpdateTime" json:"modified_at"`                                    // 关联最后修改时间
}

// TableName 指定NoteTag模型对应的数据库表名
func (NoteTag) TableName() string {
	return "note_tags"
}
