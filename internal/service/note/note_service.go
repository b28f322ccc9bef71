// Package note 提供笔记管理相关的业务逻辑服务
// 包含笔记的增删改查、标签关联的整体替换以及按置顶和更新时间排序的列表查询
package note

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/weiwangfds/notebox/internal/database"
	apperrors "github.com/weiwangfds/notebox/internal/errors"
	"github.com/weiwangfds/notebox/internal/logger"
	tagservice "github.com/weiwangfds/notebox/internal/service/tag"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxTitleLength 笔记标题最大长度
const MaxTitleLength = 100

// NoteService 笔记服务接口
type NoteService interface {
	// CreateNote 创建笔记并关联标签，标签不存在时自动创建
	CreateNote(ctx context.Context, req *CreateNoteRequest) (*database.Note, error)

	// GetNote 获取笔记详情，标签按名称排序
	GetNote(ctx context.Context, noteID uint) (*database.Note, error)

	// UpdateNote 更新笔记内容，标签集合整体替换
	UpdateNote(ctx context.Context, noteID uint, req *UpdateNoteRequest) (*database.Note, error)

	// DeleteNote 删除笔记及其标签关联，标签本身保留
	DeleteNote(ctx context.Context, noteID uint) error

	// ListNotes 按置顶降序、更新时间降序列出笔记，默认不含已归档笔记
	ListNotes(ctx context.Context, filter ListFilter) ([]database.Note, error)

	// ReconcileTags 用给定名称整体替换笔记的标签集合
	ReconcileTags(ctx context.Context, noteID uint, names []string) ([]database.Tag, error)

	// SetPinned 设置置顶状态
	SetPinned(ctx context.Context, noteID uint, pinned bool) (*database.Note, error)

	// SetArchived 设置归档状态
	SetArchived(ctx context.Context, noteID uint, archived bool) (*database.Note, error)
}

// CreateNoteRequest 创建笔记请求
type CreateNoteRequest struct {
	Title    string `json:"title" binding:"required,max=100"` // 笔记标题
	Content  string `json:"content"`                          // 笔记内容
	IsPinned bool   `json:"is_pinned"`                        // 是否置顶
	Tags     string `json:"tags" binding:"max=500"`           // 逗号分隔的标签
}

// UpdateNoteRequest 更新笔记请求
// 除归档状态外均为整体替换
type UpdateNoteRequest struct {
	Title      string `json:"title" binding:"required,max=100"` // 笔记标题
	Content    string `json:"content"`                          // 笔记内容
	IsPinned   bool   `json:"is_pinned"`                        // 是否置顶
	IsArchived *bool  `json:"is_archived"`                      // 是否归档，为空时保持不变
	Tags       string `json:"tags" binding:"max=500"`           // 逗号分隔的标签
}

// ListFilter 列表查询条件
type ListFilter struct {
	TagID           *uint // 只返回关联了该标签的笔记
	PinnedOnly      bool  // 只返回置顶笔记
	IncludeArchived bool  // 是否包含已归档笔记
}

// noteService 笔记服务实现
type noteService struct {
	db              *gorm.DB
	tagService      tagservice.TagService
	validate        *validator.Validate
	conflictRetries uint64
}

// NewNoteService 创建笔记服务实例
// 参数:
//
//	db - 数据库连接
//	tagService - 标签服务，负责名称解析和按需创建
//	conflictRetries - 标签名称并发冲突时的重试次数
//
// 返回:
//
//	NoteService - 笔记服务接口
func NewNoteService(db *gorm.DB, tagService tagservice.TagService, conflictRetries uint64) NoteService {
	return &noteService{
		db:              db,
		tagService:      tagService,
		validate:        validator.New(),
		conflictRetries: conflictRetries,
	}
}

// CreateNote 创建新笔记
func (s *noteService) CreateNote(ctx context.Context, req *CreateNoteRequest) (*database.Note, error) {
	title, err := s.validateTitle(req.Title)
	if err != nil {
		return nil, err
	}
	names, err := s.tagService.Validator().ValidateTagString(req.Tags)
	if err != nil {
		return nil, err
	}

	var note database.Note
	err = s.withConflictRetry(ctx, "create note", func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			note = database.Note{
				Title:    title,
				Content:  strings.TrimSpace(req.Content),
				IsPinned: req.IsPinned,
			}
			if err := tx.Create(&note).Error; err != nil {
				return apperrors.Unavailable("create note", err)
			}
			_, err := s.reconcileTags(tx, &note, names)
			return err
		})
	})
	if err != nil {
		logger.WithField("title", title).Warnf("create note failed: %v", err)
		return nil, err
	}

	logger.WithFields(logrus.Fields{"note_id": note.ID, "tags": names}).Info("note created")
	return s.GetNote(ctx, note.ID)
}

// GetNote 根据ID获取笔记详情
func (s *noteService) GetNote(ctx context.Context, noteID uint) (*database.Note, error) {
	var note database.Note
	err := s.db.WithContext(ctx).Preload("Tags", orderTagsByName).First(&note, noteID).Error
	if err != nil {
		return nil, noteLookupError(noteID, err)
	}
	return &note, nil
}

// UpdateNote 更新笔记信息
func (s *noteService) UpdateNote(ctx context.Context, noteID uint, req *UpdateNoteRequest) (*database.Note, error) {
	title, err := s.validateTitle(req.Title)
	if err != nil {
		return nil, err
	}
	names, err := s.tagService.Validator().ValidateTagString(req.Tags)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"title":     title,
		"content":   strings.TrimSpace(req.Content),
		"is_pinned": req.IsPinned,
	}
	if req.IsArchived != nil {
		updates["is_archived"] = *req.IsArchived
	}

	err = s.withConflictRetry(ctx, "update note", func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var note database.Note
			if err := tx.First(&note, noteID).Error; err != nil {
				return noteLookupError(noteID, err)
			}

			updates["updated_at"] = time.Now()
			if err := tx.Model(&note).Updates(updates).Error; err != nil {
				return apperrors.Unavailable("update note", err)
			}

			_, err := s.reconcileTags(tx, &note, names)
			return err
		})
	})
	if err != nil {
		logger.WithField("note_id", noteID).Warnf("update note failed: %v", err)
		return nil, err
	}

	logger.WithFields(logrus.Fields{"note_id": noteID, "tags": names}).Info("note updated")
	return s.GetNote(ctx, noteID)
}

// DeleteNote 删除笔记（软删除）
// 先移除标签关联，被引用的标签即使成为孤立标签也不会删除
func (s *noteService) DeleteNote(ctx context.Context, noteID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var note database.Note
		if err := tx.First(&note, noteID).Error; err != nil {
			return noteLookupError(noteID, err)
		}

		if err := tx.Where("note_id = ?", note.ID).Delete(&database.NoteTag{}).Error; err != nil {
			return apperrors.Unavailable("delete note tags", err)
		}
		if err := tx.Delete(&note).Error; err != nil {
			return apperrors.Unavailable("delete note", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.WithField("note_id", noteID).Info("note deleted")
	return nil
}

// ListNotes 列出笔记
// 排序: is_pinned DESC, updated_at DESC，相同时按ID降序保证稳定
// 已归档的笔记默认不返回，filter.IncludeArchived 为 true 时才包含
func (s *noteService) ListNotes(ctx context.Context, filter ListFilter) ([]database.Note, error) {
	db := s.db.WithContext(ctx)

	if filter.TagID != nil {
		var count int64
		if err := db.Model(&database.Tag{}).Where("id = ?", *filter.TagID).Count(&count).Error; err != nil {
			return nil, apperrors.Unavailable("check tag", err)
		}
		if count == 0 {
			return nil, apperrors.Newf(apperrors.ErrTagNotFound, "tag not found: %d", *filter.TagID)
		}
	}

	query := db.Model(&database.Note{})
	if filter.TagID != nil {
		query = query.
			Joins("JOIN note_tags ON note_tags.note_id = notes.id").
			Where("note_tags.tag_id = ?", *filter.TagID)
	}
	if filter.PinnedOnly {
		query = query.Where("notes.is_pinned = ?", true)
	}
	if !filter.IncludeArchived {
		query = query.Where("notes.is_archived = ?", false)
	}

	notes := make([]database.Note, 0)
	err := query.
		Preload("Tags", orderTagsByName).
		Order("notes.is_pinned DESC").
		Order("notes.updated_at DESC").
		Order("notes.id DESC").
		Find(&notes).Error
	if err != nil {
		return nil, apperrors.Unavailable("list notes", err)
	}
	return notes, nil
}

// ReconcileTags 整体替换笔记的标签集合
func (s *noteService) ReconcileTags(ctx context.Context, noteID uint, names []string) ([]database.Tag, error) {
	normalized := tagservice.DedupeNames(names)
	if err := s.tagService.Validator().ValidateTagList(normalized); err != nil {
		return nil, err
	}

	var tags []database.Tag
	err := s.withConflictRetry(ctx, "reconcile tags", func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var note database.Note
			if err := tx.First(&note, noteID).Error; err != nil {
				return noteLookupError(noteID, err)
			}

			resolved, err := s.reconcileTags(tx, &note, normalized)
			if err != nil {
				return err
			}
			if err := tx.Model(&note).Update("updated_at", time.Now()).Error; err != nil {
				return apperrors.Unavailable("touch note", err)
			}
			tags = resolved
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{"note_id": noteID, "tags": normalized}).Info("note tags reconciled")
	return tags, nil
}

// SetPinned 设置置顶状态
func (s *noteService) SetPinned(ctx context.Context, noteID uint, pinned bool) (*database.Note, error) {
	return s.updateFlag(ctx, noteID, "is_pinned", pinned)
}

// SetArchived 设置归档状态
func (s *noteService) SetArchived(ctx context.Context, noteID uint, archived bool) (*database.Note, error) {
	return s.updateFlag(ctx, noteID, "is_archived", archived)
}

// updateFlag 更新单个布尔字段
func (s *noteService) updateFlag(ctx context.Context, noteID uint, column string, value bool) (*database.Note, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var note database.Note
		if err := tx.First(&note, noteID).Error; err != nil {
			return noteLookupError(noteID, err)
		}
		err := tx.Model(&note).Updates(map[string]interface{}{
			column:       value,
			"updated_at": time.Now(),
		}).Error
		return apperrors.Unavailable("update "+column, err)
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{"note_id": noteID, column: value}).Info("note flag updated")
	return s.GetNote(ctx, noteID)
}

// reconcileTags 在事务内把笔记的标签集合替换为 names 解析出的集合
// 已存在的关联保持不变，不再引用的关联被删除，新增的关联被插入；标签行本身不会被删除
func (s *noteService) reconcileTags(tx *gorm.DB, note *database.Note, names []string) ([]database.Tag, error) {
	tags, err := s.tagService.ResolveTags(tx, names)
	if err != nil {
		return nil, err
	}

	want := make(map[uint]struct{}, len(tags))
	for _, t := range tags {
		want[t.ID] = struct{}{}
	}

	var current []database.NoteTag
	if err := tx.Where("note_id = ?", note.ID).Find(&current).Error; err != nil {
		return nil, apperrors.Unavailable("load note tags", err)
	}
	have := make(map[uint]struct{}, len(current))
	stale := make([]uint, 0)
	for _, link := range current {
		have[link.TagID] = struct{}{}
		if _, keep := want[link.TagID]; !keep {
			stale = append(stale, link.TagID)
		}
	}

	if len(stale) > 0 {
		err := tx.Where("note_id = ? AND tag_id IN ?", note.ID, stale).Delete(&database.NoteTag{}).Error
		if err != nil {
			return nil, apperrors.Unavailable("unlink tags", err)
		}
	}

	added := make([]database.NoteTag, 0)
	for _, t := range tags {
		if _, linked := have[t.ID]; !linked {
			added = append(added, database.NoteTag{NoteID: note.ID, TagID: t.ID})
		}
	}
	if len(added) > 0 {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&added).Error; err != nil {
			return nil, apperrors.Unavailable("link tags", err)
		}
	}

	logger.WithFields(logrus.Fields{
		"note_id":  note.ID,
		"linked":   len(added),
		"unlinked": len(stale),
	}).Debug("tag links reconciled")

	note.Tags = tags
	return tags, nil
}

// withConflictRetry 执行 fn，遇到 ConstraintViolation 时按配置重试，其他错误立即返回
func (s *noteService) withConflictRetry(ctx context.Context, op string, fn func() error) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, s.conflictRetries), ctx)

	return backoff.RetryNotify(func() error {
		err := fn()
		if err == nil || apperrors.IsKind(err, apperrors.KindConflict) {
			return err
		}
		return backoff.Permanent(err)
	}, policy, func(err error, _ time.Duration) {
		logger.WithField("op", op).Warnf("tag name conflict, retrying: %v", err)
	})
}

// validateTitle 去除首尾空白后校验标题
func (s *noteService) validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if err := s.validate.Var(title, fmt.Sprintf("required,max=%d", MaxTitleLength)); err != nil {
		if title == "" {
			return "", apperrors.NewWithDetails(apperrors.ErrInvalidNote, "title is required")
		}
		return "", apperrors.Newf(apperrors.ErrInvalidNote, "title cannot exceed %d characters", MaxTitleLength)
	}
	return title, nil
}

// noteLookupError 把查询笔记时的错误转换为 NotFound 或 StoreUnavailable
func noteLookupError(noteID uint, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Newf(apperrors.ErrNoteNotFound, "note not found: %d", noteID)
	}
	return apperrors.Unavailable("get note", err)
}

// orderTagsByName 预加载标签时按名称排序
func orderTagsByName(db *gorm.DB) *gorm.DB {
	return db.Order("tags.name ASC")
}
