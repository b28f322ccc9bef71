// Package tag 提供标签管理相关的业务逻辑服务
// 包含标签字符串的规范化、按名称复用或创建标签，以及标签的查询、更新和删除
package tag

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/weiwangfds/notebox/internal/database"
	apperrors "github.com/weiwangfds/notebox/internal/errors"
	"github.com/weiwangfds/notebox/internal/logger"
	"gorm.io/gorm"
)

// TagService 标签服务接口
type TagService interface {
	// CreateOrReuseTag 按规范名称复用已有标签，不存在时创建
	// 返回:
	//
	//	*database.Tag - 标签对象
	//	bool - 是否为新创建
	//	error - 校验失败返回 ValidationError
	CreateOrReuseTag(ctx context.Context, req *CreateTagRequest) (*database.Tag, bool, error)

	// GetTag 根据ID获取标签
	GetTag(ctx context.Context, tagID uint) (*database.Tag, error)

	// ListTags 获取全部标签及其关联笔记数量，按名称排序
	ListTags(ctx context.Context) ([]TagWithCount, error)

	// UpdateTag 更新标签名称或描述，新名称被其他标签占用时返回 ConstraintViolation
	UpdateTag(ctx context.Context, tagID uint, req *UpdateTagRequest) (*database.Tag, error)

	// DeleteTag 删除标签及其所有关联关系
	DeleteTag(ctx context.Context, tagID uint) error

	// ResolveTags 在调用方事务内把候选名称解析为标签，已存在的复用，不存在的创建
	ResolveTags(tx *gorm.DB, names []string) ([]database.Tag, error)

	// Validator 返回标签校验器
	Validator() *Validator
}

// CreateTagRequest 创建标签请求
type CreateTagRequest struct {
	Name        string `json:"name" binding:"required"`       // 标签名称
	Description string `json:"description" binding:"max=200"` // 标签描述
}

// UpdateTagRequest 更新标签请求
type UpdateTagRequest struct {
	Name        *string `json:"name"`        // 标签名称
	Description *string `json:"description"` // 标签描述
}

// TagWithCount 标签及其关联笔记数量
type TagWithCount struct {
	database.Tag `gorm:"embedded"`
	NoteCount    int64 `json:"note_count"`
}

// tagService 标签服务实现
type tagService struct {
	db        *gorm.DB
	validator *Validator
}

// NewTagService 创建标签服务实例
// 参数:
//
//	db - 数据库连接
//	validator - 标签校验器
func NewTagService(db *gorm.DB, validator *Validator) TagService {
	return &tagService{
		db:        db,
		validator: validator,
	}
}

// Validator 返回标签校验器
func (s *tagService) Validator() *Validator {
	return s.validator
}

// CreateOrReuseTag 按规范名称复用或创建标签
func (s *tagService) CreateOrReuseTag(ctx context.Context, req *CreateTagRequest) (*database.Tag, bool, error) {
	name := NormalizeTagName(req.Name)
	if err := s.validator.ValidateName(name); err != nil {
		return nil, false, err
	}
	description := strings.TrimSpace(req.Description)
	if err := s.validator.ValidateDescription(description); err != nil {
		return nil, false, err
	}

	var (
		tag     database.Tag
		created bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("name = ?", name).First(&tag).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.Unavailable("find tag", err)
		}

		tag = database.Tag{Name: name, Description: description}
		if err := tx.Create(&tag).Error; err != nil {
			return classifyWriteError("create tag", name, err)
		}
		created = true
		return nil
	})
	if err != nil {
		logger.WithField("tag", name).Warnf("create or reuse tag failed: %v", err)
		return nil, false, err
	}

	if created {
		logger.WithFields(logrus.Fields{"tag_id": tag.ID, "tag": tag.Name}).Info("tag created")
	}
	return &tag, created, nil
}

// GetTag 根据ID获取标签
func (s *tagService) GetTag(ctx context.Context, tagID uint) (*database.Tag, error) {
	var tag database.Tag
	if err := s.db.WithContext(ctx).First(&tag, tagID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.ErrTagNotFound, "tag not found: %d", tagID)
		}
		return nil, apperrors.Unavailable("get tag", err)
	}
	return &tag, nil
}

// ListTags 获取全部标签及其关联笔记数量
func (s *tagService) ListTags(ctx context.Context) ([]TagWithCount, error) {
	var tags []TagWithCount
	err := s.db.WithContext(ctx).
		Model(&database.Tag{}).
		Select("tags.*, COUNT(notes.id) AS note_count").
		Joins("LEFT JOIN note_tags ON note_tags.tag_id = tags.id").
		Joins("LEFT JOIN notes ON notes.id = note_tags.note_id AND notes.deleted_at IS NULL").
		Group("tags.id").
		Order("tags.name ASC").
		Scan(&tags).Error
	if err != nil {
		return nil, apperrors.Unavailable("list tags", err)
	}
	return tags, nil
}

// UpdateTag 更新标签信息
func (s *tagService) UpdateTag(ctx context.Context, tagID uint, req *UpdateTagRequest) (*database.Tag, error) {
	updates := map[string]interface{}{"updated_at": time.Now()}

	if req.Name != nil {
		name := NormalizeTagName(*req.Name)
		if err := s.validator.ValidateName(name); err != nil {
			return nil, err
		}
		updates["name"] = name
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		if err := s.validator.ValidateDescription(description); err != nil {
			return nil, err
		}
		updates["description"] = description
	}

	var tag database.Tag
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&tag, tagID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.Newf(apperrors.ErrTagNotFound, "tag not found: %d", tagID)
			}
			return apperrors.Unavailable("get tag", err)
		}

		if name, ok := updates["name"].(string); ok && name != tag.Name {
			var count int64
			if err := tx.Model(&database.Tag{}).Where("name = ? AND id <> ?", name, tagID).Count(&count).Error; err != nil {
				return apperrors.Unavailable("check tag name", err)
			}
			if count > 0 {
				return apperrors.Newf(apperrors.ErrTagAlreadyExists, "tag %q already exists", name)
			}
		}

		if err := tx.Model(&tag).Updates(updates).Error; err != nil {
			return classifyWriteError("update tag", tag.Name, err)
		}
		return tx.First(&tag, tagID).Error
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{"tag_id": tag.ID, "tag": tag.Name}).Info("tag updated")
	return &tag, nil
}

// DeleteTag 删除标签
// 先删除所有关联关系再删除标签本身，孤立的关联行不会残留
func (s *tagService) DeleteTag(ctx context.Context, tagID uint) error {
	var removedLinks int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tag database.Tag
		if err := tx.First(&tag, tagID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.Newf(apperrors.ErrTagNotFound, "tag not found: %d", tagID)
			}
			return apperrors.Unavailable("get tag", err)
		}

		result := tx.Where("tag_id = ?", tag.ID).Delete(&database.NoteTag{})
		if result.Error != nil {
			return apperrors.Unavailable("delete tag links", result.Error)
		}
		removedLinks = result.RowsAffected

		if err := tx.Delete(&tag).Error; err != nil {
			return apperrors.Unavailable("delete tag", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{"tag_id": tagID, "links_removed": removedLinks}).Info("tag deleted")
	return nil
}

// ResolveTags 把候选名称解析为标签
// 名称先规范化并去重；并发创建同名标签时唯一索引冲突会以 ConstraintViolation 返回，
// 调用方回滚事务后重试即可读到已存在的行
func (s *tagService) ResolveTags(tx *gorm.DB, names []string) ([]database.Tag, error) {
	names = DedupeNames(names)
	if err := s.validator.ValidateNames(names); err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return []database.Tag{}, nil
	}

	var existing []database.Tag
	if err := tx.Where("name IN ?", names).Find(&existing).Error; err != nil {
		return nil, apperrors.Unavailable("find tags", err)
	}
	byName := make(map[string]database.Tag, len(existing))
	for _, t := range existing {
		byName[t.Name] = t
	}

	resolved := make([]database.Tag, 0, len(names))
	for _, name := range names {
		if t, ok := byName[name]; ok {
			resolved = append(resolved, t)
			continue
		}
		t := database.Tag{Name: name}
		if err := tx.Create(&t).Error; err != nil {
			return nil, classifyWriteError("create tag", name, err)
		}
		logger.WithFields(logrus.Fields{"tag_id": t.ID, "tag": t.Name}).Debug("tag created on demand")
		resolved = append(resolved, t)
	}
	return resolved, nil
}

// classifyWriteError 把唯一约束冲突转换为 ConstraintViolation，其余视为存储错误
func classifyWriteError(op, name string, err error) error {
	if IsDuplicateKey(err) {
		return apperrors.Wrap(apperrors.ErrConflict, apperrors.GetErrorMessage(apperrors.ErrConflict), err).
			WithDetails("tag " + name + " was created concurrently")
	}
	return apperrors.Unavailable(op, err)
}

// IsDuplicateKey 判断是否为唯一约束冲突
// 驱动未实现错误翻译时按错误文本兜底
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry")
}
