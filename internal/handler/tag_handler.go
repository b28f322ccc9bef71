package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/weiwangfds/notebox/internal/errors"
	"github.com/weiwangfds/notebox/internal/response"
	"github.com/weiwangfds/notebox/internal/service/note"
	"github.com/weiwangfds/notebox/internal/service/tag"
)

// TagHandler 标签处理器
// 处理所有标签相关的HTTP请求
type TagHandler struct {
	tagService  tag.TagService
	noteService note.NoteService
}

// NewTagHandler 创建标签处理器实例
// 参数:
//
//	tagService - 标签服务接口
//	noteService - 笔记服务接口，用于按标签列出笔记
func NewTagHandler(tagService tag.TagService, noteService note.NoteService) *TagHandler {
	return &TagHandler{
		tagService:  tagService,
		noteService: noteService,
	}
}

// CreateTag 创建标签
// @Summary 创建或复用标签
// @Description 规范名称已存在时返回已有标签（200），否则创建新标签（201）
// @Tags 标签管理
// @Accept json
// @Produce json
// @Param tag body tag.CreateTagRequest true "创建标签请求"
// @Router /api/v1/tags [post]
func (h *TagHandler) CreateTag(c *gin.Context) {
	var req tag.CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.NewWithDetails(apperrors.ErrInvalidParams, err.Error()))
		return
	}

	t, created, err := h.tagService.CreateOrReuseTag(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if created {
		response.Created(c, t)
		return
	}
	response.Success(c, t)
}

// ListTags 获取标签列表
// @Summary 获取全部标签及笔记数量
// @Router /api/v1/tags [get]
func (h *TagHandler) ListTags(c *gin.Context) {
	tags, err := h.tagService.ListTags(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, tags)
}

// GetTag 获取标签详情
// @Router /api/v1/tags/{id} [get]
func (h *TagHandler) GetTag(c *gin.Context) {
	tagID, ok := pathID(c)
	if !ok {
		return
	}

	t, err := h.tagService.GetTag(c.Request.Context(), tagID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, t)
}

// UpdateTag 更新标签
// @Summary 重命名标签或修改描述
// @Router /api/v1/tags/{id} [put]
func (h *TagHandler) UpdateTag(c *gin.Context) {
	tagID, ok := pathID(c)
	if !ok {
		return
	}

	var req tag.UpdateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.NewWithDetails(apperrors.ErrInvalidParams, err.Error()))
		return
	}

	t, err := h.tagService.UpdateTag(c.Request.Context(), tagID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, t)
}

// DeleteTag 删除标签
// @Summary 删除标签及其全部笔记关联，笔记本身保留
// @Router /api/v1/tags/{id} [delete]
func (h *TagHandler) DeleteTag(c *gin.Context) {
	tagID, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.tagService.DeleteTag(c.Request.Context(), tagID); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListNotesByTag 列出关联了该标签的笔记
// @Router /api/v1/tags/{id}/notes [get]
func (h *TagHandler) ListNotesByTag(c *gin.Context) {
	tagID, ok := pathID(c)
	if !ok {
		return
	}

	notes, err := h.noteService.ListNotes(c.Request.Context(), note.ListFilter{
		TagID:           &tagID,
		IncludeArchived: queryBool(c, "archived"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, notes)
}
