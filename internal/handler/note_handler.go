// Package handler 提供笔记和标签的HTTP处理器
// 请求参数绑定后交给服务层处理，错误统一按应用错误码转换为HTTP状态
package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/weiwangfds/notebox/internal/database"
	apperrors "github.com/weiwangfds/notebox/internal/errors"
	"github.com/weiwangfds/notebox/internal/response"
	"github.com/weiwangfds/notebox/internal/service/note"
	"github.com/weiwangfds/notebox/internal/service/tag"
)

// NoteHandler 笔记处理器
type NoteHandler struct {
	noteService note.NoteService
}

// NewNoteHandler 创建笔记处理器实例
func NewNoteHandler(noteService note.NoteService) *NoteHandler {
	return &NoteHandler{
		noteService: noteService,
	}
}

// NoteDetail 笔记详情，附带可直接回填编辑表单的标签字符串
type NoteDetail struct {
	*database.Note
	TagString string `json:"tag_string"`
}

// ReconcileTagsRequest 替换笔记标签请求
// tags 为逗号分隔的字符串，names 为名称列表，两者会合并
type ReconcileTagsRequest struct {
	Tags  string   `json:"tags" binding:"max=500"`
	Names []string `json:"names"`
}

// SetFlagRequest 设置布尔状态请求
type SetFlagRequest struct {
	Value *bool `json:"value" binding:"required"`
}

// ListNotes 获取笔记列表
// @Summary 获取笔记列表
// @Description 置顶笔记在前，其余按更新时间倒序；可按标签或置顶状态过滤
// @Param tag_id query int false "标签ID"
// @Param pinned query bool false "只看置顶"
// @Param archived query bool false "包含已归档"
// @Router /api/v1/notes [get]
func (h *NoteHandler) ListNotes(c *gin.Context) {
	var filter note.ListFilter

	if tagIDStr := c.Query("tag_id"); tagIDStr != "" {
		tagID, err := parseID(tagIDStr)
		if err != nil {
			response.BadRequest(c, "invalid tag_id")
			return
		}
		filter.TagID = &tagID
	}
	filter.PinnedOnly = queryBool(c, "pinned")
	filter.IncludeArchived = queryBool(c, "archived")

	notes, err := h.noteService.ListNotes(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, notes)
}

// CreateNote 创建笔记
// @Summary 创建新笔记
// @Description 标签为逗号分隔字符串，不存在的标签会自动创建
// @Param note body note.CreateNoteRequest true "创建笔记请求"
// @Router /api/v1/notes [post]
func (h *NoteHandler) CreateNote(c *gin.Context) {
	var req note.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.NewWithDetails(apperrors.ErrInvalidParams, err.Error()))
		return
	}

	created, err := h.noteService.CreateNote(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, newNoteDetail(created))
}

// GetNote 获取笔记详情
// @Router /api/v1/notes/{id} [get]
func (h *NoteHandler) GetNote(c *gin.Context) {
	noteID, ok := pathID(c)
	if !ok {
		return
	}

	n, err := h.noteService.GetNote(c.Request.Context(), noteID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, newNoteDetail(n))
}

// UpdateNote 更新笔记
// @Summary 更新笔记
// @Description 标题、内容、置顶状态和标签整体替换
// @Param note body note.UpdateNoteRequest true "更新笔记请求"
// @Router /api/v1/notes/{id} [put]
func (h *NoteHandler) UpdateNote(c *gin.Context) {
	noteID, ok := pathID(c)
	if !ok {
		return
	}

	var req note.UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.NewWithDetails(apperrors.ErrInvalidParams, err.Error()))
		return
	}

	updated, err := h.noteService.UpdateNote(c.Request.Context(), noteID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, newNoteDetail(updated))
}

// DeleteNote 删除笔记
// @Router /api/v1/notes/{id} [delete]
func (h *NoteHandler) DeleteNote(c *gin.Context) {
	noteID, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.noteService.DeleteNote(c.Request.Context(), noteID); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMessage(c, "note deleted", nil)
}

// ReconcileTags 替换笔记的标签集合
// @Router /api/v1/notes/{id}/tags [put]
func (h *NoteHandler) ReconcileTags(c *gin.Context) {
	noteID, ok := pathID(c)
	if !ok {
		return
	}

	var req ReconcileTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.NewWithDetails(apperrors.ErrInvalidParams, err.Error()))
		return
	}

	names := append(tag.ParseTagString(req.Tags), req.Names...)
	tags, err := h.noteService.ReconcileTags(c.Request.Context(), noteID, names)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, tags)
}

// PinNote 设置置顶状态
// @Router /api/v1/notes/{id}/pin [post]
func (h *NoteHandler) PinNote(c *gin.Context) {
	h.setFlag(c, h.noteService.SetPinned)
}

// ArchiveNote 设置归档状态
// @Router /api/v1/notes/{id}/archive [post]
func (h *NoteHandler) ArchiveNote(c *gin.Context) {
	h.setFlag(c, h.noteService.SetArchived)
}

func (h *NoteHandler) setFlag(c *gin.Context, set func(ctx context.Context, noteID uint, value bool) (*database.Note, error)) {
	noteID, ok := pathID(c)
	if !ok {
		return
	}

	var req SetFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.NewWithDetails(apperrors.ErrInvalidParams, err.Error()))
		return
	}

	n, err := set(c.Request.Context(), noteID, *req.Value)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, newNoteDetail(n))
}

func newNoteDetail(n *database.Note) NoteDetail {
	return NoteDetail{Note: n, TagString: tag.FormatTagString(n.Tags)}
}
