package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiwangfds/notebox/config"
	apperrors "github.com/weiwangfds/notebox/internal/errors"
	"github.com/weiwangfds/notebox/internal/middleware"
	"github.com/weiwangfds/notebox/internal/testutil"
)

type apiResponse struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	Details   string          `json:"details"`
	Data      json.RawMessage `json:"data"`
	RequestID string          `json:"request_id"`
}

type noteBody struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	IsPinned  bool   `json:"is_pinned"`
	TagString string `json:"tag_string"`
	Tags      []struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	} `json:"tags"`
}

type tagBody struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	NoteCount int64  `json:"note_count"`
}

func setupEngine(t *testing.T) *gin.Engine {
	db := testutil.NewTestDB(t)
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: gin.TestMode},
		Tags:   config.DefaultTagConfig(),
		Retry:  config.RetryConfig{ConflictRetries: 1},
	}
	return NewRouter(db, cfg).GetEngine()
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var resp apiResponse
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func TestHealthAndRequestID(t *testing.T) {
	engine := setupEngine(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-123", w.Header().Get(middleware.RequestIDHeader))

	w, resp := doJSON(t, engine, http.MethodGet, "/api/v1/db/status", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, resp.RequestID)
}

func TestDBStatusUnavailable(t *testing.T) {
	db := testutil.NewTestDB(t)
	r := NewRouter(db, &config.Config{
		Server: config.ServerConfig{Mode: gin.TestMode},
		Tags:   config.DefaultTagConfig(),
	})
	require.Same(t, db, r.GetDB())

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	w, resp := doJSON(t, r.GetEngine(), http.MethodGet, "/api/v1/db/status", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, int(apperrors.ErrDatabaseConnection), resp.Code)
	// 驱动报错不返回给客户端
	assert.Empty(t, resp.Details)
	assert.NotContains(t, w.Body.String(), "closed")
}

func TestNoteLifecycle(t *testing.T) {
	engine := setupEngine(t)

	w, resp := doJSON(t, engine, http.MethodPost, "/api/v1/notes", gin.H{
		"title": "Shopping",
		"tags":  "Food, urgent, FOOD",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created noteBody
	require.NoError(t, json.Unmarshal(resp.Data, &created))
	assert.Equal(t, "food, urgent", created.TagString)
	require.Len(t, created.Tags, 2)
	notePath := fmt.Sprintf("/api/v1/notes/%d", created.ID)

	w, resp = doJSON(t, engine, http.MethodPut, notePath+"/tags", gin.H{"tags": "urgent"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// food 成为孤立标签但仍然存在
	w, resp = doJSON(t, engine, http.MethodGet, "/api/v1/tags", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tags []tagBody
	require.NoError(t, json.Unmarshal(resp.Data, &tags))
	require.Len(t, tags, 2)
	assert.Equal(t, "food", tags[0].Name)
	assert.Zero(t, tags[0].NoteCount)
	assert.Equal(t, "urgent", tags[1].Name)
	assert.Equal(t, int64(1), tags[1].NoteCount)

	w, resp = doJSON(t, engine, http.MethodPost, notePath+"/pin", gin.H{"value": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var pinned noteBody
	require.NoError(t, json.Unmarshal(resp.Data, &pinned))
	assert.True(t, pinned.IsPinned)

	w, resp = doJSON(t, engine, http.MethodGet, "/api/v1/notes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []noteBody
	require.NoError(t, json.Unmarshal(resp.Data, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "Shopping", listed[0].Title)

	w, _ = doJSON(t, engine, http.MethodGet, fmt.Sprintf("/api/v1/tags/%d/notes", tags[1].ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, engine, http.MethodDelete, notePath, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp = doJSON(t, engine, http.MethodGet, notePath, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, int(apperrors.ErrNoteNotFound), resp.Code)
}

func TestNoteValidationErrors(t *testing.T) {
	engine := setupEngine(t)

	w, resp := doJSON(t, engine, http.MethodPost, "/api/v1/notes", gin.H{"tags": "work"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, int(apperrors.ErrInvalidParams), resp.Code)

	w, resp = doJSON(t, engine, http.MethodPost, "/api/v1/notes", gin.H{"title": "Note", "tags": "ok, x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, int(apperrors.ErrInvalidTag), resp.Code)

	w, _ = doJSON(t, engine, http.MethodGet, "/api/v1/notes/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, engine, http.MethodGet, "/api/v1/notes/0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp = doJSON(t, engine, http.MethodGet, "/api/v1/notes?tag_id=999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, int(apperrors.ErrTagNotFound), resp.Code)

	w, _ = doJSON(t, engine, http.MethodGet, "/api/v1/notes?tag_id=nope", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, engine, http.MethodPost, "/api/v1/notes/1/pin", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReconcileTagsNameListLength(t *testing.T) {
	engine := setupEngine(t)

	w, resp := doJSON(t, engine, http.MethodPost, "/api/v1/notes", gin.H{"title": "Reading list"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var note noteBody
	require.NoError(t, json.Unmarshal(resp.Data, &note))
	tagsPath := fmt.Sprintf("/api/v1/notes/%d/tags", note.ID)

	names := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		names = append(names, fmt.Sprintf("book-%02d-%s", i, strings.Repeat("x", 22)))
	}

	t.Run("列表总长度超限", func(t *testing.T) {
		w, resp := doJSON(t, engine, http.MethodPut, tagsPath, gin.H{"names": names})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, int(apperrors.ErrInvalidTag), resp.Code)

		w, resp = doJSON(t, engine, http.MethodGet, "/api/v1/tags", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var tags []tagBody
		require.NoError(t, json.Unmarshal(resp.Data, &tags))
		assert.Empty(t, tags)
	})

	t.Run("字符串与列表合并后超限", func(t *testing.T) {
		w, _ := doJSON(t, engine, http.MethodPut, tagsPath, gin.H{
			"tags":  strings.Join(names[:10], ", "),
			"names": names[10:],
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("未超限时正常替换", func(t *testing.T) {
		w, resp := doJSON(t, engine, http.MethodPut, tagsPath, gin.H{"names": names[:5]})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var tags []tagBody
		require.NoError(t, json.Unmarshal(resp.Data, &tags))
		assert.Len(t, tags, 5)
	})
}

func TestTagEndpoints(t *testing.T) {
	engine := setupEngine(t)

	w, resp := doJSON(t, engine, http.MethodPost, "/api/v1/tags", gin.H{"name": "Reading"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var tag tagBody
	require.NoError(t, json.Unmarshal(resp.Data, &tag))
	assert.Equal(t, "reading", tag.Name)

	// 同名复用
	w, resp = doJSON(t, engine, http.MethodPost, "/api/v1/tags", gin.H{"name": " READING "})
	require.Equal(t, http.StatusOK, w.Code)
	var reused tagBody
	require.NoError(t, json.Unmarshal(resp.Data, &reused))
	assert.Equal(t, tag.ID, reused.ID)

	tagPath := fmt.Sprintf("/api/v1/tags/%d", tag.ID)

	w, _ = doJSON(t, engine, http.MethodPost, "/api/v1/tags", gin.H{"name": "books"})
	require.Equal(t, http.StatusCreated, w.Code)
	w, resp = doJSON(t, engine, http.MethodPut, tagPath, gin.H{"name": "Books"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, int(apperrors.ErrTagAlreadyExists), resp.Code)

	w, _ = doJSON(t, engine, http.MethodPut, tagPath, gin.H{"description": "to read"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, engine, http.MethodPost, "/api/v1/notes", gin.H{"title": "Dune", "tags": "reading"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = doJSON(t, engine, http.MethodDelete, tagPath, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, _ = doJSON(t, engine, http.MethodGet, tagPath, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, resp = doJSON(t, engine, http.MethodGet, "/api/v1/notes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var notes []noteBody
	require.NoError(t, json.Unmarshal(resp.Data, &notes))
	require.Len(t, notes, 1)
	assert.Empty(t, notes[0].Tags)
}
