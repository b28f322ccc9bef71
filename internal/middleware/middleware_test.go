package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiwangfds/notebox/config"
	"github.com/weiwangfds/notebox/internal/logger"
)

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(handlers...)
	return engine
}

func TestRequestID(t *testing.T) {
	engine := newEngine(RequestID())
	var seen string
	engine.GET("/ping", func(c *gin.Context) {
		seen = c.GetString("request_id")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "client-id")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, "client-id", seen)
}

func captureLogs(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	require.NoError(t, logger.Init(&config.LogConfig{Level: level, Format: "text"}))
	buf := &bytes.Buffer{}
	logger.GetLogger().SetOutput(buf)
	logger.GetLogger().SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	t.Cleanup(func() { _ = logger.Init(nil) })
	return buf
}

func TestAccessLog(t *testing.T) {
	buf := captureLogs(t, "info")

	engine := newEngine(RequestID(), AccessLog())
	engine.GET("/missing", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing?x=1", nil))

	out := buf.String()
	assert.Contains(t, out, "level=warning")
	assert.Contains(t, out, "status=404")
	assert.Contains(t, out, "raw_query=\"x=1\"")
}

func TestRequestLoggerKeepsBody(t *testing.T) {
	buf := captureLogs(t, "debug")

	engine := newEngine(RequestLogger(nil))
	var received string
	engine.POST("/notes", func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		received = string(body)
		c.JSON(http.StatusCreated, gin.H{"id": 1})
	})

	payload := `{"title":"Shopping"}`
	req := httptest.NewRequest(http.MethodPost, "/notes", bytes.NewBufferString(payload))
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, payload, received)
	assert.Contains(t, buf.String(), "request trace")
	assert.Contains(t, buf.String(), "Shopping")
}

func TestRequestLoggerDisabledAboveDebug(t *testing.T) {
	buf := captureLogs(t, "info")

	engine := newEngine(RequestLogger(DefaultRequestLoggerConfig()))
	engine.POST("/notes", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/notes", bytes.NewBufferString("{}")))

	assert.NotContains(t, buf.String(), "request trace")
}
