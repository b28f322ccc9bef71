package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/weiwangfds/notebox/internal/logger"
)

// RequestLoggerConfig 请求体日志配置
type RequestLoggerConfig struct {
	Enabled         bool     // 是否启用
	SkipPaths       []string // 跳过记录的路径
	MaxBodySize     int      // 最大记录的请求体大小（字节）
	IncludeResponse bool     // 是否记录响应体
}

// DefaultRequestLoggerConfig 默认配置
func DefaultRequestLoggerConfig() *RequestLoggerConfig {
	return &RequestLoggerConfig{
		Enabled:         true,
		SkipPaths:       []string{"/health", "/favicon.ico"},
		MaxBodySize:     64 * 1024,
		IncludeResponse: true,
	}
}

// bodyWriter 捕获响应体
type bodyWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// RequestLogger 以 debug 级别记录请求体和响应体
// 只在日志级别为 debug 时生效，生产环境不读取请求体
func RequestLogger(cfg *RequestLoggerConfig) gin.HandlerFunc {
	if cfg == nil {
		cfg = DefaultRequestLoggerConfig()
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if !cfg.Enabled || !logger.GetLogger().IsLevelEnabled(logrus.DebugLevel) {
			c.Next()
			return
		}
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		requestBody := readRequestBody(c, cfg.MaxBodySize)

		var writer *bodyWriter
		if cfg.IncludeResponse {
			writer = &bodyWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
			c.Writer = writer
		}

		c.Next()

		fields := logrus.Fields{
			"type":        "request_log",
			"request_id":  c.GetString("request_id"),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status_code": c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		}
		if requestBody != nil {
			fields["body"] = requestBody
		}
		if writer != nil {
			fields["response_body"] = decodeBody(writer.body.Bytes())
		}
		logger.WithFields(fields).Debug("request trace")
	}
}

// readRequestBody 读取请求体并放回，超过 maxSize 时不记录
func readRequestBody(c *gin.Context, maxSize int) interface{} {
	if c.Request.Body == nil || c.Request.ContentLength > int64(maxSize) {
		return nil
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		logger.Warnf("failed to read request body: %v", err)
		return nil
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
	return decodeBody(body)
}

// decodeBody JSON解析失败时按字符串记录
func decodeBody(body []byte) interface{} {
	if len(body) == 0 {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(body, &v); err == nil {
		return v
	}
	return string(body)
}
