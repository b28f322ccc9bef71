package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/weiwangfds/notebox/internal/errors"
	"github.com/weiwangfds/notebox/internal/logger"
)

// Response 统一返回值结构体
type Response struct {
	// 状态码，0表示成功，非0为业务错误码
	Code int `json:"code" example:"0"`
	// 响应消息
	Message string `json:"message" example:"success"`
	// 详细错误信息
	Details string `json:"details,omitempty"`
	// 响应数据
	Data interface{} `json:"data,omitempty"`
	// 请求ID，用于链路追踪
	RequestID string `json:"request_id,omitempty"`
	// 时间戳
	Timestamp int64 `json:"timestamp"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	write(c, http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	write(c, http.StatusCreated, Response{Code: 0, Message: "created", Data: data})
}

// SuccessWithMessage 带消息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	write(c, http.StatusOK, Response{Code: 0, Message: message, Data: data})
}

// BadRequest 400错误响应
func BadRequest(c *gin.Context, message string) {
	write(c, http.StatusBadRequest, Response{Code: int(apperrors.ErrInvalidParams), Message: message})
}

// Error 按应用错误码写出错误响应
// 非应用错误一律视为500，原始错误只写入日志
func Error(c *gin.Context, err error) {
	appErr, ok := apperrors.GetAppError(err)
	if !ok {
		logger.WithField("path", c.FullPath()).Errorf("unhandled error: %v", err)
		write(c, http.StatusInternalServerError, Response{
			Code:    int(apperrors.ErrInternalServer),
			Message: apperrors.GetErrorMessage(apperrors.ErrInternalServer),
		})
		return
	}

	status := apperrors.HTTPStatus(appErr.Code)
	if status >= http.StatusInternalServerError {
		logger.WithField("path", c.FullPath()).Errorf("request failed: %v", err)
	}
	_ = c.Error(err)
	write(c, status, Response{
		Code:    int(appErr.Code),
		Message: appErr.Message,
		Details: appErr.Details,
	})
}

func write(c *gin.Context, status int, resp Response) {
	resp.RequestID = getRequestID(c)
	resp.Timestamp = now().Unix()
	c.JSON(status, resp)
}

// getRequestID 从gin上下文中获取请求ID
func getRequestID(c *gin.Context) string {
	if requestID, exists := c.Get("request_id"); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return ""
}

// now 便于测试时替换
var now = time.Now
