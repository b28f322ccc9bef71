package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/weiwangfds/notebox/internal/i18n"
)

// ErrorCode 错误码类型
type ErrorCode int

// 定义错误码常量
const (
	// 通用错误码 (1000-1999)
	ErrSuccess            ErrorCode = 0    // 成功
	ErrInternalServer     ErrorCode = 1000 // 服务器内部错误
	ErrInvalidParams      ErrorCode = 1001 // 参数错误
	ErrNotFound           ErrorCode = 1004 // 资源未找到
	ErrConflict           ErrorCode = 1009 // 唯一约束冲突，可重试
	ErrServiceUnavailable ErrorCode = 1007 // 存储不可用

	// 笔记与标签错误码 (2000-2999)
	ErrNoteNotFound     ErrorCode = 2000 // 笔记不存在
	ErrTagNotFound      ErrorCode = 2001 // 标签不存在
	ErrTagAlreadyExists ErrorCode = 2002 // 标签名称已存在
	ErrInvalidTag       ErrorCode = 2003 // 标签格式错误
	ErrInvalidNote      ErrorCode = 2004 // 笔记格式错误

	// 数据库相关错误码 (4000-4999)
	ErrDatabaseConnection ErrorCode = 4000 // 数据库连接错误
)

// Kind 错误大类，对应调用方需要区分的四种处理方式
type Kind int

const (
	KindInternal    Kind = iota
	KindValidation       // 输入不合法，无状态变化
	KindNotFound         // 引用的ID不存在
	KindConflict         // 唯一约束竞争，调用方可重试一次
	KindUnavailable      // 存储层I/O失败，事务已回滚
)

// AppError 应用错误结构体
type AppError struct {
	Code          ErrorCode `json:"code"`
	Message       string    `json:"message"`
	Details       string    `json:"details,omitempty"`
	OriginalError error     `json:"-"`
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%d] %s: %s", e.Code, e.Message, e.Details)
	}
	if e.OriginalError != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.OriginalError)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 返回原始错误，支持 errors.Is/As 穿透
func (e *AppError) Unwrap() error {
	return e.OriginalError
}

// Is 按错误大类比较，errors.Is(err, ErrNotFoundError) 对所有“未找到”类错误码都成立
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	if e.Code == t.Code {
		return true
	}
	// 哨兵错误只匹配大类
	return isSentinel(t) && KindOf(e.Code) == KindOf(t.Code)
}

// Kind 返回错误所属大类
func (e *AppError) Kind() Kind {
	return KindOf(e.Code)
}

// WithDetails 添加详细错误信息
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithOriginalError 添加原始错误
// 存储不可用类错误不把原始错误写入 Details，驱动报错只进日志
func (e *AppError) WithOriginalError(err error) *AppError {
	e.OriginalError = err
	if e.Details == "" && err != nil && e.Kind() != KindUnavailable {
		e.Details = err.Error()
	}
	return e
}

// New 创建新的应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// NewWithDetails 创建带详细信息的应用错误，消息取自语言包
func NewWithDetails(code ErrorCode, details string) *AppError {
	return &AppError{
		Code:    code,
		Message: GetErrorMessage(code),
		Details: details,
	}
}

// Newf 创建带格式化详细信息的应用错误
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return NewWithDetails(code, fmt.Sprintf(format, args...))
}

// Wrap 包装原始错误，Details 规则同 WithOriginalError
func Wrap(code ErrorCode, message string, err error) *AppError {
	return New(code, message).WithOriginalError(err)
}

// Unavailable 将存储层错误包装为 StoreUnavailable，已是应用错误时原样返回
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := GetAppError(err); ok {
		return err
	}
	return Wrap(ErrServiceUnavailable, GetErrorMessage(ErrServiceUnavailable), fmt.Errorf("%s: %w", op, err))
}

// IsAppError 判断是否为应用错误
func IsAppError(err error) bool {
	_, ok := GetAppError(err)
	return ok
}

// GetAppError 从错误链中提取应用错误
func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf 返回错误码所属大类
func KindOf(code ErrorCode) Kind {
	switch code {
	case ErrInvalidParams, ErrInvalidTag, ErrInvalidNote:
		return KindValidation
	case ErrNotFound, ErrNoteNotFound, ErrTagNotFound:
		return KindNotFound
	case ErrConflict, ErrTagAlreadyExists:
		return KindConflict
	case ErrServiceUnavailable, ErrDatabaseConnection:
		return KindUnavailable
	default:
		return KindInternal
	}
}

// IsKind 判断错误链中是否包含指定大类的应用错误
func IsKind(err error, kind Kind) bool {
	appErr, ok := GetAppError(err)
	return ok && appErr.Kind() == kind
}

// HTTPStatus 返回错误码对应的HTTP状态码
func HTTPStatus(code ErrorCode) int {
	switch KindOf(code) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// 哨兵错误，仅用于 errors.Is 比较，不要修改或直接返回
var (
	ErrValidationError  = New(ErrInvalidParams, "validation error")
	ErrNotFoundError    = New(ErrNotFound, "not found")
	ErrConflictError    = New(ErrConflict, "constraint violation")
	ErrUnavailableError = New(ErrServiceUnavailable, "store unavailable")
)

func isSentinel(e *AppError) bool {
	return e == ErrValidationError || e == ErrNotFoundError || e == ErrConflictError || e == ErrUnavailableError
}

// 错误码到i18n键的映射
var errorCodeToKeyMap = map[ErrorCode]string{
	ErrSuccess:            "success",
	ErrInternalServer:     "internal_server_error",
	ErrInvalidParams:      "invalid_params",
	ErrNotFound:           "not_found",
	ErrConflict:           "conflict",
	ErrServiceUnavailable: "service_unavailable",

	ErrNoteNotFound:     "note_not_found",
	ErrTagNotFound:      "tag_not_found",
	ErrTagAlreadyExists: "tag_already_exists",
	ErrInvalidTag:       "invalid_tag",
	ErrInvalidNote:      "invalid_note",

	ErrDatabaseConnection: "database_connection",
}

// GetErrorMessage 根据错误码获取错误消息（使用默认语言）
func GetErrorMessage(code ErrorCode) string {
	return GetErrorMessageWithLang(code, i18n.GetInstance().GetDefaultLanguage())
}

// GetErrorMessageWithLang 根据错误码和语言获取错误消息
func GetErrorMessageWithLang(code ErrorCode, lang string) string {
	key, exists := errorCodeToKeyMap[code]
	if !exists {
		key = "unknown_error"
	}
	return i18n.GetInstance().Translate(key, lang)
}
