package router

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/weiwangfds/notebox/config"
	apperrors "github.com/weiwangfds/notebox/internal/errors"
	"github.com/weiwangfds/notebox/internal/handler"
	"github.com/weiwangfds/notebox/internal/middleware"
	"github.com/weiwangfds/notebox/internal/response"
	noteservice "github.com/weiwangfds/notebox/internal/service/note"
	tagservice "github.com/weiwangfds/notebox/internal/service/tag"
	"gorm.io/gorm"
)

// Version 服务版本
const Version = "1.0.0"

// Router 路由配置
type Router struct {
	engine *gin.Engine
	db     *gorm.DB
}

// NewRouter 创建路由实例
func NewRouter(db *gorm.DB, cfg *config.Config) *Router {
	// 设置Gin模式
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	engine := gin.New()
	r := &Router{engine: engine, db: db}

	// 初始化服务
	tagService := tagservice.NewTagService(db, tagservice.NewValidator(cfg.Tags))
	noteService := noteservice.NewNoteService(db, tagService, cfg.Retry.ConflictRetries)

	// 初始化处理器
	noteHandler := handler.NewNoteHandler(noteService)
	tagHandler := handler.NewTagHandler(tagService, noteService)

	// 使用中间件
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.AccessLog())
	engine.Use(middleware.RequestLogger(middleware.DefaultRequestLoggerConfig()))

	// 配置CORS
	engine.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        86400,
	}))

	// 健康检查
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Service is running",
		})
	})

	// API路由组
	api := engine.Group("/api/v1")
	{
		// 基础信息接口
		api.GET("/info", func(c *gin.Context) {
			response.Success(c, gin.H{
				"service": "Notebox",
				"version": Version,
				"status":  "running",
			})
		})

		// 数据库状态检查
		api.GET("/db/status", r.dbStatus)

		// 笔记管理接口
		notes := api.Group("/notes")
		{
			notes.GET("", noteHandler.ListNotes)
			notes.POST("", noteHandler.CreateNote)
			notes.GET("/:id", noteHandler.GetNote)
			notes.PUT("/:id", noteHandler.UpdateNote)
			notes.DELETE("/:id", noteHandler.DeleteNote)

			// 标签整体替换
			notes.PUT("/:id/tags", noteHandler.ReconcileTags)

			// 置顶和归档
			notes.POST("/:id/pin", noteHandler.PinNote)
			notes.POST("/:id/archive", noteHandler.ArchiveNote)
		}

		// 标签管理接口
		tags := api.Group("/tags")
		{
			tags.POST("", tagHandler.CreateTag)               // 创建或复用标签
			tags.GET("", tagHandler.ListTags)                 // 获取标签列表
			tags.GET("/:id", tagHandler.GetTag)               // 获取标签详情
			tags.PUT("/:id", tagHandler.UpdateTag)            // 更新标签
			tags.DELETE("/:id", tagHandler.DeleteTag)         // 删除标签
			tags.GET("/:id/notes", tagHandler.ListNotesByTag) // 按标签列出笔记
		}
	}

	return r
}

// dbStatus 检查数据库连接并返回连接池统计
func (r *Router) dbStatus(c *gin.Context) {
	sqlDB, err := r.GetDB().DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		response.Error(c, apperrors.Wrap(apperrors.ErrDatabaseConnection,
			apperrors.GetErrorMessage(apperrors.ErrDatabaseConnection), err))
		return
	}
	response.SuccessWithMessage(c, "Database connection OK", sqlDB.Stats())
}

// GetEngine 获取Gin引擎
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// GetDB 获取数据库连接
func (r *Router) GetDB() *gorm.DB {
	return r.db
}
