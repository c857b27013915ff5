package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/slidesmith/backend/config"
	"github.com/slidesmith/backend/internal/handler"
)

// Handlers 路由使用的全部 Handler
type Handlers struct {
	Health       *handler.HealthHandler
	Template     *handler.TemplateHandler
	Presentation *handler.PresentationHandler
	Slide        *handler.SlideHandler
	Stylesheet   *handler.StylesheetHandler
}

func Setup(cfg *config.Config, h Handlers) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}))

	// PPTX 已是压缩格式，只压缩 JSON 响应
	r.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPathsRegexs([]string{`/download`}),
	))

	api := r.Group("/api")
	{
		api.GET("/health", h.Health.Health)

		templates := api.Group("/templates")
		{
			templates.POST("", h.Template.Create)
			templates.GET("", h.Template.List)
			templates.GET("/:id", h.Template.Get)
			templates.PUT("/:id", h.Template.Update)
			templates.DELETE("/:id", h.Template.Delete)
			templates.GET("/:id/download", h.Template.Download)
		}

		presentations := api.Group("/presentations")
		{
			presentations.POST("", h.Presentation.Create)
			presentations.GET("", h.Presentation.List)
			presentations.GET("/:id", h.Presentation.Get)
			presentations.DELETE("/:id", h.Presentation.Delete)
			presentations.GET("/:id/download/pptx", h.Presentation.Download)
		}

		slides := api.Group("/slides")
		{
			slides.PUT("/:id", h.Slide.Update)
			slides.POST("/:id/improve", h.Slide.Improve)
		}

		api.POST("/stylesheets/parse", h.Stylesheet.Parse)
	}

	return r
}
