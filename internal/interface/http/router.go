package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/multimodal-summarizer/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.SetHTMLTemplate(loadTemplates())
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		errorHandlingMiddleware(handler.logger),
	)

	router.GET("/healthz", handler.Health)

	withSession := sessionMiddleware(handler.sessions, cfg.Session.CookieName)

	page := router.Group("/", withSession)
	{
		page.GET("/", handler.Page)
		page.POST("/form/file", handler.SelectFile)
		page.POST("/form/prompt", handler.ChangePrompt)
		page.POST("/form/submit", handler.Submit)
		page.POST("/form/notice/dismiss", handler.DismissNotice)
	}

	api := router.Group("/api/v1", corsMiddleware(cfg.HTTP.CORS.AllowedOrigins), withSession)
	{
		// Preflight requests stop in corsMiddleware.
		api.OPTIONS("/*path", func(c *gin.Context) {})
		api.GET("/form", handler.GetForm)
		api.POST("/form/submit", handler.SubmitForm)
		api.POST("/form/notice/dismiss", handler.DismissFormNotice)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
