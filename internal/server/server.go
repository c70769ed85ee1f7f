// Package server 提供研究服务的 HTTP 接口
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nekouibeam/investment-agent/internal/logger"
	"github.com/nekouibeam/investment-agent/internal/models"
	"github.com/nekouibeam/investment-agent/internal/research"
)

var log = logger.New("Server")

// ShutdownTimeout 优雅关闭的最长等待时间
const ShutdownTimeout = 10 * time.Second

// Researcher 执行一次研究
type Researcher interface {
	Research(ctx context.Context, query string) (*models.Report, error)
}

// Info 健康检查返回的模型信息
type Info struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// ResearchRequest POST /research 请求体
type ResearchRequest struct {
	Query string `json:"query" binding:"required"`
}

// Handler HTTP 处理器
type Handler struct {
	researcher Researcher
	info       Info
}

// NewHandler 创建处理器
func NewHandler(researcher Researcher, info Info) *Handler {
	return &Handler{researcher: researcher, info: info}
}

// NewRouter 注册路由；origins 为空时允许任意来源
func NewRouter(h *Handler, origins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
	}
	r.Use(cors.New(corsCfg))

	r.POST("/research", h.Research)
	r.GET("/healthz", h.Health)
	return r
}

// Research 处理 POST /research
func (h *Handler) Research(c *gin.Context) {
	var req ResearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be JSON with a non-empty \"query\""})
		return
	}

	report, err := h.researcher.Research(c.Request.Context(), req.Query)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			log.Error("research failed (%d): %v", status, err)
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// Health 处理 GET /healthz
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"provider": h.info.Provider,
		"model":    h.info.Model,
	})
}

// statusFor 错误到 HTTP 状态码的映射
func statusFor(err error) int {
	var (
		resErr *models.ResolutionError
		mcErr  *models.ModelCallError
	)
	switch {
	case errors.Is(err, research.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.As(err, &resErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &mcErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Millisecond))
	}
}

// Server 带优雅关闭的 HTTP 服务
type Server struct {
	httpServer *http.Server
}

// New 创建服务
func New(addr string, handler http.Handler) *Server {
	return &Server{httpServer: &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

// Run 监听直到 ctx 结束，然后优雅关闭
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
