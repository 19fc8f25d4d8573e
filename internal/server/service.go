// Package server exposes the pipeline over HTTP. It is a thin collaborator:
// all extraction and verification semantics live in the internal packages it
// calls into.
package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/citecheck/internal/export"
	"github.com/joseph-ayodele/citecheck/internal/processor"
	"github.com/joseph-ayodele/citecheck/internal/repository"
)

// Service carries the handler dependencies.
type Service struct {
	logger      *slog.Logger
	processor   *processor.Processor
	runs        repository.RunRepository
	export      *export.Service
	pool        *pgxpool.Pool
	maxUploadMB int64
}

func NewService(logger *slog.Logger, proc *processor.Processor, runs repository.RunRepository, exp *export.Service, pool *pgxpool.Pool, maxUploadMB int64) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if maxUploadMB <= 0 {
		maxUploadMB = 50
	}
	return &Service{
		logger:      logger,
		processor:   proc,
		runs:        runs,
		export:      exp,
		pool:        pool,
		maxUploadMB: maxUploadMB,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Service) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.MaxMultipartMemory = s.maxUploadMB << 20

	r.GET("/healthz", s.Health)

	api := r.Group("/api")
	{
		api.POST("/documents", s.VerifyDocument)
		api.GET("/runs/:id", s.GetRun)
		api.GET("/runs/:id/export", s.ExportRun)
	}
	return r
}

// Health handles GET /healthz.
func (s *Service) Health(c *gin.Context) {
	if s.pool != nil {
		if err := repository.HealthCheck(c.Request.Context(), s.pool, 0); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "db": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func errorResponse(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
