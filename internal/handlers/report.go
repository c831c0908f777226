// internal/handlers/report.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/javajoker/querylab/internal/database"
	"github.com/javajoker/querylab/internal/services"
	"github.com/javajoker/querylab/internal/utils"
)

type ReportHandler struct {
	reportService *services.ReportService
	statsService  *services.StatsService
	db            *gorm.DB
}

func NewReportHandler(reportService *services.ReportService, statsService *services.StatsService, db *gorm.DB) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		statsService:  statsService,
		db:            db,
	}
}

// GET /slow/reports/products
func (h *ReportHandler) ProductReportSlow(c *gin.Context) {
	result, err := h.reportService.ProductReportSlow(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CollectionResponse(c, result)
}

// GET /fast/reports/products
func (h *ReportHandler) ProductReportFast(c *gin.Context) {
	result, err := h.reportService.ProductReportFast(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CollectionResponse(c, result)
}

// GET /stats
func (h *ReportHandler) GetStats(c *gin.Context) {
	stats, err := h.statsService.GetDatasetStats(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, stats)
}

// GET /health
func (h *ReportHandler) Health(c *gin.Context) {
	if err := database.Ping(c.Request.Context(), h.db); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "ok",
	})
}
