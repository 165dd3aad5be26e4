package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/investify-billing/internal/application/service"
	"github.com/sangkips/investify-billing/internal/presentation/http/dto/response"
)

// ReportHandler serves billing summaries
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// Billing returns per-status counts and totals for the current tenant
// @Summary Billing summary
// @Tags reports
// @Router /reports/billing [get]
func (h *ReportHandler) Billing(c *gin.Context) {
	summary, err := h.reportService.GetBillingSummary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Billing summary retrieved", summary)
}
