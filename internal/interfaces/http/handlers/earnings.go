// internal/interfaces/http/handlers/earnings.go
package handlers

import (
	"net/http"

	"github.com/electrostore/ecommerce-backend/internal/domain/analytics"
	"github.com/gin-gonic/gin"
)

// EarningsHandler exposes margin reports to admins
type EarningsHandler struct {
	earnings *analytics.Service
}

// NewEarningsHandler creates a new earnings handler
func NewEarningsHandler(earnings *analytics.Service) *EarningsHandler {
	return &EarningsHandler{earnings: earnings}
}

// GetSummary handles GET /earnings/summary
func (h *EarningsHandler) GetSummary(c *gin.Context) {
	summary, err := h.earnings.GetSummary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Earnings summary retrieved successfully", summary)
}

// GetReport handles GET /earnings/report
func (h *EarningsHandler) GetReport(c *gin.Context) {
	var req analytics.ReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	report, err := h.earnings.GetReport(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Earnings report retrieved successfully", report)
}

// GetDashboard handles GET /dashboard/summary
func (h *EarningsHandler) GetDashboard(c *gin.Context) {
	dashboard, err := h.earnings.DashboardSummary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Dashboard summary retrieved successfully", dashboard)
}
