package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/audit-logs", middleware.RequireRole(model.RoleAdmin, model.RoleRestaurantAdmin), h.GetAuditLogs)
}

// GetAuditLogs returns the tenant's audit trail, newest first
// @Summary      List audit logs
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  response.Response
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	_, tenantID, _, err := authContext(c)
	if err != nil {
		respondBadAuth(c, err)
		return
	}

	params := pagination.Parse(c)
	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), tenantID, params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   logs,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}
