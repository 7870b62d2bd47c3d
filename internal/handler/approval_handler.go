package handler

import (
	"net/http"
	"time"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ApprovalHandler struct {
	approvalService service.ApprovalService
}

func NewApprovalHandler(approvalService service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

func (h *ApprovalHandler) RegisterRoutes(router *gin.RouterGroup) {
	approvals := router.Group("/api/approvals")
	{
		approvals.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleRestaurantAdmin, model.RoleBranchAdmin), h.ListApprovalRequests)
		approvals.GET("/pending", middleware.RequireRole(model.RoleAdmin, model.RoleRestaurantAdmin, model.RoleBranchAdmin), h.GetPendingApprovals)
		approvals.GET("/analytics", middleware.RequireRole(model.RoleAdmin, model.RoleRestaurantAdmin), h.GetApprovalAnalytics)
		approvals.PUT("/:id/approve", middleware.RequireRole(model.RoleRestaurantAdmin), h.ApproveRequest)
		approvals.PUT("/:id/reject", middleware.RequireRole(model.RoleRestaurantAdmin), h.RejectRequest)
	}
}

// ListApprovalRequests returns approval requests, optionally filtered by status
// @Summary      List approval requests
// @Description  Returns the tenant's approval requests, optionally filtered by status
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "PENDING, APPROVED or REJECTED"
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  response.Response
// @Failure      401     {object}  response.Response
// @Router       /api/approvals [get]
func (h *ApprovalHandler) ListApprovalRequests(c *gin.Context) {
	_, tenantID, _, err := authContext(c)
	if err != nil {
		respondBadAuth(c, err)
		return
	}

	params := pagination.Parse(c)
	status := model.ApprovalStatus(c.Query("status"))

	approvals, total, err := h.approvalService.ListApprovalRequests(c.Request.Context(), tenantID, status, params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   approvals,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// GetPendingApprovals returns the caller's pending approval queue
// @Summary      Pending approval queue
// @Description  Returns pending requests the caller can decide, most urgent first
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.PendingApproval}
// @Failure      401  {object}  response.Response
// @Router       /api/approvals/pending [get]
func (h *ApprovalHandler) GetPendingApprovals(c *gin.Context) {
	userID, tenantID, role, err := authContext(c)
	if err != nil {
		respondBadAuth(c, err)
		return
	}

	pending, err := h.approvalService.GetPendingApprovals(c.Request.Context(), userID, tenantID, role)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pending))
}

// GetApprovalAnalytics aggregates the tenant's approval history
// @Summary      Approval analytics
// @Description  Aggregated counts by type, priority, branch and month
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Param        start_date  query     string  false  "Inclusive lower bound (RFC 3339 date)"
// @Param        end_date    query     string  false  "Inclusive upper bound (RFC 3339 date)"
// @Param        type        query     string  false  "INVENTORY_ADJUSTMENT or WASTE_WRITE_OFF"
// @Param        status      query     string  false  "PENDING, APPROVED or REJECTED"
// @Success      200         {object}  response.Response{data=service.ApprovalAnalytics}
// @Failure      400         {object}  response.Response
// @Router       /api/approvals/analytics [get]
func (h *ApprovalHandler) GetApprovalAnalytics(c *gin.Context) {
	_, tenantID, _, err := authContext(c)
	if err != nil {
		respondBadAuth(c, err)
		return
	}

	filter := repository.ApprovalFilter{
		Type:   model.RequestType(c.Query("type")),
		Status: model.ApprovalStatus(c.Query("status")),
	}
	if raw := c.Query("start_date"); raw != "" {
		start, parseErr := time.Parse("2006-01-02", raw)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid start_date, expected YYYY-MM-DD"))
			return
		}
		filter.StartDate = &start
	}
	if raw := c.Query("end_date"); raw != "" {
		end, parseErr := time.Parse("2006-01-02", raw)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid end_date, expected YYYY-MM-DD"))
			return
		}
		filter.EndDate = &end
	}

	analytics, err := h.approvalService.GetApprovalAnalytics(c.Request.Context(), tenantID, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, analytics))
}

type decisionBody struct {
	Reason string `json:"reason"`
}

// ApproveRequest approves a pending approval request
// @Summary      Approve a request
// @Description  Marks a pending request APPROVED and applies the gated inventory changes
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string        true   "Approval request ID"
// @Param        payload  body      decisionBody  false  "Optional approval reason"
// @Success      200      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/approvals/{id}/approve [put]
func (h *ApprovalHandler) ApproveRequest(c *gin.Context) {
	h.decide(c, model.ApprovalApproved)
}

// RejectRequest rejects a pending approval request
// @Summary      Reject a request
// @Description  Marks a pending request REJECTED, leaving inventory untouched
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string        true   "Approval request ID"
// @Param        payload  body      decisionBody  false  "Optional rejection reason"
// @Success      200      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/approvals/{id}/reject [put]
func (h *ApprovalHandler) RejectRequest(c *gin.Context) {
	h.decide(c, model.ApprovalRejected)
}

func (h *ApprovalHandler) decide(c *gin.Context, status model.ApprovalStatus) {
	userID, tenantID, _, err := authContext(c)
	if err != nil {
		respondBadAuth(c, err)
		return
	}

	approvalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid approval id"))
		return
	}

	var body decisionBody
	if bindErr := c.ShouldBindJSON(&body); bindErr != nil {
		// Allow empty body — reason is optional
		body.Reason = ""
	}

	result, err := h.approvalService.ProcessApprovalDecision(c.Request.Context(), approvalID, service.Decision{
		Status: status,
		Reason: body.Reason,
	}, userID, tenantID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
