package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type WasteHandler struct {
	wasteService service.WasteService
	userService  service.UserService
}

func NewWasteHandler(wasteService service.WasteService, userService service.UserService) *WasteHandler {
	return &WasteHandler{wasteService: wasteService, userService: userService}
}

func (h *WasteHandler) RegisterRoutes(router *gin.RouterGroup) {
	waste := router.Group("/api/waste")
	{
		waste.POST("", middleware.RequireRole(model.RoleRestaurantAdmin, model.RoleBranchAdmin), h.LogWaste)
		waste.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleRestaurantAdmin, model.RoleBranchAdmin), h.ListWaste)
	}
}

// LogWaste records discarded stock
// @Summary      Log food waste
// @Description  Costs the waste against FIFO batches. Expensive waste goes through approval
// @Tags         waste
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.LogWasteRequest  true  "Waste payload"
// @Success      201      {object}  response.Response{data=service.WasteResult}
// @Failure      400      {object}  response.Response
// @Router       /api/waste [post]
func (h *WasteHandler) LogWaste(c *gin.Context) {
	userID, tenantID, role, err := authContext(c)
	if err != nil {
		respondBadAuth(c, err)
		return
	}

	var req service.LogWasteRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+bindErr.Error()))
		return
	}

	// Branch attribution comes from the caller's profile.
	profile, err := h.userService.GetUserByID(c.Request.Context(), tenantID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	user := &model.User{
		ID:       profile.ID,
		TenantID: profile.TenantID,
		BranchID: profile.BranchID,
		Role:     role,
	}

	result, err := h.wasteService.LogWaste(c.Request.Context(), user, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ListWaste lists waste entries
// @Summary      List waste entries
// @Tags         waste
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "PENDING, APPROVED or REJECTED"
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  response.Response
// @Router       /api/waste [get]
func (h *WasteHandler) ListWaste(c *gin.Context) {
	_, tenantID, _, err := authContext(c)
	if err != nil {
		respondBadAuth(c, err)
		return
	}

	params := pagination.Parse(c)
	status := model.ApprovalStatus(c.Query("status"))

	entries, total, err := h.wasteService.ListWaste(c.Request.Context(), tenantID, status, params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   entries,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}
