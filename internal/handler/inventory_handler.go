package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InventoryHandler struct {
	inventoryService service.InventoryService
}

func NewInventoryHandler(inventoryService service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	inventory := router.Group("/api/inventory")
	{
		inventory.GET("/items", middleware.RequireRole(model.RoleAdmin, model.RoleRestaurantAdmin, model.RoleBranchAdmin), h.GetItems)
		inventory.POST("/items", middleware.RequireRole(model.RoleAdmin, model.RoleRestaurantAdmin), h.CreateItem)
		inventory.PUT("/items/:id", middleware.RequireRole(model.RoleAdmin, model.RoleRestaurantAdmin), h.UpdateItem)
		inventory.DELETE("/items/:id", middleware.RequireRole(model.RoleAdmin, model.RoleRestaurantAdmin), h.DeleteItem)
		inventory.POST("/batches", middleware.RequireRole(model.RoleRestaurantAdmin, model.RoleBranchAdmin), h.ReceiveBatch)
		inventory.POST("/adjustments", middleware.RequireRole(model.RoleRestaurantAdmin, model.RoleBranchAdmin), h.CreateAdjustment)
		inventory.GET("/adjustments", middleware.RequireRole(model.RoleAdmin, model.RoleRestaurantAdmin, model.RoleBranchAdmin), h.ListAdjustments)
	}
}

// GetItems lists inventory items
// @Summary      List inventory items
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Filter by name"
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  response.Response
// @Router       /api/inventory/items [get]
func (h *InventoryHandler) GetItems(c *gin.Context) {
	_, tenantID, _, err := authContext(c)
	if err != nil {
		respondBadAuth(c, err)
		return
	}

	params := pagination.Parse(c)
	items, total, err := h.inventoryService.GetItems(c.Request.Context(), tenantID, params.Page, params.Limit, c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   items,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// CreateItem registers a new inventory item
// @Summary      Create inventory item
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateItemRequest  true  "Item payload"
// @Success      201      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/inventory/items [post]
func (h *InventoryHandler) CreateItem(c *gin.Context) {
	userID, tenantID, _, err := authContext(c)
	if err != nil {
		respondBadAuth(c, err)
		return
	}

	var req service.CreateItemRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+bindErr.Error()))
		return
	}

	item, err := h.inventoryService.CreateItem(c.Request.Context(), userID, tenantID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// UpdateItem updates an inventory item's descriptive fields
// @Summary      Update inventory item
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Item ID"
// @Param        payload  body      service.UpdateItemRequest  true  "Item payload"
// @Success      200      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/inventory/items/{id} [put]
func (h *InventoryHandler) UpdateItem(c *gin.Context) {
	userID, tenantID, _, err := authContext(c)
	if err != nil {
		respondBadAuth(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid item id"))
		return
	}

	var req service.UpdateItemRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+bindErr.Error()))
		return
	}

	item, err := h.inventoryService.UpdateItem(c.Request.Context(), userID, tenantID, id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// DeleteItem removes an inventory item
// @Summary      Delete inventory item
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/inventory/items/{id} [delete]
func (h *InventoryHandler) DeleteItem(c *gin.Context) {
	userID, tenantID, _, err := authContext(c)
	if err != nil {
		respondBadAuth(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid item id"))
		return
	}

	if err := h.inventoryService.DeleteItem(c.Request.Context(), userID, tenantID, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": id}))
}

// ReceiveBatch records a received stock lot
// @Summary      Receive stock batch
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.ReceiveBatchRequest  true  "Batch payload"
// @Success      201      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/inventory/batches [post]
func (h *InventoryHandler) ReceiveBatch(c *gin.Context) {
	userID, tenantID, _, err := authContext(c)
	if err != nil {
		respondBadAuth(c, err)
		return
	}

	var req service.ReceiveBatchRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+bindErr.Error()))
		return
	}

	batch, err := h.inventoryService.ReceiveBatch(c.Request.Context(), userID, tenantID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, batch))
}

// CreateAdjustment submits a stock correction
// @Summary      Create stock adjustment
// @Description  Small corrections apply immediately; high-value ones go through approval
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateAdjustmentRequest  true  "Adjustment payload"
// @Success      201      {object}  response.Response{data=service.AdjustmentResult}
// @Failure      400      {object}  response.Response
// @Router       /api/inventory/adjustments [post]
func (h *InventoryHandler) CreateAdjustment(c *gin.Context) {
	userID, tenantID, _, err := authContext(c)
	if err != nil {
		respondBadAuth(c, err)
		return
	}

	var req service.CreateAdjustmentRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+bindErr.Error()))
		return
	}

	result, err := h.inventoryService.CreateAdjustment(c.Request.Context(), userID, tenantID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ListAdjustments lists stock adjustments
// @Summary      List stock adjustments
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "PENDING, APPROVED or REJECTED"
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  response.Response
// @Router       /api/inventory/adjustments [get]
func (h *InventoryHandler) ListAdjustments(c *gin.Context) {
	_, tenantID, _, err := authContext(c)
	if err != nil {
		respondBadAuth(c, err)
		return
	}

	params := pagination.Parse(c)
	status := model.ApprovalStatus(c.Query("status"))

	adjustments, total, err := h.inventoryService.ListAdjustments(c.Request.Context(), tenantID, status, params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   adjustments,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}
