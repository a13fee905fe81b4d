package handler

import (
	"net/http"

	"assetledger/internal/middleware"
	"assetledger/internal/service"
	"assetledger/pkg/response"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	inventoryService service.InventoryService
}

func NewInventoryHandler(inventoryService service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	inventory := router.Group("/inventory", middleware.RequireAuth())
	{
		inventory.GET("/instances", h.ListInstances)
		inventory.GET("/summary", h.Summary)
		inventory.GET("/instances/:id", h.GetInstance)
		inventory.PATCH("/instances/:id/status", h.ChangeInstanceStatus)
	}
}

// ListInstances handles GET /inventory/instances
// @Summary      List item instances
// @Description  Lists every instance an office holds. Defaults to the caller's office.
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        office_id  query     string  false  "Office ID (defaults to caller's office)"
// @Success      200        {object}  response.Response{data=[]service.InstanceResponse}
// @Failure      403        {object}  response.Response
// @Router       /inventory/instances [get]
func (h *InventoryHandler) ListInstances(c *gin.Context) {
	instances, err := h.inventoryService.ListByOffice(c.Request.Context(), callerID(c), c.Query("office_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, instances))
}

// Summary handles GET /inventory/summary
// @Summary      Summarize inventory by item
// @Description  Per-item counts of total, available, in-use, and other statuses for an office
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        office_id  query     string  false  "Office ID (defaults to caller's office)"
// @Success      200        {object}  response.Response{data=service.InventorySummary}
// @Failure      403        {object}  response.Response
// @Router       /inventory/summary [get]
func (h *InventoryHandler) Summary(c *gin.Context) {
	summary, err := h.inventoryService.SummarizeByOffice(c.Request.Context(), callerID(c), c.Query("office_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// GetInstance handles GET /inventory/instances/:id
// @Summary      Get item instance by ID
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Instance ID"
// @Success      200  {object}  response.Response{data=service.InstanceResponse}
// @Failure      404  {object}  response.Response
// @Router       /inventory/instances/{id} [get]
func (h *InventoryHandler) GetInstance(c *gin.Context) {
	instance, err := h.inventoryService.GetInstance(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, instance))
}

// ChangeInstanceStatus handles PATCH /inventory/instances/:id/status
// @Summary      Change instance status
// @Description  Marks an instance UNDER_REPAIR, DAMAGED, LOST, DISPOSED, or back to AVAILABLE. Disposal is terminal; reserved instances cannot be changed.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                               true  "Instance ID"
// @Param        payload  body      service.ChangeInstanceStatusRequest  true  "New Status"
// @Success      200      {object}  response.Response{data=service.InstanceResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /inventory/instances/{id}/status [patch]
func (h *InventoryHandler) ChangeInstanceStatus(c *gin.Context) {
	var req service.ChangeInstanceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	instance, err := h.inventoryService.ChangeInstanceStatus(c.Request.Context(), callerID(c), c.Param("id"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, instance))
}
