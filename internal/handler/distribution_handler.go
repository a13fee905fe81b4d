package handler

import (
	"net/http"

	"assetledger/internal/middleware"
	"assetledger/internal/service"
	"assetledger/pkg/response"

	"github.com/gin-gonic/gin"
)

type DistributionHandler struct {
	distributionService service.DistributionService
}

func NewDistributionHandler(distributionService service.DistributionService) *DistributionHandler {
	return &DistributionHandler{distributionService: distributionService}
}

func (h *DistributionHandler) RegisterRoutes(router *gin.RouterGroup) {
	distributions := router.Group("/distributions", middleware.RequireAuth())
	{
		distributions.POST("", h.Distribute)
		distributions.POST("/:id/confirm", h.Confirm)
		distributions.POST("/:id/reject", h.Reject)
		distributions.GET("/pending", h.Pending)
		distributions.GET("/history", h.History)
		distributions.GET("/instance/:id", h.InstanceHistory)
	}
}

// Distribute handles POST /distributions
// @Summary      Distribute items to a child office
// @Description  Reserves the requested quantity at the source office and opens one pending transfer per instance. Reservation is all-or-nothing.
// @Tags         distributions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.DistributeRequest  true  "Distribute Payload"
// @Success      201      {object}  response.Response{data=[]service.TransactionResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /distributions [post]
func (h *DistributionHandler) Distribute(c *gin.Context) {
	var req service.DistributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	transactions, err := h.distributionService.Distribute(c.Request.Context(), callerID(c), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, transactions))
}

// Confirm handles POST /distributions/:id/confirm
// @Summary      Confirm an incoming transfer
// @Description  Accepts a pending transfer. Moves the instance into the receiving office's inventory and makes it available there.
// @Tags         distributions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Transaction ID"
// @Success      200  {object}  response.Response{data=service.TransactionResponse}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /distributions/{id}/confirm [post]
func (h *DistributionHandler) Confirm(c *gin.Context) {
	transaction, err := h.distributionService.Confirm(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, transaction))
}

type rejectPayload struct {
	Reason string `json:"reason" binding:"required"`
}

// Reject handles POST /distributions/:id/reject
// @Summary      Reject an incoming transfer
// @Description  Declines a pending transfer. The instance returns to the sender's shelf; custody never moved.
// @Tags         distributions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string         true  "Transaction ID"
// @Param        payload  body      rejectPayload  true  "Rejection Reason"
// @Success      200      {object}  response.Response{data=service.TransactionResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /distributions/{id}/reject [post]
func (h *DistributionHandler) Reject(c *gin.Context) {
	var payload rejectPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "Rejection reason is required")
		return
	}

	transaction, err := h.distributionService.Reject(c.Request.Context(), callerID(c), c.Param("id"), payload.Reason)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, transaction))
}

// Pending handles GET /distributions/pending
// @Summary      List pending incoming transfers
// @Tags         distributions
// @Produce      json
// @Security     BearerAuth
// @Param        office_id  query     string  false  "Office ID (defaults to caller's office)"
// @Success      200        {object}  response.Response{data=[]service.TransactionResponse}
// @Router       /distributions/pending [get]
func (h *DistributionHandler) Pending(c *gin.Context) {
	transactions, err := h.distributionService.PendingForOffice(c.Request.Context(), callerID(c), c.Query("office_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, transactions))
}

// History handles GET /distributions/history
// @Summary      List transaction history for an office
// @Tags         distributions
// @Produce      json
// @Security     BearerAuth
// @Param        office_id  query     string  false  "Office ID (defaults to caller's office)"
// @Success      200        {object}  response.Response{data=[]service.TransactionResponse}
// @Router       /distributions/history [get]
func (h *DistributionHandler) History(c *gin.Context) {
	transactions, err := h.distributionService.HistoryForOffice(c.Request.Context(), callerID(c), c.Query("office_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, transactions))
}

// InstanceHistory handles GET /distributions/instance/:id
// @Summary      List transaction history for one instance
// @Tags         distributions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Instance ID"
// @Success      200  {object}  response.Response{data=[]service.TransactionResponse}
// @Router       /distributions/instance/{id} [get]
func (h *DistributionHandler) InstanceHistory(c *gin.Context) {
	transactions, err := h.distributionService.HistoryForInstance(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, transactions))
}
