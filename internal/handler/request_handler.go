package handler

import (
	"net/http"

	"assetledger/internal/middleware"
	"assetledger/internal/service"
	"assetledger/pkg/response"

	"github.com/gin-gonic/gin"
)

type RequestHandler struct {
	requestService service.RequestService
}

func NewRequestHandler(requestService service.RequestService) *RequestHandler {
	return &RequestHandler{requestService: requestService}
}

func (h *RequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/requests", middleware.RequireAuth())
	{
		requests.POST("", h.Create)
		requests.GET("", h.ListMine)
		requests.GET("/incoming", h.Incoming)
		requests.GET("/:id", h.Get)
		requests.POST("/:id/approve", h.Approve)
		requests.POST("/:id/reject", h.Reject)
		requests.POST("/:id/fulfill", h.Fulfill)
	}
}

// Create handles POST /requests
// @Summary      Create item request
// @Description  Files a request from the caller's office to its parent office for a quantity of an item
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateItemRequest  true  "Create Request Payload"
// @Success      201      {object}  response.Response{data=service.ItemRequestResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /requests [post]
func (h *RequestHandler) Create(c *gin.Context) {
	var req service.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	request, err := h.requestService.Create(c.Request.Context(), callerID(c), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, request))
}

// ListMine handles GET /requests
// @Summary      List requests filed by an office
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        office_id  query     string  false  "Office ID (defaults to caller's office)"
// @Success      200        {object}  response.Response{data=[]service.ItemRequestResponse}
// @Router       /requests [get]
func (h *RequestHandler) ListMine(c *gin.Context) {
	requests, err := h.requestService.ForRequestingOffice(c.Request.Context(), callerID(c), c.Query("office_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, requests))
}

// Incoming handles GET /requests/incoming
// @Summary      List pending requests addressed to an office
// @Description  Pending requests from child offices waiting on the parent office's decision
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        office_id  query     string  false  "Office ID (defaults to caller's office)"
// @Success      200        {object}  response.Response{data=[]service.ItemRequestResponse}
// @Failure      403        {object}  response.Response
// @Router       /requests/incoming [get]
func (h *RequestHandler) Incoming(c *gin.Context) {
	requests, err := h.requestService.IncomingPending(c.Request.Context(), callerID(c), c.Query("office_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, requests))
}

// Get handles GET /requests/:id
// @Summary      Get request by ID
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.ItemRequestResponse}
// @Failure      404  {object}  response.Response
// @Router       /requests/{id} [get]
func (h *RequestHandler) Get(c *gin.Context) {
	request, err := h.requestService.Get(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}

// Approve handles POST /requests/:id/approve
// @Summary      Approve a pending request
// @Description  Approves up to the requested quantity. Only admins of the parent office may approve.
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Request ID"
// @Param        payload  body      service.ApproveItemRequest  true  "Approval Payload"
// @Success      200      {object}  response.Response{data=service.ItemRequestResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /requests/{id}/approve [post]
func (h *RequestHandler) Approve(c *gin.Context) {
	var req service.ApproveItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	request, err := h.requestService.Approve(c.Request.Context(), callerID(c), c.Param("id"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}

// Reject handles POST /requests/:id/reject
// @Summary      Reject a pending request
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string         true  "Request ID"
// @Param        payload  body      rejectPayload  true  "Rejection Reason"
// @Success      200      {object}  response.Response{data=service.ItemRequestResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /requests/{id}/reject [post]
func (h *RequestHandler) Reject(c *gin.Context) {
	var payload rejectPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "Rejection reason is required")
		return
	}

	request, err := h.requestService.Reject(c.Request.Context(), callerID(c), c.Param("id"), payload.Reason)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}

// Fulfill handles POST /requests/:id/fulfill
// @Summary      Fulfill an approved request
// @Description  Ships part or all of the approved quantity as pending transfers from the parent office. The request becomes FULFILLED once the cumulative shipped quantity reaches the approved quantity.
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Request ID"
// @Param        payload  body      service.FulfillItemRequest  true  "Fulfillment Payload"
// @Success      200      {object}  response.Response{data=service.ItemRequestResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /requests/{id}/fulfill [post]
func (h *RequestHandler) Fulfill(c *gin.Context) {
	var req service.FulfillItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	request, err := h.requestService.Fulfill(c.Request.Context(), callerID(c), c.Param("id"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}
