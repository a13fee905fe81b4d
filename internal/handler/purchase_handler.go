package handler

import (
	"net/http"

	"assetledger/internal/middleware"
	"assetledger/internal/service"
	"assetledger/pkg/pagination"
	"assetledger/pkg/response"

	"github.com/gin-gonic/gin"
)

type PurchaseHandler struct {
	purchaseService service.PurchaseService
}

func NewPurchaseHandler(purchaseService service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

func (h *PurchaseHandler) RegisterRoutes(router *gin.RouterGroup) {
	purchases := router.Group("/purchases", middleware.RequireAuth())
	{
		purchases.POST("", h.CreatePurchase)
		purchases.GET("/:id", h.GetPurchase)
		purchases.GET("", h.ListPurchases)
	}
}

// CreatePurchase handles POST /purchases
// @Summary      Record purchase
// @Description  Records a purchase for the caller's office and materializes one barcoded instance per unit bought
// @Tags         purchases
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreatePurchaseRequest  true  "Create Purchase Payload"
// @Success      201      {object}  response.Response{data=service.PurchaseResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /purchases [post]
func (h *PurchaseHandler) CreatePurchase(c *gin.Context) {
	var req service.CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	purchase, err := h.purchaseService.CreatePurchase(c.Request.Context(), callerID(c), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, purchase))
}

// GetPurchase handles GET /purchases/:id
// @Summary      Get purchase by ID
// @Tags         purchases
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Purchase ID"
// @Success      200  {object}  response.Response{data=service.PurchaseResponse}
// @Failure      404  {object}  response.Response
// @Router       /purchases/{id} [get]
func (h *PurchaseHandler) GetPurchase(c *gin.Context) {
	purchase, err := h.purchaseService.GetPurchase(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, purchase))
}

// ListPurchases handles GET /purchases
// @Summary      List purchases
// @Description  Lists purchases for an office, newest first. Defaults to the caller's office.
// @Tags         purchases
// @Produce      json
// @Security     BearerAuth
// @Param        office_id  query     string  false  "Office ID (defaults to caller's office)"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Items per page (default 20)"
// @Success      200        {object}  response.Response{data=object}
// @Router       /purchases [get]
func (h *PurchaseHandler) ListPurchases(c *gin.Context) {
	params := pagination.Parse(c)

	purchases, total, err := h.purchaseService.ListPurchasesByOffice(
		c.Request.Context(), callerID(c), c.Query("office_id"), params.Page, params.Limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	data := params.Meta(total)
	data["purchases"] = purchases
	c.JSON(http.StatusOK, response.Success(http.StatusOK, data))
}
