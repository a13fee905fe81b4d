package handler

import (
	"net/http"

	"assetledger/internal/service"
	"assetledger/pkg/response"

	"github.com/gin-gonic/gin"
)

type TrackingHandler struct {
	trackingService service.TrackingService
}

func NewTrackingHandler(trackingService service.TrackingService) *TrackingHandler {
	return &TrackingHandler{trackingService: trackingService}
}

// RegisterRoutes binds the tracking endpoints. These are public: barcode
// scanners in the field carry no user session.
func (h *TrackingHandler) RegisterRoutes(router *gin.RouterGroup) {
	track := router.Group("/track")
	{
		track.GET("/:barcode", h.Track)
		track.POST("/batch", h.TrackBatch)
	}
}

// Track handles GET /track/:barcode
// @Summary      Track an item by barcode
// @Description  Returns the instance's current state, its originating purchase, full movement history, and office journey
// @Tags         tracking
// @Produce      json
// @Param        barcode  path      string  true  "Barcode"
// @Success      200      {object}  response.Response{data=service.TrackingResponse}
// @Failure      404      {object}  response.Response
// @Router       /track/{barcode} [get]
func (h *TrackingHandler) Track(c *gin.Context) {
	result, err := h.trackingService.TrackByBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

type trackBatchPayload struct {
	Barcodes []string `json:"barcodes" binding:"required,min=1,max=100"`
}

// TrackBatch handles POST /track/batch
// @Summary      Track multiple barcodes
// @Description  Resolves up to 100 barcodes in one call. Failures are reported inline per barcode.
// @Tags         tracking
// @Accept       json
// @Produce      json
// @Param        payload  body      trackBatchPayload  true  "Barcodes"
// @Success      200      {object}  response.Response{data=[]service.TrackManyResult}
// @Failure      400      {object}  response.Response
// @Router       /track/batch [post]
func (h *TrackingHandler) TrackBatch(c *gin.Context) {
	var payload trackBatchPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	results := h.trackingService.TrackMany(c.Request.Context(), payload.Barcodes)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, results))
}
