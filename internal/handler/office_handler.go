package handler

import (
	"net/http"

	"assetledger/internal/middleware"
	"assetledger/internal/service"
	"assetledger/pkg/response"

	"github.com/gin-gonic/gin"
)

type OfficeHandler struct {
	officeService service.OfficeService
}

func NewOfficeHandler(officeService service.OfficeService) *OfficeHandler {
	return &OfficeHandler{officeService: officeService}
}

func (h *OfficeHandler) RegisterRoutes(router *gin.RouterGroup) {
	offices := router.Group("/offices", middleware.RequireAuth())
	{
		offices.POST("", h.CreateOffice)
		offices.GET("", h.ListOffices)
		offices.GET("/:id", h.GetOffice)
	}
}

// CreateOffice handles POST /offices
// @Summary      Create office
// @Description  Creates an office and its inventory. Optional parent_id links it into the office tree.
// @Tags         offices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateOfficeRequest  true  "Create Office Payload"
// @Success      201      {object}  response.Response{data=service.OfficeResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /offices [post]
func (h *OfficeHandler) CreateOffice(c *gin.Context) {
	var req service.CreateOfficeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	office, err := h.officeService.Create(c.Request.Context(), callerID(c), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, office))
}

// ListOffices handles GET /offices
// @Summary      List offices
// @Tags         offices
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.OfficeResponse}
// @Router       /offices [get]
func (h *OfficeHandler) ListOffices(c *gin.Context) {
	offices, err := h.officeService.List(c.Request.Context(), callerID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, offices))
}

// GetOffice handles GET /offices/:id
// @Summary      Get office by ID
// @Tags         offices
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Office ID"
// @Success      200  {object}  response.Response{data=service.OfficeResponse}
// @Failure      404  {object}  response.Response
// @Router       /offices/{id} [get]
func (h *OfficeHandler) GetOffice(c *gin.Context) {
	office, err := h.officeService.Get(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, office))
}
