package handler

import (
	"net/http"

	"assetledger/internal/middleware"
	"assetledger/internal/service"
	"assetledger/pkg/pagination"
	"assetledger/pkg/response"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	catalog := router.Group("", middleware.RequireAuth())
	{
		catalog.POST("/categories", h.CreateCategory)
		catalog.POST("/units", h.CreateUnit)
		catalog.POST("/items", h.CreateItem)
		catalog.GET("/items", h.ListItems)
		catalog.GET("/items/:id", h.GetItem)
	}
}

// CreateCategory handles POST /categories
// @Summary      Create category
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateCategoryRequest  true  "Create Category Payload"
// @Success      201      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /categories [post]
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req service.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	category, err := h.catalogService.CreateCategory(c.Request.Context(), callerID(c), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, category))
}

// CreateUnit handles POST /units
// @Summary      Create unit of measure
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateUnitRequest  true  "Create Unit Payload"
// @Success      201      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /units [post]
func (h *CatalogHandler) CreateUnit(c *gin.Context) {
	var req service.CreateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	unit, err := h.catalogService.CreateUnit(c.Request.Context(), callerID(c), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, unit))
}

// CreateItem handles POST /items
// @Summary      Create catalog item
// @Description  Registers an item definition. Item names are unique across the catalog.
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateCatalogItemRequest  true  "Create Item Payload"
// @Success      201      {object}  response.Response{data=service.ItemResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /items [post]
func (h *CatalogHandler) CreateItem(c *gin.Context) {
	var req service.CreateCatalogItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	item, err := h.catalogService.CreateItem(c.Request.Context(), callerID(c), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// ListItems handles GET /items
// @Summary      List catalog items
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /items [get]
func (h *CatalogHandler) ListItems(c *gin.Context) {
	params := pagination.Parse(c)

	items, total, err := h.catalogService.ListItems(c.Request.Context(), callerID(c), params.Page, params.Limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	data := params.Meta(total)
	data["items"] = items
	c.JSON(http.StatusOK, response.Success(http.StatusOK, data))
}

// GetItem handles GET /items/:id
// @Summary      Get catalog item by ID
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  response.Response{data=service.ItemResponse}
// @Failure      404  {object}  response.Response
// @Router       /items/{id} [get]
func (h *CatalogHandler) GetItem(c *gin.Context) {
	item, err := h.catalogService.GetItem(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}
