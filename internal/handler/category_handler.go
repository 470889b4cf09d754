package handler

import (
	"net/http"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/middleware"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/model"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/service"
	"github.com/Lahiru-360/fixed-asset-registry-final/pkg/response"
	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	categoryService service.CategoryService
	auth            *middleware.Auth
}

func NewCategoryHandler(categoryService service.CategoryService, auth *middleware.Auth) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, auth: auth}
}

func (h *CategoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	categories := router.Group("/api/categories")
	categories.Use(h.auth.RequireAuth())
	{
		categories.GET("", h.auth.RequirePermission(model.PermAssetsRead), h.List)
		categories.POST("", h.auth.RequirePermission(model.PermCategoriesWrite), h.Create)
		categories.PUT("/:id", h.auth.RequirePermission(model.PermCategoriesWrite), h.Update)
		categories.DELETE("/:id", h.auth.RequirePermission(model.PermCategoriesWrite), h.Delete)
	}
}

// List handles GET /api/categories
// @Summary      List asset categories
// @Description  System categories first, then by name
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.CategoryResponse}
// @Router       /api/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	res, err := h.categoryService.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Create handles POST /api/categories
// @Summary      Create category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CategoryRequest  true  "Category Payload"
// @Success      201      {object}  response.Response{data=service.CategoryResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	var req service.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	res, err := h.categoryService.Create(c.Request.Context(), userID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// Update handles PUT /api/categories/:id
// @Summary      Update category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "Category ID"
// @Param        payload  body      service.CategoryRequest  true  "Category Payload"
// @Success      200      {object}  response.Response{data=service.CategoryResponse}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	var req service.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	res, err := h.categoryService.Update(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Delete handles DELETE /api/categories/:id
// @Summary      Delete category
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Category ID"
// @Success      200  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /api/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	if err := h.categoryService.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Category deleted successfully"))
}
