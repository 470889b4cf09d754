package handler

import (
	"net/http"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/middleware"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/model"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/service"
	"github.com/Lahiru-360/fixed-asset-registry-final/pkg/pagination"
	"github.com/Lahiru-360/fixed-asset-registry-final/pkg/response"
	"github.com/gin-gonic/gin"
)

type AssetHandler struct {
	assetService service.AssetService
	auth         *middleware.Auth
}

func NewAssetHandler(assetService service.AssetService, auth *middleware.Auth) *AssetHandler {
	return &AssetHandler{assetService: assetService, auth: auth}
}

func (h *AssetHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/api/requests/:id/assets", h.auth.RequirePermission(model.PermAssetsWrite), h.Register)
	router.GET("/api/assets", h.auth.RequirePermission(model.PermAssetsRead), h.List)
}

// Register handles POST /api/requests/:id/assets
// @Summary      Register received assets
// @Description  Creates one asset per ordered unit and completes the request
// @Tags         assets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Request ID"
// @Param        payload  body      service.RegisterAssetsDTO  true  "Registration details"
// @Success      201      {object}  response.Response{data=[]service.AssetResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/requests/{id}/assets [post]
func (h *AssetHandler) Register(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	var req service.RegisterAssetsDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	assets, err := h.assetService.Register(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, assets))
}

// List handles GET /api/assets
// @Summary      List registered assets
// @Tags         assets
// @Produce      json
// @Security     BearerAuth
// @Param        search    query     string  false  "Search over name, number and category"
// @Param        category  query     string  false  "Category name or All"
// @Param        sort      query     string  false  "newest or oldest"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Number of items per page (default 10)"
// @Success      200       {object}  response.Response{data=service.AssetPage}
// @Router       /api/assets [get]
func (h *AssetHandler) List(c *gin.Context) {
	p := pagination.Parse(c)

	page, err := h.assetService.List(c.Request.Context(), service.AssetListFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Sort:     c.Query("sort"),
		Page:     p.Page,
		Limit:    p.Limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, page))
}
