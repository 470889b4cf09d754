package handler

import (
	"context"
	"net/http"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/middleware"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/model"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/service"
	"github.com/Lahiru-360/fixed-asset-registry-final/pkg/pagination"
	"github.com/Lahiru-360/fixed-asset-registry-final/pkg/response"
	"github.com/gin-gonic/gin"
)

type AssetRequestHandler struct {
	requestService service.AssetRequestService
	auth           *middleware.Auth
}

func NewAssetRequestHandler(requestService service.AssetRequestService, auth *middleware.Auth) *AssetRequestHandler {
	return &AssetRequestHandler{requestService: requestService, auth: auth}
}

func (h *AssetRequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/api/requests")
	requests.Use(h.auth.RequireAuth())
	{
		requests.POST("", h.auth.RequirePermission(model.PermRequestsCreate), h.Create)
		requests.GET("/mine", h.ListMine)
		requests.GET("/stats", h.Stats)
		requests.GET("", h.auth.RequirePermission(model.PermRequestsRead), h.List)
		requests.GET("/:id", h.auth.RequirePermission(model.PermRequestsRead), h.Get)
		requests.PATCH("/:id/approve", h.auth.RequirePermission(model.PermRequestsReview), h.Approve)
		requests.PATCH("/:id/reject", h.auth.RequirePermission(model.PermRequestsReview), h.Reject)
	}
}

// Create handles POST /api/requests
// @Summary      Raise an asset request
// @Description  Creates a Pending request for the authenticated employee. Quantity defaults to 1.
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateAssetRequestDTO  true  "Request Payload"
// @Success      201      {object}  response.Response{data=service.AssetRequestResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/requests [post]
func (h *AssetRequestHandler) Create(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	var req service.CreateAssetRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	res, err := h.requestService.Create(c.Request.Context(), userID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// ListMine handles GET /api/requests/mine
// @Summary      List my requests
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.AssetRequestResponse}
// @Router       /api/requests/mine [get]
func (h *AssetRequestHandler) ListMine(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	res, err := h.requestService.ListMine(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Stats handles GET /api/requests/stats. Admins see every request, employees only their own.
// @Summary      Request statistics
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=repository.RequestStats}
// @Router       /api/requests/stats [get]
func (h *AssetRequestHandler) Stats(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	if middleware.CurrentUserRole(c) == model.RoleAdmin {
		userID = ""
	}

	stats, err := h.requestService.Stats(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}

// List handles GET /api/requests
// @Summary      List asset requests
// @Description  Word-prefix search over asset name, employee name, email and department
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Search terms"
// @Param        status  query     string  false  "Status or All"
// @Param        sort    query     string  false  "newest or oldest"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 10)"
// @Success      200     {object}  response.Response{data=service.AssetRequestPage}
// @Failure      400     {object}  response.Response
// @Router       /api/requests [get]
func (h *AssetRequestHandler) List(c *gin.Context) {
	p := pagination.Parse(c)

	page, err := h.requestService.List(c.Request.Context(), service.AssetRequestListFilter{
		Search: c.Query("search"),
		Status: c.Query("status"),
		Sort:   c.Query("sort"),
		Page:   p.Page,
		Limit:  p.Limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, page))
}

// Get handles GET /api/requests/:id
// @Summary      Get asset request
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.AssetRequestResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/requests/{id} [get]
func (h *AssetRequestHandler) Get(c *gin.Context) {
	res, err := h.requestService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Approve handles PATCH /api/requests/:id/approve
// @Summary      Approve request
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.AssetRequestResponse}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/requests/{id}/approve [patch]
func (h *AssetRequestHandler) Approve(c *gin.Context) {
	h.review(c, h.requestService.Approve)
}

// Reject handles PATCH /api/requests/:id/reject
// @Summary      Reject request
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.AssetRequestResponse}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/requests/{id}/reject [patch]
func (h *AssetRequestHandler) Reject(c *gin.Context) {
	h.review(c, h.requestService.Reject)
}

type reviewFunc func(ctx context.Context, id, reviewerID string) (service.AssetRequestResponse, error)

func (h *AssetRequestHandler) review(c *gin.Context, fn reviewFunc) {
	reviewerID, ok := actorID(c)
	if !ok {
		return
	}

	res, err := fn(c.Request.Context(), c.Param("id"), reviewerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}
