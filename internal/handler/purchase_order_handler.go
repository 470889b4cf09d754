package handler

import (
	"context"
	"net/http"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/middleware"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/model"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/service"
	"github.com/Lahiru-360/fixed-asset-registry-final/pkg/response"
	"github.com/gin-gonic/gin"
)

type PurchaseOrderHandler struct {
	poService service.PurchaseOrderService
	auth      *middleware.Auth
}

func NewPurchaseOrderHandler(poService service.PurchaseOrderService, auth *middleware.Auth) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{poService: poService, auth: auth}
}

func (h *PurchaseOrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	po := router.Group("/api/requests/:id")
	po.Use(h.auth.RequirePermission(model.PermPurchaseOrdersWrite))
	{
		po.GET("/purchase-order", h.Get)
		po.POST("/purchase-order", h.Create)
		po.POST("/purchase-order/send", h.Send)
		po.POST("/purchase-order/receive", h.ConfirmReceived)
		po.GET("/purchase-order/pdf", h.DownloadPO)
		po.GET("/grn/pdf", h.DownloadGRN)
	}
}

// Get handles GET /api/requests/:id/purchase-order
// @Summary      Get the purchase order of a request
// @Description  Returns the PO with its goods received note when one exists
// @Tags         purchase-orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.PurchaseOrderResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/requests/{id}/purchase-order [get]
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	res, err := h.poService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Create handles POST /api/requests/:id/purchase-order. Repeating the call returns the existing PO.
// @Summary      Create purchase order
// @Tags         purchase-orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      201  {object}  response.Response{data=service.PurchaseOrderResponse}
// @Failure      422  {object}  response.Response
// @Router       /api/requests/{id}/purchase-order [post]
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	h.act(c, http.StatusCreated, h.poService.Create)
}

// Send handles POST /api/requests/:id/purchase-order/send
// @Summary      Email the purchase order to the vendor
// @Description  Renders the PO PDF if needed and mails it. Status only advances when the mail was accepted.
// @Tags         purchase-orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.PurchaseOrderResponse}
// @Failure      409  {object}  response.Response
// @Failure      502  {object}  response.Response
// @Router       /api/requests/{id}/purchase-order/send [post]
func (h *PurchaseOrderHandler) Send(c *gin.Context) {
	h.act(c, http.StatusOK, h.poService.Send)
}

// ConfirmReceived handles POST /api/requests/:id/purchase-order/receive
// @Summary      Confirm goods received
// @Description  Issues the GRN. Repeating the call returns the existing GRN.
// @Tags         purchase-orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.PurchaseOrderResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/requests/{id}/purchase-order/receive [post]
func (h *PurchaseOrderHandler) ConfirmReceived(c *gin.Context) {
	h.act(c, http.StatusOK, h.poService.ConfirmReceived)
}

// DownloadPO handles GET /api/requests/:id/purchase-order/pdf
// @Summary      Download the PO PDF
// @Tags         purchase-orders
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {file}    file
// @Failure      404  {object}  response.Response
// @Router       /api/requests/{id}/purchase-order/pdf [get]
func (h *PurchaseOrderHandler) DownloadPO(c *gin.Context) {
	d, err := h.poService.DownloadPO(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	sendDownload(c, d)
}

// DownloadGRN handles GET /api/requests/:id/grn/pdf
// @Summary      Download the GRN PDF
// @Tags         purchase-orders
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {file}    file
// @Failure      404  {object}  response.Response
// @Router       /api/requests/{id}/grn/pdf [get]
func (h *PurchaseOrderHandler) DownloadGRN(c *gin.Context) {
	d, err := h.poService.DownloadGRN(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	sendDownload(c, d)
}

type poAction func(ctx context.Context, actorID, requestID string) (service.PurchaseOrderResponse, error)

func (h *PurchaseOrderHandler) act(c *gin.Context, code int, fn poAction) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	res, err := fn(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(code, response.Success(code, res))
}
