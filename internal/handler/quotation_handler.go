package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/middleware"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/model"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/service"
	"github.com/Lahiru-360/fixed-asset-registry-final/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type QuotationHandler struct {
	quotationService service.QuotationService
	auth             *middleware.Auth
}

func NewQuotationHandler(quotationService service.QuotationService, auth *middleware.Auth) *QuotationHandler {
	return &QuotationHandler{quotationService: quotationService, auth: auth}
}

func (h *QuotationHandler) RegisterRoutes(router *gin.RouterGroup) {
	byRequest := router.Group("/api/requests/:id/quotations")
	byRequest.Use(h.auth.RequireAuth())
	{
		byRequest.GET("", h.auth.RequirePermission(model.PermRequestsRead), h.List)
		byRequest.POST("", h.auth.RequirePermission(model.PermQuotationsWrite), h.Create)
		byRequest.PATCH("/:quotationId/select", h.auth.RequirePermission(model.PermQuotationsWrite), h.Select)
	}

	quotations := router.Group("/api/quotations")
	quotations.Use(h.auth.RequirePermission(model.PermQuotationsWrite))
	{
		quotations.PUT("/:quotationId", h.Update)
		quotations.DELETE("/:quotationId", h.Delete)
	}
}

// List handles GET /api/requests/:id/quotations
// @Summary      List quotations of a request
// @Tags         quotations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=[]service.QuotationResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/requests/{id}/quotations [get]
func (h *QuotationHandler) List(c *gin.Context) {
	res, err := h.quotationService.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Create handles POST /api/requests/:id/quotations
// @Summary      Add a vendor quotation
// @Description  Multipart form with the vendor fields and a PDF, JPEG or PNG quotation file (max 10 MB)
// @Tags         quotations
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id            path      string  true  "Request ID"
// @Param        vendor_name   formData  string  true  "Vendor name"
// @Param        vendor_email  formData  string  true  "Vendor email"
// @Param        asset_name    formData  string  true  "Quoted asset"
// @Param        price         formData  string  true  "Unit price"
// @Param        file          formData  file    true  "Quotation document"
// @Success      201           {object}  response.Response{data=service.QuotationResponse}
// @Failure      400           {object}  response.Response
// @Failure      409           {object}  response.Response
// @Router       /api/requests/{id}/quotations [post]
func (h *QuotationHandler) Create(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	in, err := quotationForm(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	file, err := formFile(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	res, err := h.quotationService.Create(c.Request.Context(), userID, c.Param("id"), in, file)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// Update handles PUT /api/quotations/:quotationId. The file is optional and replaces the stored one.
// @Summary      Update a quotation
// @Tags         quotations
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        quotationId   path      string  true   "Quotation ID"
// @Param        vendor_name   formData  string  true   "Vendor name"
// @Param        vendor_email  formData  string  true   "Vendor email"
// @Param        asset_name    formData  string  true   "Quoted asset"
// @Param        price         formData  string  true   "Unit price"
// @Param        file          formData  file    false  "Replacement document"
// @Success      200           {object}  response.Response{data=service.QuotationResponse}
// @Failure      400           {object}  response.Response
// @Failure      409           {object}  response.Response
// @Router       /api/quotations/{quotationId} [put]
func (h *QuotationHandler) Update(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	in, err := quotationForm(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	file, err := formFile(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	res, err := h.quotationService.Update(c.Request.Context(), userID, c.Param("quotationId"), in, file)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Delete handles DELETE /api/quotations/:quotationId
// @Summary      Delete a quotation
// @Tags         quotations
// @Produce      json
// @Security     BearerAuth
// @Param        quotationId  path      string  true  "Quotation ID"
// @Success      200          {object}  response.Response
// @Failure      404          {object}  response.Response
// @Failure      409          {object}  response.Response
// @Router       /api/quotations/{quotationId} [delete]
func (h *QuotationHandler) Delete(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	if err := h.quotationService.Delete(c.Request.Context(), userID, c.Param("quotationId")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Quotation deleted successfully"))
}

// Select handles PATCH /api/requests/:id/quotations/:quotationId/select
// @Summary      Select the final quotation
// @Description  Marks one quotation final and moves the request to Quotation Selected
// @Tags         quotations
// @Produce      json
// @Security     BearerAuth
// @Param        id           path      string  true  "Request ID"
// @Param        quotationId  path      string  true  "Quotation ID"
// @Success      200          {object}  response.Response{data=service.QuotationResponse}
// @Failure      404          {object}  response.Response
// @Failure      409          {object}  response.Response
// @Router       /api/requests/{id}/quotations/{quotationId}/select [patch]
func (h *QuotationHandler) Select(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	res, err := h.quotationService.SelectFinal(c.Request.Context(), userID, c.Param("id"), c.Param("quotationId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

func quotationForm(c *gin.Context) (service.QuotationInput, error) {
	in := service.QuotationInput{
		VendorName:  c.PostForm("vendor_name"),
		VendorEmail: c.PostForm("vendor_email"),
		AssetName:   c.PostForm("asset_name"),
	}
	raw := strings.TrimSpace(c.PostForm("price"))
	if raw == "" {
		return in, errors.New("price is required")
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return in, fmt.Errorf("invalid price %q", raw)
	}
	in.Price = price
	return in, nil
}

// formFile returns nil when the request carries no file part.
func formFile(c *gin.Context) (*service.UploadedFile, error) {
	fh, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("invalid file upload: %w", err)
	}
	if fh.Size > service.MaxQuotationFileSize {
		return nil, fmt.Errorf("file exceeds the %d MB limit", service.MaxQuotationFileSize>>20)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, service.MaxQuotationFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	return &service.UploadedFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
