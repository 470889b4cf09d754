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

type ReportHandler struct {
	reportService service.ReportService
	auth          *middleware.Auth
}

func NewReportHandler(reportService service.ReportService, auth *middleware.Auth) *ReportHandler {
	return &ReportHandler{reportService: reportService, auth: auth}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/api/reports")
	reports.Use(h.auth.RequirePermission(model.PermReportsRead))
	{
		reports.GET("/depreciation/monthly", h.MonthlySchedule)
		reports.GET("/depreciation/monthly/pdf", h.download(h.reportService.MonthlySchedulePDF))
		reports.GET("/depreciation/monthly/xlsx", h.download(h.reportService.MonthlyScheduleXLSX))
		reports.GET("/sofp", h.SOFP)
		reports.GET("/sofp/pdf", h.download(h.reportService.SOFPPDF))
		reports.GET("/sofp/xlsx", h.download(h.reportService.SOFPXLSX))
		reports.GET("/assets/:id/depreciation", h.AssetDepreciation)
	}
}

// MonthlySchedule handles GET /api/reports/depreciation/monthly
// @Summary      Monthly depreciation schedule
// @Description  The total covers every asset acquired by the period, independent of paging and filters
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        year    query     int     false  "Year (default current)"
// @Param        month   query     int     false  "Month 1-12 (default current)"
// @Param        search  query     string  false  "Search over name, number and category"
// @Param        status  query     string  false  "All, Active or Fully Depreciated"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 10)"
// @Success      200     {object}  response.Response{data=report.SchedulePage}
// @Failure      400     {object}  response.Response
// @Router       /api/reports/depreciation/monthly [get]
func (h *ReportHandler) MonthlySchedule(c *gin.Context) {
	year, month, err := reportMonth(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	p := pagination.Parse(c)

	page, err := h.reportService.MonthlySchedule(c.Request.Context(), service.ScheduleFilter{
		Year:   year,
		Month:  month,
		Page:   p.Page,
		Limit:  p.Limit,
		Search: c.Query("search"),
		Status: c.Query("status"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, page))
}

// SOFP handles GET /api/reports/sofp
// @Summary      Statement of financial position
// @Description  Cost, accumulated depreciation and NBV per category as of the end of the month
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        year   query     int  false  "Year (default current)"
// @Param        month  query     int  false  "Month 1-12 (default current)"
// @Success      200    {object}  response.Response{data=report.SOFP}
// @Failure      400    {object}  response.Response
// @Router       /api/reports/sofp [get]
func (h *ReportHandler) SOFP(c *gin.Context) {
	year, month, err := reportMonth(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	res, err := h.reportService.SOFP(c.Request.Context(), year, month)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// AssetDepreciation handles GET /api/reports/assets/:id/depreciation
// @Summary      Depreciation of one asset
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true   "Asset ID"
// @Param        year   query     int     false  "Year (default current)"
// @Param        month  query     int     false  "Month 1-12 (default current)"
// @Success      200    {object}  response.Response{data=service.AssetDepreciationResponse}
// @Failure      404    {object}  response.Response
// @Router       /api/reports/assets/{id}/depreciation [get]
func (h *ReportHandler) AssetDepreciation(c *gin.Context) {
	year, month, err := reportMonth(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	res, err := h.reportService.AssetDepreciation(c.Request.Context(), c.Param("id"), year, month)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

type reportExport func(ctx context.Context, year, month int) (service.Download, error)

// download serves the PDF and XLSX exports of both reports.
// @Summary      Export a report
// @Tags         reports
// @Produce      application/pdf
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        year   query     int  false  "Year (default current)"
// @Param        month  query     int  false  "Month 1-12 (default current)"
// @Success      200    {file}    file
// @Router       /api/reports/depreciation/monthly/pdf [get]
// @Router       /api/reports/depreciation/monthly/xlsx [get]
// @Router       /api/reports/sofp/pdf [get]
// @Router       /api/reports/sofp/xlsx [get]
func (h *ReportHandler) download(export reportExport) gin.HandlerFunc {
	return func(c *gin.Context) {
		year, month, err := reportMonth(c)
		if err != nil {
			badRequest(c, err.Error())
			return
		}

		d, err := export(c.Request.Context(), year, month)
		if err != nil {
			writeError(c, err)
			return
		}
		sendDownload(c, d)
	}
}
