package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/apperr"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/middleware"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/model"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/report"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/repository"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/service"
	"github.com/Lahiru-360/fixed-asset-registry-final/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("handler-test-secret")

type rolePerms map[string][]string

func (r rolePerms) GetPermissionsByRoleName(_ context.Context, role string) ([]string, error) {
	return r[role], nil
}

func newAuth() *middleware.Auth {
	return middleware.NewAuth(testSecret, rolePerms{
		model.RoleAdmin: {
			model.PermRequestsRead, model.PermRequestsReview, model.PermQuotationsWrite,
			model.PermPurchaseOrdersWrite, model.PermAssetsRead, model.PermAssetsWrite,
			model.PermCategoriesWrite, model.PermReportsRead, model.PermAuditRead,
		},
		model.RoleEmployee: {model.PermRequestsCreate},
	})
}

func bearer(t *testing.T, role string) (string, uuid.UUID) {
	t.Helper()
	id := uuid.New()
	tok, err := middleware.IssueToken(testSecret, &model.User{ID: id, Role: role}, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok, id
}

type routes interface {
	RegisterRoutes(router *gin.RouterGroup)
}

func newRouter(handlers ...routes) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	for _, h := range handlers {
		h.RegisterRoutes(r.Group(""))
	}
	return r
}

func serve(r http.Handler, req *http.Request, auth string) *httptest.ResponseRecorder {
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, path string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var res response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

// --- stubs ---

type stubRequests struct {
	service.AssetRequestService
	created  service.CreateAssetRequestDTO
	statsFor *string
	reviewed []string
	err      error
}

func (s *stubRequests) Create(_ context.Context, employeeID string, req service.CreateAssetRequestDTO) (service.AssetRequestResponse, error) {
	s.created = req
	return service.AssetRequestResponse{ID: "r1", EmployeeID: employeeID, AssetName: req.AssetName, Status: "Pending"}, s.err
}

func (s *stubRequests) Stats(_ context.Context, employeeID string) (repository.RequestStats, error) {
	s.statsFor = &employeeID
	return repository.RequestStats{Total: 3}, nil
}

func (s *stubRequests) Approve(_ context.Context, id, reviewerID string) (service.AssetRequestResponse, error) {
	s.reviewed = append(s.reviewed, "approve:"+id+":"+reviewerID)
	return service.AssetRequestResponse{ID: id, Status: "Approved"}, s.err
}

func (s *stubRequests) Get(context.Context, string) (service.AssetRequestResponse, error) {
	return service.AssetRequestResponse{}, s.err
}

type stubQuotations struct {
	service.QuotationService
	in   service.QuotationInput
	file *service.UploadedFile
}

func (s *stubQuotations) Create(_ context.Context, _, requestID string, in service.QuotationInput, file *service.UploadedFile) (service.QuotationResponse, error) {
	s.in, s.file = in, file
	return service.QuotationResponse{ID: "q1", RequestID: requestID}, nil
}

type stubPOs struct {
	service.PurchaseOrderService
	err error
}

func (s *stubPOs) Send(_ context.Context, _, requestID string) (service.PurchaseOrderResponse, error) {
	return service.PurchaseOrderResponse{RequestID: requestID}, s.err
}

func (s *stubPOs) DownloadPO(context.Context, string) (service.Download, error) {
	return service.Download{FileName: "PO-20240315-000001.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}, s.err
}

type stubReports struct {
	service.ReportService
	filter service.ScheduleFilter
}

func (s *stubReports) MonthlySchedule(_ context.Context, f service.ScheduleFilter) (report.SchedulePage, error) {
	s.filter = f
	return report.SchedulePage{}, nil
}

func (s *stubReports) SOFPXLSX(_ context.Context, year, month int) (service.Download, error) {
	return service.Download{
		FileName:    fmt.Sprintf("sofp-%04d-%02d.xlsx", year, month),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        []byte("xlsx"),
	}, nil
}

type stubUsers struct {
	service.UserService
	loginErr error
}

func (s *stubUsers) Login(_ context.Context, req service.LoginUserRequest) (*service.TokenResponse, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &service.TokenResponse{Token: "signed", User: &service.UserResponse{Email: req.Email}}, nil
}

// --- tests ---

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{apperr.NotFound("op", "missing"), http.StatusNotFound},
		{apperr.InvalidTransition("op", "bad"), http.StatusConflict},
		{apperr.AlreadyProcessed("op", "done"), http.StatusConflict},
		{apperr.PreconditionFailed("op", "not yet"), http.StatusUnprocessableEntity},
		{apperr.Validation("op", "bad input"), http.StatusBadRequest},
		{apperr.External("op", "smtp down", errors.New("dial")), http.StatusBadGateway},
		{fmt.Errorf("wrapped: %w", apperr.NotFound("op", "missing")), http.StatusNotFound},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.code, StatusFor(tt.err))
		})
	}
}

func TestAssetRequestHandler_Create(t *testing.T) {
	stub := &stubRequests{}
	r := newRouter(NewAssetRequestHandler(stub, newAuth()))
	auth, employeeID := bearer(t, model.RoleEmployee)

	w := serve(r, jsonRequest(http.MethodPost, "/api/requests", map[string]interface{}{
		"asset_name": "Laptop",
		"quantity":   2,
	}), auth)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Laptop", stub.created.AssetName)
	assert.Equal(t, 2, stub.created.Quantity)
	assert.Contains(t, w.Body.String(), employeeID.String())

	w = serve(r, jsonRequest(http.MethodPost, "/api/requests", map[string]interface{}{"quantity": 1}), auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssetRequestHandler_Guards(t *testing.T) {
	stub := &stubRequests{}
	r := newRouter(NewAssetRequestHandler(stub, newAuth()))
	employee, _ := bearer(t, model.RoleEmployee)

	w := serve(r, jsonRequest(http.MethodPatch, "/api/requests/r1/approve", nil), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, jsonRequest(http.MethodPatch, "/api/requests/r1/approve", nil), employee)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, stub.reviewed)
}

func TestAssetRequestHandler_Approve(t *testing.T) {
	stub := &stubRequests{}
	r := newRouter(NewAssetRequestHandler(stub, newAuth()))
	admin, adminID := bearer(t, model.RoleAdmin)

	w := serve(r, jsonRequest(http.MethodPatch, "/api/requests/r1/approve", nil), admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"approve:r1:" + adminID.String()}, stub.reviewed)

	stub.err = apperr.InvalidTransition("approveRequest", "request is already Rejected")
	w = serve(r, jsonRequest(http.MethodPatch, "/api/requests/r1/approve", nil), admin)
	assert.Equal(t, http.StatusConflict, w.Code)
	res := decode(t, w)
	assert.Equal(t, "error", res.Status)
	assert.Equal(t, "request is already Rejected", res.Error)
}

func TestAssetRequestHandler_Stats(t *testing.T) {
	stub := &stubRequests{}
	r := newRouter(NewAssetRequestHandler(stub, newAuth()))

	employee, employeeID := bearer(t, model.RoleEmployee)
	w := serve(r, jsonRequest(http.MethodGet, "/api/requests/stats", nil), employee)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, stub.statsFor)
	assert.Equal(t, employeeID.String(), *stub.statsFor)

	admin, _ := bearer(t, model.RoleAdmin)
	w = serve(r, jsonRequest(http.MethodGet, "/api/requests/stats", nil), admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", *stub.statsFor)
}

func TestAssetRequestHandler_InternalErrorIsHidden(t *testing.T) {
	stub := &stubRequests{err: errors.New("pq: connection refused")}
	r := newRouter(NewAssetRequestHandler(stub, newAuth()))
	admin, _ := bearer(t, model.RoleAdmin)

	w := serve(r, jsonRequest(http.MethodGet, "/api/requests/r1", nil), admin)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func multipartQuotation(t *testing.T, fields map[string]string, withFile bool) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if withFile {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="quote.pdf"`)
		h.Set("Content-Type", "application/pdf")
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte("%PDF-1.4"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/requests/r1/quotations", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestQuotationHandler_Create(t *testing.T) {
	stub := &stubQuotations{}
	r := newRouter(NewQuotationHandler(stub, newAuth()))
	admin, _ := bearer(t, model.RoleAdmin)

	fields := map[string]string{
		"vendor_name":  "Acme",
		"vendor_email": "sales@acme.test",
		"asset_name":   "Laptop",
		"price":        "120000.50",
	}
	w := serve(r, multipartQuotation(t, fields, true), admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Acme", stub.in.VendorName)
	assert.Equal(t, "120000.5", stub.in.Price.String())
	require.NotNil(t, stub.file)
	assert.Equal(t, "quote.pdf", stub.file.Name)
	assert.Equal(t, "application/pdf", stub.file.ContentType)
	assert.Equal(t, []byte("%PDF-1.4"), stub.file.Data)

	fields["price"] = "twelve"
	w = serve(r, multipartQuotation(t, fields, true), admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPurchaseOrderHandler_SendFailure(t *testing.T) {
	stub := &stubPOs{err: apperr.External("sendPurchaseOrder", "failed to email purchase order", errors.New("smtp: 421"))}
	r := newRouter(NewPurchaseOrderHandler(stub, newAuth()))
	admin, _ := bearer(t, model.RoleAdmin)

	w := serve(r, jsonRequest(http.MethodPost, "/api/requests/r1/purchase-order/send", nil), admin)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "failed to email purchase order", decode(t, w).Error)
}

func TestPurchaseOrderHandler_DownloadPO(t *testing.T) {
	r := newRouter(NewPurchaseOrderHandler(&stubPOs{}, newAuth()))
	admin, _ := bearer(t, model.RoleAdmin)

	w := serve(r, jsonRequest(http.MethodGet, "/api/requests/r1/purchase-order/pdf", nil), admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="PO-20240315-000001.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF", w.Body.String())
}

func TestReportHandler_Period(t *testing.T) {
	stub := &stubReports{}
	r := newRouter(NewReportHandler(stub, newAuth()))
	admin, _ := bearer(t, model.RoleAdmin)

	w := serve(r, jsonRequest(http.MethodGet, "/api/reports/depreciation/monthly?year=2024&month=4&status=Active&page=2&limit=5", nil), admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.ScheduleFilter{Year: 2024, Month: 4, Page: 2, Limit: 5, Status: "Active"}, stub.filter)

	w = serve(r, jsonRequest(http.MethodGet, "/api/reports/depreciation/monthly?period=2023-11", nil), admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2023, stub.filter.Year)
	assert.Equal(t, 11, stub.filter.Month)

	now := time.Now()
	w = serve(r, jsonRequest(http.MethodGet, "/api/reports/depreciation/monthly", nil), admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, now.Year(), stub.filter.Year)
	assert.Equal(t, int(now.Month()), stub.filter.Month)

	w = serve(r, jsonRequest(http.MethodGet, "/api/reports/depreciation/monthly?month=x", nil), admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	employee, _ := bearer(t, model.RoleEmployee)
	w = serve(r, jsonRequest(http.MethodGet, "/api/reports/sofp", nil), employee)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestReportHandler_Export(t *testing.T) {
	r := newRouter(NewReportHandler(&stubReports{}, newAuth()))
	admin, _ := bearer(t, model.RoleAdmin)

	w := serve(r, jsonRequest(http.MethodGet, "/api/reports/sofp/xlsx?year=2024&month=12", nil), admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="sofp-2024-12.xlsx"`, w.Header().Get("Content-Disposition"))
}

func TestUserHandler_Login(t *testing.T) {
	stub := &stubUsers{}
	r := newRouter(NewUserHandler(stub, newAuth(), time.Hour, false))

	w := serve(r, jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "admin@example.com",
		"password": "secret123",
	}), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Set-Cookie"), middleware.AccessTokenCookie+"=signed")

	stub.loginErr = service.ErrInvalidCredentials
	w = serve(r, jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "admin@example.com",
		"password": "wrong-password",
	}), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
