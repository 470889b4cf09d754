package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var testSecret = []byte("test-secret")

type staticPerms struct {
	byRole map[string][]string
	calls  int
	err    error
}

func (s *staticPerms) GetPermissionsByRoleName(_ context.Context, role string) ([]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.byRole[role], nil
}

func tokenFor(t *testing.T, role string, ttl time.Duration) (string, uuid.UUID) {
	t.Helper()
	id := uuid.New()
	tok, err := IssueToken(testSecret, &model.User{ID: id, Role: role}, ttl)
	require.NoError(t, err)
	return tok, id
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", append(handlers, func(c *gin.Context) {
		id, _ := CurrentUserID(c)
		c.JSON(http.StatusOK, gin.H{"user": id.String(), "role": CurrentUserRole(c)})
	})...)
	return r
}

func do(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestParseToken(t *testing.T) {
	tok, id := tokenFor(t, model.RoleAdmin, time.Hour)

	claims, err := ParseToken(testSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, id.String(), claims.Subject)
	assert.Equal(t, model.RoleAdmin, claims.Role)

	_, err = ParseToken([]byte("other"), tok)
	assert.Error(t, err)

	expired, _ := tokenFor(t, model.RoleAdmin, -time.Minute)
	_, err = ParseToken(testSecret, expired)
	assert.Error(t, err)
}

func TestRequireRole(t *testing.T) {
	auth := NewAuth(testSecret, &staticPerms{})
	r := newRouter(auth.RequireRole(model.RoleAdmin))

	admin, _ := tokenFor(t, model.RoleAdmin, time.Hour)
	employee, _ := tokenFor(t, model.RoleEmployee, time.Hour)

	assert.Equal(t, http.StatusOK, do(r, admin).Code)
	assert.Equal(t, http.StatusForbidden, do(r, employee).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "garbage").Code)
}

func TestRequirePermission(t *testing.T) {
	perms := &staticPerms{byRole: map[string][]string{
		model.RoleAdmin:    {model.PermRequestsReview, model.PermRequestsCreate},
		model.RoleEmployee: {model.PermRequestsCreate},
	}}
	auth := NewAuth(testSecret, perms)
	r := newRouter(auth.RequirePermission(model.PermRequestsReview))

	admin, _ := tokenFor(t, model.RoleAdmin, time.Hour)
	employee, _ := tokenFor(t, model.RoleEmployee, time.Hour)

	assert.Equal(t, http.StatusOK, do(r, admin).Code)
	assert.Equal(t, http.StatusOK, do(r, admin).Code)
	assert.Equal(t, http.StatusForbidden, do(r, employee).Code)
	assert.Equal(t, 2, perms.calls, "permissions are cached per role")
}

func TestRequirePermission_SourceFailure(t *testing.T) {
	auth := NewAuth(testSecret, &staticPerms{err: errors.New("db down")})
	r := newRouter(auth.RequirePermission(model.PermAuditRead))

	admin, _ := tokenFor(t, model.RoleAdmin, time.Hour)
	assert.Equal(t, http.StatusInternalServerError, do(r, admin).Code)
}

func TestTokenFromCookie(t *testing.T) {
	auth := NewAuth(testSecret, &staticPerms{})
	r := newRouter(auth.RequireAuth())

	tok, _ := tokenFor(t, model.RoleEmployee, time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tok})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := newRouter(RequestLogger(zap.New(core)))

	do(r, "")
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "HTTP request", entry.Message)
	assert.Equal(t, "/protected", entry.ContextMap()["path"])
}
