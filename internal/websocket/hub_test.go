package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/lifecycle"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/middleware"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var secret = []byte("hub-secret")

func startServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ServeWs(hub, c, secret) })
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, user *model.User) *websocket.Conn {
	t.Helper()
	tok, err := middleware.IssueToken(secret, user, time.Hour)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + tok
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.ClientCount() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_DeliversToAdminAndOwner(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	t.Cleanup(hub.Stop)
	srv := startServer(t, hub)

	owner := &model.User{ID: uuid.New(), Role: model.RoleEmployee}
	other := &model.User{ID: uuid.New(), Role: model.RoleEmployee}
	admin := &model.User{ID: uuid.New(), Role: model.RoleAdmin}

	ownerConn := dial(t, srv, owner)
	otherConn := dial(t, srv, other)
	adminConn := dial(t, srv, admin)
	waitForClients(t, hub, 3)

	requestID := uuid.New()
	hub.PublishStatusChange(lifecycle.NewEvent(requestID, owner.ID, lifecycle.StatusPending, lifecycle.StatusApproved))

	for _, conn := range []*websocket.Conn{ownerConn, adminConn} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)

		var event lifecycle.Event
		require.NoError(t, json.Unmarshal(msg, &event))
		assert.Equal(t, lifecycle.EventStatusChanged, event.Type)
		assert.Equal(t, requestID, event.RequestID)
		assert.Equal(t, lifecycle.StatusApproved, event.To)
	}

	require.NoError(t, otherConn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := otherConn.ReadMessage()
	assert.Error(t, err, "unrelated employees receive nothing")
}

func TestServeWs_RejectsMissingOrBadToken(t *testing.T) {
	hub := NewHub(zap.NewNop())
	srv := startServer(t, hub)

	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/ws?token=nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServeWs_RejectsNonUUIDSubject(t *testing.T) {
	hub := NewHub(zap.NewNop())
	srv := startServer(t, hub)

	claims := middleware.Claims{
		Role: model.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + tok
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestServeWs_AfterStopClosesConnection(t *testing.T) {
	hub := NewHub(zap.NewNop())
	stopped := make(chan struct{})
	go func() {
		hub.Run()
		close(stopped)
	}()
	hub.Stop()
	<-stopped

	srv := startServer(t, hub)
	conn := dial(t, srv, &model.User{ID: uuid.New(), Role: model.RoleEmployee})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

func TestHub_ClientDisconnectAfterStopDoesNotBlock(t *testing.T) {
	hub := NewHub(zap.NewNop())
	stopped := make(chan struct{})
	go func() {
		hub.Run()
		close(stopped)
	}()
	srv := startServer(t, hub)

	conn := dial(t, srv, &model.User{ID: uuid.New(), Role: model.RoleEmployee})
	waitForClients(t, hub, 1)

	hub.Stop()
	<-stopped
	assert.Equal(t, 0, hub.ClientCount())

	// The server side closes once Send is closed; the read pump must then exit.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
