package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/apperr"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/middleware"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/service"
	"github.com/Lahiru-360/fixed-asset-registry-final/pkg/response"
	"github.com/gin-gonic/gin"
)

var statusByKind = map[apperr.Kind]int{
	apperr.KindNotFound:           http.StatusNotFound,
	apperr.KindInvalidTransition:  http.StatusConflict,
	apperr.KindAlreadyProcessed:   http.StatusConflict,
	apperr.KindPreconditionFailed: http.StatusUnprocessableEntity,
	apperr.KindValidation:         http.StatusBadRequest,
	apperr.KindExternal:           http.StatusBadGateway,
}

// StatusFor maps a service error to the HTTP status returned to clients.
func StatusFor(err error) int {
	if errors.Is(err, service.ErrInvalidCredentials) {
		return http.StatusUnauthorized
	}
	if code, ok := statusByKind[apperr.KindOf(err)]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// writeError sends err to the client. Unclassified errors are attached to the
// gin context for the request logger and replaced by a generic message.
func writeError(c *gin.Context, err error) {
	code := StatusFor(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(code, response.Error(code, "Internal server error"))
		return
	}
	if code == http.StatusBadGateway {
		_ = c.Error(err)
	}
	c.JSON(code, response.Error(code, publicMessage(err)))
}

func publicMessage(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, msg))
}

// actorID returns the authenticated user id, aborting with 401 when it is missing.
func actorID(c *gin.Context) (string, bool) {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Unauthorized"))
		return "", false
	}
	return id.String(), true
}

// reportMonth reads year and month from the query, falling back to period=YYYY-MM and then to the current month.
func reportMonth(c *gin.Context) (int, int, error) {
	now := time.Now()
	year, month := now.Year(), int(now.Month())

	if p := c.Query("period"); p != "" {
		t, err := time.Parse("2006-01", p)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid period %q, expected YYYY-MM", p)
		}
		year, month = t.Year(), int(t.Month())
	}

	var err error
	if v := c.Query("year"); v != "" {
		if year, err = strconv.Atoi(v); err != nil {
			return 0, 0, fmt.Errorf("invalid year %q", v)
		}
	}
	if v := c.Query("month"); v != "" {
		if month, err = strconv.Atoi(v); err != nil {
			return 0, 0, fmt.Errorf("invalid month %q", v)
		}
	}
	return year, month, nil
}

func sendDownload(c *gin.Context, d service.Download) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, d.FileName))
	c.Data(http.StatusOK, d.ContentType, d.Data)
}
