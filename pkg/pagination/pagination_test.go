package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func parseQuery(query string) Params {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return Parse(c)
}

func TestParse(t *testing.T) {
	tests := []struct {
		query  string
		page   int
		limit  int
		offset int
	}{
		{"", 1, DefaultLimit, 0},
		{"page=3&limit=5", 3, 5, 10},
		{"page=2&pageSize=25", 2, 25, 25},
		{"page=-1&limit=0", 1, DefaultLimit, 0},
		{"limit=1000", 1, MaxLimit, 0},
		{"page=abc", 1, DefaultLimit, 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			p := parseQuery(tt.query)
			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.limit, p.Limit)
			assert.Equal(t, tt.offset, p.Offset)
		})
	}
}

func TestNewMeta(t *testing.T) {
	assert.Equal(t, Meta{Page: 1, PageSize: 10, Total: 0, TotalPages: 0}, NewMeta(New(1, 10), 0))
	assert.Equal(t, 3, NewMeta(New(1, 10), 21).TotalPages)
	assert.Equal(t, 2, NewMeta(New(2, 10), 20).TotalPages)
}
