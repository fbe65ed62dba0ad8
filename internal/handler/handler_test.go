package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"firestrike/internal/config"
	"firestrike/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestPageQuery_EchoesEffectivePage(t *testing.T) {
	cfg := &config.Config{Business: config.BusinessConfig{DefaultPageSize: 20, MaxPageSize: 100}}
	h := NewHandler(&service.Services{}, cfg)

	tests := []struct {
		query    string
		wantPage int
		wantSize int
	}{
		{"", 1, 20},
		{"?page=3&page_size=50", 3, 50},
		{"?page=0&page_size=-5", 1, 20},
		{"?page_size=500", 1, 100},
		{"?page=abc&page_size=abc", 1, 20},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/tournaments"+tt.query, nil)

			page, size := h.pageQuery(c)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantSize, size)

			out := pageResult([]int{}, 0, page, size)
			assert.Equal(t, tt.wantSize, out["page_size"])
		})
	}
}
