package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newCompressedRouter(cm *CompressionMiddleware) *gin.Engine {
	r := gin.New()
	r.Use(cm.Handler())
	r.GET("/large", func(c *gin.Context) {
		c.String(http.StatusOK, strings.Repeat("project health ", 200))
	})
	r.GET("/small", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/empty", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/unwritten", func(c *gin.Context) {})
	return r
}

func serve(r *gin.Engine, path, acceptEncoding string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if acceptEncoding != "" {
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestCompression_LargeResponse(t *testing.T) {
	cm := NewCompressionMiddleware(DefaultCompressionConfig())
	r := newCompressedRouter(cm)

	w := serve(r, "/large", "gzip, deflate")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	assert.Contains(t, w.Header().Values("Vary"), "Accept-Encoding")

	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("project health ", 200), string(body))

	stats := cm.GetStats()
	assert.Equal(t, int64(1), stats["compressed_requests"])
	assert.Less(t, stats["compression_ratio"].(float64), 0.5)
}

func TestCompression_Passthrough(t *testing.T) {
	cm := NewCompressionMiddleware(DefaultCompressionConfig())
	r := newCompressedRouter(cm)

	tests := []struct {
		name           string
		path           string
		acceptEncoding string
		status         int
		body           string
	}{
		{"client without gzip", "/large", "", http.StatusOK, strings.Repeat("project health ", 200)},
		{"below minimum size", "/small", "gzip", http.StatusOK, `{"ok":true}`},
		{"no content", "/empty", "gzip", http.StatusNoContent, ""},
		{"handler writes nothing", "/unwritten", "gzip", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, tt.path, tt.acceptEncoding)
			assert.Equal(t, tt.status, w.Code)
			assert.Empty(t, w.Header().Get("Content-Encoding"))
			assert.Equal(t, tt.body, w.Body.String())
		})
	}
}

func TestCompression_SkipsUnlistedContentTypes(t *testing.T) {
	cfg := DefaultCompressionConfig()
	cfg.ContentTypes = []string{"application/json"}
	cm := NewCompressionMiddleware(cfg)

	w := serve(newCompressedRouter(cm), "/large", "gzip")
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, strings.Repeat("project health ", 200), w.Body.String())
}

func TestCompression_InvalidLevelFallsBack(t *testing.T) {
	cm := NewCompressionMiddleware(CompressionConfig{MinSize: -5, CompressionLevel: 42})
	assert.Equal(t, gzip.DefaultCompression, cm.config.CompressionLevel)
	assert.Equal(t, 0, cm.config.MinSize)
}

func TestCompressionStats(t *testing.T) {
	stats := NewCompressionStats()
	stats.RecordRequest(1000, 300, true)
	stats.RecordRequest(1000, 1000, false)

	got := stats.GetStats()
	assert.Equal(t, int64(2), got["total_requests"])
	assert.Equal(t, int64(1), got["compressed_requests"])
	assert.InDelta(t, 0.65, got["compression_ratio"].(float64), 1e-9)
	assert.InDelta(t, 0.35, got["compression_savings"].(float64), 1e-9)
}
