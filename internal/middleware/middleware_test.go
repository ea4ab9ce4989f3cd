package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"referly/config"
	"referly/internal/auth"
	"referly/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

type companiesStub map[uint]*models.Company

func (s companiesStub) GetByID(id uint) (*models.Company, error) {
	if c, ok := s[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestAuthRequired(t *testing.T) {
	cfg := &config.JWTConfig{Secret: "s3cret", Expiry: time.Hour, Issuer: "referly", CookieName: "jwt"}
	companies := companiesStub{7: {ID: 7, Name: "Acme"}}
	good, err := auth.GenerateToken(cfg, 7, "owner@acme.test")
	require.NoError(t, err)
	orphan, err := auth.GenerateToken(cfg, 8, "gone@acme.test")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", AuthRequired(cfg, companies), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetCompanyID(c)})
	})

	tests := []struct {
		name   string
		setup  func(*http.Request)
		status int
	}{
		{"no token", func(*http.Request) {}, http.StatusUnauthorized},
		{"garbage cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "jwt", Value: "junk"}) }, http.StatusUnauthorized},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "jwt", Value: good}) }, http.StatusOK},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+good) }, http.StatusOK},
		{"basic scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic "+good) }, http.StatusUnauthorized},
		{"unknown company", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+orphan) }, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"id":7}`, w.Body.String())
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	l := NewInMemoryRateLimiter(2, time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("1.1.1.1"))
	assert.False(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("2.2.2.2"))

	now = now.Add(61 * time.Second)
	assert.True(t, l.Allow("1.1.1.1"))

	now = now.Add(2 * time.Minute)
	l.sweep()
	assert.Zero(t, l.keys())
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.POST("/r", RateLimit(NewInMemoryRateLimiter(1, time.Minute)), func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/r", nil))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/r", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "request", entry.Message)
	assert.Equal(t, "abc-123", entry.ContextMap()["request_id"])
	assert.Equal(t, int64(http.StatusOK), entry.ContextMap()["status"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}
