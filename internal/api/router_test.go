//nolint:noctx // Test file uses http.NewRequest for simplicity
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillnexus/reputation-service/internal/api/reviews"
	"github.com/skillnexus/reputation-service/internal/auth"
	"github.com/skillnexus/reputation-service/internal/service/badges"
	"github.com/skillnexus/reputation-service/pkg/logger"
)

func newTestRouter(checks map[string]Checker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := reviews.NewHandler(reviews.Services{
		Badges: badges.NewServiceWithInterfaces(nil, logger.NewNop()),
	}, logger.NewNop())

	return NewRouter(RouterConfig{
		Environment: "test",
		Handler:     handler,
		Auth:        auth.NewJWTAuthenticator("secret", "", ""),
		Checks:      checks,
		Log:         logger.NewNop(),
	})
}

func TestHealth(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name   string
		checks map[string]Checker
		want   int
		status string
	}{
		{"all healthy", map[string]Checker{"database": ok, "redis": ok}, http.StatusOK, "healthy"},
		{"redis down", map[string]Checker{"database": ok, "redis": down}, http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(tt.checks)

			req, _ := http.NewRequest("GET", "/health", http.NoBody)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.status, body["status"])
			assert.Equal(t, "ok", body["checks"].(map[string]interface{})["database"])
		})
	}
}

func TestRouterWiring(t *testing.T) {
	router := newTestRouter(nil)

	req, _ := http.NewRequest("GET", "/api/v1/reviews/badges", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req, _ = http.NewRequest("POST", "/api/v1/reviews", http.NoBody)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
