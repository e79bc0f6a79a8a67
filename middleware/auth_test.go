package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/polyrelay/polyrelay/common/config"
	"github.com/polyrelay/polyrelay/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func authRouter() *gin.Engine {
	router := gin.New()
	router.Use(middleware.BearerAuth())
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return router
}

func TestBearerAuthDisabledWithoutKeys(t *testing.T) {
	orig := config.APIKeys
	config.APIKeys = nil
	defer func() { config.APIKeys = orig }()

	w := httptest.NewRecorder()
	authRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestBearerAuthAcceptsConfiguredKey(t *testing.T) {
	orig := config.APIKeys
	config.APIKeys = []string{"sk-test"}
	defer func() { config.APIKeys = orig }()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer sk-test")
	w := httptest.NewRecorder()
	authRouter().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestBearerAuthRejectsWrongKey(t *testing.T) {
	orig := config.APIKeys
	config.APIKeys = []string{"sk-test"}
	defer func() { config.APIKeys = orig }()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer sk-wrong")
	w := httptest.NewRecorder()
	authRouter().ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	authRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
