package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"vault-planning/internal/auth"
	"vault-planning/internal/config"
)

func newRouter(issuer *auth.Issuer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuthMiddleware(issuer))
	r.GET("/protected", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextVaultID)) })
	return r
}

func TestJWTAuthMiddleware_Success(t *testing.T) {
	issuer := auth.NewIssuer(config.DefaultConfig().Auth, "vault-1")
	r := newRouter(issuer)

	token, _, err := issuer.GenerateToken()
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "vault-1", w.Body.String())
}

func TestJWTAuthMiddleware_QueryToken(t *testing.T) {
	issuer := auth.NewIssuer(config.DefaultConfig().Auth, "vault-1")
	r := newRouter(issuer)

	token, _, err := issuer.GenerateToken()
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/protected?token="+token, nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuthMiddleware_MissingHeader(t *testing.T) {
	r := newRouter(auth.NewIssuer(config.DefaultConfig().Auth, "vault-1"))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthMiddleware_InvalidToken(t *testing.T) {
	r := newRouter(auth.NewIssuer(config.DefaultConfig().Auth, "vault-1"))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
