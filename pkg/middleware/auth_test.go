package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func issueToken(t *testing.T, secret, userID string, roles []string, ttl time.Duration) string {
	t.Helper()
	claims := AuthClaims{
		UserID: userID,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func authRouter() *gin.Engine {
	r := gin.New()
	r.GET("/me", JWTAuthMiddleware(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c)})
	})
	r.GET("/admin", JWTAuthMiddleware(testSecret), RequireRole("admin"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func doRequest(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddleware(t *testing.T) {
	r := authRouter()

	t.Run("missing token", func(t *testing.T) {
		w := doRequest(r, "/me", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Token abc")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := doRequest(r, "/me", "not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		token := issueToken(t, "other-secret", "usr_1", nil, time.Hour)
		w := doRequest(r, "/me", token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		token := issueToken(t, testSecret, "usr_1", nil, -time.Hour)
		w := doRequest(r, "/me", token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token := issueToken(t, testSecret, "usr_1", []string{"investor"}, time.Hour)
		w := doRequest(r, "/me", token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "usr_1")
	})
}

func TestRequireRole(t *testing.T) {
	r := authRouter()

	t.Run("without role", func(t *testing.T) {
		token := issueToken(t, testSecret, "usr_1", []string{"investor"}, time.Hour)
		w := doRequest(r, "/admin", token)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("no roles at all", func(t *testing.T) {
		token := issueToken(t, testSecret, "usr_1", nil, time.Hour)
		w := doRequest(r, "/admin", token)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("with role", func(t *testing.T) {
		token := issueToken(t, testSecret, "usr_1", []string{"investor", "admin"}, time.Hour)
		w := doRequest(r, "/admin", token)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestHasRole(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.False(t, HasRole(c, "admin"))

	c.Set(CtxRolesKey, []string{"investor", "compliance"})
	assert.True(t, HasRole(c, "compliance"))
	assert.False(t, HasRole(c, "admin"))
}
