package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-scheduler/internal/models"
	appErrors "github.com/noah-isme/campus-scheduler/pkg/errors"
)

type staticValidator map[string]*models.JWTClaims

func (v staticValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := v[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

type recordingObserver struct {
	paths    []string
	statuses []int
}

func (r *recordingObserver) ObserveHTTPRequest(_, path string, status int, _ time.Duration) {
	r.paths = append(r.paths, path)
	r.statuses = append(r.statuses, status)
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	tokens := staticValidator{
		"admin":   {UserID: "u-admin", Role: models.RoleAdmin},
		"student": {UserID: "u-1", Role: "student"},
	}
	router := gin.New()
	router.Use(JWT(tokens))
	router.GET("/admin", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/users/:id", RBAC("ADMIN", "SELF"), func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/students", RBAC("student"), func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func call(router http.Handler, path, auth string) int {
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code
}

func TestJWTMiddleware(t *testing.T) {
	router := newAuthRouter()
	assert.Equal(t, http.StatusUnauthorized, call(router, "/admin", ""))
	assert.Equal(t, http.StatusUnauthorized, call(router, "/admin", "Token admin"))
	assert.Equal(t, http.StatusUnauthorized, call(router, "/admin", "Bearer nope"))
	assert.Equal(t, http.StatusOK, call(router, "/admin", "bearer admin"))
}

func TestRBACMiddleware(t *testing.T) {
	router := newAuthRouter()
	assert.Equal(t, http.StatusForbidden, call(router, "/admin", "Bearer student"))
	assert.Equal(t, http.StatusOK, call(router, "/users/u-1", "Bearer student"))
	assert.Equal(t, http.StatusForbidden, call(router, "/users/u-2", "Bearer student"))
	assert.Equal(t, http.StatusOK, call(router, "/users/u-2", "Bearer admin"))
	assert.Equal(t, http.StatusOK, call(router, "/students", "Bearer student"))
}

func TestMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &recordingObserver{}
	router := gin.New()
	router.Use(Metrics(observer))
	router.GET("/runs/:id", func(c *gin.Context) { c.Status(http.StatusAccepted) })

	require.Equal(t, http.StatusAccepted, call(router, "/runs/abc", ""))
	require.Equal(t, http.StatusNotFound, call(router, "/nowhere", ""))
	assert.Equal(t, []string{"/runs/:id", "unmatched"}, observer.paths)
	assert.Equal(t, []int{http.StatusAccepted, http.StatusNotFound}, observer.statuses)
}
