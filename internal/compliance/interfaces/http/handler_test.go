package http

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestComplianceRoutePaths(t *testing.T) {
	engine := gin.New()
	api := engine.Group("/api/v1")
	NewComplianceHandler(nil, 0).RegisterRoutes(api)

	routes := map[string]bool{}
	for _, r := range engine.Routes() {
		routes[r.Method+" "+r.Path] = true
	}

	assert.True(t, routes["POST /api/v1/compliance/kyc"])
	assert.True(t, routes["POST /api/v1/compliance/kyc/:id/review"])
	assert.True(t, routes["POST /api/v1/compliance/aml"])
	assert.True(t, routes["POST /api/v1/compliance/aml/:id/resolve"])
	assert.True(t, routes["POST /api/v1/compliance/accreditation/:applicationId/decide"])

	// 未挂到 /compliance 前缀下的旧路径不再注册
	assert.False(t, routes["POST /api/v1/kyc"])
	assert.False(t, routes["POST /api/v1/screenings"])
}
