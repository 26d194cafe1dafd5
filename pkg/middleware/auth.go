package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// CtxUserIDKey 当前登录用户 ID 的 context key
const CtxUserIDKey = "auth_user_id"

// CtxRolesKey 当前登录用户角色列表的 context key
const CtxRolesKey = "auth_roles"

// AuthClaims JWT 载荷，roles 声明驱动管理端/合规端的访问控制
type AuthClaims struct {
	UserID string   `json:"uid"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// JWTAuthMiddleware 解析 Bearer token 并把用户身份写入请求 context
// 缺失或无效的 token 一律返回 401
func JWTAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "missing bearer token",
			})
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")

		claims := &AuthClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "invalid or expired token",
			})
			return
		}

		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxRolesKey, claims.Roles)
		c.Next()
	}
}

// RequireRole 要求当前用户持有任一给定角色，否则返回 403
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		held, ok := c.Get(CtxRolesKey)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "authentication required",
			})
			return
		}

		heldRoles, _ := held.([]string)
		for _, want := range roles {
			for _, have := range heldRoles {
				if want == have {
					c.Next()
					return
				}
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"message": "insufficient role",
		})
	}
}

// UserID 从请求 context 取当前用户 ID
func UserID(c *gin.Context) string {
	id, _ := c.Get(CtxUserIDKey)
	userID, _ := id.(string)
	return userID
}

// HasRole 判断当前用户是否持有指定角色
func HasRole(c *gin.Context, role string) bool {
	held, ok := c.Get(CtxRolesKey)
	if !ok {
		return false
	}
	heldRoles, _ := held.([]string)
	for _, have := range heldRoles {
		if have == role {
			return true
		}
	}
	return false
}
