package middleware

import (
	"net/http"
	"strings"

	"shoptrack/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	// CtxUserID 认证通过后写入 gin context 的用户 id 键。
	CtxUserID = "user_id"
	// CtxSessionID 当前请求携带的会话 token 键。
	CtxSessionID = "session_id"
)

// BearerToken 从 Authorization 头解析 bearer token，没有则返回空串。
func BearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireSession 认证网关：解析 bearer token，校验会话有效性，
// 把 user_id 注入请求上下文。失败统一 401。
func RequireSession(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "missing or invalid authorization header",
			})
			return
		}

		userID, ok, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "authentication failed",
			})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "invalid or expired session",
			})
			return
		}

		c.Set(CtxUserID, userID)
		c.Set(CtxSessionID, token)
		c.Next()
	}
}

// UserID 取出认证中间件注入的用户 id。
func UserID(c *gin.Context) uint {
	v, _ := c.Get(CtxUserID)
	id, _ := v.(uint)
	return id
}

// SessionID 取出当前请求的会话 token。
func SessionID(c *gin.Context) string {
	v, _ := c.Get(CtxSessionID)
	id, _ := v.(string)
	return id
}
