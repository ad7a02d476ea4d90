package router

import (
	"net/http"

	"shoptrack/internal/middleware"
	"shoptrack/internal/service"

	"github.com/gin-gonic/gin"
)

type credentialsRequest struct {
	Username string  `json:"username" binding:"required"`
	Password string  `json:"password" binding:"required"`
	Email    *string `json:"email" binding:"omitempty,email"`
}

// register 注册并直接发放会话，省一次登录往返。
func register(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentialsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			failWith(c, http.StatusBadRequest, err.Error())
			return
		}
		user, sess, err := auth.Register(c.Request.Context(), req.Username, req.Password, req.Email)
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, "user created successfully", gin.H{
			"session_id": sess.ID,
			"user_id":    user.ID,
		})
	}
}

func login(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentialsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			failWith(c, http.StatusBadRequest, err.Error())
			return
		}
		user, sess, err := auth.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, "login successful", gin.H{
			"session_id": sess.ID,
			"user_id":    user.ID,
		})
	}
}

// logout 失效当前会话；请求能走到这里说明会话还有效，
// 所以「不存在」只会在并发登出时出现，按 400 报给调用方。
func logout(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		existed, err := auth.Logout(c.Request.Context(), middleware.SessionID(c))
		if err != nil {
			fail(c, err)
			return
		}
		if !existed {
			failWith(c, http.StatusBadRequest, "no session")
			return
		}
		ok(c, "logged out successfully", nil)
	}
}

// logoutAll 所有设备登出，返回失效条数。
func logoutAll(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := auth.LogoutAll(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, "logged out everywhere", gin.H{"invalidated": count})
	}
}

// validate 会话有效时返回用户资料。
func validate(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := auth.Profile(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, "session valid", user)
	}
}

// extendSession 把当前会话续期一个完整 TTL。
func extendSession(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := auth.ExtendSession(c.Request.Context(), middleware.SessionID(c))
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, "session extended", gin.H{"expires": sess.Expires})
	}
}

func sessionStats(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := auth.SessionStats(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, "session statistics", stats)
	}
}

// deleteAccount 删号：级联清掉商品、会话与台账。
func deleteAccount(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.DeleteAccount(c.Request.Context(), middleware.UserID(c)); err != nil {
			fail(c, err)
			return
		}
		ok(c, "account deleted", nil)
	}
}
