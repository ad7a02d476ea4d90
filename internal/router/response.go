package router

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"shoptrack/internal/service"

	"github.com/gin-gonic/gin"
)

// 统一响应信封：{success, message, data}。

func ok(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message, "data": data})
}

func failWith(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// fail 把服务层错误映射为状态码：
// 校验/重复/库存不足/凭据错误 → 400，未找到 → 404，其余 → 500（不外泄内部细节）。
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrDuplicate),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrBadCredentials):
		failWith(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		failWith(c, http.StatusNotFound, err.Error())
	default:
		log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		failWith(c, http.StatusInternalServerError, "internal error")
	}
}

// paramUint 解析路径里的数字参数，非法值返回 ok=false 并已写响应。
func paramUint(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		failWith(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return uint(v), true
}

// paramInt64 同上，用于数量/金额参数。
func paramInt64(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		failWith(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return v, true
}
