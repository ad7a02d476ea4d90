package service

import "errors"

// 服务层哨兵错误：路由层用 errors.Is 映射到状态码。
var (
	// ErrNotFound 目标资源不存在，或不属于当前用户。
	ErrNotFound = errors.New("not found")
	// ErrValidation 请求字段缺失或取值越界。
	ErrValidation = errors.New("validation failed")
	// ErrDuplicate 唯一约束冲突（用户名/邮箱已占用）。
	ErrDuplicate = errors.New("duplicate")
	// ErrInsufficientStock 出库数量超过现有库存。
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrBadCredentials 用户名或密码不正确。
	ErrBadCredentials = errors.New("incorrect username or password")
)
