package redis

import "fmt"

// StockKey 统一约定商品库存缓存键名。
func StockKey(productID uint) string {
	return fmt.Sprintf("shoptrack:stock:%d", productID)
}

// SessionKey 会话有效性缓存键名。
func SessionKey(sessionID string) string {
	return fmt.Sprintf("shoptrack:session:%s", sessionID)
}

// RateLimitUserKey 按用户维度的限流键名。
func RateLimitUserKey(userID uint) string {
	return fmt.Sprintf("shoptrack:rate_limit:user:%d", userID)
}

// RateLimitIPKey 未认证请求按 IP 降级限流的键名。
func RateLimitIPKey(ip string) string {
	return fmt.Sprintf("shoptrack:rate_limit:ip:%s", ip)
}
