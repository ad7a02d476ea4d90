package router

import (
	"net/http"

	"shoptrack/internal/config"
	"shoptrack/internal/middleware"
	"shoptrack/internal/service"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
)

// Setup 注册全部 HTTP 路由。
// 认证：除 /ping 与 /auth/register、/auth/login 外全部要求 bearer 会话。
// 限流：库存写接口叠加 Redis 滑动窗口限流（按已认证用户）。
func Setup(r *gin.Engine, auth *service.AuthService, products *service.ProductService,
	histories *service.HistoryService, rdb *rd.Client, cfg config.AppConfig) {

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "pong"})
	})

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", register(auth))
		authGroup.POST("/login", login(auth))

		protected := authGroup.Group("", middleware.RequireSession(auth))
		protected.POST("/logout", logout(auth))
		protected.POST("/logout-all", logoutAll(auth))
		protected.POST("/extend", extendSession(auth))
		protected.GET("/validate", validate(auth))
		protected.GET("/sessions", sessionStats(auth))
		protected.DELETE("/account", deleteAccount(auth))
	}

	productGroup := r.Group("/products", middleware.RequireSession(auth))
	{
		productGroup.GET("", listProducts(products))
		productGroup.POST("", createProduct(products))
		productGroup.GET("/stats", productStats(products))
		productGroup.GET("/low-stock", lowStockProducts(products))
		productGroup.GET("/price-range", productsByPriceRange(products))
		productGroup.GET("/search/:query", searchProducts(products))
		productGroup.GET("/:id", getProduct(products))
		productGroup.PUT("/:id", updateProduct(products))
		productGroup.DELETE("/:id", deleteProduct(products))
		productGroup.PUT("/:id/price/:cents", updatePrice(products))
		productGroup.POST("/:id/transfer/:user_id", transferProduct(products))
		productGroup.GET("/:id/stock", getCachedStock(products))

		// 库存写路径单独挂限流。
		limited := productGroup.Group("", middleware.RedisRateLimit(rdb, cfg.StockRateLimit, cfg.StockRateWindow))
		limited.POST("/:id/stock/add/:qty", addStock(products))
		limited.POST("/:id/stock/remove/:qty", removeStock(products))
		limited.POST("/:id/stock/set/:qty", setStock(products))
	}

	historyGroup := r.Group("/history", middleware.RequireSession(auth))
	{
		historyGroup.GET("", listHistory(histories))
		historyGroup.POST("", createTransaction(histories))
		historyGroup.GET("/summary", userSummary(histories))
		historyGroup.GET("/statistics", transactionStats(histories))
		historyGroup.GET("/action/:action", historyByAction(histories))
		historyGroup.GET("/product/:id", historyByProduct(histories))
		historyGroup.GET("/product/:id/summary", productSummary(histories))
		historyGroup.GET("/:id", getTransaction(histories))
		historyGroup.PUT("/:id", updateTransaction(histories))
		historyGroup.DELETE("/:id", deleteTransaction(histories))
	}
}
