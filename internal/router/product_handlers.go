package router

import (
	"net/http"
	"strconv"

	"shoptrack/internal/middleware"
	"shoptrack/internal/service"

	"github.com/gin-gonic/gin"
)

func listProducts(products *service.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := products.List(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, "products", list)
	}
}

func getProduct(products *service.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := paramUint(c, "id")
		if !valid {
			return
		}
		p, err := products.Get(c.Request.Context(), middleware.UserID(c), id)
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, "product", p)
	}
}

func createProduct(products *service.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.CreateProductInput
		if err := c.ShouldBindJSON(&req); err != nil {
			failWith(c, http.StatusBadRequest, err.Error())
			return
		}
		p, err := products.Create(c.Request.Context(), middleware.UserID(c), req)
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, "product created successfully", p)
	}
}

func updateProduct(products *service.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := paramUint(c, "id")
		if !valid {
			return
		}
		var req service.UpdateProductInput
		if err := c.ShouldBindJSON(&req); err != nil {
			failWith(c, http.StatusBadRequest, err.Error())
			return
		}
		p, err := products.Update(c.Request.Context(), middleware.UserID(c), id, req)
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, "product updated successfully", p)
	}
}

func deleteProduct(products *service.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := paramUint(c, "id")
		if !valid {
			return
		}
		if err := products.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
			fail(c, err)
			return
		}
		ok(c, "product deleted successfully", nil)
	}
}

// stockOp 三个库存接口共用的骨架：路径里带商品 id 和数量。
func stockOp(op func(c *gin.Context, id uint, qty int64) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := paramUint(c, "id")
		if !valid {
			return
		}
		qty, valid := paramInt64(c, "qty")
		if !valid {
			return
		}
		if err := op(c, id, qty); err != nil {
			fail(c, err)
		}
	}
}

func addStock(products *service.ProductService) gin.HandlerFunc {
	return stockOp(func(c *gin.Context, id uint, qty int64) error {
		p, err := products.AddStock(c.Request.Context(), middleware.UserID(c), id, qty)
		if err != nil {
			return err
		}
		ok(c, "stock added", p)
		return nil
	})
}

func removeStock(products *service.ProductService) gin.HandlerFunc {
	return stockOp(func(c *gin.Context, id uint, qty int64) error {
		p, err := products.RemoveStock(c.Request.Context(), middleware.UserID(c), id, qty)
		if err != nil {
			return err
		}
		ok(c, "stock removed", p)
		return nil
	})
}

func setStock(products *service.ProductService) gin.HandlerFunc {
	return stockOp(func(c *gin.Context, id uint, qty int64) error {
		p, err := products.SetStock(c.Request.Context(), middleware.UserID(c), id, qty)
		if err != nil {
			return err
		}
		ok(c, "stock set", p)
		return nil
	})
}

// getCachedStock 只读库存，优先走 Redis 缓存。
func getCachedStock(products *service.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := paramUint(c, "id")
		if !valid {
			return
		}
		stock, err := products.CachedStock(c.Request.Context(), middleware.UserID(c), id)
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, "stock", gin.H{"product_id": id, "stock": stock})
	}
}

func searchProducts(products *service.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := products.Search(c.Request.Context(), middleware.UserID(c), c.Param("query"))
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, "search results", list)
	}
}

func lowStockProducts(products *service.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		threshold, _ := strconv.ParseInt(c.DefaultQuery("threshold", "10"), 10, 64)
		list, err := products.LowStock(c.Request.Context(), middleware.UserID(c), threshold)
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, "low stock products", list)
	}
}

func updatePrice(products *service.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := paramUint(c, "id")
		if !valid {
			return
		}
		cents, valid := paramInt64(c, "cents")
		if !valid {
			return
		}
		p, err := products.UpdatePrice(c.Request.Context(), middleware.UserID(c), id, cents)
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, "price updated", p)
	}
}

func productsByPriceRange(products *service.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		minCents, err1 := strconv.ParseInt(c.DefaultQuery("min", "0"), 10, 64)
		maxCents, err2 := strconv.ParseInt(c.DefaultQuery("max", "0"), 10, 64)
		if err1 != nil || err2 != nil {
			failWith(c, http.StatusBadRequest, "invalid price range")
			return
		}
		list, err := products.PriceRange(c.Request.Context(), middleware.UserID(c), minCents, maxCents)
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, "products in price range", list)
	}
}

func productStats(products *service.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := products.Stats(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, "product statistics", stats)
	}
}

func transferProduct(products *service.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := paramUint(c, "id")
		if !valid {
			return
		}
		newOwner, valid := paramUint(c, "user_id")
		if !valid {
			return
		}
		if err := products.TransferOwner(c.Request.Context(), middleware.UserID(c), id, newOwner); err != nil {
			fail(c, err)
			return
		}
		ok(c, "ownership transferred", nil)
	}
}
