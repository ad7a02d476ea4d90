package router

import (
	"net/http"
	"strconv"
	"time"

	"shoptrack/internal/middleware"
	"shoptrack/internal/model"
	"shoptrack/internal/service"

	"github.com/gin-gonic/gin"
)

// listHistory 台账列表，支持叠加过滤：
// ?q= 名称子串、?min_price=&max_price= 单价区间、
// ?start=&end= 时间区间（RFC3339）、?limit= 最近 N 条。
// 不带参数时返回当前用户全量台账。
func listHistory(histories *service.HistoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userID := middleware.UserID(c)

		if q := c.Query("q"); q != "" {
			list, err := histories.Search(ctx, userID, q)
			respondList(c, list, err)
			return
		}
		if c.Query("min_price") != "" || c.Query("max_price") != "" {
			minCents, err1 := strconv.ParseInt(c.DefaultQuery("min_price", "0"), 10, 64)
			maxCents, err2 := strconv.ParseInt(c.DefaultQuery("max_price", "0"), 10, 64)
			if err1 != nil || err2 != nil {
				failWith(c, http.StatusBadRequest, "invalid price range")
				return
			}
			list, err := histories.PriceRange(ctx, userID, minCents, maxCents)
			respondList(c, list, err)
			return
		}
		if c.Query("start") != "" || c.Query("end") != "" {
			start, err1 := time.Parse(time.RFC3339, c.Query("start"))
			end, err2 := time.Parse(time.RFC3339, c.Query("end"))
			if err1 != nil || err2 != nil {
				failWith(c, http.StatusBadRequest, "start/end must be RFC3339")
				return
			}
			list, err := histories.DateRange(ctx, userID, start, end)
			respondList(c, list, err)
			return
		}
		if limitStr := c.Query("limit"); limitStr != "" {
			limit, err := strconv.Atoi(limitStr)
			if err != nil {
				failWith(c, http.StatusBadRequest, "invalid limit")
				return
			}
			list, err := histories.Recent(ctx, userID, limit)
			respondList(c, list, err)
			return
		}

		list, err := histories.ListByUser(ctx, userID)
		respondList(c, list, err)
	}
}

func respondList(c *gin.Context, list []model.History, err error) {
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "transactions", list)
}

func createTransaction(histories *service.HistoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.CreateTransactionInput
		if err := c.ShouldBindJSON(&req); err != nil {
			failWith(c, http.StatusBadRequest, err.Error())
			return
		}
		h, err := histories.Create(c.Request.Context(), middleware.UserID(c), req)
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, "transaction created successfully", h)
	}
}

func getTransaction(histories *service.HistoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := paramUint(c, "id")
		if !valid {
			return
		}
		h, err := histories.Get(c.Request.Context(), middleware.UserID(c), id)
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, "transaction", h)
	}
}

func updateTransaction(histories *service.HistoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := paramUint(c, "id")
		if !valid {
			return
		}
		var req service.UpdateTransactionInput
		if err := c.ShouldBindJSON(&req); err != nil {
			failWith(c, http.StatusBadRequest, err.Error())
			return
		}
		h, err := histories.Update(c.Request.Context(), middleware.UserID(c), id, req)
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, "transaction updated successfully", h)
	}
}

func deleteTransaction(histories *service.HistoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := paramUint(c, "id")
		if !valid {
			return
		}
		if err := histories.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
			fail(c, err)
			return
		}
		ok(c, "transaction deleted successfully", nil)
	}
}

func historyByAction(histories *service.HistoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := histories.ListByAction(c.Request.Context(), middleware.UserID(c),
			model.Action(c.Param("action")))
		respondList(c, list, err)
	}
}

func historyByProduct(histories *service.HistoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := paramUint(c, "id")
		if !valid {
			return
		}
		list, err := histories.ListByProduct(c.Request.Context(), middleware.UserID(c), id)
		respondList(c, list, err)
	}
}

func userSummary(histories *service.HistoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sum, err := histories.UserSummary(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, "transaction summary", sum)
	}
}

func productSummary(histories *service.HistoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := paramUint(c, "id")
		if !valid {
			return
		}
		sum, err := histories.ProductSummary(c.Request.Context(), middleware.UserID(c), id)
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, "product transaction summary", sum)
	}
}

// transactionStats 通用统计：?product_id= 可选叠加商品过滤。
func transactionStats(histories *service.HistoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)
		var productID *uint
		if pidStr := c.Query("product_id"); pidStr != "" {
			pid64, err := strconv.ParseUint(pidStr, 10, 32)
			if err != nil {
				failWith(c, http.StatusBadRequest, "invalid product_id")
				return
			}
			pid := uint(pid64)
			productID = &pid
		}
		stats, err := histories.Stats(c.Request.Context(), &userID, productID)
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, "transaction statistics", stats)
	}
}
