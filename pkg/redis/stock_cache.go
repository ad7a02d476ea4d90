package redis

import (
	"context"
	"time"

	rd "github.com/redis/go-redis/v9"
)

// PutStock 库存变更后刷新缓存，供只读接口低成本查询。
func PutStock(ctx context.Context, rdb *rd.Client, productID uint, stock int64, ttl time.Duration) error {
	return rdb.Set(ctx, StockKey(productID), stock, ttl).Err()
}

// GetStock 读取缓存库存。found=false 表示缓存缺失，调用方回落 DB。
func GetStock(ctx context.Context, rdb *rd.Client, productID uint) (int64, bool, error) {
	val, err := rdb.Get(ctx, StockKey(productID)).Int64()
	if err != nil {
		if err == rd.Nil {
			return 0, false, nil
		}
		return 0, false, err
	}
	return val, true, nil
}

// DropStock 商品删除时清缓存。
func DropStock(ctx context.Context, rdb *rd.Client, productID uint) error {
	return rdb.Del(ctx, StockKey(productID)).Err()
}
