package redis

import (
	"context"
	"strconv"
	"time"

	rd "github.com/redis/go-redis/v9"
)

// 会话有效性缓存：key 存 user_id，TTL 不超过会话剩余寿命，
// 这样缓存命中天然等价于「存在且未过期」。
// DB 永远是真相来源，缓存 miss 一律回落到 DB。

// MarkSessionValid 写入正向缓存。remaining <= 0 时不写（会话已经无效）。
func MarkSessionValid(ctx context.Context, rdb *rd.Client, sessionID string, userID uint, remaining time.Duration) error {
	if remaining <= 0 {
		return nil
	}
	return rdb.Set(ctx, SessionKey(sessionID), strconv.FormatUint(uint64(userID), 10), remaining).Err()
}

// LookupSession 查缓存。found=false 表示 miss，调用方回落 DB。
func LookupSession(ctx context.Context, rdb *rd.Client, sessionID string) (uint, bool, error) {
	val, err := rdb.Get(ctx, SessionKey(sessionID)).Result()
	if err != nil {
		if err == rd.Nil {
			return 0, false, nil
		}
		return 0, false, err
	}
	id, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, false, nil
	}
	return uint(id), true, nil
}

// DropSession 失效/登出时删缓存，保证后续校验立刻回落 DB。
func DropSession(ctx context.Context, rdb *rd.Client, sessionIDs ...string) error {
	if len(sessionIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(sessionIDs))
	for _, id := range sessionIDs {
		keys = append(keys, SessionKey(id))
	}
	return rdb.Del(ctx, keys...).Err()
}
