package queue

import (
	"context"
	"strconv"

	rd "github.com/redis/go-redis/v9"
)

// Outbox 把台账事件原子写入 Redis Stream，由 Relay 异步转发 Kafka。
// API 写流成功即返回，Kafka 不可用不影响请求路径。
type Outbox struct {
	rdb    *rd.Client
	stream string
}

func NewOutbox(rdb *rd.Client, stream string) *Outbox {
	return &Outbox{rdb: rdb, stream: stream}
}

// Emit 追加一条事件到出站流。
func (o *Outbox) Emit(ctx context.Context, ev StockEvent) error {
	return o.rdb.XAdd(ctx, &rd.XAddArgs{
		Stream: o.stream,
		Values: map[string]interface{}{
			"event_id":     ev.EventID,
			"product_id":   strconv.FormatUint(uint64(ev.ProductID), 10),
			"product_name": ev.ProductName,
			"user_id":      strconv.FormatUint(uint64(ev.UserID), 10),
			"price_cents":  strconv.FormatInt(ev.PriceCents, 10),
			"quantity":     strconv.FormatInt(ev.Quantity, 10),
			"action":       string(ev.Action),
		},
	}).Err()
}
