package queue

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"shoptrack/internal/model"

	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"
)

// Consumer 把 Kafka 上的台账事件落成 history 行。
// 幂等靠 event_id 唯一索引：重复消息触发 UNIQUE 冲突，直接当作成功。
type Consumer struct {
	r  *kafka.Reader
	db *gorm.DB
}

func NewConsumer(brokers []string, topic, groupID string, db *gorm.DB) *Consumer {
	return &Consumer{
		r: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1e3,
			MaxBytes: 1e6,
		}),
		db: db,
	}
}

func (c *Consumer) Close() error { return c.r.Close() }

func (c *Consumer) Run(ctx context.Context) {
	for {
		m, err := c.r.ReadMessage(ctx)
		if err != nil {
			return // ctx cancel / 连接断开等
		}

		var ev StockEvent
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			log.Printf("consumer unmarshal: %v", err)
			continue
		}
		if err := ev.Validate(); err != nil {
			log.Printf("consumer drop invalid event %s: %v", ev.EventID, err)
			continue
		}

		h := &model.History{
			EventID:     ev.EventID,
			ProductName: ev.ProductName,
			UserID:      ev.UserID,
			PriceCents:  ev.PriceCents,
			Quantity:    ev.Quantity,
			Action:      ev.Action,
		}
		if ev.ProductID != 0 {
			pid := ev.ProductID
			h.ProductID = &pid
		}

		if err := c.db.Create(h).Error; err != nil {
			if errorsLikeUnique(err) {
				continue
			}
			log.Printf("consumer db create: %v", err)
			continue
		}
	}
}

func errorsLikeUnique(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "UNIQUE") || strings.Contains(s, "unique")
}
