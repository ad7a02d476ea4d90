package queue

import (
	"fmt"

	"shoptrack/internal/model"
)

// StockEvent 是一次库存变动对应的台账事件。
// EventID 与台账行的 event_id 一致，贯穿出站流与 Kafka 消费端做幂等。
type StockEvent struct {
	EventID     string       `json:"event_id"`
	ProductID   uint         `json:"product_id"`
	ProductName string       `json:"product_name"`
	UserID      uint         `json:"user_id"`
	PriceCents  int64        `json:"price_cents"`
	Quantity    int64        `json:"quantity"`
	Action      model.Action `json:"action"`
}

// Validate 做最小字段校验，防止消费者处理脏消息。
func (e StockEvent) Validate() error {
	if e.EventID == "" {
		return fmt.Errorf("event_id is required")
	}
	if e.ProductName == "" {
		return fmt.Errorf("product_name is required")
	}
	if e.UserID == 0 {
		return fmt.Errorf("user_id is required")
	}
	if e.PriceCents <= 0 {
		return fmt.Errorf("price_cents must be > 0")
	}
	if e.Quantity <= 0 {
		return fmt.Errorf("quantity must be > 0")
	}
	if !model.ValidAction(e.Action) {
		return fmt.Errorf("action must be 'buy' or 'sell'")
	}
	return nil
}

// FromHistory 由台账行构造事件。
func FromHistory(h model.History) StockEvent {
	ev := StockEvent{
		EventID:     h.EventID,
		ProductName: h.ProductName,
		UserID:      h.UserID,
		PriceCents:  h.PriceCents,
		Quantity:    h.Quantity,
		Action:      h.Action,
	}
	if h.ProductID != nil {
		ev.ProductID = *h.ProductID
	}
	return ev
}
