package model

import (
	"fmt"
	"time"
)

// Action 是台账动作枚举，只允许 buy / sell 两种。
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// ValidAction 校验动作取值。
func ValidAction(a Action) bool {
	return a == ActionBuy || a == ActionSell
}

// History 交易台账：记录一次买入/卖出事件。
// ProductID 可空：商品被删除后台账保留，外键置空，冗余的 ProductName 不变。
// EventID 贯穿出站事件流与 Kafka 消费端，作为全链路幂等主键。
type History struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	EventID     string `gorm:"size:64;uniqueIndex;not null" json:"event_id"`
	ProductID   *uint  `gorm:"index" json:"product_id,omitempty"`
	ProductName string `gorm:"size:200;not null" json:"product_name"`
	UserID      uint   `gorm:"not null;index" json:"user_id"`
	PriceCents  int64  `gorm:"not null;check:price_cents > 0" json:"price_cents"`
	Quantity    int64  `gorm:"not null;check:quantity > 0" json:"quantity"`
	Action      Action `gorm:"size:10;not null;check:action IN ('buy','sell')" json:"action"`
}

func (History) TableName() string { return "history" }

// Validate 做最小字段校验，写库前与消费脏消息前各调用一次。
func (h History) Validate() error {
	if h.ProductName == "" {
		return fmt.Errorf("product_name is required")
	}
	if h.UserID == 0 {
		return fmt.Errorf("user_id is required")
	}
	if h.PriceCents <= 0 {
		return fmt.Errorf("price_cents must be > 0")
	}
	if h.Quantity <= 0 {
		return fmt.Errorf("quantity must be > 0")
	}
	if !ValidAction(h.Action) {
		return fmt.Errorf("action must be 'buy' or 'sell'")
	}
	return nil
}
