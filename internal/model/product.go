package model

import (
	"time"
)

// Product 库存商品：价格以分为单位的定点整数，库存为非负整数。
// 两条约束由服务层先校验，迁移时再落成 check 约束兜底。
type Product struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name        string `gorm:"size:200;not null" json:"name"`
	PriceCents  int64  `gorm:"not null;check:price_cents > 0" json:"price_cents"`
	Stock       int64  `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	Description string `gorm:"size:1000" json:"description,omitempty"`
	OwnerID     uint   `gorm:"not null;index" json:"owner_id"`
}

func (Product) TableName() string { return "products" }
