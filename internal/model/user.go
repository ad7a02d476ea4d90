package model

import (
	"time"
)

// User 账户：用户名全小写存储，保证登录时大小写不敏感。
// PasswordHash 只存 bcrypt 散列，永远不序列化回客户端。
type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Username     string  `gorm:"size:80;uniqueIndex;not null" json:"username"`
	PasswordHash string  `gorm:"size:255;not null" json:"-"`
	Email        *string `gorm:"size:120;uniqueIndex" json:"email,omitempty"`
}

func (User) TableName() string { return "users" }
