package model

import (
	"time"
)

// Session 登录会话：ID 即对外发放的不透明 token（uuid）。
// 会话只有两种变更：失效（Expires 拨到当前时刻）与续期（拨到 now+TTL）。
// 过期行由后台清理任务硬删除，失效本身不删行。
type Session struct {
	ID        string    `gorm:"primarykey;size:64" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID uint `gorm:"not null;index" json:"user_id"`
	// Expires 统一使用 UTC，所有比较都走同一个时钟来源。
	Expires time.Time `gorm:"not null;index" json:"expires"`
}

func (Session) TableName() string { return "sessions" }

// Valid 判断会话在 now 时刻是否有效。
func (s Session) Valid(now time.Time) bool {
	return now.UTC().Before(s.Expires)
}
