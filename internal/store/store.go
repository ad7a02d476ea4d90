package store

import (
	"strings"

	"shoptrack/internal/model"

	"gorm.io/gorm"
)

// AutoMigrate 建表：四张表加上各自的 check/unique 约束。
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Session{},
		&model.Product{},
		&model.History{},
	)
}

// likeLower 归一化 LIKE 查询词，顺手转义通配符防止语义漂移。
func likeLower(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	q = strings.ReplaceAll(q, `\`, `\\`)
	q = strings.ReplaceAll(q, "%", `\%`)
	q = strings.ReplaceAll(q, "_", `\_`)
	return q
}
